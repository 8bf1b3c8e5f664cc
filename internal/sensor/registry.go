package sensor

import (
	"fmt"

	"github.com/dagu-org/scenewatcher/internal/rowset"
)

// Client is the full orchestrator surface every sensor variant needs.
// *orchestrator.Client satisfies it; tests satisfy it with fakes.
type Client interface {
	dagRunLister
	taskInstanceGetter
	xcomGetter
}

// Spec is the config-decoded shape of one watcher's upstream[] entry
// (spec.md §4.2, §6). Type is one of the closed tags below; construction
// is the system's only reflective step, and this switch is it — there is
// no runtime class lookup.
type Spec struct {
	Type            string         `mapstructure:"type"`
	DagID           string         `mapstructure:"dag_id"`
	TaskID          string         `mapstructure:"task_id"`
	XcomKey         string         `mapstructure:"xcom_key"`
	SceneList       []rowset.Row   `mapstructure:"scene_list"`
	BaseSceneIDKeys []string       `mapstructure:"base_scene_id_keys"`
	ExpandBy        *XComQuerySpec `mapstructure:"expand_by"`
	ReduceBy        *XComQuerySpec `mapstructure:"reduce_by"`
}

// XComQuerySpec is the config-decoded shape of an expand_by/reduce_by entry.
type XComQuerySpec struct {
	DagID     string `mapstructure:"dag_id"`
	TaskID    string `mapstructure:"task_id"`
	XcomKey   string `mapstructure:"xcom_key"`
	ReferName string `mapstructure:"refer_name"`
}

func (s XComQuerySpec) toQuery() XComQuery {
	return XComQuery{DagID: s.DagID, TaskID: s.TaskID, XcomKey: s.XcomKey, ReferName: s.ReferName}
}

const (
	TypeDag             = "dag"
	TypeTask            = "task"
	TypeStaticSceneList = "static_scene_list"
	TypeXcomValue       = "xcom_value"
)

// Build constructs one Sensor from its config entry, applying the
// expand_by/reduce_by transform (at most one of which may be set) when
// present.
func Build(spec Spec, client Client, batchID string) (Sensor, error) {
	var base SceneKeyedSensor

	switch spec.Type {
	case TypeDag:
		base = NewDagSensor(client, batchID, spec.DagID, spec.BaseSceneIDKeys)
	case TypeTask:
		base = NewTaskSensor(client, batchID, spec.DagID, spec.TaskID, spec.BaseSceneIDKeys)
	case TypeStaticSceneList:
		base = NewStaticSceneListSensor(batchID, spec.SceneList, spec.BaseSceneIDKeys)
	case TypeXcomValue:
		base = NewXcomValueSensor(client, batchID, spec.DagID, spec.TaskID, spec.XcomKey, spec.BaseSceneIDKeys)
	default:
		return nil, fmt.Errorf("sensor: unknown type tag %q", spec.Type)
	}

	if spec.ExpandBy != nil && spec.ReduceBy != nil {
		return nil, fmt.Errorf("sensor: at most one of expand_by/reduce_by may be set")
	}
	if spec.ExpandBy != nil {
		return NewExpand(base, spec.ExpandBy.toQuery(), client, batchID), nil
	}
	if spec.ReduceBy != nil {
		return NewReduce(base, spec.ReduceBy.toQuery(), client, batchID), nil
	}
	return base, nil
}
