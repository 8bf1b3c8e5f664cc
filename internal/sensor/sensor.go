// Package sensor implements the upstream probes that watchers poll each
// tick: DagSensor, TaskSensor, StaticSceneListSensor, and the supplemented
// XcomValueSensor, plus the Expand and Reduce transforms that compose with
// any of them (spec.md §4.2, §4.3).
package sensor

import (
	"context"

	"github.com/dagu-org/scenewatcher/internal/rowset"
)

// Sensor is the capability every upstream probe exposes: sense an upstream
// state, optionally filtered, and report the key/value map that identifies
// which upstream unit it watches (spec.md §4.2).
type Sensor interface {
	Sense(ctx context.Context, desiredState string) (rowset.Set, error)
	QueryKeyValues() rowset.Row
}

// SceneKeyedSensor is a Sensor whose sense() output carries the
// base_scene_id_keys columns, a prerequisite for Expand/Reduce (spec.md
// §4.3: "Both transforms decorate a sensor and require base_scene_id_keys
// on the underlying sensor").
type SceneKeyedSensor interface {
	Sensor
	BaseSceneIDKeys() []string
}
