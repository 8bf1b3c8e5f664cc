package sensor

import (
	"context"

	"github.com/dagu-org/scenewatcher/internal/rowset"
)

// StaticSceneListSensor injects a fixed, config-declared fan-out of
// scenes, each always reporting state "success" (spec.md §4.2).
type StaticSceneListSensor struct {
	batchID         string
	sceneList       rowset.Set
	baseSceneIDKeys []string
}

func NewStaticSceneListSensor(batchID string, sceneList rowset.Set, baseSceneIDKeys []string) *StaticSceneListSensor {
	return &StaticSceneListSensor{batchID: batchID, sceneList: sceneList, baseSceneIDKeys: baseSceneIDKeys}
}

func (s *StaticSceneListSensor) Sense(_ context.Context, desiredState string) (rowset.Set, error) {
	out := make(rowset.Set, 0, len(s.sceneList))
	for _, r := range s.sceneList {
		row := r.Clone()
		row["batch_id"] = s.batchID
		row["state"] = "success"
		if desiredState != "" && desiredState != "success" {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *StaticSceneListSensor) QueryKeyValues() rowset.Row {
	return rowset.Row{"batch_id": s.batchID}
}

func (s *StaticSceneListSensor) BaseSceneIDKeys() []string { return s.baseSceneIDKeys }
