package sensor

import (
	"context"
	"fmt"

	"github.com/dagu-org/scenewatcher/internal/rowset"
)

// dagRunLister is the subset of *orchestrator.Client that DagSensor and
// TaskSensor depend on, narrowed to ease testing with a fake.
type dagRunLister interface {
	ListDagRuns(ctx context.Context, dagID, batch string) (rowset.Set, error)
}

type taskInstanceGetter interface {
	GetTaskInstance(ctx context.Context, dagID, dagRunID, taskID string) (rowset.Row, error)
}

// DagSensor reports the state of upstream DagRuns, one row per run, with a
// synthesized "state" column mirroring dag_run_state (spec.md §4.2).
type DagSensor struct {
	client          dagRunLister
	batchID         string
	dagID           string
	baseSceneIDKeys []string
}

// NewDagSensor builds a DagSensor polling dagID's runs within batchID.
func NewDagSensor(client dagRunLister, batchID, dagID string, baseSceneIDKeys []string) *DagSensor {
	return &DagSensor{client: client, batchID: batchID, dagID: dagID, baseSceneIDKeys: baseSceneIDKeys}
}

func (s *DagSensor) Sense(ctx context.Context, desiredState string) (rowset.Set, error) {
	rows, err := s.client.ListDagRuns(ctx, s.dagID, s.batchID)
	if err != nil {
		return nil, fmt.Errorf("dag sensor %s: %w", s.dagID, err)
	}
	out := make(rowset.Set, 0, len(rows))
	for _, r := range rows {
		row := r.Clone()
		row["state"] = row["dag_run_state"]
		if desiredState != "" && row["dag_run_state"] != desiredState {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *DagSensor) QueryKeyValues() rowset.Row {
	return rowset.Row{"batch_id": s.batchID, "dag_id": s.dagID}
}

func (s *DagSensor) BaseSceneIDKeys() []string { return s.baseSceneIDKeys }
