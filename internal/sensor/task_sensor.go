package sensor

import (
	"context"
	"errors"
	"fmt"

	"github.com/dagu-org/scenewatcher/internal/orchestrator"
	"github.com/dagu-org/scenewatcher/internal/rowset"
)

// TaskSensor reports the state of one task instance per upstream DagRun,
// inner-joined on (dag_id, dag_run_id). A run with no matching task
// instance (orchestrator.ErrNotFound) is dropped, not an error (spec.md
// §4.2, §7).
type TaskSensor struct {
	client          dagRunLister
	taskClient      taskInstanceGetter
	batchID         string
	dagID           string
	taskID          string
	baseSceneIDKeys []string
}

func NewTaskSensor(client interface {
	dagRunLister
	taskInstanceGetter
}, batchID, dagID, taskID string, baseSceneIDKeys []string) *TaskSensor {
	return &TaskSensor{client: client, taskClient: client, batchID: batchID, dagID: dagID, taskID: taskID, baseSceneIDKeys: baseSceneIDKeys}
}

func (s *TaskSensor) Sense(ctx context.Context, desiredState string) (rowset.Set, error) {
	dagRuns, err := s.client.ListDagRuns(ctx, s.dagID, s.batchID)
	if err != nil {
		return nil, fmt.Errorf("task sensor %s/%s: %w", s.dagID, s.taskID, err)
	}

	out := make(rowset.Set, 0, len(dagRuns))
	for _, dr := range dagRuns {
		dagRunID, _ := dr["dag_run_id"].(string)
		ti, err := s.taskClient.GetTaskInstance(ctx, s.dagID, dagRunID, s.taskID)
		if err != nil {
			if errors.Is(err, orchestrator.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("task sensor %s/%s: %w", s.dagID, s.taskID, err)
		}

		row := dr.Clone()
		row["task_id"] = s.taskID
		row["task_instance_state"] = ti["task_instance_state"]
		row["state"] = ti["task_instance_state"]

		if desiredState != "" && row["task_instance_state"] != desiredState {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *TaskSensor) QueryKeyValues() rowset.Row {
	return rowset.Row{"batch_id": s.batchID, "dag_id": s.dagID, "task_id": s.taskID}
}

func (s *TaskSensor) BaseSceneIDKeys() []string { return s.baseSceneIDKeys }
