package sensor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dagu-org/scenewatcher/internal/orchestrator"
	"github.com/dagu-org/scenewatcher/internal/rowset"
)

type xcomGetter interface {
	GetXcom(ctx context.Context, dagID, dagRunID, taskID, key string) (string, error)
}

// XcomValueSensor gates readiness off an xcom value rather than a
// task/dag state: for every matching DagRun it fetches the xcom at
// xcomKey on taskID and treats the parsed scalar as that run's "state",
// letting a scene be considered ready when a task emitted a literal
// string such as "success" (SPEC_FULL.md's supplemented XcomSensor
// rework). A run whose task or xcom entry is missing is dropped, the
// same tolerance XComQuery applies to a missing xcom fetch.
type XcomValueSensor struct {
	client          dagRunLister
	xcomClient      xcomGetter
	batchID         string
	dagID           string
	taskID          string
	xcomKey         string
	baseSceneIDKeys []string
}

func NewXcomValueSensor(client interface {
	dagRunLister
	xcomGetter
}, batchID, dagID, taskID, xcomKey string, baseSceneIDKeys []string) *XcomValueSensor {
	return &XcomValueSensor{
		client: client, xcomClient: client,
		batchID: batchID, dagID: dagID, taskID: taskID, xcomKey: xcomKey,
		baseSceneIDKeys: baseSceneIDKeys,
	}
}

func (s *XcomValueSensor) Sense(ctx context.Context, desiredState string) (rowset.Set, error) {
	dagRuns, err := s.client.ListDagRuns(ctx, s.dagID, s.batchID)
	if err != nil {
		return nil, fmt.Errorf("xcom value sensor %s/%s: %w", s.dagID, s.taskID, err)
	}

	out := make(rowset.Set, 0, len(dagRuns))
	for _, dr := range dagRuns {
		dagRunID, _ := dr["dag_run_id"].(string)
		raw, err := s.xcomClient.GetXcom(ctx, s.dagID, dagRunID, s.taskID, s.xcomKey)
		if err != nil {
			if errors.Is(err, orchestrator.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("xcom value sensor %s/%s: %w", s.dagID, s.taskID, err)
		}

		var scalar any
		if err := json.Unmarshal([]byte(raw), &scalar); err != nil {
			scalar = raw
		}

		row := dr.Clone()
		row["task_id"] = s.taskID
		row["state"] = scalar
		if desiredState != "" && fmt.Sprint(scalar) != desiredState {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *XcomValueSensor) QueryKeyValues() rowset.Row {
	return rowset.Row{"batch_id": s.batchID, "dag_id": s.dagID, "task_id": s.taskID}
}

func (s *XcomValueSensor) BaseSceneIDKeys() []string { return s.baseSceneIDKeys }
