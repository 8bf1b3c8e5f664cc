package sensor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dagu-org/scenewatcher/internal/orchestrator"
	"github.com/dagu-org/scenewatcher/internal/rowset"
)

// XComQuery is an immutable inter-task key/value lookup: for every
// successful DagRun of dag_id it reads the xcom at (task_id, xcom_key),
// explodes it into a per-scene list of sub-keys under the refer_name
// column (spec.md §4.1 "XComQuery").
type XComQuery struct {
	DagID     string
	TaskID    string
	XcomKey   string
	ReferName string
}

// Query runs the five-step contract: fetch success-state DagRuns, fetch
// xcom per run tolerating NotFound, parse a JSON array of scalars or
// single-key maps, explode into ReferName dropping empty rows, and
// project to […baseSceneIDKeys, ReferName] (spec.md §4.1).
func (q XComQuery) Query(ctx context.Context, client interface {
	dagRunLister
	xcomGetter
}, batchID string, baseSceneIDKeys []string, desiredState string) (rowset.Set, error) {
	dagRuns, err := client.ListDagRuns(ctx, q.DagID, batchID)
	if err != nil {
		return nil, fmt.Errorf("xcom query %s/%s: %w", q.DagID, q.TaskID, err)
	}
	if len(dagRuns) == 0 {
		return rowset.Set{}, nil
	}

	rows := make(rowset.Set, 0, len(dagRuns))
	for _, dr := range dagRuns {
		dagRunID, _ := dr["dag_run_id"].(string)
		raw, err := client.GetXcom(ctx, q.DagID, dagRunID, q.TaskID, q.XcomKey)
		if err != nil {
			if errors.Is(err, orchestrator.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("xcom query %s/%s: %w", q.DagID, q.TaskID, err)
		}

		values, err := extractValues(raw)
		if err != nil {
			return nil, fmt.Errorf("xcom query %s/%s: %w", q.DagID, q.TaskID, err)
		}

		row := dr.Clone()
		row[q.ReferName] = values
		rows = append(rows, row)
	}

	exploded := rows.Explode(q.ReferName)
	if desiredState != "" {
		exploded = exploded.FilterEq("dag_run_state", desiredState)
	}

	columns := append(append([]string{}, baseSceneIDKeys...), q.ReferName)
	return exploded.Project(columns), nil
}

// extractValues parses a JSON array whose elements are either scalars or
// single-key objects, returning one value per element (the source's
// extract_values helper).
func extractValues(raw string) ([]any, error) {
	var parsed []any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("xcom value is not a json array: %w", err)
	}

	out := make([]any, 0, len(parsed))
	for _, item := range parsed {
		if m, ok := item.(map[string]any); ok {
			for _, v := range m {
				out = append(out, v)
				break
			}
			continue
		}
		out = append(out, item)
	}
	return out, nil
}
