package sensor

import (
	"context"
	"errors"

	"github.com/dagu-org/scenewatcher/internal/orchestrator"
	"github.com/dagu-org/scenewatcher/internal/rowset"
)

// fakeClient is an in-memory stand-in for *orchestrator.Client, grounded
// on the same (dag_id, dag_run_id, task_id) addressing scheme.
type fakeClient struct {
	dagRuns map[string]rowset.Set // dag_id -> rows (each carries dag_run_id, dag_run_state, batch_id, plus conf)
	tasks   map[string]string     // "dag_id/dag_run_id/task_id" -> task_instance_state
	xcoms   map[string]string     // "dag_id/dag_run_id/task_id/key" -> raw json value
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		dagRuns: map[string]rowset.Set{},
		tasks:   map[string]string{},
		xcoms:   map[string]string{},
	}
}

func (f *fakeClient) ListDagRuns(_ context.Context, dagID, batch string) (rowset.Set, error) {
	out := rowset.Set{}
	for _, r := range f.dagRuns[dagID] {
		if r["batch_id"] != batch {
			continue
		}
		out = append(out, r.Clone())
	}
	return out, nil
}

func (f *fakeClient) GetTaskInstance(_ context.Context, dagID, dagRunID, taskID string) (rowset.Row, error) {
	state, ok := f.tasks[dagID+"/"+dagRunID+"/"+taskID]
	if !ok {
		return nil, errors.Join(orchestrator.ErrNotFound, errors.New("no such task instance"))
	}
	return rowset.Row{
		"dag_id":              dagID,
		"dag_run_id":          dagRunID,
		"task_id":             taskID,
		"task_instance_state": state,
	}, nil
}

func (f *fakeClient) GetXcom(_ context.Context, dagID, dagRunID, taskID, key string) (string, error) {
	v, ok := f.xcoms[dagID+"/"+dagRunID+"/"+taskID+"/"+key]
	if !ok {
		return "", errors.Join(orchestrator.ErrNotFound, errors.New("no such xcom"))
	}
	return v, nil
}
