package watcher

import (
	"context"

	"github.com/dagu-org/scenewatcher/internal/orchestrator"
	"github.com/dagu-org/scenewatcher/internal/rowset"
)

type fakeClient struct {
	dagRuns   map[string]rowset.Set
	tasks     map[string]string
	xcoms     map[string]string
	triggered []triggerCall
}

type triggerCall struct {
	dagID   string
	payload map[string]any
	runID   string
}

func newFakeClient() *fakeClient {
	return &fakeClient{dagRuns: map[string]rowset.Set{}, tasks: map[string]string{}, xcoms: map[string]string{}}
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
		return nil, orchestrator.ErrNotFound
	}
	return rowset.Row{"dag_id": dagID, "dag_run_id": dagRunID, "task_id": taskID, "task_instance_state": state}, nil
}

func (f *fakeClient) GetXcom(_ context.Context, dagID, dagRunID, taskID, key string) (string, error) {
	v, ok := f.xcoms[dagID+"/"+dagRunID+"/"+taskID+"/"+key]
	if !ok {
		return "", orchestrator.ErrNotFound
	}
	return v, nil
}

func (f *fakeClient) TriggerDag(_ context.Context, dagID string, payload map[string]any, runID string) (*orchestrator.TriggerResult, error) {
	f.triggered = append(f.triggered, triggerCall{dagID: dagID, payload: payload, runID: runID})
	return &orchestrator.TriggerResult{StatusCode: 200}, nil
}
