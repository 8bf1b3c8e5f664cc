package config

import (
	"context"

	"github.com/dagu-org/scenewatcher/internal/orchestrator"
	"github.com/dagu-org/scenewatcher/internal/rowset"
)

type fakeClient struct{}

func (fakeClient) ListDagRuns(_ context.Context, _, _ string) (rowset.Set, error) {
	return rowset.Set{}, nil
}

func (fakeClient) GetTaskInstance(_ context.Context, _, _, _ string) (rowset.Row, error) {
	return nil, orchestrator.ErrNotFound
}

func (fakeClient) GetXcom(_ context.Context, _, _, _, _ string) (string, error) {
	return "", orchestrator.ErrNotFound
}

func (fakeClient) TriggerDag(_ context.Context, _ string, _ map[string]any, _ string) (*orchestrator.TriggerResult, error) {
	return &orchestrator.TriggerResult{StatusCode: 200}, nil
}
