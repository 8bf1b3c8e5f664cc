package orchestrator

import (
	"context"
	"fmt"

	"github.com/dagu-org/scenewatcher/internal/rowset"
	"github.com/go-resty/resty/v2"
)

type dagRunsResponse struct {
	DagRuns []dagRunPayload `json:"dag_runs"`
}

type dagRunPayload struct {
	DagRunID string         `json:"dag_run_id"`
	State    string         `json:"state"`
	Conf     map[string]any `json:"conf"`
}

// ListDagRuns returns every DagRun of dagID whose trigger payload's
// batch_id equals batch, flattened so every conf key becomes a top-level
// column alongside dag_id, dag_run_id and dag_run_state (spec.md §4.1).
// An empty result is a legal empty row-set, not an error.
func (c *Client) ListDagRuns(ctx context.Context, dagID, batch string) (rowset.Set, error) {
	var body dagRunsResponse
	resp, err := c.do(ctx, func() (*resty.Response, error) {
		return c.rest.R().SetContext(ctx).SetResult(&body).
			Get(fmt.Sprintf("/api/v1/dags/%s/dagRuns", dagID))
	})
	if err != nil {
		return nil, fmt.Errorf("list dag runs %s: %w", dagID, err)
	}
	_ = resp

	out := rowset.Set{}
	for _, dr := range body.DagRuns {
		if fmt.Sprint(dr.Conf["batch_id"]) != batch {
			continue
		}
		row := rowset.Row{
			"dag_id":        dagID,
			"dag_run_id":    dr.DagRunID,
			"dag_run_state": dr.State,
		}
		for k, v := range dr.Conf {
			row[k] = v
		}
		out = append(out, row)
	}
	return out, nil
}

type taskInstancePayload struct {
	State string `json:"state"`
}

// GetTaskInstance fetches one task instance's state. A 404 (task or run
// absent) surfaces as ErrNotFound (spec.md §4.1).
func (c *Client) GetTaskInstance(ctx context.Context, dagID, dagRunID, taskID string) (rowset.Row, error) {
	var body taskInstancePayload
	resp, err := c.do(ctx, func() (*resty.Response, error) {
		return c.rest.R().SetContext(ctx).SetResult(&body).
			Get(fmt.Sprintf("/api/v1/dags/%s/dagRuns/%s/taskInstances/%s", dagID, dagRunID, taskID))
	})
	if err != nil {
		return nil, err
	}
	_ = resp
	return rowset.Row{
		"dag_id":              dagID,
		"dag_run_id":          dagRunID,
		"task_id":             taskID,
		"task_instance_state": body.State,
	}, nil
}

type xcomPayload struct {
	Value string `json:"value"`
}

// GetXcom fetches the raw string xcom value at (taskID, key). A 404
// surfaces as ErrNotFound, tolerated locally by XComQuery (spec.md §3 step 2).
func (c *Client) GetXcom(ctx context.Context, dagID, dagRunID, taskID, key string) (string, error) {
	var body xcomPayload
	_, err := c.do(ctx, func() (*resty.Response, error) {
		return c.rest.R().SetContext(ctx).SetResult(&body).
			Get(fmt.Sprintf("/api/v1/dags/%s/dagRuns/%s/taskInstances/%s/xcomEntries/%s", dagID, dagRunID, taskID, key))
	})
	if err != nil {
		return "", err
	}
	return body.Value, nil
}

type dagInfoPayload struct {
	IsPaused bool `json:"is_paused"`
}

// GetDagInfo returns the downstream DAG's basic info, at least is_paused.
func (c *Client) GetDagInfo(ctx context.Context, dagID string) (rowset.Row, error) {
	var body dagInfoPayload
	_, err := c.do(ctx, func() (*resty.Response, error) {
		return c.rest.R().SetContext(ctx).SetResult(&body).
			Get(fmt.Sprintf("/api/v1/dags/%s", dagID))
	})
	if err != nil {
		return nil, err
	}
	return rowset.Row{"is_paused": body.IsPaused}, nil
}

// TriggerResult is the outcome of a TriggerDag call.
type TriggerResult struct {
	StatusCode int
	Message    string
	Paused     bool
}

// TriggerDag triggers a DagRun of dagID with the given payload and
// optional runID. If the DAG is paused, it returns a success result
// carrying Paused=true and submits no trigger (spec.md §4.1, §7 PausedDag).
func (c *Client) TriggerDag(ctx context.Context, dagID string, payload map[string]any, runID string) (*TriggerResult, error) {
	info, err := c.GetDagInfo(ctx, dagID)
	if err != nil {
		return nil, fmt.Errorf("trigger dag %s: check paused: %w", dagID, err)
	}
	if paused, _ := info["is_paused"].(bool); paused {
		return &TriggerResult{
			StatusCode: 200,
			Message:    fmt.Sprintf("DAG %s is paused, skip triggering.", dagID),
			Paused:     true,
		}, nil
	}

	coerced, err := coercePayload(payload)
	if err != nil {
		return nil, fmt.Errorf("trigger dag %s: %w", dagID, err)
	}

	body := map[string]any{"conf": coerced}
	if runID != "" {
		body["dag_run_id"] = runID
	}

	var respBody map[string]any
	resp, err := c.do(ctx, func() (*resty.Response, error) {
		return c.rest.R().SetContext(ctx).SetBody(body).SetResult(&respBody).
			Post(fmt.Sprintf("/api/v1/dags/%s/dagRuns", dagID))
	})
	if err != nil {
		return nil, fmt.Errorf("trigger dag %s: %w", dagID, err)
	}

	msg, _ := respBody["message"].(string)
	return &TriggerResult{StatusCode: resp.StatusCode(), Message: msg}, nil
}

// coercePayload ensures every value is a JSON-serialisable primitive
// (int/float/str/bool), matching the source's dtype_map normalization
// that exists "to prevent Airflow complaining about json serialization".
func coercePayload(payload map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		switch v.(type) {
		case int, int32, int64, float32, float64, string, bool, nil:
			out[k] = v
		default:
			return nil, fmt.Errorf("payload key %q has non-primitive type %T", k, v)
		}
	}
	return out, nil
}
