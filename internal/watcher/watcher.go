// Package watcher implements the periodic controller that aggregates
// sensors, computes ready scenes, compares them against existing
// downstream DagRuns, and triggers at most one new scene per tick
// (spec.md §4.4, §4.5).
package watcher

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dagu-org/scenewatcher/internal/orchestrator"
	"github.com/dagu-org/scenewatcher/internal/rowset"
	"github.com/dagu-org/scenewatcher/internal/scene"
	"github.com/dagu-org/scenewatcher/internal/sensor"
)

// Action is the outcome of one Tick() call.
type Action string

const (
	ActionTrigger Action = "trigger"
	ActionIdle    Action = "idle"
)

// Result is the pure-function output of a single tick: what the
// controller should do next, carrying the triggered scene's coordinates
// when Action is ActionTrigger.
type Result struct {
	Action  Action
	Context rowset.Row

	// ReadyCount and RunningCount are the tick's intermediate set sizes,
	// exposed for the admin/metrics surface rather than the tick decision
	// itself.
	ReadyCount   int
	RunningCount int
}

// Variant selects how this watcher's downstream scene-keys relate to its
// upstream scene-keys (spec.md §4.4).
type Variant int

const (
	VariantPlain Variant = iota
	VariantExpanded
	VariantReduced
)

// IDStyle is one of the four triggered_dag_run_id_style formulas
// (spec.md §4.4.3).
type IDStyle string

const (
	IDStyleTimestamp                  IDStyle = "timestamp"
	IDStyleSceneIDKeys                IDStyle = "scene_id_keys"
	IDStyleSceneIDKeysWithTime        IDStyle = "scene_id_keys_with_time"
	IDStyleBatchIDSceneIDKeysWithTime IDStyle = "batch_id_scene_id_keys_with_time"
)

// Client is the orchestrator surface a Watcher needs: every sensor
// dependency plus TriggerDag.
type Client interface {
	sensor.Client
	TriggerDag(ctx context.Context, dagID string, payload map[string]any, runID string) (*orchestrator.TriggerResult, error)
}

// Config is one watchers[] entry (spec.md §4.4's field table).
type Config struct {
	DagID                  string
	BatchID                string
	SceneIDKeys            []string
	SceneIDDtypes          map[string]scene.DType
	FixedDagRunConf        rowset.Row
	UpstreamSensors        []sensor.Sensor
	MaxRunningDagRuns      int
	TriggeredDagRunIDStyle IDStyle
	WatchInterval          time.Duration

	Variant Variant
	// ExpandQuery is set for VariantExpanded: the ready-set is
	// inner-joined with its result on SceneIDKeys, and its ReferName
	// becomes an extra downstream key.
	ExpandQuery *sensor.XComQuery
	// ReduceRefer is set for VariantReduced: it names the key dropped
	// from SceneIDKeys to produce the downstream key-set.
	ReduceRefer string
}

// Watcher runs the tick algorithm for one downstream DAG.
type Watcher struct {
	cfg    Config
	client Client
	now    func() time.Time
}

// New builds a Watcher. now defaults to time.Now; tests may override it.
func New(cfg Config, client Client) *Watcher {
	return &Watcher{cfg: cfg, client: client, now: time.Now}
}

// DownstreamKeys returns the scene coordinate columns this watcher's
// downstream DagRuns are keyed by (spec.md §4.4 variants).
func (w *Watcher) DownstreamKeys() []string {
	switch w.cfg.Variant {
	case VariantExpanded:
		return append(append([]string{}, w.cfg.SceneIDKeys...), w.cfg.ExpandQuery.ReferName)
	case VariantReduced:
		out := make([]string, 0, len(w.cfg.SceneIDKeys))
		for _, k := range w.cfg.SceneIDKeys {
			if k != w.cfg.ReduceRefer {
				out = append(out, k)
			}
		}
		return out
	default:
		return w.cfg.SceneIDKeys
	}
}

// Tick runs one full watch: compute ready, compute existing, enforce the
// concurrency cap, and decide trigger-or-idle (spec.md §4.4 tick algorithm).
func (w *Watcher) Tick(ctx context.Context) (*Result, error) {
	ready, err := w.computeReady(ctx)
	if err != nil {
		return nil, fmt.Errorf("compute ready: %w", err)
	}

	if w.cfg.Variant == VariantExpanded {
		expansion, err := w.cfg.ExpandQuery.Query(ctx, w.client, w.cfg.BatchID, w.cfg.SceneIDKeys, "success")
		if err != nil {
			return nil, fmt.Errorf("expand ready: %w", err)
		}
		ready = ready.InnerJoin(expansion, w.cfg.SceneIDKeys)
	}

	existing, err := w.computeExisting(ctx)
	if err != nil {
		return nil, fmt.Errorf("compute existing: %w", err)
	}

	running := existing.FilterEq("state", "running")
	quota := w.cfg.MaxRunningDagRuns - len(running)

	if len(ready) == 0 || quota <= 0 {
		return &Result{Action: ActionIdle, ReadyCount: len(ready), RunningCount: len(running)}, nil
	}

	downstreamKeys := w.DownstreamKeys()
	for _, r := range ready {
		if !anyRowMatchesKeys(existing, r, downstreamKeys) {
			coerced, err := scene.CoerceAll(r, w.cfg.SceneIDDtypes)
			if err != nil {
				return nil, fmt.Errorf("coerce ready scene: %w", err)
			}
			return &Result{Action: ActionTrigger, Context: coerced, ReadyCount: len(ready), RunningCount: len(running)}, nil
		}
	}
	return &Result{Action: ActionIdle, ReadyCount: len(ready), RunningCount: len(running)}, nil
}

// computeReady implements §4.4.1: fan out sense(success) over every
// sensor concurrently, concatenate, group by SceneIDKeys, and keep groups
// where every sensor's QueryKeyValues matches some row in the group.
func (w *Watcher) computeReady(ctx context.Context) (rowset.Set, error) {
	type result struct {
		rows rowset.Set
		err  error
	}
	results := make([]result, len(w.cfg.UpstreamSensors))
	done := make(chan int, len(w.cfg.UpstreamSensors))

	for i, s := range w.cfg.UpstreamSensors {
		go func(i int, s sensor.Sensor) {
			rows, err := s.Sense(ctx, "success")
			results[i] = result{rows: rows, err: err}
			done <- i
		}(i, s)
	}
	for range w.cfg.UpstreamSensors {
		<-done
	}
	for _, r := range results {
		if r.err != nil {
			return nil, r.err
		}
	}

	all := make([]rowset.Set, len(results))
	for i, r := range results {
		all[i] = r.rows
	}
	combined := rowset.Concat(all...)
	if len(combined) == 0 {
		return rowset.Set{}, nil
	}

	groups := combined.GroupBy(w.cfg.SceneIDKeys)
	out := make(rowset.Set, 0, len(groups))
	for _, g := range groups {
		allMatch := true
		for _, s := range w.cfg.UpstreamSensors {
			if !anyRowMatches(g.Rows, s.QueryKeyValues()) {
				allMatch = false
				break
			}
		}
		if allMatch {
			out = append(out, g.Key.Clone())
		}
	}
	return out, nil
}

// computeExisting implements §4.4.2: the watcher's own DagRuns, keyed by
// DownstreamKeys() plus "state" sourced from dag_run_state. ListDagRuns
// already flattens conf, so an Expanded watcher's extra key is already a
// top-level column when present.
func (w *Watcher) computeExisting(ctx context.Context) (rowset.Set, error) {
	rows, err := w.client.ListDagRuns(ctx, w.cfg.DagID, w.cfg.BatchID)
	if err != nil {
		return nil, err
	}
	keys := w.DownstreamKeys()
	out := make(rowset.Set, 0, len(rows))
	for _, r := range rows {
		row := scene.Coords(r, keys)
		row["state"] = r["dag_run_state"]
		out = append(out, row)
	}
	return out, nil
}

// anyRowMatches tests whether some row carries every column of qkv and
// itself reports state "success". A column aggregated into a list by
// Reduce (every sub-scene repeats the same sensor identity under a list,
// per rowset.Aggregate) matches by membership instead of direct
// equality, so a Reduce-decorated sensor's query_key_values still
// identifies its own contribution after aggregation collapses its scalar
// columns into lists. The state check is what lets Reduce's conjunctive
// "failed" aggregate correctly keep a scene not-ready (spec.md §4.3 P5),
// since Reduce does not itself filter its aggregated output by state.
func anyRowMatches(rows rowset.Set, qkv rowset.Row) bool {
	for _, r := range rows {
		if !rowset.Equal(r["state"], "success") {
			continue
		}
		match := true
		for k, v := range qkv {
			if list, ok := r[k].([]any); ok {
				if !containsEqual(list, v) {
					match = false
					break
				}
				continue
			}
			if !rowset.Equal(r[k], v) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func containsEqual(list []any, v any) bool {
	for _, item := range list {
		if rowset.Equal(item, v) {
			return true
		}
	}
	return false
}

func anyRowMatchesKeys(rows rowset.Set, target rowset.Row, keys []string) bool {
	for _, r := range rows {
		match := true
		for _, k := range keys {
			if !rowset.Equal(r[k], target[k]) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// Trigger builds the trigger payload and dag_run_id for a ready scene and
// submits it (spec.md §4.4.3).
func (w *Watcher) Trigger(ctx context.Context, coords rowset.Row) (*orchestrator.TriggerResult, error) {
	payload := rowset.Row{"batch_id": w.cfg.BatchID}
	for k, v := range coords {
		payload[k] = v
	}
	for k, v := range w.cfg.FixedDagRunConf {
		payload[k] = v
	}

	runID := w.triggeredRunID(coords)
	return w.client.TriggerDag(ctx, w.cfg.DagID, payload, runID)
}

func (w *Watcher) triggeredRunID(coords rowset.Row) string {
	keys := w.DownstreamKeys()
	kv := make([]string, 0, len(keys))
	for _, k := range keys {
		kv = append(kv, fmt.Sprintf("%s:%v", k, coords[k]))
	}
	joined := strings.Join(kv, "__")
	wallTime := strconv.FormatInt(w.now().Unix(), 10)

	switch w.cfg.TriggeredDagRunIDStyle {
	case IDStyleTimestamp:
		return ""
	case IDStyleSceneIDKeys:
		return joined
	case IDStyleBatchIDSceneIDKeysWithTime:
		return fmt.Sprintf("batch_id:%s__%s__%s", w.cfg.BatchID, joined, wallTime)
	case IDStyleSceneIDKeysWithTime:
		fallthrough
	default:
		return fmt.Sprintf("%s__%s", joined, wallTime)
	}
}
