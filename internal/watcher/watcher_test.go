package watcher

import (
	"context"
	"testing"
	"time"

	"github.com/dagu-org/scenewatcher/internal/rowset"
	"github.com/dagu-org/scenewatcher/internal/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTick_SingleSensorHappyPathTriggers(t *testing.T) {
	fc := newFakeClient()
	fc.dagRuns["A"] = rowset.Set{
		{"dag_id": "A", "dag_run_id": "r1", "dag_run_state": "success", "batch_id": "b1", "scene_id": "S1"},
	}
	fc.tasks["A/r1/t2"] = "success"

	taskSensor := sensor.NewTaskSensor(fc, "b1", "A", "t2", []string{"scene_id"})
	w := New(Config{
		DagID:                  "D",
		BatchID:                "b1",
		SceneIDKeys:            []string{"scene_id"},
		UpstreamSensors:        []sensor.Sensor{taskSensor},
		MaxRunningDagRuns:      3,
		TriggeredDagRunIDStyle: IDStyleSceneIDKeys,
	}, fc)

	result, err := w.Tick(context.Background())
	require.NoError(t, err)
	require.Equal(t, ActionTrigger, result.Action)
	assert.Equal(t, "S1", result.Context["scene_id"])
}

func TestTick_IdleWhenAlreadyExisting(t *testing.T) {
	fc := newFakeClient()
	fc.dagRuns["A"] = rowset.Set{
		{"dag_id": "A", "dag_run_id": "r1", "dag_run_state": "success", "batch_id": "b1", "scene_id": "S1"},
	}
	fc.tasks["A/r1/t2"] = "success"
	fc.dagRuns["D"] = rowset.Set{
		{"dag_id": "D", "dag_run_id": "d1", "dag_run_state": "success", "batch_id": "b1", "scene_id": "S1"},
	}

	taskSensor := sensor.NewTaskSensor(fc, "b1", "A", "t2", []string{"scene_id"})
	w := New(Config{
		DagID:                  "D",
		BatchID:                "b1",
		SceneIDKeys:            []string{"scene_id"},
		UpstreamSensors:        []sensor.Sensor{taskSensor},
		MaxRunningDagRuns:      3,
		TriggeredDagRunIDStyle: IDStyleSceneIDKeys,
	}, fc)

	result, err := w.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ActionIdle, result.Action)
}

func TestTick_IdleWhenQuotaExhausted(t *testing.T) {
	fc := newFakeClient()
	fc.dagRuns["A"] = rowset.Set{
		{"dag_id": "A", "dag_run_id": "r1", "dag_run_state": "success", "batch_id": "b1", "scene_id": "S1"},
		{"dag_id": "A", "dag_run_id": "r2", "dag_run_state": "success", "batch_id": "b1", "scene_id": "S2"},
	}
	fc.tasks["A/r1/t2"] = "success"
	fc.tasks["A/r2/t2"] = "success"
	fc.dagRuns["D"] = rowset.Set{
		{"dag_id": "D", "dag_run_id": "d1", "dag_run_state": "running", "batch_id": "b1", "scene_id": "S3"},
	}

	taskSensor := sensor.NewTaskSensor(fc, "b1", "A", "t2", []string{"scene_id"})
	w := New(Config{
		DagID:                  "D",
		BatchID:                "b1",
		SceneIDKeys:            []string{"scene_id"},
		UpstreamSensors:        []sensor.Sensor{taskSensor},
		MaxRunningDagRuns:      1,
		TriggeredDagRunIDStyle: IDStyleSceneIDKeys,
	}, fc)

	result, err := w.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ActionIdle, result.Action)
}

func TestTick_ExpandedWatcherTriggersOneSplitPerTick(t *testing.T) {
	fc := newFakeClient()
	fc.dagRuns["A"] = rowset.Set{
		{"dag_id": "A", "dag_run_id": "r1", "dag_run_state": "success", "batch_id": "b1", "scene_id": "X"},
	}
	fc.dagRuns["splitter"] = rowset.Set{
		{"dag_id": "splitter", "dag_run_id": "sr1", "dag_run_state": "success", "batch_id": "b1", "scene_id": "X"},
	}
	fc.xcoms["splitter/sr1/gen/return_value"] = `[0,1,2,3,4]`

	dagSensor := sensor.NewDagSensor(fc, "b1", "A", []string{"scene_id"})
	query := sensor.XComQuery{DagID: "splitter", TaskID: "gen", XcomKey: "return_value", ReferName: "split_id"}
	w := New(Config{
		DagID:                  "D",
		BatchID:                "b1",
		SceneIDKeys:            []string{"scene_id"},
		UpstreamSensors:        []sensor.Sensor{dagSensor},
		MaxRunningDagRuns:      3,
		TriggeredDagRunIDStyle: IDStyleSceneIDKeys,
		Variant:                VariantExpanded,
		ExpandQuery:            &query,
	}, fc)

	result, err := w.Tick(context.Background())
	require.NoError(t, err)
	require.Equal(t, ActionTrigger, result.Action)
	assert.Equal(t, "X", result.Context["scene_id"])
	assert.Contains(t, []any{0.0, 1.0, 2.0, 3.0, 4.0}, result.Context["split_id"])
}

func TestTick_ReducedWatcherNotReadyOnPartialFailure(t *testing.T) {
	fc := newFakeClient()
	fc.dagRuns["A"] = rowset.Set{
		{"dag_id": "A", "dag_run_id": "r1", "dag_run_state": "success", "batch_id": "b1", "scene_id": "X"},
	}
	fc.tasks["A/r1/t1"] = "success"
	fc.dagRuns["splitter"] = rowset.Set{
		{"dag_id": "splitter", "dag_run_id": "sr1", "dag_run_state": "success", "batch_id": "b1", "scene_id": "X"},
	}
	fc.xcoms["splitter/sr1/gen/return_value"] = `[0,1,2,3,4]`

	inner := sensor.NewTaskSensor(fc, "b1", "A", "t1", []string{"scene_id"})
	query := sensor.XComQuery{DagID: "splitter", TaskID: "gen", XcomKey: "return_value", ReferName: "split_id"}
	reduced := sensor.NewReduce(inner, query, fc, "b1")

	w := New(Config{
		DagID:                  "D",
		BatchID:                "b1",
		SceneIDKeys:            []string{"scene_id"},
		UpstreamSensors:        []sensor.Sensor{reduced},
		MaxRunningDagRuns:      3,
		TriggeredDagRunIDStyle: IDStyleSceneIDKeys,
		Variant:                VariantReduced,
		ReduceRefer:            "split_id",
	}, fc)

	result, err := w.Tick(context.Background())
	require.NoError(t, err)
	// only one dag run (r1) exists for scene X, with no split_id, but the
	// splitter reports 5 split_ids; the outer join contributes 5 unmatched
	// expansion rows with no "state" at all, so the conjunction aggregates
	// to "failed" and the scene is not ready.
	assert.Equal(t, ActionIdle, result.Action)
}

func TestTriggeredRunID_Styles(t *testing.T) {
	fc := newFakeClient()
	w := New(Config{
		DagID: "D", BatchID: "b1", SceneIDKeys: []string{"scene_id"},
		TriggeredDagRunIDStyle: IDStyleTimestamp,
	}, fc)
	w.now = func() time.Time { return time.Unix(1700000000, 0) }

	coords := rowset.Row{"scene_id": "S1"}
	assert.Equal(t, "", w.triggeredRunID(coords))

	w.cfg.TriggeredDagRunIDStyle = IDStyleSceneIDKeys
	assert.Equal(t, "scene_id:S1", w.triggeredRunID(coords))

	w.cfg.TriggeredDagRunIDStyle = IDStyleSceneIDKeysWithTime
	assert.Equal(t, "scene_id:S1__1700000000", w.triggeredRunID(coords))

	w.cfg.TriggeredDagRunIDStyle = IDStyleBatchIDSceneIDKeysWithTime
	assert.Equal(t, "batch_id:b1__scene_id:S1__1700000000", w.triggeredRunID(coords))
}
