package sensor

import (
	"context"
	"testing"

	"github.com/dagu-org/scenewatcher/internal/rowset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDagSensor_SenseFiltersByState(t *testing.T) {
	fc := newFakeClient()
	fc.dagRuns["dagA"] = rowset.Set{
		{"dag_id": "dagA", "dag_run_id": "r1", "dag_run_state": "success", "batch_id": "b1", "scene_id": "S1"},
		{"dag_id": "dagA", "dag_run_id": "r2", "dag_run_state": "running", "batch_id": "b1", "scene_id": "S2"},
	}

	s := NewDagSensor(fc, "b1", "dagA", []string{"scene_id"})
	rows, err := s.Sense(context.Background(), "success")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "S1", rows[0]["scene_id"])
	assert.Equal(t, "success", rows[0]["state"])
}

func TestDagSensor_QueryKeyValues(t *testing.T) {
	s := NewDagSensor(newFakeClient(), "b1", "dagA", nil)
	assert.Equal(t, rowset.Row{"batch_id": "b1", "dag_id": "dagA"}, s.QueryKeyValues())
}

func TestTaskSensor_DropsMissingTaskInstances(t *testing.T) {
	fc := newFakeClient()
	fc.dagRuns["dagA"] = rowset.Set{
		{"dag_id": "dagA", "dag_run_id": "r1", "dag_run_state": "success", "batch_id": "b1", "scene_id": "S1"},
		{"dag_id": "dagA", "dag_run_id": "r2", "dag_run_state": "success", "batch_id": "b1", "scene_id": "S2"},
	}
	fc.tasks["dagA/r1/t1"] = "success"

	s := NewTaskSensor(fc, "b1", "dagA", "t1", []string{"scene_id"})
	rows, err := s.Sense(context.Background(), "success")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "S1", rows[0]["scene_id"])
}

func TestStaticSceneListSensor_TagsBatchAndState(t *testing.T) {
	s := NewStaticSceneListSensor("b1", rowset.Set{{"scene_id": "S1"}, {"scene_id": "S2"}}, []string{"scene_id"})
	rows, err := s.Sense(context.Background(), "success")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, "b1", r["batch_id"])
		assert.Equal(t, "success", r["state"])
	}
}

func TestXcomValueSensor_ParsesScalarAsState(t *testing.T) {
	fc := newFakeClient()
	fc.dagRuns["dagA"] = rowset.Set{
		{"dag_id": "dagA", "dag_run_id": "r1", "dag_run_state": "success", "batch_id": "b1", "scene_id": "S1"},
	}
	fc.xcoms["dagA/r1/t1/k"] = `"success"`

	s := NewXcomValueSensor(fc, "b1", "dagA", "t1", "k", []string{"scene_id"})
	rows, err := s.Sense(context.Background(), "success")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "success", rows[0]["state"])
}
