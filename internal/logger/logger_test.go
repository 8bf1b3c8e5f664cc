package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_DefaultsToInfoText(t *testing.T) {
	l := NewLogger()
	assert.NotNil(t, l)
}

func TestNewLogger_JSONFormat(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "log-*.json")
	require.NoError(t, err)
	defer f.Close()

	l := NewLogger(WithFormat("json"), WithLogFile(f))
	l.Info("tick complete", "dag_id", "d1", "action", "idle")

	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "tick complete", entry["msg"])
	assert.Equal(t, "d1", entry["dag_id"])
	assert.Equal(t, "idle", entry["action"])
}

func TestNewLogger_QuietSuppressesInfo(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "log-*.txt")
	require.NoError(t, err)
	defer f.Close()

	l := NewLogger(WithQuiet(), WithLogFile(f))
	l.Info("should not appear")
	l.Error("should appear")

	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	out := string(data)
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "should appear")
}

func TestNewLogger_DebugEnablesDebugLevel(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "log-*.txt")
	require.NoError(t, err)
	defer f.Close()

	l := NewLogger(WithDebug(), WithLogFile(f))
	l.Debug("debug line")

	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "debug line"))
}

func TestLogger_With(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "log-*.json")
	require.NoError(t, err)
	defer f.Close()

	base := NewLogger(WithFormat("json"), WithLogFile(f))
	child := base.With("watcher", "w1")
	child.Info("hello")

	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "w1", entry["watcher"])
}
