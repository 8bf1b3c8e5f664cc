package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusBoard_SetAndSnapshot(t *testing.T) {
	b := NewStatusBoard()
	b.Set(WatcherStatus{DagID: "D1", LastAction: "trigger", ReadyCount: 2})
	b.Set(WatcherStatus{DagID: "D2", LastAction: "idle"})
	b.Set(WatcherStatus{DagID: "D1", LastAction: "idle", ReadyCount: 0})

	snap := b.Snapshot()
	require.Len(t, snap, 2)

	byID := map[string]WatcherStatus{}
	for _, s := range snap {
		byID[s.DagID] = s
	}
	assert.Equal(t, "idle", byID["D1"].LastAction)
	assert.Equal(t, "idle", byID["D2"].LastAction)
}

func TestRouter_HealthzAndStatus(t *testing.T) {
	board := NewStatusBoard()
	board.Set(WatcherStatus{DagID: "D", LastAction: "trigger", LastTickAt: time.Unix(1700000000, 0), ReadyCount: 1})

	router := NewRouter(board, NewHTTPLogger(false))
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)

	var statuses []WatcherStatus
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&statuses))
	require.Len(t, statuses, 1)
	assert.Equal(t, "D", statuses[0].DagID)
}

func TestRouter_MetricsServesPrometheusText(t *testing.T) {
	router := NewRouter(NewStatusBoard(), NewHTTPLogger(false))
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
