// Package admin exposes the long-running controller process's small
// operator-facing HTTP surface: health, Prometheus scrape, and per-watcher
// status, mirroring dagu's own admin/frontend split (a REST surface
// alongside the control loop) — see internal/admin/handlers/routes.go's
// chi.Mux-based route table in the teacher repo.
package admin

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WatcherStatus is one entry of GET /status: the last tick's outcome for
// one downstream DAG.
type WatcherStatus struct {
	DagID        string    `json:"dag_id"`
	LastAction   string    `json:"last_action"`
	LastTickAt   time.Time `json:"last_tick_at"`
	LastError    string    `json:"last_error,omitempty"`
	ReadyCount   int       `json:"ready_count"`
	RunningCount int       `json:"running_count"`
}

// StatusBoard is a concurrency-safe store of the most recent WatcherStatus
// per dag_id, updated by each Controller after every tick and read by the
// /status handler.
type StatusBoard struct {
	mu    sync.RWMutex
	board map[string]WatcherStatus
}

// NewStatusBoard builds an empty StatusBoard.
func NewStatusBoard() *StatusBoard {
	return &StatusBoard{board: make(map[string]WatcherStatus)}
}

// Set records s, keyed by s.DagID.
func (b *StatusBoard) Set(s WatcherStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.board[s.DagID] = s
}

// RecordTick implements internal/watcher.StatusRecorder, letting a
// Controller report its outcome without internal/watcher importing this
// package.
func (b *StatusBoard) RecordTick(dagID, action string, at time.Time, readyCount, runningCount int, errMsg string) {
	b.Set(WatcherStatus{
		DagID:        dagID,
		LastAction:   action,
		LastTickAt:   at,
		LastError:    errMsg,
		ReadyCount:   readyCount,
		RunningCount: runningCount,
	})
}

// Snapshot returns every recorded status, in no particular order.
func (b *StatusBoard) Snapshot() []WatcherStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]WatcherStatus, 0, len(b.board))
	for _, s := range b.board {
		out = append(out, s)
	}
	return out
}

// NewRouter builds the admin HTTP surface: /healthz (liveness), /metrics
// (Prometheus scrape), and /status (per-watcher board), with CORS and
// request logging middleware matching the teacher's admin server shape.
func NewRouter(board *StatusBoard, logger *httplog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(board.Snapshot())
	})

	return r
}
