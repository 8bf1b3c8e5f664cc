package watcher

import (
	"context"
	"time"

	"github.com/dagu-org/scenewatcher/internal/logger"
	"github.com/google/uuid"
)

// Controller owns one watcher's run loop: tick, trigger on demand, log,
// sleep, repeat forever. A panic-free error from one tick never abandons
// the loop (spec.md §4.5).
type Controller struct {
	watcher *Watcher
	dagID   string
	log     logger.Logger
	metrics Metrics
	status  StatusRecorder
}

// NewController builds a Controller around w, logging under dagID. metrics
// and status may each be nil; every call into them is guarded.
func NewController(w *Watcher, dagID string, log logger.Logger, metrics Metrics, status StatusRecorder) *Controller {
	return &Controller{watcher: w, dagID: dagID, log: log.With("dag_id", dagID), metrics: metrics, status: status}
}

// Run loops until ctx is cancelled, which is the only way to stop it
// (process SIGTERM in the caller maps to ctx cancellation).
func (c *Controller) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		c.runOnce(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.watcher.cfg.WatchInterval):
		}
	}
}

func (c *Controller) runOnce(ctx context.Context) {
	traceID := uuid.NewString()
	log := c.log.With("tick_id", traceID)

	if c.metrics != nil {
		c.metrics.ObserveTick(c.dagID)
	}

	result, err := c.watcher.Tick(ctx)
	if err != nil {
		log.Error("tick failed", "error", err)
		if c.metrics != nil {
			c.metrics.ObserveTickError(c.dagID)
		}
		if c.status != nil {
			c.status.RecordTick(c.dagID, "error", time.Now(), 0, 0, err.Error())
		}
		return
	}

	if c.metrics != nil {
		c.metrics.ObserveReady(c.dagID, result.ReadyCount)
		c.metrics.SetRunning(c.dagID, result.RunningCount)
	}

	switch result.Action {
	case ActionTrigger:
		log.Info("ready scene found, triggering", "scene", result.Context)
		triggerResult, err := c.watcher.Trigger(ctx, result.Context)
		if err != nil {
			log.Error("trigger failed", "error", err, "scene", result.Context)
			if c.status != nil {
				c.status.RecordTick(c.dagID, "trigger_failed", time.Now(), result.ReadyCount, result.RunningCount, err.Error())
			}
			return
		}
		if triggerResult.Paused {
			log.Info("downstream dag paused, trigger skipped", "message", triggerResult.Message)
			if c.status != nil {
				c.status.RecordTick(c.dagID, "paused", time.Now(), result.ReadyCount, result.RunningCount, "")
			}
			return
		}
		log.Info("triggered", "status_code", triggerResult.StatusCode, "message", triggerResult.Message)
		if c.metrics != nil {
			c.metrics.ObserveTrigger(c.dagID)
		}
		if c.status != nil {
			c.status.RecordTick(c.dagID, "trigger", time.Now(), result.ReadyCount, result.RunningCount, "")
		}
	default:
		log.Debug("idle")
		if c.status != nil {
			c.status.RecordTick(c.dagID, "idle", time.Now(), result.ReadyCount, result.RunningCount, "")
		}
	}
}
