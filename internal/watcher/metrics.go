package watcher

// Metrics is the optional per-tick instrumentation hook a Controller
// reports to, implemented by internal/metrics.Registry. A nil Metrics is
// legal; Controller guards every call.
type Metrics interface {
	ObserveTick(dagID string)
	ObserveTrigger(dagID string)
	ObserveReady(dagID string, n int)
	ObserveTickError(dagID string)
	SetRunning(dagID string, n int)
}
