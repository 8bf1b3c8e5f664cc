package watcher

import "time"

// StatusRecorder is the optional per-tick status-board hook a Controller
// reports to, implemented by internal/admin.StatusBoard. A nil
// StatusRecorder is legal; Controller guards every call.
type StatusRecorder interface {
	RecordTick(dagID, action string, at time.Time, readyCount, runningCount int, errMsg string)
}
