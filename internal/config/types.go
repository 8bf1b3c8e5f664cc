package config

import (
	"github.com/dagu-org/scenewatcher/internal/sensor"
)

// File is the decoded shape of one batch-config YAML document (spec.md
// §6 "Inbound configuration"). Its file stem becomes the batch-id.
type File struct {
	// Defaults are merged into every watcher entry below (unset fields
	// only) via dario.cat/mergo, so operators declare boilerplate once.
	Defaults WatcherDefaults `mapstructure:"defaults"`
	Watchers []WatcherSpec   `mapstructure:"watchers"`
}

// WatcherDefaults carries the subset of WatcherSpec fields sensible to
// share across every watcher in a batch file.
type WatcherDefaults struct {
	FixedDagRunConf   map[string]any    `mapstructure:"fixed_dag_run_conf"`
	SceneIDDtypes     map[string]string `mapstructure:"scene_id_dtypes"`
	MaxRunningDagRuns int               `mapstructure:"max_running_dag_runs"`
	WatchInterval     string            `mapstructure:"watch_interval"`
}

// WatcherSpec is one watchers[] entry (spec.md §4.4's field table plus
// the expand_by/reduce_by transform selection).
type WatcherSpec struct {
	DagID                  string            `mapstructure:"dag_id"`
	SceneIDKeys            []string          `mapstructure:"scene_id_keys"`
	SceneIDDtypes          map[string]string `mapstructure:"scene_id_dtypes"`
	FixedDagRunConf        map[string]any    `mapstructure:"fixed_dag_run_conf"`
	MaxRunningDagRuns      int               `mapstructure:"max_running_dag_runs"`
	TriggeredDagRunIDStyle string            `mapstructure:"triggered_dag_run_id_style"`
	WatchInterval          string            `mapstructure:"watch_interval"`

	Upstream []sensor.Spec `mapstructure:"upstream"`

	// At most one of ExpandBy/ReduceBy may be set: it governs how this
	// watcher's ready-set and downstream keys relate to its sensors'
	// scene_id_keys (spec.md §4.3, §4.4 variants).
	ExpandBy *sensor.XComQuerySpec `mapstructure:"expand_by"`
	ReduceBy *sensor.XComQuerySpec `mapstructure:"reduce_by"`
}
