package config

import (
	"fmt"
	"time"

	"github.com/dagu-org/scenewatcher/internal/scene"
	"github.com/dagu-org/scenewatcher/internal/sensor"
	"github.com/dagu-org/scenewatcher/internal/watcher"
)

const (
	defaultWatchInterval     = 10 * time.Second
	defaultMaxRunningDagRuns = 3
)

var dtypeTags = map[string]scene.DType{
	"int":    scene.Int,
	"float":  scene.Float,
	"string": scene.String,
	"bool":   scene.Bool,
}

var idStyleTags = map[string]watcher.IDStyle{
	"":                                 watcher.IDStyleSceneIDKeysWithTime,
	string(watcher.IDStyleTimestamp):   watcher.IDStyleTimestamp,
	string(watcher.IDStyleSceneIDKeys): watcher.IDStyleSceneIDKeys,
	string(watcher.IDStyleSceneIDKeysWithTime):        watcher.IDStyleSceneIDKeysWithTime,
	string(watcher.IDStyleBatchIDSceneIDKeysWithTime): watcher.IDStyleBatchIDSceneIDKeysWithTime,
}

// BuildWatchers validates and constructs one watcher.Watcher per entry in
// f.Watchers, ready to hand to watcher.NewController. batchID is the
// file's stem (spec.md §6). intervalOverride, when non-zero, replaces
// every watcher's configured watch_interval (the CLI's --watch-interval
// flag).
func BuildWatchers(f *File, batchID string, client watcher.Client, intervalOverride time.Duration) ([]*watcher.Watcher, []string, error) {
	watchers := make([]*watcher.Watcher, 0, len(f.Watchers))
	dagIDs := make([]string, 0, len(f.Watchers))

	for _, ws := range f.Watchers {
		cfg, err := buildConfig(ws, batchID, client)
		if err != nil {
			return nil, nil, err
		}
		if intervalOverride > 0 {
			cfg.WatchInterval = intervalOverride
		}
		watchers = append(watchers, watcher.New(cfg, client))
		dagIDs = append(dagIDs, cfg.DagID)
	}
	return watchers, dagIDs, nil
}

func buildConfig(ws WatcherSpec, batchID string, client sensor.Client) (watcher.Config, error) {
	if len(ws.SceneIDKeys) == 0 {
		return watcher.Config{}, &Error{Batch: batchID, Watcher: ws.DagID, Reason: "scene_id_keys must not be empty"}
	}

	dtypes, err := buildDtypes(ws.SceneIDDtypes, ws.SceneIDKeys, batchID, ws.DagID)
	if err != nil {
		return watcher.Config{}, err
	}

	idStyle, ok := idStyleTags[ws.TriggeredDagRunIDStyle]
	if !ok {
		return watcher.Config{}, &Error{
			Batch: batchID, Watcher: ws.DagID,
			Reason: fmt.Sprintf("unknown triggered_dag_run_id_style %q", ws.TriggeredDagRunIDStyle),
		}
	}

	if ws.ExpandBy != nil && ws.ReduceBy != nil {
		return watcher.Config{}, &Error{Batch: batchID, Watcher: ws.DagID, Reason: "at most one of expand_by/reduce_by may be set"}
	}

	interval := defaultWatchInterval
	if ws.WatchInterval != "" {
		d, err := time.ParseDuration(ws.WatchInterval)
		if err != nil {
			return watcher.Config{}, &Error{Batch: batchID, Watcher: ws.DagID, Reason: fmt.Sprintf("invalid watch_interval: %v", err)}
		}
		interval = d
	}

	sensors := make([]sensor.Sensor, 0, len(ws.Upstream))
	for _, spec := range ws.Upstream {
		s, err := sensor.Build(spec, client, batchID)
		if err != nil {
			return watcher.Config{}, &Error{Batch: batchID, Watcher: ws.DagID, Reason: err.Error()}
		}
		sensors = append(sensors, s)
	}

	maxRunning := ws.MaxRunningDagRuns
	if maxRunning == 0 {
		maxRunning = defaultMaxRunningDagRuns
	}

	cfg := watcher.Config{
		DagID:                  ws.DagID,
		BatchID:                batchID,
		SceneIDKeys:            ws.SceneIDKeys,
		SceneIDDtypes:          dtypes,
		FixedDagRunConf:        ws.FixedDagRunConf,
		UpstreamSensors:        sensors,
		MaxRunningDagRuns:      maxRunning,
		TriggeredDagRunIDStyle: idStyle,
		WatchInterval:          interval,
	}

	switch {
	case ws.ExpandBy != nil:
		q := sensor.XComQuery{DagID: ws.ExpandBy.DagID, TaskID: ws.ExpandBy.TaskID, XcomKey: ws.ExpandBy.XcomKey, ReferName: ws.ExpandBy.ReferName}
		cfg.Variant = watcher.VariantExpanded
		cfg.ExpandQuery = &q
	case ws.ReduceBy != nil:
		cfg.Variant = watcher.VariantReduced
		cfg.ReduceRefer = ws.ReduceBy.ReferName
	}

	return cfg, nil
}

func buildDtypes(raw map[string]string, sceneIDKeys []string, batchID, dagID string) (map[string]scene.DType, error) {
	if raw == nil {
		return nil, nil
	}
	if len(raw) != len(sceneIDKeys) {
		return nil, &Error{
			Batch: batchID, Watcher: dagID,
			Reason: fmt.Sprintf("scene_id_dtypes has %d entries, scene_id_keys has %d", len(raw), len(sceneIDKeys)),
		}
	}

	out := make(map[string]scene.DType, len(raw))
	for k, tag := range raw {
		dt, ok := dtypeTags[tag]
		if !ok {
			return nil, &Error{Batch: batchID, Watcher: dagID, Reason: fmt.Sprintf("unknown scene_id_dtypes tag %q for key %q", tag, k)}
		}
		out[k] = dt
	}
	return out, nil
}
