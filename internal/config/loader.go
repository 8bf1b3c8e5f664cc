// Package config parses batch-config YAML files into the typed watcher
// and sensor definitions internal/watcher and internal/sensor build from,
// following the two-step yaml-to-map, map-to-struct decode dagu's own
// internal/admin/loader.go uses for admin.yaml (spec.md §6).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/go-viper/mapstructure/v2"
	yaml "github.com/goccy/go-yaml"
)

// Load reads and decodes the batch-config file at path, applying
// batch-level defaults to every watcher entry. The returned batch-id is
// the file's stem, per spec.md §6.
func Load(path string) (*File, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("config: read %s: %w", path, err)
	}

	var generic map[string]any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, "", fmt.Errorf("config: parse %s: %w", path, err)
	}

	f, err := decode(generic)
	if err != nil {
		return nil, "", fmt.Errorf("config: decode %s: %w", path, err)
	}

	batchID := batchIDFromPath(path)
	if err := applyDefaults(f); err != nil {
		return nil, "", &Error{Batch: batchID, Reason: err.Error()}
	}

	return f, batchID, nil
}

func decode(generic map[string]any) (*File, error) {
	f := &File{}
	md, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      false,
		WeaklyTypedInput: true,
		Result:           f,
	})
	if err != nil {
		return nil, err
	}
	if err := md.Decode(generic); err != nil {
		return nil, err
	}
	return f, nil
}

func batchIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// applyDefaults merges f.Defaults into every watcher entry that leaves
// the corresponding field unset, via dario.cat/mergo's standard
// zero-value-only merge semantics.
func applyDefaults(f *File) error {
	for i := range f.Watchers {
		ws := &f.Watchers[i]

		if ws.MaxRunningDagRuns == 0 {
			ws.MaxRunningDagRuns = f.Defaults.MaxRunningDagRuns
		}
		if ws.WatchInterval == "" {
			ws.WatchInterval = f.Defaults.WatchInterval
		}

		if err := mergo.Merge(&ws.FixedDagRunConf, f.Defaults.FixedDagRunConf); err != nil {
			return fmt.Errorf("merge fixed_dag_run_conf for %s: %w", ws.DagID, err)
		}
		if err := mergo.Merge(&ws.SceneIDDtypes, f.Defaults.SceneIDDtypes); err != nil {
			return fmt.Errorf("merge scene_id_dtypes for %s: %w", ws.DagID, err)
		}
	}
	return nil
}
