package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/bmatcuk/doublestar/v4"
)

const appName = "scenewatcher"

// DefaultCookieSessionPath resolves where the session cookie file lives
// when an operator passes a bare filename instead of a full path,
// following XDG base-dir conventions (spec.md §6 "Authentication").
func DefaultCookieSessionPath(name string) string {
	if name == "" {
		name = "session"
	}
	if filepath.IsAbs(name) || filepath.Dir(name) != "." {
		return name
	}
	return filepath.Join(xdg.ConfigHome, appName, name)
}

// DefaultBatchConfigDir is the search directory used when --batch-config
// is given a bare glob pattern rather than one rooted in a directory.
func DefaultBatchConfigDir() string {
	return filepath.Join(xdg.ConfigHome, appName, "batches")
}

// ExpandBatchConfigGlobs resolves --batch-config (repeatable, each entry
// possibly a glob) into a deduplicated list of file paths, in pattern
// order and then glob-match order, matching patterns like "batch-*.yaml"
// against the default search directory when the pattern has no directory
// component of its own. A pattern that matches nothing is passed through
// as a path unchanged.
func ExpandBatchConfigGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string

	for _, p := range patterns {
		base := p
		if filepath.Dir(p) == "." {
			base = filepath.Join(DefaultBatchConfigDir(), p)
		}

		dir, pattern := filepath.Split(base)
		if dir == "" {
			dir = "."
		}
		fsys := os.DirFS(dir)

		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			if !seen[base] {
				seen[base] = true
				out = append(out, base)
			}
			continue
		}
		for _, m := range matches {
			full := filepath.Join(dir, m)
			if !seen[full] {
				seen[full] = true
				out = append(out, full)
			}
		}
	}
	return out, nil
}
