package rowset

import "strconv"

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// GroupKey builds the composite string key used to bucket rows by a set
// of columns. It is exported so callers that need to label a group (e.g.
// the watcher reconstructing scene coordinates from a group key) can
// reuse the same key the grouping used internally, but the zipped values
// themselves — not this string — are what the caller should surface.
func GroupKey(r Row, keys []string) string {
	s := ""
	for i, k := range keys {
		if i > 0 {
			s += "\x1f"
		}
		s += toString(r[k])
	}
	return s
}
