// Package scene implements the Scene coordinate model of spec.md §3: an
// ordered tuple of named coordinates, optional per-key dtype coercion, and
// the equality-under-coercion rule invariant I1 depends on.
package scene

import (
	"fmt"
	"strconv"

	"github.com/dagu-org/scenewatcher/internal/rowset"
)

// DType is a coercion target for one scene coordinate.
type DType string

const (
	Int    DType = "int"
	Float  DType = "float"
	String DType = "string"
	Bool   DType = "bool"
)

// Coerce converts v to the given dtype. Values already matching pass
// through and numeric or boolean strings parse; String converts any value
// via fmt.Sprint. For Int, Float and Bool, any other input type is an
// error. Modeled on the source's
// `dtype_map[type(dag_conf[k])](dag_conf[k])` coercion.
func Coerce(v any, dt DType) (any, error) {
	switch dt {
	case Int:
		switch n := v.(type) {
		case int:
			return n, nil
		case int64:
			return int(n), nil
		case float64:
			return int(n), nil
		case string:
			i, err := strconv.ParseFloat(n, 64)
			if err != nil {
				return nil, fmt.Errorf("coerce %q to int: %w", n, err)
			}
			return int(i), nil
		default:
			return nil, fmt.Errorf("cannot coerce %T to int", v)
		}
	case Float:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case string:
			f, err := strconv.ParseFloat(n, 64)
			if err != nil {
				return nil, fmt.Errorf("coerce %q to float: %w", n, err)
			}
			return f, nil
		default:
			return nil, fmt.Errorf("cannot coerce %T to float", v)
		}
	case String:
		return fmt.Sprint(v), nil
	case Bool:
		switch n := v.(type) {
		case bool:
			return n, nil
		case string:
			b, err := strconv.ParseBool(n)
			if err != nil {
				return nil, fmt.Errorf("coerce %q to bool: %w", n, err)
			}
			return b, nil
		default:
			return nil, fmt.Errorf("cannot coerce %T to bool", v)
		}
	default:
		return nil, fmt.Errorf("unknown dtype %q", dt)
	}
}

// CoerceAll applies dtypes[key], when declared, to every key in coords.
// Keys without a declared dtype pass through unchanged. This implements
// the tick algorithm's coerce_dtypes(r) step (spec.md §4.4) and invariant
// P6.
func CoerceAll(coords rowset.Row, dtypes map[string]DType) (rowset.Row, error) {
	out := coords.Clone()
	for k, dt := range dtypes {
		v, ok := coords[k]
		if !ok {
			continue
		}
		cv, err := Coerce(v, dt)
		if err != nil {
			return nil, fmt.Errorf("scene_id_dtypes: key %q: %w", k, err)
		}
		out[k] = cv
	}
	return out, nil
}

// Equal reports whether a and b agree on every key in keys, using
// rowset.Equal's numeric/string-form comparison — which already treats a
// coordinate arriving as int, float64, or its string form as equal,
// satisfying invariant I1 ("up to equality under coercion") without
// needing the dtypes map at comparison time.
func Equal(a, b rowset.Row, keys []string) bool {
	for _, k := range keys {
		if !rowset.Equal(a[k], b[k]) {
			return false
		}
	}
	return true
}

// Coords extracts just the given keys from a row, in row-set form.
func Coords(r rowset.Row, keys []string) rowset.Row {
	out := make(rowset.Row, len(keys))
	for _, k := range keys {
		out[k] = r[k]
	}
	return out
}
