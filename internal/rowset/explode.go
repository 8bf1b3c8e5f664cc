package rowset

// Explode turns each row's column (expected to hold a []any) into one row
// per element, copying every other column unchanged. A row whose column
// is missing, nil, or an empty list contributes no output rows — this is
// the "drop rows whose explosion yielded no items" rule an XComQuery
// applies after parsing its xcom value (spec.md §3).
func (s Set) Explode(column string) Set {
	out := make(Set, 0, len(s))
	for _, r := range s {
		items, ok := r[column].([]any)
		if !ok || len(items) == 0 {
			continue
		}
		for _, item := range items {
			row := r.Clone()
			row[column] = item
			out = append(out, row)
		}
	}
	return out
}
