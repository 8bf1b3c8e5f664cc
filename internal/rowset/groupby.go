package rowset

// Group is one bucket produced by GroupBy: the coordinate values the rows
// were grouped on, plus the member rows in original order.
type Group struct {
	Key  Row
	Rows Set
}

// GroupBy buckets rows by equality (via Equal) on every column in keys,
// preserving the order in which each distinct key combination first
// appeared.
func (s Set) GroupBy(keys []string) []Group {
	order := make([]string, 0)
	groups := make(map[string]*Group)

	for _, r := range s {
		gk := GroupKey(r, keys)
		g, ok := groups[gk]
		if !ok {
			key := make(Row, len(keys))
			for _, k := range keys {
				key[k] = r[k]
			}
			g = &Group{Key: key}
			groups[gk] = g
			order = append(order, gk)
		}
		g.Rows = append(g.Rows, r)
	}

	out := make([]Group, 0, len(order))
	for _, gk := range order {
		out = append(out, *groups[gk])
	}
	return out
}

// StateRule folds a group's "state" column values into one aggregate
// state. AllSuccessState implements spec.md §4.3's Reduce rule.
type StateRule func(states []any) any

// AllSuccessState returns "success" only if every state equals "success";
// a missing/nil state (from an OuterJoin row with no match) counts as not
// success, per spec.md §9's open-question resolution.
func AllSuccessState(states []any) any {
	for _, s := range states {
		str, ok := s.(string)
		if !ok || str != "success" {
			return "failed"
		}
	}
	return "success"
}

// Aggregate collapses each group to a single row: groupKeys are carried
// through unchanged, every other column (except "state") is collected
// into a []any list in row order, and "state" is folded via rule. This is
// the Reduce transform's aggregation step (spec.md §4.3).
func Aggregate(s Set, groupKeys []string, rule StateRule) Set {
	groups := s.GroupBy(groupKeys)
	out := make(Set, 0, len(groups))

	groupKeySet := make(map[string]bool, len(groupKeys))
	for _, k := range groupKeys {
		groupKeySet[k] = true
	}

	for _, g := range groups {
		row := g.Key.Clone()

		lists := make(map[string][]any)
		states := make([]any, 0, len(g.Rows))
		for _, r := range g.Rows {
			// r may lack "state" entirely (an OuterJoin row contributed by
			// the side with no match carries no state column at all, not
			// an explicit nil) — look it up directly so it still counts
			// toward the conjunction instead of silently vanishing.
			states = append(states, r["state"])
			for col, v := range r {
				if col == "state" || groupKeySet[col] {
					continue
				}
				lists[col] = append(lists[col], v)
			}
		}
		for col, vs := range lists {
			row[col] = vs
		}
		row["state"] = rule(states)
		out = append(out, row)
	}
	return out
}
