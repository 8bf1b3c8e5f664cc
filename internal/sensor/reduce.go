package sensor

import (
	"context"
	"fmt"

	"github.com/dagu-org/scenewatcher/internal/rowset"
)

// Reduce decorates a SceneKeyedSensor, collapsing N sub-scenes on the
// XComQuery's ReferName dimension back into one scene per
// BaseSceneIDKeys(), whose state is the conjunction of its children
// (spec.md §4.3 P5). The outer join ensures a sub-key present in the
// query's expansion but missing from the inner sensor's result still
// contributes a failed outcome to the aggregation.
type Reduce struct {
	inner  SceneKeyedSensor
	query  XComQuery
	client interface {
		dagRunLister
		xcomGetter
	}
	batchID string
}

func NewReduce(inner SceneKeyedSensor, query XComQuery, client interface {
	dagRunLister
	xcomGetter
}, batchID string) *Reduce {
	return &Reduce{inner: inner, query: query, client: client, batchID: batchID}
}

func (r *Reduce) Sense(ctx context.Context, desiredState string) (rowset.Set, error) {
	raw, err := r.inner.Sense(ctx, desiredState)
	if err != nil {
		return nil, err
	}

	baseKeys := r.inner.BaseSceneIDKeys()
	expandedKeys := append(append([]string{}, baseKeys...), r.query.ReferName)

	expanded, err := r.query.Query(ctx, r.client, r.batchID, baseKeys, "success")
	if err != nil {
		return nil, fmt.Errorf("reduce: %w", err)
	}
	if len(expanded) == 0 {
		return rowset.Set{}, nil
	}

	merged := raw.OuterJoin(expanded, expandedKeys)
	return rowset.Aggregate(merged, baseKeys, rowset.AllSuccessState), nil
}

func (r *Reduce) QueryKeyValues() rowset.Row { return r.inner.QueryKeyValues() }

func (r *Reduce) BaseSceneIDKeys() []string { return r.inner.BaseSceneIDKeys() }
