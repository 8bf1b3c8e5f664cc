package sensor

import (
	"context"
	"fmt"

	"github.com/dagu-org/scenewatcher/internal/rowset"
)

// Expand decorates a SceneKeyedSensor, fanning one upstream scene out into
// one derived scene per sub-key reported by an XComQuery. Inner-joins the
// inner sensor's rows with the query's rows on BaseSceneIDKeys(); an empty
// query result propagates as an empty sense() result (spec.md §4.3 P4).
type Expand struct {
	inner  SceneKeyedSensor
	query  XComQuery
	client interface {
		dagRunLister
		xcomGetter
	}
	batchID string
}

func NewExpand(inner SceneKeyedSensor, query XComQuery, client interface {
	dagRunLister
	xcomGetter
}, batchID string) *Expand {
	return &Expand{inner: inner, query: query, client: client, batchID: batchID}
}

func (e *Expand) Sense(ctx context.Context, desiredState string) (rowset.Set, error) {
	raw, err := e.inner.Sense(ctx, desiredState)
	if err != nil {
		return nil, err
	}

	expanded, err := e.query.Query(ctx, e.client, e.batchID, e.inner.BaseSceneIDKeys(), "success")
	if err != nil {
		return nil, fmt.Errorf("expand: %w", err)
	}
	if len(expanded) == 0 {
		return rowset.Set{}, nil
	}

	return raw.InnerJoin(expanded, e.inner.BaseSceneIDKeys()), nil
}

func (e *Expand) QueryKeyValues() rowset.Row { return e.inner.QueryKeyValues() }

// BaseSceneIDKeys is unchanged by Expand: the decorator joins on the
// inner sensor's keys, it does not redefine them (mirrors the source's
// Expandable mixin, which shares self.base_scene_id_keys with its base).
func (e *Expand) BaseSceneIDKeys() []string { return e.inner.BaseSceneIDKeys() }
