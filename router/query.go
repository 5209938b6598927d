package router

import (
	"context"

	"github.com/xaionaro-go/streamidrouter/logger"
	"github.com/xaionaro-go/streamidrouter/query"
)

// Query forwards the query to the peer of the pad bound to the query's
// stream identifier. Queries without an identifier, or for an unknown
// one, are not answerable here.
func (r *Router) Query(
	ctx context.Context,
	q *query.Query,
) (_ret bool) {
	logger.Tracef(ctx, "Query(%s)", q)
	defer func() { logger.Tracef(ctx, "/Query(%s): %t", q, _ret) }()
	if q.StreamID.IsZero() {
		return false
	}
	p, ok := r.Registry.Lookup(ctx, q.StreamID)
	if !ok {
		return false
	}
	return p.PeerQuery(ctx, q)
}
