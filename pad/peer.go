package pad

import (
	"context"

	"github.com/xaionaro-go/streamidrouter/buffer"
	"github.com/xaionaro-go/streamidrouter/event"
	"github.com/xaionaro-go/streamidrouter/query"
)

// Peer is whatever is linked to a pad and consumes its flow (a downstream
// element, a queue, ...). Chain may block to apply backpressure.
type Peer interface {
	Chain(ctx context.Context, buf *buffer.Buffer) error
	Event(ctx context.Context, ev event.Event) error
	Query(ctx context.Context, q *query.Query) bool
}

type peerEventPusher struct {
	Peer
}

func (p peerEventPusher) PushEvent(ctx context.Context, ev event.Event) error {
	return p.Peer.Event(ctx, ev)
}
