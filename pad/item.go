package pad

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/streamidrouter/buffer"
	"github.com/xaionaro-go/streamidrouter/event"
)

// Item is a single element of a sequential flow: exactly one of
// Buffer and Event is set.
type Item struct {
	Buffer *buffer.Buffer
	Event  *event.Event
}

func ItemBuffer(buf *buffer.Buffer) Item {
	return Item{Buffer: buf}
}

func ItemEvent(ev event.Event) Item {
	return Item{Event: &ev}
}

func (i Item) String() string {
	switch {
	case i.Buffer != nil:
		return i.Buffer.String()
	case i.Event != nil:
		return i.Event.String()
	default:
		return "Item(empty)"
	}
}

// Deliver passes the item to the peer.
func (i Item) Deliver(ctx context.Context, peer Peer) error {
	switch {
	case i.Buffer != nil:
		return peer.Chain(ctx, i.Buffer)
	case i.Event != nil:
		return peer.Event(ctx, *i.Event)
	default:
		return fmt.Errorf("empty item")
	}
}
