package router

import (
	"context"

	"github.com/xaionaro-go/streamidrouter/pad"
)

// Observer is notified about output pads being exposed and removed.
//
// The notifications are delivered synchronously, on the goroutine which
// handled the item causing the change, before that call returns; the very
// next item of the flow may already be pushed into a just added pad, so
// OnPadAdded is the place to link the pad.
//
// The router's locks are not held while the callbacks run, thus any method
// of the router may be called from them (including GetState, Reset,
// ChangeState and Close). A pad passed to OnPadAdded may already be
// removed again by the time the callback runs if a reset raced it.
type Observer interface {
	OnPadAdded(ctx context.Context, r *Router, p *pad.Pad)
	OnPadRemoved(ctx context.Context, r *Router, p *pad.Pad)
}

type ObserverFuncs struct {
	PadAdded   func(ctx context.Context, r *Router, p *pad.Pad)
	PadRemoved func(ctx context.Context, r *Router, p *pad.Pad)
}

var _ Observer = ObserverFuncs{}

func (o ObserverFuncs) OnPadAdded(ctx context.Context, r *Router, p *pad.Pad) {
	if o.PadAdded != nil {
		o.PadAdded(ctx, r, p)
	}
}

func (o ObserverFuncs) OnPadRemoved(ctx context.Context, r *Router, p *pad.Pad) {
	if o.PadRemoved != nil {
		o.PadRemoved(ctx, r, p)
	}
}
