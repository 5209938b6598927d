package router

import (
	"context"

	"github.com/xaionaro-go/streamidrouter/buffer"
	"github.com/xaionaro-go/streamidrouter/logger"
	"github.com/xaionaro-go/streamidrouter/pad"
)

// Chain forwards the buffer to the active pad, blocking for as long as its
// peer applies backpressure. Buffers arriving while there is no active pad
// (before any stream-start) are dropped silently.
func (r *Router) Chain(
	ctx context.Context,
	buf *buffer.Buffer,
) (_err error) {
	logger.Tracef(ctx, "Chain(%s)", buf)
	defer func() { logger.Tracef(ctx, "/Chain(%s): %v", buf, _err) }()
	size := buf.Size()
	r.Counters.Buffers.Received.Increment(size)
	if !r.SinkPad.IsActive() {
		r.Counters.Buffers.Dropped.Increment(size)
		return pad.ErrFlushing{Pad: r.SinkPad}
	}

	p := r.resyncActivePad(ctx)
	if p == nil {
		logger.Tracef(ctx, "no active pad, dropping %s", buf)
		r.Counters.Buffers.Dropped.Increment(size)
		return nil
	}
	if err := p.Push(ctx, buf); err != nil {
		r.Counters.Buffers.Dropped.Increment(size)
		return err
	}
	r.Counters.Buffers.Sent.Increment(size)
	return nil
}
