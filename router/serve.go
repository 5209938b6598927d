package router

import (
	"context"
	"errors"

	"github.com/xaionaro-go/streamidrouter/logger"
	"github.com/xaionaro-go/streamidrouter/pad"
)

// Serve feeds the items from the channel into the router, sequentially and
// in order, until the channel is closed, the context is cancelled or the
// router is closed. Failures of individual items are logged and do not stop
// the loop.
func (r *Router) Serve(
	ctx context.Context,
	inputCh <-chan pad.Item,
) (_err error) {
	ctx = r.withFields(ctx)
	logger.Debugf(ctx, "Serve")
	defer func() { logger.Debugf(ctx, "/Serve: %v", _err) }()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.CloseChan():
			return nil
		case item, ok := <-inputCh:
			if !ok {
				return nil
			}
			err := item.Deliver(ctx, r)
			switch {
			case err == nil:
			case errors.Is(err, context.Canceled):
				return err
			case errors.As(err, &pad.ErrNotLinked{}), errors.As(err, &pad.ErrFlushing{}):
				logger.Debugf(ctx, "unable to deliver %s: %v", item, err)
			default:
				logger.Warnf(ctx, "unable to deliver %s: %v", item, err)
			}
		}
	}
}
