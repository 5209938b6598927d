package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/xaionaro-go/streamidrouter/element"
	"github.com/xaionaro-go/streamidrouter/event"
	"github.com/xaionaro-go/streamidrouter/logger"
	"github.com/xaionaro-go/streamidrouter/pad"
	"github.com/xaionaro-go/xsync"
)

// Event handles a control event arriving on the input:
//   - stream-start selects (creating if needed) the output pad of the stream;
//   - broadcast kinds (caps and segment by default) and flushes and EOS are
//     sent to every output pad;
//   - anything else goes to the active pad only.
func (r *Router) Event(
	ctx context.Context,
	ev event.Event,
) (_err error) {
	logger.Tracef(ctx, "Event(%s)", ev)
	defer func() { logger.Tracef(ctx, "/Event(%s): %v", ev, _err) }()
	r.Counters.Events.Received.Increment(0)
	epoch := r.Epoch.Load()
	if !r.SinkPad.IsActive() && ev.Kind != event.KindFlushStart {
		r.Counters.Events.Dropped.Increment(0)
		return pad.ErrFlushing{Pad: r.SinkPad}
	}

	switch ev.Kind {
	case event.KindStreamStart:
		return r.onStreamStart(ctx, epoch, ev)
	case event.KindFlushStart:
		return r.broadcastEvent(ctx, ev)
	case event.KindFlushStop:
		err := xsync.DoR1(ctx, &r.Locker, func() error {
			if err := r.storeInputStickyLocked(ctx, epoch, ev); err != nil {
				return err
			}
			r.setActivePad(ctx, nil)
			r.NeedsResync.Store(true)
			return nil
		})
		if err != nil {
			r.Counters.Events.Dropped.Increment(0)
			return err
		}
		return r.broadcastEvent(ctx, ev)
	case event.KindEOS:
		if err := r.storeInputSticky(ctx, epoch, ev); err != nil {
			return err
		}
		return r.broadcastEvent(ctx, ev)
	}

	if ev.IsSticky() {
		if err := r.storeInputSticky(ctx, epoch, ev); err != nil {
			return err
		}
	}
	if r.isBroadcastKind(ev.Kind) {
		return r.broadcastEvent(ctx, ev)
	}

	p := r.resyncActivePad(ctx)
	if p == nil {
		if ev.IsSticky() {
			// stored on the input, will be replayed onto the next new pad
			return nil
		}
		err := ErrNotRouted{Event: ev}
		r.Counters.Events.Dropped.Increment(0)
		r.post(ctx, element.MessageTypeWarning, err, "event arrived before any stream-start")
		return err
	}
	if err := p.PushEvent(ctx, ev); err != nil {
		r.Counters.Events.Dropped.Increment(0)
		return err
	}
	r.Counters.Events.Sent.Increment(0)
	return nil
}

func (r *Router) storeInputSticky(
	ctx context.Context,
	epoch uint64,
	ev event.Event,
) error {
	err := xsync.DoA3R1(ctx, &r.Locker, r.storeInputStickyLocked, ctx, epoch, ev)
	if err != nil {
		r.Counters.Events.Dropped.Increment(0)
	}
	return err
}

// broadcastEvent pushes a copy of the event into every exposed pad.
// Pads without a peer are not a failure.
func (r *Router) broadcastEvent(
	ctx context.Context,
	ev event.Event,
) error {
	var errs []error
	for _, p := range r.GetPads(ctx) {
		err := p.PushEvent(ctx, ev.Clone())
		if err == nil {
			r.Counters.Events.Sent.Increment(0)
			continue
		}
		if errors.As(err, &pad.ErrNotLinked{}) {
			continue
		}
		errs = append(errs, fmt.Errorf("unable to push %s into %s: %w", ev, p, err))
	}
	return errors.Join(errs...)
}
