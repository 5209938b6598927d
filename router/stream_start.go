package router

import (
	"context"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/facebookincubator/go-belt"
	"github.com/xaionaro-go/streamidrouter/element"
	"github.com/xaionaro-go/streamidrouter/event"
	"github.com/xaionaro-go/streamidrouter/internal"
	"github.com/xaionaro-go/streamidrouter/logger"
	"github.com/xaionaro-go/streamidrouter/pad"
	"github.com/xaionaro-go/streamidrouter/sticky"
	"github.com/xaionaro-go/streamidrouter/types"
	"github.com/xaionaro-go/xsync"
)

func (r *Router) onStreamStart(
	ctx context.Context,
	epoch uint64,
	ev event.Event,
) (_err error) {
	ctx = belt.WithField(r.withFields(ctx), "stream_id", ev.StreamID)
	logger.Debugf(ctx, "onStreamStart")
	defer func() { logger.Debugf(ctx, "/onStreamStart: %v", _err) }()

	if ev.StreamID.IsZero() {
		err := ErrNoStreamID{Event: ev}
		r.Counters.Events.Dropped.Increment(0)
		r.post(ctx, element.MessageTypeWarning, err, "malformed stream-start event")
		return err
	}

	var changes padChanges
	err := xsync.DoR1(ctx, &r.Locker, func() error {
		if err := r.storeInputStickyLocked(ctx, epoch, ev); err != nil {
			return err
		}
		return r.selectStreamLocked(ctx, ev.StreamID, &changes)
	})
	r.notifyChanges(ctx, changes)
	return err
}

// storeInputStickyLocked records the sticky event on the input unless the
// input was deactivated or reset since the event started being handled.
func (r *Router) storeInputStickyLocked(
	ctx context.Context,
	epoch uint64,
	ev event.Event,
) error {
	if !r.SinkPad.IsActive() || r.Epoch.Load() != epoch {
		logger.Debugf(ctx, "the input was reset, not storing %s", ev)
		return pad.ErrFlushing{Pad: r.SinkPad}
	}
	r.SinkPad.StoreStickyEvent(ctx, ev)
	return nil
}

// selectStreamLocked makes the pad bound to the stream identifier the
// active one, creating the pad first if the identifier is new.
func (r *Router) selectStreamLocked(
	ctx context.Context,
	streamID types.StreamID,
	changes *padChanges,
) error {
	if !r.SinkPad.IsActive() {
		// a reset won the race against this stream-start
		return pad.ErrFlushing{Pad: r.SinkPad}
	}

	if p, ok := r.Registry.Lookup(ctx, streamID); ok {
		if r.GetActivePad() == p {
			logger.Debugf(ctx, "stream '%s' is already active on %s", streamID, p)
			return nil
		}
		r.setActivePad(ctx, p)
		return nil
	}

	if r.Config.Policy == PolicySingleActiveSlot {
		for _, p := range r.GetPads(ctx) {
			r.retirePadLocked(ctx, p, changes)
		}
	}

	p, err := r.newPadLocked(ctx, streamID)
	if err == nil {
		changes.Added = append(changes.Added, p)
	}
	if err != nil {
		err = ErrPadCreation{StreamID: streamID, Err: err}
		r.post(ctx, element.MessageTypeError, err, "unable to create an output pad")
		return err
	}
	r.setActivePad(ctx, p)
	return nil
}

func (r *Router) newPadLocked(
	ctx context.Context,
	streamID types.StreamID,
) (_ret *pad.Pad, _err error) {
	name := r.Template.PadName(r.NextPadIndex)
	logger.Debugf(ctx, "newPadLocked: %s", name)
	defer func() { logger.Debugf(ctx, "/newPadLocked: %s: %v", name, _err) }()

	p, err := r.Config.PadFactory.NewPad(ctx, name, r.Template)
	if err != nil {
		return nil, fmt.Errorf("unable to make pad '%s': %w", name, err)
	}
	if p == nil {
		return nil, fmt.Errorf("the pad factory returned no pad for '%s'", name)
	}
	p.StreamID = streamID

	if caps, ok := r.SinkPad.CurrentCaps(ctx); ok && !r.Template.Accepts(caps) {
		r.post(ctx, element.MessageTypeWarning, nil, fmt.Sprintf("the current caps %s do not match the template caps %s", caps, r.Template.Caps))
	}

	p.SetActive(ctx, true)
	if err := sticky.Replay(ctx, r.SinkPad, p); err != nil {
		p.Unref(ctx)
		return nil, fmt.Errorf("unable to replay the sticky state onto pad '%s': %w", name, err)
	}
	logger.Debugf(ctx, "sticky state of %s: %s", name, spew.Sdump(p.StickyEvents(ctx)))

	r.NextPadIndex++
	_, stored := r.Registry.Insert(ctx, streamID, p)
	internal.Assert(ctx, stored, "stream identifier is already registered", streamID)
	r.PadsLocker.Do(ctx, func() {
		r.Pads = append(r.Pads, p)
	})
	return p, nil
}

// retirePadLocked sends EOS to the pad, deactivates it and removes it from
// the router. The pad is added to changes.Removed, where the router's
// remaining reference is dropped after the observers are notified.
func (r *Router) retirePadLocked(
	ctx context.Context,
	p *pad.Pad,
	changes *padChanges,
) {
	logger.Debugf(ctx, "retirePadLocked: %s", p)
	defer func() { logger.Debugf(ctx, "/retirePadLocked: %s", p) }()

	if err := p.PushEvent(ctx, event.NewEOS()); err != nil {
		logger.Debugf(ctx, "unable to send EOS to the retired pad %s: %v", p, err)
	}
	p.SetActive(ctx, false)
	if r.GetActivePad() == p {
		r.setActivePad(ctx, nil)
	}
	r.Registry.Remove(ctx, p.StreamID)
	removed := false
	r.PadsLocker.Do(ctx, func() {
		for idx, cur := range r.Pads {
			if cur == p {
				r.Pads = append(r.Pads[:idx], r.Pads[idx+1:]...)
				removed = true
				break
			}
		}
	})
	if !removed {
		return
	}
	changes.Removed = append(changes.Removed, p)
}

// resyncActivePad re-selects the active pad after it was dropped by a flush,
// using the stream identifier the input is currently at.
func (r *Router) resyncActivePad(ctx context.Context) *pad.Pad {
	if p := r.GetActivePad(); p != nil || !r.NeedsResync.Load() {
		return p
	}
	streamID, ok := r.SinkPad.CurrentStreamID(ctx)
	if !ok {
		return nil
	}
	var changes padChanges
	r.Locker.Do(ctx, func() {
		if !r.NeedsResync.CompareAndSwap(true, false) {
			return
		}
		if err := r.selectStreamLocked(ctx, streamID, &changes); err != nil {
			logger.Debugf(ctx, "unable to re-select stream '%s': %v", streamID, err)
		}
	})
	r.notifyChanges(ctx, changes)
	return r.GetActivePad()
}
