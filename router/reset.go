package router

import (
	"context"

	"github.com/xaionaro-go/streamidrouter/element"
	"github.com/xaionaro-go/streamidrouter/logger"
	"github.com/xaionaro-go/streamidrouter/pad"
)

// ChangeState reacts to a transition of the hosting pipeline. The only
// transition that matters is the one tearing the flow down (PAUSED->READY):
// the input stops accepting data and the router is reset.
func (r *Router) ChangeState(
	ctx context.Context,
	change element.StateChange,
) (_err error) {
	ctx = r.withFields(ctx)
	logger.Debugf(ctx, "ChangeState(%s)", change)
	defer func() { logger.Debugf(ctx, "/ChangeState(%s): %v", change, _err) }()

	if r.IsClosed() {
		return ErrAlreadyClosed{}
	}

	switch {
	case change.TearsDownFlow():
		r.SinkPad.SetActive(ctx, false)
		r.Reset(ctx)
	case change.From <= element.StateReady && change.To >= element.StatePaused:
		r.SinkPad.SetActive(ctx, true)
	}
	r.Locker.Do(ctx, func() {
		r.State = change.To
	})
	return nil
}

// Reset drops all the routing state: every output pad is deactivated
// before it is removed, the active pad is forgotten, the input sticky state
// is cleared and pad naming restarts from zero.
func (r *Router) Reset(ctx context.Context) {
	ctx = r.withFields(ctx)
	logger.Debugf(ctx, "Reset")
	defer func() { logger.Debugf(ctx, "/Reset") }()
	var changes padChanges
	r.Locker.Do(ctx, func() {
		r.resetLocked(ctx, &changes)
	})
	r.notifyChanges(ctx, changes)
}

func (r *Router) resetLocked(ctx context.Context, changes *padChanges) {
	r.Epoch.Inc()
	var pads []*pad.Pad
	r.PadsLocker.Do(ctx, func() {
		pads, r.Pads = r.Pads, nil
	})
	for _, p := range pads {
		p.SetActive(ctx, false)
	}
	r.setActivePad(ctx, nil)
	r.NeedsResync.Store(false)
	r.Registry.Clear(ctx)
	r.NextPadIndex = 0
	r.SinkPad.ClearStickyEvents(ctx)
	changes.Removed = append(changes.Removed, pads...)
}
