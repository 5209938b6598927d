// Package pad provides Pad, a named and independently flow-controlled
// connection point of an element, through which buffers and events flow
// to a linked Peer.
package pad

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/streamidrouter/buffer"
	"github.com/xaionaro-go/streamidrouter/event"
	"github.com/xaionaro-go/streamidrouter/internal"
	"github.com/xaionaro-go/streamidrouter/logger"
	"github.com/xaionaro-go/streamidrouter/query"
	"github.com/xaionaro-go/streamidrouter/sticky"
	"github.com/xaionaro-go/streamidrouter/types"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

type Pad struct {
	// read only:
	Name      string
	Direction Direction
	Template  *Template

	// StreamID is the stream this pad is bound to; set once, before
	// the pad is exposed.
	StreamID types.StreamID

	active   atomic.Bool
	refCount atomic.Int64
	sticky   *sticky.Store
	counters *types.Counters

	// access only when peerLocker is locked:
	peerLocker xsync.RWMutex
	peer       Peer
}

var _ sticky.ForEacher = (*Pad)(nil)
var _ sticky.EventPusher = (*Pad)(nil)

// New returns an inactive, unlinked pad holding a single reference,
// owned by the caller.
func New(
	name string,
	direction Direction,
	tmpl *Template,
) *Pad {
	p := &Pad{
		Name:      name,
		Direction: direction,
		Template:  tmpl,
		sticky:    sticky.NewStore(),
		counters:  types.NewCounters(),
	}
	p.refCount.Store(1)
	return p
}

func (p *Pad) GetObjectID() types.ObjectID {
	return types.GetObjectID(p)
}

func (p *Pad) String() string {
	if p == nil {
		return "<nil>"
	}
	return p.Name
}

// Ref takes another strong reference to the pad.
func (p *Pad) Ref() *Pad {
	p.refCount.Inc()
	return p
}

// Unref drops a strong reference. When the last one is dropped the pad
// is deactivated, unlinked and its sticky state is released.
func (p *Pad) Unref(ctx context.Context) int64 {
	left := p.refCount.Dec()
	internal.Assert(ctx, left >= 0, "negative reference count", p.Name, left)
	if left == 0 {
		logger.Debugf(ctx, "pad %s released", p.Name)
		p.SetActive(ctx, false)
		p.Unlink(ctx)
		p.sticky.Clear(ctx)
	}
	return left
}

func (p *Pad) RefCount() int64 {
	return p.refCount.Load()
}

// SetActive marks the pad ready (or not) to carry flow. Pushing into an
// inactive pad fails with ErrFlushing.
func (p *Pad) SetActive(ctx context.Context, active bool) {
	if old := p.active.Swap(active); old != active {
		logger.Debugf(ctx, "pad %s: active: %t -> %t", p.Name, old, active)
	}
}

func (p *Pad) IsActive() bool {
	return p.active.Load()
}

// Link attaches the peer and immediately delivers to it the sticky state
// already in effect on the pad, so it sees the same state as if it was
// linked from the very beginning.
func (p *Pad) Link(
	ctx context.Context,
	peer Peer,
) (_err error) {
	logger.Debugf(ctx, "Link(%s, %T)", p.Name, peer)
	defer func() { logger.Debugf(ctx, "/Link(%s, %T): %v", p.Name, peer, _err) }()
	if peer == nil {
		return fmt.Errorf("nil peer")
	}
	p.peerLocker.ManualLock(ctx)
	defer p.peerLocker.ManualUnlock(ctx)
	if p.peer != nil {
		return ErrAlreadyLinked{Pad: p}
	}
	p.peer = peer
	if err := sticky.Replay(ctx, p.sticky, peerEventPusher{Peer: peer}); err != nil {
		return ErrPeer{Pad: p, Err: err}
	}
	return nil
}

// Unlink detaches the peer, returning it (nil if the pad was not linked).
func (p *Pad) Unlink(ctx context.Context) Peer {
	return xsync.DoR1(ctx, &p.peerLocker, func() Peer {
		peer := p.peer
		p.peer = nil
		return peer
	})
}

func (p *Pad) GetPeer(ctx context.Context) Peer {
	p.peerLocker.ManualRLock(ctx)
	defer p.peerLocker.ManualRUnlock(ctx)
	return p.peer
}

func (p *Pad) IsLinked(ctx context.Context) bool {
	return p.GetPeer(ctx) != nil
}

// Push sends the buffer to the peer. It blocks for as long as the peer
// applies backpressure.
func (p *Pad) Push(
	ctx context.Context,
	buf *buffer.Buffer,
) (_err error) {
	logger.Tracef(ctx, "Push(%s, %s)", p.Name, buf)
	defer func() { logger.Tracef(ctx, "/Push(%s, %s): %v", p.Name, buf, _err) }()
	size := buf.Size()
	p.counters.Buffers.Received.Increment(size)
	if !p.IsActive() {
		p.counters.Buffers.Dropped.Increment(size)
		return ErrFlushing{Pad: p}
	}
	peer := p.GetPeer(ctx)
	if peer == nil {
		p.counters.Buffers.Dropped.Increment(size)
		return ErrNotLinked{Pad: p}
	}
	if err := peer.Chain(ctx, buf); err != nil {
		p.counters.Buffers.Dropped.Increment(size)
		return ErrPeer{Pad: p, Err: err}
	}
	p.counters.Buffers.Sent.Increment(size)
	return nil
}

// PushEvent sends the event to the peer. Sticky events are also stored on
// the pad; if the pad is not linked yet they will be delivered on Link,
// thus an unlinked pad accepts them without an error.
func (p *Pad) PushEvent(
	ctx context.Context,
	ev event.Event,
) (_err error) {
	logger.Tracef(ctx, "PushEvent(%s, %s)", p.Name, ev)
	defer func() { logger.Tracef(ctx, "/PushEvent(%s, %s): %v", p.Name, ev, _err) }()
	p.counters.Events.Received.Increment(0)
	if !p.IsActive() && ev.Kind != event.KindFlushStart {
		p.counters.Events.Dropped.Increment(0)
		return ErrFlushing{Pad: p}
	}
	switch ev.Kind {
	case event.KindFlushStop:
		p.sticky.Remove(ctx, event.KindEOS, event.KindSegment)
	default:
		p.sticky.Set(ctx, ev)
	}

	peer := p.GetPeer(ctx)
	if peer == nil {
		if ev.IsSticky() {
			return nil
		}
		p.counters.Events.Dropped.Increment(0)
		return ErrNotLinked{Pad: p}
	}
	if err := peer.Event(ctx, ev); err != nil {
		p.counters.Events.Dropped.Increment(0)
		return ErrPeer{Pad: p, Err: err}
	}
	p.counters.Events.Sent.Increment(0)
	return nil
}

// PeerQuery asks the peer; it returns false if there is no peer or
// the peer could not answer.
func (p *Pad) PeerQuery(
	ctx context.Context,
	q *query.Query,
) bool {
	peer := p.GetPeer(ctx)
	if peer == nil {
		return false
	}
	return peer.Query(ctx, q)
}

func (p *Pad) ForEachSticky(
	ctx context.Context,
	callback func(event.Event) bool,
) {
	p.sticky.ForEachSticky(ctx, callback)
}

func (p *Pad) StickyEvents(ctx context.Context) []event.Event {
	return p.sticky.Events(ctx)
}

func (p *Pad) GetStickyEvent(ctx context.Context, kind event.Kind) (event.Event, bool) {
	return p.sticky.Get(ctx, kind)
}

// StoreStickyEvent records the sticky event on the pad without
// forwarding it anywhere (used on input pads, which have no peer).
func (p *Pad) StoreStickyEvent(ctx context.Context, ev event.Event) bool {
	if ev.Kind == event.KindFlushStop {
		p.sticky.Remove(ctx, event.KindEOS, event.KindSegment)
		return false
	}
	return p.sticky.Set(ctx, ev)
}

func (p *Pad) ClearStickyEvents(ctx context.Context) {
	p.sticky.Clear(ctx)
}

// CurrentCaps returns the caps of the last caps event seen on the pad.
func (p *Pad) CurrentCaps(ctx context.Context) (types.Caps, bool) {
	ev, ok := p.sticky.Get(ctx, event.KindCaps)
	if !ok {
		return types.Caps{}, false
	}
	return ev.Caps, true
}

// CurrentStreamID returns the stream identifier of the last stream-start
// event seen on the pad.
func (p *Pad) CurrentStreamID(ctx context.Context) (types.StreamID, bool) {
	ev, ok := p.sticky.Get(ctx, event.KindStreamStart)
	if !ok {
		return "", false
	}
	return ev.StreamID, true
}

func (p *Pad) GetStats() types.Statistics {
	return p.counters.ToStats()
}
