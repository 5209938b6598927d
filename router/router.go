// Package router provides Router, an element which routes a single
// sequential flow of buffers and events into per-stream output pads,
// keyed by the identifiers announced on stream-start events.
package router

import (
	"context"
	"fmt"
	"slices"

	"github.com/facebookincubator/go-belt"
	"github.com/go-ng/xatomic"
	"github.com/xaionaro-go/streamidrouter/element"
	"github.com/xaionaro-go/streamidrouter/event"
	"github.com/xaionaro-go/streamidrouter/helpers/closuresignaler"
	"github.com/xaionaro-go/streamidrouter/logger"
	"github.com/xaionaro-go/streamidrouter/pad"
	"github.com/xaionaro-go/streamidrouter/registry"
	"github.com/xaionaro-go/streamidrouter/types"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

type RoutingState int

const (
	RoutingStateIdle = RoutingState(iota)
	RoutingStateRouting
)

func (s RoutingState) String() string {
	switch s {
	case RoutingStateIdle:
		return "idle"
	case RoutingStateRouting:
		return "routing"
	default:
		return fmt.Sprintf("unknown-routing-state-%d", int(s))
	}
}

type observerEntry struct {
	ID       uint64
	Observer Observer
}

type Router struct {
	*closuresignaler.ClosureSignaler

	// read only:
	Config   Config
	SinkPad  *pad.Pad
	Template *pad.Template

	// Locker serializes stream-start resolution, pad creation and resets.
	Locker xsync.Mutex

	// access only when Locker is locked:
	NextPadIndex uint64
	State        element.State

	// access only when PadsLocker is locked:
	PadsLocker xsync.RWMutex
	Pads       []*pad.Pad

	// access only when ObserversLocker is locked:
	ObserversLocker xsync.RWMutex
	Observers       []observerEntry
	NextObserverID  uint64

	// access only through xatomic:
	ActivePad *pad.Pad

	Registry    *registry.Registry[types.StreamID, *pad.Pad]
	NeedsResync atomic.Bool
	Counters    *types.Counters

	// Epoch is incremented by every reset; input items that started being
	// handled in an older epoch do not touch the state of the newer one.
	Epoch atomic.Uint64
}

// padChanges are the pads added and removed while Locker was held; the
// observers are notified after it is released.
type padChanges struct {
	Added   []*pad.Pad
	Removed []*pad.Pad
}

// notifyChanges tells the observers about the changes collected under
// Locker, removals first. The router's references to removed pads are
// dropped afterwards.
func (r *Router) notifyChanges(ctx context.Context, changes padChanges) {
	for _, p := range changes.Removed {
		r.notifyPadRemoved(ctx, p)
		p.Unref(ctx)
	}
	for _, p := range changes.Added {
		r.notifyPadAdded(ctx, p)
	}
}

var (
	_ pad.Peer     = (*Router)(nil)
	_ types.Closer = (*Router)(nil)
)

func New(
	ctx context.Context,
	opts ...Option,
) *Router {
	cfg := Options(opts).config()
	r := &Router{
		ClosureSignaler: closuresignaler.New(),
		Config:          cfg,
		SinkPad:         pad.New("sink", pad.DirectionSink, nil),
		Template:        pad.NewSrcTemplate(cfg.PadNamePrefix, cfg.Caps),
		State:           element.StatePlaying,
		Registry:        registry.New[types.StreamID, *pad.Pad](),
		Counters:        types.NewCounters(),
	}
	r.SinkPad.SetActive(ctx, true)
	for _, observer := range cfg.Observers {
		r.Subscribe(observer)
	}
	return r
}

// NewStreamIDDemux returns a router which keeps a pad per stream
// identifier ever seen, until reset.
func NewStreamIDDemux(
	ctx context.Context,
	opts ...Option,
) *Router {
	return New(ctx, append(Options{OptionPolicy(PolicyRetainAll)}, opts...)...)
}

// NewReverseFunnel returns a router which keeps a single output pad at a
// time, replacing it whenever a new stream identifier appears.
func NewReverseFunnel(
	ctx context.Context,
	opts ...Option,
) *Router {
	return New(ctx, append(Options{OptionPolicy(PolicySingleActiveSlot)}, opts...)...)
}

func (r *Router) GetObjectID() types.ObjectID {
	return types.GetObjectID(r)
}

func (r *Router) withFields(ctx context.Context) context.Context {
	return belt.WithField(ctx, "router", r.Config.Name)
}

// Subscribe adds an observer of pad additions/removals; the returned
// function removes it.
func (r *Router) Subscribe(observer Observer) (unsubscribe func()) {
	ctx := context.TODO()
	id := xsync.DoR1(ctx, &r.ObserversLocker, func() uint64 {
		r.NextObserverID++
		r.Observers = append(r.Observers, observerEntry{
			ID:       r.NextObserverID,
			Observer: observer,
		})
		return r.NextObserverID
	})
	return func() {
		r.ObserversLocker.Do(ctx, func() {
			r.Observers = slices.DeleteFunc(r.Observers, func(e observerEntry) bool {
				return e.ID == id
			})
		})
	}
}

func (r *Router) getObservers(ctx context.Context) []Observer {
	r.ObserversLocker.ManualRLock(ctx)
	defer r.ObserversLocker.ManualRUnlock(ctx)
	result := make([]Observer, 0, len(r.Observers))
	for _, e := range r.Observers {
		result = append(result, e.Observer)
	}
	return result
}

func (r *Router) notifyPadAdded(ctx context.Context, p *pad.Pad) {
	logger.Debugf(ctx, "notifyPadAdded: %s", p)
	defer func() { logger.Debugf(ctx, "/notifyPadAdded: %s", p) }()
	for _, observer := range r.getObservers(ctx) {
		observer.OnPadAdded(ctx, r, p)
	}
}

func (r *Router) notifyPadRemoved(ctx context.Context, p *pad.Pad) {
	logger.Debugf(ctx, "notifyPadRemoved: %s", p)
	defer func() { logger.Debugf(ctx, "/notifyPadRemoved: %s", p) }()
	for _, observer := range r.getObservers(ctx) {
		observer.OnPadRemoved(ctx, r, p)
	}
}

// GetActivePad returns the pad the non-broadcast traffic currently goes to.
func (r *Router) GetActivePad() *pad.Pad {
	return xatomic.LoadPointer(&r.ActivePad)
}

func (r *Router) setActivePad(ctx context.Context, p *pad.Pad) {
	old := xatomic.SwapPointer(&r.ActivePad, p)
	if old != p {
		logger.Debugf(ctx, "active pad: %s -> %s", old, p)
	}
}

// GetPads returns the currently exposed output pads, in creation order.
func (r *Router) GetPads(ctx context.Context) []*pad.Pad {
	r.PadsLocker.ManualRLock(ctx)
	defer r.PadsLocker.ManualRUnlock(ctx)
	return slices.Clone(r.Pads)
}

func (r *Router) GetPadByName(ctx context.Context, name string) *pad.Pad {
	for _, p := range r.GetPads(ctx) {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// GetPadByStreamID returns the pad bound to the stream identifier.
func (r *Router) GetPadByStreamID(ctx context.Context, streamID types.StreamID) *pad.Pad {
	p, ok := r.Registry.Lookup(ctx, streamID)
	if !ok {
		return nil
	}
	return p
}

func (r *Router) RoutingState(ctx context.Context) RoutingState {
	if r.Registry.Len(ctx) == 0 {
		return RoutingStateIdle
	}
	return RoutingStateRouting
}

func (r *Router) GetState(ctx context.Context) element.State {
	return xsync.DoR1(ctx, &r.Locker, func() element.State {
		return r.State
	})
}

func (r *Router) GetStats() types.Statistics {
	return r.Counters.ToStats()
}

func (r *Router) post(
	ctx context.Context,
	msgType element.MessageType,
	err error,
	text string,
) {
	level := logger.LevelDebug
	switch msgType {
	case element.MessageTypeError:
		level = logger.LevelError
	case element.MessageTypeWarning:
		level = logger.LevelWarning
	case element.MessageTypeInfo:
		level = logger.LevelInfo
	}
	logger.Logf(ctx, level, "%s: %v", text, err)
	if r.Config.Reporter == nil {
		return
	}
	r.Config.Reporter.Post(ctx, element.Message{
		Type:   msgType,
		Source: r.Config.Name,
		Err:    err,
		Text:   text,
	})
}

func (r *Router) isBroadcastKind(kind event.Kind) bool {
	return slices.Contains(r.Config.BroadcastKinds, kind)
}

func (r *Router) String() string {
	ctx := context.TODO()
	return fmt.Sprintf(
		"Router(%s, %s, pads:%d, active:%s)",
		r.Config.Name, r.Config.Policy, len(r.GetPads(ctx)), r.GetActivePad(),
	)
}

// Close resets the router and makes it refuse any further input.
func (r *Router) Close(ctx context.Context) (_err error) {
	ctx = r.withFields(ctx)
	logger.Debugf(ctx, "Close")
	defer func() { logger.Debugf(ctx, "/Close: %v", _err) }()
	if !r.ClosureSignaler.Close(ctx) {
		return ErrAlreadyClosed{}
	}
	r.SinkPad.SetActive(ctx, false)
	r.Reset(ctx)
	return nil
}
