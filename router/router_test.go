package router

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/streamidrouter/buffer"
	"github.com/xaionaro-go/streamidrouter/element"
	"github.com/xaionaro-go/streamidrouter/event"
	"github.com/xaionaro-go/streamidrouter/pad"
	"github.com/xaionaro-go/streamidrouter/query"
	"github.com/xaionaro-go/streamidrouter/sink"
	"github.com/xaionaro-go/streamidrouter/types"
)

// harness links a sink.Collector to every pad the router exposes.
type harness struct {
	mu         sync.Mutex
	collectors map[string]*sink.Collector
	added      []string
	removed    []string
}

func newHarness() *harness {
	return &harness{collectors: map[string]*sink.Collector{}}
}

func (h *harness) OnPadAdded(ctx context.Context, _ *Router, p *pad.Pad) {
	c := sink.NewCollector(p.Name)
	if err := p.Link(ctx, c); err != nil {
		panic(err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.collectors[p.Name] = c
	h.added = append(h.added, p.Name)
}

func (h *harness) OnPadRemoved(_ context.Context, _ *Router, p *pad.Pad) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removed = append(h.removed, p.Name)
}

func (h *harness) collector(name string) *sink.Collector {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.collectors[name]
}

func payloads(bufs []*buffer.Buffer) []string {
	var result []string
	for _, b := range bufs {
		result = append(result, string(b.Payload))
	}
	return result
}

func eventKinds(events []event.Event) []event.Kind {
	var result []event.Kind
	for _, ev := range events {
		result = append(result, ev.Kind)
	}
	return result
}

func newTestRouter(ctx context.Context, h *harness, opts ...Option) *Router {
	return New(ctx, append(Options{OptionPadNamePrefix("out"), OptionObserver(h)}, opts...)...)
}

func TestRouterScenarioTwoStreams(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	r := newTestRouter(ctx, h)
	require.Equal(t, RoutingStateIdle, r.RoutingState(ctx))

	require.NoError(t, r.Event(ctx, event.NewStreamStart("A")))
	require.NoError(t, r.Chain(ctx, buffer.New([]byte("buf1"))))
	require.NoError(t, r.Event(ctx, event.NewStreamStart("B")))
	require.NoError(t, r.Chain(ctx, buffer.New([]byte("buf2"))))
	require.NoError(t, r.Event(ctx, event.NewStreamStart("A")))
	require.NoError(t, r.Chain(ctx, buffer.New([]byte("buf3"))))

	require.Equal(t, RoutingStateRouting, r.RoutingState(ctx))
	require.Equal(t, []string{"out_0", "out_1"}, h.added)
	require.Equal(t, []string{"buf1", "buf3"}, payloads(h.collector("out_0").Buffers(ctx)))
	require.Equal(t, []string{"buf2"}, payloads(h.collector("out_1").Buffers(ctx)))

	require.Equal(t, "out_0", r.GetActivePad().Name)
	require.Equal(t, types.StreamID("A"), r.GetActivePad().StreamID)
	require.Equal(t, "out_1", r.GetPadByStreamID(ctx, "B").Name)
	require.Nil(t, r.GetPadByStreamID(ctx, "C"))

	stats := r.GetStats()
	require.Equal(t, uint64(3), stats.Buffers.Received.Count)
	require.Equal(t, uint64(3), stats.Buffers.Sent.Count)
}

func TestRouterDuplicateStreamStart(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	r := newTestRouter(ctx, h)

	require.NoError(t, r.Event(ctx, event.NewStreamStart("A")))
	active := r.GetActivePad()
	require.NoError(t, r.Event(ctx, event.NewStreamStart("A")))

	require.Len(t, r.GetPads(ctx), 1)
	require.Equal(t, []string{"out_0"}, h.added)
	require.Same(t, active, r.GetActivePad())
}

func TestRouterBufferBeforeStreamStartIsDropped(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	r := newTestRouter(ctx, h)

	require.NoError(t, r.Chain(ctx, buffer.New([]byte("buf1"))))
	require.Empty(t, r.GetPads(ctx))
	require.Empty(t, h.added)
	require.Nil(t, r.GetActivePad())
	require.Equal(t, uint64(1), r.GetStats().Buffers.Dropped.Count)
}

func TestRouterEventBeforeStreamStart(t *testing.T) {
	ctx := context.Background()
	bus := element.NewBus(10)
	r := New(ctx, OptionReporter(bus))

	err := r.Event(ctx, event.NewGap())
	require.ErrorAs(t, err, &ErrNotRouted{})
	msg := <-bus.Messages()
	require.Equal(t, element.MessageTypeWarning, msg.Type)

	// sticky non-broadcast events are kept for the pads to come
	require.NoError(t, r.Event(ctx, event.NewTag(map[string]string{"title": "x"})))
}

func TestRouterStreamStartWithoutID(t *testing.T) {
	ctx := context.Background()
	bus := element.NewBus(10)
	h := newHarness()
	r := newTestRouter(ctx, h, OptionReporter(bus))

	err := r.Event(ctx, event.NewStreamStart(""))
	require.ErrorAs(t, err, &ErrNoStreamID{})
	require.Empty(t, h.added)
	msg := <-bus.Messages()
	require.Equal(t, element.MessageTypeWarning, msg.Type)

	// the router keeps working
	require.NoError(t, r.Event(ctx, event.NewStreamStart("A")))
	require.Len(t, h.added, 1)
}

func TestRouterMonotonicNaming(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	r := newTestRouter(ctx, h)

	ids := []types.StreamID{"x", "y", "x", "z", "y", "w"}
	for idx, id := range ids {
		require.NoError(t, r.Event(ctx, event.NewStreamStart(id)))
		require.NoError(t, r.Chain(ctx, buffer.New([]byte(fmt.Sprint(idx)))))
	}
	for idx, id := range []types.StreamID{"x", "y", "z", "w"} {
		require.Equal(t, fmt.Sprintf("out_%d", idx), r.GetPadByStreamID(ctx, id).Name)
	}
}

func TestRouterStickyReplayOntoLatePad(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	r := newTestRouter(ctx, h)

	caps := types.NewCaps("video/x-h264", map[string]string{"stream-format": "avc"})
	require.NoError(t, r.Event(ctx, event.NewStreamStart("A")))
	require.NoError(t, r.Event(ctx, event.NewCaps(caps)))
	require.NoError(t, r.Event(ctx, event.NewSegment(types.NewSegment())))
	require.NoError(t, r.Chain(ctx, buffer.New([]byte("a"))))

	require.NoError(t, r.Event(ctx, event.NewStreamStart("B")))
	require.NoError(t, r.Chain(ctx, buffer.New([]byte("b"))))

	late := h.collector("out_1")
	items := late.Items(ctx)
	require.Len(t, items, 4)
	require.Equal(t, event.KindStreamStart, items[0].Event.Kind)
	require.Equal(t, types.StreamID("B"), items[0].Event.StreamID)
	require.Equal(t, event.KindCaps, items[1].Event.Kind)
	require.True(t, caps.Equal(items[1].Event.Caps))
	require.Equal(t, event.KindSegment, items[2].Event.Kind)
	require.Equal(t, "b", string(items[3].Buffer.Payload))

	// the first pad is unaffected by the replay
	require.Equal(t,
		[]event.Kind{event.KindStreamStart, event.KindCaps, event.KindSegment},
		eventKinds(h.collector("out_0").Events(ctx)),
	)
}

func TestRouterBroadcastsStickyAndRoutesOthers(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	r := newTestRouter(ctx, h)

	require.NoError(t, r.Event(ctx, event.NewStreamStart("A")))
	require.NoError(t, r.Event(ctx, event.NewStreamStart("B")))
	require.NoError(t, r.Event(ctx, event.NewCaps(types.NewCaps("audio/x-opus", nil))))
	require.NoError(t, r.Event(ctx, event.NewGap()))
	require.NoError(t, r.Event(ctx, event.NewCustom("note", nil, false)))

	require.Equal(t,
		[]event.Kind{event.KindStreamStart, event.KindCaps},
		eventKinds(h.collector("out_0").Events(ctx)),
	)
	require.Equal(t,
		[]event.Kind{event.KindStreamStart, event.KindCaps, event.KindGap, event.KindCustom},
		eventKinds(h.collector("out_1").Events(ctx)),
	)
}

func TestRouterEOSAndFlushAreBroadcast(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	r := newTestRouter(ctx, h)

	require.NoError(t, r.Event(ctx, event.NewStreamStart("A")))
	require.NoError(t, r.Event(ctx, event.NewStreamStart("B")))
	require.NoError(t, r.Event(ctx, event.NewFlushStart()))
	require.NoError(t, r.Event(ctx, event.NewFlushStop()))
	require.Nil(t, r.GetActivePad())

	// the active pad is re-selected from the stream the input is at
	require.NoError(t, r.Chain(ctx, buffer.New([]byte("after-flush"))))
	require.Equal(t, "out_1", r.GetActivePad().Name)
	require.Equal(t, []string{"after-flush"}, payloads(h.collector("out_1").Buffers(ctx)))
	require.Empty(t, h.collector("out_0").Buffers(ctx))

	require.NoError(t, r.Event(ctx, event.NewEOS()))
	require.True(t, h.collector("out_0").GotEOS(ctx))
	require.True(t, h.collector("out_1").GotEOS(ctx))
	for _, name := range []string{"out_0", "out_1"} {
		kinds := eventKinds(h.collector(name).Events(ctx))
		require.Contains(t, kinds, event.KindFlushStart, name)
		require.Contains(t, kinds, event.KindFlushStop, name)
	}
}

func TestRouterReset(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	r := newTestRouter(ctx, h)

	require.NoError(t, r.Event(ctx, event.NewStreamStart("A")))
	require.NoError(t, r.Event(ctx, event.NewStreamStart("B")))
	oldA := r.GetPadByStreamID(ctx, "A")
	oldA.Ref()
	defer oldA.Unref(ctx)

	require.NoError(t, r.ChangeState(ctx, element.StateChangePlayingToPaused))
	require.Len(t, r.GetPads(ctx), 2)
	require.NoError(t, r.ChangeState(ctx, element.StateChangePausedToReady))

	require.Equal(t, RoutingStateIdle, r.RoutingState(ctx))
	require.Empty(t, r.GetPads(ctx))
	require.Nil(t, r.GetActivePad())
	require.Equal(t, []string{"out_0", "out_1"}, h.removed)
	require.False(t, oldA.IsActive())
	require.ErrorAs(t, oldA.Push(ctx, buffer.New(nil)), &pad.ErrFlushing{})
	require.Equal(t, element.StateReady, r.GetState(ctx))

	// the input refuses data until the flow is restarted
	require.ErrorAs(t, r.Chain(ctx, buffer.New(nil)), &pad.ErrFlushing{})
	require.NoError(t, r.ChangeState(ctx, element.StateChangeReadyToPaused))

	require.NoError(t, r.Event(ctx, event.NewStreamStart("B")))
	require.NoError(t, r.Event(ctx, event.NewStreamStart("A")))
	require.Equal(t, "out_0", r.GetPadByStreamID(ctx, "B").Name)
	newA := r.GetPadByStreamID(ctx, "A")
	require.Equal(t, "out_1", newA.Name)
	require.NotSame(t, oldA, newA)
}

func TestRouterResetDropsInputStickyState(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	r := newTestRouter(ctx, h)

	require.NoError(t, r.Event(ctx, event.NewCaps(types.NewCaps("video/x-raw", nil))))
	r.Reset(ctx)
	require.NoError(t, r.Event(ctx, event.NewStreamStart("A")))
	require.Equal(t,
		[]event.Kind{event.KindStreamStart},
		eventKinds(h.collector("out_0").Events(ctx)),
	)
}

func TestRouterPadCreationFailure(t *testing.T) {
	ctx := context.Background()
	bus := element.NewBus(10)
	h := newHarness()
	errNoMemory := errors.New("out of pads")
	failures := 1
	factory := pad.FactoryFunc(func(ctx context.Context, name string, tmpl *pad.Template) (*pad.Pad, error) {
		if failures > 0 {
			failures--
			return nil, errNoMemory
		}
		return pad.DefaultFactory.NewPad(ctx, name, tmpl)
	})
	r := newTestRouter(ctx, h, OptionReporter(bus), OptionPadFactory(factory))

	err := r.Event(ctx, event.NewStreamStart("A"))
	require.ErrorIs(t, err, errNoMemory)
	require.ErrorAs(t, err, &ErrPadCreation{})
	msg := <-bus.Messages()
	require.Equal(t, element.MessageTypeError, msg.Type)
	require.Nil(t, r.GetPadByStreamID(ctx, "A"))
	require.NoError(t, r.Chain(ctx, buffer.New(nil)))

	// the next occurrence of the identifier retries
	require.NoError(t, r.Event(ctx, event.NewStreamStart("A")))
	require.Equal(t, "out_0", r.GetPadByStreamID(ctx, "A").Name)
	require.Equal(t, []string{"out_0"}, h.added)
}

func TestRouterQuery(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	r := newTestRouter(ctx, h)

	require.False(t, r.Query(ctx, query.NewCaps("A", types.CapsAny)))

	require.NoError(t, r.Event(ctx, event.NewStreamStart("A")))
	require.NoError(t, r.Event(ctx, event.NewCaps(types.NewCaps("audio/x-raw", nil))))
	require.NoError(t, r.Event(ctx, event.NewStreamStart("B")))

	q := query.NewCaps("A", types.CapsAny)
	require.True(t, r.Query(ctx, q))
	caps, ok := q.ResultCaps()
	require.True(t, ok)
	require.Equal(t, "audio/x-raw", caps.MediaType)

	require.False(t, r.Query(ctx, query.NewCaps("", types.CapsAny)))
	require.False(t, r.Query(ctx, query.NewCaps("C", types.CapsAny)))
}

func TestReverseFunnelKeepsSingleSlot(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	r := NewReverseFunnel(ctx, OptionPadNamePrefix("out"), OptionObserver(h))

	require.NoError(t, r.Event(ctx, event.NewStreamStart("A")))
	require.NoError(t, r.Chain(ctx, buffer.New([]byte("a1"))))
	require.NoError(t, r.Event(ctx, event.NewStreamStart("A")))
	require.NoError(t, r.Chain(ctx, buffer.New([]byte("a2"))))
	require.NoError(t, r.Event(ctx, event.NewStreamStart("B")))
	require.NoError(t, r.Chain(ctx, buffer.New([]byte("b1"))))

	pads := r.GetPads(ctx)
	require.Len(t, pads, 1)
	require.Equal(t, "out_1", pads[0].Name)
	require.Nil(t, r.GetPadByStreamID(ctx, "A"))
	require.Equal(t, []string{"out_0"}, h.removed)

	first := h.collector("out_0")
	require.Equal(t, []string{"a1", "a2"}, payloads(first.Buffers(ctx)))
	require.True(t, first.GotEOS(ctx))
	require.Equal(t, []string{"b1"}, payloads(h.collector("out_1").Buffers(ctx)))

	// a stream seen before is a new stream for a single slot
	require.NoError(t, r.Event(ctx, event.NewStreamStart("A")))
	require.Equal(t, "out_2", r.GetActivePad().Name)
}

func TestRouterSubscribeUnsubscribe(t *testing.T) {
	ctx := context.Background()
	r := New(ctx)
	var added []string
	unsubscribe := r.Subscribe(ObserverFuncs{
		PadAdded: func(_ context.Context, _ *Router, p *pad.Pad) {
			added = append(added, p.Name)
		},
	})
	require.NoError(t, r.Event(ctx, event.NewStreamStart("A")))
	unsubscribe()
	require.NoError(t, r.Event(ctx, event.NewStreamStart("B")))
	require.Equal(t, []string{"src_0"}, added)
}

func TestRouterClose(t *testing.T) {
	ctx := context.Background()
	r := New(ctx)
	require.NoError(t, r.Event(ctx, event.NewStreamStart("A")))
	require.NoError(t, r.Close(ctx))
	require.ErrorAs(t, r.Close(ctx), &ErrAlreadyClosed{})
	require.Empty(t, r.GetPads(ctx))
	require.ErrorAs(t, r.Chain(ctx, buffer.New(nil)), &pad.ErrFlushing{})
	require.ErrorAs(t, r.ChangeState(ctx, element.StateChangeReadyToPaused), &ErrAlreadyClosed{})
}
