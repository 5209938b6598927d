package sink

import (
	"context"
	"fmt"

	"github.com/go-ng/xatomic"
	"github.com/xaionaro-go/streamidrouter/buffer"
	"github.com/xaionaro-go/streamidrouter/event"
	"github.com/xaionaro-go/streamidrouter/helpers/closuresignaler"
	"github.com/xaionaro-go/streamidrouter/logger"
	"github.com/xaionaro-go/streamidrouter/pad"
	"github.com/xaionaro-go/streamidrouter/query"
	"github.com/xaionaro-go/streamidrouter/sticky"
	"github.com/xaionaro-go/streamidrouter/types"
	"go.uber.org/atomic"
)

// Queue is a bounded queue of items, to be drained by a separate consumer
// through ItemsChan. When it is full Chain and Event block, which is how
// backpressure reaches the pushing side.
type Queue struct {
	*closuresignaler.ClosureSignaler
	AcceptCaps types.Caps

	ch       chan pad.Item
	flushing atomic.Bool
	flushCh  *chan struct{}
	sticky   *sticky.Store
}

var (
	_ pad.Peer     = (*Queue)(nil)
	_ types.Closer = (*Queue)(nil)
)

func NewQueue(size uint) *Queue {
	flushCh := make(chan struct{})
	return &Queue{
		ClosureSignaler: closuresignaler.New(),
		ch:              make(chan pad.Item, size),
		flushCh:         &flushCh,
		sticky:          sticky.NewStore(),
	}
}

func (q *Queue) ItemsChan() <-chan pad.Item {
	return q.ch
}

func (q *Queue) Len() int {
	return len(q.ch)
}

func (q *Queue) getFlushChan() <-chan struct{} {
	return *xatomic.LoadPointer(&q.flushCh)
}

func (q *Queue) enqueue(ctx context.Context, item pad.Item) error {
	if q.flushing.Load() {
		return ErrFlushing{}
	}
	if q.IsClosed() {
		return ErrClosed{}
	}
	flushCh := q.getFlushChan()
	select {
	case q.ch <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-flushCh:
		return ErrFlushing{}
	case <-q.CloseChan():
		return ErrClosed{}
	}
}

func (q *Queue) Chain(ctx context.Context, buf *buffer.Buffer) error {
	return q.enqueue(ctx, pad.ItemBuffer(buf))
}

// Event enqueues serialized events; flush-start is handled out of band:
// the queued items are discarded and blocked pushers are woken up.
func (q *Queue) Event(ctx context.Context, ev event.Event) error {
	switch ev.Kind {
	case event.KindFlushStart:
		q.flushStart(ctx)
		return nil
	case event.KindFlushStop:
		q.flushing.Store(false)
		q.sticky.Remove(ctx, event.KindEOS, event.KindSegment)
	default:
		q.sticky.Set(ctx, ev)
	}
	return q.enqueue(ctx, pad.ItemEvent(ev))
}

func (q *Queue) flushStart(ctx context.Context) {
	logger.Debugf(ctx, "flushStart")
	defer func() { logger.Debugf(ctx, "/flushStart") }()
	q.flushing.Store(true)
	close(*xatomic.SwapPointer(&q.flushCh, ptr(make(chan struct{}))))
	for {
		select {
		case <-q.ch:
		default:
			return
		}
	}
}

func (q *Queue) Query(ctx context.Context, qry *query.Query) bool {
	switch qry.Kind {
	case query.KindCaps:
		ev, ok := q.sticky.Get(ctx, event.KindCaps)
		if !ok || !qry.Filter.IsSubsetOf(ev.Caps) {
			return false
		}
		qry.SetResult(ev.Caps)
		return true
	case query.KindAcceptCaps:
		qry.SetResult(q.AcceptCaps.IsSubsetOf(qry.Filter))
		return true
	}
	return false
}

func (q *Queue) Close(ctx context.Context) error {
	q.ClosureSignaler.Close(ctx)
	return nil
}

func (q *Queue) String() string {
	return fmt.Sprintf("Queue(%d/%d)", len(q.ch), cap(q.ch))
}
