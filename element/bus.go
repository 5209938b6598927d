package element

import (
	"context"

	"github.com/xaionaro-go/streamidrouter/helpers/closuresignaler"
	"github.com/xaionaro-go/streamidrouter/logger"
	"github.com/xaionaro-go/streamidrouter/types"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

// Reporter accepts diagnostic messages. Post must not block the data path.
type Reporter interface {
	Post(ctx context.Context, msg Message)
}

type ReporterFunc func(ctx context.Context, msg Message)

func (fn ReporterFunc) Post(ctx context.Context, msg Message) {
	fn(ctx, msg)
}

// Bus is a bounded queue of messages. When the queue is full, new messages
// are logged and dropped.
type Bus struct {
	*closuresignaler.ClosureSignaler
	locker  xsync.RWMutex
	ch      chan Message
	dropped atomic.Uint64
}

var (
	_ Reporter     = (*Bus)(nil)
	_ types.Closer = (*Bus)(nil)
)

func NewBus(size uint) *Bus {
	return &Bus{
		ClosureSignaler: closuresignaler.New(),
		ch:              make(chan Message, size),
	}
}

func (b *Bus) Post(ctx context.Context, msg Message) {
	logger.Debugf(ctx, "Post: %s", msg)
	b.locker.ManualRLock(ctx)
	defer b.locker.ManualRUnlock(ctx)
	if b.IsClosed() {
		b.dropped.Inc()
		return
	}
	select {
	case b.ch <- msg:
	default:
		b.dropped.Inc()
		logger.Errorf(ctx, "the bus queue is full, dropping message: %s", msg)
	}
}

// Messages returns the channel the messages are read from; it is closed on Close.
func (b *Bus) Messages() <-chan Message {
	return b.ch
}

func (b *Bus) DroppedCount() uint64 {
	return b.dropped.Load()
}

func (b *Bus) Close(ctx context.Context) error {
	b.locker.Do(ctx, func() {
		if b.ClosureSignaler.Close(ctx) {
			close(b.ch)
		}
	})
	return nil
}
