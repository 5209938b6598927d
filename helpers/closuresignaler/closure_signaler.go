// Package closuresignaler provides a close-once signal observable through
// a channel.
package closuresignaler

import (
	"context"
	"sync"

	"github.com/xaionaro-go/streamidrouter/logger"
)

type ClosureSignaler struct {
	closeOnce sync.Once
	c         chan struct{}
}

func New() *ClosureSignaler {
	return &ClosureSignaler{
		c: make(chan struct{}),
	}
}

func (c *ClosureSignaler) CloseChan() <-chan struct{} {
	return c.c
}

// Close closes the channel; it returns true only for the call that
// actually closed it.
func (c *ClosureSignaler) Close(ctx context.Context) bool {
	closed := false
	c.closeOnce.Do(func() {
		logger.Debugf(ctx, "closing")
		close(c.c)
		closed = true
	})
	return closed
}

func (c *ClosureSignaler) IsClosed() bool {
	select {
	case <-c.c:
		return true
	default:
		return false
	}
}
