// Package sink provides in-process consumers to link output pads to.
package sink

import (
	"context"
	"slices"
	"time"

	"github.com/xaionaro-go/streamidrouter/buffer"
	"github.com/xaionaro-go/streamidrouter/event"
	"github.com/xaionaro-go/streamidrouter/pad"
	"github.com/xaionaro-go/streamidrouter/query"
	"github.com/xaionaro-go/streamidrouter/types"
	"github.com/xaionaro-go/typing"
	"github.com/xaionaro-go/xsync"
)

// Collector records everything it receives, in the order of arrival.
type Collector struct {
	Name string

	locker   xsync.Mutex
	items    []pad.Item
	caps     typing.Optional[types.Caps]
	position typing.Optional[time.Duration]
	eos      bool
}

var _ pad.Peer = (*Collector)(nil)

func NewCollector(name string) *Collector {
	return &Collector{Name: name}
}

func (c *Collector) Chain(ctx context.Context, buf *buffer.Buffer) error {
	c.locker.Do(ctx, func() {
		c.items = append(c.items, pad.ItemBuffer(buf))
		if buf.PTS >= 0 {
			c.position.Set(buf.PTS)
		}
	})
	return nil
}

func (c *Collector) Event(ctx context.Context, ev event.Event) error {
	c.locker.Do(ctx, func() {
		c.items = append(c.items, pad.ItemEvent(ev))
		switch ev.Kind {
		case event.KindCaps:
			c.caps.Set(ev.Caps)
		case event.KindEOS:
			c.eos = true
		case event.KindStreamStart, event.KindFlushStop:
			c.eos = false
		}
	})
	return nil
}

// Query answers caps, accept-caps and position queries from what was
// received so far.
func (c *Collector) Query(ctx context.Context, q *query.Query) bool {
	return xsync.DoR1(ctx, &c.locker, func() bool {
		switch q.Kind {
		case query.KindCaps:
			if !c.caps.IsSet() || !q.Filter.IsSubsetOf(c.caps.Get()) {
				return false
			}
			q.SetResult(c.caps.Get())
			return true
		case query.KindAcceptCaps:
			q.SetResult(!c.caps.IsSet() || c.caps.Get().IsSubsetOf(q.Filter))
			return true
		case query.KindPosition:
			if !c.position.IsSet() {
				return false
			}
			q.SetResult(c.position.Get())
			return true
		}
		return false
	})
}

func (c *Collector) Items(ctx context.Context) []pad.Item {
	return xsync.DoR1(ctx, &c.locker, func() []pad.Item {
		return slices.Clone(c.items)
	})
}

func (c *Collector) Buffers(ctx context.Context) []*buffer.Buffer {
	var result []*buffer.Buffer
	for _, item := range c.Items(ctx) {
		if item.Buffer != nil {
			result = append(result, item.Buffer)
		}
	}
	return result
}

func (c *Collector) Events(ctx context.Context) []event.Event {
	var result []event.Event
	for _, item := range c.Items(ctx) {
		if item.Event != nil {
			result = append(result, *item.Event)
		}
	}
	return result
}

func (c *Collector) GotEOS(ctx context.Context) bool {
	return xsync.DoR1(ctx, &c.locker, func() bool {
		return c.eos
	})
}

func (c *Collector) String() string {
	return "Collector(" + c.Name + ")"
}
