package sink

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/streamidrouter/buffer"
	"github.com/xaionaro-go/streamidrouter/event"
	"github.com/xaionaro-go/streamidrouter/query"
	"github.com/xaionaro-go/streamidrouter/types"
)

func TestQueueBackpressure(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(1)
	require.NoError(t, q.Chain(ctx, buffer.New([]byte("1"))))

	pushed := make(chan error, 1)
	go func() {
		pushed <- q.Chain(ctx, buffer.New([]byte("2")))
	}()

	select {
	case err := <-pushed:
		t.Fatalf("the push was supposed to block, but returned %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	item := <-q.ItemsChan()
	require.Equal(t, "1", string(item.Buffer.Payload))
	require.NoError(t, <-pushed)
	item = <-q.ItemsChan()
	require.Equal(t, "2", string(item.Buffer.Payload))
}

func TestQueueFlushUnblocks(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(1)
	require.NoError(t, q.Chain(ctx, buffer.New(nil)))

	pushed := make(chan error, 1)
	go func() {
		pushed <- q.Chain(ctx, buffer.New(nil))
	}()
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, q.Event(ctx, event.NewFlushStart()))
	require.ErrorAs(t, <-pushed, &ErrFlushing{})
	require.ErrorAs(t, q.Chain(ctx, buffer.New(nil)), &ErrFlushing{})
	require.Zero(t, q.Len())

	require.NoError(t, q.Event(ctx, event.NewFlushStop()))
	item := <-q.ItemsChan()
	require.Equal(t, event.KindFlushStop, item.Event.Kind)
	require.NoError(t, q.Chain(ctx, buffer.New(nil)))
}

func TestQueueContextCancel(t *testing.T) {
	q := NewQueue(0)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, q.Chain(ctx, buffer.New(nil)), context.DeadlineExceeded)
}

func TestQueueClose(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(0)
	require.NoError(t, q.Close(ctx))
	require.ErrorAs(t, q.Chain(ctx, buffer.New(nil)), &ErrClosed{})
}

func TestQueueQuery(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(4)
	q.AcceptCaps = types.NewCaps("video/x-h264", nil)

	capsQuery := query.NewCaps("A", types.CapsAny)
	require.False(t, q.Query(ctx, capsQuery))
	require.NoError(t, q.Event(ctx, event.NewCaps(types.NewCaps("video/x-h264", map[string]string{"profile": "main"}))))
	require.True(t, q.Query(ctx, capsQuery))
	caps, ok := capsQuery.ResultCaps()
	require.True(t, ok)
	require.Equal(t, "main", caps.Params["profile"])

	accept := query.NewAcceptCaps("A", types.NewCaps("video/x-h265", nil))
	require.True(t, q.Query(ctx, accept))
	v, ok := accept.ResultBool()
	require.True(t, ok)
	require.False(t, v)
}
