// replay.go implements replaying sticky state from one pad to another.

package sticky

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/streamidrouter/event"
	"github.com/xaionaro-go/streamidrouter/logger"
)

type ForEacher interface {
	ForEachSticky(ctx context.Context, callback func(event.Event) bool)
}

type EventPusher interface {
	PushEvent(ctx context.Context, ev event.Event) error
}

// Replay pushes a copy of every sticky event in effect on `from` to `to`,
// in the order they were established. `from` is left intact, so it may be
// replayed again to other destinations later.
func Replay(
	ctx context.Context,
	from ForEacher,
	to EventPusher,
) (_err error) {
	logger.Tracef(ctx, "Replay")
	defer func() { logger.Tracef(ctx, "/Replay: %v", _err) }()
	from.ForEachSticky(ctx, func(ev event.Event) bool {
		if err := to.PushEvent(ctx, ev); err != nil {
			_err = fmt.Errorf("unable to replay %s: %w", ev, err)
			return false
		}
		return true
	})
	return
}
