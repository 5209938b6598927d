package router

import (
	"fmt"

	"github.com/xaionaro-go/streamidrouter/event"
	"github.com/xaionaro-go/streamidrouter/types"
)

type ErrAlreadyClosed struct{}

func (ErrAlreadyClosed) Error() string {
	return "is already closed"
}

// ErrNoStreamID is returned for a stream-start event without an identifier.
type ErrNoStreamID struct {
	Event event.Event
}

func (e ErrNoStreamID) Error() string {
	return fmt.Sprintf("event %s has no stream identifier", e.Event)
}

// ErrNotRouted is returned for an event which requires an active pad while
// there is none (e.g. it arrived before any stream-start).
type ErrNotRouted struct {
	Event event.Event
}

func (e ErrNotRouted) Error() string {
	return fmt.Sprintf("no active pad to route event %s to", e.Event)
}

// ErrPadCreation is returned when a pad for a new stream could not be made.
type ErrPadCreation struct {
	StreamID types.StreamID
	Err      error
}

func (e ErrPadCreation) Error() string {
	return fmt.Sprintf("unable to create a pad for stream '%s': %v", e.StreamID, e.Err)
}

func (e ErrPadCreation) Unwrap() error {
	return e.Err
}
