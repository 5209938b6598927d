// Package query provides introspection queries (e.g. "which caps can you
// produce") that travel against the data flow and are answered by a peer.
package query

import (
	"fmt"
	"time"

	"github.com/xaionaro-go/streamidrouter/types"
)

type Kind int

const (
	KindUndefined = Kind(iota)
	KindCaps
	KindAcceptCaps
	KindPosition
	KindDuration
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindCaps:
		return "caps"
	case KindAcceptCaps:
		return "accept-caps"
	case KindPosition:
		return "position"
	case KindDuration:
		return "duration"
	case KindCustom:
		return "custom"
	default:
		return fmt.Sprintf("unknown-kind-%d", int(k))
	}
}

type Query struct {
	Kind Kind

	// StreamID selects which stream the query is about; queries without
	// it cannot be routed.
	StreamID types.StreamID

	// Filter is the caps constraint for KindCaps and the proposed caps for
	// KindAcceptCaps.
	Filter types.Caps

	// Name is set on KindCustom.
	Name string

	Answered bool
	Result   any
}

func NewCaps(streamID types.StreamID, filter types.Caps) *Query {
	return &Query{
		Kind:     KindCaps,
		StreamID: streamID,
		Filter:   filter,
	}
}

func NewAcceptCaps(streamID types.StreamID, caps types.Caps) *Query {
	return &Query{
		Kind:     KindAcceptCaps,
		StreamID: streamID,
		Filter:   caps,
	}
}

func NewPosition(streamID types.StreamID) *Query {
	return &Query{
		Kind:     KindPosition,
		StreamID: streamID,
	}
}

func NewDuration(streamID types.StreamID) *Query {
	return &Query{
		Kind:     KindDuration,
		StreamID: streamID,
	}
}

func (q *Query) SetResult(result any) {
	q.Result = result
	q.Answered = true
}

func (q *Query) ResultCaps() (types.Caps, bool) {
	caps, ok := q.Result.(types.Caps)
	return caps, ok && q.Answered
}

func (q *Query) ResultDuration() (time.Duration, bool) {
	d, ok := q.Result.(time.Duration)
	return d, ok && q.Answered
}

func (q *Query) ResultBool() (bool, bool) {
	v, ok := q.Result.(bool)
	return v, ok && q.Answered
}

func (q *Query) String() string {
	return fmt.Sprintf("Query(%s, stream:%s, answered:%t)", q.Kind, q.StreamID, q.Answered)
}
