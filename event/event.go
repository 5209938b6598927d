// event.go defines Event, a control message travelling along the data flow.

// Package event provides the control events (stream-start, caps, segment,
// flush, EOS, ...) that travel through pads alongside data buffers.
package event

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/xaionaro-go/streamidrouter/types"
)

var lastSeqnum atomic.Uint64

// NextSeqnum returns a process-wide unique sequence number.
func NextSeqnum() uint64 {
	return lastSeqnum.Add(1)
}

type Event struct {
	Kind Kind

	// Seqnum identifies the event; clones keep the seqnum of the original.
	Seqnum uint64

	// StreamID is set on KindStreamStart.
	StreamID types.StreamID

	// Caps is set on KindCaps.
	Caps types.Caps

	// Segment is set on KindSegment.
	Segment types.Segment

	// Tags is set on KindTag.
	Tags map[string]string

	// Name is set on KindCustom and KindCustomSticky.
	Name    string
	Payload []byte
}

func newEvent(kind Kind) Event {
	return Event{
		Kind:   kind,
		Seqnum: NextSeqnum(),
	}
}

func NewStreamStart(streamID types.StreamID) Event {
	ev := newEvent(KindStreamStart)
	ev.StreamID = streamID
	return ev
}

func NewCaps(caps types.Caps) Event {
	ev := newEvent(KindCaps)
	ev.Caps = caps
	return ev
}

func NewSegment(segment types.Segment) Event {
	ev := newEvent(KindSegment)
	ev.Segment = segment
	return ev
}

func NewTag(tags map[string]string) Event {
	ev := newEvent(KindTag)
	ev.Tags = tags
	return ev
}

func NewGap() Event {
	return newEvent(KindGap)
}

func NewEOS() Event {
	return newEvent(KindEOS)
}

func NewFlushStart() Event {
	return newEvent(KindFlushStart)
}

func NewFlushStop() Event {
	return newEvent(KindFlushStop)
}

func NewCustom(name string, payload []byte, sticky bool) Event {
	kind := KindCustom
	if sticky {
		kind = KindCustomSticky
	}
	ev := newEvent(kind)
	ev.Name = name
	ev.Payload = payload
	return ev
}

func (ev Event) IsSticky() bool {
	return ev.Kind.IsSticky()
}

// StickyKey identifies the slot a sticky event occupies on a pad:
// a newer event with the same key supersedes the older one.
type StickyKey struct {
	Kind Kind
	Name string
}

func (ev Event) StickyKey() StickyKey {
	key := StickyKey{Kind: ev.Kind}
	if ev.Kind == KindCustomSticky {
		key.Name = ev.Name
	}
	return key
}

// Clone returns a deep copy, so that an event may be pushed to multiple
// pads without any of them aliasing the original's maps or payload.
func (ev Event) Clone() Event {
	ev.Caps = ev.Caps.Clone()
	ev.Tags = maps.Clone(ev.Tags)
	ev.Payload = slices.Clone(ev.Payload)
	return ev
}

func (ev Event) String() string {
	switch ev.Kind {
	case KindStreamStart:
		return fmt.Sprintf("stream-start(%s)", ev.StreamID)
	case KindCaps:
		return fmt.Sprintf("caps(%s)", ev.Caps)
	case KindSegment:
		return ev.Segment.String()
	case KindTag:
		keys := slices.Sorted(maps.Keys(ev.Tags))
		var parts []string
		for _, k := range keys {
			parts = append(parts, k+"="+ev.Tags[k])
		}
		return fmt.Sprintf("tag(%s)", strings.Join(parts, ","))
	case KindCustom, KindCustomSticky:
		return fmt.Sprintf("%s(%s, %d bytes)", ev.Kind, ev.Name, len(ev.Payload))
	default:
		return ev.Kind.String()
	}
}
