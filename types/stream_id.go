// stream_id.go defines the StreamID type.

package types

// StreamID is an opaque identifier of a logical stream, announced by
// an upstream producer on a stream-start event. It is used only as a
// lookup key and is never mutated.
type StreamID string

func (id StreamID) IsZero() bool {
	return id == ""
}

func (id StreamID) String() string {
	if id.IsZero() {
		return "<none>"
	}
	return string(id)
}
