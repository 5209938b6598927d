// kind.go defines the Kind of a control event and its sticky classification.

package event

import (
	"fmt"
)

type Kind int

const (
	KindUndefined = Kind(iota)
	KindStreamStart
	KindCaps
	KindSegment
	KindTag
	KindGap
	KindEOS
	KindFlushStart
	KindFlushStop
	KindCustom
	KindCustomSticky
	endOfKind
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindStreamStart:
		return "stream-start"
	case KindCaps:
		return "caps"
	case KindSegment:
		return "segment"
	case KindTag:
		return "tag"
	case KindGap:
		return "gap"
	case KindEOS:
		return "eos"
	case KindFlushStart:
		return "flush-start"
	case KindFlushStop:
		return "flush-stop"
	case KindCustom:
		return "custom"
	case KindCustomSticky:
		return "custom-sticky"
	default:
		return fmt.Sprintf("unknown-kind-%d", int(k))
	}
}

func ParseKind(s string) (Kind, error) {
	for k := KindUndefined + 1; k < endOfKind; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return KindUndefined, fmt.Errorf("unknown event kind '%s'", s)
}

// IsSticky returns true for events describing persistent state, which stays
// in effect on a pad until superseded and must be replayed to late consumers.
func (k Kind) IsSticky() bool {
	switch k {
	case KindStreamStart, KindCaps, KindSegment, KindTag, KindEOS, KindCustomSticky:
		return true
	}
	return false
}

// IsSerialized returns false for out-of-band events, which overtake
// the data flow (flush-start).
func (k Kind) IsSerialized() bool {
	return k != KindFlushStart
}

// StickyRank defines the order in which sticky events are established on
// a well-formed flow, and thus the order they are replayed in.
func (k Kind) StickyRank() int {
	switch k {
	case KindStreamStart:
		return 0
	case KindCaps:
		return 1
	case KindSegment:
		return 2
	case KindTag:
		return 3
	case KindCustomSticky:
		return 4
	case KindEOS:
		return 5
	}
	return -1
}
