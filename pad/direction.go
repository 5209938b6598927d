package pad

import (
	"fmt"

	"github.com/xaionaro-go/streamidrouter/types"
)

type Direction int

const (
	DirectionUnknown = Direction(iota)
	DirectionSrc
	DirectionSink
)

func (d Direction) String() string {
	switch d {
	case DirectionUnknown:
		return "unknown"
	case DirectionSrc:
		return "src"
	case DirectionSink:
		return "sink"
	default:
		return fmt.Sprintf("unknown-direction-%d", int(d))
	}
}

// Template describes a family of pads an element may create on request:
// their naming, direction and the caps they may carry.
type Template struct {
	NamePrefix string
	Direction  Direction
	Caps       types.Caps
}

func NewSrcTemplate(namePrefix string, caps types.Caps) *Template {
	return &Template{
		NamePrefix: namePrefix,
		Direction:  DirectionSrc,
		Caps:       caps,
	}
}

// PadName returns the name of the idx-th pad of this template: "<prefix>_<idx>".
func (t *Template) PadName(idx uint64) string {
	return fmt.Sprintf("%s_%d", t.NamePrefix, idx)
}

// Accepts returns true if the caps are compatible with the template caps.
func (t *Template) Accepts(caps types.Caps) bool {
	return t.Caps.IsSubsetOf(caps)
}
