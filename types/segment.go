// segment.go defines Segment, the timing boundary carried by segment events.

package types

import (
	"fmt"
	"time"
)

type Segment struct {
	Start    time.Duration `yaml:"start"`
	Stop     time.Duration `yaml:"stop"`
	Position time.Duration `yaml:"position"`
	Rate     float64       `yaml:"rate"`
}

func NewSegment() Segment {
	return Segment{
		Stop: -1,
		Rate: 1,
	}
}

// HasStop returns false for open-ended segments.
func (s Segment) HasStop() bool {
	return s.Stop >= 0
}

func (s Segment) String() string {
	stop := "none"
	if s.HasStop() {
		stop = s.Stop.String()
	}
	return fmt.Sprintf("Segment(start:%s, stop:%s, pos:%s, rate:%g)", s.Start, stop, s.Position, s.Rate)
}
