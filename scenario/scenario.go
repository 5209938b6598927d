// Package scenario describes sequences of input items (stream-starts,
// buffers, control events, resets) in YAML and replays them through a
// router, recording what every output pad received.
package scenario

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/xaionaro-go/streamidrouter/buffer"
	"github.com/xaionaro-go/streamidrouter/event"
	"github.com/xaionaro-go/streamidrouter/pad"
	"github.com/xaionaro-go/streamidrouter/router"
	"github.com/xaionaro-go/streamidrouter/types"
	"gopkg.in/yaml.v3"
)

type Scenario struct {
	Name      string        `yaml:"name"`
	Policy    router.Policy `yaml:"policy"`
	PadPrefix string        `yaml:"pad_prefix,omitempty"`
	Steps     []Step        `yaml:"steps"`
}

// Step is a single input action; exactly one field is set.
type Step struct {
	Start   *types.StreamID   `yaml:"start,omitempty"`
	Buffer  *BufferStep       `yaml:"buffer,omitempty"`
	Caps    *types.Caps       `yaml:"caps,omitempty"`
	Segment *SegmentStep      `yaml:"segment,omitempty"`
	Tag     map[string]string `yaml:"tag,omitempty"`
	Gap     bool              `yaml:"gap,omitempty"`
	EOS     bool              `yaml:"eos,omitempty"`
	Flush   bool              `yaml:"flush,omitempty"`
	Reset   bool              `yaml:"reset,omitempty"`
}

type BufferStep struct {
	Payload string         `yaml:"payload"`
	PTS     *time.Duration `yaml:"pts,omitempty"`
}

type SegmentStep struct {
	Start time.Duration  `yaml:"start"`
	Stop  *time.Duration `yaml:"stop,omitempty"`
	Rate  float64        `yaml:"rate,omitempty"`
}

func (s SegmentStep) Segment() types.Segment {
	segment := types.NewSegment()
	segment.Start = s.Start
	segment.Position = s.Start
	if s.Stop != nil {
		segment.Stop = *s.Stop
	}
	if s.Rate != 0 {
		segment.Rate = s.Rate
	}
	return segment
}

func (s Step) actionCount() int {
	count := 0
	for _, isSet := range []bool{
		s.Start != nil,
		s.Buffer != nil,
		s.Caps != nil,
		s.Segment != nil,
		s.Tag != nil,
		s.Gap,
		s.EOS,
		s.Flush,
		s.Reset,
	} {
		if isSet {
			count++
		}
	}
	return count
}

// Items converts the step into the items it feeds into the router;
// a flush is a flush-start followed by a flush-stop. Reset steps have
// no items.
func (s Step) Items() []pad.Item {
	switch {
	case s.Start != nil:
		return []pad.Item{pad.ItemEvent(event.NewStreamStart(*s.Start))}
	case s.Buffer != nil:
		buf := buffer.New([]byte(s.Buffer.Payload))
		if s.Buffer.PTS != nil {
			buf.PTS = *s.Buffer.PTS
		}
		return []pad.Item{pad.ItemBuffer(buf)}
	case s.Caps != nil:
		return []pad.Item{pad.ItemEvent(event.NewCaps(*s.Caps))}
	case s.Segment != nil:
		return []pad.Item{pad.ItemEvent(event.NewSegment(s.Segment.Segment()))}
	case s.Tag != nil:
		return []pad.Item{pad.ItemEvent(event.NewTag(s.Tag))}
	case s.Gap:
		return []pad.Item{pad.ItemEvent(event.NewGap())}
	case s.EOS:
		return []pad.Item{pad.ItemEvent(event.NewEOS())}
	case s.Flush:
		return []pad.Item{
			pad.ItemEvent(event.NewFlushStart()),
			pad.ItemEvent(event.NewFlushStop()),
		}
	}
	return nil
}

func (s *Scenario) Validate() error {
	for idx, step := range s.Steps {
		if step.actionCount() != 1 {
			return ErrInvalidStep{Index: idx, ActionCount: step.actionCount()}
		}
	}
	return nil
}

// Load parses and validates a scenario.
func Load(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("unable to decode the scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario '%s': %w", s.Name, err)
	}
	return &s, nil
}

func LoadFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open '%s': %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// RouterOptions returns the router options the scenario asks for.
func (s *Scenario) RouterOptions() router.Options {
	opts := router.Options{router.OptionPolicy(s.Policy)}
	if s.Name != "" {
		opts = append(opts, router.OptionName(s.Name))
	}
	if s.PadPrefix != "" {
		opts = append(opts, router.OptionPadNamePrefix(s.PadPrefix))
	}
	return opts
}
