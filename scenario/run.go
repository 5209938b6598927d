package scenario

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/streamidrouter/element"
	"github.com/xaionaro-go/streamidrouter/event"
	"github.com/xaionaro-go/streamidrouter/logger"
	"github.com/xaionaro-go/streamidrouter/pad"
	"github.com/xaionaro-go/streamidrouter/query"
	"github.com/xaionaro-go/streamidrouter/router"
	"github.com/xaionaro-go/streamidrouter/sink"
	"github.com/xaionaro-go/streamidrouter/types"
	"github.com/xaionaro-go/typing"
	"github.com/xaionaro-go/xsync"
)

// PadResult is what a single output pad delivered during a run.
type PadResult struct {
	Name     string
	StreamID types.StreamID
	Buffers  []string
	Events   []event.Kind
	Caps     typing.Optional[types.Caps]
	EOS      bool
	Removed  bool
	Stats    types.Statistics
}

type Report struct {
	Scenario string
	Pads     []*PadResult
	Stats    types.Statistics
	Messages []element.Message
}

// Pad returns the result of the last pad with the name (names are reused
// after a reset).
func (r *Report) Pad(name string) *PadResult {
	for idx := len(r.Pads) - 1; idx >= 0; idx-- {
		if r.Pads[idx].Name == name {
			return r.Pads[idx]
		}
	}
	return nil
}

type recordedPad struct {
	Pad       *pad.Pad
	Collector *sink.Collector
	Removed   bool
}

// Recorder links a sink.Collector to every pad the router adds.
type Recorder struct {
	locker xsync.Mutex
	pads   []*recordedPad
}

var _ router.Observer = (*Recorder)(nil)

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (rec *Recorder) OnPadAdded(ctx context.Context, _ *router.Router, p *pad.Pad) {
	c := sink.NewCollector(p.Name)
	if err := p.Link(ctx, c); err != nil {
		logger.Errorf(ctx, "unable to link %s to a collector: %v", p, err)
	}
	rec.locker.Do(ctx, func() {
		rec.pads = append(rec.pads, &recordedPad{
			Pad:       p.Ref(),
			Collector: c,
		})
	})
}

func (rec *Recorder) OnPadRemoved(ctx context.Context, _ *router.Router, p *pad.Pad) {
	rec.locker.Do(ctx, func() {
		for _, item := range rec.pads {
			if item.Pad == p {
				item.Removed = true
			}
		}
	})
}

// Results returns what every pad seen so far received, in creation order.
func (rec *Recorder) Results(ctx context.Context) []*PadResult {
	return xsync.DoR1(ctx, &rec.locker, func() []*PadResult {
		result := make([]*PadResult, 0, len(rec.pads))
		for _, item := range rec.pads {
			padResult := &PadResult{
				Name:     item.Pad.Name,
				StreamID: item.Pad.StreamID,
				EOS:      item.Collector.GotEOS(ctx),
				Removed:  item.Removed,
				Stats:    item.Pad.GetStats(),
			}
			for _, buf := range item.Collector.Buffers(ctx) {
				padResult.Buffers = append(padResult.Buffers, string(buf.Payload))
			}
			for _, ev := range item.Collector.Events(ctx) {
				padResult.Events = append(padResult.Events, ev.Kind)
			}
			q := query.NewCaps(item.Pad.StreamID, types.CapsAny)
			if item.Collector.Query(ctx, q) {
				if caps, ok := q.ResultCaps(); ok {
					padResult.Caps.Set(caps)
				}
			}
			result = append(result, padResult)
		}
		return result
	})
}

// Release drops the references the recorder holds on the pads.
func (rec *Recorder) Release(ctx context.Context) {
	rec.locker.Do(ctx, func() {
		for _, item := range rec.pads {
			item.Pad.Unref(ctx)
		}
	})
}

// Run replays the scenario through a new router built with the scenario's
// options followed by opts.
func (s *Scenario) Run(
	ctx context.Context,
	opts ...router.Option,
) (_ret *Report, _err error) {
	logger.Debugf(ctx, "Run(%s)", s.Name)
	defer func() { logger.Debugf(ctx, "/Run(%s): %v", s.Name, _err) }()

	bus := element.NewBus(1024)
	defer bus.Close(ctx)
	rec := NewRecorder()
	defer rec.Release(ctx)

	allOpts := append(s.RouterOptions(), router.OptionReporter(bus), router.OptionObserver(rec))
	r := router.New(ctx, append(allOpts, opts...)...)
	if err := s.RunOn(ctx, r); err != nil {
		return nil, err
	}

	report := NewReport(ctx, s.Name, r, rec, bus)
	if err := r.Close(ctx); err != nil {
		return nil, fmt.Errorf("unable to close the router: %w", err)
	}
	return report, nil
}

// NewReport collects the results of a run; messages are drained from
// the bus without blocking.
func NewReport(
	ctx context.Context,
	name string,
	r *router.Router,
	rec *Recorder,
	bus *element.Bus,
) *Report {
	report := &Report{
		Scenario: name,
		Pads:     rec.Results(ctx),
		Stats:    r.GetStats(),
	}
	for drained := false; !drained; {
		select {
		case msg, ok := <-bus.Messages():
			if !ok {
				drained = true
				continue
			}
			report.Messages = append(report.Messages, msg)
		default:
			drained = true
		}
	}
	logger.Infof(ctx, "scenario '%s': %d pads, %d messages", name, len(report.Pads), len(report.Messages))
	return report
}

// RunOn feeds the scenario steps into an existing router. Reset steps are
// performed as a PAUSED->READY->PAUSED round trip.
func (s *Scenario) RunOn(
	ctx context.Context,
	r *router.Router,
) error {
	var items []pad.Item
	for idx, step := range s.Steps {
		if !step.Reset {
			items = append(items, step.Items()...)
			continue
		}
		if err := feed(ctx, r, items); err != nil {
			return fmt.Errorf("unable to feed the items before step #%d: %w", idx, err)
		}
		items = items[:0:0]
		for _, change := range []element.StateChange{
			element.StateChangePausedToReady,
			element.StateChangeReadyToPaused,
		} {
			if err := r.ChangeState(ctx, change); err != nil {
				return fmt.Errorf("unable to change the state (%s) at step #%d: %w", change, idx, err)
			}
		}
	}
	if err := feed(ctx, r, items); err != nil {
		return fmt.Errorf("unable to feed the items: %w", err)
	}
	return nil
}

func feed(
	ctx context.Context,
	r *router.Router,
	items []pad.Item,
) error {
	ctx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()
	ch := make(chan pad.Item)
	observability.Go(ctx, func(ctx context.Context) {
		defer close(ch)
		for _, item := range items {
			select {
			case <-ctx.Done():
				return
			case ch <- item:
			}
		}
	})
	return r.Serve(ctx, ch)
}
