package types

import (
	"go.uber.org/atomic"
)

type StatisticsItem struct {
	Count uint64 `json:",omitempty"`
	Bytes uint64 `json:",omitempty"`
}

func (c StatisticsItem) ToCounters() *CountersItem {
	result := CountersItem{}
	result.Count.Store(c.Count)
	result.Bytes.Store(c.Bytes)
	return &result
}

type StatisticsSection struct {
	Received StatisticsItem
	Sent     StatisticsItem
	Dropped  StatisticsItem
}

// Statistics is a point-in-time snapshot of Counters.
type Statistics struct {
	Buffers StatisticsSection
	Events  StatisticsSection
}

type CountersItem struct {
	Count atomic.Uint64
	Bytes atomic.Uint64
}

func NewCountersItem() *CountersItem {
	return &CountersItem{}
}

func (c *CountersItem) Increment(msgSize uint64) {
	c.Count.Add(1)
	c.Bytes.Add(msgSize)
}

func (c *CountersItem) ToStats() StatisticsItem {
	return StatisticsItem{
		Count: c.Count.Load(),
		Bytes: c.Bytes.Load(),
	}
}

type CountersSection struct {
	Received *CountersItem
	Sent     *CountersItem
	Dropped  *CountersItem
}

func NewCountersSection() CountersSection {
	return CountersSection{
		Received: NewCountersItem(),
		Sent:     NewCountersItem(),
		Dropped:  NewCountersItem(),
	}
}

func (s *CountersSection) ToStats() StatisticsSection {
	return StatisticsSection{
		Received: s.Received.ToStats(),
		Sent:     s.Sent.ToStats(),
		Dropped:  s.Dropped.ToStats(),
	}
}

// Counters are live, concurrently updated traffic counters of a pad or router.
type Counters struct {
	Buffers CountersSection
	Events  CountersSection
}

func NewCounters() *Counters {
	return &Counters{
		Buffers: NewCountersSection(),
		Events:  NewCountersSection(),
	}
}

func (c *Counters) ToStats() Statistics {
	return Statistics{
		Buffers: c.Buffers.ToStats(),
		Events:  c.Events.ToStats(),
	}
}

func (s StatisticsSection) ToCounters() CountersSection {
	return CountersSection{
		Received: s.Received.ToCounters(),
		Sent:     s.Sent.ToCounters(),
		Dropped:  s.Dropped.ToCounters(),
	}
}
