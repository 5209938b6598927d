// Package metrics exposes the counters of a router and of its output pads
// as Prometheus metrics.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xaionaro-go/streamidrouter/pad"
	"github.com/xaionaro-go/streamidrouter/types"
)

const namespace = "streamidrouter"

// StatsSource is implemented by *router.Router.
type StatsSource interface {
	GetStats() types.Statistics
	GetPads(ctx context.Context) []*pad.Pad
}

type Collector struct {
	Source StatsSource

	routerBuffers *prometheus.Desc
	routerBytes   *prometheus.Desc
	routerEvents  *prometheus.Desc
	padBuffers    *prometheus.Desc
	padBytes      *prometheus.Desc
	padEvents     *prometheus.Desc
	pads          *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

func NewCollector(routerName string, source StatsSource) *Collector {
	constLabels := prometheus.Labels{"router": routerName}
	newDesc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", name),
			help, labels, constLabels,
		)
	}
	return &Collector{
		Source:        source,
		routerBuffers: newDesc("buffers_total", "Buffers seen on the router input.", "direction"),
		routerBytes:   newDesc("bytes_total", "Payload bytes seen on the router input.", "direction"),
		routerEvents:  newDesc("events_total", "Events seen on the router input.", "direction"),
		padBuffers:    newDesc("pad_buffers_total", "Buffers pushed through an output pad.", "pad", "stream_id", "direction"),
		padBytes:      newDesc("pad_bytes_total", "Payload bytes pushed through an output pad.", "pad", "stream_id", "direction"),
		padEvents:     newDesc("pad_events_total", "Events pushed through an output pad.", "pad", "stream_id", "direction"),
		pads:          newDesc("pads", "Output pads currently exposed."),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.routerBuffers
	ch <- c.routerBytes
	ch <- c.routerEvents
	ch <- c.padBuffers
	ch <- c.padBytes
	ch <- c.padEvents
	ch <- c.pads
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx := context.TODO()
	stats := c.Source.GetStats()
	collectSection(ch, c.routerBuffers, stats.Buffers, count)
	collectSection(ch, c.routerBytes, stats.Buffers, bytes)
	collectSection(ch, c.routerEvents, stats.Events, count)

	pads := c.Source.GetPads(ctx)
	for _, p := range pads {
		padStats := p.GetStats()
		labels := []string{p.Name, string(p.StreamID)}
		collectSection(ch, c.padBuffers, padStats.Buffers, count, labels...)
		collectSection(ch, c.padBytes, padStats.Buffers, bytes, labels...)
		collectSection(ch, c.padEvents, padStats.Events, count, labels...)
	}
	ch <- prometheus.MustNewConstMetric(c.pads, prometheus.GaugeValue, float64(len(pads)))
}

func count(item types.StatisticsItem) float64 {
	return float64(item.Count)
}

func bytes(item types.StatisticsItem) float64 {
	return float64(item.Bytes)
}

func collectSection(
	ch chan<- prometheus.Metric,
	desc *prometheus.Desc,
	section types.StatisticsSection,
	value func(types.StatisticsItem) float64,
	labels ...string,
) {
	for _, dir := range []struct {
		Name string
		Item types.StatisticsItem
	}{
		{"received", section.Received},
		{"sent", section.Sent},
		{"dropped", section.Dropped},
	} {
		ch <- prometheus.MustNewConstMetric(
			desc, prometheus.CounterValue, value(dir.Item),
			append(labels[:len(labels):len(labels)], dir.Name)...,
		)
	}
}

// Register adds a collector of the source to the registerer.
func Register(
	registerer prometheus.Registerer,
	routerName string,
	source StatsSource,
) (*Collector, error) {
	c := NewCollector(routerName, source)
	if err := registerer.Register(c); err != nil {
		return nil, fmt.Errorf("unable to register the metrics of router '%s': %w", routerName, err)
	}
	return c, nil
}
