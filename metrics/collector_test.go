package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/streamidrouter/buffer"
	"github.com/xaionaro-go/streamidrouter/event"
	"github.com/xaionaro-go/streamidrouter/pad"
	"github.com/xaionaro-go/streamidrouter/router"
	"github.com/xaionaro-go/streamidrouter/sink"
)

func TestCollector(t *testing.T) {
	ctx := context.Background()
	r := router.New(ctx, router.OptionObserver(router.ObserverFuncs{
		PadAdded: func(ctx context.Context, _ *router.Router, p *pad.Pad) {
			require.NoError(t, p.Link(ctx, sink.NewCollector(p.Name)))
		},
	}))
	require.NoError(t, r.Event(ctx, event.NewStreamStart("A")))
	require.NoError(t, r.Chain(ctx, buffer.New([]byte("abc"))))
	require.NoError(t, r.Event(ctx, event.NewStreamStart("B")))
	require.NoError(t, r.Chain(ctx, buffer.New([]byte("de"))))

	registry := prometheus.NewRegistry()
	_, err := Register(registry, "test", r)
	require.NoError(t, err)
	_, err = Register(registry, "test", r)
	require.Error(t, err)

	families, err := registry.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, family := range families {
		for _, m := range family.GetMetric() {
			key := family.GetName()
			for _, label := range m.GetLabel() {
				if label.GetName() == "router" {
					continue
				}
				key += "," + label.GetValue()
			}
			switch {
			case m.GetCounter() != nil:
				values[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[key] = m.GetGauge().GetValue()
			}
		}
	}

	require.Equal(t, 2.0, values["streamidrouter_pads"])
	require.Equal(t, 2.0, values["streamidrouter_buffers_total,sent"])
	require.Equal(t, 5.0, values["streamidrouter_bytes_total,received"])
	require.Equal(t, 3.0, values["streamidrouter_pad_bytes_total,received,src_0,A"])
	require.Equal(t, 1.0, values["streamidrouter_pad_buffers_total,sent,src_1,B"])
}
