package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountersToStats(t *testing.T) {
	c := NewCounters()
	c.Buffers.Received.Increment(10)
	c.Buffers.Received.Increment(5)
	c.Buffers.Sent.Increment(10)
	c.Buffers.Dropped.Increment(5)
	c.Events.Sent.Increment(0)

	stats := c.ToStats()
	require.Equal(t, StatisticsItem{Count: 2, Bytes: 15}, stats.Buffers.Received)
	require.Equal(t, StatisticsItem{Count: 1, Bytes: 10}, stats.Buffers.Sent)
	require.Equal(t, StatisticsItem{Count: 1, Bytes: 5}, stats.Buffers.Dropped)
	require.Equal(t, StatisticsItem{Count: 1}, stats.Events.Sent)

	restored := stats.Buffers.ToCounters()
	require.Equal(t, stats.Buffers, restored.ToStats())
}

func TestCapsSubset(t *testing.T) {
	h264 := NewCaps("video/x-h264", map[string]string{"stream-format": "avc", "alignment": "au"})
	require.True(t, CapsAny.IsSubsetOf(h264))
	require.True(t, NewCaps("video/x-h264", nil).IsSubsetOf(h264))
	require.False(t, NewCaps("video/x-h265", nil).IsSubsetOf(h264))
	require.False(t, NewCaps("", map[string]string{"alignment": "nal"}).IsSubsetOf(h264))
	require.Equal(t, "video/x-h264, alignment=au, stream-format=avc", h264.String())

	cloned := h264.Clone()
	cloned.Params["alignment"] = "nal"
	require.Equal(t, "au", h264.Params["alignment"])
	require.False(t, cloned.Equal(h264))
}
