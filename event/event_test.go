package event

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/streamidrouter/types"
)

func TestKindStickiness(t *testing.T) {
	for _, kind := range []Kind{KindStreamStart, KindCaps, KindSegment, KindTag, KindEOS, KindCustomSticky} {
		require.True(t, kind.IsSticky(), kind.String())
		require.GreaterOrEqual(t, kind.StickyRank(), 0, kind.String())
	}
	for _, kind := range []Kind{KindGap, KindFlushStart, KindFlushStop, KindCustom} {
		require.False(t, kind.IsSticky(), kind.String())
		require.Equal(t, -1, kind.StickyRank(), kind.String())
	}
	require.Less(t, KindStreamStart.StickyRank(), KindCaps.StickyRank())
	require.Less(t, KindCaps.StickyRank(), KindSegment.StickyRank())
	require.False(t, KindFlushStart.IsSerialized())
	require.True(t, KindFlushStop.IsSerialized())
}

func TestParseKind(t *testing.T) {
	for k := KindUndefined + 1; k < endOfKind; k++ {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		require.Equal(t, k, parsed)
	}
	_, err := ParseKind("bogus")
	require.Error(t, err)
}

func TestCloneDoesNotAlias(t *testing.T) {
	orig := NewCaps(types.NewCaps("audio/x-opus", map[string]string{"channels": "2"}))
	clone := orig.Clone()
	clone.Caps.Params["channels"] = "6"
	require.Equal(t, "2", orig.Caps.Params["channels"])
	require.Equal(t, orig.Seqnum, clone.Seqnum)

	custom := NewCustom("meta", []byte{1, 2, 3}, true)
	customClone := custom.Clone()
	customClone.Payload[0] = 42
	require.Equal(t, byte(1), custom.Payload[0])
}

func TestStickyKey(t *testing.T) {
	require.Equal(t, StickyKey{Kind: KindCaps}, NewCaps(types.CapsAny).StickyKey())
	a := NewCustom("a", nil, true).StickyKey()
	b := NewCustom("b", nil, true).StickyKey()
	require.NotEqual(t, a, b)
	require.Equal(t, StickyKey{Kind: KindCustom}, NewCustom("a", nil, false).StickyKey())
}

func TestSeqnumsAreUnique(t *testing.T) {
	a := NewStreamStart("A")
	b := NewStreamStart("A")
	require.NotEqual(t, a.Seqnum, b.Seqnum)
	require.Equal(t, "stream-start(A)", a.String())
}
