// Package buffer provides Buffer, the unit of data flowing through pads.
package buffer

import (
	"fmt"
	"slices"
	"time"
)

type Flags uint32

const (
	FlagDiscont = Flags(1 << iota)
	FlagDeltaUnit
	FlagHeader
	FlagGap
	FlagDroppable
)

func (f Flags) Has(flag Flags) bool {
	return f&flag == flag
}

type Buffer struct {
	PTS      time.Duration
	DTS      time.Duration
	Duration time.Duration
	Offset   uint64
	Flags    Flags
	Payload  []byte
}

func New(payload []byte) *Buffer {
	return &Buffer{
		PTS:     -1,
		DTS:     -1,
		Payload: payload,
	}
}

func (b *Buffer) Size() uint64 {
	if b == nil {
		return 0
	}
	return uint64(len(b.Payload))
}

func (b *Buffer) Clone() *Buffer {
	if b == nil {
		return nil
	}
	cpy := *b
	cpy.Payload = slices.Clone(b.Payload)
	return &cpy
}

func (b *Buffer) String() string {
	if b == nil {
		return "Buffer(nil)"
	}
	return fmt.Sprintf("Buffer(pts:%s, dts:%s, size:%d, flags:0x%x)", b.PTS, b.DTS, len(b.Payload), uint32(b.Flags))
}
