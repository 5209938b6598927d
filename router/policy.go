package router

import (
	"fmt"
	"strings"
)

// Policy defines what happens to pads of streams which are no longer active.
type Policy int

const (
	// PolicyRetainAll keeps a pad per stream identifier ever seen, until reset.
	PolicyRetainAll = Policy(iota)

	// PolicySingleActiveSlot keeps only the pad of the current stream: when
	// a new stream identifier appears the previous pad is retired (EOS,
	// deactivated, removed) and a new one takes its place.
	PolicySingleActiveSlot
)

func (p Policy) String() string {
	switch p {
	case PolicyRetainAll:
		return "retain-all"
	case PolicySingleActiveSlot:
		return "single-active-slot"
	default:
		return fmt.Sprintf("unknown-policy-%d", int(p))
	}
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "retain-all":
		return PolicyRetainAll, nil
	case "single-active-slot":
		return PolicySingleActiveSlot, nil
	}
	return PolicyRetainAll, fmt.Errorf("unknown policy '%s'", s)
}

func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Policy) UnmarshalText(b []byte) error {
	v, err := ParsePolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
