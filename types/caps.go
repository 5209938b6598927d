// caps.go defines Caps, the media format description carried by caps events.

package types

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Caps describes the format of the data flowing through a pad,
// e.g. "video/x-h264" with {"stream-format": "avc"}.
type Caps struct {
	MediaType string            `yaml:"media_type" json:",omitempty"`
	Params    map[string]string `yaml:"params,omitempty" json:",omitempty"`
}

func NewCaps(mediaType string, params map[string]string) Caps {
	return Caps{
		MediaType: mediaType,
		Params:    params,
	}
}

// CapsAny is the empty caps, accepting anything.
var CapsAny = Caps{}

func (c Caps) IsEmpty() bool {
	return c.MediaType == "" && len(c.Params) == 0
}

func (c Caps) Clone() Caps {
	return Caps{
		MediaType: c.MediaType,
		Params:    maps.Clone(c.Params),
	}
}

func (c Caps) Equal(other Caps) bool {
	return c.MediaType == other.MediaType && maps.Equal(c.Params, other.Params)
}

// IsSubsetOf returns true if every field of c is fixed to the same value
// in other; an empty c is a subset of anything.
func (c Caps) IsSubsetOf(other Caps) bool {
	if c.MediaType != "" && c.MediaType != other.MediaType {
		return false
	}
	for k, v := range c.Params {
		if other.Params[k] != v {
			return false
		}
	}
	return true
}

func (c Caps) String() string {
	if c.IsEmpty() {
		return "ANY"
	}
	keys := slices.Sorted(maps.Keys(c.Params))
	var parts []string
	parts = append(parts, c.MediaType)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, c.Params[k]))
	}
	return strings.Join(parts, ", ")
}
