package pad

import (
	"context"
	"fmt"
)

// Factory makes new pads with a given name out of a template.
type Factory interface {
	NewPad(ctx context.Context, name string, tmpl *Template) (*Pad, error)
}

type FactoryFunc func(ctx context.Context, name string, tmpl *Template) (*Pad, error)

func (fn FactoryFunc) NewPad(ctx context.Context, name string, tmpl *Template) (*Pad, error) {
	return fn(ctx, name, tmpl)
}

var DefaultFactory Factory = FactoryFunc(func(
	ctx context.Context,
	name string,
	tmpl *Template,
) (*Pad, error) {
	if tmpl == nil {
		return nil, fmt.Errorf("no template provided for pad '%s'", name)
	}
	return New(name, tmpl.Direction, tmpl), nil
})
