// Package internal contains helpers shared by the packages of this module
// and not meant for outside use.
package internal

import (
	"context"

	"github.com/facebookincubator/go-belt/tool/logger"
)

// Assert panics (through the logger, so the context fields are reported)
// if an invariant of the module itself is broken.
func Assert(
	ctx context.Context,
	mustBeTrue bool,
	extraArgs ...any,
) {
	if mustBeTrue {
		return
	}

	logger.Panic(ctx, "assertion failed", extraArgs)
}
