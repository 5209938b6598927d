package scenario

import (
	"fmt"
)

type ErrInvalidStep struct {
	Index       int
	ActionCount int
}

func (e ErrInvalidStep) Error() string {
	return fmt.Sprintf("step #%d must have exactly one action, but has %d", e.Index, e.ActionCount)
}
