package pad

import "fmt"

type ErrNotLinked struct {
	Pad *Pad
}

func (e ErrNotLinked) Error() string {
	return fmt.Sprintf("pad %s is not linked", e.Pad)
}

// ErrFlushing is returned when pushing into a pad that is not active.
type ErrFlushing struct {
	Pad *Pad
}

func (e ErrFlushing) Error() string {
	return fmt.Sprintf("pad %s is flushing (inactive)", e.Pad)
}

type ErrAlreadyLinked struct {
	Pad *Pad
}

func (e ErrAlreadyLinked) Error() string {
	return fmt.Sprintf("pad %s is already linked", e.Pad)
}

type ErrPeer struct {
	Pad *Pad
	Err error
}

func (e ErrPeer) Error() string {
	return fmt.Sprintf("the peer of pad %s returned an error: %v", e.Pad, e.Err)
}

func (e ErrPeer) Unwrap() error {
	return e.Err
}
