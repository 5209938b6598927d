package sink

type ErrFlushing struct{}

func (ErrFlushing) Error() string {
	return "the queue is flushing"
}

type ErrClosed struct{}

func (ErrClosed) Error() string {
	return "the queue is closed"
}
