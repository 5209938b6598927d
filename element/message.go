package element

import (
	"fmt"
)

type MessageType int

const (
	MessageTypeUndefined = MessageType(iota)
	MessageTypeInfo
	MessageTypeWarning
	MessageTypeError
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeUndefined:
		return "undefined"
	case MessageTypeInfo:
		return "info"
	case MessageTypeWarning:
		return "warning"
	case MessageTypeError:
		return "error"
	default:
		return fmt.Sprintf("unknown-message-type-%d", int(t))
	}
}

// Message is a diagnostic record visible to the owner of the pipeline.
type Message struct {
	Type   MessageType
	Source string
	Err    error
	Text   string
}

func (m Message) String() string {
	if m.Err != nil {
		return fmt.Sprintf("%s from %s: %s: %v", m.Type, m.Source, m.Text, m.Err)
	}
	return fmt.Sprintf("%s from %s: %s", m.Type, m.Source, m.Text)
}
