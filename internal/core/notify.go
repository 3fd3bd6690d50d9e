package core

import "context"

// Action is one inline button attached to a notification. Token is an opaque
// value routed back by the transport's callback handler.
type Action struct {
	Label string
	Token string
}

// Notifier delivers operator-facing messages. Actions, when present, are
// exactly two entries: confirm and skip.
type Notifier interface {
	Deliver(ctx context.Context, text string, actions []Action) error
}
