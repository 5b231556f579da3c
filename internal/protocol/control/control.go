// Package control sends samd's single-frame control verbs.
package control

import (
	"context"

	"github.com/danmuck/samwise/internal/protocol/message"
)

const (
	ActionPing    = "ping"
	ActionStatus  = "status"
	ActionStop    = "stop"
	ActionRestart = "restart"
)

// Ping succeeds when samd answers; use it as a liveness probe before
// issuing other requests.
func Ping(ctx context.Context, sender message.Sender) error {
	return send(ctx, sender, ActionPing)
}

// Status asks samd to refresh its backend and metrics report.
func Status(ctx context.Context, sender message.Sender) error {
	return send(ctx, sender, ActionStatus)
}

// Stop asks samd to shut down.
func Stop(ctx context.Context, sender message.Sender) error {
	return send(ctx, sender, ActionStop)
}

// Restart asks samd to reload its configuration and backends.
func Restart(ctx context.Context, sender message.Sender) error {
	return send(ctx, sender, ActionRestart)
}

func send(ctx context.Context, sender message.Sender, action string) error {
	msg := message.New(sender)
	msg.AddString(action)
	return msg.Send(ctx)
}
