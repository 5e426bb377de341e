// Package notify pushes human-readable status lines to an operator channel.
// Delivery is best-effort: nothing here ever reports a failure to the caller.
package notify

import "go.uber.org/zap"

// Notifier sends a status line without blocking
type Notifier interface {
	Send(text string)
}

// Nop drops every message
type Nop struct{}

func (Nop) Send(string) {}

// Log writes messages to a logger, used when no chat channel is configured
type Log struct {
	Logger *zap.Logger
}

func (l Log) Send(text string) {
	l.Logger.Info("notification", zap.String("text", text))
}
