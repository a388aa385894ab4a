package notify

import "context"

// Notifier delivers short user-facing messages about watched bookings.
type Notifier interface {
	Notify(ctx context.Context, msg string) error
}

// Nop discards every message. Used when no notifier is configured.
type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }
