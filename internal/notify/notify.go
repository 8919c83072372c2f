// Package notify publishes run-completed events to downstream systems.
// When no notify block is configured the Noop notifier stands in, so
// callers never branch on whether notification is enabled.
package notify

import "context"

// Notifier publishes run completion events.
type Notifier interface {
	// Publish sends one event. It must respect context cancellation.
	Publish(ctx context.Context, event *RunCompletedEvent) error

	// Close releases the underlying connection.
	Close() error
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(context.Context, *RunCompletedEvent) error { return nil }
func (Noop) Close() error                                      { return nil }
