package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	ferrors "git.home.luguber.info/inful/sitesync/internal/foundation/errors"
	"git.home.luguber.info/inful/sitesync/internal/logfields"
)

const connectName = "sitesync"

// NATSNotifier publishes run-completed events to a NATS subject.
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
}

// NewNATS connects to the given NATS URL. The connection is verified
// here; publish failures later in a run degrade to a logged warning at
// the call site rather than failing the run.
func NewNATS(url, subject string) (*NATSNotifier, error) {
	conn, err := nats.Connect(url,
		nats.Name(connectName),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNotify, "connect to nats").
			WithContext("url", url).Build()
	}

	slog.Info("Notifier connected",
		slog.String(logfields.URL, url),
		slog.String("subject", subject))
	return &NATSNotifier{conn: conn, subject: subject}, nil
}

// Publish implements Notifier. The event is flushed to the server before
// returning, so a completed run implies a delivered notification.
func (n *NATSNotifier) Publish(ctx context.Context, event *RunCompletedEvent) error {
	if event.EventType == "" {
		event.EventType = EventTypeRunCompleted
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.ChangedArtifacts == nil {
		event.ChangedArtifacts = []string{}
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNotify, "publish event").
			Warning().
			WithContext("subject", n.subject).Build()
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNotify, "flush").Warning().Build()
	}

	slog.Debug("Run notification published",
		slog.String(logfields.RunID, event.RunID),
		slog.String(logfields.Outcome, event.Outcome),
		slog.Int(logfields.Count, len(event.ChangedArtifacts)))
	return nil
}

// Close closes the connection after draining pending messages.
func (n *NATSNotifier) Close() error {
	if n.conn != nil && !n.conn.IsClosed() {
		n.conn.Close()
	}
	return nil
}
