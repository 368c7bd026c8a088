package service

import "context"

// MatchRunEvent asks the worker to run the notification matching pipeline.
// Published after message finalization so pushes go out without waiting for
// the next scheduled batch.
type MatchRunEvent struct {
	// Reason describes what triggered the run (e.g. "message-finalized",
	// "manual").
	Reason string `json:"reason"`

	// MessageID optionally names the message that triggered the run. The run
	// itself always scans all unnotified messages.
	MessageID string `json:"message_id,omitempty"`

	// RequestID propagates the originating request for tracing.
	RequestID string `json:"request_id,omitempty"`
}

// EventPublisher publishes match-run events to the configured transport.
type EventPublisher interface {
	PublishMatchRunEvent(ctx context.Context, event *MatchRunEvent) error
	Close() error
}
