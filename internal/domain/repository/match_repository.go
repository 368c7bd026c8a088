// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"

	"sofialert/internal/domain/entity"
	"sofialert/internal/errors"
)

// ErrMatchNotFound is returned when a notification match is not found.
var ErrMatchNotFound = errors.New("notification match not found")

// MatchRepository defines the interface for notification match documents.
type MatchRepository interface {
	// FindMatch retrieves the match for a (message, interest) pair, or
	// ErrMatchNotFound when the pair has not been recorded.
	FindMatch(ctx context.Context, messageID, interestID string) (*entity.NotificationMatch, error)

	// CreateMatch persists a new notification match under its deterministic
	// pair ID.
	CreateMatch(ctx context.Context, match *entity.NotificationMatch) error

	// MarkMatchNotified sets the notified flag after a successful dispatch.
	MarkMatchNotified(ctx context.Context, id string) error

	// FindMatchesByMessage retrieves all matches recorded for a message.
	FindMatchesByMessage(ctx context.Context, messageID string) ([]*entity.NotificationMatch, error)
}
