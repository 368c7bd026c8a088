// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"

	"github.com/paulmach/orb/geojson"

	"sofialert/internal/domain/entity"
	"sofialert/internal/errors"
)

// Domain-specific errors for message persistence.
var (
	// ErrMessageNotFound is returned when a message is not found.
	ErrMessageNotFound = errors.New("message not found")
)

// MessageRepository defines the interface for message document operations.
// The backing store is a document database: single-document updates are
// atomic, multi-document transactions are not assumed.
type MessageRepository interface {
	// CreateMessage persists a new incoming message and returns its ID.
	CreateMessage(ctx context.Context, message *entity.Message) (string, error)

	// FindMessageByID retrieves a message by its document ID.
	FindMessageByID(ctx context.Context, id string) (*entity.Message, error)

	// FindUnnotifiedMessages retrieves finalized messages whose
	// notificationsSent flag is not yet set.
	FindUnnotifiedMessages(ctx context.Context) ([]*entity.Message, error)

	// FindUnfinalizedMessages retrieves messages still awaiting enrichment.
	FindUnfinalizedMessages(ctx context.Context) ([]*entity.Message, error)

	// FinalizeMessage stores the enrichment results and stamps finalizedAt in
	// one document update.
	FinalizeMessage(ctx context.Context, id string, addresses []entity.Address, footprint *geojson.FeatureCollection, categories []string) error

	// MarkNotificationsSent flips the one-way notificationsSent flag.
	MarkNotificationsSent(ctx context.Context, id string) error
}

// AggregationRepository maintains the rolled-up category list under a fixed
// document ID, independent of per-message update boundaries.
type AggregationRepository interface {
	// MergeCategories unions the given categories into the aggregation
	// document. The operation is an idempotent upsert.
	MergeCategories(ctx context.Context, categories []string) error
}
