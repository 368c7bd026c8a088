package usecase

import (
	"context"
	"encoding/json"
	"time"

	"sofialert/internal/errors"
)

// ErrMessageNotRelevant is returned when an incoming message carries a
// parseable date range that does not cover today, so storing it would only
// produce stale notifications.
var ErrMessageNotRelevant = errors.New("message date range not relevant")

// IncomingMessageInput is a crawled disruption notice before persistence.
type IncomingMessageInput struct {
	Text         string    `json:"text" validate:"required"`
	Source       string    `json:"source" validate:"required"`
	SourceURL    string    `json:"source_url"`
	Categories   any       `json:"categories"`
	AddressTexts []string  `json:"address_texts"`
	DateText     string    `json:"date_text"`
	CrawledAt    time.Time `json:"crawled_at"`

	// GeoJSON is an optional footprint produced by the crawler itself, as a
	// raw FeatureCollection. Used during enrichment when no address text
	// geocodes successfully.
	GeoJSON json.RawMessage `json:"geo_json,omitempty"`
}

// IngestUsecase defines message ingestion and enrichment.
type IngestUsecase interface {
	// StoreIncomingMessage validates and persists a crawled message, applying
	// the date relevance gate. Returns the new document ID, or
	// ErrMessageNotRelevant when the gate rejects it.
	StoreIncomingMessage(ctx context.Context, input *IncomingMessageInput) (string, error)

	// EnrichMessage geocodes a stored message, filters the results and
	// finalizes the document. Idempotent for already finalized messages.
	EnrichMessage(ctx context.Context, id string) error

	// EnrichPending enriches every message still awaiting finalization and
	// returns how many were processed.
	EnrichPending(ctx context.Context) (int, error)
}
