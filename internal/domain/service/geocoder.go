package service

import (
	"context"

	"sofialert/internal/domain/entity"
)

// Geocoder resolves free text into zero or more candidate addresses.
// Implementations report failures through errors that the caller can
// classify as retryable or not; the pipeline treats geocoding as optional
// enrichment and never fails a message because of it.
type Geocoder interface {
	Geocode(ctx context.Context, query string) ([]entity.Address, error)
}
