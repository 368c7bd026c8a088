package geocoding

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"sofialert/config"
	"sofialert/internal/domain/entity"
	"sofialert/internal/domain/service"
	"sofialert/internal/errors"
)

const (
	retryBaseDelay = 500 * time.Millisecond
	maxRetries     = 2
)

// chainGeocoder tries a list of Overpass endpoints in order. Each endpoint
// gets a bounded exponential-backoff retry budget before the chain falls
// through to the next one; query-level failures abort the whole chain.
type chainGeocoder struct {
	clients []*OverpassClient
	logger  *slog.Logger
}

// NewChain creates the geocoding fallback chain from configuration.
func NewChain(cfg *config.GeocodingConfig, logger *slog.Logger) (service.Geocoder, error) {
	if cfg == nil || len(cfg.Endpoints) == 0 {
		return nil, errors.New("no geocoding endpoints configured")
	}

	clients := make([]*OverpassClient, 0, len(cfg.Endpoints))
	for _, endpoint := range cfg.Endpoints {
		clients = append(clients, NewOverpassClient(endpoint, cfg.Timeout, logger))
	}

	return &chainGeocoder{clients: clients, logger: logger}, nil
}

func (g *chainGeocoder) Geocode(ctx context.Context, query string) ([]entity.Address, error) {
	var lastErr error
	for _, client := range g.clients {
		results, err := g.geocodeWithRetry(ctx, client, query)
		if err == nil {
			return results, nil
		}
		lastErr = err

		if !ShouldTryFallback(err) {
			return nil, err
		}

		g.logger.Warn("geocoding endpoint failed, falling back",
			slog.String("endpoint", client.Endpoint()),
			slog.Any("error", err))
	}

	return nil, errors.Wrap(lastErr, "all geocoding endpoints failed")
}

func (g *chainGeocoder) geocodeWithRetry(ctx context.Context, client *OverpassClient, query string) ([]entity.Address, error) {
	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(retryBaseDelay))

	var results []entity.Address
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		found, err := client.Geocode(ctx, query)
		if err != nil {
			if ShouldTryFallback(err) {
				return retry.RetryableError(err)
			}

			return err
		}
		results = found

		return nil
	})
	if err != nil {
		return nil, err
	}

	return results, nil
}
