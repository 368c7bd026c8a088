// The ingest job stores crawled disruption notices and enriches every
// message still awaiting finalization, then exits. Crawlers hand their
// output over as a JSON file of incoming messages.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"time"

	"sofialert/config"
	"sofialert/internal/errors"
	"sofialert/internal/geo"
	"sofialert/internal/infra/geocoding"
	logs "sofialert/internal/infra/log"
	persistence "sofialert/internal/infra/persistence/firestore"
	"sofialert/internal/infra/pubsub"
	"sofialert/internal/usecase"
	"sofialert/internal/usecase/impl"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/fx"
)

const runTimeout = 15 * time.Minute

func main() {
	inputPath := flag.String("input", "", "path to a JSON array of incoming messages, '-' for stdin")
	flag.Parse()

	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		fx.Supply(inputFile(*inputPath)),
		fx.Invoke(
			runOnce,
		),
	).Run()
}

// inputFile carries the optional crawl output location through fx.
type inputFile string

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		func(cfg *config.Config) *config.IngestConfig { return cfg.Ingest },
		func(cfg *config.Config) *config.GeocodingConfig { return cfg.Geocoding },
		logs.New,
		context.Background,
		persistence.New,
		newBoundary,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			persistence.NewMessageRepository,
			persistence.NewAggregationRepository,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		pubsub.Module,
		fx.Provide(
			geocoding.NewChain,
			impl.NewIngestService,
		),
	)
}

func newBoundary(cfg *config.Config, logger *slog.Logger) (*geojson.FeatureCollection, error) {
	if cfg.Ingest == nil || cfg.Ingest.BoundariesPath == "" {
		logger.Warn("No boundaries configured, boundary gate disabled")

		return nil, nil
	}

	boundary, err := geo.LoadBoundary(cfg.Ingest.BoundariesPath)
	if err != nil {
		return nil, err
	}

	logger.Info("Boundary loaded",
		slog.String("path", cfg.Ingest.BoundariesPath),
		slog.Int("features", len(boundary.Features)))

	return boundary, nil
}

type runParams struct {
	fx.In
	fx.Lifecycle
	fx.Shutdowner

	Logger *slog.Logger
	Ingest usecase.IngestUsecase
	Input  inputFile
}

func runOnce(params runParams) {
	params.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
				defer cancel()

				if err := run(ctx, params); err != nil {
					params.Logger.Error("Ingest run failed", slog.Any("error", err))
				}

				if shutdownErr := params.Shutdown(); shutdownErr != nil {
					params.Logger.Error("Failed to shutdown gracefully", slog.Any("error", shutdownErr))
				}
			}()

			return nil
		},
	})
}

func run(ctx context.Context, params runParams) error {
	if params.Input != "" {
		stored, skipped, err := storeInputMessages(ctx, params.Ingest, string(params.Input))
		if err != nil {
			return err
		}
		params.Logger.Info("Incoming messages stored",
			slog.Int("stored", stored),
			slog.Int("skipped", skipped),
		)
	}

	processed, err := params.Ingest.EnrichPending(ctx)
	if err != nil {
		return err
	}
	params.Logger.Info("Enrichment completed", slog.Int("processed", processed))

	return nil
}

func storeInputMessages(ctx context.Context, ingest usecase.IngestUsecase, path string) (stored, skipped int, err error) {
	inputs, err := readInputMessages(path)
	if err != nil {
		return 0, 0, err
	}

	for i := range inputs {
		_, err := ingest.StoreIncomingMessage(ctx, &inputs[i])
		switch {
		case errors.Is(err, usecase.ErrMessageNotRelevant):
			skipped++
		case err != nil:
			return stored, skipped, err
		default:
			stored++
		}
	}

	return stored, skipped, nil
}

func readInputMessages(path string) ([]usecase.IncomingMessageInput, error) {
	var reader io.Reader = os.Stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "open input file %s", path)
		}
		defer file.Close()
		reader = file
	}

	var inputs []usecase.IncomingMessageInput
	if err := json.NewDecoder(reader).Decode(&inputs); err != nil {
		return nil, errors.Wrap(err, "decode incoming messages")
	}

	return inputs, nil
}
