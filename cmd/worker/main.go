// The worker serves the Pub/Sub push endpoint that triggers notification
// matching runs.
package main

import (
	"context"
	"log/slog"
	"os"

	"sofialert/config"
	"sofialert/internal/delivery"
	"sofialert/internal/delivery/worker"
	"sofialert/internal/delivery/worker/handler"
	logs "sofialert/internal/infra/log"
	"sofialert/internal/infra/notification"
	persistence "sofialert/internal/infra/persistence/firestore"
	"sofialert/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle
	fx.Shutdowner

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectHandler(),
		injectDelivery(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		func(cfg *config.Config) *config.FirebaseConfig { return cfg.Firebase },
		func(cfg *config.Config) *config.MatchingConfig { return cfg.Matching },
		logs.New,
		context.Background,
		persistence.New,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			persistence.NewMessageRepository,
			persistence.NewInterestRepository,
			persistence.NewMatchRepository,
			persistence.NewDeviceRepository,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			notification.NewFirebaseService,
			impl.NewMatchingService,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewPushHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				worker.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))

				// Trigger graceful shutdown to execute all OnStop hooks
				if shutdownErr := params.Shutdown(); shutdownErr != nil {
					slog.Error("Failed to shutdown gracefully", slog.Any("error", shutdownErr))
					os.Exit(1)
				}
			}
		}()
	}
}
