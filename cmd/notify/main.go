// The notify job runs one notification matching pass and exits. It backs the
// scheduled (cron-style) trigger; the worker covers the event-driven one.
package main

import (
	"context"
	"log/slog"
	"time"

	"sofialert/config"
	logs "sofialert/internal/infra/log"
	"sofialert/internal/infra/notification"
	persistence "sofialert/internal/infra/persistence/firestore"
	"sofialert/internal/usecase"
	"sofialert/internal/usecase/impl"

	"go.uber.org/fx"
)

const runTimeout = 10 * time.Minute

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		fx.Invoke(
			runOnce,
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

type runParams struct {
	fx.In
	fx.Lifecycle
	fx.Shutdowner

	Logger   *slog.Logger
	Matching usecase.MatchingUsecase
}

func runOnce(params runParams) {
	params.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
				defer cancel()

				summary, err := params.Matching.Run(ctx)
				if err != nil {
					params.Logger.Error("Matching run failed", slog.Any("error", err))
				} else {
					params.Logger.Info("Matching run completed",
						slog.Int("messages_scanned", summary.MessagesScanned),
						slog.Int("matches_created", summary.MatchesCreated),
						slog.Int("pushes_sent", summary.PushesSent),
						slog.Int("pushes_failed", summary.PushesFailed),
						slog.Int("failures", summary.Failures),
					)
				}

				if shutdownErr := params.Shutdown(); shutdownErr != nil {
					params.Logger.Error("Failed to shutdown gracefully", slog.Any("error", shutdownErr))
				}
			}()

			return nil
		},
	})
}
