// Package firestore contains the concrete implementation of the persistence
// layer on Cloud Firestore. Messages, interests, matches and devices live in
// top-level collections; single-document updates are the only atomicity the
// pipeline relies on.
package firestore

import (
	"context"
	"log/slog"

	"sofialert/config"
	"sofialert/internal/errors"

	"cloud.google.com/go/firestore"
	"go.uber.org/fx"
	"google.golang.org/api/option"
)

// Collection names.
const (
	messagesCollection  = "messages"
	interestsCollection = "interests"
	matchesCollection   = "notificationMatches"
	devicesCollection   = "userDevices"
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// New creates the Firestore client
func New(params Params) (*firestore.Client, error) {
	cfg := params.Config.Firestore
	if cfg == nil || cfg.ProjectID == "" {
		return nil, errors.New("firestore project ID is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}

	client, err := firestore.NewClient(params.Ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Firestore client")
	}

	params.Logger.Info("Firestore client initialized",
		slog.String("project_id", cfg.ProjectID))

	params.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})

	return client, nil
}
