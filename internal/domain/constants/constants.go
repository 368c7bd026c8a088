// Package constants holds shared environment and provider identifiers.
package constants

const (
	// EnvDevelop is the development environment name.
	EnvDevelop = "develop"

	// PubSubProviderLocal selects the local HTTP publisher for development.
	PubSubProviderLocal = "local"

	// PubSubProviderGoogle selects Google Cloud Pub/Sub.
	PubSubProviderGoogle = "google"
)
