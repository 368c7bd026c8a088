package config

import (
	"strings"
	"testing"
)

func TestCanonicalizeEnvKey_UsesExistingCamelCaseKeys(t *testing.T) {
	existing := map[string]any{
		"firestore": map[string]any{
			"projectId":       "",
			"credentialsPath": "",
		},
		"pubsub": map[string]any{
			"topicId": "",
		},
		"matching": map[string]any{
			"maxRadiusMeters": 0,
		},
	}

	tests := []struct {
		envKey string
		want   string
	}{
		{envKey: "FIRESTORE_PROJECTID", want: "firestore.projectId"},
		{envKey: "FIRESTORE_CREDENTIALSPATH", want: "firestore.credentialsPath"},
		{envKey: "PUBSUB_TOPICID", want: "pubsub.topicId"},
		{envKey: "MATCHING_MAXRADIUSMETERS", want: "matching.maxRadiusMeters"},
		{envKey: "NEW_FEATURE_FLAG", want: "new.feature.flag"},
	}

	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			if got := canonicalizeEnvKey(tt.envKey, existing); got != tt.want {
				t.Fatalf("canonicalizeEnvKey(%q) = %q, want %q", tt.envKey, got, tt.want)
			}
		})
	}
}

func TestConfigValidate_ReportsAllMissingKeys(t *testing.T) {
	cfg := &Config{}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for empty config")
	}

	for _, key := range []string{"firestore.projectId", "firebase.credentialsPath", "ingest.boundariesPath"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not mention %q", err.Error(), key)
		}
	}
}

func TestConfigValidate_PassesWithRequiredKeys(t *testing.T) {
	cfg := &Config{
		Firestore: &FirestoreConfig{ProjectID: "demo"},
		Firebase:  &FirebaseConfig{CredentialsPath: "/secrets/fcm.json"},
		Ingest:    &IngestConfig{BoundariesPath: "/data/boundaries.geojson"},
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
