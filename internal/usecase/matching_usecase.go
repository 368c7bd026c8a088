package usecase

import "context"

// MatchRunSummary reports what a single matching pass did.
type MatchRunSummary struct {
	MessagesScanned int `json:"messages_scanned"` // Unnotified messages picked up by the run.
	MessagesMatched int `json:"messages_matched"` // Messages that produced at least one match.
	MatchesCreated  int `json:"matches_created"`  // New (message, interest) matches recorded.
	PushesSent      int `json:"pushes_sent"`      // Device tokens successfully delivered to.
	PushesFailed    int `json:"pushes_failed"`    // Device tokens that failed delivery.
	Failures        int `json:"failures"`         // Messages whose processing errored.
}

// MatchingUsecase defines the notification matching pipeline.
type MatchingUsecase interface {
	// Run executes one matching pass: every finalized message whose
	// notifications have not been sent is matched against all interest zones
	// and the resulting pushes are dispatched. Safe to invoke concurrently
	// with itself only at the cost of duplicate work, not duplicate pushes.
	Run(ctx context.Context) (*MatchRunSummary, error)
}
