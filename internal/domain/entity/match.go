// Package entity contains the core business objects of the project.
package entity

import "time"

// NotificationMatch is the derived fact that a message footprint fell inside
// a user interest zone. Exactly one match exists per (message, interest)
// pair; the pair also acts as the idempotency key guarding against duplicate
// push dispatch when a run is interrupted and retried.
type NotificationMatch struct {
	ID             string    `json:"id"`              // Deterministic document ID derived from the pair.
	MessageID      string    `json:"message_id"`      // The matched message.
	InterestID     string    `json:"interest_id"`     // The interest zone that matched.
	UserID         string    `json:"user_id"`         // The owner of the interest zone.
	DistanceMeters float64   `json:"distance_meters"` // Great-circle distance between footprint and zone center.
	Notified       bool      `json:"notified"`        // Set after a successful push dispatch, never reverted.
	CreatedAt      time.Time `json:"created_at"`
}

// MatchID builds the deterministic document ID for a (message, interest)
// pair. Creating the match under this ID makes re-recording the same pair a
// no-op at the store level.
func MatchID(messageID, interestID string) string {
	return messageID + "_" + interestID
}

// NewNotificationMatch builds an unnotified match for a (message, interest)
// pair under its deterministic ID.
func NewNotificationMatch(messageID, interestID, userID string, distanceMeters float64) *NotificationMatch {
	return &NotificationMatch{
		ID:             MatchID(messageID, interestID),
		MessageID:      messageID,
		InterestID:     interestID,
		UserID:         userID,
		DistanceMeters: distanceMeters,
		CreatedAt:      time.Now(),
	}
}
