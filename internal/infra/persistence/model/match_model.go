package model

import (
	"time"

	"sofialert/internal/domain/entity"
)

// MatchModel is the Firestore document for the 'notificationMatches'
// collection. The document ID is the deterministic (message, interest) pair
// key, which is what makes match creation idempotent.
type MatchModel struct {
	MessageID      string    `firestore:"messageId"`
	InterestID     string    `firestore:"interestId"`
	UserID         string    `firestore:"userId"`
	DistanceMeters float64   `firestore:"distanceMeters"`
	Notified       bool      `firestore:"notified"`
	CreatedAt      time.Time `firestore:"createdAt"`
}

// FromMatchDomain converts a domain match into its Firestore document.
func FromMatchDomain(match *entity.NotificationMatch) *MatchModel {
	return &MatchModel{
		MessageID:      match.MessageID,
		InterestID:     match.InterestID,
		UserID:         match.UserID,
		DistanceMeters: match.DistanceMeters,
		Notified:       match.Notified,
		CreatedAt:      match.CreatedAt,
	}
}

// ToMatchDomain converts a Firestore document into a domain match.
func (m *MatchModel) ToMatchDomain(id string) *entity.NotificationMatch {
	return &entity.NotificationMatch{
		ID:             id,
		MessageID:      m.MessageID,
		InterestID:     m.InterestID,
		UserID:         m.UserID,
		DistanceMeters: m.DistanceMeters,
		Notified:       m.Notified,
		CreatedAt:      m.CreatedAt,
	}
}
