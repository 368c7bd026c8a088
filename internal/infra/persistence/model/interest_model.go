package model

import (
	"time"

	"sofialert/internal/domain/entity"
)

// InterestModel is the Firestore document for the 'interests' collection.
type InterestModel struct {
	UserID       string    `firestore:"userId"`
	Label        string    `firestore:"label,omitempty"`
	Color        string    `firestore:"color,omitempty"`
	Latitude     float64   `firestore:"lat"`
	Longitude    float64   `firestore:"lng"`
	RadiusMeters float64   `firestore:"radius"`
	CreatedAt    time.Time `firestore:"createdAt"`
	UpdatedAt    time.Time `firestore:"updatedAt"`
}

// ToInterestDomain converts a Firestore document into a domain interest.
func (m *InterestModel) ToInterestDomain(id string) *entity.Interest {
	return &entity.Interest{
		ID:           id,
		UserID:       m.UserID,
		Label:        m.Label,
		Color:        m.Color,
		Latitude:     m.Latitude,
		Longitude:    m.Longitude,
		RadiusMeters: m.RadiusMeters,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
