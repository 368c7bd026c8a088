package model

import (
	"time"

	"sofialert/internal/domain/entity"
)

// UserDeviceModel is the Firestore document for the 'userDevices' collection.
type UserDeviceModel struct {
	UserID    string    `firestore:"userId"`
	FCMToken  string    `firestore:"fcmToken"`
	Platform  string    `firestore:"platform,omitempty"`
	CreatedAt time.Time `firestore:"createdAt"`
}

// ToDeviceDomain converts a Firestore document into a domain device.
func (m *UserDeviceModel) ToDeviceDomain(id string) *entity.UserDevice {
	return &entity.UserDevice{
		ID:        id,
		UserID:    m.UserID,
		FCMToken:  m.FCMToken,
		Platform:  m.Platform,
		CreatedAt: m.CreatedAt,
	}
}
