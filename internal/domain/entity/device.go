// Package entity contains the core business objects of the project.
package entity

import "time"

// UserDevice represents a registered device that can receive push
// notifications for a user.
type UserDevice struct {
	ID        string    `json:"id"`         // The document ID of the device.
	UserID    string    `json:"user_id"`    // The ID of the owning user.
	FCMToken  string    `json:"fcm_token"`  // The Firebase Cloud Messaging registration token.
	Platform  string    `json:"platform"`   // The device platform (ios, android, web).
	CreatedAt time.Time `json:"created_at"` // Timestamp of when the device was registered.
}
