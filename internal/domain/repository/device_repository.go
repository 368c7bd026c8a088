// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"

	"sofialert/internal/domain/entity"
)

// DeviceRepository defines the interface for registered push devices.
type DeviceRepository interface {
	// FindDevicesByUser retrieves all devices registered for a user.
	FindDevicesByUser(ctx context.Context, userID string) ([]*entity.UserDevice, error)

	// DeleteDevice removes a device whose token was rejected as invalid.
	DeleteDevice(ctx context.Context, id string) error
}
