// Package entity contains the core business objects of the project.
package entity

import (
	"time"

	"github.com/paulmach/orb"
)

// Interest represents a user-owned circular zone of geographic relevance.
// Interests are created through the user-facing API and are read-only from
// the pipeline's perspective; records failing validation are skipped, never
// fatal.
type Interest struct {
	ID           string    `json:"id"`            // The document ID of the interest.
	UserID       string    `json:"user_id"`       // The ID of the owning user.
	Label        string    `json:"label"`         // Optional user-defined label, e.g. "Home".
	Color        string    `json:"color"`         // Optional display color for the web map.
	Latitude     float64   `json:"latitude" validate:"latitude"`
	Longitude    float64   `json:"longitude" validate:"longitude"`
	RadiusMeters float64   `json:"radius_meters" validate:"gte=100,lte=5000"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Point returns the zone center in GeoJSON order (lng, lat).
func (i *Interest) Point() orb.Point {
	return orb.Point{i.Longitude, i.Latitude}
}
