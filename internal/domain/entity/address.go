// Package entity contains the core business objects of the project.
package entity

import "github.com/paulmach/orb"

// Address is a candidate location produced by geocoding a message's text.
// A message may carry several addresses (a street spanning multiple house
// numbers); spatially isolated candidates are pruned before the set is frozen
// as the message's accepted footprint.
type Address struct {
	OriginalText     string  `json:"original_text"`     // The text fragment that was geocoded.
	FormattedAddress string  `json:"formatted_address"` // The display form returned by the geocoder.
	Latitude         float64 `json:"latitude"`          // The geographic latitude (WGS84).
	Longitude        float64 `json:"longitude"`         // The geographic longitude (WGS84).
}

// Point returns the address coordinates in GeoJSON order (lng, lat).
func (a Address) Point() orb.Point {
	return orb.Point{a.Longitude, a.Latitude}
}
