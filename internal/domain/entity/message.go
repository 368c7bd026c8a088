// Package entity contains the core business objects of the project.
package entity

import (
	"time"

	"github.com/paulmach/orb/geojson"
)

// Message is a disruption notice flowing through the ingestion and
// notification pipeline. It is created from a crawled source, enriched with
// geocoded addresses and a GeoJSON footprint, finalized, and finally matched
// against user interest zones.
type Message struct {
	ID           string                     `json:"id"`            // The document ID of the message.
	Text         string                     `json:"text"`          // The raw notice text as crawled from the source.
	Source       string                     `json:"source"`        // The identifier of the crawler/source that produced the message.
	SourceURL    string                     `json:"source_url"`    // Optional URL of the original publication.
	Categories   []string                   `json:"categories"`    // Normalized disruption categories (e.g. "water", "electricity").
	AddressTexts []string                   `json:"address_texts"` // Raw address expressions extracted from the notice, geocoded during enrichment.
	Addresses    []Address                  `json:"addresses"`     // Accepted geocoded addresses after outlier filtering.
	GeoJSON      *geojson.FeatureCollection `json:"geo_json"`      // Boundary-filtered footprint; nil when nothing was geocoded inside the region.
	DateText     string                     `json:"date_text"`     // The raw date expression extracted from the notice, if any.
	CrawledAt    time.Time                  `json:"crawled_at"`    // Timestamp of when the source was crawled.
	CreatedAt    time.Time                  `json:"created_at"`    // Timestamp of when this record was created.

	// FinalizedAt is set once enrichment has completed. Only finalized
	// messages are eligible for notification matching.
	FinalizedAt *time.Time `json:"finalized_at"`

	// NotificationsSent is a one-way flag: once true the message is never
	// matched again, which bounds notification processing to at most one run
	// per message.
	NotificationsSent bool `json:"notifications_sent"`
}

// Finalized reports whether the message has completed enrichment.
func (m *Message) Finalized() bool {
	return m.FinalizedAt != nil
}
