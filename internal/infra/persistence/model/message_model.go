// Package model contains the Firestore-specific document structs for the
// persistence layer, kept separate from the domain entities so wire concerns
// (field names, footprint serialization) stay out of the domain.
package model

import (
	"time"

	"github.com/paulmach/orb/geojson"

	"sofialert/internal/domain/entity"
	"sofialert/internal/errors"
)

// MessageModel is the Firestore document for the 'messages' collection. The
// GeoJSON footprint is stored as a JSON string: Firestore has no native
// geometry type and a string roundtrips the FeatureCollection losslessly.
type MessageModel struct {
	Text         string         `firestore:"text"`
	Source       string         `firestore:"source"`
	SourceURL    string         `firestore:"sourceUrl,omitempty"`
	Categories   []string       `firestore:"categories"`
	AddressTexts []string       `firestore:"addressTexts"`
	Addresses    []AddressModel `firestore:"addresses"`
	GeoJSON      string         `firestore:"geoJson,omitempty"`
	DateText     string         `firestore:"dateText,omitempty"`
	CrawledAt    time.Time      `firestore:"crawledAt"`
	CreatedAt    time.Time      `firestore:"createdAt"`

	// FinalizedAt is written as null until enrichment completes so pending
	// messages stay queryable with an equality filter.
	FinalizedAt *time.Time `firestore:"finalizedAt"`

	NotificationsSent bool `firestore:"notificationsSent"`
}

// AddressModel is the embedded document for one accepted geocoded address.
type AddressModel struct {
	OriginalText     string  `firestore:"originalText"`
	FormattedAddress string  `firestore:"formattedAddress"`
	Latitude         float64 `firestore:"lat"`
	Longitude        float64 `firestore:"lng"`
}

// FromMessageDomain converts a domain message into its Firestore document.
func FromMessageDomain(message *entity.Message) (*MessageModel, error) {
	model := &MessageModel{
		Text:              message.Text,
		Source:            message.Source,
		SourceURL:         message.SourceURL,
		Categories:        message.Categories,
		AddressTexts:      message.AddressTexts,
		Addresses:         fromAddressesDomain(message.Addresses),
		DateText:          message.DateText,
		CrawledAt:         message.CrawledAt,
		CreatedAt:         message.CreatedAt,
		FinalizedAt:       message.FinalizedAt,
		NotificationsSent: message.NotificationsSent,
	}

	if message.GeoJSON != nil {
		raw, err := message.GeoJSON.MarshalJSON()
		if err != nil {
			return nil, errors.Wrap(err, "marshal message footprint")
		}
		model.GeoJSON = string(raw)
	}

	return model, nil
}

// ToMessageDomain converts a Firestore document back into a domain message.
func (m *MessageModel) ToMessageDomain(id string) (*entity.Message, error) {
	message := &entity.Message{
		ID:                id,
		Text:              m.Text,
		Source:            m.Source,
		SourceURL:         m.SourceURL,
		Categories:        m.Categories,
		AddressTexts:      m.AddressTexts,
		Addresses:         toAddressesDomain(m.Addresses),
		DateText:          m.DateText,
		CrawledAt:         m.CrawledAt,
		CreatedAt:         m.CreatedAt,
		FinalizedAt:       m.FinalizedAt,
		NotificationsSent: m.NotificationsSent,
	}

	if m.GeoJSON != "" {
		fc, err := geojson.UnmarshalFeatureCollection([]byte(m.GeoJSON))
		if err != nil {
			return nil, errors.Wrapf(err, "unmarshal footprint of message %s", id)
		}
		message.GeoJSON = fc
	}

	return message, nil
}

// FromAddressesDomain converts accepted addresses for a partial update.
func FromAddressesDomain(addresses []entity.Address) []AddressModel {
	return fromAddressesDomain(addresses)
}

func fromAddressesDomain(addresses []entity.Address) []AddressModel {
	models := make([]AddressModel, 0, len(addresses))
	for _, address := range addresses {
		models = append(models, AddressModel{
			OriginalText:     address.OriginalText,
			FormattedAddress: address.FormattedAddress,
			Latitude:         address.Latitude,
			Longitude:        address.Longitude,
		})
	}

	return models
}

func toAddressesDomain(models []AddressModel) []entity.Address {
	addresses := make([]entity.Address, 0, len(models))
	for _, model := range models {
		addresses = append(addresses, entity.Address{
			OriginalText:     model.OriginalText,
			FormattedAddress: model.FormattedAddress,
			Latitude:         model.Latitude,
			Longitude:        model.Longitude,
		})
	}

	return addresses
}
