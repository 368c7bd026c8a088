// Package geo implements the spatial quality filters of the ingestion
// pipeline and the distance predicate of the matching pipeline.
package geo

import (
	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"sofialert/internal/domain/entity"
)

// Distance returns the great-circle distance between two points in meters.
func Distance(a, b orb.Point) float64 {
	return orbgeo.Distance(a, b)
}

// RepresentativePoint picks the single point used for interest matching: the
// first accepted address, or the centroid of the message footprint when no
// address survived filtering. ok is false when the message carries no usable
// geometry at all.
func RepresentativePoint(message *entity.Message) (pt orb.Point, ok bool) {
	if len(message.Addresses) > 0 {
		return message.Addresses[0].Point(), true
	}

	if message.GeoJSON == nil || len(message.GeoJSON.Features) == 0 {
		return orb.Point{}, false
	}

	// Each feature contributes its own centroid with equal weight. An
	// area-weighted centroid over the whole set would assign zero weight to
	// point features, which is what address footprints consist of.
	var sum orb.Point
	count := 0
	for _, feature := range message.GeoJSON.Features {
		if feature == nil || feature.Geometry == nil {
			continue
		}
		centroid, _ := planar.CentroidArea(feature.Geometry)
		sum[0] += centroid[0]
		sum[1] += centroid[1]
		count++
	}
	if count == 0 {
		return orb.Point{}, false
	}

	return orb.Point{sum[0] / float64(count), sum[1] / float64(count)}, true
}

// AddressFeatureCollection builds the stored GeoJSON footprint from the
// accepted addresses.
func AddressFeatureCollection(addresses []entity.Address) *geojson.FeatureCollection {
	if len(addresses) == 0 {
		return nil
	}

	fc := geojson.NewFeatureCollection()
	for _, address := range addresses {
		feature := geojson.NewFeature(address.Point())
		feature.Properties = geojson.Properties{
			"originalText":     address.OriginalText,
			"formattedAddress": address.FormattedAddress,
		}
		fc.Append(feature)
	}

	return fc
}
