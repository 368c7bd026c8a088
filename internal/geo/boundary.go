package geo

import (
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"sofialert/internal/domain/entity"
	"sofialert/internal/errors"
)

// ErrUnsupportedGeometry reports a feature geometry the containment test
// cannot evaluate.
var ErrUnsupportedGeometry = errors.New("unsupported feature geometry")

// LoadBoundary reads a GeoJSON FeatureCollection of administrative polygons
// from disk. The file is loaded once per process and treated as read-only.
func LoadBoundary(path string) (*geojson.FeatureCollection, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read boundary file %s", path)
	}

	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "parse boundary file %s", path)
	}

	return fc, nil
}

// FilterFeatures keeps the features of fc that fall inside any boundary
// polygon, preserving their order. Returns nil when fc is nil or empty, or
// when no feature is inside. Features whose geometry cannot be evaluated are
// dropped silently: for the reduced footprint a feature we cannot place is
// assumed outside.
func FilterFeatures(fc, boundary *geojson.FeatureCollection) *geojson.FeatureCollection {
	if fc == nil || len(fc.Features) == 0 {
		return nil
	}

	filtered := geojson.NewFeatureCollection()
	for _, feature := range fc.Features {
		inside, err := featureWithin(feature, boundary)
		if err != nil || !inside {
			continue
		}
		filtered.Append(feature)
	}

	if len(filtered.Features) == 0 {
		return nil
	}

	return filtered
}

// FilterAddresses keeps the addresses whose coordinates fall inside the
// boundary. A nil boundary disables the gate and keeps everything.
func FilterAddresses(addresses []entity.Address, boundary *geojson.FeatureCollection) []entity.Address {
	if boundary == nil || len(boundary.Features) == 0 {
		return addresses
	}

	kept := make([]entity.Address, 0, len(addresses))
	for _, address := range addresses {
		if pointInBoundary(address.Point(), boundary) {
			kept = append(kept, address)
		}
	}

	return kept
}

// IsWithinBoundaries reports whether at least one feature lies inside the
// boundary. The check gates a pre-filter, not a hard exclusion, so it fails
// open: an evaluation error counts as "within" rather than hiding the
// message. Empty collections are not within (nothing to place).
func IsWithinBoundaries(fc, boundary *geojson.FeatureCollection) bool {
	if fc == nil || len(fc.Features) == 0 {
		return false
	}

	for _, feature := range fc.Features {
		inside, err := featureWithin(feature, boundary)
		if err != nil {
			return true
		}
		if inside {
			return true
		}
	}

	return false
}

// featureWithin tests a single feature against the boundary using vertex
// containment: any constituent coordinate inside any boundary polygon keeps
// the feature. A line that merely crosses a boundary without a vertex inside
// it is missed; the boundary regions are large relative to the scraped
// geometries, so the approximation holds up in practice.
func featureWithin(feature *geojson.Feature, boundary *geojson.FeatureCollection) (bool, error) {
	if feature == nil || feature.Geometry == nil {
		return false, ErrUnsupportedGeometry
	}

	points, err := vertices(feature.Geometry)
	if err != nil {
		return false, err
	}

	for _, pt := range points {
		if pointInBoundary(pt, boundary) {
			return true, nil
		}
	}

	return false, nil
}

func vertices(geometry orb.Geometry) ([]orb.Point, error) {
	switch g := geometry.(type) {
	case orb.Point:
		return []orb.Point{g}, nil
	case orb.MultiPoint:
		return g, nil
	case orb.LineString:
		return g, nil
	case orb.MultiLineString:
		var points []orb.Point
		for _, line := range g {
			points = append(points, line...)
		}

		return points, nil
	case orb.Polygon:
		var points []orb.Point
		for _, ring := range g {
			points = append(points, ring...)
		}

		return points, nil
	case orb.MultiPolygon:
		var points []orb.Point
		for _, polygon := range g {
			for _, ring := range polygon {
				points = append(points, ring...)
			}
		}

		return points, nil
	default:
		return nil, ErrUnsupportedGeometry
	}
}

// pointInBoundary applies union semantics over the boundary collection:
// inside any polygon counts as inside. Containment uses ray casting over the
// exterior ring only; interior holes are not subtracted, consistent with the
// simple district shapes the boundaries describe.
func pointInBoundary(pt orb.Point, boundary *geojson.FeatureCollection) bool {
	if boundary == nil {
		return false
	}

	for _, feature := range boundary.Features {
		if feature == nil {
			continue
		}

		switch g := feature.Geometry.(type) {
		case orb.Polygon:
			if len(g) > 0 && planar.RingContains(g[0], pt) {
				return true
			}
		case orb.MultiPolygon:
			for _, polygon := range g {
				if len(polygon) > 0 && planar.RingContains(polygon[0], pt) {
					return true
				}
			}
		}
	}

	return false
}
