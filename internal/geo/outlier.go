package geo

import "sofialert/internal/domain/entity"

// DefaultOutlierMaxDistanceMeters is the nearest-neighbor threshold used
// when no override is configured.
const DefaultOutlierMaxDistanceMeters = 1000.0

// FilterOutliers prunes geocoded addresses that are spatially isolated from
// every other candidate of the same message. An address survives iff its
// nearest neighbor lies within maxDistanceMeters (inclusive). Zero or one
// input addresses pass through unchanged.
//
// This is a single-threshold nearest-neighbor filter, not clustering: two
// small groups within threshold of each other both survive, while one
// garbled geocoding result (a street name resolving to another town) is
// dropped even when the rest form a tight cluster.
func FilterOutliers(addresses []entity.Address, maxDistanceMeters float64) []entity.Address {
	if len(addresses) <= 1 {
		return addresses
	}

	kept := make([]entity.Address, 0, len(addresses))
	for i, address := range addresses {
		for j, other := range addresses {
			if i == j {
				continue
			}

			if Distance(address.Point(), other.Point()) <= maxDistanceMeters {
				kept = append(kept, address)

				break
			}
		}
	}

	return kept
}
