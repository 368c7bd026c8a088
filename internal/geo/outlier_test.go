package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sofialert/internal/domain/entity"
)

func addr(lat, lng float64, text string) entity.Address {
	return entity.Address{
		OriginalText:     text,
		FormattedAddress: text + ", София",
		Latitude:         lat,
		Longitude:        lng,
	}
}

// northOf returns an address the given number of meters due north of the
// base coordinate. Pure-latitude offsets give exact predictable distances.
func northOf(base entity.Address, meters float64, text string) entity.Address {
	deltaDegrees := meters / orb.EarthRadius * 180 / math.Pi

	return addr(base.Latitude+deltaDegrees, base.Longitude, text)
}

func TestFilterOutliers_EmptyInput(t *testing.T) {
	assert.Empty(t, FilterOutliers(nil, DefaultOutlierMaxDistanceMeters))
	assert.Empty(t, FilterOutliers([]entity.Address{}, DefaultOutlierMaxDistanceMeters))
}

func TestFilterOutliers_SingleAddressUnchanged(t *testing.T) {
	addresses := []entity.Address{addr(42.6977, 23.3219, "бул. Дондуков 1")}

	got := FilterOutliers(addresses, DefaultOutlierMaxDistanceMeters)
	assert.Equal(t, addresses, got)
}

func TestFilterOutliers_PairBeyondThresholdBothRemoved(t *testing.T) {
	base := addr(42.6977, 23.3219, "Адрес 1")
	far := northOf(base, 1000.75, "Адрес 2")
	addresses := []entity.Address{base, far}

	require.InDelta(t, 1000.75, Distance(base.Point(), far.Point()), 0.01)

	// Each address is the other's only neighbor and it exceeds the
	// threshold, so both are pruned.
	assert.Empty(t, FilterOutliers(addresses, 1000))

	// A wider threshold keeps both.
	assert.Len(t, FilterOutliers(addresses, 1100), 2)
}

func TestFilterOutliers_ThresholdIsInclusive(t *testing.T) {
	base := addr(42.6977, 23.3219, "Адрес 1")
	near := northOf(base, 500, "Адрес 2")
	exact := Distance(base.Point(), near.Point())

	assert.Len(t, FilterOutliers([]entity.Address{base, near}, exact), 2)
	assert.Empty(t, FilterOutliers([]entity.Address{base, near}, exact-0.01))
}

func TestFilterOutliers_DropsFarOutlierFromCluster(t *testing.T) {
	cluster := []entity.Address{
		addr(42.6977, 23.3219, "Оборище 1"),
		addr(42.6978, 23.3220, "Оборище 2"),
		addr(42.6979, 23.3221, "Оборище 3"),
		addr(42.6980, 23.3222, "Оборище 4"),
	}
	outlier := addr(42.9000, 25.5000, "Велико Търново") // ~180 km east

	got := FilterOutliers(append(cluster, outlier), 1000)
	require.Len(t, got, 4)
	assert.Equal(t, cluster, got)
}

func TestFilterOutliers_DropsMultipleOutliers(t *testing.T) {
	addresses := []entity.Address{
		addr(42.6977, 23.3219, "Кв. 1"),
		addr(42.6978, 23.3220, "Кв. 2"),
		addr(42.9000, 25.5000, "Далеч 1"),
		addr(41.5000, 24.0000, "Далеч 2"),
	}

	got := FilterOutliers(addresses, 1000)
	require.Len(t, got, 2)
	assert.Equal(t, "Кв. 1", got[0].OriginalText)
	assert.Equal(t, "Кв. 2", got[1].OriginalText)
}

func TestFilterOutliers_TwoNearbyGroupsBothSurvive(t *testing.T) {
	// Each group is internally tight; the groups are ~800 m apart. Every
	// address has a qualifying neighbor, so nothing is pruned.
	groupA := addr(42.6977, 23.3219, "Група А 1")
	addresses := []entity.Address{
		groupA,
		northOf(groupA, 50, "Група А 2"),
		northOf(groupA, 800, "Група Б 1"),
		northOf(groupA, 850, "Група Б 2"),
	}

	got := FilterOutliers(addresses, 1000)
	assert.Len(t, got, 4)
}
