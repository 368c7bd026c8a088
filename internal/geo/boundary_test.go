package geo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sofialert/internal/domain/entity"
)

// testBoundary is a single square district: lng 23.32..23.33, lat 42.69..42.70.
func testBoundary() *geojson.FeatureCollection {
	boundary := geojson.NewFeatureCollection()
	boundary.Append(geojson.NewFeature(orb.Polygon{
		{
			{23.32, 42.69},
			{23.33, 42.69},
			{23.33, 42.70},
			{23.32, 42.70},
			{23.32, 42.69},
		},
	}))

	return boundary
}

func pointFeature(lng, lat float64, name string) *geojson.Feature {
	feature := geojson.NewFeature(orb.Point{lng, lat})
	feature.Properties = geojson.Properties{"originalText": name}

	return feature
}

func TestFilterFeatures_NilAndEmptyInput(t *testing.T) {
	boundary := testBoundary()

	assert.Nil(t, FilterFeatures(nil, boundary))
	assert.Nil(t, FilterFeatures(geojson.NewFeatureCollection(), boundary))
}

func TestFilterFeatures_AllOutsideReturnsNil(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Append(pointFeature(23.40, 42.75, "извън района"))
	fc.Append(pointFeature(22.00, 42.00, "далеч"))

	assert.Nil(t, FilterFeatures(fc, testBoundary()))
}

func TestFilterFeatures_MixedPreservesOrder(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Append(pointFeature(23.325, 42.695, "вътре 1"))
	fc.Append(pointFeature(23.40, 42.75, "извън"))
	fc.Append(pointFeature(23.321, 42.691, "вътре 2"))

	got := FilterFeatures(fc, testBoundary())
	require.NotNil(t, got)
	require.Len(t, got.Features, 2)
	assert.Equal(t, "вътре 1", got.Features[0].Properties["originalText"])
	assert.Equal(t, "вътре 2", got.Features[1].Properties["originalText"])
}

func TestFilterFeatures_LineStringWithVertexInside(t *testing.T) {
	line := geojson.NewFeature(orb.LineString{
		{23.325, 42.695}, // inside
		{23.40, 42.75},   // outside
	})
	fc := geojson.NewFeatureCollection()
	fc.Append(line)

	got := FilterFeatures(fc, testBoundary())
	require.NotNil(t, got)
	assert.Len(t, got.Features, 1)
}

func TestFilterFeatures_DropsNilGeometrySilently(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Append(&geojson.Feature{})
	fc.Append(pointFeature(23.325, 42.695, "вътре"))

	got := FilterFeatures(fc, testBoundary())
	require.NotNil(t, got)
	require.Len(t, got.Features, 1)
	assert.Equal(t, "вътре", got.Features[0].Properties["originalText"])
}

func TestFilterFeatures_MultiPolygonBoundaryUnion(t *testing.T) {
	boundary := geojson.NewFeatureCollection()
	boundary.Append(geojson.NewFeature(orb.MultiPolygon{
		{
			{{23.32, 42.69}, {23.33, 42.69}, {23.33, 42.70}, {23.32, 42.70}, {23.32, 42.69}},
		},
		{
			{{23.36, 42.65}, {23.37, 42.65}, {23.37, 42.66}, {23.36, 42.66}, {23.36, 42.65}},
		},
	}))

	fc := geojson.NewFeatureCollection()
	fc.Append(pointFeature(23.325, 42.695, "първи полигон"))
	fc.Append(pointFeature(23.365, 42.655, "втори полигон"))
	fc.Append(pointFeature(23.50, 42.50, "извън"))

	got := FilterFeatures(fc, boundary)
	require.NotNil(t, got)
	assert.Len(t, got.Features, 2)
}

func TestIsWithinBoundaries_EmptyCollectionIsOutside(t *testing.T) {
	boundary := testBoundary()

	assert.False(t, IsWithinBoundaries(nil, boundary))
	assert.False(t, IsWithinBoundaries(geojson.NewFeatureCollection(), boundary))
}

func TestIsWithinBoundaries_InsideAndOutside(t *testing.T) {
	boundary := testBoundary()

	inside := geojson.NewFeatureCollection()
	inside.Append(pointFeature(23.325, 42.695, "вътре"))
	assert.True(t, IsWithinBoundaries(inside, boundary))

	outside := geojson.NewFeatureCollection()
	outside.Append(pointFeature(23.40, 42.75, "извън"))
	assert.False(t, IsWithinBoundaries(outside, boundary))
}

func TestIsWithinBoundaries_FailsOpenOnBadGeometry(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Append(&geojson.Feature{})

	assert.True(t, IsWithinBoundaries(fc, testBoundary()))
}

func TestLoadBoundary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boundaries.geojson")

	raw, err := testBoundary().MarshalJSON()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	fc, err := LoadBoundary(path)
	require.NoError(t, err)
	assert.Len(t, fc.Features, 1)

	_, err = LoadBoundary(filepath.Join(dir, "missing.geojson"))
	assert.Error(t, err)

	badPath := filepath.Join(dir, "bad.geojson")
	require.NoError(t, os.WriteFile(badPath, []byte("{not json"), 0o600))
	_, err = LoadBoundary(badPath)
	assert.Error(t, err)
}

func messageWithAddresses(addresses ...entity.Address) *entity.Message {
	return &entity.Message{ID: "msg-1", Addresses: addresses}
}

func TestRepresentativePoint_PrefersFirstAddress(t *testing.T) {
	msg := messageWithAddresses(
		addr(42.6977, 23.3219, "Адрес 1"),
		addr(42.7000, 23.3300, "Адрес 2"),
	)

	pt, ok := RepresentativePoint(msg)
	require.True(t, ok)
	assert.Equal(t, orb.Point{23.3219, 42.6977}, pt)
}

func TestRepresentativePoint_FallsBackToCentroid(t *testing.T) {
	msg := messageWithAddresses()
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(orb.Point{23.32, 42.69}))
	fc.Append(geojson.NewFeature(orb.Point{23.34, 42.71}))
	msg.GeoJSON = fc

	pt, ok := RepresentativePoint(msg)
	require.True(t, ok)
	assert.InDelta(t, 23.33, pt[0], 1e-9)
	assert.InDelta(t, 42.70, pt[1], 1e-9)
}

func TestRepresentativePoint_NoGeometry(t *testing.T) {
	msg := messageWithAddresses()

	_, ok := RepresentativePoint(msg)
	assert.False(t, ok)
}

func TestAddressFeatureCollection(t *testing.T) {
	assert.Nil(t, AddressFeatureCollection(nil))

	fc := AddressFeatureCollection([]entity.Address{
		addr(42.6977, 23.3219, "бул. Дондуков 1"),
	})
	require.NotNil(t, fc)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "бул. Дондуков 1", fc.Features[0].Properties["originalText"])
	assert.Equal(t, orb.Point{23.3219, 42.6977}, fc.Features[0].Geometry)
}
