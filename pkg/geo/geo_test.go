package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceKm(t *testing.T) {
	// Maribor main square to the city park, roughly 0.8 km.
	d := DistanceKm(46.5576, 15.6456, 46.5633, 15.6389)
	assert.InDelta(t, 0.82, d, 0.1)

	assert.InDelta(t, 0, DistanceKm(10, 10, 10, 10), 1e-9)
	// Quarter of the equator.
	assert.InDelta(t, 10007.5, DistanceKm(0, 0, 0, 90), 1)
}

func TestBoundingBoxContainsRadius(t *testing.T) {
	lat, lng := 46.556920, 15.644863
	b := BoundingBox(lat, lng, 5)

	for _, p := range [][2]float64{{lat + 0.044, lng}, {lat, lng + 0.065}, {lat - 0.044, lng - 0.001}} {
		if DistanceKm(lat, lng, p[0], p[1]) <= 5 {
			assert.True(t, p[0] >= b.MinLat && p[0] <= b.MaxLat, "lat %v", p)
			assert.True(t, p[1] >= b.MinLng && p[1] <= b.MaxLng, "lng %v", p)
		}
	}
	assert.Less(t, b.MaxLng-b.MinLng, 1.0)
}

func TestBoundingBoxNearPole(t *testing.T) {
	b := BoundingBox(89.99, 0, 20)
	assert.Equal(t, -180.0, b.MinLng)
	assert.Equal(t, 180.0, b.MaxLng)
	assert.Equal(t, 90.0, b.MaxLat)
}

func TestParseLatLng(t *testing.T) {
	lat, lng, err := ParseLatLng("46.5569, 15.6449")
	require.NoError(t, err)
	assert.Equal(t, 46.5569, lat)
	assert.Equal(t, 15.6449, lng)

	for _, bad := range []string{"", "46.5", "a,b", "91,0", "0,181", "1,2,3"} {
		_, _, err := ParseLatLng(bad)
		assert.ErrorIs(t, err, ErrInvalidPoint, bad)
	}
}
