// Package geo holds the great-circle helpers used by the relational store,
// which has no spherical index of its own.
package geo

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

const EarthRadiusKm = 6371.0088

var ErrInvalidPoint = errors.New("geo: invalid point")

// DistanceKm is the haversine distance between two points in degrees.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	φ1 := radians(lat1)
	φ2 := radians(lat2)
	dφ := radians(lat2 - lat1)
	dλ := radians(lng2 - lng1)

	a := math.Sin(dφ/2)*math.Sin(dφ/2) + math.Cos(φ1)*math.Cos(φ2)*math.Sin(dλ/2)*math.Sin(dλ/2)
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

// Box is a lat/lng rectangle that contains every point within a radius of
// its centre. Near the poles it widens to all longitudes.
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

func BoundingBox(lat, lng, radiusKm float64) Box {
	dLat := degrees(radiusKm / EarthRadiusKm)
	b := Box{
		MinLat: math.Max(-90, lat-dLat),
		MaxLat: math.Min(90, lat+dLat),
		MinLng: -180,
		MaxLng: 180,
	}
	if b.MinLat <= -90 || b.MaxLat >= 90 {
		return b
	}
	dLng := degrees(math.Asin(math.Sin(radiusKm/EarthRadiusKm) / math.Cos(radians(lat))))
	if lng-dLng >= -180 && lng+dLng <= 180 {
		b.MinLng = lng - dLng
		b.MaxLng = lng + dLng
	}
	return b
}

func ValidLatLng(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180 &&
		!math.IsNaN(lat) && !math.IsNaN(lng)
}

// ParseLatLng reads a "lat,long" pair.
func ParseLatLng(s string) (lat, lng float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, ErrInvalidPoint
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, ErrInvalidPoint
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, ErrInvalidPoint
	}
	if !ValidLatLng(lat, lng) {
		return 0, 0, ErrInvalidPoint
	}
	return lat, lng, nil
}

func radians(d float64) float64 { return d * math.Pi / 180 }
func degrees(r float64) float64 { return r * 180 / math.Pi }
