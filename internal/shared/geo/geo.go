package geo

import (
	"fmt"
	"math"
)

const (
	earthRadiusKm = 6371.0
	// metersPerDegree is the length of one degree of latitude.
	metersPerDegree = 111320.0
)

// HaversineKm returns the great-circle distance between two points in kilometers.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// HaversineM is HaversineKm in meters.
func HaversineM(lat1, lng1, lat2, lng2 float64) float64 {
	return HaversineKm(lat1, lng1, lat2, lng2) * 1000
}

type Box struct {
	MinLat float64 `json:"min_latitude"`
	MaxLat float64 `json:"max_latitude"`
	MinLng float64 `json:"min_longitude"`
	MaxLng float64 `json:"max_longitude"`
}

// RadiusBox returns the box spanning radiusM meters around a point.
func RadiusBox(lat, lng, radiusM float64) Box {
	dLat := radiusM / metersPerDegree
	dLng := radiusM / (metersPerDegree * math.Cos(toRad(lat)))
	return Box{
		MinLat: lat - dLat,
		MaxLat: lat + dLat,
		MinLng: lng - dLng,
		MaxLng: lng + dLng,
	}
}

// AreaKm2 approximates the box area using the width at its mid latitude.
func (b Box) AreaKm2() float64 {
	midLat := (b.MinLat + b.MaxLat) / 2
	height := HaversineKm(b.MinLat, b.MinLng, b.MaxLat, b.MinLng)
	width := HaversineKm(midLat, b.MinLng, midLat, b.MaxLng)
	return height * width
}

func (b Box) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// GridKey rounds a coordinate to 3 decimals (~111 m cells).
func GridKey(lat, lng float64) string {
	return fmt.Sprintf("%.3f,%.3f", lat, lng)
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
