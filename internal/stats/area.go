package stats

import (
	"math"

	"backend-everywhere/internal/fix"
	"backend-everywhere/internal/shared/geo"
)

const (
	// DefaultTrailWidthM is the width of the band a trail is assumed to cover.
	DefaultTrailWidthM = 10.0
	// CityAreaKm2 is the reference area of Dublin.
	CityAreaKm2      = 117.8
	WorldLandAreaKm2 = 148940000.0
	// minBoxSpanDeg rejects degenerate city boxes.
	minBoxSpanDeg = 0.01
)

// ExploredAreaKm2 sums segment length times widthM over consecutive fixes.
// Overlapping segments are counted again.
func ExploredAreaKm2(trail []fix.Fix, widthM float64) float64 {
	if len(trail) < 2 {
		return 0
	}
	if widthM <= 0 {
		widthM = DefaultTrailWidthM
	}
	var total float64
	for i := 1; i < len(trail); i++ {
		a, b := trail[i-1], trail[i]
		total += geo.HaversineM(a.Latitude, a.Longitude, b.Latitude, b.Longitude) * widthM
	}
	return total / 1e6
}

// TotalDistanceKm is the length of the trail.
func TotalDistanceKm(trail []fix.Fix) float64 {
	var total float64
	for i := 1; i < len(trail); i++ {
		a, b := trail[i-1], trail[i]
		total += geo.HaversineKm(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
	}
	return total
}

func ExplorationPercent(areaKm2, referenceKm2 float64) float64 {
	if referenceKm2 <= 0 || math.IsNaN(areaKm2) {
		return 0
	}
	return areaKm2 / referenceKm2 * 100
}

// UsableBox reports whether a city box spans enough to crop a trail with.
func UsableBox(b *geo.Box) bool {
	return b != nil &&
		math.Abs(b.MaxLat-b.MinLat) > minBoxSpanDeg &&
		math.Abs(b.MaxLng-b.MinLng) > minBoxSpanDeg
}

func CropToBox(trail []fix.Fix, b geo.Box) []fix.Fix {
	var out []fix.Fix
	for _, f := range trail {
		if b.Contains(f.Latitude, f.Longitude) {
			out = append(out, f)
		}
	}
	return out
}

type Exploration struct {
	AreaKm2      float64 `json:"area_km2"`
	DistanceKm   float64 `json:"distance_km"`
	CityPercent  float64 `json:"city_percent"`
	WorldPercent float64 `json:"world_percent"`
}

// Explore estimates how much of the city and of the world the trail covers.
// When cityBox is usable the trail is cropped to it first.
func Explore(trail []fix.Fix, widthM float64, cityBox *geo.Box, cityAreaKm2 float64) Exploration {
	if UsableBox(cityBox) {
		trail = CropToBox(trail, *cityBox)
	}
	if cityAreaKm2 <= 0 {
		cityAreaKm2 = CityAreaKm2
	}
	area := ExploredAreaKm2(trail, widthM)
	return Exploration{
		AreaKm2:      area,
		DistanceKm:   TotalDistanceKm(trail),
		CityPercent:  ExplorationPercent(area, cityAreaKm2),
		WorldPercent: ExplorationPercent(area, WorldLandAreaKm2),
	}
}
