package insights

import (
	"backend-everywhere/internal/place"
	"backend-everywhere/internal/stats"
)

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PlaceView is a stored place with its display name and icon.
type PlaceView struct {
	place.Record
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Label string `json:"label"`
}

type HomeWorkView struct {
	Home *PlaceView `json:"home"`
	Work *PlaceView `json:"work"`
}

type WeeklyView struct {
	stats.Week
	Label string `json:"label"`
}

type StaysView struct {
	Days           [7]int  `json:"days"`
	MinStayMinutes float64 `json:"min_stay_minutes"`
}

type ExploredView struct {
	stats.Exploration
	City    string `json:"city"`
	Cropped bool   `json:"cropped"`
}
