package place

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrStorageUnavailable = errors.New("place storage unavailable")
	ErrInvalidRecord      = errors.New("invalid place record")
)

type Type string

const (
	TypeHome    Type = "home"
	TypeWork    Type = "work"
	TypeCafe    Type = "cafe"
	TypeGym     Type = "gym"
	TypeBar     Type = "bar"
	TypeGrocery Type = "grocery"
	TypePark    Type = "park"
	TypeUnknown Type = "unknown"
)

// ParseType maps stored labels to a Type. Unrecognized labels become TypeUnknown.
func ParseType(s string) Type {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeHome, TypeWork, TypeCafe, TypeGym, TypeBar, TypeGrocery, TypePark, TypeUnknown:
		return t
	case "groceries":
		return TypeGrocery
	default:
		return TypeUnknown
	}
}

// Record is a cluster of fixes within the place radius. TimeSpent is in minutes.
type Record struct {
	Latitude  float64 `json:"latitude" firestore:"latitude"`
	Longitude float64 `json:"longitude" firestore:"longitude"`
	Count     int     `json:"count" firestore:"count"`
	TimeSpent float64 `json:"time_spent" firestore:"timeSpent"`
	Type      Type    `json:"type,omitempty" firestore:"type,omitempty"`
}

func (r Record) Validate() error {
	switch {
	case math.IsNaN(r.Latitude) || r.Latitude < -90 || r.Latitude > 90:
		return fmt.Errorf("%w: latitude %v", ErrInvalidRecord, r.Latitude)
	case math.IsNaN(r.Longitude) || r.Longitude < -180 || r.Longitude > 180:
		return fmt.Errorf("%w: longitude %v", ErrInvalidRecord, r.Longitude)
	case r.Count < 1:
		return fmt.Errorf("%w: count %d", ErrInvalidRecord, r.Count)
	case math.IsNaN(r.TimeSpent) || math.IsInf(r.TimeSpent, 0) || r.TimeSpent < 0:
		return fmt.Errorf("%w: time spent %v", ErrInvalidRecord, r.TimeSpent)
	}
	return nil
}

// EnsureType fills missing or unrecognized types with TypeUnknown.
func EnsureType(records []Record) []Record {
	for i := range records {
		records[i].Type = ParseType(string(records[i].Type))
	}
	return records
}

var icons = map[Type]string{
	TypeGym:     "🏋️‍♀️",
	TypeHome:    "🏠",
	TypeWork:    "🎒",
	TypeGrocery: "🛒",
	TypeBar:     "🍻",
	TypeCafe:    "☕️",
	TypePark:    "🌳",
}

const fallbackIcon = "🏆"

func Icon(t Type) string {
	if icon, ok := icons[t]; ok {
		return icon
	}
	return fallbackIcon
}

// Label is the display text for a place, e.g. "☕️ Bewley's".
func Label(t Type, name string) string {
	return Icon(t) + " " + name
}
