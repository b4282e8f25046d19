package fix

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrPermissionDenied  = errors.New("permission to access location was denied")
	ErrNotSubscribed     = errors.New("no active location subscription")
	ErrAlreadySubscribed = errors.New("location subscription already active")
	ErrInvalidFix        = errors.New("invalid fix")
)

// PermissionDeniedMessage is the text surfaced to clients when tracking cannot start.
const PermissionDeniedMessage = "Permission to access location was denied."

// Fix is a single timestamped GPS sample. Timestamp is milliseconds since the epoch.
type Fix struct {
	Latitude         float64  `json:"latitude" firestore:"latitude"`
	Longitude        float64  `json:"longitude" firestore:"longitude"`
	Timestamp        int64    `json:"timestamp" firestore:"timestamp"`
	Accuracy         *float64 `json:"accuracy,omitempty" firestore:"accuracy,omitempty"`
	Altitude         *float64 `json:"altitude,omitempty" firestore:"altitude,omitempty"`
	AltitudeAccuracy *float64 `json:"altitude_accuracy,omitempty" firestore:"altitudeAccuracy,omitempty"`
	Heading          *float64 `json:"heading,omitempty" firestore:"heading,omitempty"`
	Speed            *float64 `json:"speed,omitempty" firestore:"speed,omitempty"`
}

func (f Fix) Time() time.Time {
	return time.UnixMilli(f.Timestamp)
}

func (f Fix) Validate() error {
	switch {
	case math.IsNaN(f.Latitude) || f.Latitude < -90 || f.Latitude > 90:
		return fmt.Errorf("%w: latitude %v", ErrInvalidFix, f.Latitude)
	case math.IsNaN(f.Longitude) || f.Longitude < -180 || f.Longitude > 180:
		return fmt.Errorf("%w: longitude %v", ErrInvalidFix, f.Longitude)
	case f.Timestamp <= 0:
		return fmt.Errorf("%w: timestamp %d", ErrInvalidFix, f.Timestamp)
	}
	return nil
}

type AccuracyTier int

const (
	AccuracyLowest AccuracyTier = iota + 1
	AccuracyLow
	AccuracyBalanced
	AccuracyHigh
	AccuracyHighest
	AccuracyNavigation
)

// Options bound how often fixes are emitted.
type Options struct {
	Accuracy     AccuracyTier  `json:"accuracy"`
	MinInterval  time.Duration `json:"min_interval"`
	MinDistanceM float64       `json:"min_distance_m"`
}

// ForegroundOptions is used while the user has the map open.
func ForegroundOptions() Options {
	return Options{Accuracy: AccuracyHigh, MinInterval: time.Second, MinDistanceM: 10}
}

// VisitOptions is the slower cadence used for visit detection.
func VisitOptions() Options {
	return Options{Accuracy: AccuracyHigh, MinInterval: 30 * time.Second, MinDistanceM: 5}
}
