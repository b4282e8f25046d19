package stats

import (
	"slices"
	"time"

	"backend-everywhere/internal/fix"
	"backend-everywhere/internal/shared/geo"
)

// MinStay is the shortest run of fixes in one grid cell that counts as a stay.
const MinStay = 15 * time.Minute

// Stay is a run of consecutive fixes sharing a grid cell.
type Stay struct {
	Key   string    `json:"key"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (s Stay) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Stays splits the trail into runs of consecutive fixes with the same grid key
// and keeps the runs lasting at least minStay.
func Stays(fixes []fix.Fix, minStay time.Duration) []Stay {
	ordered := slices.Clone(fixes)
	slices.SortStableFunc(ordered, func(a, b fix.Fix) int {
		switch {
		case a.Timestamp < b.Timestamp:
			return -1
		case a.Timestamp > b.Timestamp:
			return 1
		}
		return 0
	})

	var stays []Stay
	var run *Stay
	for _, f := range ordered {
		key := geo.GridKey(f.Latitude, f.Longitude)
		if run != nil && run.Key == key {
			run.End = f.Time()
			continue
		}
		if run != nil && run.Duration() >= minStay {
			stays = append(stays, *run)
		}
		run = &Stay{Key: key, Start: f.Time(), End: f.Time()}
	}
	if run != nil && run.Duration() >= minStay {
		stays = append(stays, *run)
	}
	return stays
}

// StayHistogram counts distinct stay cells per weekday, keyed by the day the
// stay began.
func StayHistogram(fixes []fix.Fix, minStay time.Duration, loc *time.Location) [7]int {
	if loc == nil {
		loc = time.Local
	}
	var seen [7]map[string]struct{}
	for _, s := range Stays(fixes, minStay) {
		day := weekdayIndex(s.Start.In(loc))
		if seen[day] == nil {
			seen[day] = map[string]struct{}{}
		}
		seen[day][s.Key] = struct{}{}
	}
	var days [7]int
	for i := range seen {
		days[i] = len(seen[i])
	}
	return days
}
