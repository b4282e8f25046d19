package stats

import (
	"time"

	"backend-everywhere/internal/fix"
	"backend-everywhere/internal/shared/geo"
)

// Week is the per-day unique place count of one ISO week, Monday first.
type Week struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  [7]int    `json:"days"`
}

// Label formats the week range as "D.MM - D.MM".
func (w Week) Label() string {
	return w.Start.Format("2.01") + " - " + w.End.Format("2.01")
}

// WeekBounds returns Monday 00:00 and Sunday 23:59:59.999 of the week offset
// weeks away from the one containing now.
func WeekBounds(now time.Time, offset int, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	t := now.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day()-weekdayIndex(t), 0, 0, 0, 0, loc).AddDate(0, 0, 7*offset)
	end := start.AddDate(0, 0, 7).Add(-time.Millisecond)
	return start, end
}

// Weekly counts distinct ~111 m grid cells visited on each day of the week.
func Weekly(fixes []fix.Fix, offset int, now time.Time, loc *time.Location) Week {
	if loc == nil {
		loc = time.Local
	}
	start, end := WeekBounds(now, offset, loc)
	week := Week{Start: start, End: end}

	from, to := start.UnixMilli(), end.UnixMilli()
	var seen [7]map[string]struct{}
	for _, f := range fixes {
		if f.Timestamp < from || f.Timestamp > to {
			continue
		}
		day := weekdayIndex(f.Time().In(loc))
		if seen[day] == nil {
			seen[day] = map[string]struct{}{}
		}
		seen[day][geo.GridKey(f.Latitude, f.Longitude)] = struct{}{}
	}
	for i := range seen {
		week.Days[i] = len(seen[i])
	}
	return week
}

func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
