package stats

import (
	"testing"
	"time"

	"backend-everywhere/internal/fix"
)

func pt(t time.Time, lat, lng float64) fix.Fix {
	return fix.Fix{Latitude: lat, Longitude: lng, Timestamp: t.UnixMilli()}
}

// Wednesday 6 March 2024.
var wednesday = time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)

func TestWeekBounds(t *testing.T) {
	start, end := WeekBounds(wednesday, 0, time.UTC)
	if !start.Equal(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %v", start)
	}
	if !end.Equal(time.Date(2024, 3, 10, 23, 59, 59, int(999*time.Millisecond), time.UTC)) {
		t.Fatalf("unexpected end %v", end)
	}

	sunday := time.Date(2024, 3, 10, 22, 0, 0, 0, time.UTC)
	if s, _ := WeekBounds(sunday, 0, time.UTC); !s.Equal(start) {
		t.Fatalf("sunday should belong to the week starting monday, got %v", s)
	}

	prev, _ := WeekBounds(wednesday, -1, time.UTC)
	if !prev.Equal(time.Date(2024, 2, 26, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected previous week start %v", prev)
	}
}

func TestWeeklyCountsUniqueCellsPerDay(t *testing.T) {
	monday := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	fixes := []fix.Fix{
		pt(monday, 53.3510, -6.2774),
		pt(monday.Add(time.Minute), 53.35104, -6.27741),
		pt(monday.Add(time.Hour), 53.3385, -6.2691),
		pt(monday.Add(2*24*time.Hour), 53.3400, -6.2663),
		pt(time.Date(2024, 3, 10, 23, 59, 59, int(999*time.Millisecond), time.UTC), 53.3488, -6.2808),
		pt(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), 53.3488, -6.2808),
		pt(time.Date(2024, 3, 3, 23, 59, 0, 0, time.UTC), 53.3488, -6.2808),
	}

	week := Weekly(fixes, 0, wednesday, time.UTC)
	want := [7]int{2, 0, 1, 0, 0, 0, 1}
	if week.Days != want {
		t.Fatalf("expected %v, got %v", want, week.Days)
	}
	if week.Label() != "4.03 - 10.03" {
		t.Fatalf("unexpected label %q", week.Label())
	}
}

func TestWeeklyOffset(t *testing.T) {
	lastWeek := time.Date(2024, 2, 27, 10, 0, 0, 0, time.UTC)
	fixes := []fix.Fix{pt(lastWeek, 1, 1), pt(wednesday, 2, 2)}

	week := Weekly(fixes, -1, wednesday, time.UTC)
	if week.Days != [7]int{0, 1, 0, 0, 0, 0, 0} {
		t.Fatalf("unexpected days %v", week.Days)
	}
	if week.Label() != "26.02 - 3.03" {
		t.Fatalf("unexpected label %q", week.Label())
	}
}

func TestWeeklyUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	// Sunday 22:30 UTC is already Monday in UTC+3.
	late := time.Date(2024, 3, 10, 22, 30, 0, 0, time.UTC)
	week := Weekly([]fix.Fix{pt(late, 1, 1)}, 1, wednesday, loc)
	if week.Days[0] != 1 {
		t.Fatalf("expected a monday visit in the next week, got %v", week.Days)
	}
}

func TestWeeklyEmpty(t *testing.T) {
	week := Weekly(nil, 0, wednesday, nil)
	if week.Days != [7]int{} {
		t.Fatalf("expected zeros, got %v", week.Days)
	}
}
