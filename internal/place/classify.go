package place

import "context"

const (
	HomeMinMinutes = 300.0
	WorkMinMinutes = 60.0
	WorkMaxMinutes = 200.0
)

type HomeWork struct {
	Home *Record `json:"home"`
	Work *Record `json:"work"`
}

// Classify picks the longest-dwelled home and work candidates. Ties keep the
// first record in iteration order.
func Classify(records []Record) HomeWork {
	var hw HomeWork
	for i := range records {
		r := records[i]
		if r.TimeSpent >= HomeMinMinutes && (hw.Home == nil || r.TimeSpent > hw.Home.TimeSpent) {
			hw.Home = &r
		}
	}
	for i := range records {
		r := records[i]
		if r.TimeSpent >= WorkMinMinutes && r.TimeSpent <= WorkMaxMinutes && (hw.Work == nil || r.TimeSpent > hw.Work.TimeSpent) {
			hw.Work = &r
		}
	}
	return hw
}

// DetectHomeWork classifies the latest stored snapshot.
func DetectHomeWork(ctx context.Context, store Store, userID string) (HomeWork, error) {
	records, err := store.Places(ctx, userID)
	if err != nil {
		return HomeWork{}, err
	}
	return Classify(records), nil
}

// TopSpot returns the longest-dwelled place that is not home or work, neither
// by type nor by matching one of the excluded records.
func TopSpot(records []Record, exclude ...*Record) *Record {
	ranked := append([]Record(nil), records...)
	Rank(ranked)
	for i := range ranked {
		r := ranked[i]
		if r.Type == TypeHome || r.Type == TypeWork || matches(r, exclude) {
			continue
		}
		return &r
	}
	return nil
}

// Annotate returns a copy of records with home and work types applied.
func Annotate(records []Record, hw HomeWork) []Record {
	out := EnsureType(append([]Record(nil), records...))
	for i := range out {
		switch {
		case matches(out[i], []*Record{hw.Home}):
			out[i].Type = TypeHome
		case matches(out[i], []*Record{hw.Work}):
			out[i].Type = TypeWork
		}
	}
	return out
}

func matches(r Record, others []*Record) bool {
	for _, o := range others {
		if o != nil && o.Latitude == r.Latitude && o.Longitude == r.Longitude {
			return true
		}
	}
	return false
}
