package store

import (
	"context"

	"backend-everywhere/internal/db"
	"backend-everywhere/internal/fix"
	"backend-everywhere/internal/place"
)

type Postgres struct {
	db db.Querier
}

func NewPostgres(q db.Querier) *Postgres {
	return &Postgres{db: q}
}

func (p *Postgres) Places(ctx context.Context, userID string) ([]place.Record, error) {
	rows, err := p.db.Query(ctx, `
		SELECT latitude, longitude, visit_count, time_spent, place_type
		FROM most_visited_places WHERE user_id=$1
		ORDER BY position
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []place.Record
	for rows.Next() {
		var r place.Record
		var kind string
		if err := rows.Scan(&r.Latitude, &r.Longitude, &r.Count, &r.TimeSpent, &kind); err != nil {
			return nil, err
		}
		r.Type = place.ParseType(kind)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return keepValid(userID, records), nil
}

func (p *Postgres) ReplacePlaces(ctx context.Context, userID string, records []place.Record) error {
	if err := validateRecords(records); err != nil {
		return err
	}
	if err := p.DeletePlaces(ctx, userID); err != nil {
		return err
	}
	for i, r := range records {
		_, err := p.db.Exec(ctx, `
			INSERT INTO most_visited_places (user_id, position, latitude, longitude, visit_count, time_spent, place_type)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, userID, i, r.Latitude, r.Longitude, r.Count, r.TimeSpent, string(place.ParseType(string(r.Type))))
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *Postgres) DeletePlaces(ctx context.Context, userID string) error {
	_, err := p.db.Exec(ctx, `DELETE FROM most_visited_places WHERE user_id=$1`, userID)
	return err
}

func (p *Postgres) AddFix(ctx context.Context, userID string, f fix.Fix) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO location_data (user_id, latitude, longitude, recorded_at, accuracy, altitude, altitude_accuracy, heading, speed)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, userID, f.Latitude, f.Longitude, f.Timestamp, f.Accuracy, f.Altitude, f.AltitudeAccuracy, f.Heading, f.Speed)
	return err
}

func (p *Postgres) Trail(ctx context.Context, userID string) ([]fix.Fix, error) {
	rows, err := p.db.Query(ctx, `
		SELECT latitude, longitude, recorded_at, accuracy, altitude, altitude_accuracy, heading, speed
		FROM location_data WHERE user_id=$1
		ORDER BY recorded_at, id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trail []fix.Fix
	for rows.Next() {
		var f fix.Fix
		if err := rows.Scan(&f.Latitude, &f.Longitude, &f.Timestamp, &f.Accuracy, &f.Altitude, &f.AltitudeAccuracy, &f.Heading, &f.Speed); err != nil {
			return nil, err
		}
		trail = append(trail, f)
	}
	return trail, rows.Err()
}

func (p *Postgres) DeleteTrail(ctx context.Context, userID string) error {
	_, err := p.db.Exec(ctx, `DELETE FROM location_data WHERE user_id=$1`, userID)
	return err
}
