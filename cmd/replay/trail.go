package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"backend-everywhere/internal/fix"

	"github.com/gocarina/gocsv"
)

const (
	formatCSV  = "csv"
	formatJSON = "json"
)

// csvFix is one row of a trail export. Timestamp is milliseconds since the epoch.
type csvFix struct {
	Latitude  float64 `csv:"latitude"`
	Longitude float64 `csv:"longitude"`
	Timestamp int64   `csv:"timestamp"`
	Accuracy  float64 `csv:"accuracy"`
	Speed     float64 `csv:"speed"`
}

func (r csvFix) toFix() fix.Fix {
	f := fix.Fix{Latitude: r.Latitude, Longitude: r.Longitude, Timestamp: r.Timestamp}
	if r.Accuracy > 0 {
		acc := r.Accuracy
		f.Accuracy = &acc
	}
	if r.Speed > 0 {
		speed := r.Speed
		f.Speed = &speed
	}
	return f
}

func detectFormat(path, format string) string {
	if format != "" {
		return strings.ToLower(format)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return formatJSON
	}
	return formatCSV
}

// readTrail decodes a trail and drops rows that are not valid fixes.
func readTrail(r io.Reader, format string) ([]fix.Fix, int, error) {
	var fixes []fix.Fix
	switch format {
	case formatCSV:
		var rows []csvFix
		if err := gocsv.Unmarshal(r, &rows); err != nil {
			return nil, 0, fmt.Errorf("parse csv trail: %w", err)
		}
		for _, row := range rows {
			fixes = append(fixes, row.toFix())
		}
	case formatJSON:
		if err := json.NewDecoder(r).Decode(&fixes); err != nil {
			return nil, 0, fmt.Errorf("parse json trail: %w", err)
		}
	default:
		return nil, 0, fmt.Errorf("unknown trail format %q", format)
	}

	valid := fixes[:0]
	skipped := 0
	for _, f := range fixes {
		if f.Validate() != nil {
			skipped++
			continue
		}
		valid = append(valid, f)
	}
	return valid, skipped, nil
}
