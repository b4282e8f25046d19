package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"backend-everywhere/internal/fix"
	"backend-everywhere/internal/logging"
	"backend-everywhere/internal/shared/geo"
	"backend-everywhere/internal/stats"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("replay failed")
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "replay",
		Usage: "replay a recorded trail through visit detection and print the results",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true, Usage: "trail file (csv or json), - for stdin"},
			&cli.StringFlag{Name: "format", Usage: "csv or json; detected from the file extension when empty"},
			&cli.StringFlag{Name: "user", Value: "replay", Usage: "user id the trail belongs to"},
			&cli.StringFlag{Name: "mode", Value: "none", Usage: "ingest throttling: none, visit or foreground"},
			&cli.Float64Flag{Name: "width", Value: stats.DefaultTrailWidthM, Usage: "corridor width in meters"},
			&cli.StringFlag{Name: "bbox", Usage: "city bounding box south,north,west,east to crop the trail to"},
			&cli.Float64Flag{Name: "city-area", Value: stats.CityAreaKm2, Usage: "city reference area in km²"},
			&cli.IntFlag{Name: "week", Value: 0, Usage: "week offset relative to the last fix"},
			&cli.StringFlag{Name: "timezone", Value: "Europe/Dublin", Usage: "timezone for weekday bucketing"},
			&cli.StringFlag{Name: "log-level", Value: "warn"},
			&cli.BoolFlag{Name: "no-color", Usage: "disable colored output"},
		},
		Action: func(c *cli.Context) error {
			logging.SetupWriter(c.App.ErrWriter, c.String("log-level"), "console")
			if c.Bool("no-color") {
				color.NoColor = true
			}

			loc, err := time.LoadLocation(c.String("timezone"))
			if err != nil {
				return fmt.Errorf("timezone: %w", err)
			}
			ingest, err := ingestOptions(c.String("mode"))
			if err != nil {
				return err
			}

			box, err := parseBox(c.String("bbox"))
			if err != nil {
				return err
			}

			in := c.App.Reader
			path := c.String("input")
			if path != "-" {
				file, err := os.Open(path)
				if err != nil {
					return err
				}
				defer file.Close()
				in = file
			}

			fixes, skipped, err := readTrail(in, detectFormat(path, c.String("format")))
			if err != nil {
				return err
			}

			r, err := replay(c.Context, fixes, options{
				UserID:      c.String("user"),
				Ingest:      ingest,
				WidthM:      c.Float64("width"),
				CityAreaKm2: c.Float64("city-area"),
				CityBox:     box,
				WeekOffset:  c.Int("week"),
				Location:    loc,
			})
			if err != nil {
				return err
			}
			r.Skipped = skipped
			printReport(c.App.Writer, r)
			return nil
		},
	}
}

func ingestOptions(mode string) (fix.Options, error) {
	switch mode {
	case "", "none":
		return fix.Options{}, nil
	case "visit":
		return fix.VisitOptions(), nil
	case "foreground":
		return fix.ForegroundOptions(), nil
	}
	return fix.Options{}, fmt.Errorf("unknown mode %q", mode)
}

// parseBox reads "south,north,west,east", the order Nominatim returns.
func parseBox(raw string) (*geo.Box, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("bbox needs 4 values, got %d", len(parts))
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bbox value %q: %w", p, err)
		}
		v[i] = f
	}
	return &geo.Box{MinLat: v[0], MaxLat: v[1], MinLng: v[2], MaxLng: v[3]}, nil
}
