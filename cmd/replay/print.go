package main

import (
	"fmt"
	"io"
	"strings"

	"backend-everywhere/internal/place"

	"github.com/fatih/color"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	homeColor   = color.New(color.FgGreen)
	workColor   = color.New(color.FgYellow)
	dimColor    = color.New(color.FgHiBlack)
)

var weekdays = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func printReport(w io.Writer, r report) {
	headerColor.Fprintf(w, "Replayed %d fixes", r.Fixes)
	if r.Skipped > 0 {
		dimColor.Fprintf(w, " (%d invalid rows skipped)", r.Skipped)
	}
	fmt.Fprintln(w)

	headerColor.Fprintln(w, "\nPlaces")
	if len(r.Places) == 0 {
		dimColor.Fprintln(w, "  none yet")
	}
	for i, p := range r.Places {
		line := fmt.Sprintf("  %2d. %s %-8s %9.5f,%10.5f  visits %-3d %7.1f min", i+1, place.Icon(p.Type), p.Type, p.Latitude, p.Longitude, p.Count, p.TimeSpent)
		switch p.Type {
		case place.TypeHome:
			homeColor.Fprintln(w, line)
		case place.TypeWork:
			workColor.Fprintln(w, line)
		default:
			fmt.Fprintln(w, line)
		}
	}

	headerColor.Fprintln(w, "\nHome and work")
	printPlace(w, homeColor, "home", r.HomeWork.Home)
	printPlace(w, workColor, "work", r.HomeWork.Work)
	printPlace(w, color.New(color.FgMagenta), "top spot", r.TopSpot)

	headerColor.Fprintf(w, "\nWeek %s\n", r.Week.Label())
	printDays(w, r.Week.Days, "places")

	headerColor.Fprintln(w, "\nStays of 15 minutes or more")
	printDays(w, r.Stays, "stays")

	headerColor.Fprintln(w, "\nExplored")
	fmt.Fprintf(w, "  %.2f km walked, %.6f km² covered\n", r.Exploration.DistanceKm, r.Exploration.AreaKm2)
	fmt.Fprintf(w, "  🌍 %.2f%% of the city\n", r.Exploration.CityPercent)
	fmt.Fprintf(w, "  🗺️ %.6f%% of the world\n", r.Exploration.WorldPercent)
}

func printPlace(w io.Writer, c *color.Color, label string, r *place.Record) {
	if r == nil {
		dimColor.Fprintf(w, "  %-9s not detected\n", label)
		return
	}
	c.Fprintf(w, "  %-9s %.5f,%.5f (%.0f min)\n", label, r.Latitude, r.Longitude, r.TimeSpent)
}

func printDays(w io.Writer, days [7]int, unit string) {
	peak := 0
	for _, n := range days {
		peak = max(peak, n)
	}
	for i, n := range days {
		bar := ""
		if peak > 0 {
			bar = strings.Repeat("█", n*20/peak)
		}
		fmt.Fprintf(w, "  %s %-20s %d %s\n", weekdays[i], bar, n, unit)
	}
}
