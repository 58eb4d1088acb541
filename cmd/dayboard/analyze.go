package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dayboard/internal/analytics"
	"dayboard/internal/config"
	"dayboard/internal/ics"
	"dayboard/internal/model"
)

type analyzeFlags struct {
	files []string
	day   string
	now   string
}

func newAnalyzeCommand(flags *rootFlags) *cobra.Command {
	af := &analyzeFlags{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run one analytics pass and print the report as JSON",
		Long: `Fetches the configured subscriptions (or reads local .ics files given
with --ics) and prints the dashboard report.

  dayboard analyze --ics work.ics --ics home.ics --day 2025-03-10`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			report, err := analyze(cmd.Context(), cfg, af)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().StringArrayVar(&af.files, "ics", nil, "Local .ics file to analyze instead of the configured subscriptions (repeatable)")
	cmd.Flags().StringVar(&af.day, "day", "", "Break-suggestion day, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&af.now, "now", "", "Override the current time, RFC3339")
	return cmd
}

func analyze(ctx context.Context, cfg *config.Config, af *analyzeFlags) (analytics.Report, error) {
	loc := cfg.Location()
	now := time.Now().In(loc)
	if af.now != "" {
		t, err := time.Parse(time.RFC3339, af.now)
		if err != nil {
			return analytics.Report{}, fmt.Errorf("--now: %w", err)
		}
		now = t.In(loc)
	}
	var day time.Time
	if af.day != "" {
		d, err := time.ParseInLocation(model.DateLayout, af.day, loc)
		if err != nil {
			return analytics.Report{}, fmt.Errorf("--day: %w", err)
		}
		day = d
	}

	var (
		events []model.CalendarEvent
		err    error
	)
	if len(af.files) > 0 {
		events, err = eventsFromFiles(af.files, now, cfg)
	} else {
		var snap ics.Snapshot
		snap, err = ics.Load(ctx, ics.NewFetcher(cfg.CacheDir, nil), sourcesFromConfig(cfg), now,
			ics.Window{Days: cfg.WindowDays, MaxEvents: cfg.MaxEvents})
		events = snap.Events
	}
	if err != nil {
		return analytics.Report{}, err
	}

	start, end := cfg.WorkdayBounds()
	return analytics.Run(analytics.Snapshot{Events: events, Now: now, Day: day}, analytics.Options{
		MinGap: time.Duration(cfg.Analytics.MinGapMinutes) * time.Minute,
		Workday: analytics.Workday{
			Start:    start,
			End:      end,
			MinBreak: time.Duration(cfg.Analytics.MinBreakMinutes) * time.Minute,
		},
	}), nil
}

func eventsFromFiles(paths []string, now time.Time, cfg *config.Config) ([]model.CalendarEvent, error) {
	var parsed []ics.ParsedEvent
	for _, p := range paths {
		body, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		id := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		evs, err := ics.ParseICS(ics.Source{ID: id, URL: p}, body)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, evs...)
	}

	res, err := ics.ExpandOccurrences(parsed, ics.ExpandConfig{
		DisplayLocation: now.Location(),
		RangeStart:      now.AddDate(0, 0, -cfg.WindowDays),
		RangeEnd:        now.AddDate(0, 0, cfg.WindowDays),
	})
	if err != nil {
		return nil, err
	}
	events := res.Events
	if cfg.MaxEvents > 0 && len(events) > cfg.MaxEvents {
		events = events[:cfg.MaxEvents]
	}
	return events, nil
}
