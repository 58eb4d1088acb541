package ics

import (
	"context"
	"fmt"
	"time"

	appLog "dayboard/internal/log"
	"dayboard/internal/model"
)

// Window is the fetch range around "now" and the cap on returned events.
type Window struct {
	Days      int
	MaxEvents int
}

// Snapshot is one fetched view of all subscriptions.
type Snapshot struct {
	Events     []model.CalendarEvent
	RangeStart time.Time
	RangeEnd   time.Time
	FetchedAt  time.Time
	// Errors lists per-source failures; the snapshot is still usable.
	Errors    []error
	Truncated []string
}

// Load fetches, parses and expands every source into a single snapshot
// covering now ± w.Days, sorted by start and capped at w.MaxEvents.
// Individual source failures degrade the snapshot instead of failing it.
func Load(ctx context.Context, f *Fetcher, sources []Source, now time.Time, w Window) (Snapshot, error) {
	snap := Snapshot{
		RangeStart: now.AddDate(0, 0, -w.Days),
		RangeEnd:   now.AddDate(0, 0, w.Days),
		FetchedAt:  now,
	}

	results, errs := f.FetchAll(ctx, sources)
	snap.Errors = append(snap.Errors, errs...)

	parsed := make([]ParsedEvent, 0)
	for _, res := range results {
		events, err := ParseICS(res.Source, res.Body)
		if err != nil {
			appLog.Error("ics parse failed", err, "id", res.Source.ID)
			snap.Errors = append(snap.Errors, err)
			continue
		}
		parsed = append(parsed, events...)
	}

	expanded, err := ExpandOccurrences(parsed, ExpandConfig{
		DisplayLocation: now.Location(),
		RangeStart:      snap.RangeStart,
		RangeEnd:        snap.RangeEnd,
	})
	if err != nil {
		return snap, fmt.Errorf("ics: expand: %w", err)
	}

	snap.Events = expanded.Events
	snap.Truncated = expanded.TruncatedEvents
	if w.MaxEvents > 0 && len(snap.Events) > w.MaxEvents {
		snap.Events = snap.Events[:w.MaxEvents]
	}
	return snap, nil
}
