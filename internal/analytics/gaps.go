package analytics

import (
	"sort"
	"time"

	"dayboard/internal/model"
)

const (
	// DefaultMinGap is the idle time that must be exceeded for a schedule gap.
	DefaultMinGap = 60 * time.Minute
	// DefaultMinBreak is the shortest idle slot that counts as a break.
	DefaultMinBreak = 20 * time.Minute

	breakLayout = "03:04 PM"

	noBreakMessage = "No optimal break found in your schedule today. Try to take a break between meetings!"
)

// ScheduleGap is an idle interval between two consecutive timed events.
type ScheduleGap struct {
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	Duration time.Duration `json:"duration"`
}

// Minutes is the gap length in minutes.
func (g ScheduleGap) Minutes() float64 {
	return g.Duration.Minutes()
}

// FindGaps returns the idle intervals longer than minGap between consecutive
// timed events. All-day events are ignored, and time before the first or
// after the last event is never reported.
func FindGaps(events []model.CalendarEvent, minGap time.Duration) []ScheduleGap {
	timed := sortedTimed(events, func(model.CalendarEvent) bool { return true })

	gaps := make([]ScheduleGap, 0)
	for i := 0; i+1 < len(timed); i++ {
		from := timed[i].EffectiveEnd()
		to := timed[i+1].Start.Time()
		if gap := to.Sub(from); gap > minGap {
			gaps = append(gaps, ScheduleGap{Start: from, End: to, Duration: gap})
		}
	}
	return gaps
}

// Workday bounds the window in which breaks are suggested. Start and End are
// local clock times written as durations since 00:00, so 9*time.Hour is 09:00
// even on a DST transition day.
type Workday struct {
	Start    time.Duration
	End      time.Duration
	MinBreak time.Duration
}

// DefaultWorkday is 09:00–18:00 with a 20 minute minimum break.
func DefaultWorkday() Workday {
	return Workday{Start: 9 * time.Hour, End: 18 * time.Hour, MinBreak: DefaultMinBreak}
}

// BreakStatus tells how a BreakSuggestion was produced.
type BreakStatus string

const (
	BreakFound    BreakStatus = "found"
	BreakDefault  BreakStatus = "default"
	BreakNotFound BreakStatus = "not_found"
)

// BreakSuggestion is the single recommended break for a day.
type BreakSuggestion struct {
	Status BreakStatus `json:"status"`
	Start  time.Time   `json:"start,omitempty"`
	End    time.Time   `json:"end,omitempty"`
}

// String renders the suggestion for display, e.g. "12:00 PM - 12:30 PM".
func (b BreakSuggestion) String() string {
	if b.Status == BreakNotFound {
		return noBreakMessage
	}
	return b.Start.Format(breakLayout) + " - " + b.End.Format(breakLayout)
}

// SuggestBreak picks the largest idle slot of at least wd.MinBreak inside the
// workday of day, considering only timed events that start on day's calendar
// date (in day's location). With no such events it falls back to 12:00–12:30.
func SuggestBreak(events []model.CalendarEvent, day time.Time, wd Workday) BreakSuggestion {
	y, m, d := day.Date()
	loc := day.Location()

	todays := sortedTimed(events, func(ev model.CalendarEvent) bool {
		sy, sm, sd := ev.Start.Time().In(loc).Date()
		return sy == y && sm == m && sd == d
	})
	if len(todays) == 0 {
		return BreakSuggestion{
			Status: BreakDefault,
			Start:  wallClock(day, 12*time.Hour),
			End:    wallClock(day, 12*time.Hour+30*time.Minute),
		}
	}

	workEnd := wallClock(day, wd.End)
	lastEnd := wallClock(day, wd.Start)

	best := BreakSuggestion{Status: BreakNotFound}
	var bestLen time.Duration
	consider := func(from, to time.Time) {
		gap := to.Sub(from)
		if gap >= wd.MinBreak && gap > bestLen {
			best = BreakSuggestion{Status: BreakFound, Start: from.In(loc), End: to.In(loc)}
			bestLen = gap
		}
	}

	for _, ev := range todays {
		consider(lastEnd, ev.Start.Time())
		lastEnd = ev.EffectiveEnd()
	}
	consider(lastEnd, workEnd)

	return best
}

// wallClock is the local clock time off past midnight on day's date. On DST
// transition days this differs from midnight plus off.
func wallClock(day time.Time, off time.Duration) time.Time {
	y, m, d := day.Date()
	h := int(off / time.Hour)
	mins := int(off % time.Hour / time.Minute)
	return time.Date(y, m, d, h, mins, 0, 0, day.Location())
}

// sortedTimed returns the timed events accepted by keep, ordered by start.
func sortedTimed(events []model.CalendarEvent, keep func(model.CalendarEvent) bool) []model.CalendarEvent {
	out := make([]model.CalendarEvent, 0, len(events))
	for _, ev := range events {
		if ev.Start.IsTimed() && keep(ev) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Time().Before(out[j].Start.Time())
	})
	return out
}
