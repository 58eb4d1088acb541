package model

import "time"

type timeKind uint8

const (
	kindAbsent timeKind = iota
	kindTimed
	kindAllDay
)

// EventTime is either a precise instant (Timed) or a calendar date with no
// time-of-day component (AllDay). The zero value means "not set", which is how
// a missing event end is represented.
type EventTime struct {
	kind timeKind
	t    time.Time
}

// Timed returns an EventTime holding a precise instant.
func Timed(t time.Time) EventTime {
	return EventTime{kind: kindTimed, t: t}
}

// AllDay returns an EventTime for the calendar date of t in t's location.
// The stored value is midnight of that date.
func AllDay(t time.Time) EventTime {
	y, m, d := t.Date()
	return EventTime{kind: kindAllDay, t: time.Date(y, m, d, 0, 0, 0, 0, t.Location())}
}

func (e EventTime) IsZero() bool   { return e.kind == kindAbsent }
func (e EventTime) IsTimed() bool  { return e.kind == kindTimed }
func (e EventTime) IsAllDay() bool { return e.kind == kindAllDay }

// Time returns the instant, or midnight of the date for all-day values.
// It returns the zero time.Time when unset.
func (e EventTime) Time() time.Time {
	return e.t
}

// In converts the underlying value into loc. All-day values keep their
// calendar date rather than shifting across midnight.
func (e EventTime) In(loc *time.Location) EventTime {
	switch e.kind {
	case kindTimed:
		return Timed(e.t.In(loc))
	case kindAllDay:
		y, m, d := e.t.Date()
		return AllDay(time.Date(y, m, d, 0, 0, 0, 0, loc))
	default:
		return e
	}
}

// CalendarEvent is a single concrete calendar entry as delivered by the
// calendar collaborator (after recurrence expansion and timezone
// normalization). Events never reach analytics without a Start.
type CalendarEvent struct {
	ID       string
	SourceID string

	Title       string
	Description string
	Location    string

	Start EventTime
	End   EventTime
}

// DisplayTitle is the title shown to users.
func (e CalendarEvent) DisplayTitle() string {
	if e.Title == "" {
		return "(No Title)"
	}
	return e.Title
}

// EffectiveEnd is the end instant, or the start when the event has no end.
func (e CalendarEvent) EffectiveEnd() time.Time {
	if e.End.IsZero() {
		return e.Start.Time()
	}
	return e.End.Time()
}

// DurationHours is end minus start in hours. A missing end or an end before
// the start yields 0.
func (e CalendarEvent) DurationHours() float64 {
	if e.End.IsZero() {
		return 0
	}
	h := e.End.Time().Sub(e.Start.Time()).Hours()
	if h < 0 {
		return 0
	}
	return h
}

// DateLayout is the civil-date format used for task due dates and the
// completion heatmap.
const DateLayout = "2006-01-02"

// Task is a user-entered to-do item. Tasks live only in process memory.
type Task struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DueDate     string     `json:"due_date,omitempty"`
	Note        string     `json:"note,omitempty"`
	Category    string     `json:"category,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Overdue reports whether an open task's due date lies before now. Due dates
// are civil dates interpreted at midnight in now's location.
func (t Task) Overdue(now time.Time) bool {
	if t.Completed || t.DueDate == "" {
		return false
	}
	due, err := time.ParseInLocation(DateLayout, t.DueDate, now.Location())
	if err != nil {
		return false
	}
	return due.Before(now)
}
