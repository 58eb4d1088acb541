package analytics

import (
	"math"
	"time"

	"dayboard/internal/model"
)

// TrendWeeks is the number of trailing weekly buckets in a trend.
const TrendWeeks = 8

// WeeklyBucket aggregates tracked categories over one 7-day window.
type WeeklyBucket struct {
	Week          string    `json:"week"`
	Start         time.Time `json:"start"`
	WorkHours     float64   `json:"work_hours"`
	PersonalHours float64   `json:"personal_hours"`
	MeetingHours  float64   `json:"meeting_hours"`
	// Productivity is the work share of tracked hours, 0..100.
	Productivity int `json:"productivity"`
}

// BuildWeeklyTrend buckets events into TrendWeeks trailing 7-day windows.
// The last window starts at midnight of now (in now's location); each earlier
// window starts seven calendar days before the next. An event belongs to the
// window containing its start. Output is oldest first.
func BuildWeeklyTrend(events []model.CalendarEvent, now time.Time) []WeeklyBucket {
	y, m, d := now.Date()
	out := make([]WeeklyBucket, 0, TrendWeeks)

	for i := TrendWeeks - 1; i >= 0; i-- {
		weekStart := time.Date(y, m, d-i*7, 0, 0, 0, 0, now.Location())
		weekEnd := weekStart.AddDate(0, 0, 7)

		var work, personal, meetings float64
		for _, ev := range events {
			start := ev.Start.Time()
			if start.Before(weekStart) || !start.Before(weekEnd) {
				continue
			}
			switch Categorize(ev.Title) {
			case Work:
				work += ev.DurationHours()
			case Personal:
				personal += ev.DurationHours()
			case Meetings:
				meetings += ev.DurationHours()
			}
		}

		out = append(out, WeeklyBucket{
			Week:          weekStart.Format("Jan 2"),
			Start:         weekStart,
			WorkHours:     round2(work),
			PersonalHours: round2(personal),
			MeetingHours:  round2(meetings),
			Productivity:  productivityRatio(work, personal, meetings),
		})
	}
	return out
}

func productivityRatio(work, personal, meetings float64) int {
	total := work + personal + meetings
	if total <= 0 {
		return 0
	}
	ratio := math.Round(work / total * 100)
	return int(math.Max(0, math.Min(100, ratio)))
}
