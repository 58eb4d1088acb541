package analytics

import (
	"fmt"
	"math"

	"dayboard/internal/model"
)

const noEventsInsight = "No calendar events found. Add some events to get personalized insights."

// InsightInput bundles the aggregates the insight rules read. Trend is
// carried for rules over week-to-week movement; none of the current rules
// consult it.
type InsightInput struct {
	Distribution []TimeAnalysis
	Trend        []WeeklyBucket
	Gaps         []ScheduleGap
	Events       []model.CalendarEvent
}

// GenerateInsights evaluates the insight rules in a fixed order and returns
// the message of each rule that fires. An empty snapshot yields a single
// prompt to add events.
func GenerateInsights(in InsightInput) []string {
	if len(in.Events) == 0 {
		return []string{noEventsInsight}
	}

	out := make([]string, 0)

	meetings, _ := Find(in.Distribution, Meetings)
	if meetings.Events > 5 {
		out = append(out, fmt.Sprintf("You have %d meetings scheduled. Consider blocking focus time between meetings.", meetings.Events))
	}
	if meetings.Hours > 20 {
		out = append(out, fmt.Sprintf("You're spending %d hours in meetings. Consider if all meetings are necessary.", int(math.Round(meetings.Hours))))
	}

	work := HoursOf(in.Distribution, Work)
	personal := HoursOf(in.Distribution, Personal)
	if work > 0 && personal == 0 {
		out = append(out, "No personal time scheduled. Consider adding breaks and personal activities.")
	} else if work > personal*4 {
		out = append(out, "Work hours significantly outweigh personal time. Try to balance your schedule better.")
	}

	if HoursOf(in.Distribution, Health) == 0 {
		out = append(out, "No health activities scheduled. Consider adding exercise or wellness time.")
	}

	if hour, ok := PeakHour(in.Events); ok {
		out = append(out, fmt.Sprintf("Most scheduled activities are during %d:00. This might be your peak productivity time.", hour))
	}

	if n := len(in.Gaps); n > 0 {
		out = append(out, fmt.Sprintf("You have %d time gaps in your schedule. Consider using these for focused work.", n))
	}

	if total := TotalHours(in.Distribution); total > 0 && work/total*100 > 80 {
		out = append(out, "Over 80% of your time is work-related. Consider adding more variety to your schedule.")
	}

	return out
}

// PeakHour is the most common start hour (0–23) across events. Ties go to the
// earliest hour of the day.
func PeakHour(events []model.CalendarEvent) (int, bool) {
	var counts [24]int
	for _, ev := range events {
		counts[ev.Start.Time().Hour()]++
	}

	best, bestCount := 0, 0
	for h, n := range counts {
		if n > bestCount {
			best, bestCount = h, n
		}
	}
	return best, bestCount > 0
}
