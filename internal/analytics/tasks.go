package analytics

import (
	"time"

	"dayboard/internal/model"
)

var weekdayAbbr = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// WeekdayCount is the number of tasks completed on one weekday.
type WeekdayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// TaskSummary is derived from the task list; tasks themselves are never
// modified.
type TaskSummary struct {
	Open      int `json:"open"`
	Completed int `json:"completed"`
	Overdue   int `json:"overdue"`
	// Streak counts consecutive days, ending today, with at least one completion.
	Streak            int            `json:"streak"`
	ByWeekday         []WeekdayCount `json:"by_weekday"`
	ByDate            map[string]int `json:"by_date"`
	MostProductiveDay string         `json:"most_productive_day,omitempty"`
	Insight           string         `json:"insight"`
}

// SummarizeTasks computes completion statistics. Dates are taken in now's
// location.
func SummarizeTasks(tasks []model.Task, now time.Time) TaskSummary {
	loc := now.Location()
	sum := TaskSummary{ByDate: make(map[string]int)}

	var weekday [7]int
	for _, t := range tasks {
		if t.Overdue(now) {
			sum.Overdue++
		}
		if !t.Completed {
			sum.Open++
			continue
		}
		sum.Completed++
		if t.CompletedAt == nil {
			continue
		}
		at := t.CompletedAt.In(loc)
		weekday[at.Weekday()]++
		sum.ByDate[at.Format(model.DateLayout)]++
	}

	sum.ByWeekday = make([]WeekdayCount, 0, 7)
	best := WeekdayCount{}
	for i, n := range weekday {
		wc := WeekdayCount{Day: weekdayAbbr[i], Count: n}
		sum.ByWeekday = append(sum.ByWeekday, wc)
		if wc.Count > best.Count {
			best = wc
		}
	}

	if best.Count > 0 {
		sum.MostProductiveDay = best.Day
		sum.Insight = "You're most productive on " + best.Day + "s!"
	} else {
		sum.Insight = "Complete some tasks to see your productivity insights."
	}

	y, m, d := now.Date()
	for {
		day := time.Date(y, m, d-sum.Streak, 0, 0, 0, 0, loc)
		if sum.ByDate[day.Format(model.DateLayout)] == 0 {
			break
		}
		sum.Streak++
	}

	return sum
}
