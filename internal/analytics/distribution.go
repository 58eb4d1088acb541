package analytics

import (
	"math"
	"sort"

	"dayboard/internal/model"
)

// TimeAnalysis is the time spent in one category across a snapshot.
type TimeAnalysis struct {
	Category   Category `json:"category"`
	Hours      float64  `json:"hours"`
	Percentage int      `json:"percentage"`
	Events     int      `json:"events"`
	Color      string   `json:"color"`
}

// AnalyzeDistribution aggregates event durations per category.
//
// Only categories that occur in events are returned, sorted by hours
// (descending, stable). Colors follow the order in which categories were first
// seen. Percentages are 0 when the snapshot has no measurable time.
func AnalyzeDistribution(events []model.CalendarEvent) []TimeAnalysis {
	order := make([]Category, 0, len(rules)+1)
	hours := make(map[Category]float64)
	counts := make(map[Category]int)

	for _, ev := range events {
		cat := Categorize(ev.Title)
		if _, seen := counts[cat]; !seen {
			order = append(order, cat)
		}
		hours[cat] += ev.DurationHours()
		counts[cat]++
	}

	var total float64
	for _, cat := range order {
		total += hours[cat]
	}

	out := make([]TimeAnalysis, 0, len(order))
	for i, cat := range order {
		out = append(out, TimeAnalysis{
			Category:   cat,
			Hours:      round2(hours[cat]),
			Percentage: percentOf(hours[cat], total),
			Events:     counts[cat],
			Color:      Palette[i%len(Palette)],
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Hours > out[j].Hours })
	return out
}

// Find returns the entry for c, if present.
func Find(dist []TimeAnalysis, c Category) (TimeAnalysis, bool) {
	for _, ta := range dist {
		if ta.Category == c {
			return ta, true
		}
	}
	return TimeAnalysis{}, false
}

// HoursOf returns the hours recorded for c, or 0.
func HoursOf(dist []TimeAnalysis, c Category) float64 {
	ta, _ := Find(dist, c)
	return ta.Hours
}

// TotalHours sums the hours over all entries.
func TotalHours(dist []TimeAnalysis) float64 {
	var sum float64
	for _, ta := range dist {
		sum += ta.Hours
	}
	return sum
}

func percentOf(part, total float64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(part / total * 100))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
