package analytics

import (
	"time"

	"dayboard/internal/model"
)

// recentLimit caps the event list echoed back in a Report.
const recentLimit = 10

// Snapshot is the complete input of one analysis pass.
type Snapshot struct {
	Events []model.CalendarEvent
	Tasks  []model.Task
	Now    time.Time
	// Day selects the break-suggestion day. Zero means the day of Now.
	Day time.Time
}

// Options tunes thresholds; zero fields take defaults.
type Options struct {
	MinGap  time.Duration
	Workday Workday
}

func (o Options) withDefaults() Options {
	def := DefaultWorkday()
	if o.MinGap <= 0 {
		o.MinGap = DefaultMinGap
	}
	if o.Workday.Start == 0 && o.Workday.End == 0 {
		o.Workday.Start, o.Workday.End = def.Start, def.End
	}
	if o.Workday.MinBreak <= 0 {
		o.Workday.MinBreak = def.MinBreak
	}
	return o
}

// Stats are the headline counters of the dashboard.
type Stats struct {
	TotalEvents   int     `json:"total_events"`
	TotalHours    float64 `json:"total_hours"`
	Meetings      int     `json:"meetings"`
	LearningHours float64 `json:"learning_hours"`
}

// EventSummary is one event annotated with its category.
type EventSummary struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	AllDay   bool      `json:"all_day"`
	Hours    float64   `json:"hours"`
	Category Category  `json:"category"`
	Color    string    `json:"color"`
}

// Report is the dashboard view model.
type Report struct {
	GeneratedAt       time.Time       `json:"generated_at"`
	CategoryBreakdown []TimeAnalysis  `json:"category_breakdown"`
	WeeklyTrend       []WeeklyBucket  `json:"weekly_trend"`
	ProductivityScore int             `json:"productivity_score"`
	ScoreLabel        string          `json:"score_label"`
	Insights          []string        `json:"insights"`
	Gaps              []ScheduleGap   `json:"gaps"`
	BreakSuggestion   string          `json:"break_suggestion"`
	Break             BreakSuggestion `json:"break"`
	Stats             Stats           `json:"stats"`
	Recent            []EventSummary  `json:"recent"`
	Tasks             TaskSummary     `json:"tasks"`
}

// Run performs one full analysis pass over snap. All intermediate state is
// local to the call, so concurrent passes over different snapshots are safe
// and identical inputs produce identical reports.
func Run(snap Snapshot, opts Options) Report {
	opts = opts.withDefaults()
	day := snap.Day
	if day.IsZero() {
		day = snap.Now
	}

	dist := AnalyzeDistribution(snap.Events)
	trend := BuildWeeklyTrend(snap.Events, snap.Now)
	gaps := FindGaps(snap.Events, opts.MinGap)
	score := Score(dist)
	brk := SuggestBreak(snap.Events, day, opts.Workday)

	meetings, _ := Find(dist, Meetings)

	return Report{
		GeneratedAt:       snap.Now,
		CategoryBreakdown: dist,
		WeeklyTrend:       trend,
		ProductivityScore: score,
		ScoreLabel:        ScoreLabel(score),
		Insights: GenerateInsights(InsightInput{
			Distribution: dist,
			Trend:        trend,
			Gaps:         gaps,
			Events:       snap.Events,
		}),
		Gaps:            gaps,
		BreakSuggestion: brk.String(),
		Break:           brk,
		Stats: Stats{
			TotalEvents:   len(snap.Events),
			TotalHours:    round2(TotalHours(dist)),
			Meetings:      meetings.Events,
			LearningHours: HoursOf(dist, Learning),
		},
		Recent: recent(snap.Events),
		Tasks:  SummarizeTasks(snap.Tasks, snap.Now),
	}
}

func recent(events []model.CalendarEvent) []EventSummary {
	n := len(events)
	if n > recentLimit {
		n = recentLimit
	}
	out := make([]EventSummary, 0, n)
	for _, ev := range events[:n] {
		cat := Categorize(ev.Title)
		out = append(out, EventSummary{
			ID:       ev.ID,
			Title:    ev.DisplayTitle(),
			Start:    ev.Start.Time(),
			End:      ev.EffectiveEnd(),
			AllDay:   ev.Start.IsAllDay(),
			Hours:    round2(ev.DurationHours()),
			Category: cat,
			Color:    CategoryColor(cat),
		})
	}
	return out
}
