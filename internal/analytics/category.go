// Package analytics turns a calendar snapshot and the task list into the
// dashboard view model: category breakdown, weekly trend, productivity score,
// insights and a break suggestion.
//
// Every function here is a pure function of its arguments. "Now" and the
// target day are always passed in; nothing reads the wall clock.
package analytics

import "strings"

// Category is one label of the fixed event taxonomy.
type Category string

const (
	Work     Category = "Work"
	Personal Category = "Personal"
	Health   Category = "Health"
	Learning Category = "Learning"
	Meetings Category = "Meetings"
	Break    Category = "Break"
	Other    Category = "Other"
)

// Palette is the fixed display palette. Colors are handed out by index.
var Palette = []string{"#3B82F6", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6", "#06B6D4", "#84CC16", "#F97316"}

type categoryRule struct {
	category Category
	keywords []string
}

// rules is evaluated top to bottom; the first category with a matching
// keyword wins. Keyword lists overlap on purpose ("lunch", "conference"),
// so the order is part of the contract.
var rules = []categoryRule{
	{Work, []string{"work", "project", "client", "business", "office"}},
	{Personal, []string{"personal", "family", "friend", "social", "dinner", "lunch", "coffee", "date"}},
	{Health, []string{"workout", "exercise", "gym", "fitness", "health", "doctor", "medical", "therapy"}},
	{Learning, []string{"study", "course", "learning", "training", "workshop", "seminar", "conference", "reading"}},
	{Meetings, []string{"meeting", "call", "conference", "standup", "review", "sync"}},
	{Break, []string{"break", "lunch", "dinner", "coffee", "rest", "pause"}},
}

// Categories lists the taxonomy in precedence order, Other last.
func Categories() []Category {
	out := make([]Category, 0, len(rules)+1)
	for _, r := range rules {
		out = append(out, r.category)
	}
	return append(out, Other)
}

// Categorize maps an event title to a category by case-insensitive keyword
// substring match. Unmatched (and empty) titles are Other.
func Categorize(title string) Category {
	lower := strings.ToLower(title)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.category
			}
		}
	}
	return Other
}

// CategoryColor is the stable color of a category, independent of which
// categories happen to be present in a given snapshot.
func CategoryColor(c Category) string {
	for i, cat := range Categories() {
		if cat == c {
			return Palette[i%len(Palette)]
		}
	}
	return Palette[len(rules)%len(Palette)]
}
