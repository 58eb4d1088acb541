package analytics

// Score rates how well the category totals match the target allocation,
// from 0 to 100. An empty distribution scores 0.
func Score(dist []TimeAnalysis) int {
	if len(dist) == 0 {
		return 0
	}

	work := HoursOf(dist, Work)
	meetings := HoursOf(dist, Meetings)
	learning := HoursOf(dist, Learning)

	score := 0
	if work >= 30 && work <= 50 {
		score += 30
	}
	if meetings <= work*0.3 {
		score += 25
	}
	if learning >= 5 {
		score += 20
	}
	if _, ok := Find(dist, Health); ok {
		score += 15
	}
	if _, ok := Find(dist, Personal); ok {
		score += 10
	}

	if score > 100 {
		return 100
	}
	return score
}

// ScoreLabel is the short assessment shown next to a score.
func ScoreLabel(score int) string {
	switch {
	case score >= 80:
		return "Excellent! You're maintaining great work-life balance."
	case score >= 60:
		return "Good progress! Consider optimizing your schedule."
	default:
		return "Room for improvement. Focus on time management and breaks."
	}
}
