package streak

import (
	"sort"
	"time"

	"github.com/vytor/cognivia/internal/models"
)

// Calculate derives the streak record from the user's sessions. Only completed
// sessions count; the current streak is kept only while the latest study day
// is today or yesterday in loc.
func Calculate(userID string, sessions []models.StudySession, now time.Time, loc *time.Location) models.StudyStreak {
	result := models.StudyStreak{UserID: userID, UpdatedAt: now}

	days := studyDays(sessions)
	if len(days) == 0 {
		return result
	}

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if daysBetween(days[i-1], days[i]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	result.LongestStreak = longest

	last := days[len(days)-1]
	result.LastStudyDate = last.Format(models.DateLayout)

	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	if daysBetween(last, today) > 1 {
		return result
	}

	current := 1
	for i := len(days) - 1; i > 0; i-- {
		if daysBetween(days[i-1], days[i]) != 1 {
			break
		}
		current++
	}
	result.CurrentStreak = current
	return result
}

// studyDays returns the distinct completed dates as UTC midnights, ascending.
func studyDays(sessions []models.StudySession) []time.Time {
	seen := make(map[string]struct{})
	var days []time.Time
	for _, s := range sessions {
		if s.Status != models.StatusCompleted {
			continue
		}
		if _, ok := seen[s.Date]; ok {
			continue
		}
		d, err := time.Parse(models.DateLayout, s.Date)
		if err != nil {
			continue
		}
		seen[s.Date] = struct{}{}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// daysBetween counts calendar days from a to b. Both are UTC midnights, so the
// division is exact.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
