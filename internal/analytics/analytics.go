package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/vytor/cognivia/internal/models"
)

// DefaultDailyTargetHours is the per-day target shown in the weekly histogram.
const DefaultDailyTargetHours = 2.0

// Palette assigns subject colors in first-seen order, wrapping around.
var Palette = []string{
	"#6366F1",
	"#10B981",
	"#F59E0B",
	"#EF4444",
	"#3B82F6",
	"#8B5CF6",
	"#EC4899",
	"#14B8A6",
}

type Options struct {
	DailyTargetHours float64
}

// Compute builds the analytics snapshot for userID. It is deterministic in its
// inputs: the same sessions, now and loc always yield an equal result.
func Compute(userID string, sessions []models.StudySession, now time.Time, loc *time.Location, opts Options) models.StudyAnalytics {
	target := opts.DailyTargetHours
	if target <= 0 {
		target = DefaultDailyTargetHours
	}

	ordered := make([]models.StudySession, len(sessions))
	copy(ordered, sessions)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.ID < b.ID
	})

	var completed []models.StudySession
	for _, s := range ordered {
		if s.Status == models.StatusCompleted {
			completed = append(completed, s)
		}
	}

	progress := subjectProgress(completed)

	return models.StudyAnalytics{
		UserID:          userID,
		TotalHours:      totalHours(completed),
		TotalSessions:   len(completed),
		AverageScore:    averageScore(completed),
		SubjectsStudied: distinctSubjects(ordered),
		WeeklyHours:     weeklyHours(completed, now, loc, target),
		SubjectProgress: progress,
		Insights: models.Insights{
			MostProductiveTime: mostProductiveTime(completed),
			StrongestSubject:   strongest(progress),
			ImprovementArea:    weakest(progress),
		},
	}
}

func totalHours(completed []models.StudySession) float64 {
	minutes := 0
	for _, s := range completed {
		minutes += s.EffectiveMinutes()
	}
	return round1(float64(minutes) / 60)
}

// averageScore ignores sessions with no score or a score of zero.
func averageScore(completed []models.StudySession) float64 {
	sum, n := 0, 0
	for _, s := range completed {
		if s.Score != nil && *s.Score > 0 {
			sum += *s.Score
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return round1(float64(sum) / float64(n))
}

func distinctSubjects(sessions []models.StudySession) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, s := range sessions {
		if _, ok := seen[s.Subject]; ok {
			continue
		}
		seen[s.Subject] = struct{}{}
		out = append(out, s.Subject)
	}
	return out
}

// weeklyHours covers the seven calendar days ending today, oldest first.
func weeklyHours(completed []models.StudySession, now time.Time, loc *time.Location, target float64) []models.DailyHours {
	minutesByDate := make(map[string]int)
	for _, s := range completed {
		minutesByDate[s.Date] += s.EffectiveMinutes()
	}

	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

	out := make([]models.DailyHours, 0, 7)
	for i := 6; i >= 0; i-- {
		d := today.AddDate(0, 0, -i)
		date := d.Format(models.DateLayout)
		out = append(out, models.DailyHours{
			Date:   date,
			Day:    d.Format("Mon"),
			Hours:  round1(float64(minutesByDate[date]) / 60),
			Target: target,
		})
	}
	return out
}

func subjectProgress(completed []models.StudySession) []models.SubjectProgress {
	type acc struct {
		minutes  int
		scoreSum int
		scored   int
	}
	var order []string
	bySubject := make(map[string]*acc)
	for _, s := range completed {
		a, ok := bySubject[s.Subject]
		if !ok {
			a = &acc{}
			bySubject[s.Subject] = a
			order = append(order, s.Subject)
		}
		a.minutes += s.EffectiveMinutes()
		if s.Score != nil && *s.Score > 0 {
			a.scoreSum += *s.Score
			a.scored++
		}
	}

	out := make([]models.SubjectProgress, 0, len(order))
	for i, subject := range order {
		a := bySubject[subject]
		p := 0.0
		if a.scored > 0 {
			p = round1(float64(a.scoreSum) / float64(a.scored))
		}
		out = append(out, models.SubjectProgress{
			Subject:  subject,
			Hours:    round1(float64(a.minutes) / 60),
			Progress: p,
			Color:    Palette[i%len(Palette)],
		})
	}
	return out
}

// mostProductiveTime picks, among hours in which a session started, the one
// with the most minutes; ties go to the earlier hour.
func mostProductiveTime(completed []models.StudySession) string {
	var minutes [24]int
	var seen [24]bool
	for _, s := range completed {
		h := s.StartHour()
		if h < 0 {
			continue
		}
		minutes[h] += s.EffectiveMinutes()
		seen[h] = true
	}
	best := -1
	for h := 0; h < 24; h++ {
		if seen[h] && (best < 0 || minutes[h] > minutes[best]) {
			best = h
		}
	}
	if best < 0 {
		return ""
	}
	return fmt.Sprintf("%02d:00 - %02d:00", best, (best+1)%24)
}

func strongest(progress []models.SubjectProgress) string {
	if len(progress) == 0 {
		return ""
	}
	best := progress[0]
	for _, p := range progress[1:] {
		if p.Progress > best.Progress {
			best = p
		}
	}
	return best.Subject
}

func weakest(progress []models.SubjectProgress) string {
	if len(progress) == 0 {
		return ""
	}
	worst := progress[0]
	for _, p := range progress[1:] {
		if p.Progress < worst.Progress {
			worst = p
		}
	}
	return worst.Subject
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
