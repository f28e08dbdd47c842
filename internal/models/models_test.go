package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/cognivia/internal/errors"
	"github.com/vytor/cognivia/internal/models"
)

func validSession() models.StudySession {
	return models.StudySession{
		Title:     "Linear algebra",
		Subject:   "Math",
		Type:      models.TypeStudy,
		Priority:  models.PriorityMedium,
		Date:      "2026-03-02",
		StartTime: "09:00",
		EndTime:   "10:30",
		Status:    models.StatusScheduled,
	}
}

func TestStudySession_Validate(t *testing.T) {
	score := 120
	tests := []struct {
		name   string
		mutate func(*models.StudySession)
		field  string
	}{
		{"empty title", func(s *models.StudySession) { s.Title = "  " }, "title"},
		{"empty subject", func(s *models.StudySession) { s.Subject = "" }, "subject"},
		{"bad type", func(s *models.StudySession) { s.Type = "nap" }, "type"},
		{"bad priority", func(s *models.StudySession) { s.Priority = "urgent" }, "priority"},
		{"bad date", func(s *models.StudySession) { s.Date = "02/03/2026" }, "date"},
		{"bad start", func(s *models.StudySession) { s.StartTime = "9am" }, "start_time"},
		{"end before start", func(s *models.StudySession) { s.EndTime = "08:00" }, "end_time"},
		{"end equals start", func(s *models.StudySession) { s.EndTime = "09:00" }, "end_time"},
		{"score out of range", func(s *models.StudySession) { s.Score = &score }, "score"},
	}

	assert.NoError(t, validSession().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSession()
			tt.mutate(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestStudySession_Window(t *testing.T) {
	loc := time.FixedZone("test", 2*3600)
	start, end, err := validSession().Window(loc)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2026, 3, 2, 10, 30, 0, 0, loc), end)
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, models.StatusScheduled.Terminal())
	assert.False(t, models.StatusInProgress.Terminal())
	assert.True(t, models.StatusCompleted.Terminal())
	assert.True(t, models.StatusCancelled.Terminal())
	assert.True(t, models.StatusMissed.Terminal())
}

func TestSessionPatch_RecomputesDuration(t *testing.T) {
	s := validSession()
	s.DurationMinutes = 90

	end := "11:00"
	title := "Eigenvalues"
	patched := models.SessionPatch{EndTime: &end, Title: &title}.Apply(s)

	assert.Equal(t, 120, patched.DurationMinutes)
	assert.Equal(t, "Eigenvalues", patched.Title)
	assert.Equal(t, "Math", patched.Subject)
	assert.True(t, models.SessionPatch{EndTime: &end}.TouchesSchedule())
	assert.False(t, models.SessionPatch{Title: &title}.TouchesSchedule())
}

func TestEffectiveMinutes(t *testing.T) {
	s := validSession()
	s.DurationMinutes = 90
	assert.Equal(t, 90, s.EffectiveMinutes())

	actual := 75
	s.ActualDurationMinutes = &actual
	assert.Equal(t, 75, s.EffectiveMinutes())
}

func TestStudyPlan_Occurrences(t *testing.T) {
	plan := models.StudyPlan{
		StartDate: "2026-03-01", // Sunday
		EndDate:   "2026-03-14",
		Sessions: []models.PlanSlot{
			{DayOfWeek: 1, Time: "18:00", Subject: "Physics", DurationMinutes: 60},
			{DayOfWeek: 1, Time: "08:00", Subject: "Math", DurationMinutes: 45},
			{DayOfWeek: 3, Time: "10:00", Subject: "Chemistry", DurationMinutes: 30},
		},
	}

	occ, err := plan.Occurrences("2026-03-02", "2026-03-09")
	require.NoError(t, err)
	require.Len(t, occ, 5)

	assert.Equal(t, models.PlannedOccurrence{Date: "2026-03-02", Time: "08:00", Subject: "Math", DurationMinutes: 45}, occ[0])
	assert.Equal(t, "Physics", occ[1].Subject)
	assert.Equal(t, "2026-03-04", occ[2].Date)
	assert.Equal(t, "2026-03-09", occ[3].Date)
	assert.Equal(t, "2026-03-09", occ[4].Date)
}

func TestStudyPlan_OccurrencesClippedToPlan(t *testing.T) {
	plan := models.StudyPlan{
		StartDate: "2026-03-02",
		EndDate:   "2026-03-03",
		Sessions:  []models.PlanSlot{{DayOfWeek: 2, Time: "09:00", Subject: "Art", DurationMinutes: 30}},
	}

	occ, err := plan.Occurrences("2026-01-01", "2026-12-31")
	require.NoError(t, err)
	require.Len(t, occ, 1)
	assert.Equal(t, "2026-03-03", occ[0].Date)
}

func TestStudyPlan_OccurrencesWindowBounded(t *testing.T) {
	plan := models.StudyPlan{
		StartDate: "2026-01-01",
		EndDate:   "2028-12-31",
		Sessions:  []models.PlanSlot{{DayOfWeek: 4, Time: "09:00", Subject: "Math", DurationMinutes: 30}},
	}

	occ, err := plan.Occurrences("", "")
	require.NoError(t, err)
	require.NotEmpty(t, occ)
	assert.Equal(t, "2026-01-01", occ[0].Date)
	// The window stops at 2027-01-01; the last Thursday before it is 2026-12-31.
	assert.Equal(t, "2026-12-31", occ[len(occ)-1].Date)
	assert.Len(t, occ, 53)

	_, err = plan.Occurrences("2026-01-01", "2027-06-30")
	assert.True(t, errors.IsValidation(err))

	occ, err = plan.Occurrences("2027-01-01", "2027-12-31")
	require.NoError(t, err)
	assert.NotEmpty(t, occ)
}

func TestStudyPlan_Validate(t *testing.T) {
	valid := models.StudyPlan{
		Title:     "Finals",
		StartDate: "2026-03-02",
		EndDate:   "2026-03-30",
		Sessions:  []models.PlanSlot{{DayOfWeek: 1, Time: "09:00", Subject: "Math", DurationMinutes: 60}},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(p *models.StudyPlan)
	}{
		{"empty title", func(p *models.StudyPlan) { p.Title = " " }},
		{"bad start", func(p *models.StudyPlan) { p.StartDate = "03/02/2026" }},
		{"end before start", func(p *models.StudyPlan) { p.EndDate = "2026-03-01" }},
		{"bad weekday", func(p *models.StudyPlan) { p.Sessions[0].DayOfWeek = 7 }},
		{"bad time", func(p *models.StudyPlan) { p.Sessions[0].Time = "9am" }},
		{"zero duration", func(p *models.StudyPlan) { p.Sessions[0].DurationMinutes = 0 }},
		{"span too long", func(p *models.StudyPlan) { p.StartDate, p.EndDate = "0001-01-01", "9999-12-31" }},
		{"span one day over", func(p *models.StudyPlan) { p.EndDate = "2029-03-04" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			p.Sessions = append([]models.PlanSlot(nil), valid.Sessions...)
			tt.mutate(&p)
			assert.True(t, errors.IsValidation(p.Validate()))
		})
	}
}

func TestReminderAndGoal_Validate(t *testing.T) {
	assert.True(t, errors.IsValidation(models.Reminder{Title: "Review"}.Validate()))
	assert.NoError(t, models.Reminder{Title: "Review", RemindAt: time.Now()}.Validate())

	assert.True(t, errors.IsValidation(models.StudyGoal{Title: "Math", TargetHours: 0}.Validate()))
	assert.True(t, errors.IsValidation(models.StudyGoal{Title: "Math", TargetHours: 5, Deadline: "soon"}.Validate()))
	assert.NoError(t, models.StudyGoal{Title: "Math", TargetHours: 5, Deadline: "2026-06-01"}.Validate())
}
