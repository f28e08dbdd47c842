package repository

import (
	"context"
	"time"

	"github.com/vytor/cognivia/internal/models"
)

// SessionRepository stores study sessions keyed by user then id. Get returns
// (nil, nil) and Delete returns false when the session does not exist.
type SessionRepository interface {
	Insert(ctx context.Context, session models.StudySession) error
	Get(ctx context.Context, userID, id string) (*models.StudySession, error)
	List(ctx context.Context, filter models.SessionFilter) ([]models.StudySession, error)
	Update(ctx context.Context, session models.StudySession) error
	UpdateBatch(ctx context.Context, sessions []models.StudySession) error
	Delete(ctx context.Context, userID, id string) (bool, error)
	UserIDsWithOpenSessions(ctx context.Context) ([]string, error)
}

// StreakRepository holds one derived streak record per user. The calendar
// service writes it after every recompute but serves reads from a fresh
// computation, so Get is for inspection, tests and other processes sharing
// the database.
type StreakRepository interface {
	Get(ctx context.Context, userID string) (*models.StudyStreak, error)
	Save(ctx context.Context, streak models.StudyStreak) error
}

// AnalyticsRepository holds one derived analytics snapshot per user. Like
// StreakRepository it is write-through from the calendar service and Get is
// not on the request path.
type AnalyticsRepository interface {
	Get(ctx context.Context, userID string) (*models.StudyAnalytics, error)
	Save(ctx context.Context, analytics models.StudyAnalytics) error
}

// PlanRepository handles study plan data access
type PlanRepository interface {
	Insert(ctx context.Context, plan models.StudyPlan) error
	Get(ctx context.Context, userID, id string) (*models.StudyPlan, error)
	List(ctx context.Context, userID string) ([]models.StudyPlan, error)
}

// ReminderRepository handles reminder data access
type ReminderRepository interface {
	Insert(ctx context.Context, reminder models.Reminder) error
	List(ctx context.Context, userID string) ([]models.Reminder, error)
	Due(ctx context.Context, now time.Time, limit int) ([]models.Reminder, error)
	MarkSent(ctx context.Context, id string) error
}

// GoalRepository handles study goal data access
type GoalRepository interface {
	Insert(ctx context.Context, goal models.StudyGoal) error
	List(ctx context.Context, userID string) ([]models.StudyGoal, error)
}
