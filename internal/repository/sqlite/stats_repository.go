package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/vytor/cognivia/internal/logger"
	"github.com/vytor/cognivia/internal/models"
	"github.com/vytor/cognivia/internal/repository"
)

type streakRepository struct {
	db *sql.DB
}

// NewStreakRepository creates a new StreakRepository implementation
func NewStreakRepository(db *sql.DB) repository.StreakRepository {
	return &streakRepository{db: db}
}

func (r *streakRepository) Get(ctx context.Context, userID string) (*models.StudyStreak, error) {
	log := logger.FromContext(ctx).WithPrefix("streak_repo")
	log.Debug("fetching streak: user_id=%s", userID)

	var s models.StudyStreak
	err := r.db.QueryRowContext(ctx, `
SELECT user_id, current_streak, longest_streak, last_study_date, updated_at
FROM study_streaks
WHERE user_id = ?
`, userID).Scan(&s.UserID, &s.CurrentStreak, &s.LongestStreak, &s.LastStudyDate, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("no streak stored for user %s", userID)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to fetch streak: %v", err)
		return nil, err
	}
	return &s, nil
}

// Save replaces the stored streak for the user.
func (r *streakRepository) Save(ctx context.Context, s models.StudyStreak) error {
	log := logger.FromContext(ctx).WithPrefix("streak_repo")
	log.Debug("saving streak: user_id=%s, current=%d, longest=%d", s.UserID, s.CurrentStreak, s.LongestStreak)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO study_streaks (user_id, current_streak, longest_streak, last_study_date, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
	current_streak = excluded.current_streak,
	longest_streak = excluded.longest_streak,
	last_study_date = excluded.last_study_date,
	updated_at = excluded.updated_at
`, s.UserID, s.CurrentStreak, s.LongestStreak, s.LastStudyDate, s.UpdatedAt.UTC())
	if err != nil {
		log.Error("failed to save streak: %v", err)
		return err
	}
	return nil
}

type analyticsRepository struct {
	db *sql.DB
}

// NewAnalyticsRepository creates a new AnalyticsRepository implementation.
// Snapshots are stored as a JSON document per user.
func NewAnalyticsRepository(db *sql.DB) repository.AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) Get(ctx context.Context, userID string) (*models.StudyAnalytics, error) {
	log := logger.FromContext(ctx).WithPrefix("analytics_repo")
	log.Debug("fetching analytics snapshot: user_id=%s", userID)

	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT snapshot FROM study_analytics WHERE user_id = ?`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to fetch analytics snapshot: %v", err)
		return nil, err
	}

	var a models.StudyAnalytics
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		log.Error("failed to decode analytics snapshot: %v", err)
		return nil, err
	}
	return &a, nil
}

func (r *analyticsRepository) Save(ctx context.Context, a models.StudyAnalytics) error {
	log := logger.FromContext(ctx).WithPrefix("analytics_repo")
	log.Debug("saving analytics snapshot: user_id=%s, sessions=%d", a.UserID, a.TotalSessions)

	raw, err := json.Marshal(a)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO study_analytics (user_id, snapshot, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
	snapshot = excluded.snapshot,
	updated_at = excluded.updated_at
`, a.UserID, string(raw), time.Now().UTC())
	if err != nil {
		log.Error("failed to save analytics snapshot: %v", err)
		return err
	}
	return nil
}
