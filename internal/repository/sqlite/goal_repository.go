package sqlite

import (
	"context"
	"database/sql"

	"github.com/vytor/cognivia/internal/logger"
	"github.com/vytor/cognivia/internal/models"
	"github.com/vytor/cognivia/internal/repository"
)

type goalRepository struct {
	db *sql.DB
}

// NewGoalRepository creates a new GoalRepository implementation
func NewGoalRepository(db *sql.DB) repository.GoalRepository {
	return &goalRepository{db: db}
}

func (r *goalRepository) Insert(ctx context.Context, g models.StudyGoal) error {
	log := logger.FromContext(ctx).WithPrefix("goal_repo")
	log.Debug("inserting goal: id=%s, user_id=%s, target_hours=%.1f", g.ID, g.UserID, g.TargetHours)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO study_goals (id, user_id, title, subject, target_hours, deadline, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, g.ID, g.UserID, g.Title, g.Subject, g.TargetHours, g.Deadline, g.CreatedAt.UTC())
	if err != nil {
		log.Error("failed to insert goal: %v", err)
		return err
	}
	return nil
}

// List returns the user's goals. CompletedHours is left zero; it is derived
// from sessions by the caller.
func (r *goalRepository) List(ctx context.Context, userID string) ([]models.StudyGoal, error) {
	log := logger.FromContext(ctx).WithPrefix("goal_repo")

	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, title, subject, target_hours, deadline, created_at
FROM study_goals
WHERE user_id = ?
ORDER BY created_at ASC, id ASC
`, userID)
	if err != nil {
		log.Error("failed to list goals: %v", err)
		return nil, err
	}
	defer rows.Close()

	goals := []models.StudyGoal{}
	for rows.Next() {
		var g models.StudyGoal
		if err := rows.Scan(&g.ID, &g.UserID, &g.Title, &g.Subject, &g.TargetHours, &g.Deadline, &g.CreatedAt); err != nil {
			log.Error("failed to scan goal row: %v", err)
			return nil, err
		}
		goals = append(goals, g)
	}
	log.Debug("found %d goals", len(goals))
	return goals, rows.Err()
}
