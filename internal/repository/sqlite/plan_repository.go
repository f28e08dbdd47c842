package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/vytor/cognivia/internal/logger"
	"github.com/vytor/cognivia/internal/models"
	"github.com/vytor/cognivia/internal/repository"
)

type planRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository implementation
func NewPlanRepository(db *sql.DB) repository.PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) Insert(ctx context.Context, p models.StudyPlan) error {
	log := logger.FromContext(ctx).WithPrefix("plan_repo")
	log.Debug("inserting plan: id=%s, user_id=%s, slots=%d", p.ID, p.UserID, len(p.Sessions))

	subjects, err := json.Marshal(p.Subjects)
	if err != nil {
		return err
	}
	slots, err := json.Marshal(p.Sessions)
	if err != nil {
		return err
	}

	query, args, err := sqlBuilder.Insert("study_plans").
		Columns("id", "user_id", "title", "start_date", "end_date", "subjects", "sessions", "created_at").
		Values(p.ID, p.UserID, p.Title, p.StartDate, p.EndDate, string(subjects), string(slots), p.CreatedAt.UTC()).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to insert plan: %v", err)
		return err
	}
	return nil
}

func (r *planRepository) Get(ctx context.Context, userID, id string) (*models.StudyPlan, error) {
	log := logger.FromContext(ctx).WithPrefix("plan_repo")
	log.Debug("getting plan: id=%s", id)

	p, err := scanPlan(r.db.QueryRowContext(ctx, `
SELECT id, user_id, title, start_date, end_date, subjects, sessions, created_at
FROM study_plans
WHERE id = ? AND user_id = ?
`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get plan: %v", err)
		return nil, err
	}
	return &p, nil
}

func (r *planRepository) List(ctx context.Context, userID string) ([]models.StudyPlan, error) {
	log := logger.FromContext(ctx).WithPrefix("plan_repo")

	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, title, start_date, end_date, subjects, sessions, created_at
FROM study_plans
WHERE user_id = ?
ORDER BY start_date ASC, id ASC
`, userID)
	if err != nil {
		log.Error("failed to list plans: %v", err)
		return nil, err
	}
	defer rows.Close()

	plans := []models.StudyPlan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			log.Error("failed to scan plan row: %v", err)
			return nil, err
		}
		plans = append(plans, p)
	}
	log.Debug("found %d plans", len(plans))
	return plans, rows.Err()
}

func scanPlan(row rowScanner) (models.StudyPlan, error) {
	var (
		p               models.StudyPlan
		subjects, slots string
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.StartDate, &p.EndDate, &subjects, &slots, &p.CreatedAt); err != nil {
		return p, err
	}
	if err := json.Unmarshal([]byte(subjects), &p.Subjects); err != nil {
		return p, err
	}
	if err := json.Unmarshal([]byte(slots), &p.Sessions); err != nil {
		return p, err
	}
	return p, nil
}
