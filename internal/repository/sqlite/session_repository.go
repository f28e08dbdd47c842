package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/cognivia/internal/logger"
	"github.com/vytor/cognivia/internal/models"
	"github.com/vytor/cognivia/internal/repository"
)

var sessionColumns = []string{
	"id", "user_id", "title", "subject", "topic", "type", "priority", "date", "start_time", "end_time",
	"duration_minutes", "status", "actual_start_time", "actual_end_time", "actual_duration_minutes",
	"score", "notes", "created_at", "updated_at",
}

type sessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository implementation
func NewSessionRepository(db *sql.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Insert(ctx context.Context, s models.StudySession) error {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("inserting session: id=%s, user_id=%s", s.ID, s.UserID)

	query, args, err := sqlBuilder.Insert("study_sessions").Columns(sessionColumns...).Values(
		s.ID, s.UserID, s.Title, s.Subject, s.Topic, string(s.Type), string(s.Priority), s.Date, s.StartTime, s.EndTime,
		s.DurationMinutes, string(s.Status), nullTime(s.ActualStartTime), nullTime(s.ActualEndTime), nullInt(s.ActualDurationMinutes),
		nullInt(s.Score), s.Notes, s.CreatedAt.UTC(), s.UpdatedAt.UTC(),
	).ToSql()
	if err != nil {
		log.Error("failed to build insert: %v", err)
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to insert session: %v", err)
		return err
	}
	return nil
}

func (r *sessionRepository) Get(ctx context.Context, userID, id string) (*models.StudySession, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("getting session: id=%s", id)

	query, args, err := sqlBuilder.Select(sessionColumns...).From("study_sessions").
		Where(squirrel.Eq{"id": id, "user_id": userID}).ToSql()
	if err != nil {
		return nil, err
	}

	s, err := scanSession(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("session not found: id=%s", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get session: %v", err)
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.StudySession, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("listing sessions: user_id=%s, statuses=%v, subject=%s, from=%s, to=%s",
		filter.UserID, filter.Statuses, filter.Subject, filter.FromDate, filter.ToDate)

	query := sqlBuilder.Select(sessionColumns...).From("study_sessions")
	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"user_id": filter.UserID})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		query = query.Where(squirrel.Eq{"status": statuses})
	}
	if filter.Subject != "" {
		query = query.Where(squirrel.Eq{"subject": filter.Subject})
	}
	if filter.FromDate != "" {
		query = query.Where(squirrel.GtOrEq{"date": filter.FromDate})
	}
	if filter.ToDate != "" {
		query = query.Where(squirrel.LtOrEq{"date": filter.ToDate})
	}
	query = query.OrderBy("date ASC", "start_time ASC", "id ASC")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list sessions: %v", err)
		return nil, err
	}
	defer rows.Close()

	sessions := []models.StudySession{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			log.Error("failed to scan session row: %v", err)
			return nil, err
		}
		sessions = append(sessions, s)
	}
	log.Debug("found %d sessions", len(sessions))
	return sessions, rows.Err()
}

func (r *sessionRepository) Update(ctx context.Context, s models.StudySession) error {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("updating session: id=%s, status=%s", s.ID, s.Status)

	return updateSession(ctx, r.db, s)
}

// UpdateBatch writes all sessions in one transaction.
func (r *sessionRepository) UpdateBatch(ctx context.Context, sessions []models.StudySession) error {
	if len(sessions) == 0 {
		return nil
	}
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("updating %d sessions", len(sessions))

	return tx(ctx, r.db, func(tx *sql.Tx) error {
		for _, s := range sessions {
			if err := updateSession(ctx, tx, s); err != nil {
				return err
			}
		}
		return nil
	})
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func updateSession(ctx context.Context, db execer, s models.StudySession) error {
	query, args, err := sqlBuilder.Update("study_sessions").SetMap(map[string]any{
		"title":                   s.Title,
		"subject":                 s.Subject,
		"topic":                   s.Topic,
		"type":                    string(s.Type),
		"priority":                string(s.Priority),
		"date":                    s.Date,
		"start_time":              s.StartTime,
		"end_time":                s.EndTime,
		"duration_minutes":        s.DurationMinutes,
		"status":                  string(s.Status),
		"actual_start_time":       nullTime(s.ActualStartTime),
		"actual_end_time":         nullTime(s.ActualEndTime),
		"actual_duration_minutes": nullInt(s.ActualDurationMinutes),
		"score":                   nullInt(s.Score),
		"notes":                   s.Notes,
		"updated_at":              s.UpdatedAt.UTC(),
	}).Where(squirrel.Eq{"id": s.ID, "user_id": s.UserID}).ToSql()
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("session_repo").Error("failed to update session %s: %v", s.ID, err)
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *sessionRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("deleting session: id=%s", id)

	res, err := r.db.ExecContext(ctx, `DELETE FROM study_sessions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		log.Error("failed to delete session: %v", err)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UserIDsWithOpenSessions lists users owning at least one scheduled or
// in-progress session.
func (r *sessionRepository) UserIDsWithOpenSessions(ctx context.Context) ([]string, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")

	rows, err := r.db.QueryContext(ctx, `
SELECT DISTINCT user_id FROM study_sessions
WHERE status IN (?, ?)
ORDER BY user_id
`, string(models.StatusScheduled), string(models.StatusInProgress))
	if err != nil {
		log.Error("failed to list users with open sessions: %v", err)
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	log.Debug("found %d users with open sessions", len(ids))
	return ids, rows.Err()
}

func scanSession(row rowScanner) (models.StudySession, error) {
	var (
		s                      models.StudySession
		sessionType, priority  string
		status                 string
		actualStart, actualEnd sql.NullTime
		actualDuration, score  sql.NullInt64
	)
	err := row.Scan(&s.ID, &s.UserID, &s.Title, &s.Subject, &s.Topic, &sessionType, &priority, &s.Date, &s.StartTime, &s.EndTime,
		&s.DurationMinutes, &status, &actualStart, &actualEnd, &actualDuration,
		&score, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return s, err
	}
	s.Type = models.SessionType(sessionType)
	s.Priority = models.Priority(priority)
	s.Status = models.SessionStatus(status)
	s.ActualStartTime = timePtr(actualStart)
	s.ActualEndTime = timePtr(actualEnd)
	s.ActualDurationMinutes = intPtr(actualDuration)
	s.Score = intPtr(score)
	return s, nil
}
