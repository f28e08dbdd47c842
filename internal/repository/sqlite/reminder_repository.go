package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/cognivia/internal/logger"
	"github.com/vytor/cognivia/internal/models"
	"github.com/vytor/cognivia/internal/repository"
)

type reminderRepository struct {
	db *sql.DB
}

// NewReminderRepository creates a new ReminderRepository implementation
func NewReminderRepository(db *sql.DB) repository.ReminderRepository {
	return &reminderRepository{db: db}
}

func (r *reminderRepository) Insert(ctx context.Context, rem models.Reminder) error {
	log := logger.FromContext(ctx).WithPrefix("reminder_repo")
	log.Debug("inserting reminder: id=%s, user_id=%s, remind_at=%s", rem.ID, rem.UserID, rem.RemindAt)

	query, args, err := sqlBuilder.Insert("reminders").
		Columns("id", "user_id", "session_id", "title", "remind_at", "sent", "created_at").
		Values(rem.ID, rem.UserID, rem.SessionID, rem.Title, rem.RemindAt.UTC(), rem.Sent, rem.CreatedAt.UTC()).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to insert reminder: %v", err)
		return err
	}
	return nil
}

func (r *reminderRepository) List(ctx context.Context, userID string) ([]models.Reminder, error) {
	log := logger.FromContext(ctx).WithPrefix("reminder_repo")

	query, args, err := sqlBuilder.Select("id", "user_id", "session_id", "title", "remind_at", "sent", "created_at").
		From("reminders").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("remind_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	reminders, err := r.query(ctx, query, args...)
	if err != nil {
		log.Error("failed to list reminders: %v", err)
		return nil, err
	}
	log.Debug("found %d reminders for user %s", len(reminders), userID)
	return reminders, nil
}

// Due returns unsent reminders whose remind_at is not after now, oldest first.
func (r *reminderRepository) Due(ctx context.Context, now time.Time, limit int) ([]models.Reminder, error) {
	log := logger.FromContext(ctx).WithPrefix("reminder_repo")

	builder := sqlBuilder.Select("id", "user_id", "session_id", "title", "remind_at", "sent", "created_at").
		From("reminders").
		Where(squirrel.Eq{"sent": false}).
		Where(squirrel.LtOrEq{"remind_at": now.UTC()}).
		OrderBy("remind_at ASC", "id ASC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	reminders, err := r.query(ctx, query, args...)
	if err != nil {
		log.Error("failed to query due reminders: %v", err)
		return nil, err
	}
	log.Debug("found %d due reminders", len(reminders))
	return reminders, nil
}

func (r *reminderRepository) MarkSent(ctx context.Context, id string) error {
	log := logger.FromContext(ctx).WithPrefix("reminder_repo")
	log.Debug("marking reminder sent: id=%s", id)

	if _, err := r.db.ExecContext(ctx, `UPDATE reminders SET sent = 1 WHERE id = ?`, id); err != nil {
		log.Error("failed to mark reminder sent: %v", err)
		return err
	}
	return nil
}

func (r *reminderRepository) query(ctx context.Context, query string, args ...any) ([]models.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reminders := []models.Reminder{}
	for rows.Next() {
		var rem models.Reminder
		if err := rows.Scan(&rem.ID, &rem.UserID, &rem.SessionID, &rem.Title, &rem.RemindAt, &rem.Sent, &rem.CreatedAt); err != nil {
			return nil, err
		}
		reminders = append(reminders, rem)
	}
	return reminders, rows.Err()
}
