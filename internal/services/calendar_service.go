package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vytor/cognivia/internal/analytics"
	"github.com/vytor/cognivia/internal/errors"
	"github.com/vytor/cognivia/internal/events"
	"github.com/vytor/cognivia/internal/lifecycle"
	"github.com/vytor/cognivia/internal/logger"
	"github.com/vytor/cognivia/internal/metrics"
	"github.com/vytor/cognivia/internal/models"
	"github.com/vytor/cognivia/internal/repository"
	"github.com/vytor/cognivia/internal/streak"
)

// CalendarService handles study session lifecycle and the derived streak and
// analytics snapshots.
type CalendarService interface {
	CreateSession(ctx context.Context, userID string, in models.NewSessionInput) (*models.StudySession, error)
	GetSession(ctx context.Context, userID, id string) (*models.StudySession, error)
	ListSessions(ctx context.Context, userID string, filter models.SessionFilter) ([]models.StudySession, error)
	UpcomingSessions(ctx context.Context, userID string) ([]models.StudySession, error)
	PastSessions(ctx context.Context, userID string) ([]models.StudySession, error)
	UpdateSession(ctx context.Context, userID, id string, patch models.SessionPatch) (*models.StudySession, error)
	DeleteSession(ctx context.Context, userID, id string) (bool, error)
	StartSession(ctx context.Context, userID, id string) (*models.StudySession, error)
	CompleteSession(ctx context.Context, userID, id string, score *int, notes *string) (*models.StudySession, error)
	CancelSession(ctx context.Context, userID, id string) (*models.StudySession, error)
	SessionStatus(ctx context.Context, userID, id string) (*SessionStatusView, error)
	Streak(ctx context.Context, userID string) (*models.StudyStreak, error)
	Analytics(ctx context.Context, userID string) (*models.StudyAnalytics, error)
	SweepUser(ctx context.Context, userID string) (int, error)
}

// SessionStatusView pairs a session with its display state.
type SessionStatusView struct {
	Session models.StudySession     `json:"session"`
	Display lifecycle.StatusDisplay `json:"display"`
}

// CalendarOptions configures time handling and analytics targets.
type CalendarOptions struct {
	Location         *time.Location
	Now              func() time.Time
	DailyTargetHours float64
}

type calendarService struct {
	sessions  repository.SessionRepository
	streaks   repository.StreakRepository
	analytics repository.AnalyticsRepository
	publisher events.Publisher
	locks     *userLocks
	loc       *time.Location
	now       func() time.Time
	target    float64
}

// NewCalendarService creates a new CalendarService
func NewCalendarService(
	sessions repository.SessionRepository,
	streaks repository.StreakRepository,
	analyticsRepo repository.AnalyticsRepository,
	publisher events.Publisher,
	opts CalendarOptions,
) CalendarService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DailyTargetHours <= 0 {
		opts.DailyTargetHours = analytics.DefaultDailyTargetHours
	}
	return &calendarService{
		sessions:  sessions,
		streaks:   streaks,
		analytics: analyticsRepo,
		publisher: publisher,
		locks:     newUserLocks(),
		loc:       opts.Location,
		now:       opts.Now,
		target:    opts.DailyTargetHours,
	}
}

func (s *calendarService) CreateSession(ctx context.Context, userID string, in models.NewSessionInput) (*models.StudySession, error) {
	log := logger.FromContext(ctx).WithUser(userID)
	log.Debug("creating session: title=%s, date=%s %s-%s", in.Title, in.Date, in.StartTime, in.EndTime)

	if err := requireUser(userID); err != nil {
		return nil, err
	}

	now := s.now()
	session := models.StudySession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     strings.TrimSpace(in.Title),
		Subject:   strings.TrimSpace(in.Subject),
		Topic:     strings.TrimSpace(in.Topic),
		Type:      in.Type,
		Priority:  in.Priority,
		Date:      in.Date,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Status:    models.StatusScheduled,
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if session.Type == "" {
		session.Type = models.TypeStudy
	}
	if session.Priority == "" {
		session.Priority = models.PriorityMedium
	}
	if err := session.Validate(); err != nil {
		return nil, err
	}
	session.DurationMinutes, _ = models.PlannedMinutes(session.StartTime, session.EndTime)

	// A session created inside or after its window is stored already advanced.
	scheduled := session
	advanced, changed := lifecycle.Advance(session, now, s.loc)
	if changed {
		session = advanced
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	if err := s.sessions.Insert(ctx, session); err != nil {
		log.Error("failed to insert session: %v", err)
		return nil, errors.NewPersistenceError("create session", err)
	}
	s.publish(ctx, events.SessionCreated, session)
	if changed {
		s.recordTransition(ctx, scheduled, session)
	}

	if _, err := s.recomputeLocked(ctx, userID); err != nil {
		log.Warn("recompute after create failed: %v", err)
	}
	log.Info("session created: id=%s, status=%s", session.ID, session.Status)
	return &session, nil
}

func (s *calendarService) GetSession(ctx context.Context, userID, id string) (*models.StudySession, error) {
	log := logger.FromContext(ctx).WithUser(userID)
	log.Debug("getting session: id=%s", id)

	if err := requireUser(userID); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	return s.getLocked(ctx, userID, id)
}

func (s *calendarService) ListSessions(ctx context.Context, userID string, filter models.SessionFilter) ([]models.StudySession, error) {
	log := logger.FromContext(ctx).WithUser(userID)
	log.Debug("listing sessions: statuses=%v, subject=%s", filter.Statuses, filter.Subject)

	if err := requireUser(userID); err != nil {
		return nil, err
	}
	for _, st := range filter.Statuses {
		if !st.Valid() {
			return nil, errors.NewValidationError("status", "unknown status "+string(st))
		}
	}
	for field, date := range map[string]string{"from": filter.FromDate, "to": filter.ToDate} {
		if date == "" {
			continue
		}
		if _, err := time.Parse(models.DateLayout, date); err != nil {
			return nil, errors.NewValidationError(field, "must be YYYY-MM-DD")
		}
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	if _, err := s.sweepLocked(ctx, userID); err != nil {
		return nil, err
	}

	filter.UserID = userID
	sessions, err := s.sessions.List(ctx, filter)
	if err != nil {
		log.Error("failed to list sessions: %v", err)
		return nil, errors.NewPersistenceError("list sessions", err)
	}
	return sessions, nil
}

// UpcomingSessions returns scheduled and running sessions in start order.
func (s *calendarService) UpcomingSessions(ctx context.Context, userID string) ([]models.StudySession, error) {
	return s.ListSessions(ctx, userID, models.SessionFilter{
		Statuses: []models.SessionStatus{models.StatusScheduled, models.StatusInProgress},
	})
}

// PastSessions returns terminal sessions, most recent first.
func (s *calendarService) PastSessions(ctx context.Context, userID string) ([]models.StudySession, error) {
	sessions, err := s.ListSessions(ctx, userID, models.SessionFilter{
		Statuses: []models.SessionStatus{models.StatusCompleted, models.StatusMissed, models.StatusCancelled},
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		if a.StartTime != b.StartTime {
			return a.StartTime > b.StartTime
		}
		return a.ID > b.ID
	})
	return sessions, nil
}

// UpdateSession applies a partial patch. A status in the patch is routed
// through the lifecycle rules; rescheduling is only allowed while the session
// is still scheduled.
func (s *calendarService) UpdateSession(ctx context.Context, userID, id string, patch models.SessionPatch) (*models.StudySession, error) {
	log := logger.FromContext(ctx).WithUser(userID)
	log.Debug("updating session: id=%s", id)

	if err := requireUser(userID); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	current, err := s.getLocked(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if patch.TouchesSchedule() && current.Status != models.StatusScheduled {
		return nil, errors.NewValidationError("date", "only scheduled sessions can be rescheduled")
	}

	now := s.now()
	status := patch.Status
	patch.Status = nil
	updated := patch.Apply(*current)
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	if status != nil && *status != updated.Status {
		switch *status {
		case models.StatusInProgress:
			updated, err = lifecycle.Start(updated, now)
		case models.StatusCompleted:
			updated, err = lifecycle.Complete(updated, now, nil, nil)
		case models.StatusCancelled:
			updated, err = lifecycle.Cancel(updated, now)
		default:
			err = errors.NewValidationError("status", "cannot set status to "+string(*status))
		}
		if err != nil {
			return nil, err
		}
	}
	updated.UpdatedAt = now
	if advanced, changed := lifecycle.Advance(updated, now, s.loc); changed {
		updated = advanced
	}

	if err := s.sessions.Update(ctx, updated); err != nil {
		log.Error("failed to update session: %v", err)
		return nil, errors.NewPersistenceError("update session", err)
	}
	if updated.Status != current.Status {
		s.recordTransition(ctx, *current, updated)
	}
	s.publish(ctx, events.SessionUpdated, updated)

	if _, err := s.recomputeLocked(ctx, userID); err != nil {
		log.Warn("recompute after update failed: %v", err)
	}
	return &updated, nil
}

// DeleteSession reports false without error when the session does not exist.
func (s *calendarService) DeleteSession(ctx context.Context, userID, id string) (bool, error) {
	log := logger.FromContext(ctx).WithUser(userID)
	log.Debug("deleting session: id=%s", id)

	if err := requireUser(userID); err != nil {
		return false, err
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	deleted, err := s.sessions.Delete(ctx, userID, id)
	if err != nil {
		log.Error("failed to delete session: %v", err)
		return false, errors.NewPersistenceError("delete session", err)
	}
	if !deleted {
		log.Debug("session %s not found, nothing deleted", id)
		return false, nil
	}

	s.publisher.Publish(ctx, events.Event{Type: events.SessionDeleted, UserID: userID, SessionID: id, At: s.now()})
	if _, err := s.recomputeLocked(ctx, userID); err != nil {
		log.Warn("recompute after delete failed: %v", err)
	}
	log.Info("session deleted: id=%s", id)
	return true, nil
}

func (s *calendarService) StartSession(ctx context.Context, userID, id string) (*models.StudySession, error) {
	return s.transition(ctx, userID, id, "start session", func(cur models.StudySession, now time.Time) (models.StudySession, error) {
		return lifecycle.Start(cur, now)
	})
}

func (s *calendarService) CompleteSession(ctx context.Context, userID, id string, score *int, notes *string) (*models.StudySession, error) {
	return s.transition(ctx, userID, id, "complete session", func(cur models.StudySession, now time.Time) (models.StudySession, error) {
		return lifecycle.Complete(cur, now, score, notes)
	})
}

func (s *calendarService) CancelSession(ctx context.Context, userID, id string) (*models.StudySession, error) {
	return s.transition(ctx, userID, id, "cancel session", func(cur models.StudySession, now time.Time) (models.StudySession, error) {
		return lifecycle.Cancel(cur, now)
	})
}

func (s *calendarService) transition(
	ctx context.Context,
	userID, id, action string,
	apply func(models.StudySession, time.Time) (models.StudySession, error),
) (*models.StudySession, error) {
	log := logger.FromContext(ctx).WithUser(userID)
	log.Debug("%s: id=%s", action, id)

	if err := requireUser(userID); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	current, err := s.getLocked(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	updated, err := apply(*current, s.now())
	if err != nil {
		log.Debug("%s rejected: %v", action, err)
		return nil, err
	}
	if err := s.sessions.Update(ctx, updated); err != nil {
		log.Error("failed to %s: %v", action, err)
		return nil, errors.NewPersistenceError(action, err)
	}
	s.recordTransition(ctx, *current, updated)

	if _, err := s.recomputeLocked(ctx, userID); err != nil {
		log.Warn("recompute after %s failed: %v", action, err)
	}
	return &updated, nil
}

func (s *calendarService) SessionStatus(ctx context.Context, userID, id string) (*SessionStatusView, error) {
	session, err := s.GetSession(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return &SessionStatusView{
		Session: *session,
		Display: lifecycle.Display(*session, s.now(), s.loc),
	}, nil
}

// Streak is recomputed from the session history on every read.
func (s *calendarService) Streak(ctx context.Context, userID string) (*models.StudyStreak, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	sessions, err := s.sweepLocked(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := streak.Calculate(userID, sessions, s.now(), s.loc)
	return &result, nil
}

func (s *calendarService) Analytics(ctx context.Context, userID string) (*models.StudyAnalytics, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	sessions, err := s.sweepLocked(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := analytics.Compute(userID, sessions, s.now(), s.loc, analytics.Options{DailyTargetHours: s.target})
	return &result, nil
}

// SweepUser advances every open session of userID against the clock and
// returns how many changed.
func (s *calendarService) SweepUser(ctx context.Context, userID string) (int, error) {
	if err := requireUser(userID); err != nil {
		return 0, err
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	before, err := s.listAll(ctx, userID)
	if err != nil {
		return 0, err
	}
	changed, err := s.advanceLocked(ctx, userID, before)
	if err != nil {
		return 0, err
	}
	return len(changed), nil
}

func (s *calendarService) getLocked(ctx context.Context, userID, id string) (*models.StudySession, error) {
	session, err := s.sessions.Get(ctx, userID, id)
	if err != nil {
		logger.FromContext(ctx).Error("failed to get session %s: %v", id, err)
		return nil, errors.NewPersistenceError("get session", err)
	}
	if session == nil {
		return nil, errors.NewNotFoundError("session", id)
	}

	advanced, changed := lifecycle.Advance(*session, s.now(), s.loc)
	if !changed {
		return session, nil
	}
	if err := s.sessions.Update(ctx, advanced); err != nil {
		return nil, errors.NewPersistenceError("get session", err)
	}
	s.recordTransition(ctx, *session, advanced)
	if _, err := s.recomputeLocked(ctx, userID); err != nil {
		logger.FromContext(ctx).Warn("recompute after lazy advance failed: %v", err)
	}
	return &advanced, nil
}

// sweepLocked advances the user's sessions and returns the full, current
// collection.
func (s *calendarService) sweepLocked(ctx context.Context, userID string) ([]models.StudySession, error) {
	sessions, err := s.listAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	changed, err := s.advanceLocked(ctx, userID, sessions)
	if err != nil {
		return nil, err
	}
	if len(changed) == 0 {
		return sessions, nil
	}
	byID := make(map[string]models.StudySession, len(changed))
	for _, c := range changed {
		byID[c.ID] = c
	}
	for i := range sessions {
		if c, ok := byID[sessions[i].ID]; ok {
			sessions[i] = c
		}
	}
	return sessions, nil
}

// advanceLocked persists every session that the clock moved, in one batch,
// then recomputes the snapshots. It returns the changed sessions.
func (s *calendarService) advanceLocked(ctx context.Context, userID string, sessions []models.StudySession) ([]models.StudySession, error) {
	log := logger.FromContext(ctx).WithUser(userID)
	now := s.now()

	var changed, previous []models.StudySession
	for _, session := range sessions {
		if advanced, ok := lifecycle.Advance(session, now, s.loc); ok {
			previous = append(previous, session)
			changed = append(changed, advanced)
		}
	}
	if len(changed) == 0 {
		return nil, nil
	}

	if err := s.sessions.UpdateBatch(ctx, changed); err != nil {
		log.Error("failed to persist %d advanced sessions: %v", len(changed), err)
		return nil, errors.NewPersistenceError("advance sessions", err)
	}
	for i := range changed {
		s.recordTransition(ctx, previous[i], changed[i])
	}
	log.Info("advanced %d sessions", len(changed))

	if _, err := s.recomputeLocked(ctx, userID); err != nil {
		log.Warn("recompute after sweep failed: %v", err)
	}
	return changed, nil
}

func (s *calendarService) listAll(ctx context.Context, userID string) ([]models.StudySession, error) {
	sessions, err := s.sessions.List(ctx, models.SessionFilter{UserID: userID})
	if err != nil {
		logger.FromContext(ctx).Error("failed to list sessions for %s: %v", userID, err)
		return nil, errors.NewPersistenceError("list sessions", err)
	}
	return sessions, nil
}

// recomputeLocked rebuilds and stores the user's streak and analytics. Storing
// the snapshots is best effort: failures are logged and the computed values
// are still returned.
func (s *calendarService) recomputeLocked(ctx context.Context, userID string) (*models.StudyAnalytics, error) {
	log := logger.FromContext(ctx).WithUser(userID)
	start := time.Now()
	defer func() { metrics.RecomputeDuration.Observe(time.Since(start).Seconds()) }()

	sessions, err := s.listAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()

	st := streak.Calculate(userID, sessions, now, s.loc)
	if err := s.streaks.Save(ctx, st); err != nil {
		log.Error("failed to save streak snapshot: %v", err)
	}

	snapshot := analytics.Compute(userID, sessions, now, s.loc, analytics.Options{DailyTargetHours: s.target})
	if err := s.analytics.Save(ctx, snapshot); err != nil {
		log.Error("failed to save analytics snapshot: %v", err)
	}

	s.publisher.Publish(ctx, events.Event{Type: events.AnalyticsUpdated, UserID: userID, Payload: snapshot, At: now})
	log.Debug("recomputed snapshots: sessions=%d, current_streak=%d", len(sessions), st.CurrentStreak)
	return &snapshot, nil
}

func (s *calendarService) recordTransition(ctx context.Context, before, after models.StudySession) {
	if before.Status == after.Status {
		return
	}
	metrics.SessionTransitions.WithLabelValues(string(before.Status), string(after.Status)).Inc()
	logger.FromContext(ctx).Debug("session %s: %s -> %s", after.ID, before.Status, after.Status)
	s.publisher.Publish(ctx, events.Event{
		Type:      events.SessionTransitioned,
		UserID:    after.UserID,
		SessionID: after.ID,
		Payload:   map[string]any{"from": before.Status, "to": after.Status, "session": after},
		At:        s.now(),
	})
}

func (s *calendarService) publish(ctx context.Context, t events.Type, session models.StudySession) {
	s.publisher.Publish(ctx, events.Event{Type: t, UserID: session.UserID, SessionID: session.ID, Payload: session, At: s.now()})
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return errors.NewUnauthenticatedError("no user identity")
	}
	return nil
}
