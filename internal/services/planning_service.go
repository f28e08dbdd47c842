package services

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vytor/cognivia/internal/errors"
	"github.com/vytor/cognivia/internal/events"
	"github.com/vytor/cognivia/internal/logger"
	"github.com/vytor/cognivia/internal/models"
	"github.com/vytor/cognivia/internal/repository"
)

// PlanService handles weekly study plan templates
type PlanService interface {
	CreatePlan(ctx context.Context, userID string, plan models.StudyPlan) (*models.StudyPlan, error)
	ListPlans(ctx context.Context, userID string) ([]models.StudyPlan, error)
	PlanSchedule(ctx context.Context, userID, id, from, to string) ([]models.PlannedOccurrence, error)
}

type planService struct {
	plans repository.PlanRepository
	now   func() time.Time
}

// NewPlanService creates a new PlanService
func NewPlanService(plans repository.PlanRepository, now func() time.Time) PlanService {
	if now == nil {
		now = time.Now
	}
	return &planService{plans: plans, now: now}
}

func (s *planService) CreatePlan(ctx context.Context, userID string, plan models.StudyPlan) (*models.StudyPlan, error) {
	log := logger.FromContext(ctx).WithUser(userID)
	log.Debug("creating plan: title=%s, %s..%s", plan.Title, plan.StartDate, plan.EndDate)

	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	plan.ID = uuid.NewString()
	plan.UserID = userID
	plan.Title = strings.TrimSpace(plan.Title)
	plan.CreatedAt = s.now()
	if plan.Subjects == nil {
		plan.Subjects = []string{}
	}
	if plan.Sessions == nil {
		plan.Sessions = []models.PlanSlot{}
	}

	if err := s.plans.Insert(ctx, plan); err != nil {
		log.Error("failed to insert plan: %v", err)
		return nil, errors.NewPersistenceError("create study plan", err)
	}
	return &plan, nil
}

func (s *planService) ListPlans(ctx context.Context, userID string) ([]models.StudyPlan, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	plans, err := s.plans.List(ctx, userID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list plans: %v", err)
		return nil, errors.NewPersistenceError("list study plans", err)
	}
	return plans, nil
}

// PlanSchedule expands the plan into dated slots between from and to, both
// optional and inclusive. Without to, at most models.MaxScheduleDays are
// expanded from the window start.
func (s *planService) PlanSchedule(ctx context.Context, userID, id, from, to string) ([]models.PlannedOccurrence, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	for field, date := range map[string]string{"from": from, "to": to} {
		if date == "" {
			continue
		}
		if _, err := time.Parse(models.DateLayout, date); err != nil {
			return nil, errors.NewValidationError(field, "must be YYYY-MM-DD")
		}
	}

	plan, err := s.plans.Get(ctx, userID, id)
	if err != nil {
		logger.FromContext(ctx).Error("failed to get plan %s: %v", id, err)
		return nil, errors.NewPersistenceError("get study plan", err)
	}
	if plan == nil {
		return nil, errors.NewNotFoundError("plan", id)
	}

	occurrences, err := plan.Occurrences(from, to)
	if err != nil {
		if errors.IsValidation(err) {
			return nil, err
		}
		return nil, errors.NewInternalError(err)
	}
	if occurrences == nil {
		occurrences = []models.PlannedOccurrence{}
	}
	return occurrences, nil
}

// ReminderService handles reminders and their delivery as events
type ReminderService interface {
	CreateReminder(ctx context.Context, userID string, reminder models.Reminder) (*models.Reminder, error)
	ListReminders(ctx context.Context, userID string) ([]models.Reminder, error)
	DispatchDue(ctx context.Context) (int, error)
}

const dispatchBatchSize = 100

type reminderService struct {
	reminders repository.ReminderRepository
	sessions  repository.SessionRepository
	publisher events.Publisher
	now       func() time.Time
}

// NewReminderService creates a new ReminderService
func NewReminderService(
	reminders repository.ReminderRepository,
	sessions repository.SessionRepository,
	publisher events.Publisher,
	now func() time.Time,
) ReminderService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if now == nil {
		now = time.Now
	}
	return &reminderService{reminders: reminders, sessions: sessions, publisher: publisher, now: now}
}

func (s *reminderService) CreateReminder(ctx context.Context, userID string, reminder models.Reminder) (*models.Reminder, error) {
	log := logger.FromContext(ctx).WithUser(userID)
	log.Debug("creating reminder: title=%s, remind_at=%s", reminder.Title, reminder.RemindAt)

	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := reminder.Validate(); err != nil {
		return nil, err
	}
	if reminder.SessionID != "" {
		session, err := s.sessions.Get(ctx, userID, reminder.SessionID)
		if err != nil {
			return nil, errors.NewPersistenceError("create reminder", err)
		}
		if session == nil {
			return nil, errors.NewNotFoundError("session", reminder.SessionID)
		}
	}

	reminder.ID = uuid.NewString()
	reminder.UserID = userID
	reminder.Title = strings.TrimSpace(reminder.Title)
	reminder.Sent = false
	reminder.CreatedAt = s.now()

	if err := s.reminders.Insert(ctx, reminder); err != nil {
		log.Error("failed to insert reminder: %v", err)
		return nil, errors.NewPersistenceError("create reminder", err)
	}
	return &reminder, nil
}

func (s *reminderService) ListReminders(ctx context.Context, userID string) ([]models.Reminder, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	reminders, err := s.reminders.List(ctx, userID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list reminders: %v", err)
		return nil, errors.NewPersistenceError("list reminders", err)
	}
	return reminders, nil
}

// DispatchDue publishes a reminder.due event for each due reminder and marks
// it sent. A reminder whose mark fails is published again on the next run.
func (s *reminderService) DispatchDue(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("reminders")

	due, err := s.reminders.Due(ctx, s.now(), dispatchBatchSize)
	if err != nil {
		log.Error("failed to load due reminders: %v", err)
		return 0, errors.NewPersistenceError("load due reminders", err)
	}

	sent := 0
	for _, r := range due {
		s.publisher.Publish(ctx, events.Event{
			Type:      events.ReminderDue,
			UserID:    r.UserID,
			SessionID: r.SessionID,
			Payload:   r,
			At:        s.now(),
		})
		if err := s.reminders.MarkSent(ctx, r.ID); err != nil {
			log.Error("failed to mark reminder %s sent: %v", r.ID, err)
			continue
		}
		sent++
	}
	if sent > 0 {
		log.Info("dispatched %d reminders", sent)
	}
	return sent, nil
}

// GoalService handles study goals and their progress
type GoalService interface {
	CreateGoal(ctx context.Context, userID string, goal models.StudyGoal) (*models.StudyGoal, error)
	ListGoals(ctx context.Context, userID string) ([]models.StudyGoal, error)
}

// SessionSweeper brings a user's stored sessions up to date with the clock.
// CalendarService satisfies it.
type SessionSweeper interface {
	SweepUser(ctx context.Context, userID string) (int, error)
}

type goalService struct {
	goals    repository.GoalRepository
	sessions repository.SessionRepository
	sweeper  SessionSweeper
	now      func() time.Time
}

// NewGoalService creates a new GoalService
func NewGoalService(goals repository.GoalRepository, sessions repository.SessionRepository, sweeper SessionSweeper, now func() time.Time) GoalService {
	if now == nil {
		now = time.Now
	}
	return &goalService{goals: goals, sessions: sessions, sweeper: sweeper, now: now}
}

func (s *goalService) CreateGoal(ctx context.Context, userID string, goal models.StudyGoal) (*models.StudyGoal, error) {
	log := logger.FromContext(ctx).WithUser(userID)
	log.Debug("creating goal: title=%s, target_hours=%.1f", goal.Title, goal.TargetHours)

	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := goal.Validate(); err != nil {
		return nil, err
	}

	goal.ID = uuid.NewString()
	goal.UserID = userID
	goal.Title = strings.TrimSpace(goal.Title)
	goal.Subject = strings.TrimSpace(goal.Subject)
	goal.CompletedHours = 0
	goal.CreatedAt = s.now()

	if err := s.goals.Insert(ctx, goal); err != nil {
		log.Error("failed to insert goal: %v", err)
		return nil, errors.NewPersistenceError("create goal", err)
	}
	return &goal, nil
}

// ListGoals fills CompletedHours from completed sessions matching the goal's
// subject (any subject when empty) dated on or before its deadline. The
// user's sessions are swept first, so a session whose window has ended
// counts before the next poller tick.
func (s *goalService) ListGoals(ctx context.Context, userID string) ([]models.StudyGoal, error) {
	log := logger.FromContext(ctx).WithUser(userID)

	if err := requireUser(userID); err != nil {
		return nil, err
	}
	goals, err := s.goals.List(ctx, userID)
	if err != nil {
		log.Error("failed to list goals: %v", err)
		return nil, errors.NewPersistenceError("list goals", err)
	}
	if len(goals) == 0 {
		return goals, nil
	}

	if s.sweeper != nil {
		if _, err := s.sweeper.SweepUser(ctx, userID); err != nil {
			log.Error("failed to sweep sessions before goal progress: %v", err)
			return nil, err
		}
	}

	completed, err := s.sessions.List(ctx, models.SessionFilter{
		UserID:   userID,
		Statuses: []models.SessionStatus{models.StatusCompleted},
	})
	if err != nil {
		log.Error("failed to list completed sessions: %v", err)
		return nil, errors.NewPersistenceError("list goals", err)
	}

	for i := range goals {
		minutes := 0
		for _, session := range completed {
			if goals[i].Subject != "" && !strings.EqualFold(goals[i].Subject, session.Subject) {
				continue
			}
			if goals[i].Deadline != "" && session.Date > goals[i].Deadline {
				continue
			}
			minutes += session.EffectiveMinutes()
		}
		goals[i].CompletedHours = math.Round(float64(minutes)/60*10) / 10
	}
	return goals, nil
}
