package models

import (
	"fmt"
	"sort"
	"time"

	"github.com/vytor/cognivia/internal/errors"
)

const (
	// MaxPlanSpanDays bounds StartDate..EndDate, inclusive.
	MaxPlanSpanDays = 3 * 366
	// MaxScheduleDays bounds one Occurrences expansion.
	MaxScheduleDays = 366
)

// StudyPlan is a date-ranged weekly template. It is display-only and never
// creates sessions by itself.
type StudyPlan struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Title     string     `json:"title"`
	StartDate string     `json:"start_date"`
	EndDate   string     `json:"end_date"`
	Subjects  []string   `json:"subjects"`
	Sessions  []PlanSlot `json:"sessions"`
	CreatedAt time.Time  `json:"created_at"`
}

// PlanSlot recurs every week on DayOfWeek (0 = Sunday).
type PlanSlot struct {
	DayOfWeek       int    `json:"day_of_week"`
	Time            string `json:"time"`
	Subject         string `json:"subject"`
	DurationMinutes int    `json:"duration_minutes"`
}

// PlannedOccurrence is one dated instance of a PlanSlot.
type PlannedOccurrence struct {
	Date            string `json:"date"`
	Time            string `json:"time"`
	Subject         string `json:"subject"`
	DurationMinutes int    `json:"duration_minutes"`
}

// Occurrences expands the template over [from, to] clipped to the plan's own
// range, ordered by date then time.
func (p StudyPlan) Occurrences(from, to string) ([]PlannedOccurrence, error) {
	start, err := time.Parse(DateLayout, p.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := time.Parse(DateLayout, p.EndDate)
	if err != nil {
		return nil, err
	}
	if from != "" {
		f, err := time.Parse(DateLayout, from)
		if err != nil {
			return nil, err
		}
		if f.After(start) {
			start = f
		}
	}
	if to != "" {
		t, err := time.Parse(DateLayout, to)
		if err != nil {
			return nil, err
		}
		if t.Before(end) {
			end = t
		}
	}

	// Without an explicit end the window is cut to MaxScheduleDays; an explicit
	// window wider than that is rejected.
	if days := int(end.Sub(start).Hours()/24) + 1; days > MaxScheduleDays {
		if to != "" {
			return nil, errors.NewValidationError("to", fmt.Sprintf("schedule window must not exceed %d days", MaxScheduleDays))
		}
		end = start.AddDate(0, 0, MaxScheduleDays-1)
	}

	byDay := make(map[time.Weekday][]PlanSlot)
	for _, slot := range p.Sessions {
		byDay[time.Weekday(slot.DayOfWeek)] = append(byDay[time.Weekday(slot.DayOfWeek)], slot)
	}
	for _, slots := range byDay {
		sort.SliceStable(slots, func(i, j int) bool { return slots[i].Time < slots[j].Time })
	}

	var out []PlannedOccurrence
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		for _, slot := range byDay[d.Weekday()] {
			out = append(out, PlannedOccurrence{
				Date:            d.Format(DateLayout),
				Time:            slot.Time,
				Subject:         slot.Subject,
				DurationMinutes: slot.DurationMinutes,
			})
		}
	}
	return out, nil
}
