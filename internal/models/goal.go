package models

import "time"

// StudyGoal is a target number of study hours, optionally restricted to one
// subject and bounded by a deadline.
type StudyGoal struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Title          string    `json:"title"`
	Subject        string    `json:"subject,omitempty"`
	TargetHours    float64   `json:"target_hours"`
	Deadline       string    `json:"deadline,omitempty"`
	CompletedHours float64   `json:"completed_hours"`
	CreatedAt      time.Time `json:"created_at"`
}
