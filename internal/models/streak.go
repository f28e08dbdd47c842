package models

import "time"

// StudyStreak is derived from completed sessions and replaced wholesale on
// every recompute.
type StudyStreak struct {
	UserID        string    `json:"user_id"`
	CurrentStreak int       `json:"current_streak"`
	LongestStreak int       `json:"longest_streak"`
	LastStudyDate string    `json:"last_study_date"`
	UpdatedAt     time.Time `json:"updated_at"`
}
