package lifecycle_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/cognivia/internal/lifecycle"
	"github.com/vytor/cognivia/internal/models"
)

func TestDisplay(t *testing.T) {
	tests := []struct {
		name   string
		status models.SessionStatus
		now    time.Time
		want   lifecycle.StatusDisplay
	}{
		{"upcoming", models.StatusScheduled, at(8, 55), lifecycle.StatusDisplay{Label: "Starts in 1h 5m"}},
		{"window open", models.StatusScheduled, at(10, 20), lifecycle.StatusDisplay{Label: "Started 20m ago", CanStart: true}},
		{"window closed unstarted", models.StatusScheduled, at(12, 10), lifecycle.StatusDisplay{Label: "Ended 10m ago", CanStart: true}},
		{"running", models.StatusInProgress, at(11, 30), lifecycle.StatusDisplay{Label: "Ends in 30m", CanComplete: true}},
		{"overtime", models.StatusInProgress, at(12, 0).Add(90 * time.Second), lifecycle.StatusDisplay{Label: "Overtime by 1m", CanComplete: true}},
		{"completed", models.StatusCompleted, at(11, 0), lifecycle.StatusDisplay{Label: "Completed"}},
		{"cancelled", models.StatusCancelled, at(11, 0), lifecycle.StatusDisplay{Label: "Cancelled"}},
		{"missed", models.StatusMissed, at(11, 0), lifecycle.StatusDisplay{Label: "Missed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lifecycle.Display(session(tt.status), tt.now, loc))
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "<1m"},
		{7 * time.Minute, "7m"},
		{65 * time.Minute, "1h 5m"},
		{27 * time.Hour, "1d 3h"},
		{-5 * time.Minute, "5m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, lifecycle.FormatDuration(tt.d))
	}
}
