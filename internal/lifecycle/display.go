package lifecycle

import (
	"fmt"
	"time"

	"github.com/vytor/cognivia/internal/models"
)

// StatusDisplay is the human-readable state of a session at a given instant.
type StatusDisplay struct {
	Label       string `json:"label"`
	CanStart    bool   `json:"can_start"`
	CanComplete bool   `json:"can_complete"`
}

// Display computes the countdown or elapsed label for s at now.
//
// CanStart is true once the window has opened and the session is still
// scheduled. CanComplete is true whenever the session is in progress,
// including after its window has closed.
func Display(s models.StudySession, now time.Time, loc *time.Location) StatusDisplay {
	switch s.Status {
	case models.StatusCompleted:
		return StatusDisplay{Label: "Completed"}
	case models.StatusCancelled:
		return StatusDisplay{Label: "Cancelled"}
	case models.StatusMissed:
		return StatusDisplay{Label: "Missed"}
	}

	start, end, err := s.Window(loc)
	if err != nil {
		return StatusDisplay{Label: "Invalid schedule"}
	}

	if s.Status == models.StatusInProgress {
		if now.Before(end) {
			return StatusDisplay{Label: "Ends in " + FormatDuration(end.Sub(now)), CanComplete: true}
		}
		return StatusDisplay{Label: "Overtime by " + FormatDuration(now.Sub(end)), CanComplete: true}
	}

	switch {
	case now.Before(start):
		return StatusDisplay{Label: "Starts in " + FormatDuration(start.Sub(now))}
	case now.Before(end):
		return StatusDisplay{Label: "Started " + FormatDuration(now.Sub(start)) + " ago", CanStart: true}
	default:
		return StatusDisplay{Label: "Ended " + FormatDuration(now.Sub(end)) + " ago", CanStart: true}
	}
}

// FormatDuration renders d as "2d 3h", "1h 5m" or "7m", truncating to the
// minute. Anything under a minute is "<1m".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	minutes := int(d / time.Minute)
	if minutes < 1 {
		return "<1m"
	}
	days := minutes / (24 * 60)
	hours := (minutes % (24 * 60)) / 60
	mins := minutes % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, mins)
	default:
		return fmt.Sprintf("%dm", mins)
	}
}
