package models

// StudyAnalytics is a fully derived snapshot of a user's study history.
type StudyAnalytics struct {
	UserID          string            `json:"user_id"`
	TotalHours      float64           `json:"total_hours"`
	TotalSessions   int               `json:"total_sessions"`
	AverageScore    float64           `json:"average_score"`
	SubjectsStudied []string          `json:"subjects_studied"`
	WeeklyHours     []DailyHours      `json:"weekly_hours"`
	SubjectProgress []SubjectProgress `json:"subject_progress"`
	Insights        Insights          `json:"insights"`
}

type DailyHours struct {
	Date   string  `json:"date"`
	Day    string  `json:"day"`
	Hours  float64 `json:"hours"`
	Target float64 `json:"target"`
}

type SubjectProgress struct {
	Subject  string  `json:"subject"`
	Hours    float64 `json:"hours"`
	Progress float64 `json:"progress"`
	Color    string  `json:"color"`
}

type Insights struct {
	MostProductiveTime string `json:"most_productive_time"`
	StrongestSubject   string `json:"strongest_subject"`
	ImprovementArea    string `json:"improvement_area"`
}
