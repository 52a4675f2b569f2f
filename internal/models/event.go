package models

import "time"

// Event lifecycle statuses as displayed in tables
const (
	EventActive   = "Активно"
	EventInactive = "Неактивно"
)

// Specialization is a selectable profile for event applications
type Specialization struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Event is a top-level organized activity with a lifecycle window
// and an application deadline. Status is derived, never stored.
type Event struct {
	ID              int64            `json:"id"`
	Title           string           `json:"title"`
	Description     string           `json:"description,omitempty"`
	StartDate       string           `json:"startDate,omitempty"`
	EndDate         string           `json:"endDate,omitempty"`
	ApplyDeadline   string           `json:"applyDeadline,omitempty"`
	Stage           string           `json:"stage,omitempty"`
	LeaderID        int64            `json:"leaderId,omitempty"`
	Organizer       string           `json:"organizer,omitempty"`
	Specializations []Specialization `json:"specializations,omitempty"`
	Status          string           `json:"status,omitempty"`
	ChatLink        string           `json:"chatLink,omitempty"`
}

// ComputeStatus derives the display status from the end date:
// active while endDate has not passed, inactive otherwise.
// An absent or unparseable end date means inactive.
func ComputeStatus(endDate string, now time.Time) string {
	if endDate == "" {
		return EventInactive
	}
	end, err := ParseDate(endDate)
	if err != nil {
		return EventInactive
	}
	if !end.Before(now) {
		return EventActive
	}
	return EventInactive
}

// ParseDate accepts the date shapes the upstream emits: bare dates
// and RFC3339 timestamps. Bare dates resolve to end of day so an
// event ending "today" still counts as active.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.Add(24*time.Hour - time.Second), nil
}
