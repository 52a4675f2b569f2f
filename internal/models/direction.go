package models

// Direction is a named sub-track within an event, owned by an organizer.
// Organizer carries the resolved display name; LeaderID is the canonical
// reference (legacy records may carry only the free-text name).
type Direction struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	LeaderID    int64     `json:"leaderId,omitempty"`
	Organizer   string    `json:"organizer,omitempty"`
	EventID     int64     `json:"eventId,omitempty"`
	Projects    []Project `json:"projects,omitempty"`
}

// Project is a concrete unit of work within a direction, staffed by teams.
type Project struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	DirectionID int64  `json:"directionId,omitempty"`
	Curator     string `json:"curator,omitempty"`
	CuratorID   int64  `json:"curatorId,omitempty"`
	Teams       int    `json:"teams"`
}
