package models

import "strings"

// User roles
const (
	RoleStudent   = "student"
	RoleOrganizer = "organizer"
)

// User is the core identity record. Password fields are populated only in
// local mode; the upstream backend never returns them.
type User struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Surname      string `json:"surname"`
	Role         string `json:"role"`
	Password     string `json:"password,omitempty"`
	PasswordHash string `json:"passwordHash,omitempty"`
}

// DisplayName renders the "Surname Name" form used in tables.
func (u User) DisplayName() string {
	return strings.TrimSpace(u.Surname + " " + u.Name)
}

// Profile extends the identity record with application-form defaults.
// Stored separately from the core user.
type Profile struct {
	UserID     int64  `json:"userId,omitempty"`
	University string `json:"university,omitempty"`
	Course     string `json:"course,omitempty"`
	Specialty  string `json:"specialty,omitempty"`
	Workplace  string `json:"workplace,omitempty"`
	About      string `json:"about,omitempty"`
	Telegram   string `json:"telegram,omitempty"`
	VK         string `json:"vk,omitempty"`
}

// ParseRole maps the upstream's user-info shape to a local role. An explicit
// role wins; otherwise the CRM role string is matched by substring; a staff
// flag is the last resort.
func ParseRole(role, crmRole string, staff bool) string {
	switch role {
	case RoleStudent, RoleOrganizer:
		return role
	}
	crm := strings.ToLower(crmRole)
	if strings.Contains(crm, "project") {
		return RoleStudent
	}
	if strings.Contains(crm, "curator") || strings.Contains(crm, "admin") {
		return RoleOrganizer
	}
	if staff {
		return RoleOrganizer
	}
	return RoleStudent
}
