// Package wizard is the multi-tab create/edit flow spanning an event, its
// directions and their projects. Each running wizard is an in-memory
// session; tabs fetch and persist their own data independently, so a
// partially completed wizard (event saved, directions abandoned) is a
// valid end state.
package wizard

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Tab identifies a wizard step.
type Tab string

const (
	TabEvent      Tab = "event"
	TabDirections Tab = "directions"
	TabProjects   Tab = "projects"
)

// Mode distinguishes creating a fresh event from editing an existing one.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

var (
	// ErrEventNotSaved blocks the directions tab until the event exists.
	ErrEventNotSaved = errors.New("save the event before configuring directions")

	// ErrNoDirections blocks the projects tab until a direction exists.
	ErrNoDirections = errors.New("save at least one direction before configuring projects")

	// ErrUnknownTab is returned for a tab name outside the fixed set.
	ErrUnknownTab = errors.New("unknown wizard tab")

	// ErrNotFound is returned for unknown or expired wizard sessions.
	ErrNotFound = errors.New("wizard session not found")
)

// Launch is the entry context: editing an existing direction or project
// supplies the parent ids up front, which bypasses the save guards.
type Launch struct {
	Mode        Mode  `json:"mode"`
	Tab         Tab   `json:"tab,omitempty"`
	EventID     int64 `json:"eventId,omitempty"`
	DirectionID int64 `json:"directionId,omitempty"`
}

// Session is one running wizard.
type Session struct {
	ID        string
	ExpiresAt time.Time

	mu              sync.Mutex
	mode            Mode
	activeTab       Tab
	eventID         int64
	directionID     int64
	eventSaved      bool
	directionsSaved bool
}

// State is a read-only snapshot of a session.
type State struct {
	ID              string    `json:"id"`
	Mode            Mode      `json:"mode"`
	ActiveTab       Tab       `json:"activeTab"`
	EventID         int64     `json:"eventId,omitempty"`
	DirectionID     int64     `json:"directionId,omitempty"`
	EventSaved      bool      `json:"eventSaved"`
	DirectionsSaved bool      `json:"directionsSaved"`
	ExpiresAt       time.Time `json:"expiresAt"`
}

// Activate switches to a tab, enforcing the create-mode ordering guards:
// directions needs the event saved in this session (or a launch eventId),
// projects additionally needs at least one saved direction (or a launch
// directionId). Edit mode is unguarded. On refusal the active tab is
// unchanged.
func (s *Session) Activate(tab Tab) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch tab {
	case TabEvent, TabDirections, TabProjects:
	default:
		return ErrUnknownTab
	}

	if s.mode == ModeCreate {
		if (tab == TabDirections || tab == TabProjects) && !s.eventSaved && s.eventID == 0 {
			return ErrEventNotSaved
		}
		if tab == TabProjects && !s.directionsSaved && s.directionID == 0 {
			return ErrNoDirections
		}
	}

	s.activeTab = tab
	return nil
}

// MarkEventSaved records a successful event save and its id.
func (s *Session) MarkEventSaved(eventID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventID = eventID
	s.eventSaved = true
}

// MarkDirectionsSaved records a directions save; an empty list does not
// unlock the projects tab.
func (s *Session) MarkDirectionsSaved(count int, firstID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directionsSaved = count > 0
	if s.directionID == 0 {
		s.directionID = firstID
	}
}

// EventID returns the event the session is working on (0 when none yet).
func (s *Session) EventID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eventID
}

// DirectionID returns the direction supplied at launch or recorded by the
// first directions save.
func (s *Session) DirectionID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.directionID
}

// Snapshot returns the session state for responses.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		ID:              s.ID,
		Mode:            s.mode,
		ActiveTab:       s.activeTab,
		EventID:         s.eventID,
		DirectionID:     s.directionID,
		EventSaved:      s.eventSaved,
		DirectionsSaved: s.directionsSaved,
		ExpiresAt:       s.ExpiresAt,
	}
}

// Registry tracks running wizard sessions, expiring them after ttl.
type Registry struct {
	ttl time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates a registry with the given session ttl.
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Registry{ttl: ttl, sessions: make(map[string]*Session)}
}

// Start opens a new wizard session from the launch context. The initial
// tab follows the entry point: editing a direction or project opens on
// its own tab, everything else starts on the event tab.
func (r *Registry) Start(launch Launch) *Session {
	mode := launch.Mode
	if mode != ModeEdit {
		mode = ModeCreate
	}

	tab := launch.Tab
	switch tab {
	case TabEvent, TabDirections, TabProjects:
	default:
		switch {
		case launch.DirectionID != 0:
			tab = TabProjects
		case launch.EventID != 0:
			tab = TabDirections
		default:
			tab = TabEvent
		}
	}

	s := &Session{
		ID:          uuid.NewString(),
		ExpiresAt:   time.Now().Add(r.ttl),
		mode:        mode,
		activeTab:   tab,
		eventID:     launch.EventID,
		directionID: launch.DirectionID,
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns a running session or ErrNotFound.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || time.Now().After(s.ExpiresAt) {
		return nil, ErrNotFound
	}
	return s, nil
}

// Close removes a session.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Sweep drops expired sessions and reports how many were removed.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if now.After(s.ExpiresAt) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}
