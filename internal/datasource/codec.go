package datasource

import (
	"encoding/json"
	"strconv"

	"github.com/ric-center/planner/internal/models"
	"github.com/ric-center/planner/internal/store"
)

// Decoding normalized payloads. Normalized documents are loosely typed:
// organizer/curator fields arrive as a numeric id from the upstream but as
// a display string from legacy local data, so each decoder sorts the value
// into the id or the display field explicitly.

func decodeEvent(d store.Doc) models.Event {
	ev := models.Event{
		ID:            i64(d, "id"),
		Title:         str(d, "title"),
		Description:   str(d, "description"),
		StartDate:     str(d, "startDate"),
		EndDate:       str(d, "endDate"),
		ApplyDeadline: str(d, "applyDeadline"),
		Stage:         str(d, "stage"),
		ChatLink:      str(d, "chatLink"),
		Status:        str(d, "status"),
	}
	if n, ok := num(d, "organizer"); ok {
		ev.LeaderID = n
	} else {
		ev.Organizer = str(d, "organizer")
	}
	if ev.LeaderID == 0 {
		ev.LeaderID = i64(d, "leaderId")
	}

	if list, ok := d["specializations"].([]any); ok {
		for _, el := range list {
			if m, ok := el.(map[string]any); ok {
				ev.Specializations = append(ev.Specializations, models.Specialization{
					ID:    i64(m, "id"),
					Title: str(m, "title"),
				})
			}
		}
	} else if n, ok := num(d, "specialization"); ok {
		ev.Specializations = append(ev.Specializations, models.Specialization{ID: n})
	}
	return ev
}

func decodeDirection(d store.Doc) models.Direction {
	dir := models.Direction{
		ID:          i64(d, "id"),
		Title:       str(d, "title"),
		Description: str(d, "description"),
		EventID:     i64(d, "eventId"),
	}
	if n, ok := num(d, "organizer"); ok {
		dir.LeaderID = n
	} else {
		dir.Organizer = str(d, "organizer")
	}
	if dir.LeaderID == 0 {
		dir.LeaderID = i64(d, "leaderId")
	}
	if list, ok := d["projects"].([]any); ok {
		for _, el := range list {
			if m, ok := el.(map[string]any); ok {
				dir.Projects = append(dir.Projects, decodeProject(m))
			}
		}
	}
	return dir
}

func decodeProject(d store.Doc) models.Project {
	p := models.Project{
		ID:          i64(d, "id"),
		Title:       str(d, "title"),
		Description: str(d, "description"),
		DirectionID: i64(d, "directionId"),
		Teams:       int(i64(d, "teams")),
	}
	if n, ok := num(d, "curator"); ok {
		p.CuratorID = n
	} else {
		p.Curator = str(d, "curator")
	}
	return p
}

func decodeApplication(d store.Doc) models.Application {
	return models.Application{
		ID:             i64(d, "id"),
		StudentName:    str(d, "studentName"),
		Telegram:       str(d, "telegram"),
		University:     str(d, "university"),
		Course:         strOrNum(d, "course"),
		ProjectID:      i64(d, "projectId"),
		ProjectTitle:   str(d, "projectTitle"),
		EventID:        i64(d, "eventId"),
		DirectionID:    i64(d, "directionId"),
		Specialization: str(d, "specialization"),
		About:          str(d, "about"),
		Status:         str(d, "status"),
		OwnerID:        i64(d, "ownerId"),
		CreatedAt:      str(d, "createdAt"),
	}
}

// decodeUser tolerates the name→title rename the normalizer applies to
// any object without a startDate.
func decodeUser(d store.Doc) models.User {
	name := str(d, "name")
	if name == "" {
		name = str(d, "title")
	}
	if name == "" {
		name = str(d, "firstName")
	}
	surname := str(d, "surname")
	if surname == "" {
		surname = str(d, "lastName")
	}
	return models.User{
		ID:           i64(d, "id"),
		Email:        str(d, "email"),
		Name:         name,
		Surname:      surname,
		Role:         str(d, "role"),
		Password:     str(d, "password"),
		PasswordHash: str(d, "passwordHash"),
	}
}

func decodeProfile(d store.Doc) models.Profile {
	return models.Profile{
		UserID:     i64(d, "userId"),
		University: str(d, "university"),
		Course:     strOrNum(d, "course"),
		Specialty:  str(d, "specialty"),
		Workplace:  str(d, "workplace"),
		About:      str(d, "about"),
		Telegram:   str(d, "telegram"),
		VK:         str(d, "vk"),
	}
}

func decodeSpecialization(d store.Doc) models.Specialization {
	return models.Specialization{ID: i64(d, "id"), Title: str(d, "title")}
}

// toDoc converts a typed model to a stored document through its json tags.
func toDoc(v any) store.Doc {
	raw, err := json.Marshal(v)
	if err != nil {
		return store.Doc{}
	}
	var d store.Doc
	if err := json.Unmarshal(raw, &d); err != nil {
		return store.Doc{}
	}
	return d
}

func asDocs(v any) []store.Doc {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]store.Doc, 0, len(list))
	for _, el := range list {
		if m, ok := el.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func str(d store.Doc, key string) string {
	s, _ := d[key].(string)
	return s
}

// strOrNum reads a field that some payloads carry as a string and others
// as a number (course is the usual offender).
func strOrNum(d store.Doc, key string) string {
	switch v := d[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	default:
		return ""
	}
}

func num(d store.Doc, key string) (int64, bool) {
	switch v := d[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}

func i64(d store.Doc, key string) int64 {
	n, _ := num(d, key)
	return n
}
