package models

// Application pipeline states. A flat enumeration: organizers may move an
// application between any two states, there is no enforced transition graph.
const (
	StatusSubmitted      = "Прислал заявку"
	StatusTesting        = "Прохождение тестирования"
	StatusChatLinkSent   = "Отправлена ссылка на орг. чат"
	StatusJoinedChat     = "Добавился в орг. чат"
	StatusStarted        = "Приступил к ПШ"
	StatusSkippedTesting = "Не перешел к тестированию"
	StatusFailedTesting  = "Не прошел к тестирование"
	StatusMissedChat     = "Не добавился в орг. чат"
	StatusRemoved        = "Удален с ПШ"
	StatusDeclined       = "Отказался от ПШ"
)

// ApplicationStatuses lists the pipeline states in the order they are
// shown to organizers.
var ApplicationStatuses = []string{
	StatusSubmitted,
	StatusTesting,
	StatusChatLinkSent,
	StatusJoinedChat,
	StatusStarted,
	StatusSkippedTesting,
	StatusFailedTesting,
	StatusMissedChat,
	StatusRemoved,
	StatusDeclined,
}

// ValidApplicationStatus reports whether s is one of the pipeline states.
func ValidApplicationStatus(s string) bool {
	for _, v := range ApplicationStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Application is a student's request to join a specific project.
// ProjectTitle is a denormalized snapshot taken at submission time.
type Application struct {
	ID             int64  `json:"id"`
	StudentName    string `json:"studentName"`
	Telegram       string `json:"telegram,omitempty"`
	University     string `json:"university,omitempty"`
	Course         string `json:"course,omitempty"`
	ProjectID      int64  `json:"projectId,omitempty"`
	ProjectTitle   string `json:"projectTitle,omitempty"`
	EventID        int64  `json:"eventId,omitempty"`
	DirectionID    int64  `json:"directionId,omitempty"`
	Specialization string `json:"specialization,omitempty"`
	About          string `json:"about,omitempty"`
	Status         string `json:"status,omitempty"`
	OwnerID        int64  `json:"ownerId,omitempty"`
	CreatedAt      string `json:"createdAt,omitempty"`
}
