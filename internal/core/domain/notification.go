package domain

import "time"

// NotificationType categorizes a notification for presentation.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

// ParseNotificationType maps a stored string onto the type enumeration,
// falling back to info.
func ParseNotificationType(s string) NotificationType {
	switch NotificationType(s) {
	case NotificationInfo, NotificationSuccess, NotificationWarning, NotificationError:
		return NotificationType(s)
	default:
		return NotificationInfo
	}
}

// Notification is a message addressed to a single principal.
type Notification struct {
	ID          string           `json:"id" bson:"_id,omitempty"`
	PrincipalID string           `json:"user_id" bson:"user_id"`
	Title       string           `json:"title" bson:"title"`
	Message     string           `json:"message" bson:"message"`
	Type        NotificationType `json:"type" bson:"type"`
	Read        bool             `json:"read" bson:"read"`
	ActionURL   string           `json:"action_url,omitempty" bson:"action_url,omitempty"`
	CreatedAt   time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" bson:"updated_at"`
}
