package models

import "time"

// NotificationAudience is the recipient scope of a notification.
type NotificationAudience string

const (
	AudienceAll        NotificationAudience = "all"
	AudienceCategory   NotificationAudience = "category"
	AudiencePanchayath NotificationAudience = "panchayath"
	AudienceAdmin      NotificationAudience = "admin"
)

// Valid reports whether the audience is one of the recognized scopes.
// Records with anything else are dropped when the snapshot is loaded.
func (a NotificationAudience) Valid() bool {
	switch a {
	case AudienceAll, AudienceCategory, AudiencePanchayath, AudienceAdmin:
		return true
	}
	return false
}

type Notification struct {
	ID             string               `bson:"_id,omitempty" json:"id,omitempty"`
	Title          string               `bson:"title" json:"title"`
	Content        string               `bson:"content" json:"content"`
	TargetAudience NotificationAudience `bson:"target_audience" json:"target_audience"`
	TargetValue    string               `bson:"target_value,omitempty" json:"target_value,omitempty"`
	ScheduledAt    *time.Time           `bson:"scheduled_at,omitempty" json:"scheduled_at,omitempty"`
	SentAt         *time.Time           `bson:"sent_at,omitempty" json:"sent_at,omitempty"`
	IsActive       bool                 `bson:"is_active" json:"is_active"`
	CreatedAt      time.Time            `bson:"created_at" json:"created_at"`
}
