package models

import (
	"time"

	"gorm.io/gorm"
)

type EventType string

const (
	EventNotification EventType = "notification"
	EventRequest      EventType = "request"
)

// Event is an entry in a user's feed. AttendeeID is empty for events not
// tied to a join request.
type Event struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	UserID         string    `gorm:"size:36;not null;index" json:"user"`
	MeetID         string    `gorm:"size:36;not null;index" json:"meet"`
	AttendeeID     string    `gorm:"size:36;index" json:"attendee,omitempty"`
	Title          string    `gorm:"size:100;not null" json:"title"`
	Description    string    `gorm:"type:text" json:"description"`
	Type           EventType `gorm:"size:20;not null" json:"type"`
	ActionRequired bool      `gorm:"not null" json:"actionRequired"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (e *Event) BeforeCreate(*gorm.DB) error {
	if e.ID == "" {
		e.ID = NewID()
	}
	return nil
}
