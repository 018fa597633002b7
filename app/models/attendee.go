package models

import (
	"time"

	"gorm.io/gorm"
)

type AttendeeState string

const (
	StatePending  AttendeeState = "pending"
	StateAccepted AttendeeState = "accepted"
	StateDeclined AttendeeState = "declined"
)

func (s AttendeeState) Valid() bool {
	switch s {
	case StatePending, StateAccepted, StateDeclined:
		return true
	}
	return false
}

// Attendee is a user's participation in a meet. (UserID, MeetID) is unique.
type Attendee struct {
	ID        string        `gorm:"primaryKey;size:36" json:"id"`
	UserID    string        `gorm:"size:36;not null;uniqueIndex:idx_attendee_user_meet" json:"user"`
	MeetID    string        `gorm:"size:36;not null;uniqueIndex:idx_attendee_user_meet;index" json:"meet"`
	Message   string        `gorm:"size:500" json:"message"`
	Seen      bool          `gorm:"not null" json:"seen"`
	State     AttendeeState `gorm:"size:10;not null;index" json:"state"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func (a *Attendee) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = NewID()
	}
	return nil
}
