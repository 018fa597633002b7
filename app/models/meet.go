package models

import (
	"time"

	"gorm.io/gorm"
)

// Meet is a scheduled gathering at a point. Coordinates are stored as
// separate columns and rendered as a GeoJSON point by the API.
type Meet struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	UserID            string    `gorm:"size:36;not null;index" json:"user"`
	Longitude         float64   `gorm:"not null" json:"longitude"`
	Latitude          float64   `gorm:"not null;index" json:"latitude"`
	LocationName      string    `gorm:"size:50;not null" json:"locationName"`
	Datetime          time.Time `gorm:"not null;index" json:"datetime"`
	Description       string    `gorm:"type:text" json:"description"`
	TotalParticipants int       `gorm:"not null" json:"totalParticipants"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (m *Meet) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = NewID()
	}
	return nil
}

// Started reports whether the meet's time is at or before now.
func (m *Meet) Started(now time.Time) bool {
	return !m.Datetime.After(now)
}
