// models/season.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Season is a named time window grouping events, used for collection
// progress and ranking scope. Read-mostly.
type Season struct {
	ID   string `json:"id" gorm:"primaryKey;type:uuid"`
	Name string `json:"name" gorm:"not null"`
	Slug string `json:"slug" gorm:"uniqueIndex;not null"`

	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`

	Timestamps
}

func (s *Season) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
