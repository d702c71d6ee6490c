// models/user_card.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserCard is the ownership record: proof that one user redeemed one event.
// Created exactly once per (user, event) and never updated; removed only
// when the event itself is deleted.
type UserCard struct {
	ID      string `json:"id" gorm:"primaryKey;type:uuid"`
	UserID  string `json:"user_id" gorm:"not null;uniqueIndex:idx_user_cards_user_event"`
	EventID string `json:"event_id" gorm:"not null;uniqueIndex:idx_user_cards_user_event;index"`
	Event   *Event `json:"event,omitempty" gorm:"foreignKey:EventID"`

	// Variant drawn at redemption time, independent of the event's rarity.
	Variant    Rarity    `json:"variant" gorm:"type:varchar(32);not null"`
	RedeemedAt time.Time `json:"redeemed_at" gorm:"not null"`

	Timestamps
}

func (uc *UserCard) BeforeCreate(tx *gorm.DB) error {
	if uc.ID == "" {
		uc.ID = uuid.NewString()
	}
	return nil
}

// Timestamps adds GORM auto-times.
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
