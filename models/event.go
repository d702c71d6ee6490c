// models/event.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	EventStatusDraft     = "draft"
	EventStatusPublished = "published"
)

// Event is one redeemable card design tied to a season. Only published
// events are visible to redemption; drafts behave as if their code did not
// exist yet.
type Event struct {
	ID       string `json:"id" gorm:"primaryKey;type:uuid"`
	Title    string `json:"title" gorm:"not null"`
	Theme    string `json:"theme,omitempty"`
	Preacher string `json:"preacher,omitempty"`

	// Design rarity of the card art. Independent of the variant drawn per
	// redemption.
	Rarity Rarity `json:"rarity" gorm:"type:varchar(32);not null;default:'comum'"`

	// RedemptionCode is the secret that makes the card claimable.
	// Globally unique, stored as LLL-LLL uppercase.
	RedemptionCode     string    `json:"redemption_code,omitempty" gorm:"uniqueIndex;not null"`
	RedemptionDeadline time.Time `json:"redemption_deadline" gorm:"not null"`

	// Opaque reference; the card art is hosted elsewhere.
	CardImageURL string `json:"card_image_url"`

	SeasonID string  `json:"season_id" gorm:"index;not null"`
	Season   *Season `json:"season,omitempty" gorm:"foreignKey:SeasonID"`

	// Publishing state
	Status    string     `json:"status" gorm:"type:varchar(16);default:'published'"` // draft | published
	PublishAt *time.Time `json:"publish_at,omitempty"`                               // only used while draft

	Timestamps
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// PublicEvent is the projection any authenticated user may read. The
// redemption code never appears here.
type PublicEvent struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Theme              string    `json:"theme,omitempty"`
	Preacher           string    `json:"preacher,omitempty"`
	Rarity             Rarity    `json:"rarity"`
	RedemptionDeadline time.Time `json:"redemption_deadline"`
	CardImageURL       string    `json:"card_image_url"`
	SeasonID           string    `json:"season_id"`
}

// Public strips the admin-only fields from an event.
func (e *Event) Public() PublicEvent {
	return PublicEvent{
		ID:                 e.ID,
		Title:              e.Title,
		Theme:              e.Theme,
		Preacher:           e.Preacher,
		Rarity:             e.Rarity,
		RedemptionDeadline: e.RedemptionDeadline,
		CardImageURL:       e.CardImageURL,
		SeasonID:           e.SeasonID,
	}
}
