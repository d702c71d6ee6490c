// models/collector.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CollectorUser is a local snapshot of the profile data collections and
// rankings need. Owned solely by the card service; populated via sync
// worker from the profile service.
type CollectorUser struct {
	ID             string  `json:"id" gorm:"primaryKey;type:uuid"`
	ExternalUserID string  `json:"external_user_id" gorm:"uniqueIndex;not null"` // the profile service's UUID
	DisplayName    string  `json:"display_name" gorm:"index;not null"`
	AvatarURL      *string `json:"avatar_url,omitempty"`

	// Private. Readable by the owning user only; never selected into any
	// ranking-facing projection.
	Email string `json:"email,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (cu *CollectorUser) BeforeCreate(tx *gorm.DB) error {
	if cu.ID == "" {
		cu.ID = uuid.NewString()
	}
	return nil
}

// PublicCollector is the profile projection other users may see.
type PublicCollector struct {
	ExternalUserID string  `json:"external_user_id"`
	DisplayName    string  `json:"display_name"`
	AvatarURL      *string `json:"avatar_url,omitempty"`
}

// Public strips the private fields from a mirror row.
func (cu *CollectorUser) Public() PublicCollector {
	return PublicCollector{
		ExternalUserID: cu.ExternalUserID,
		DisplayName:    cu.DisplayName,
		AvatarURL:      cu.AvatarURL,
	}
}
