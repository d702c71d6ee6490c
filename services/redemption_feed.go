// services/redemption_feed.go
package services

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"card-collect-system/logger"
	"card-collect-system/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// redemptionFrame is one SSE payload: enough for the admin dashboard to
// show "someone just pulled a holographic" without a second lookup.
type redemptionFrame struct {
	CardID     string        `json:"card_id"`
	UserID     string        `json:"user_id"`
	EventID    string        `json:"event_id"`
	Title      string        `json:"title"`
	Rarity     models.Rarity `json:"rarity"`
	Variant    models.Rarity `json:"variant"`
	RedeemedAt time.Time     `json:"redeemed_at"`
}

// StreamRedemptionsSSE is GET /s/redemptions/live. It tails the user_cards
// table behind a created_at cursor: a read-only view of rows the redemption
// flow already committed, never a second write path.
func (s *RedemptionService) StreamRedemptionsSSE(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	// fasthttp stream writer replaces Flush
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		// Start the cursor at the newest existing row so only redemptions
		// that happen while connected are streamed.
		var lastMaxCreatedAt time.Time
		var latest models.UserCard
		if err := s.DB.Order("created_at DESC").First(&latest).Error; err == nil {
			lastMaxCreatedAt = latest.CreatedAt
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("redemption feed cursor init failed", zap.Error(err))
		}

		// Initial keepalive (comment event)
		_, _ = w.WriteString(":\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case <-ticker.C:
				var cards []models.UserCard
				err := s.DB.
					Preload("Event").
					Where("created_at > ?", lastMaxCreatedAt).
					Order("created_at ASC").
					Find(&cards).Error
				if err != nil {
					logger.Error("redemption feed query failed", zap.Error(err))
					continue
				}
				if len(cards) == 0 {
					continue
				}

				lastMaxCreatedAt = cards[len(cards)-1].CreatedAt

				for _, card := range cards {
					frame := redemptionFrame{
						CardID:     card.ID,
						UserID:     card.UserID,
						EventID:    card.EventID,
						Variant:    card.Variant,
						RedeemedAt: card.RedeemedAt,
					}
					if card.Event != nil {
						frame.Title = card.Event.Title
						frame.Rarity = card.Event.Rarity
					}
					payload, _ := json.Marshal(frame)
					fmt.Fprintf(w, "event: redemption\ndata: %s\n\n", payload)
				}

				if err := w.Flush(); err != nil {
					// Client disconnected
					return
				}

			case <-c.Context().Done():
				return
			}
		}
	})

	return nil
}
