// services/collection.go
package services

import (
	"time"

	"card-collect-system/logger"
	"card-collect-system/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// OwnedCard is one entry of a user's collection: the card's display fields
// plus what the draw assigned them.
type OwnedCard struct {
	CardDetails
	Variant    models.Rarity `json:"variant"`
	RedeemedAt time.Time     `json:"redeemed_at"`
}

// GetMyCollectionHandler is GET /s/collection. Owners read their own rows
// only; other users' collections are visible solely through the ranking
// projection.
func (s *RedemptionService) GetMyCollectionHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	seasonID := c.Query("season_id")

	var cards []models.UserCard
	query := s.DB.
		Preload("Event").
		Where("user_cards.user_id = ?", userID).
		Order("user_cards.redeemed_at DESC")
	if seasonID != "" {
		query = query.
			Joins("JOIN events ON events.id = user_cards.event_id").
			Where("events.season_id = ?", seasonID)
	}
	if err := query.Find(&cards).Error; err != nil {
		logger.Error("collection query failed", zap.String("user_id", userID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to fetch collection",
		})
	}

	owned := make([]OwnedCard, 0, len(cards))
	for _, card := range cards {
		if card.Event == nil {
			continue
		}
		owned = append(owned, OwnedCard{
			CardDetails: *cardDetails(card.Event),
			Variant:     card.Variant,
			RedeemedAt:  card.RedeemedAt,
		})
	}

	return c.JSON(fiber.Map{
		"count": len(owned),
		"cards": owned,
	})
}

// SeasonProgress is one row of the per-season completion summary.
type SeasonProgress struct {
	SeasonID    string `json:"season_id"`
	SeasonName  string `json:"season_name"`
	TotalEvents int64  `json:"total_events"`
	Owned       int64  `json:"owned"`
}

// GetCollectionProgressHandler is GET /s/collection/progress: how far the
// user is from completing each season.
func (s *RedemptionService) GetCollectionProgressHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var rows []SeasonProgress
	err := s.DB.Raw(`
		SELECT s.id   AS season_id,
		       s.name AS season_name,
		       COUNT(DISTINCT e.id) AS total_events,
		       COUNT(uc.id)         AS owned
		FROM seasons s
		JOIN events e ON e.season_id = s.id AND e.status = ?
		LEFT JOIN user_cards uc ON uc.event_id = e.id AND uc.user_id = ?
		GROUP BY s.id, s.name
		ORDER BY s.starts_at ASC
	`, models.EventStatusPublished, userID).Scan(&rows).Error
	if err != nil {
		logger.Error("collection progress query failed", zap.String("user_id", userID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to fetch collection progress",
		})
	}
	if rows == nil {
		rows = []SeasonProgress{}
	}

	return c.JSON(fiber.Map{"seasons": rows})
}
