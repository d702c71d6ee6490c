// services/stats.go
package services

import (
	"card-collect-system/logger"
	"card-collect-system/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type variantCount struct {
	Variant models.Rarity `json:"variant"`
	Count   int64         `json:"count"`
	Share   float64       `json:"share"`
}

type topEvent struct {
	EventID     string `json:"event_id"`
	Title       string `json:"title"`
	Redemptions int64  `json:"redemptions"`
}

// AdminStatsHandler is GET /s/admin/stats: totals, the observed variant
// distribution and the most redeemed events.
func (s *RankingService) AdminStatsHandler(c *fiber.Ctx) error {
	var totalEvents, publishedEvents, totalCards, distinctUsers int64

	if err := s.DB.Model(&models.Event{}).Count(&totalEvents).Error; err != nil {
		return s.statsError(c, err)
	}
	if err := s.DB.Model(&models.Event{}).
		Where("status = ?", models.EventStatusPublished).
		Count(&publishedEvents).Error; err != nil {
		return s.statsError(c, err)
	}
	if err := s.DB.Model(&models.UserCard{}).Count(&totalCards).Error; err != nil {
		return s.statsError(c, err)
	}
	if err := s.DB.Model(&models.UserCard{}).
		Distinct("user_id").
		Count(&distinctUsers).Error; err != nil {
		return s.statsError(c, err)
	}

	var variants []variantCount
	err := s.DB.Raw(`
		SELECT variant, COUNT(*) AS count
		FROM user_cards
		GROUP BY variant
		ORDER BY count DESC
	`).Scan(&variants).Error
	if err != nil {
		return s.statsError(c, err)
	}
	if totalCards > 0 {
		for i := range variants {
			variants[i].Share = float64(variants[i].Count) / float64(totalCards) * 100
		}
	}
	if variants == nil {
		variants = []variantCount{}
	}

	var top []topEvent
	err = s.DB.Raw(`
		SELECT e.id AS event_id, e.title, COUNT(uc.id) AS redemptions
		FROM events e
		LEFT JOIN user_cards uc ON uc.event_id = e.id
		GROUP BY e.id, e.title
		ORDER BY redemptions DESC, e.title ASC
		LIMIT 10
	`).Scan(&top).Error
	if err != nil {
		return s.statsError(c, err)
	}
	if top == nil {
		top = []topEvent{}
	}

	return c.JSON(fiber.Map{
		"total_events":     totalEvents,
		"published_events": publishedEvents,
		"total_cards":      totalCards,
		"collectors":       distinctUsers,
		"variants":         variants,
		"top_events":       top,
	})
}

func (s *RankingService) statsError(c *fiber.Ctx, err error) error {
	logger.Error("stats query failed", zap.Error(err))
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": "stats temporarily unavailable",
	})
}
