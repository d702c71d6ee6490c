// services/ranking_service.go
package services

import (
	"fmt"

	"card-collect-system/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RankingService struct {
	DB *gorm.DB
}

func NewRankingService(db *gorm.DB) *RankingService {
	return &RankingService{DB: db}
}

// RankingRow is the public projection of one leaderboard entry. It carries
// display identity only; email and other private profile fields never enter
// this struct.
type RankingRow struct {
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
	CardCount   int64   `json:"card_count"`
}

// ComputeRanking aggregates card counts per user, most cards first. When
// seasonID is non-empty only cards of that season's events count. Ties on
// count are broken by who completed their count earlier (older last
// redemption wins), then by user id for a stable order. Users with zero
// cards never appear: the aggregation starts from user_cards, so there is
// no row to produce for them.
func (s *RankingService) ComputeRanking(seasonID string) ([]RankingRow, error) {
	query := `
		SELECT uc.user_id,
		       COALESCE(cu.display_name, '') AS display_name,
		       cu.avatar_url,
		       COUNT(uc.id) AS card_count
		FROM user_cards uc
		JOIN events e ON e.id = uc.event_id
	`
	args := []interface{}{}
	if seasonID != "" {
		query += ` AND e.season_id = ?`
		args = append(args, seasonID)
	}
	query += `
		LEFT JOIN collector_users cu ON cu.external_user_id = uc.user_id
		GROUP BY uc.user_id, cu.display_name, cu.avatar_url
		ORDER BY card_count DESC, MAX(uc.redeemed_at) ASC, uc.user_id ASC
	`

	var rows []RankingRow
	if err := s.DB.Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: ranking aggregation: %v", ErrStoreUnavailable, err)
	}
	if rows == nil {
		rows = []RankingRow{}
	}
	return rows, nil
}

// GetRankingHandler is GET /s/rankings. season_id narrows the board to one
// season; limit caps the rows returned (default 100, max 500).
func (s *RankingService) GetRankingHandler(c *fiber.Ctx) error {
	seasonID := c.Query("season_id")

	limit := c.QueryInt("limit", 100)
	if limit < 1 {
		limit = 1
	}
	if limit > 500 {
		limit = 500
	}

	rows, err := s.ComputeRanking(seasonID)
	if err != nil {
		logger.Error("ranking computation failed", zap.String("season_id", seasonID), zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "ranking temporarily unavailable",
		})
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}

	return c.JSON(fiber.Map{
		"season_id": seasonID,
		"count":     len(rows),
		"ranking":   rows,
	})
}
