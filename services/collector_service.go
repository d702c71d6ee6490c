// services/collector_service.go
package services

import (
	"errors"
	"strconv"
	"strings"

	"card-collect-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CollectorService reads the local profile mirror. The mirror is written by
// the sync worker only; nothing here mutates it.
type CollectorService struct {
	DB *gorm.DB
}

func NewCollectorService(db *gorm.DB) *CollectorService {
	return &CollectorService{DB: db}
}

// GetMeHandler is GET /s/collectors/me: the caller's own mirror row, email
// included. This is the only route where email leaves the service.
func (s *CollectorService) GetMeHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var collector models.CollectorUser
	if err := s.DB.First(&collector, "external_user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The sync worker has not mirrored this profile yet. Not an
			// error: the caller exists, we just have nothing to show.
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "profile not synced yet, try again shortly",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	return c.JSON(collector)
}

// GetCollectorHandler is GET /s/collectors/:id: the public projection of
// another user's profile, looked up by the external user id the rankings
// carry.
func (s *CollectorService) GetCollectorHandler(c *fiber.Ctx) error {
	id := c.Params("id")

	var collector models.CollectorUser
	if err := s.DB.First(&collector, "external_user_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "collector not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	return c.JSON(collector.Public())
}

// SearchCollectorsHandler is GET /s/collectors/search: display-name search
// over the mirror, public fields only.
func (s *CollectorService) SearchCollectorsHandler(c *fiber.Ctx) error {
	query := c.Query("q", "")
	limitStr := c.Query("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 || limit > 100 {
		limit = 50
	}

	var collectors []models.CollectorUser
	db := s.DB.Model(&models.CollectorUser{}).Order("display_name ASC").Limit(limit)
	if query != "" {
		searchTerm := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
		db = db.Where("LOWER(display_name) LIKE ?", searchTerm)
	}
	if err := db.Find(&collectors).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "search failed"})
	}

	res := make([]models.PublicCollector, len(collectors))
	for i := range collectors {
		res[i] = collectors[i].Public()
	}
	return c.JSON(res)
}
