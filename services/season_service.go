// services/season_service.go
package services

import (
	"errors"
	"time"

	"card-collect-system/logger"
	"card-collect-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SeasonService struct {
	DB *gorm.DB
}

func NewSeasonService(db *gorm.DB) *SeasonService {
	return &SeasonService{DB: db}
}

type CreateSeasonRequest struct {
	Name     string    `json:"name"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

// CreateSeasonHandler is POST /s/admin/seasons. The slug is derived from the
// name and doubles as a friendly lookup key on the public route.
func (s *SeasonService) CreateSeasonHandler(c *fiber.Ctx) error {
	var req CreateSeasonRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}
	if !req.EndsAt.IsZero() && !req.StartsAt.IsZero() && req.EndsAt.Before(req.StartsAt) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ends_at must not be before starts_at"})
	}

	season := models.Season{
		Name:     req.Name,
		Slug:     slug.Make(req.Name),
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
	}
	if err := s.DB.Create(&season).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "a season with this name already exists"})
		}
		logger.Error("season create failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create season"})
	}

	logger.Info("season created", zap.String("season_id", season.ID), zap.String("slug", season.Slug))
	return c.Status(fiber.StatusCreated).JSON(season)
}

type UpdateSeasonRequest struct {
	Name     *string    `json:"name"`
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
}

// UpdateSeasonHandler is PUT /s/admin/seasons/:id. Renaming regenerates the
// slug; old slug links stop resolving, which is fine for an admin rename.
func (s *SeasonService) UpdateSeasonHandler(c *fiber.Ctx) error {
	id := c.Params("id")

	var season models.Season
	if err := s.DB.First(&season, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "season not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var req UpdateSeasonRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.Name != nil {
		if *req.Name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name cannot be empty"})
		}
		season.Name = *req.Name
		season.Slug = slug.Make(*req.Name)
	}
	if req.StartsAt != nil {
		season.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		season.EndsAt = *req.EndsAt
	}
	if !season.EndsAt.IsZero() && !season.StartsAt.IsZero() && season.EndsAt.Before(season.StartsAt) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ends_at must not be before starts_at"})
	}

	if err := s.DB.Save(&season).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "a season with this name already exists"})
		}
		logger.Error("season update failed", zap.String("season_id", season.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update season"})
	}

	return c.JSON(season)
}

// DeleteSeasonHandler is DELETE /s/admin/seasons/:id. Events keep their
// season for as long as they exist, so deletion is refused while any event
// still references it; delete or move the events first.
func (s *SeasonService) DeleteSeasonHandler(c *fiber.Ctx) error {
	id := c.Params("id")

	var season models.Season
	if err := s.DB.First(&season, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "season not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var events int64
	if err := s.DB.Model(&models.Event{}).Where("season_id = ?", season.ID).Count(&events).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if events > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":       "season still has events; delete or move them first",
			"event_count": events,
		})
	}

	if err := s.DB.Delete(&season).Error; err != nil {
		logger.Error("season delete failed", zap.String("season_id", season.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete season"})
	}

	logger.Info("season deleted", zap.String("season_id", season.ID), zap.String("name", season.Name))
	return c.JSON(fiber.Map{
		"message": "season deleted",
		"id":      season.ID,
	})
}

// GetSeasonsHandler is GET /s/seasons, oldest season first so the list
// reads chronologically.
func (s *SeasonService) GetSeasonsHandler(c *fiber.Ctx) error {
	var seasons []models.Season
	if err := s.DB.Order("starts_at ASC, created_at ASC").Find(&seasons).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch seasons"})
	}
	return c.JSON(seasons)
}

// GetSeasonHandler is GET /s/seasons/:id and accepts either the UUID or the
// slug, so the frontend can link /temporadas/outubro-2025 directly.
func (s *SeasonService) GetSeasonHandler(c *fiber.Ctx) error {
	param := c.Params("id")

	query := s.DB
	if uuid.Validate(param) == nil {
		query = query.Where("id = ?", param)
	} else {
		query = query.Where("slug = ?", param)
	}

	var season models.Season
	if err := query.First(&season).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "season not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(season)
}
