// services/event_service.go
package services

import (
	"errors"
	"os"
	"time"

	"card-collect-system/logger"
	"card-collect-system/models"

	"github.com/gofiber/fiber/v2"
	gonanoid "github.com/matoous/go-nanoid/v2"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type EventService struct {
	DB *gorm.DB
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{DB: db}
}

// codeAlphabet leaves out 0/O, 1/I and L so codes survive being read out
// loud or copied off a projected slide.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// Swappable for tests.
var generateCodeBody = randomCodeBody

func randomCodeBody() (string, error) {
	return gonanoid.Generate(codeAlphabet, 6)
}

func newRedemptionCode() (string, error) {
	body, err := generateCodeBody()
	if err != nil {
		return "", err
	}
	return body[:3] + "-" + body[3:], nil
}

type CreateEventRequest struct {
	Title              string     `json:"title"`
	Theme              string     `json:"theme"`
	Preacher           string     `json:"preacher"`
	Rarity             string     `json:"rarity"`
	RedemptionCode     string     `json:"redemption_code"`
	RedemptionDeadline time.Time  `json:"redemption_deadline"`
	CardImageURL       string     `json:"card_image_url"`
	SeasonID           string     `json:"season_id"`
	PublishAt          *time.Time `json:"publish_at"`
}

// CreateEventHandler is POST /s/admin/events. Omitting redemption_code gets
// a generated one; setting publish_at creates the event as a draft that the
// scheduler publishes later.
func (s *EventService) CreateEventHandler(c *fiber.Ctx) error {
	var req CreateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
	}
	if req.SeasonID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "season_id is required"})
	}
	if req.RedemptionDeadline.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "redemption_deadline is required"})
	}

	var season models.Season
	if err := s.DB.First(&season, "id = ?", req.SeasonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "season not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	rarity := models.Rarity(req.Rarity)
	if req.Rarity == "" {
		rarity = models.RarityComum
	} else if !models.ValidRarity(rarity) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid rarity"})
	}

	event := models.Event{
		Title:              req.Title,
		Theme:              req.Theme,
		Preacher:           req.Preacher,
		Rarity:             rarity,
		RedemptionDeadline: req.RedemptionDeadline,
		CardImageURL:       req.CardImageURL,
		SeasonID:           req.SeasonID,
		Status:             models.EventStatusPublished,
	}
	if req.PublishAt != nil {
		event.Status = models.EventStatusDraft
		event.PublishAt = req.PublishAt
	}

	// Admin-supplied codes are stored in canonical form; anything that
	// cannot normalize would be unredeemable.
	if req.RedemptionCode != "" {
		code, ok := NormalizeRedemptionCode(req.RedemptionCode)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid redemption_code: expected 6 letters/digits, e.g. ABC-123",
			})
		}
		event.RedemptionCode = code
		if err := s.DB.Create(&event).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "redemption code already in use"})
			}
			logger.Error("event create failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create event"})
		}
		return c.Status(fiber.StatusCreated).JSON(event)
	}

	// Generated codes can collide with existing ones; the unique index
	// reports it and we roll a fresh code.
	for attempt := 0; attempt < 5; attempt++ {
		code, err := newRedemptionCode()
		if err != nil {
			logger.Error("code generation failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to generate redemption code"})
		}
		event.ID = ""
		event.RedemptionCode = code

		err = s.DB.Create(&event).Error
		if err == nil {
			logger.Info("event created",
				zap.String("event_id", event.ID),
				zap.String("title", event.Title),
				zap.String("status", event.Status))
			return c.Status(fiber.StatusCreated).JSON(event)
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			logger.Error("event create failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create event"})
		}
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not allocate a unique redemption code"})
}

type UpdateEventRequest struct {
	Title              *string    `json:"title"`
	Theme              *string    `json:"theme"`
	Preacher           *string    `json:"preacher"`
	Rarity             *string    `json:"rarity"`
	RedemptionCode     *string    `json:"redemption_code"`
	RedemptionDeadline *time.Time `json:"redemption_deadline"`
	CardImageURL       *string    `json:"card_image_url"`
	SeasonID           *string    `json:"season_id"`
	Status             *string    `json:"status"`
	PublishAt          *time.Time `json:"publish_at"`
}

// UpdateEventHandler is PUT /s/admin/events/:id. Only fields present in the
// body change. Once anyone has redeemed the event, its code and season are
// frozen so existing cards keep pointing at what they were earned for.
func (s *EventService) UpdateEventHandler(c *fiber.Ctx) error {
	id := c.Params("id")

	var event models.Event
	if err := s.DB.First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var req UpdateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.RedemptionCode != nil || req.SeasonID != nil {
		var redeemed int64
		if err := s.DB.Model(&models.UserCard{}).Where("event_id = ?", event.ID).Count(&redeemed).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
		}
		if redeemed > 0 {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":      "cannot change redemption_code or season after cards were redeemed",
				"card_count": redeemed,
			})
		}
	}

	if req.Title != nil {
		if *req.Title == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title cannot be empty"})
		}
		event.Title = *req.Title
	}
	if req.Theme != nil {
		event.Theme = *req.Theme
	}
	if req.Preacher != nil {
		event.Preacher = *req.Preacher
	}
	if req.Rarity != nil {
		if !models.ValidRarity(models.Rarity(*req.Rarity)) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid rarity"})
		}
		event.Rarity = models.Rarity(*req.Rarity)
	}
	if req.RedemptionCode != nil {
		code, ok := NormalizeRedemptionCode(*req.RedemptionCode)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid redemption_code: expected 6 letters/digits, e.g. ABC-123",
			})
		}
		event.RedemptionCode = code
	}
	if req.RedemptionDeadline != nil {
		if req.RedemptionDeadline.IsZero() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "redemption_deadline cannot be zero"})
		}
		event.RedemptionDeadline = *req.RedemptionDeadline
	}
	if req.CardImageURL != nil {
		event.CardImageURL = *req.CardImageURL
	}
	if req.SeasonID != nil {
		var season models.Season
		if err := s.DB.First(&season, "id = ?", *req.SeasonID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "season not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
		}
		event.SeasonID = *req.SeasonID
	}

	// Publishing control: an explicit status wins; publish_at alone
	// reschedules the event as a draft.
	if req.Status != nil {
		switch *req.Status {
		case models.EventStatusPublished:
			event.Status = models.EventStatusPublished
			event.PublishAt = nil
		case models.EventStatusDraft:
			event.Status = models.EventStatusDraft
			if req.PublishAt != nil {
				event.PublishAt = req.PublishAt
			}
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid status (use: draft, published)"})
		}
	} else if req.PublishAt != nil {
		event.Status = models.EventStatusDraft
		event.PublishAt = req.PublishAt
	}

	if err := s.DB.Save(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "redemption code already in use"})
		}
		logger.Error("event update failed", zap.String("event_id", event.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update event"})
	}

	return c.JSON(event)
}

// DeleteEventHandler is DELETE /s/admin/events/:id. Cards exist only as
// redemptions of an event, so they go down with it in the same transaction.
func (s *EventService) DeleteEventHandler(c *fiber.Ctx) error {
	id := c.Params("id")

	var event models.Event
	if err := s.DB.First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", event.ID).Delete(&models.UserCard{}).Error; err != nil {
			return err
		}
		return tx.Delete(&event).Error
	})
	if err != nil {
		logger.Error("event delete failed", zap.String("event_id", event.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete event"})
	}

	logger.Info("event deleted", zap.String("event_id", event.ID), zap.String("title", event.Title))
	return c.JSON(fiber.Map{
		"message": "event deleted",
		"id":      event.ID,
	})
}

// GetPublicEventsHandler is GET /s/events: published events without their
// redemption codes.
func (s *EventService) GetPublicEventsHandler(c *fiber.Ctx) error {
	query := s.DB.Where("status = ?", models.EventStatusPublished)
	if seasonID := c.Query("season_id"); seasonID != "" {
		query = query.Where("season_id = ?", seasonID)
	}

	var events []models.Event
	if err := query.Order("redemption_deadline ASC").Find(&events).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch events"})
	}

	public := make([]models.PublicEvent, 0, len(events))
	for i := range events {
		public = append(public, events[i].Public())
	}
	return c.JSON(public)
}

// GetPublicEventByIDHandler is GET /s/events/:id. Drafts stay invisible
// here; only the admin listing shows them.
func (s *EventService) GetPublicEventByIDHandler(c *fiber.Ctx) error {
	id := c.Params("id")

	var event models.Event
	err := s.DB.Where("id = ? AND status = ?", id, models.EventStatusPublished).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(event.Public())
}

// GetAllEventsAdminHandler is GET /s/admin/events: every event with its
// redemption code, for the staff dashboard.
func (s *EventService) GetAllEventsAdminHandler(c *fiber.Ctx) error {
	var events []models.Event
	if err := s.DB.Preload("Season").Order("created_at DESC").Find(&events).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch events"})
	}
	return c.JSON(events)
}

// EventQRHandler is GET /s/admin/events/:id/qr: a PNG QR of the redemption
// deep link, sized for projection during the event.
func (s *EventService) EventQRHandler(c *fiber.Ctx) error {
	id := c.Params("id")

	var event models.Event
	if err := s.DB.First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	size := c.QueryInt("size", 256)
	if size < 64 {
		size = 64
	}
	if size > 1024 {
		size = 1024
	}

	baseURL := os.Getenv("CARD_APP_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	content := baseURL + "/resgatar?codigo=" + event.RedemptionCode

	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		logger.Error("qr encode failed", zap.String("event_id", event.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to render QR code"})
	}

	c.Set("Content-Type", "image/png")
	return c.Send(png)
}
