// services/redemption_service.go
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"card-collect-system/logger"
	"card-collect-system/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrStoreUnavailable wraps any store failure during redemption or ranking.
// Callers may retry the identical request: the unique index on
// (user_id, event_id) makes redemption retries idempotent.
var ErrStoreUnavailable = errors.New("store unavailable")

type RedemptionService struct {
	DB *gorm.DB
}

func NewRedemptionService(db *gorm.DB) *RedemptionService {
	return &RedemptionService{DB: db}
}

// CardDetails is the display payload success and already-redeemed responses
// carry, so the UI can show the card either way.
type CardDetails struct {
	EventID      string        `json:"event_id"`
	Title        string        `json:"title"`
	Theme        string        `json:"theme,omitempty"`
	Preacher     string        `json:"preacher,omitempty"`
	Rarity       models.Rarity `json:"rarity"`
	CardImageURL string        `json:"card_image_url"`
	SeasonID     string        `json:"season_id"`
}

// RedemptionResult is the explicit outcome of one redemption attempt.
type RedemptionResult struct {
	Outcome    models.RedemptionOutcome `json:"outcome"`
	Card       *CardDetails             `json:"card,omitempty"`
	Variant    models.Rarity            `json:"variant,omitempty"`
	RedeemedAt *time.Time               `json:"redeemed_at,omitempty"`
}

// NormalizeRedemptionCode uppercases, strips every non-alphanumeric rune and
// re-inserts the hyphen after position 3. ok is false unless exactly six
// alphanumerics remain. Normalizing an already-normalized code is a no-op.
func NormalizeRedemptionCode(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(raw)) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	compact := b.String()
	if len(compact) != 6 {
		return "", false
	}
	return compact[:3] + "-" + compact[3:], true
}

// Redeem runs the full redemption flow for one user and one code, against
// server-observed time.
//
// The duplicate read below is a fast path only; the unique index on
// (user_id, event_id) is the real arbiter. Two concurrent attempts may both
// pass the read; the second insert then fails with a duplicate key and is
// reported as already redeemed, never as a generic failure.
func (s *RedemptionService) Redeem(userID, rawCode string, now time.Time) (*RedemptionResult, error) {
	code, ok := NormalizeRedemptionCode(rawCode)
	if !ok {
		return &RedemptionResult{Outcome: models.RedemptionInvalidFormat}, nil
	}

	var event models.Event
	err := s.DB.
		Where("redemption_code = ? AND status = ?", code, models.EventStatusPublished).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &RedemptionResult{Outcome: models.RedemptionCodeNotFound}, nil
		}
		return nil, fmt.Errorf("%w: looking up code: %v", ErrStoreUnavailable, err)
	}

	// Deadline before the duplicate check: an expired code reports expired
	// even when the user already owns the card.
	if now.After(event.RedemptionDeadline) {
		return &RedemptionResult{Outcome: models.RedemptionExpired}, nil
	}

	var existing models.UserCard
	err = s.DB.Where("user_id = ? AND event_id = ?", userID, event.ID).First(&existing).Error
	if err == nil {
		return alreadyRedeemedResult(&event, &existing), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: checking prior redemption: %v", ErrStoreUnavailable, err)
	}

	card := models.UserCard{
		UserID:     userID,
		EventID:    event.ID,
		Variant:    DrawVariant(),
		RedeemedAt: now,
	}
	if err := s.DB.Create(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race: return the row that won.
			var winner models.UserCard
			if ferr := s.DB.Where("user_id = ? AND event_id = ?", userID, event.ID).
				First(&winner).Error; ferr != nil {
				return nil, fmt.Errorf("%w: fetching winning redemption: %v", ErrStoreUnavailable, ferr)
			}
			return alreadyRedeemedResult(&event, &winner), nil
		}
		return nil, fmt.Errorf("%w: persisting card: %v", ErrStoreUnavailable, err)
	}

	logger.Info("card redeemed",
		zap.String("user_id", userID),
		zap.String("event_id", event.ID),
		zap.String("variant", string(card.Variant)),
	)

	return &RedemptionResult{
		Outcome:    models.RedemptionSuccess,
		Card:       cardDetails(&event),
		Variant:    card.Variant,
		RedeemedAt: &card.RedeemedAt,
	}, nil
}

func alreadyRedeemedResult(event *models.Event, card *models.UserCard) *RedemptionResult {
	return &RedemptionResult{
		Outcome:    models.RedemptionAlreadyRedeemed,
		Card:       cardDetails(event),
		Variant:    card.Variant,
		RedeemedAt: &card.RedeemedAt,
	}
}

func cardDetails(e *models.Event) *CardDetails {
	return &CardDetails{
		EventID:      e.ID,
		Title:        e.Title,
		Theme:        e.Theme,
		Preacher:     e.Preacher,
		Rarity:       e.Rarity,
		CardImageURL: e.CardImageURL,
		SeasonID:     e.SeasonID,
	}
}

// --- HTTP surface ---

type RedeemCardRequest struct {
	Code string `json:"code"`
}

// redemptionMessages maps each outcome to its user-visible status line.
var redemptionMessages = map[models.RedemptionOutcome]string{
	models.RedemptionSuccess:         "card redeemed successfully",
	models.RedemptionInvalidFormat:   "code must be 6 letters or digits (format AAA-BBB)",
	models.RedemptionCodeNotFound:    "no card matches this code",
	models.RedemptionExpired:         "the redemption deadline for this code has passed",
	models.RedemptionAlreadyRedeemed: "card already in your collection",
}

func redemptionStatus(outcome models.RedemptionOutcome) int {
	switch outcome {
	case models.RedemptionSuccess:
		return fiber.StatusOK
	case models.RedemptionInvalidFormat:
		return fiber.StatusBadRequest
	case models.RedemptionCodeNotFound:
		return fiber.StatusNotFound
	case models.RedemptionExpired:
		return fiber.StatusGone
	case models.RedemptionAlreadyRedeemed:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// RedeemCardHandler is POST /s/redeem. The user comes from the gateway
// context and the timestamp from the server clock, never from the client.
func (s *RedemptionService) RedeemCardHandler(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing user context"})
	}

	var req RedeemCardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid JSON",
			"details": err.Error(),
		})
	}

	result, err := s.Redeem(userID, req.Code, time.Now())
	if err != nil {
		logger.Error("redemption store failure", zap.String("user_id", userID), zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "store unavailable, retry with the same code",
		})
	}

	if result.Outcome == models.RedemptionSuccess || result.Outcome == models.RedemptionAlreadyRedeemed {
		return c.Status(redemptionStatus(result.Outcome)).JSON(fiber.Map{
			"outcome":     result.Outcome,
			"message":     redemptionMessages[result.Outcome],
			"card":        result.Card,
			"variant":     result.Variant,
			"redeemed_at": result.RedeemedAt,
		})
	}

	return c.Status(redemptionStatus(result.Outcome)).JSON(fiber.Map{
		"outcome": result.Outcome,
		"error":   redemptionMessages[result.Outcome],
	})
}
