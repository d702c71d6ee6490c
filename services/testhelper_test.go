package services

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"card-collect-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens a throwaway sqlite store with the production schema.
// TranslateError is on, as in main, so unique violations surface as
// gorm.ErrDuplicatedKey here exactly like on postgres. A single connection
// serializes writers, which sqlite needs under the concurrent tests.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "cards.db")), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrapping test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(
		&models.Season{},
		&models.Event{},
		&models.UserCard{},
		&models.CollectorUser{},
	); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return db
}

func seedSeason(t *testing.T, db *gorm.DB, name, slugStr string) models.Season {
	t.Helper()
	season := models.Season{
		Name:     name,
		Slug:     slugStr,
		StartsAt: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC),
	}
	if err := db.Create(&season).Error; err != nil {
		t.Fatalf("seeding season %q: %v", name, err)
	}
	return season
}

func seedEvent(t *testing.T, db *gorm.DB, seasonID, code string, deadline time.Time) models.Event {
	t.Helper()
	// Title must not embed the full code: listing tests assert codes never
	// leak through public payloads.
	event := models.Event{
		Title:              "Culto " + code[:3],
		Rarity:             models.RarityComum,
		RedemptionCode:     code,
		RedemptionDeadline: deadline,
		SeasonID:           seasonID,
		Status:             models.EventStatusPublished,
	}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("seeding event %q: %v", code, err)
	}
	return event
}

func seedCard(t *testing.T, db *gorm.DB, userID, eventID string, variant models.Rarity, redeemedAt time.Time) models.UserCard {
	t.Helper()
	card := models.UserCard{
		UserID:     userID,
		EventID:    eventID,
		Variant:    variant,
		RedeemedAt: redeemedAt,
	}
	if err := db.Create(&card).Error; err != nil {
		t.Fatalf("seeding card (%s, %s): %v", userID, eventID, err)
	}
	return card
}

func seedCollector(t *testing.T, db *gorm.DB, externalID, displayName, email string) models.CollectorUser {
	t.Helper()
	collector := models.CollectorUser{
		ExternalUserID: externalID,
		DisplayName:    displayName,
		Email:          email,
	}
	if err := db.Create(&collector).Error; err != nil {
		t.Fatalf("seeding collector %q: %v", externalID, err)
	}
	return collector
}

func countCards(t *testing.T, db *gorm.DB, userID, eventID string) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.UserCard{}).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Count(&n).Error; err != nil {
		t.Fatalf("counting cards: %v", err)
	}
	return n
}

// newAuthedApp builds a fiber app whose routes see the given user already
// authenticated. Handler tests exercise the handlers; the real header
// middleware has its own tests.
func newAuthedApp(userID string, roles ...string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		c.Locals("user_roles", roles)
		return c.Next()
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload interface{}) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshaling request payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response body: %v", err)
	}
	return raw
}

func decodeBody(t *testing.T, resp *http.Response, dest interface{}) {
	t.Helper()
	raw := readBody(t, resp)
	if err := json.Unmarshal(raw, dest); err != nil {
		t.Fatalf("decoding response %s: %v", raw, err)
	}
}
