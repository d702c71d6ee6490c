package services

import (
	"testing"
	"time"

	"card-collect-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newSeasonApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := NewSeasonService(db)

	app := newAuthedApp("admin-1", "admin")
	app.Get("/s/seasons", svc.GetSeasonsHandler)
	app.Get("/s/seasons/:id", svc.GetSeasonHandler)
	app.Post("/s/admin/seasons", svc.CreateSeasonHandler)
	app.Put("/s/admin/seasons/:id", svc.UpdateSeasonHandler)
	app.Delete("/s/admin/seasons/:id", svc.DeleteSeasonHandler)
	return app, db
}

func TestCreateSeason_SlugFromName(t *testing.T) {
	app, _ := newSeasonApp(t)

	resp := doJSON(t, app, "POST", "/s/admin/seasons", fiber.Map{
		"name":      "Temporada Março 2026",
		"starts_at": "2026-03-01T00:00:00Z",
		"ends_at":   "2026-05-31T23:59:59Z",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created models.Season
	decodeBody(t, resp, &created)
	assert.Equal(t, "temporada-marco-2026", created.Slug)
	assert.NotEmpty(t, created.ID)
}

func TestCreateSeason_DuplicateNameConflicts(t *testing.T) {
	app, _ := newSeasonApp(t)

	payload := fiber.Map{"name": "Temporada Outubro"}
	resp := doJSON(t, app, "POST", "/s/admin/seasons", payload)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, "POST", "/s/admin/seasons", payload)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestCreateSeason_Validation(t *testing.T) {
	app, _ := newSeasonApp(t)

	resp := doJSON(t, app, "POST", "/s/admin/seasons", fiber.Map{})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, "POST", "/s/admin/seasons", fiber.Map{
		"name":      "Temporada Invertida",
		"starts_at": "2026-05-01T00:00:00Z",
		"ends_at":   "2026-03-01T00:00:00Z",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetSeason_ByIDOrSlug(t *testing.T) {
	app, db := newSeasonApp(t)
	season := seedSeason(t, db, "Temporada Outubro", "temporada-outubro")

	for _, key := range []string{season.ID, season.Slug} {
		resp := doJSON(t, app, "GET", "/s/seasons/"+key, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, key)

		var got models.Season
		decodeBody(t, resp, &got)
		assert.Equal(t, season.ID, got.ID, key)
	}

	resp := doJSON(t, app, "GET", "/s/seasons/temporada-inexistente", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestUpdateSeason_RenameRegeneratesSlug(t *testing.T) {
	app, db := newSeasonApp(t)
	season := seedSeason(t, db, "Temporada Outubro", "temporada-outubro")

	resp := doJSON(t, app, "PUT", "/s/admin/seasons/"+season.ID, fiber.Map{
		"name": "Temporada de Natal",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var updated models.Season
	decodeBody(t, resp, &updated)
	assert.Equal(t, "temporada-de-natal", updated.Slug)

	// The old slug stops resolving; the new one points at the same row.
	resp = doJSON(t, app, "GET", "/s/seasons/temporada-outubro", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, "GET", "/s/seasons/temporada-de-natal", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got models.Season
	decodeBody(t, resp, &got)
	assert.Equal(t, season.ID, got.ID)
}

func TestDeleteSeason_BlockedWhileEventsExist(t *testing.T) {
	app, db := newSeasonApp(t)
	season := seedSeason(t, db, "Temporada Outubro", "temporada-outubro")
	event := seedEvent(t, db, season.ID, "ABC-123", time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))

	resp := doJSON(t, app, "DELETE", "/s/admin/seasons/"+season.ID, nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(readBody(t, resp)), "event_count")

	require.NoError(t, db.Delete(&event).Error)

	resp = doJSON(t, app, "DELETE", "/s/admin/seasons/"+season.ID, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, "DELETE", "/s/admin/seasons/"+season.ID, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGetSeasons_ChronologicalOrder(t *testing.T) {
	app, db := newSeasonApp(t)

	later := models.Season{
		Name:     "Temporada Natal",
		Slug:     "temporada-natal",
		StartsAt: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(&later).Error)

	earlier := models.Season{
		Name:     "Temporada Outubro",
		Slug:     "temporada-outubro",
		StartsAt: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(&earlier).Error)

	resp := doJSON(t, app, "GET", "/s/seasons", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var seasons []models.Season
	decodeBody(t, resp, &seasons)
	require.Len(t, seasons, 2)
	assert.Equal(t, earlier.ID, seasons[0].ID)
	assert.Equal(t, later.ID, seasons[1].ID)
}
