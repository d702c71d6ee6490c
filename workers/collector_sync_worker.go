// workers/collector_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"card-collect-system/logger"
	"card-collect-system/models"
	"card-collect-system/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// profileRecord matches the JSON the profile service returns for one user.
// Only the fields the mirror keeps are decoded; the rest of the payload is
// ignored.
type profileRecord struct {
	ExternalID        string    `json:"external_id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	ProfilePictureURL *string   `json:"profile_picture_url,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// profileChangesResponse is the top-level structure of the profile service
// response.
type profileChangesResponse struct {
	Users []profileRecord `json:"users"`
}

// CollectorSyncWorker keeps the collector_users mirror current. Rankings and
// collections join against the mirror locally instead of calling the profile
// service per request.
type CollectorSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string // e.g. "http://localhost:8500"
	endpointPath string // e.g. "/api/v1/public/profiles"
	serviceToken string
	httpClient   *http.Client
}

func NewCollectorSyncWorker(db *gorm.DB, profileServiceBaseURL, endpointPath, serviceToken string) *CollectorSyncWorker {
	return &CollectorSyncWorker{
		db:           db,
		interval:     1 * time.Minute,
		baseURL:      profileServiceBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient:   utils.HTTPClient,
	}
}

func (w *CollectorSyncWorker) Start(ctx context.Context) {
	logger.Info("🔁 starting collector sync worker (profile service → collector_users)")
	go w.run(ctx)
}

func (w *CollectorSyncWorker) run(ctx context.Context) {
	// Initial sync: backfill from the beginning of time
	if err := w.syncBatch(ctx, time.Time{}); err != nil {
		logger.Warn("initial collector sync failed", zap.Error(err))
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Incremental: resume from the newest row we already hold
			if err := w.syncBatch(ctx, w.getLastSyncTime()); err != nil {
				logger.Error("collector sync batch failed", zap.Error(err))
			}
		case <-ctx.Done():
			logger.Info("⏹️ collector sync worker stopped")
			return
		}
	}
}

// getLastSyncTime finds the most recent UpdatedAt in the local mirror.
func (w *CollectorSyncWorker) getLastSyncTime() time.Time {
	var lastTime time.Time
	err := w.db.Raw("SELECT MAX(updated_at) FROM collector_users").Scan(&lastTime).Error
	if err != nil || lastTime.IsZero() {
		return time.Unix(0, 0)
	}
	return lastTime
}

// syncBatch fetches profile changes since the given time and upserts them
// into collector_users keyed on external_user_id.
func (w *CollectorSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid profile service URL %q: %w", w.baseURL, err)
	}

	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	endpointURL.RawQuery = q.Encode()
	finalURL := endpointURL.String()

	req, err := http.NewRequestWithContext(ctx, "GET", finalURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request to profile service failed: %w", err)
	}
	defer func() {
		// Always drain & close to keep the connection reusable
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("profile service non-200 response: %d: %s", resp.StatusCode, string(body))
	}

	var response profileChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode profile service response: %w", err)
	}

	if len(response.Users) == 0 {
		return nil
	}

	var upserted, failed int
	for _, remote := range response.Users {
		mirror := models.CollectorUser{
			ExternalUserID: remote.ExternalID,
			DisplayName:    remote.Username,
			AvatarURL:      remote.ProfilePictureURL,
			Email:          remote.Email,
			CreatedAt:      remote.CreatedAt,
			UpdatedAt:      remote.UpdatedAt,
		}

		err := w.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"display_name", "avatar_url", "email", "created_at", "updated_at",
			}),
		}).Create(&mirror).Error
		if err != nil {
			failed++
			logger.Warn("collector upsert failed",
				zap.String("external_user_id", remote.ExternalID),
				zap.Error(err))
		} else {
			upserted++
		}
	}

	logger.Info("✅ collector mirror synced",
		zap.Int("received", len(response.Users)),
		zap.Int("upserted", upserted),
		zap.Int("failed", failed),
	)
	return nil
}
