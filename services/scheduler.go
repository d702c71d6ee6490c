// services/scheduler.go
package services

import (
	"time"

	"card-collect-system/logger"
	"card-collect-system/models"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

func (s *EventService) StartPublishScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: publish drafts whose publish_at has arrived
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			s.publishDueEvents(time.Now())
		}),
	)
}

func (s *EventService) publishDueEvents(now time.Time) {
	var events []models.Event
	err := s.DB.Where("status = ? AND publish_at IS NOT NULL AND publish_at <= ?",
		models.EventStatusDraft, now).
		Find(&events).Error
	if err != nil {
		logger.Error("scheduler: DB error", zap.Error(err))
		return
	}

	for _, e := range events {
		e.Status = models.EventStatusPublished
		e.PublishAt = nil
		if err := s.DB.Save(&e).Error; err != nil {
			logger.Error("scheduler: failed to publish event",
				zap.String("event_id", e.ID), zap.Error(err))
		} else {
			logger.Info("✅ auto-published event",
				zap.String("event_id", e.ID), zap.String("title", e.Title))
		}
	}
}
