package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"medinet/config"
	directoryRepo "medinet/database/repository/directory"
	"medinet/models"
	"medinet/services/notification"
	"medinet/services/tasks"
	"medinet/utils"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

var errReminderUndelivered = errors.New("reminder not delivered on any channel")

// QueueRedisOpt is the asynq connection for reminder tasks.
func QueueRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitReminderWorker starts the async worker in background. The caller shuts
// the returned server down.
func InitReminderWorker(ctx context.Context, doctors directoryRepo.DoctorDirectory, notifSvc notification.NotificationService) *asynq.Server {
	logger := utils.GetLogger()

	srv := asynq.NewServer(
		QueueRedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: logger.Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeAppointmentReminder, HandleReminderTask(doctors, notifSvc, logger))

	go monitorRedisConnection(ctx, logger)

	go func() {
		logger.Info("Starting reminder worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Start(mux)
			if err == nil {
				return
			}
			logger.Error("Reminder worker failed to start",
				zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
			if attempts == maxAttempts {
				logger.Error("Reminder worker gave up; reminders will not be delivered")
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(attempts*2) * time.Second):
			}
		}
	}()

	return srv
}

// HandleReminderTask delivers a queued appointment reminder to the doctor.
func HandleReminderTask(doctors directoryRepo.DoctorDirectory, notifSvc notification.NotificationService, logger *zap.Logger) asynq.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("Invalid reminder payload", zap.Error(err))
			return fmt.Errorf("reminder payload: %v: %w", err, asynq.SkipRetry)
		}
		log := logger.With(zap.String("appointmentID", p.AppointmentID), zap.String("doctorID", p.DoctorID))

		doctor, err := doctors.GetDoctor(ctx, p.DoctorID)
		if errors.Is(err, directoryRepo.ErrNotFound) {
			log.Warn("Reminder for unknown doctor dropped")
			return nil
		}
		if err != nil {
			return fmt.Errorf("reminder doctor lookup: %w", err)
		}

		log.Info("Triggering appointment reminder", zap.String("title", p.Title))
		res := notifSvc.SendReminder(ctx, *doctor, p.Title, p.Body)
		if res.Any() {
			return nil
		}
		for _, configured := range notifSvc.Status() {
			if configured {
				log.Warn("Reminder not delivered")
				return errReminderUndelivered
			}
		}
		log.Debug("No notification channel configured; reminder skipped")
		return nil
	}
}

// monitorRedisConnection pings the queue Redis periodically to detect failures at runtime.
func monitorRedisConnection(ctx context.Context, logger *zap.Logger) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
	defer client.Close()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil && ctx.Err() == nil {
				logger.Warn("Reminder queue Redis connection lost", zap.Error(err))
			}
		}
	}
}
