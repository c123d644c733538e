package cron

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	directoryRepo "medinet/database/repository/directory"
	"medinet/models"
	"medinet/services/notification"
	"medinet/services/tasks"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct{ calls atomic.Int32 }

func (s *countingSweeper) CleanupInactiveSessions(context.Context) int {
	s.calls.Add(1)
	return 0
}

func TestStartSessionCleanupRunsOnSchedule(t *testing.T) {
	sweeper := &countingSweeper{}
	c, err := StartSessionCleanup(context.Background(), "@every 1s", sweeper, nil)
	require.NoError(t, err)
	defer c.Stop()

	assert.Eventually(t, func() bool { return sweeper.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestStartSessionCleanupRejectsBadSchedule(t *testing.T) {
	_, err := StartSessionCleanup(context.Background(), "every now and then", &countingSweeper{}, nil)
	assert.Error(t, err)
}

type oneDoctor struct{ doctor models.Doctor }

func (d oneDoctor) FindBySpecialty(context.Context, string) ([]models.Doctor, error) {
	return []models.Doctor{d.doctor}, nil
}

func (d oneDoctor) GetDoctor(_ context.Context, id string) (*models.Doctor, error) {
	if id != d.doctor.ID {
		return nil, directoryRepo.ErrNotFound
	}
	doc := d.doctor
	return &doc, nil
}

type reminderChannel struct {
	err  error
	sent []string
}

func (c *reminderChannel) Name() string     { return notification.ChannelPush }
func (c *reminderChannel) Configured() bool { return true }
func (c *reminderChannel) Deliver(_ context.Context, _ models.Doctor, msg notification.Message) error {
	c.sent = append(c.sent, msg.Short)
	return c.err
}

func reminderTask(t *testing.T, doctorID string) *asynq.Task {
	t.Helper()
	b, err := json.Marshal(models.ReminderPayload{AppointmentID: "a1", DoctorID: doctorID, Title: "Upcoming appointment", Body: "Neurology with Jane"})
	require.NoError(t, err)
	return asynq.NewTask(tasks.TypeAppointmentReminder, b)
}

func TestHandleReminderTaskDelivers(t *testing.T) {
	ch := &reminderChannel{}
	svc := notification.NewDefaultNotificationService(nil, time.Second, ch)
	handler := HandleReminderTask(oneDoctor{models.Doctor{ID: "d1", Name: "Chen"}}, svc, nil)

	require.NoError(t, handler(context.Background(), reminderTask(t, "d1")))
	require.Len(t, ch.sent, 1)
}

func TestHandleReminderTaskUnknownDoctor(t *testing.T) {
	ch := &reminderChannel{}
	svc := notification.NewDefaultNotificationService(nil, time.Second, ch)
	handler := HandleReminderTask(oneDoctor{models.Doctor{ID: "d1"}}, svc, nil)

	assert.NoError(t, handler(context.Background(), reminderTask(t, "d2")))
	assert.Empty(t, ch.sent)
}

func TestHandleReminderTaskRetriesOnFailure(t *testing.T) {
	ch := &reminderChannel{err: errors.New("fcm down")}
	svc := notification.NewDefaultNotificationService(nil, time.Second, ch)
	handler := HandleReminderTask(oneDoctor{models.Doctor{ID: "d1"}}, svc, nil)

	assert.ErrorIs(t, handler(context.Background(), reminderTask(t, "d1")), errReminderUndelivered)
}

func TestHandleReminderTaskBadPayload(t *testing.T) {
	svc := notification.NewDefaultNotificationService(nil, time.Second)
	handler := HandleReminderTask(oneDoctor{}, svc, nil)

	err := handler(context.Background(), asynq.NewTask(tasks.TypeAppointmentReminder, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
