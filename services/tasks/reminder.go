package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"medinet/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeAppointmentReminder = "appointment:reminder"

// ReminderLead is how long before an appointment the doctor is reminded.
const ReminderLead = 24 * time.Hour

func NewReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeAppointmentReminder, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.MaxRetry(3),
		asynq.TaskID("reminder:" + payload.AppointmentID),
	}

	return task, opts, nil
}

// FireTime is ReminderLead before the appointment, or now when that has passed.
func FireTime(startsAt, now time.Time) time.Time {
	at := startsAt.Add(-ReminderLead)
	if at.Before(now) {
		return now
	}
	return at
}

// ReminderPayloadFor builds the task body for an appointment.
func ReminderPayloadFor(appt models.Appointment, doctor models.Doctor, patientName string, fireAt time.Time) models.ReminderPayload {
	return models.ReminderPayload{
		AppointmentID: appt.ID,
		DoctorID:      doctor.ID,
		PatientName:   patientName,
		Title:         "Upcoming appointment",
		Body: fmt.Sprintf("Reminder: %s with %s on %s at %s (priority %d).",
			appt.Specialty, patientName, appt.Date.Format("Jan 02, 2006"), appt.Time, appt.PriorityRank),
		FireDate: fireAt.Format(time.RFC3339),
	}
}

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqReminderScheduler queues appointment reminders on Redis.
type AsynqReminderScheduler struct {
	Client enqueuer
	Now    func() time.Time
	Logger *zap.Logger
}

func NewAsynqReminderScheduler(client *asynq.Client, logger *zap.Logger) *AsynqReminderScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AsynqReminderScheduler{Client: client, Now: time.Now, Logger: logger}
}

func (s *AsynqReminderScheduler) ScheduleReminder(ctx context.Context, appt models.Appointment, doctor models.Doctor, patientName string) error {
	fireAt := FireTime(appt.StartsAt(), s.Now())
	task, opts, err := NewReminderTask(ReminderPayloadFor(appt, doctor, patientName, fireAt), fireAt)
	if err != nil {
		return fmt.Errorf("ScheduleReminder: %w", err)
	}
	info, err := s.Client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("ScheduleReminder: enqueue: %w", err)
	}
	s.Logger.Info("Appointment reminder queued",
		zap.String("appointmentID", appt.ID),
		zap.String("taskID", info.ID),
		zap.Time("fireAt", fireAt))
	return nil
}
