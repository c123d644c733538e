package notification

import (
	"context"
	"fmt"
	"time"

	"medinet/models"

	"go.uber.org/zap"
)

// NotificationService fans reports out to every configured channel.
type NotificationService interface {
	SendReport(ctx context.Context, report Report) Result
	SendReminder(ctx context.Context, doctor models.Doctor, title, body string) Result
	Status() map[string]bool
	ChannelNames() []string
}

type DefaultNotificationService struct {
	channels []Channel
	timeout  time.Duration
	logger   *zap.Logger
}

func NewDefaultNotificationService(logger *zap.Logger, timeout time.Duration, channels ...Channel) *DefaultNotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &DefaultNotificationService{channels: channels, timeout: timeout, logger: logger}
}

// SendReport never fails; a channel's error only turns its entry false.
func (s *DefaultNotificationService) SendReport(ctx context.Context, report Report) Result {
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = time.Now()
	}
	html, err := RenderHTML(report)
	if err != nil {
		s.logger.Warn("HTML report rendering failed, sending text only", zap.Error(err))
	}
	msg := Message{
		Subject: Subject(report),
		Text:    RenderText(report),
		HTML:    html,
		Short:   RenderShort(report),
		Data: map[string]string{
			"type":           "consultation_report",
			"consultationId": report.ConsultationID,
			"appointmentId":  report.Appointment.ID,
		},
	}
	return s.fanout(ctx, report.Doctor, msg)
}

func (s *DefaultNotificationService) SendReminder(ctx context.Context, doctor models.Doctor, title, body string) Result {
	msg := Message{
		Subject: title,
		Text:    body,
		Short:   fmt.Sprintf("*%s*\n%s", title, body),
		Data:    map[string]string{"type": "appointment_reminder"},
	}
	return s.fanout(ctx, doctor, msg)
}

type delivery struct {
	name string
	ok   bool
}

func (s *DefaultNotificationService) fanout(parent context.Context, doctor models.Doctor, msg Message) Result {
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	result := Result{Channels: make(map[string]bool, len(s.channels))}
	done := make(chan delivery, len(s.channels))
	pending := 0

	for _, ch := range s.channels {
		result.Channels[ch.Name()] = false
		if !ch.Configured() {
			s.logger.Debug("Channel not configured, skipping", zap.String("channel", ch.Name()))
			continue
		}
		pending++
		go func(ch Channel) {
			done <- delivery{name: ch.Name(), ok: s.deliver(ctx, ch, doctor, msg)}
		}(ch)
	}

	for pending > 0 {
		select {
		case d := <-done:
			result.Channels[d.name] = d.ok
			pending--
		case <-ctx.Done():
			s.logger.Warn("Notification fan-out timed out",
				zap.String("doctorID", doctor.ID), zap.Int("pending", pending))
			return result
		}
	}
	return result
}

func (s *DefaultNotificationService) deliver(ctx context.Context, ch Channel, doctor models.Doctor, msg Message) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Channel panicked", zap.String("channel", ch.Name()), zap.Any("panic", r))
			ok = false
		}
	}()
	if err := ch.Deliver(ctx, doctor, msg); err != nil {
		s.logger.Warn("Channel delivery failed",
			zap.String("channel", ch.Name()),
			zap.String("doctorID", doctor.ID),
			zap.Error(err))
		return false
	}
	s.logger.Info("Notification delivered", zap.String("channel", ch.Name()), zap.String("doctorID", doctor.ID))
	return true
}

// Status reports which channels have credentials.
func (s *DefaultNotificationService) Status() map[string]bool {
	out := make(map[string]bool, len(s.channels))
	for _, ch := range s.channels {
		out[ch.Name()] = ch.Configured()
	}
	return out
}

func (s *DefaultNotificationService) ChannelNames() []string {
	names := make([]string, 0, len(s.channels))
	for _, ch := range s.channels {
		names = append(names, ch.Name())
	}
	return names
}
