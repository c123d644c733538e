package notification

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"medinet/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	name       string
	configured bool
	err        error
	panicMsg   string
	block      bool
	calls      atomic.Int32
	last       atomic.Value
}

func (f *fakeChannel) Name() string     { return f.name }
func (f *fakeChannel) Configured() bool { return f.configured }

func (f *fakeChannel) Deliver(ctx context.Context, _ models.Doctor, msg Message) error {
	f.calls.Add(1)
	f.last.Store(msg)
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

func sampleReport() Report {
	return Report{
		ConsultationID: "0123456789abcdef",
		Patient:        models.Patient{ID: "p1", Name: "Ana", Email: "ana@example.com"},
		Symptoms:       "fever for 2 days | mild | no other symptoms",
		Transcript: []models.Turn{
			{Role: models.RoleAssistant, Content: "Hello Ana!"},
			{Role: models.RolePatient, Content: "fever for 2 days"},
		},
		Diagnosis: models.DiagnosisOutcome{
			Diseases:           []models.Disease{{Name: "Influenza", Confidence: 70, Severity: 45}},
			SeverityScore:      45,
			Urgency:            models.UrgencyLow,
			Specialty:          "General Medicine",
			RecommendedActions: []string{"Rest"},
		},
		Appointment: models.Appointment{ID: "a1", Date: time.Date(2025, 6, 17, 0, 0, 0, 0, time.UTC), Time: "14:00", PriorityRank: 4},
		Doctor:      models.Doctor{ID: "d1", Name: "Kim", Specialty: "General Medicine", Email: "kim@example.com"},
		GeneratedAt: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestSendReportPartialFailure(t *testing.T) {
	t.Parallel()

	email := &fakeChannel{name: ChannelEmail, configured: true}
	wa := &fakeChannel{name: ChannelWhatsApp, configured: true, err: errors.New("twilio 500")}
	svc := NewDefaultNotificationService(nil, time.Second, email, wa)

	res := svc.SendReport(context.Background(), sampleReport())
	assert.True(t, res.EmailSent())
	assert.False(t, res.MessagingSent())
	assert.True(t, res.Any())
	assert.Equal(t, []string{ChannelEmail}, res.SentVia(svc.ChannelNames()))
	assert.Equal(t, int32(1), wa.calls.Load())

	msg := email.last.Load().(Message)
	assert.Contains(t, msg.Subject, "Ana")
	assert.Contains(t, msg.Subject, "01234567")
	assert.Contains(t, msg.Text, "Influenza")
	assert.Contains(t, msg.HTML, "Influenza")
	assert.Contains(t, msg.Short, "*Top Diagnosis*: Influenza (70%)")
}

func TestSendReportPanicIsContained(t *testing.T) {
	t.Parallel()

	email := &fakeChannel{name: ChannelEmail, configured: true, panicMsg: "boom"}
	wa := &fakeChannel{name: ChannelWhatsApp, configured: true}
	svc := NewDefaultNotificationService(nil, time.Second, email, wa)

	res := svc.SendReport(context.Background(), sampleReport())
	assert.False(t, res.EmailSent())
	assert.True(t, res.MessagingSent())
}

func TestSendReportSkipsUnconfigured(t *testing.T) {
	t.Parallel()

	email := &fakeChannel{name: ChannelEmail}
	wa := &fakeChannel{name: ChannelWhatsApp}
	svc := NewDefaultNotificationService(nil, time.Second, email, wa)

	res := svc.SendReport(context.Background(), sampleReport())
	assert.False(t, res.Any())
	assert.Zero(t, email.calls.Load())
	assert.Zero(t, wa.calls.Load())
	assert.Equal(t, map[string]bool{ChannelEmail: false, ChannelWhatsApp: false}, svc.Status())
}

func TestSendReportTimeoutDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	slow := &fakeChannel{name: ChannelWhatsApp, configured: true, block: true}
	email := &fakeChannel{name: ChannelEmail, configured: true}
	svc := NewDefaultNotificationService(nil, 50*time.Millisecond, slow, email)

	start := time.Now()
	res := svc.SendReport(context.Background(), sampleReport())
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, res.EmailSent())
	assert.False(t, res.MessagingSent())
}

func TestSendReminder(t *testing.T) {
	t.Parallel()

	push := &fakeChannel{name: ChannelPush, configured: true}
	svc := NewDefaultNotificationService(nil, time.Second, push)

	res := svc.SendReminder(context.Background(), models.Doctor{ID: "d1"}, "Appointment tomorrow", "Ana at 14:00")
	assert.True(t, res.Channels[ChannelPush])
	msg := push.last.Load().(Message)
	assert.Equal(t, "appointment_reminder", msg.Data["type"])
}

func TestRenderersIncludeLocationWhenKnown(t *testing.T) {
	t.Parallel()

	r := sampleReport()
	r.Doctor.ClinicAddress = "1 Main St"
	r.Location = &models.DistanceResult{DistanceText: "5.2 km", DurationText: "12 mins", NavigationURL: "https://maps.example/nav"}

	text := RenderText(r)
	assert.Contains(t, text, "CLINIC LOCATION & NAVIGATION")
	assert.Contains(t, text, "1 Main St")
	assert.Contains(t, RenderShort(r), "https://maps.example/nav")

	html, err := RenderHTML(r)
	require.NoError(t, err)
	assert.Contains(t, html, "https://maps.example/nav")
	assert.Contains(t, html, "urgency-low")

	r.Location = nil
	assert.NotContains(t, RenderText(r), "CLINIC LOCATION")
}

func TestRenderHTMLEscapesContent(t *testing.T) {
	t.Parallel()

	r := sampleReport()
	r.Patient.Name = "<script>alert(1)</script>"
	html, err := RenderHTML(r)
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>alert(1)</script>")
}
