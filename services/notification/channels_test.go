package notification

import (
	"context"
	"errors"
	"testing"

	"medinet/models"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/wneessen/go-mail"
)

type recordingMailer struct {
	sent []*mail.Msg
	err  error
}

func (r *recordingMailer) DialAndSendWithContext(_ context.Context, msgs ...*mail.Msg) error {
	r.sent = append(r.sent, msgs...)
	return r.err
}

type recordingTwilio struct {
	params []*twilioApi.CreateMessageParams
}

func (r *recordingTwilio) CreateMessage(p *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	r.params = append(r.params, p)
	return &twilioApi.ApiV2010Message{}, nil
}

type recordingFCM struct {
	msgs []*messaging.Message
	err  error
}

func (r *recordingFCM) Send(_ context.Context, m *messaging.Message) (string, error) {
	r.msgs = append(r.msgs, m)
	return "projects/x/messages/1", r.err
}

func TestUnconfiguredChannels(t *testing.T) {
	t.Parallel()

	email, err := NewEmailChannel("", 587, "", "", "")
	require.NoError(t, err)
	assert.False(t, email.Configured())
	assert.False(t, NewWhatsAppChannel("", "", "").Configured())
	assert.False(t, NewPushChannel(nil).Configured())
}

func TestEmailChannelDeliver(t *testing.T) {
	t.Parallel()

	mailer := &recordingMailer{}
	ch := &EmailChannel{sender: mailer, from: "noreply@example.com"}

	err := ch.Deliver(context.Background(), models.Doctor{Email: "kim@example.com"}, Message{Subject: "Report", Text: "body", HTML: "<p>body</p>"})
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"Report"}, mailer.sent[0].GetGenHeader(mail.HeaderSubject))

	assert.ErrorIs(t, ch.Deliver(context.Background(), models.Doctor{}, Message{}), ErrNoRecipient)
}

func TestWhatsAppChannelDeliver(t *testing.T) {
	t.Parallel()

	api := &recordingTwilio{}
	ch := &WhatsAppChannel{api: api, from: "+15550000000"}

	require.NoError(t, ch.Deliver(context.Background(), models.Doctor{WhatsApp: "+15551112222"}, Message{Short: "short"}))
	require.Len(t, api.params, 1)
	assert.Equal(t, "whatsapp:+15550000000", *api.params[0].From)
	assert.Equal(t, "whatsapp:+15551112222", *api.params[0].To)
	assert.Equal(t, "short", *api.params[0].Body)

	assert.ErrorIs(t, ch.Deliver(context.Background(), models.Doctor{}, Message{}), ErrNoRecipient)
}

func TestPushChannelDeliver(t *testing.T) {
	t.Parallel()

	fcm := &recordingFCM{}
	ch := &PushChannel{client: fcm}

	err := ch.Deliver(context.Background(), models.Doctor{FCMToken: "tok"}, Message{Subject: "New patient", Short: "s", Data: map[string]string{"type": "consultation_report"}})
	require.NoError(t, err)
	require.Len(t, fcm.msgs, 1)
	assert.Equal(t, "tok", fcm.msgs[0].Token)
	assert.Equal(t, "doctor", fcm.msgs[0].Data["role"])
	assert.Equal(t, "consultation_report", fcm.msgs[0].Data["type"])

	fcm.err = errors.New("unregistered")
	assert.Error(t, ch.Deliver(context.Background(), models.Doctor{FCMToken: "tok"}, Message{}))
	assert.ErrorIs(t, ch.Deliver(context.Background(), models.Doctor{}, Message{}), ErrNoRecipient)
}
