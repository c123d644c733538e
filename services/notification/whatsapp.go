package notification

import (
	"context"
	"strings"

	"medinet/models"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type WhatsAppChannel struct {
	api  messageCreator
	from string
}

func NewWhatsAppChannel(accountSID, authToken, from string) *WhatsAppChannel {
	if accountSID == "" || authToken == "" || from == "" {
		return &WhatsAppChannel{}
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &WhatsAppChannel{api: client.Api, from: from}
}

func (c *WhatsAppChannel) Name() string { return ChannelWhatsApp }

func (c *WhatsAppChannel) Configured() bool { return c.api != nil }

// Deliver sends the short rendering. The twilio client takes no context, so
// cancellation is enforced by the fan-out deadline.
func (c *WhatsAppChannel) Deliver(ctx context.Context, to models.Doctor, msg Message) error {
	if to.WhatsApp == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(whatsappAddress(c.from))
	params.SetTo(whatsappAddress(to.WhatsApp))
	params.SetBody(msg.Short)
	_, err := c.api.CreateMessage(params)
	return err
}

func whatsappAddress(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}
