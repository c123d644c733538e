package notification

import (
	"context"
	"errors"

	"medinet/models"
)

// ErrNoRecipient means the doctor has no address for this channel.
var ErrNoRecipient = errors.New("doctor has no address for channel")

// Message carries every rendering; each channel picks what fits.
type Message struct {
	Subject string
	Text    string
	HTML    string
	Short   string
	Data    map[string]string
}

// Channel delivers a message to a doctor over one transport.
type Channel interface {
	Name() string
	// Configured is false when credentials are absent; such channels are skipped.
	Configured() bool
	Deliver(ctx context.Context, to models.Doctor, msg Message) error
}

const (
	ChannelEmail    = "email"
	ChannelWhatsApp = "whatsapp"
	ChannelPush     = "push"
)

// Result records per-channel success of one fan-out.
type Result struct {
	Channels map[string]bool `json:"channels"`
}

func (r Result) EmailSent() bool {
	return r.Channels[ChannelEmail]
}

// MessagingSent reports WhatsApp delivery.
func (r Result) MessagingSent() bool {
	return r.Channels[ChannelWhatsApp]
}

func (r Result) Any() bool {
	for _, ok := range r.Channels {
		if ok {
			return true
		}
	}
	return false
}

// SentVia lists successful channels in registration order.
func (r Result) SentVia(order []string) []string {
	var out []string
	for _, name := range order {
		if r.Channels[name] {
			out = append(out, name)
		}
	}
	return out
}
