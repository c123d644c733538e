package notification

import (
	"context"
	"fmt"

	"medinet/models"

	"github.com/wneessen/go-mail"
)

type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type EmailChannel struct {
	sender mailSender
	from   string
}

// NewEmailChannel returns an unconfigured channel when host or credentials are missing.
func NewEmailChannel(host string, port int, user, pass, from string) (*EmailChannel, error) {
	if host == "" || user == "" || pass == "" {
		return &EmailChannel{}, nil
	}
	if from == "" {
		from = user
	}
	if port <= 0 {
		port = 587
	}
	client, err := mail.NewClient(host,
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(user),
		mail.WithPassword(pass),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &EmailChannel{sender: client, from: from}, nil
}

func (c *EmailChannel) Name() string { return ChannelEmail }

func (c *EmailChannel) Configured() bool { return c.sender != nil }

func (c *EmailChannel) Deliver(ctx context.Context, to models.Doctor, msg Message) error {
	if to.Email == "" {
		return ErrNoRecipient
	}
	m := mail.NewMsg()
	if err := m.FromFormat("AI Medical System", c.from); err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	if err := m.To(to.Email); err != nil {
		return fmt.Errorf("to address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}
	return c.sender.DialAndSendWithContext(ctx, m)
}
