package notification

import (
	"context"
	"fmt"

	"medinet/models"

	"firebase.google.com/go/v4/messaging"
)

type pushSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// PushChannel notifies the doctor's device over FCM.
type PushChannel struct {
	client pushSender
}

// NewPushChannel accepts a nil client, which leaves the channel unconfigured.
func NewPushChannel(client *messaging.Client) *PushChannel {
	if client == nil {
		return &PushChannel{}
	}
	return &PushChannel{client: client}
}

func (c *PushChannel) Name() string { return ChannelPush }

func (c *PushChannel) Configured() bool { return c.client != nil }

func (c *PushChannel) Deliver(ctx context.Context, to models.Doctor, msg Message) error {
	if to.FCMToken == "" {
		return ErrNoRecipient
	}
	data := map[string]string{"role": "doctor"}
	for k, v := range msg.Data {
		data[k] = v
	}
	m := &messaging.Message{
		Token: to.FCMToken,
		Notification: &messaging.Notification{
			Title: msg.Subject,
			Body:  truncate(msg.Short, 240),
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}
	if _, err := c.client.Send(ctx, m); err != nil {
		return fmt.Errorf("fcm send: %w", err)
	}
	return nil
}
