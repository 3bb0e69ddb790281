// Package pusher publishes realtime task events to per-user Pusher channels.
package pusher

import (
	"context"
	"fmt"
	"log/slog"

	pushersdk "github.com/pusher/pusher-http-go/v5"
	"github.com/tasksync/tasksync-api/internal/config"
	"github.com/tasksync/tasksync-api/internal/platform/logger"
)

// Triggerer is the subset of the Pusher client the publisher needs.
type Triggerer interface {
	Trigger(channel string, eventName string, data interface{}) error
}

// Publisher sends events on the "user-<id>" channel of the recipient.
type Publisher struct {
	client Triggerer
	logger *slog.Logger
}

// NewClient builds a Pusher client from configuration.
func NewClient(cfg config.PusherConfig) *pushersdk.Client {
	return &pushersdk.Client{
		AppID:   cfg.AppID,
		Key:     cfg.Key,
		Secret:  cfg.Secret,
		Cluster: cfg.Cluster,
		Secure:  true,
	}
}

// NewPublisher wraps client.
func NewPublisher(client Triggerer, logger *slog.Logger) *Publisher {
	if client == nil {
		panic("pusher client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		client: client,
		logger: logger.With(slog.String("component", "pusher")),
	}
}

// UserChannel returns the channel a user's browser subscribes to.
func UserChannel(userID string) string {
	return "user-" + userID
}

// Publish triggers event on the recipient's channel.
func (p *Publisher) Publish(ctx context.Context, recipientID, event string, payload any) error {
	channel := UserChannel(recipientID)
	if err := p.client.Trigger(channel, event, payload); err != nil {
		return fmt.Errorf("pusher trigger %s on %s: %w", event, channel, err)
	}

	logger.FromContextOrDefault(ctx, p.logger).Debug("pusher event sent",
		slog.String("channel", channel),
		slog.String("event", event))
	return nil
}
