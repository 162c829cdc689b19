package services

import (
	"context"
	"errors"
	"fmt"

	"readalong-backend/internal/config"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// apnsPusher is the part of the apns2 client the notifier uses
type apnsPusher interface {
	PushWithContext(ctx apns2.Context, n *apns2.Notification) (*apns2.Response, error)
}

// APNsNotifier sends chat alerts to iOS devices
type APNsNotifier struct {
	client apnsPusher
	topic  string
}

// NewAPNsNotifier creates a token-authenticated APNs client
func NewAPNsNotifier(cfg config.APNsConfig) (*APNsNotifier, error) {
	authKey, err := token.AuthKeyFromFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNsNotifier{client: client, topic: cfg.Topic}, nil
}

// Notify sends one alert per device token. Failures for individual devices
// are collected and returned together.
func (n *APNsNotifier) Notify(ctx context.Context, deviceTokens []string, alert PushAlert) error {
	body := payload.NewPayload().
		AlertTitle(alert.Title).
		AlertBody(alert.Body).
		Sound("default").
		ThreadID(alert.GroupID).
		Custom("group_id", alert.GroupID)

	var errs []error
	for _, deviceToken := range deviceTokens {
		resp, err := n.client.PushWithContext(ctx, &apns2.Notification{
			DeviceToken: deviceToken,
			Topic:       n.topic,
			Payload:     body,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to push: %w", err))
			continue
		}
		if !resp.Sent() {
			log.Debug().
				Int("status", resp.StatusCode).
				Str("reason", resp.Reason).
				Msg("APNs rejected notification")
			errs = append(errs, fmt.Errorf("apns rejected notification: %s", resp.Reason))
		}
	}
	return errors.Join(errs...)
}
