package services

import (
	"fmt"

	"timebank-backend/internal/config"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/certificate"
	"github.com/sideshow/apns2/payload"
)

// PushService delivers APNs notifications. It is a no-op when no
// certificate is configured.
type PushService struct {
	client *apns2.Client
	topic  string
}

// NewPushService creates a push service from the APNs configuration.
func NewPushService(cfg config.APNsConfig) (*PushService, error) {
	if cfg.CertFile == "" {
		log.Info().Msg("Push notifications disabled, no APNs certificate configured")
		return &PushService{}, nil
	}

	cert, err := certificate.FromPemFile(cfg.CertFile, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs certificate: %w", err)
	}

	client := apns2.NewClient(cert).Development()
	if cfg.Production {
		client = apns2.NewClient(cert).Production()
	}

	return &PushService{client: client, topic: cfg.Topic}, nil
}

// Enabled reports whether a client is configured.
func (s *PushService) Enabled() bool {
	return s.client != nil
}

// Send pushes one alert notification to a device token.
func (s *PushService) Send(deviceToken, title, body string) error {
	if s.client == nil {
		return nil
	}

	notification := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       s.topic,
		Payload:     payload.NewPayload().AlertTitle(title).AlertBody(body),
	}

	res, err := s.client.Push(notification)
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}
	if !res.Sent() {
		return fmt.Errorf("notification rejected: %s", res.Reason)
	}
	return nil
}
