package handler

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/cenkalti/backoff/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"videohub/dto"
	"videohub/service"
)

type ServiceDependencies struct {
	CleanupService service.CleanupService
}

func AssetCleanupHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var cleanupMsg dto.AssetCleanupMessage
	if err := json.Unmarshal(msg.Body, &cleanupMsg); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("message_id", msg.MessageId).Msg("failed to unmarshal asset cleanup message")
		return backoff.Permanent(err)
	}

	zerolog.Ctx(ctx).Info().
		Str("message_id", msg.MessageId).
		Str("reason", string(cleanupMsg.Reason)).
		Int("assets", len(cleanupMsg.Assets)).
		Msg("received asset cleanup message")

	err := deps.CleanupService.Process(ctx, cleanupMsg)
	if err != nil {
		if errors.Is(err, service.ErrNonRetryable) {
			return backoff.Permanent(err)
		}
		return err
	}

	return nil
}
