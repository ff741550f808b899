package service

import (
	"context"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"videohub/dto"
)

var ErrInvalidCleanupMessage = errors.New("invalid asset cleanup message")

type CleanupService interface {
	Process(ctx context.Context, message dto.AssetCleanupMessage) error
}

type cleanupService struct {
	store MediaStore
}

// Process deletes every asset named by message. Deletes are idempotent, so a
// redelivered message only repeats work for assets that are already gone.
func (s cleanupService) Process(ctx context.Context, message dto.AssetCleanupMessage) error {
	logger := zerolog.Ctx(ctx).With().Str("reason", string(message.Reason)).Logger()
	if message.VideoId != nil {
		logger = logger.With().Str("video_id", message.VideoId.String()).Logger()
	}

	if len(message.Assets) == 0 {
		return errors.Join(ErrNonRetryable, ErrInvalidCleanupMessage, errors.New("no assets"))
	}
	for i, asset := range message.Assets {
		if asset.ExternalId == "" || !asset.Kind.Valid() {
			return errors.Join(ErrNonRetryable, ErrInvalidCleanupMessage,
				fmt.Errorf("asset %d: external id %q kind %q", i, asset.ExternalId, asset.Kind))
		}
	}

	var errs []error
	for _, asset := range message.Assets {
		if err := s.store.Delete(ctx, asset.ExternalId, asset.Kind); err != nil {
			logger.Warn().Err(err).Str("object", asset.ExternalId).Msg("failed to delete orphaned asset")
			errs = append(errs, err)
			continue
		}
		logger.Debug().Str("object", asset.ExternalId).Msg("orphaned asset deleted")
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	logger.Info().Int("assets", len(message.Assets)).Msg("asset cleanup done")
	return nil
}

func NewCleanupService(store MediaStore) CleanupService {
	return cleanupService{store: store}
}
