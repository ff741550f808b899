package service

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"strings"
	"time"
	"videohub/constant"
	"videohub/dto"
	"videohub/entities"
	"videohub/repository"
)

type MediaStore interface {
	Upload(ctx context.Context, localPath string, kind constant.AssetKind) (*dto.UploadedAsset, error)
	Delete(ctx context.Context, externalId string, kind constant.AssetKind) error
}

// CleanupQueue receives assets whose inline compensation failed.
type CleanupQueue interface {
	EnqueueAssetCleanup(ctx context.Context, message dto.AssetCleanupMessage) error
}

type VideoService interface {
	Publish(ctx context.Context, input dto.PublishVideoInput) (*entities.Video, error)
	List(ctx context.Context, input dto.ListVideosInput) (*dto.VideoPage, error)
	GetById(ctx context.Context, videoId uuid.UUID, callerId uuid.UUID) (*dto.VideoDetail, error)
	Update(ctx context.Context, input dto.UpdateVideoInput) (*entities.Video, error)
	Delete(ctx context.Context, videoId uuid.UUID) error
}

type videoService struct {
	repo  repository.VideoRepository
	store MediaStore
	queue CleanupQueue
	now   func() time.Time
}

func (s *videoService) Publish(ctx context.Context, input dto.PublishVideoInput) (*entities.Video, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, ValidationError("title and description are required")
	}
	if !hasFile(input.VideoFile) {
		return nil, ValidationError("source file required")
	}
	if !hasFile(input.Thumbnail) {
		return nil, ValidationError("thumbnail required")
	}
	if input.VideoFile.Size > constant.MaxVideoFileSize {
		return nil, ValidationError(fmt.Sprintf("source file must not exceed %d MiB", constant.MaxVideoFileSize>>20))
	}

	logger := zerolog.Ctx(ctx).With().Str("owner_id", input.OwnerId.String()).Logger()

	source, err := s.store.Upload(ctx, input.VideoFile.Path, constant.AssetKindVideo)
	if err != nil {
		logger.Error().Err(err).Msg("failed to upload source file")
		return nil, UploadError("failed to upload source file", err)
	}
	uploaded := []dto.CleanupAsset{{ExternalId: source.ExternalId, Kind: constant.AssetKindVideo}}

	thumbnail, err := s.store.Upload(ctx, input.Thumbnail.Path, constant.AssetKindImage)
	if err != nil {
		logger.Error().Err(err).Msg("failed to upload thumbnail")
		compErr := s.compensate(ctx, constant.CleanupReasonPublishRollback, nil, uploaded...)
		return nil, UploadError("failed to upload thumbnail", errors.Join(err, compErr))
	}
	uploaded = append(uploaded, dto.CleanupAsset{ExternalId: thumbnail.ExternalId, Kind: constant.AssetKindImage})

	owner, err := s.repo.FindUserById(ctx, input.OwnerId)
	if err != nil {
		compErr := s.compensate(ctx, constant.CleanupReasonPublishRollback, nil, uploaded...)
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, NotFoundError("user not found", errors.Join(err, compErr))
		}
		logger.Error().Err(err).Msg("failed to resolve owner")
		return nil, DatabaseError("failed to resolve video owner", errors.Join(err, compErr))
	}

	video, err := s.repo.CreateVideo(ctx, &entities.Video{
		Title:           title,
		Description:     description,
		SourceAsset:     source.Reference(),
		ThumbnailAsset:  thumbnail.Reference(),
		DurationSeconds: source.DurationSeconds,
		ViewCount:       0,
		OwnerId:         owner.ID,
	})
	if err != nil {
		compErr := s.compensate(ctx, constant.CleanupReasonPublishRollback, nil, uploaded...)
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, NotFoundError("user not found", errors.Join(err, compErr))
		}
		logger.Error().Err(err).Msg("failed to persist video")
		return nil, DatabaseError("failed to save video", errors.Join(err, compErr))
	}

	logger.Info().
		Str("video_id", video.ID.String()).
		Float64("duration", video.DurationSeconds).
		Int64("size_bytes", source.SizeBytes).
		Msg("video published")
	return video, nil
}

func (s *videoService) List(ctx context.Context, input dto.ListVideosInput) (*dto.VideoPage, error) {
	search, err := normalizeSearch(input)
	if err != nil {
		return nil, err
	}

	if search.OwnerId != nil {
		if _, err := s.repo.FindUserById(ctx, *search.OwnerId); err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return nil, NotFoundError("user not found", err)
			}
			return nil, DatabaseError("failed to resolve user", err)
		}
	}

	page, err := s.repo.AggregateVideosByTextSearch(ctx, search)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("query", search.Query).Msg("video search failed")
		return nil, DatabaseError("failed to list videos", err)
	}

	return page, nil
}

func normalizeSearch(input dto.ListVideosInput) (dto.VideoSearch, error) {
	query := strings.TrimSpace(input.Query)
	sortBy := strings.TrimSpace(input.SortBy)
	sortType := constant.SortType(strings.ToLower(strings.TrimSpace(input.SortType)))
	if query == "" || sortBy == "" || sortType == "" {
		return dto.VideoSearch{}, ValidationError("query, sortBy and sortType are required")
	}

	column, ok := constant.VideoSortColumns[sortBy]
	if !ok {
		return dto.VideoSearch{}, ValidationError(fmt.Sprintf("cannot sort by %q", sortBy))
	}
	if sortType != constant.SortTypeAsc && sortType != constant.SortTypeDesc {
		return dto.VideoSearch{}, ValidationError("sortType must be asc or desc")
	}

	page := input.Page
	if page < 1 {
		page = constant.DefaultPage
	}
	limit := input.Limit
	if limit < 1 {
		limit = constant.DefaultLimit
	}
	if limit > constant.MaxLimit {
		limit = constant.MaxLimit
	}

	return dto.VideoSearch{
		Query:      query,
		SortColumn: column,
		SortType:   sortType,
		OwnerId:    input.OwnerId,
		Page:       page,
		Limit:      limit,
	}, nil
}

func (s *videoService) GetById(ctx context.Context, videoId uuid.UUID, callerId uuid.UUID) (*dto.VideoDetail, error) {
	detail, err := s.repo.AggregateVideoDetail(ctx, videoId, callerId)
	if err != nil {
		if errors.Is(err, repository.ErrVideoNotFound) {
			return nil, NotFoundError("video not found", err)
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, NotFoundError("video owner not found", err)
		}
		zerolog.Ctx(ctx).Error().Err(err).Str("video_id", videoId.String()).Msg("failed to load video detail")
		return nil, DatabaseError("failed to fetch video", err)
	}

	return detail, nil
}

func (s *videoService) Update(ctx context.Context, input dto.UpdateVideoInput) (*entities.Video, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, ValidationError("title and description are required")
	}
	if !hasFile(input.Thumbnail) {
		return nil, ValidationError("thumbnail required")
	}

	logger := zerolog.Ctx(ctx).With().Str("video_id", input.VideoId.String()).Logger()

	if _, err := s.repo.FindVideoById(ctx, input.VideoId); err != nil {
		if errors.Is(err, repository.ErrVideoNotFound) {
			return nil, NotFoundError("video not found", err)
		}
		return nil, DatabaseError("failed to fetch video", err)
	}

	thumbnail, err := s.store.Upload(ctx, input.Thumbnail.Path, constant.AssetKindImage)
	if err != nil {
		logger.Error().Err(err).Msg("failed to upload replacement thumbnail")
		return nil, UploadError("failed to upload thumbnail", err)
	}

	video, previous, err := s.repo.UpdateVideo(ctx, input.VideoId, repository.VideoPatch{
		Title:          title,
		Description:    description,
		ThumbnailAsset: thumbnail.Reference(),
		IncrementViews: true,
	})
	if err != nil {
		videoId := input.VideoId
		compErr := s.compensate(ctx, constant.CleanupReasonUpdateRollback, &videoId,
			dto.CleanupAsset{ExternalId: thumbnail.ExternalId, Kind: constant.AssetKindImage})
		if errors.Is(err, repository.ErrVideoNotFound) {
			return nil, NotFoundError("video not found", errors.Join(err, compErr))
		}
		logger.Error().Err(err).Msg("failed to update video")
		return nil, DatabaseError("failed to update video", errors.Join(err, compErr))
	}

	if !previous.IsZero() && previous.ExternalId != thumbnail.ExternalId {
		if err := s.store.Delete(ctx, previous.ExternalId, constant.AssetKindImage); err != nil {
			logger.Error().Err(err).Str("object", previous.ExternalId).Msg("failed to delete replaced thumbnail")
			s.enqueue(ctx, constant.CleanupReasonReplacedThumb, &video.ID,
				dto.CleanupAsset{ExternalId: previous.ExternalId, Kind: constant.AssetKindImage})
			return nil, UploadError("thumbnail updated but the previous thumbnail could not be deleted", err)
		}
	}

	logger.Info().Int64("views", video.ViewCount).Msg("video updated")
	return video, nil
}

func (s *videoService) Delete(ctx context.Context, videoId uuid.UUID) error {
	logger := zerolog.Ctx(ctx).With().Str("video_id", videoId.String()).Logger()

	video, err := s.repo.FindVideoById(ctx, videoId)
	if err != nil {
		if errors.Is(err, repository.ErrVideoNotFound) {
			return NotFoundError("video not found", err)
		}
		return DatabaseError("failed to fetch video", err)
	}

	if err := s.store.Delete(ctx, video.SourceAsset.ExternalId, constant.AssetKindVideo); err != nil {
		logger.Error().Err(err).Msg("failed to delete source file, keeping video record")
		return UploadError("failed to delete source file", err)
	}
	if err := s.store.Delete(ctx, video.ThumbnailAsset.ExternalId, constant.AssetKindImage); err != nil {
		logger.Error().Err(err).Msg("failed to delete thumbnail, keeping video record")
		return UploadError("failed to delete thumbnail", err)
	}

	target := video
	for attempt := 1; ; attempt++ {
		current, err := s.repo.DeleteVideo(ctx, target)
		if err == nil {
			break
		}
		switch {
		case errors.Is(err, repository.ErrVideoNotFound):
			return NotFoundError("video not found", err)
		case errors.Is(err, repository.ErrVideoChanged) && attempt < constant.MaxDeleteAttempts:
			logger.Warn().
				Str("thumbnail", current.ThumbnailAsset.ExternalId).
				Int("attempt", attempt).
				Msg("video changed while deleting, removing its newer media")
			s.deleteNewerMedia(ctx, target, current)
			target = current
		case errors.Is(err, repository.ErrVideoChanged):
			logger.Error().Err(err).Msg("video kept changing while deleting")
			s.deleteNewerMedia(ctx, target, current)
			return NotFoundError("video changed while it was being deleted", err)
		default:
			logger.Error().Err(err).Msg("media deleted but video record remains")
			return DatabaseError("media files were deleted but the video record could not be removed", err)
		}
	}

	logger.Info().Msg("video deleted")
	return nil
}

// deleteNewerMedia removes the assets current references that deleted did not.
// The source behind current is already gone, so anything that cannot be removed
// inline is queued and the row delete proceeds.
func (s *videoService) deleteNewerMedia(ctx context.Context, deleted, current *entities.Video) {
	var newer []dto.CleanupAsset
	if current.SourceAsset.ExternalId != deleted.SourceAsset.ExternalId {
		newer = append(newer, dto.CleanupAsset{ExternalId: current.SourceAsset.ExternalId, Kind: constant.AssetKindVideo})
	}
	if current.ThumbnailAsset.ExternalId != deleted.ThumbnailAsset.ExternalId {
		newer = append(newer, dto.CleanupAsset{ExternalId: current.ThumbnailAsset.ExternalId, Kind: constant.AssetKindImage})
	}
	_ = s.compensate(ctx, constant.CleanupReasonDeleteRace, &current.ID, newer...)
}

// compensate deletes assets uploaded earlier in a failed operation. It runs
// once, detached from request cancellation; whatever it cannot delete is handed
// to the cleanup queue.
func (s *videoService) compensate(ctx context.Context, reason constant.CleanupReason, videoId *uuid.UUID, assets ...dto.CleanupAsset) error {
	ctx = context.WithoutCancel(ctx)
	var (
		errs   []error
		failed []dto.CleanupAsset
	)
	for _, asset := range assets {
		if err := s.store.Delete(ctx, asset.ExternalId, asset.Kind); err != nil {
			errs = append(errs, err)
			failed = append(failed, asset)
		}
	}
	if len(failed) == 0 {
		return nil
	}

	zerolog.Ctx(ctx).Warn().
		Errs("errors", errs).
		Str("reason", string(reason)).
		Int("orphans", len(failed)).
		Msg("compensating delete failed")
	s.enqueue(ctx, reason, videoId, failed...)

	return fmt.Errorf("compensating delete failed: %w", errors.Join(errs...))
}

func (s *videoService) enqueue(ctx context.Context, reason constant.CleanupReason, videoId *uuid.UUID, assets ...dto.CleanupAsset) {
	if s.queue == nil || len(assets) == 0 {
		return
	}
	message := dto.AssetCleanupMessage{
		Reason:      reason,
		VideoId:     videoId,
		Assets:      assets,
		RequestedAt: s.now().UTC(),
	}
	if err := s.queue.EnqueueAssetCleanup(context.WithoutCancel(ctx), message); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("reason", string(reason)).Msg("failed to enqueue asset cleanup")
	}
}

func hasFile(file *dto.FileUpload) bool {
	return file != nil && file.Path != ""
}

func NewVideoService(repo repository.VideoRepository, store MediaStore, queue CleanupQueue) VideoService {
	return &videoService{
		repo:  repo,
		store: store,
		queue: queue,
		now:   time.Now,
	}
}
