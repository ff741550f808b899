package repository

import (
	"context"
	"database/sql"
	"errors"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"time"
	"videohub/dto"
	"videohub/entities"
)

var (
	ErrVideoNotFound = errors.New("video not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicate     = errors.New("record already exists")
	ErrVideoChanged  = errors.New("video media changed")
)

// VideoPatch is applied to a video row in a single UPDATE statement.
type VideoPatch struct {
	Title          string
	Description    string
	ThumbnailAsset entities.MediaReference
	IncrementViews bool
}

type VideoRepository interface {
	Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error
	GetDB() *gorm.DB
	FindUserById(ctx context.Context, id uuid.UUID) (*entities.User, error)
	CreateVideo(ctx context.Context, video *entities.Video) (*entities.Video, error)
	FindVideoById(ctx context.Context, id uuid.UUID) (*entities.Video, error)
	UpdateVideo(ctx context.Context, id uuid.UUID, patch VideoPatch) (*entities.Video, entities.MediaReference, error)
	DeleteVideo(ctx context.Context, video *entities.Video) (*entities.Video, error)
	AggregateVideosByTextSearch(ctx context.Context, search dto.VideoSearch) (*dto.VideoPage, error)
	AggregateVideoDetail(ctx context.Context, id uuid.UUID, callerId uuid.UUID) (*dto.VideoDetail, error)
}

type repo struct {
	db *gorm.DB
}

func (r *repo) FindUserById(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	user := &entities.User{}
	err := r.conn(ctx).First(user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, translateError(err)
	}

	return user, nil
}

func (r *repo) CreateVideo(ctx context.Context, video *entities.Video) (*entities.Video, error) {
	if video.ID == uuid.Nil {
		video.ID = uuid.New()
	}
	err := r.conn(ctx).Create(video).Error
	if err != nil {
		return nil, translateError(err)
	}

	return video, nil
}

func (r *repo) FindVideoById(ctx context.Context, id uuid.UUID) (*entities.Video, error) {
	video := &entities.Video{}
	err := r.conn(ctx).First(video, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, translateError(err)
	}

	return video, nil
}

// UpdateVideo applies patch under a row lock and returns the updated row along
// with the thumbnail reference it replaced.
func (r *repo) UpdateVideo(ctx context.Context, id uuid.UUID, patch VideoPatch) (*entities.Video, entities.MediaReference, error) {
	updates := map[string]interface{}{
		"title":                 patch.Title,
		"description":           patch.Description,
		"thumbnail_url":         patch.ThumbnailAsset.Url,
		"thumbnail_secure_url":  patch.ThumbnailAsset.SecureUrl,
		"thumbnail_external_id": patch.ThumbnailAsset.ExternalId,
		"updated_at":            time.Now().UTC(),
	}
	if patch.IncrementViews {
		updates["views"] = gorm.Expr("views + ?", 1)
	}

	var (
		updated  *entities.Video
		previous entities.MediaReference
	)
	err := r.Transaction(ctx, func(ctx context.Context) error {
		db := r.conn(ctx)
		current := entities.Video{}
		err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVideoNotFound
			}
			return err
		}
		previous = current.ThumbnailAsset

		var rows []entities.Video
		result := db.Model(&rows).
			Clauses(clause.Returning{}).
			Where("id = ?", id).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 || len(rows) == 0 {
			return ErrVideoNotFound
		}
		updated = &rows[0]
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrVideoNotFound) {
			return nil, entities.MediaReference{}, err
		}
		return nil, entities.MediaReference{}, translateError(err)
	}

	return updated, previous, nil
}

// DeleteVideo removes the row only while it still references the media of
// video. When the row was rewritten in between, the current row is returned
// with ErrVideoChanged.
func (r *repo) DeleteVideo(ctx context.Context, video *entities.Video) (*entities.Video, error) {
	result := r.conn(ctx).Delete(&entities.Video{},
		"id = ? AND video_external_id = ? AND thumbnail_external_id = ?",
		video.ID, video.SourceAsset.ExternalId, video.ThumbnailAsset.ExternalId)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	if result.RowsAffected > 0 {
		return nil, nil
	}

	current, err := r.FindVideoById(ctx, video.ID)
	if err != nil {
		return nil, err
	}
	return current, ErrVideoChanged
}

func NewRepo(db *sql.DB) VideoRepository {
	gormDB, _ := gorm.Open(postgres.New(postgres.Config{
		Conn: db}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		},
	)
	return &repo{
		db: gormDB,
	}
}

func (r *repo) GetDB() *gorm.DB {
	return r.db
}

type txKey struct{}

// conn returns the transaction bound to ctx by Transaction, or the root handle.
func (r *repo) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return r.GetDB().WithContext(ctx)
}

func (r *repo) Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error {
	return r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return callback(context.WithValue(ctx, txKey{}, tx))
	}, opts...)
}
