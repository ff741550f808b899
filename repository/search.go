package repository

import (
	"context"
	"database/sql"
	"errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"strings"
	"videohub/constant"
	"videohub/dto"
	"videohub/entities"
)

const tsQuery = "websearch_to_tsquery('english', ?)"

var listColumns = []string{
	"v.id", "v.title", "v.description",
	"v.video_url", "v.video_secure_url", "v.video_external_id",
	"v.thumbnail_url", "v.thumbnail_secure_url", "v.thumbnail_external_id",
	"v.duration", "v.views", "v.owner_id", "v.created_at", "v.updated_at",
	"u.fullname AS owner_fullname", "u.username AS owner_username", "u.avatar AS owner_avatar",
}

type videoRow struct {
	entities.Video
	OwnerFullname string
	OwnerUsername string
	OwnerAvatar   string
	Score         float64
}

func (row videoRow) toListItem() dto.VideoListItem {
	return dto.VideoListItem{
		Video: row.Video,
		Owner: dto.OwnerProfile{
			ID:       row.OwnerId,
			Fullname: row.OwnerFullname,
			Username: row.OwnerUsername,
			Avatar:   row.OwnerAvatar,
		},
	}
}

func (r *repo) AggregateVideosByTextSearch(ctx context.Context, search dto.VideoSearch) (*dto.VideoPage, error) {
	base := r.conn(ctx).
		Table("videos AS v").
		Joins("JOIN users AS u ON u.id = v.owner_id").
		Where("v.search_vector @@ "+tsQuery, search.Query)
	if search.OwnerId != nil {
		base = base.Where("v.owner_id = ?", *search.OwnerId)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, translateError(err)
	}
	if total == 0 {
		return dto.NewVideoPage(nil, 0, search.Page, search.Limit), nil
	}

	var rows []videoRow
	selects := strings.Join(listColumns, ", ") + ", ts_rank(v.search_vector, " + tsQuery + ") AS score"
	err := base.Session(&gorm.Session{}).
		Select(selects, search.Query).
		Order("score DESC").
		Order(clause.OrderByColumn{
			Column: clause.Column{Table: "v", Name: search.SortColumn},
			Desc:   search.SortType == constant.SortTypeDesc,
		}).
		Limit(search.Limit).
		Offset(search.Offset()).
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}

	docs := make([]dto.VideoListItem, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, row.toListItem())
	}

	return dto.NewVideoPage(docs, total, search.Page, search.Limit), nil
}

func (r *repo) AggregateVideoDetail(ctx context.Context, id uuid.UUID, callerId uuid.UUID) (*dto.VideoDetail, error) {
	detail := &dto.VideoDetail{}
	err := r.Transaction(ctx, func(ctx context.Context) error {
		db := r.conn(ctx)
		if err := db.First(&detail.Video, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVideoNotFound
			}
			return err
		}

		owner := entities.User{}
		if err := db.First(&owner, "id = ?", detail.Video.OwnerId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		detail.Owner = dto.OwnerProfile{
			ID:       owner.ID,
			Fullname: owner.Fullname,
			Username: owner.Username,
			Avatar:   owner.Avatar,
		}

		if err := db.Model(&entities.Subscription{}).
			Where("channel_id = ?", owner.ID).
			Count(&detail.SubscribersCount).Error; err != nil {
			return err
		}

		if err := db.Model(&entities.Like{}).
			Where("video_id = ?", id).
			Count(&detail.LikesCount).Error; err != nil {
			return err
		}

		comments := make([]entities.Comment, 0)
		if err := db.Where("video_id = ?", id).Order("created_at DESC").Find(&comments).Error; err != nil {
			return err
		}
		detail.Comments = comments
		detail.CommentsCount = int64(len(comments))

		if callerId != uuid.Nil {
			var subscribed int64
			if err := db.Model(&entities.Subscription{}).
				Where("channel_id = ? AND subscriber_id = ?", owner.ID, callerId).
				Count(&subscribed).Error; err != nil {
				return err
			}
			detail.IsSubscribed = subscribed > 0
		}

		return nil
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		if errors.Is(err, ErrVideoNotFound) || errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, translateError(err)
	}

	return detail, nil
}
