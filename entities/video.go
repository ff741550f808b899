package entities

import (
	"github.com/google/uuid"
	"time"
)

// MediaReference points at an object held by the media store. ExternalId is the
// only field usable for deletion; Url and SecureUrl are for display.
type MediaReference struct {
	Url        string `json:"url" gorm:"column:url;type:text;not null"`
	SecureUrl  string `json:"secureUrl" gorm:"column:secure_url;type:text;not null"`
	ExternalId string `json:"externalId" gorm:"column:external_id;type:varchar(500);not null"`
}

func (m MediaReference) IsZero() bool {
	return m.ExternalId == ""
}

type Video struct {
	ID              uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title           string         `json:"title" gorm:"type:varchar(255);not null"`
	Description     string         `json:"description" gorm:"type:text;not null"`
	SourceAsset     MediaReference `json:"videoFile" gorm:"embedded;embeddedPrefix:video_"`
	ThumbnailAsset  MediaReference `json:"thumbnail" gorm:"embedded;embeddedPrefix:thumbnail_"`
	DurationSeconds float64        `json:"duration" gorm:"column:duration;type:double precision;not null;default:0"`
	ViewCount       int64          `json:"views" gorm:"column:views;type:bigint;not null;default:0"`
	OwnerId         uuid.UUID      `json:"owner" gorm:"type:uuid;not null;index:idx_videos_owner_id"`
	CreatedAt       time.Time      `json:"createdAt" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time      `json:"updatedAt" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}

func (Video) TableName() string {
	return "videos"
}
