package entities

import (
	"github.com/google/uuid"
	"time"
)

type Like struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	VideoId   uuid.UUID `json:"video" gorm:"type:uuid;not null;index:idx_likes_video_id"`
	LikedBy   uuid.UUID `json:"likedBy" gorm:"type:uuid;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}

func (Like) TableName() string {
	return "likes"
}
