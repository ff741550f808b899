package entities

import (
	"github.com/google/uuid"
	"time"
)

// Subscription records that Subscriber follows the channel owned by Channel.
type Subscription struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SubscriberId uuid.UUID `json:"subscriber" gorm:"type:uuid;not null"`
	ChannelId    uuid.UUID `json:"channel" gorm:"type:uuid;not null;index:idx_subscriptions_channel_id"`
	CreatedAt    time.Time `json:"createdAt" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
