package dto

import (
	"github.com/google/uuid"
	"time"
	"videohub/constant"
	"videohub/entities"
)

// FileUpload is a client file already spooled to local disk by the request layer.
type FileUpload struct {
	Path     string
	Filename string
	Size     int64
}

// UploadedAsset is what the media store reports for a stored object.
type UploadedAsset struct {
	Url             string
	SecureUrl       string
	ExternalId      string
	DurationSeconds float64
	SizeBytes       int64
}

func (a UploadedAsset) Reference() entities.MediaReference {
	return entities.MediaReference{
		Url:        a.Url,
		SecureUrl:  a.SecureUrl,
		ExternalId: a.ExternalId,
	}
}

type PublishVideoInput struct {
	OwnerId     uuid.UUID
	Title       string
	Description string
	VideoFile   *FileUpload
	Thumbnail   *FileUpload
}

type ListVideosInput struct {
	Query    string
	SortBy   string
	SortType string
	OwnerId  *uuid.UUID
	Page     int
	Limit    int
}

type UpdateVideoInput struct {
	VideoId     uuid.UUID
	Title       string
	Description string
	Thumbnail   *FileUpload
}

// VideoSearch is a validated list request as handed to the catalog.
type VideoSearch struct {
	Query      string
	SortColumn string
	SortType   constant.SortType
	OwnerId    *uuid.UUID
	Page       int
	Limit      int
}

func (s VideoSearch) Offset() int {
	return (s.Page - 1) * s.Limit
}

type OwnerProfile struct {
	ID       uuid.UUID `json:"_id"`
	Fullname string    `json:"fullname"`
	Username string    `json:"username"`
	Avatar   string    `json:"avatar"`
}

type VideoListItem struct {
	entities.Video
	Owner OwnerProfile `json:"owner"`
}

type VideoPage struct {
	Docs        []VideoListItem `json:"docs"`
	TotalDocs   int64           `json:"totalDocs"`
	Limit       int             `json:"limit"`
	Page        int             `json:"page"`
	TotalPages  int             `json:"totalPages"`
	HasPrevPage bool            `json:"hasPrevPage"`
	HasNextPage bool            `json:"hasNextPage"`
	PrevPage    *int            `json:"prevPage"`
	NextPage    *int            `json:"nextPage"`
}

func NewVideoPage(docs []VideoListItem, totalDocs int64, page, limit int) *VideoPage {
	if docs == nil {
		docs = []VideoListItem{}
	}
	totalPages := 0
	if limit > 0 {
		totalPages = int((totalDocs + int64(limit) - 1) / int64(limit))
	}
	p := &VideoPage{
		Docs:        docs,
		TotalDocs:   totalDocs,
		Limit:       limit,
		Page:        page,
		TotalPages:  totalPages,
		HasPrevPage: page > 1,
		HasNextPage: page < totalPages,
	}
	if p.HasPrevPage {
		prev := page - 1
		p.PrevPage = &prev
	}
	if p.HasNextPage {
		next := page + 1
		p.NextPage = &next
	}
	return p
}

func (p *VideoPage) Empty() bool {
	return p == nil || len(p.Docs) == 0
}

type VideoDetail struct {
	Video            entities.Video     `json:"video"`
	Owner            OwnerProfile       `json:"owner"`
	SubscribersCount int64              `json:"subscribersCount"`
	LikesCount       int64              `json:"likesCount"`
	CommentsCount    int64              `json:"commentsCount"`
	IsSubscribed     bool               `json:"isSubscribed"`
	Comments         []entities.Comment `json:"comments"`
}

type CleanupAsset struct {
	ExternalId string             `json:"externalId"`
	Kind       constant.AssetKind `json:"kind"`
}

type AssetCleanupMessage struct {
	Reason      constant.CleanupReason `json:"reason"`
	VideoId     *uuid.UUID             `json:"videoId,omitempty"`
	Assets      []CleanupAsset         `json:"assets"`
	RequestedAt time.Time              `json:"requestedAt"`
}
