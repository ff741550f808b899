package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"sync"
	"time"
	"videohub/constant"
	"videohub/dto"
	"videohub/entities"
	"videohub/repository"
)

type memoryRepo struct {
	mu     sync.Mutex
	users  map[uuid.UUID]entities.User
	videos map[uuid.UUID]entities.Video

	CreateVideoErr error
	UpdateVideoErr error
	DeleteVideoErr error
	SearchErr      error
	DetailErr      error
	searches       []dto.VideoSearch
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		users:  map[uuid.UUID]entities.User{},
		videos: map[uuid.UUID]entities.Video{},
	}
}

func (r *memoryRepo) addUser(username string) entities.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := entities.User{ID: uuid.New(), Username: username, Fullname: username, Email: username + "@example.com"}
	r.users[u.ID] = u
	return u
}

func (r *memoryRepo) addVideo(v entities.Video) entities.Video {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	r.videos[v.ID] = v
	return v
}

func (r *memoryRepo) video(id uuid.UUID) (entities.Video, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.videos[id]
	return v, ok
}

func (r *memoryRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.videos)
}

func (r *memoryRepo) Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error {
	return callback(ctx)
}

func (r *memoryRepo) GetDB() *gorm.DB {
	return nil
}

func (r *memoryRepo) FindUserById(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (r *memoryRepo) CreateVideo(ctx context.Context, video *entities.Video) (*entities.Video, error) {
	if r.CreateVideoErr != nil {
		return nil, r.CreateVideoErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if video.ID == uuid.Nil {
		video.ID = uuid.New()
	}
	now := time.Now().UTC()
	video.CreatedAt, video.UpdatedAt = now, now
	r.videos[video.ID] = *video
	return video, nil
}

func (r *memoryRepo) FindVideoById(ctx context.Context, id uuid.UUID) (*entities.Video, error) {
	v, ok := r.video(id)
	if !ok {
		return nil, repository.ErrVideoNotFound
	}
	return &v, nil
}

func (r *memoryRepo) UpdateVideo(ctx context.Context, id uuid.UUID, patch repository.VideoPatch) (*entities.Video, entities.MediaReference, error) {
	if r.UpdateVideoErr != nil {
		return nil, entities.MediaReference{}, r.UpdateVideoErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.videos[id]
	if !ok {
		return nil, entities.MediaReference{}, repository.ErrVideoNotFound
	}
	previous := v.ThumbnailAsset
	v.Title = patch.Title
	v.Description = patch.Description
	v.ThumbnailAsset = patch.ThumbnailAsset
	if patch.IncrementViews {
		v.ViewCount++
	}
	v.UpdatedAt = time.Now().UTC()
	r.videos[id] = v
	return &v, previous, nil
}

func (r *memoryRepo) DeleteVideo(ctx context.Context, video *entities.Video) (*entities.Video, error) {
	if r.DeleteVideoErr != nil {
		return nil, r.DeleteVideoErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.videos[video.ID]
	if !ok {
		return nil, repository.ErrVideoNotFound
	}
	if current.SourceAsset.ExternalId != video.SourceAsset.ExternalId ||
		current.ThumbnailAsset.ExternalId != video.ThumbnailAsset.ExternalId {
		return &current, repository.ErrVideoChanged
	}
	delete(r.videos, video.ID)
	return nil, nil
}

func (r *memoryRepo) AggregateVideosByTextSearch(ctx context.Context, search dto.VideoSearch) (*dto.VideoPage, error) {
	r.mu.Lock()
	r.searches = append(r.searches, search)
	r.mu.Unlock()
	if r.SearchErr != nil {
		return nil, r.SearchErr
	}
	return dto.NewVideoPage(nil, 0, search.Page, search.Limit), nil
}

func (r *memoryRepo) AggregateVideoDetail(ctx context.Context, id uuid.UUID, callerId uuid.UUID) (*dto.VideoDetail, error) {
	if r.DetailErr != nil {
		return nil, r.DetailErr
	}
	v, ok := r.video(id)
	if !ok {
		return nil, repository.ErrVideoNotFound
	}
	owner, err := r.FindUserById(ctx, v.OwnerId)
	if err != nil {
		return nil, err
	}
	return &dto.VideoDetail{
		Video: v,
		Owner: dto.OwnerProfile{ID: owner.ID, Username: owner.Username, Fullname: owner.Fullname},
	}, nil
}

// memoryStore records objects by external id. Upload and Delete can be failed
// per kind.
type memoryStore struct {
	mu      sync.Mutex
	objects map[string]constant.AssetKind
	seq     int

	UploadErr map[constant.AssetKind]error
	DeleteErr map[constant.AssetKind]error
	deletes   []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		objects:   map[string]constant.AssetKind{},
		UploadErr: map[constant.AssetKind]error{},
		DeleteErr: map[constant.AssetKind]error{},
	}
}

func (s *memoryStore) Upload(ctx context.Context, localPath string, kind constant.AssetKind) (*dto.UploadedAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.UploadErr[kind]; err != nil {
		return nil, err
	}
	s.seq++
	id := fmt.Sprintf("%s/%d", kind, s.seq)
	s.objects[id] = kind
	asset := &dto.UploadedAsset{
		Url:        "http://cdn.local/" + id,
		SecureUrl:  "https://cdn.local/" + id,
		ExternalId: id,
		SizeBytes:  1024,
	}
	if kind == constant.AssetKindVideo {
		asset.DurationSeconds = 42
		asset.SizeBytes = 2 << 20
	}
	return asset, nil
}

func (s *memoryStore) Delete(ctx context.Context, externalId string, kind constant.AssetKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, externalId)
	if err := s.DeleteErr[kind]; err != nil {
		return err
	}
	delete(s.objects, externalId)
	return nil
}

func (s *memoryStore) put(id string, kind constant.AssetKind) entities.MediaReference {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[id] = kind
	return entities.MediaReference{Url: "http://cdn.local/" + id, SecureUrl: "https://cdn.local/" + id, ExternalId: id}
}

func (s *memoryStore) has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[id]
	return ok
}

func (s *memoryStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type memoryQueue struct {
	mu       sync.Mutex
	messages []dto.AssetCleanupMessage
	Err      error
}

func (q *memoryQueue) EnqueueAssetCleanup(ctx context.Context, message dto.AssetCleanupMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Err != nil {
		return q.Err
	}
	q.messages = append(q.messages, message)
	return nil
}

var errBoom = errors.New("boom")
