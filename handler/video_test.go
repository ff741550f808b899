package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"videohub/constant"
	"videohub/dto"
	"videohub/entities"
	"videohub/service"
)

type fakeVideoService struct {
	PublishFunc func(ctx context.Context, input dto.PublishVideoInput) (*entities.Video, error)
	ListFunc    func(ctx context.Context, input dto.ListVideosInput) (*dto.VideoPage, error)
	GetByIdFunc func(ctx context.Context, videoId uuid.UUID, callerId uuid.UUID) (*dto.VideoDetail, error)
	UpdateFunc  func(ctx context.Context, input dto.UpdateVideoInput) (*entities.Video, error)
	DeleteFunc  func(ctx context.Context, videoId uuid.UUID) error
}

func (f *fakeVideoService) Publish(ctx context.Context, input dto.PublishVideoInput) (*entities.Video, error) {
	return f.PublishFunc(ctx, input)
}

func (f *fakeVideoService) List(ctx context.Context, input dto.ListVideosInput) (*dto.VideoPage, error) {
	return f.ListFunc(ctx, input)
}

func (f *fakeVideoService) GetById(ctx context.Context, videoId uuid.UUID, callerId uuid.UUID) (*dto.VideoDetail, error) {
	return f.GetByIdFunc(ctx, videoId, callerId)
}

func (f *fakeVideoService) Update(ctx context.Context, input dto.UpdateVideoInput) (*entities.Video, error) {
	return f.UpdateFunc(ctx, input)
}

func (f *fakeVideoService) Delete(ctx context.Context, videoId uuid.UUID) error {
	return f.DeleteFunc(ctx, videoId)
}

func newRouter(t *testing.T, svc service.VideoService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewVideoHandler(svc, t.TempDir()).Register(r.Group("/api/v1"))
	return r
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	assert.Equal(t, w.Code, body.StatusCode)
	return body
}

func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, name := range files {
		fw, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("content of " + name))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestPublish_RequiresCaller(t *testing.T) {
	r := newRouter(t, &fakeVideoService{})

	body, contentType := multipartBody(t, map[string]string{"title": "t"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	resp := decode(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "authentication required", resp.Message)
}

func TestPublish(t *testing.T) {
	caller := uuid.New()
	var spooled []string
	svc := &fakeVideoService{
		PublishFunc: func(ctx context.Context, input dto.PublishVideoInput) (*entities.Video, error) {
			assert.Equal(t, caller, input.OwnerId)
			assert.Equal(t, "My clip", input.Title)
			assert.Equal(t, "about it", input.Description)
			require.NotNil(t, input.VideoFile)
			require.NotNil(t, input.Thumbnail)
			assert.Equal(t, "clip.mp4", input.VideoFile.Filename)
			assert.Equal(t, int64(len("content of clip.mp4")), input.VideoFile.Size)

			content, err := os.ReadFile(input.Thumbnail.Path)
			require.NoError(t, err)
			assert.Equal(t, "content of thumb.png", string(content))
			spooled = append(spooled, input.VideoFile.Path, input.Thumbnail.Path)

			return &entities.Video{ID: uuid.New(), Title: input.Title, OwnerId: input.OwnerId}, nil
		},
	}
	r := newRouter(t, svc)

	body, contentType := multipartBody(t,
		map[string]string{"title": "My clip", "description": "about it"},
		map[string]string{"videoFile": "clip.mp4", "thumbnail": "thumb.png"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(UserIdHeader, caller.String())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "video published", resp.Message)

	require.Len(t, spooled, 2)
	for _, path := range spooled {
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err), "spooled file %s must be removed", path)
	}
}

func TestPublish_OversizedBodyIsRejectedBeforeSpooling(t *testing.T) {
	svc := &fakeVideoService{
		PublishFunc: func(ctx context.Context, input dto.PublishVideoInput) (*entities.Video, error) {
			assert.Fail(t, "publish must not be reached")
			return nil, nil
		},
	}
	tempDir := t.TempDir()
	h := NewVideoHandler(svc, tempDir)
	h.maxPublishBytes = 64
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.Register(r.Group("/api/v1"))

	body, contentType := multipartBody(t,
		map[string]string{"title": "My clip", "description": "about it"},
		map[string]string{"videoFile": "clip.mp4", "thumbnail": "thumb.png"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(UserIdHeader, uuid.NewString())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "request body exceeds the 64 byte limit", resp.Message)

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewVideoHandler_PublishLimit(t *testing.T) {
	h := NewVideoHandler(&fakeVideoService{}, t.TempDir())
	assert.Greater(t, h.maxPublishBytes, constant.MaxVideoFileSize)
}

func TestPublish_MissingFilesReachService(t *testing.T) {
	svc := &fakeVideoService{
		PublishFunc: func(ctx context.Context, input dto.PublishVideoInput) (*entities.Video, error) {
			assert.Nil(t, input.VideoFile)
			return nil, service.ValidationError("source file required")
		},
	}
	r := newRouter(t, svc)

	body, contentType := multipartBody(t, map[string]string{"title": "a", "description": "b"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(UserIdHeader, uuid.NewString())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "source file required", decode(t, w).Message)
}

func TestList(t *testing.T) {
	owner := uuid.New()
	svc := &fakeVideoService{
		ListFunc: func(ctx context.Context, input dto.ListVideosInput) (*dto.VideoPage, error) {
			assert.Equal(t, "golang", input.Query)
			assert.Equal(t, "views", input.SortBy)
			assert.Equal(t, "desc", input.SortType)
			assert.Equal(t, 2, input.Page)
			assert.Equal(t, 5, input.Limit)
			require.NotNil(t, input.OwnerId)
			assert.Equal(t, owner, *input.OwnerId)
			return dto.NewVideoPage(nil, 0, input.Page, input.Limit), nil
		},
	}
	r := newRouter(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos?query=golang&sortBy=views&sortType=desc&page=2&limit=5&userId="+owner.String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "no videos matched the query", resp.Message)

	var page dto.VideoPage
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	assert.NotNil(t, page.Docs)
	assert.Empty(t, page.Docs)
	assert.Equal(t, int64(0), page.TotalDocs)
}

func TestList_BadParameters(t *testing.T) {
	r := newRouter(t, &fakeVideoService{})

	for _, target := range []string{
		"/api/v1/videos?query=a&sortBy=views&sortType=asc&userId=nope",
		"/api/v1/videos?query=a&sortBy=views&sortType=asc&page=first",
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

func TestGetById(t *testing.T) {
	videoId := uuid.New()
	caller := uuid.New()
	svc := &fakeVideoService{
		GetByIdFunc: func(ctx context.Context, id uuid.UUID, callerId uuid.UUID) (*dto.VideoDetail, error) {
			if id != videoId {
				return nil, service.NotFoundError("video not found", nil)
			}
			return &dto.VideoDetail{Video: entities.Video{ID: id}, IsSubscribed: callerId == caller}, nil
		},
	}
	r := newRouter(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos/"+videoId.String(), nil)
	req.Header.Set(UserIdHeader, caller.String())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var detail dto.VideoDetail
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &detail))
	assert.True(t, detail.IsSubscribed)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/videos/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "video not found", decode(t, w).Message)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/videos/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdate_UploadFailureIsBadGateway(t *testing.T) {
	videoId := uuid.New()
	svc := &fakeVideoService{
		UpdateFunc: func(ctx context.Context, input dto.UpdateVideoInput) (*entities.Video, error) {
			assert.Equal(t, videoId, input.VideoId)
			require.NotNil(t, input.Thumbnail)
			return nil, service.UploadError("failed to upload thumbnail", errors.New("minio down"))
		},
	}
	r := newRouter(t, svc)

	body, contentType := multipartBody(t,
		map[string]string{"title": "t", "description": "d"},
		map[string]string{"thumbnail": "new.jpg"})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/videos/"+videoId.String(), body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(UserIdHeader, uuid.NewString())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "failed to upload thumbnail", resp.Message)
	assert.NotContains(t, w.Body.String(), "minio down")
}

func TestDelete(t *testing.T) {
	var deleted []uuid.UUID
	svc := &fakeVideoService{
		DeleteFunc: func(ctx context.Context, id uuid.UUID) error {
			deleted = append(deleted, id)
			if len(deleted) > 1 {
				return service.DatabaseError("media files were deleted but the video record could not be removed", nil)
			}
			return nil
		},
	}
	r := newRouter(t, svc)
	id := uuid.New()

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/videos/"+id.String(), nil)
		req.Header.Set(UserIdHeader, uuid.NewString())
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send().Code)
	assert.Equal(t, http.StatusInternalServerError, send().Code)
	assert.Equal(t, []uuid.UUID{id, id}, deleted)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{service.ValidationError("x"), http.StatusBadRequest},
		{service.UnauthenticatedError("x"), http.StatusUnauthorized},
		{service.NotFoundError("x", nil), http.StatusNotFound},
		{service.UploadError("x", nil), http.StatusBadGateway},
		{service.DatabaseError("x", nil), http.StatusInternalServerError},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, StatusOf(tt.err), tt.err.Error())
	}
}
