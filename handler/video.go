package handler

import (
	"errors"
	"fmt"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"videohub/constant"
	"videohub/dto"
	"videohub/service"
)

type VideoHandler struct {
	videos          service.VideoService
	tempDir         string
	maxPublishBytes int64
}

type publishVideoForm struct {
	Title       string `form:"title"`
	Description string `form:"description"`
}

type updateVideoForm struct {
	Title       string `form:"title"`
	Description string `form:"description"`
}

type listVideosQuery struct {
	Query    string `form:"query"`
	SortBy   string `form:"sortBy"`
	SortType string `form:"sortType"`
	UserId   string `form:"userId"`
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
}

func NewVideoHandler(videos service.VideoService, tempDir string) *VideoHandler {
	return &VideoHandler{videos: videos, tempDir: tempDir, maxPublishBytes: constant.MaxPublishBodySize}
}

func (h *VideoHandler) Register(r gin.IRouter) {
	videos := r.Group("/videos")
	videos.GET("", h.List)
	videos.GET("/:videoId", OptionalUser(), h.GetById)
	videos.POST("", RequireUser(), h.Publish)
	videos.PATCH("/:videoId", RequireUser(), h.Update)
	videos.DELETE("/:videoId", RequireUser(), h.Delete)
}

func (h *VideoHandler) Publish(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxPublishBytes)

	var form publishVideoForm
	if err := c.ShouldBind(&form); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, service.ValidationError(fmt.Sprintf("request body exceeds the %d byte limit", tooLarge.Limit)))
			return
		}
		respondError(c, service.ValidationError("invalid form data"))
		return
	}

	videoFile, cleanupVideo, err := h.spool(c, "videoFile")
	if err != nil {
		respondError(c, err)
		return
	}
	defer cleanupVideo()
	thumbnail, cleanupThumb, err := h.spool(c, "thumbnail")
	if err != nil {
		respondError(c, err)
		return
	}
	defer cleanupThumb()

	video, err := h.videos.Publish(c.Request.Context(), dto.PublishVideoInput{
		OwnerId:     callerOf(c),
		Title:       form.Title,
		Description: form.Description,
		VideoFile:   videoFile,
		Thumbnail:   thumbnail,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, video, "video published")
}

func (h *VideoHandler) List(c *gin.Context) {
	var query listVideosQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, service.ValidationError("page and limit must be integers"))
		return
	}

	input := dto.ListVideosInput{
		Query:    query.Query,
		SortBy:   query.SortBy,
		SortType: query.SortType,
		Page:     query.Page,
		Limit:    query.Limit,
	}
	if query.UserId != "" {
		ownerId, err := uuid.Parse(query.UserId)
		if err != nil {
			respondError(c, service.ValidationError("invalid userId"))
			return
		}
		input.OwnerId = &ownerId
	}

	page, err := h.videos.List(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	if page.Empty() {
		respond(c, http.StatusOK, page, "no videos matched the query")
		return
	}

	respond(c, http.StatusOK, page, "videos fetched")
}

func (h *VideoHandler) GetById(c *gin.Context) {
	videoId, ok := videoIdParam(c)
	if !ok {
		return
	}

	detail, err := h.videos.GetById(c.Request.Context(), videoId, callerOf(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, detail, "video fetched")
}

func (h *VideoHandler) Update(c *gin.Context) {
	videoId, ok := videoIdParam(c)
	if !ok {
		return
	}

	var form updateVideoForm
	if err := c.ShouldBind(&form); err != nil {
		respondError(c, service.ValidationError("invalid form data"))
		return
	}

	thumbnail, cleanup, err := h.spool(c, "thumbnail")
	if err != nil {
		respondError(c, err)
		return
	}
	defer cleanup()

	video, err := h.videos.Update(c.Request.Context(), dto.UpdateVideoInput{
		VideoId:     videoId,
		Title:       form.Title,
		Description: form.Description,
		Thumbnail:   thumbnail,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, video, "video updated")
}

func (h *VideoHandler) Delete(c *gin.Context) {
	videoId, ok := videoIdParam(c)
	if !ok {
		return
	}

	if err := h.videos.Delete(c.Request.Context(), videoId); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{}, "video deleted")
}

func videoIdParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("videoId"))
	if err != nil {
		respondError(c, service.ValidationError("invalid video id"))
		return uuid.Nil, false
	}
	return id, true
}

// spool writes the multipart file under field to the temp dir. A missing field
// yields a nil upload and lets the service decide whether it was required.
func (h *VideoHandler) spool(c *gin.Context, field string) (*dto.FileUpload, func(), error) {
	noop := func() {}
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, noop, nil
		}
		return nil, noop, service.ValidationError(fmt.Sprintf("invalid %s upload", field))
	}

	path, err := h.save(c, header)
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("field", field).Msg("failed to spool upload")
		return nil, noop, err
	}

	cleanup := func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			zerolog.Ctx(c.Request.Context()).Warn().Err(err).Str("path", path).Msg("failed to remove spooled upload")
		}
	}
	return &dto.FileUpload{Path: path, Filename: header.Filename, Size: header.Size}, cleanup, nil
}

func (h *VideoHandler) save(c *gin.Context, header *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(h.tempDir, os.ModePerm); err != nil {
		return "", err
	}
	path := filepath.Join(h.tempDir, uuid.NewString()+filepath.Ext(header.Filename))
	if err := c.SaveUploadedFile(header, path); err != nil {
		return "", err
	}
	return path, nil
}
