package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"net/http"
	"videohub/service"
)

type Response struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

var statusByKind = map[service.Kind]int{
	service.KindValidation:      http.StatusBadRequest,
	service.KindUnauthenticated: http.StatusUnauthorized,
	service.KindNotFound:        http.StatusNotFound,
	service.KindUpload:          http.StatusBadGateway,
	service.KindDatabase:        http.StatusInternalServerError,
}

// StatusOf maps an operation error to its HTTP status.
func StatusOf(err error) int {
	if status, ok := statusByKind[service.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Response{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	})
}

func respondError(c *gin.Context, err error) {
	status := StatusOf(err)
	event := zerolog.Ctx(c.Request.Context()).Warn()
	if status >= http.StatusInternalServerError {
		event = zerolog.Ctx(c.Request.Context()).Error()
	}
	event.Err(err).
		Str("kind", string(service.KindOf(err))).
		Int("status", status).
		Str("path", c.FullPath()).
		Msg("request failed")

	c.AbortWithStatusJSON(status, Response{
		StatusCode: status,
		Data:       nil,
		Message:    service.MessageOf(err),
		Success:    false,
	})
}
