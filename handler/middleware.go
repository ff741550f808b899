package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"strings"
	"videohub/service"
)

// UserIdHeader carries the authenticated caller id set by the gateway.
const UserIdHeader = "X-User-Id"

const callerKey = "caller_id"

// RequireUser rejects requests without a valid caller id.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(UserIdHeader))
		if raw == "" {
			respondError(c, service.UnauthenticatedError("authentication required"))
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, service.UnauthenticatedError("invalid caller identity"))
			return
		}
		setCaller(c, id)
		c.Next()
	}
}

// OptionalUser records the caller id when one is present. A malformed header
// is still rejected.
func OptionalUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(UserIdHeader))
		if raw == "" {
			c.Next()
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, service.UnauthenticatedError("invalid caller identity"))
			return
		}
		setCaller(c, id)
		c.Next()
	}
}

// RequestLogger attaches logger to every request context, tagged with the
// request method and path.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := logger.With().Str("method", c.Request.Method).Str("path", c.Request.URL.Path).Logger()
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))
		c.Next()
	}
}

func setCaller(c *gin.Context, id uuid.UUID) {
	c.Set(callerKey, id)
	ctx := zerolog.Ctx(c.Request.Context()).With().Str("caller_id", id.String()).Logger().WithContext(c.Request.Context())
	c.Request = c.Request.WithContext(ctx)
}

// callerOf returns the caller id, or uuid.Nil for anonymous requests.
func callerOf(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(callerKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
