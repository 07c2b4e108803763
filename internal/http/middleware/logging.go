// Package middleware holds the gin middleware shared by the link tracker
// routes: correlation ids, access logging, panic recovery, metrics, security
// headers and the optional rate limiter.
//
// Install order matters. RequestID must run first so every later layer,
// and the services below the handlers, log with the same request_id.
package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// HeaderRequestID carries the correlation id in both directions.
const HeaderRequestID = "X-Request-ID"

const (
	requestIDKey = "requestID"
	loggerKey    = "logger"

	// Raw query strings longer than this are cut in access logs.
	maxQueryLogLength = 2048
)

// RequestID reuses the caller's X-Request-ID or mints a UUID, echoes it on
// the response and binds a logger carrying it to the gin context and to the
// request context. Click merges that outlive the request pick the logger up
// through zerolog.Ctx.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Header(HeaderRequestID, rid)

		lg := log.With().Str("request_id", rid).Logger()
		c.Set(loggerKey, &lg)
		c.Request = c.Request.WithContext(lg.WithContext(c.Request.Context()))

		c.Next()
	}
}

// RequestIDFrom returns the id set by RequestID, or "" when it did not run.
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// LoggerFrom returns the logger bound by RequestID, falling back to the
// global logger.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if lg, ok := c.Value(loggerKey).(*zerolog.Logger); ok {
		return lg
	}
	l := log.Logger
	return &l
}

// errorBody mirrors handlers.ErrorResponse, which middleware cannot import.
type errorBody struct {
	RequestID string `json:"request_id,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// Recovery turns a panic into a 500. The JSON envelope is only written when
// the handler had not started its response; a half-rendered tracking page
// is left as is.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			rid := RequestIDFrom(c)
			ev := LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("route", c.FullPath())
			if id := c.Param("id"); id != "" {
				ev = ev.Str("link_id", id)
			}
			ev.Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.Header(HeaderRequestID, rid)
			c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{
				RequestID: rid,
				Code:      "internal_error",
				Message:   "internal server error",
			})
		}()
		c.Next()
	}
}

// truncate cuts s to max bytes plus an ellipsis. max <= 0 disables it.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
