// Package handlers binds the link and tracking services to gin routes.
//
// JSON endpoints answer either with their typed success body or with an
// ErrorResponse. The tracking page and the click-update callback are the
// exceptions: the page always renders HTML and the callback always answers
// {"ok": bool}.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-link-tracker/internal/http/middleware"
)

// ErrorResponse is the error body of every JSON endpoint.
type ErrorResponse struct {
	// Echo of the X-Request-ID response header.
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// One of the ErrCode* constants.
	Code    string `json:"code" example:"not_found"`
	Message string `json:"message" example:"link not found"`
}

// fail aborts the chain with an ErrorResponse. Server errors are logged at
// error level; client errors only at debug, since unknown link ids are
// routine traffic for a public tracker.
func fail(c *gin.Context, status int, code, msg string) {
	var ev *zerolog.Event
	lg := middleware.LoggerFrom(c)
	if status >= http.StatusInternalServerError {
		ev = lg.Error()
	} else {
		ev = lg.Debug()
	}
	ev.Int("status", status).
		Str("code", code).
		Str("route", c.FullPath()).
		Msg(msg)

	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get(middleware.HeaderRequestID),
		Code:      code,
		Message:   msg,
	})
}

// Fail lets the router answer NoRoute and NoMethod with the same envelope.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// notFound answers 404 for a missing link or click.
func notFound(c *gin.Context, what string) {
	fail(c, http.StatusNotFound, ErrCodeNotFound, what+" not found")
}

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
