package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-link-tracker/internal/http/middleware"
)

func TestFail_EnvelopeAndLogLevel(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name     string
		path     string
		handler  gin.HandlerFunc
		status   int
		code     string
		msg      string
		logLevel string
	}{
		{
			name:     "missing link",
			path:     "/links/:id",
			handler:  func(c *gin.Context) { notFound(c, "link") },
			status:   http.StatusNotFound,
			code:     ErrCodeNotFound,
			msg:      "link not found",
			logLevel: "debug",
		},
		{
			name:     "store failure",
			path:     "/links/:id",
			handler:  func(c *gin.Context) { fail(c, http.StatusInternalServerError, ErrCodeGetFailed, "could not load link") },
			status:   http.StatusInternalServerError,
			code:     ErrCodeGetFailed,
			msg:      "could not load link",
			logLevel: "error",
		},
		{
			name:     "exported",
			path:     "/links/:id",
			handler:  func(c *gin.Context) { Fail(c, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "method not allowed") },
			status:   http.StatusMethodNotAllowed,
			code:     ErrCodeMethodNotAllowed,
			msg:      "method not allowed",
			logLevel: "debug",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			lg := zerolog.New(&buf).Level(zerolog.DebugLevel)

			r := gin.New()
			r.Use(func(c *gin.Context) {
				c.Header(middleware.HeaderRequestID, "rid-"+tc.name)
				c.Set("logger", &lg)
				c.Next()
			})
			ran := false
			r.GET(tc.path, tc.handler, func(c *gin.Context) { ran = true })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/links/abc123", nil))

			if ran {
				t.Fatalf("chain not aborted")
			}
			if w.Code != tc.status {
				t.Fatalf("status = %d; want %d", w.Code, tc.status)
			}
			var er ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
				t.Fatalf("decode: %v", err)
			}
			want := ErrorResponse{RequestID: "rid-" + tc.name, Code: tc.code, Message: tc.msg}
			if er != want {
				t.Fatalf("body = %+v; want %+v", er, want)
			}
			out := buf.String()
			if !strings.Contains(out, `"level":"`+tc.logLevel+`"`) || !strings.Contains(out, `"route":"/links/:id"`) {
				t.Fatalf("log = %s", out)
			}
		})
	}
}

func TestOK(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/links", func(c *gin.Context) {
		ok(c, http.StatusCreated, gin.H{"success": true, "id": "abc123"})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/links", nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"id":"abc123","success":true}` {
		t.Fatalf("body = %s", got)
	}
}
