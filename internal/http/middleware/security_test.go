package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func secRouter(opt SecurityOptions, pre gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if pre != nil {
		r.Use(pre)
	}
	r.Use(SecurityHeaders(opt))
	r.GET("/links", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"success": true}) })
	r.GET("/track/:id", PageHeaders(), func(c *gin.Context) { c.String(http.StatusOK, "<html></html>") })
	return r
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	w := httptest.NewRecorder()
	secRouter(SecurityOptions{}, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/links", nil))

	h := w.Header()
	for k, want := range map[string]string{
		"X-Content-Type-Options":            "nosniff",
		"X-Frame-Options":                   "DENY",
		"Referrer-Policy":                   "no-referrer",
		"Permissions-Policy":                "",
		"X-Permitted-Cross-Domain-Policies": "",
		"Cache-Control":                     "",
		"Strict-Transport-Security":         "",
		"Access-Control-Expose-Headers":     "",
	} {
		if got := h.Get(k); got != want {
			t.Errorf("%s = %q; want %q", k, got, want)
		}
	}
}

func TestSecurityHeaders_ExposeRequestID(t *testing.T) {
	for _, tc := range []struct {
		name, existing, want string
	}{
		{"empty", "", HeaderRequestID},
		{"append", "ETag", "ETag, " + HeaderRequestID},
		{"present", HeaderRequestID + ", ETag", HeaderRequestID + ", ETag"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			pre := func(c *gin.Context) {
				c.Header(HeaderRequestID, "rid-1")
				if tc.existing != "" {
					c.Header("Access-Control-Expose-Headers", tc.existing)
				}
				c.Next()
			}
			w := httptest.NewRecorder()
			secRouter(SecurityOptions{}, pre).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/links", nil))
			if got := w.Header().Get("Access-Control-Expose-Headers"); got != tc.want {
				t.Fatalf("expose = %q; want %q", got, tc.want)
			}
		})
	}
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	for _, tc := range []struct {
		name  string
		opt   SecurityOptions
		tls   bool
		proto string
		want  string
	}{
		{"disabled", SecurityOptions{HSTSMaxAge: time.Hour}, true, "", ""},
		{"plain http", SecurityOptions{EnableHSTS: true}, false, "", ""},
		{"tls", SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour}, true, "", "max-age=86400; includeSubDomains; preload"},
		{"proxy", SecurityOptions{EnableHSTS: true}, false, "HTTPS", "max-age=15552000; includeSubDomains; preload"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/links", nil)
			if tc.tls {
				req.TLS = &tls.ConnectionState{}
			}
			if tc.proto != "" {
				req.Header.Set("X-Forwarded-Proto", tc.proto)
			}
			w := httptest.NewRecorder()
			secRouter(tc.opt, nil).ServeHTTP(w, req)
			if got := w.Header().Get("Strict-Transport-Security"); got != tc.want {
				t.Fatalf("HSTS = %q; want %q", got, tc.want)
			}
		})
	}
}

func TestSecurityHeaders_PolicyAndNoStore(t *testing.T) {
	w := httptest.NewRecorder()
	secRouter(SecurityOptions{NoStore: true, EnablePolicy: true}, nil).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/links", nil))
	h := w.Header()
	if h.Get("Permissions-Policy") != defaultPermissionsPolicy || h.Get("X-Permitted-Cross-Domain-Policies") != "none" {
		t.Fatalf("policy headers: %#v", h)
	}
	if h.Get("Cache-Control") != "no-store" || h.Get("Pragma") != "no-cache" || h.Get("Expires") != "0" {
		t.Fatalf("cache headers: %#v", h)
	}

	w = httptest.NewRecorder()
	secRouter(SecurityOptions{EnablePolicy: true, PermissionsPolicy: "camera=()"}, nil).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/links", nil))
	if got := w.Header().Get("Permissions-Policy"); got != "camera=()" {
		t.Fatalf("custom policy = %q", got)
	}
}

func TestPageHeaders_TrackingPage(t *testing.T) {
	r := secRouter(SecurityOptions{EnablePolicy: true}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/links", nil))
	if w.Header().Get("Content-Security-Policy") != "" {
		t.Fatalf("JSON response carries the page CSP")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/track/abc123", nil))
	h := w.Header()
	if got := h.Get("Permissions-Policy"); got != pagePermissionsPolicy {
		t.Fatalf("page policy = %q", got)
	}
	csp := h.Get("Content-Security-Policy")
	for _, want := range []string{"default-src 'none'", "connect-src 'self'", "frame-ancestors 'none'"} {
		if !strings.Contains(csp, want) {
			t.Errorf("CSP %q missing %q", csp, want)
		}
	}
	if h.Get("Cache-Control") != "no-store" {
		t.Fatalf("tracking page cacheable: %#v", h)
	}
}
