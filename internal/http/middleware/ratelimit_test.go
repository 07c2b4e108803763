package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestKeyByVisitorIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for _, tc := range []struct {
		name, xff, xri, want string
	}{
		{name: "peer", want: "ip:203.0.113.9"},
		{name: "forwarded first hop", xff: " 198.51.100.4 , 10.0.0.1", want: "ip:198.51.100.4"},
		{name: "real ip", xri: "198.51.100.7", want: "ip:198.51.100.7"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/track/abc123", nil)
			c.Request.RemoteAddr = "203.0.113.9:51234"
			if tc.xff != "" {
				c.Request.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.xri != "" {
				c.Request.Header.Set("X-Real-IP", tc.xri)
			}
			if got := KeyByVisitorIP()(c); got != tc.want {
				t.Fatalf("key = %q; want %q", got, tc.want)
			}
		})
	}
}

func TestRateLimiter_BucketPerKey(t *testing.T) {
	rl := NewRateLimiter(0.001, 0, KeyByVisitorIP())
	if rl.burst != 1 {
		t.Fatalf("burst = %d; want 1", rl.burst)
	}
	if !rl.allow("ip:a") || rl.allow("ip:a") {
		t.Fatalf("burst of one not enforced")
	}
	if !rl.allow("ip:b") {
		t.Fatalf("second key shares the first key's bucket")
	}
}

func TestRateLimiter_SweepsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 1, KeyByVisitorIP())
	now := time.Now()

	stale := rl.bucketFor("ip:stale", now.Add(-2*bucketIdleTTL))
	stale.Allow() // drained
	rl.bucketFor("ip:fresh", now)

	rl.lookups = sweepEvery - 1
	if got := rl.bucketFor("ip:stale", now); got == stale {
		t.Fatalf("stale bucket revived instead of replaced")
	}
	if _, ok := rl.buckets["ip:fresh"]; !ok {
		t.Fatalf("fresh bucket swept")
	}
	if rl.lookups != 0 {
		t.Fatalf("lookups = %d after sweep", rl.lookups)
	}
}

func TestRateLimiter_Handler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0.001, 1, KeyByVisitorIP())

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Header(HeaderRequestID, "rid-1"); c.Next() })
	r.POST("/links", rl.Handler(), func(c *gin.Context) { c.Status(http.StatusCreated) })

	create := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/links", nil)
		req.RemoteAddr = ip + ":4000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	if w := create("203.0.113.9"); w.Code != http.StatusCreated {
		t.Fatalf("first create = %d", w.Code)
	}
	w := create("203.0.113.9")
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") != "1" {
		t.Fatalf("second create = %d, Retry-After %q", w.Code, w.Header().Get("Retry-After"))
	}
	var body errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != "too_many_requests" || body.RequestID != "rid-1" {
		t.Fatalf("body = %+v", body)
	}
	if w := create("198.51.100.200"); w.Code != http.StatusCreated {
		t.Fatalf("other visitor = %d", w.Code)
	}
}

func TestRateLimiter_HandlerWith_CallbackShape(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0.001, 1, KeyByVisitorIP())

	handled := 0
	r := gin.New()
	r.POST("/click-update", rl.HandlerWith(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusOK, gin.H{"ok": false})
	}), func(c *gin.Context) {
		handled++
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for i, want := range []string{`{"ok":true}`, `{"ok":false}`} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/click-update", nil))
		if w.Code != http.StatusOK || w.Body.String() != want {
			t.Fatalf("callback %d: %d %s", i, w.Code, w.Body.String())
		}
	}
	if handled != 1 {
		t.Fatalf("handler ran %d times; want 1", handled)
	}
}
