package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/tbourn/go-link-tracker/internal/services"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func TestTrack_RecordsClickAndRendersPage(t *testing.T) {
	h, links, _ := newRealHandlers(t, "http://h")
	r, _ := newRouter(t, h)
	ctx := context.Background()
	l, _ := links.Create(ctx, "http://h")

	w := do(r, http.MethodGet, "/track/"+l.ID, "", map[string]string{
		"User-Agent":      chromeUA,
		"X-Forwarded-For": "203.0.113.9, 10.0.0.1",
		"Accept-Language": "de-DE,de;q=0.9,en;q=0.5",
		"CF-IPCountry":    "de",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content-type=%q", ct)
	}

	got, _ := links.Get(ctx, l.ID)
	if len(got.Clicks) != 1 {
		t.Fatalf("clicks=%d", len(got.Clicks))
	}
	c := got.Clicks[0]
	if c.Browser != "Chrome" || c.IP != "203.0.113.9" || c.Country != "DE" || c.Language != "de-DE" {
		t.Fatalf("unexpected server fragment: %+v", c)
	}
	if c.Geo != nil || c.Client != nil {
		t.Fatalf("fresh click must have no fragments: %+v", c)
	}

	body := w.Body.String()
	for _, want := range []string{
		`data-link-id="` + l.ID + `"`,
		`data-click-id="` + c.ID + `"`,
		`var linkId = "` + l.ID + `"`,
		`var clickId = "` + c.ID + `"`,
		`var callbackURL = "/api/click-update"`,
		"Loading",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("page missing %q", want)
		}
	}
}

func TestTrack_UnknownLink(t *testing.T) {
	h, links, _ := newRealHandlers(t, "http://h")
	r, _ := newRouter(t, h)

	w := do(r, http.MethodGet, "/track/nope", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content-type=%q", ct)
	}
	if w.Body.String() != "Link not found" {
		t.Fatalf("body=%q", w.Body.String())
	}
	if all, _ := links.List(context.Background(), 0); len(all) != 0 {
		t.Fatalf("store mutated: %+v", all)
	}
}

func TestTrack_ServiceError(t *testing.T) {
	h := New(stubLinkSvc{}, stubTrackerSvc{visit: func(context.Context, string, services.VisitRequest) (*services.Visit, error) {
		return nil, errors.New("disk full")
	}}, "", testCallbackPath)
	r, logs := newRouter(t, h)

	w := do(r, http.MethodGet, "/track/x", "", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(logs.String(), "register visit failed") {
		t.Fatalf("error not logged: %s", logs.String())
	}
}

func TestTrack_PassesRequestMetadata(t *testing.T) {
	var seen services.VisitRequest
	h := New(stubLinkSvc{}, stubTrackerSvc{visit: func(_ context.Context, id string, req services.VisitRequest) (*services.Visit, error) {
		seen = req
		return &services.Visit{LinkID: id, ClickID: "c1"}, nil
	}}, "", testCallbackPath)
	r, _ := newRouter(t, h)

	w := do(r, http.MethodGet, "/track/l1", "", map[string]string{"X-Real-IP": "198.51.100.7"})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if seen.Header.Get("X-Real-IP") != "198.51.100.7" || seen.RemoteAddr == "" {
		t.Fatalf("request metadata not forwarded: %+v", seen)
	}
}

func TestTrackPage_EscapesIDs(t *testing.T) {
	h := New(stubLinkSvc{}, stubTrackerSvc{visit: func(_ context.Context, id string, _ services.VisitRequest) (*services.Visit, error) {
		return &services.Visit{LinkID: id, ClickID: `</script><b>x`}, nil
	}}, "", testCallbackPath)
	r, _ := newRouter(t, h)

	w := do(r, http.MethodGet, "/track/l1", "", nil)
	if strings.Contains(w.Body.String(), "</script><b>") {
		t.Fatalf("click id rendered unescaped")
	}
}
