// Link HTTP handlers.
//
// This file exposes REST endpoints for tracking links:
//   - POST   /links                         (create)
//   - GET    /links                         (list, newest first)
//   - GET    /links/{id}                    (one link with its clicks)
//   - GET    /links/{id}/clicks/{clickId}   (one click)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-link-tracker/internal/domain"
	"github.com/tbourn/go-link-tracker/internal/services"
	"github.com/tbourn/go-link-tracker/internal/utils"
)

//
// Service contracts (context-aware)
//

// LinkService defines link issuance and read operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type LinkService interface {
	// Create issues a new link whose tracking URL is rooted at baseURL.
	Create(ctx context.Context, baseURL string) (*domain.Link, error)
	// List returns links newest first; a positive limit caps the result.
	List(ctx context.Context, limit int) ([]domain.Link, error)
	// Get returns one link with its full click history.
	Get(ctx context.Context, id string) (*domain.Link, error)
	// Click returns one click of a link.
	Click(ctx context.Context, linkID, clickID string) (*domain.Click, error)
}

// TrackerService defines the visit correlation operations.
type TrackerService interface {
	// RegisterVisit records a click on linkID from the request metadata.
	RegisterVisit(ctx context.Context, linkID string, req services.VisitRequest) (*services.Visit, error)
	// MergeClientPayload replaces a click's client fragment and reports
	// whether the click was found.
	MergeClientPayload(ctx context.Context, linkID, clickID string, payload map[string]any) bool
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for links, visits and client callbacks.
type Handlers struct {
	linkSvc    LinkService
	trackerSvc TrackerService

	// publicBaseURL, when set, roots every tracking URL instead of the
	// request host.
	publicBaseURL string
	// callbackPath is where tracking pages post their client payload.
	callbackPath string
}

// New constructs a Handlers instance. callbackPath is the absolute path of
// the click-update endpoint as mounted by the router.
func New(linkSvc LinkService, trackerSvc TrackerService, publicBaseURL, callbackPath string) *Handlers {
	return &Handlers{
		linkSvc:       linkSvc,
		trackerSvc:    trackerSvc,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		callbackPath:  callbackPath,
	}
}

//
// DTOs
//

// LinkResponse wraps a single link.
type LinkResponse struct {
	Success bool        `json:"success" example:"true"`
	Link    domain.Link `json:"link"`
}

// ListLinksResponse wraps the link listing.
type ListLinksResponse struct {
	Success bool          `json:"success" example:"true"`
	Links   []domain.Link `json:"links"`
}

// ClickResponse wraps a single click.
type ClickResponse struct {
	Success bool         `json:"success" example:"true"`
	Click   domain.Click `json:"click"`
}

//
// Helpers
//

// baseURL returns the scheme://host prefix for tracking URLs. Without a
// configured public URL it is derived from the request, honoring
// X-Forwarded-Proto and X-Forwarded-Host set by a reverse proxy.
func (h *Handlers) baseURL(c *gin.Context) string {
	if h.publicBaseURL != "" {
		return h.publicBaseURL
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if p := firstHeaderValue(c.GetHeader("X-Forwarded-Proto")); p != "" {
		scheme = strings.ToLower(p)
	}
	host := c.Request.Host
	if fh := firstHeaderValue(c.GetHeader("X-Forwarded-Host")); fh != "" {
		host = fh
	}
	return scheme + "://" + host
}

// firstHeaderValue returns the first entry of a comma-separated header.
func firstHeaderValue(v string) string {
	first, _, _ := strings.Cut(v, ",")
	return strings.TrimSpace(first)
}

//
// Handlers
//

// CreateLink godoc
// @ID          createLink
// @Summary     Create a tracking link
// @Description Issues a new tracking link. The URL is rooted at PUBLIC_BASE_URL or, when unset, at the request host.
// @Tags        Links
// @Produce     json
//
// @Success     201  {object}  handlers.LinkResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /links [post]
func (h *Handlers) CreateLink(c *gin.Context) {
	l, err := h.linkSvc.Create(c.Request.Context(), h.baseURL(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "could not create link")
		return
	}
	ok(c, http.StatusCreated, LinkResponse{Success: true, Link: *l})
}

// ListLinks godoc
// @ID          listLinks
// @Summary     List tracking links
// @Description Returns every link with its clicks, newest first.
// @Tags        Links
// @Produce     json
//
// @Param       limit  query  int  false  "Maximum number of links (0 = all)"  minimum(0)
//
// @Success     200  {object} handlers.ListLinksResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /links [get]
func (h *Handlers) ListLinks(c *gin.Context) {
	limit, err := utils.ParseLimit(c.Query("limit"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	links, err := h.linkSvc.List(c.Request.Context(), limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list links")
		return
	}
	if links == nil {
		links = []domain.Link{}
	}
	ok(c, http.StatusOK, ListLinksResponse{Success: true, Links: links})
}

// GetLink godoc
// @ID          getLink
// @Summary     Get a tracking link
// @Description Returns one link with its full click history.
// @Tags        Links
// @Produce     json
//
// @Param       id  path  string  true  "Link ID"  example(abc123)
//
// @Success     200  {object} handlers.LinkResponse
// @Failure     404  {object} handlers.ErrorResponse "Link not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /links/{id} [get]
func (h *Handlers) GetLink(c *gin.Context) {
	l, err := h.linkSvc.Get(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, services.ErrLinkNotFound):
		notFound(c, "link")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeGetFailed, "could not load link")
		return
	}
	ok(c, http.StatusOK, LinkResponse{Success: true, Link: *l})
}

// GetClick godoc
// @ID          getClick
// @Summary     Get one click
// @Description Returns a single click of a link, including whichever fragments have been merged so far.
// @Tags        Links
// @Produce     json
//
// @Param       id       path  string  true  "Link ID"   example(abc123)
// @Param       clickId  path  string  true  "Click ID"
//
// @Success     200  {object} handlers.ClickResponse
// @Failure     404  {object} handlers.ErrorResponse "Link or click not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /links/{id}/clicks/{clickId} [get]
func (h *Handlers) GetClick(c *gin.Context) {
	cl, err := h.linkSvc.Click(c.Request.Context(), c.Param("id"), c.Param("clickId"))
	switch {
	case errors.Is(err, services.ErrLinkNotFound):
		notFound(c, "link")
		return
	case errors.Is(err, services.ErrClickNotFound):
		notFound(c, "click")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeGetFailed, "could not load click")
		return
	}
	ok(c, http.StatusOK, ClickResponse{Success: true, Click: *cl})
}
