// Tracking page handler.
//
// GET /track/{id} records a visit and answers with a small HTML page that
// collects client-side signals and posts them back to the click-update
// endpoint, correlated by the link and click ids embedded in the page.
// Page-level headers (CSP, geolocation policy, no-store) come from
// middleware.PageHeaders on the route.
package handlers

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"github.com/tbourn/go-link-tracker/internal/http/middleware"
	"github.com/tbourn/go-link-tracker/internal/services"
)

//go:embed templates/track.html
var templatesFS embed.FS

var trackPage = template.Must(template.ParseFS(templatesFS, "templates/track.html"))

// trackPageData is the data the tracking page template renders.
type trackPageData struct {
	LinkID      string
	ClickID     string
	CallbackURL string
}

// Track registers a visit on the link and renders the tracking page. An
// unknown link answers 404 with a plain-text body; the page itself is not
// part of the JSON API and is left out of the API docs.
func (h *Handlers) Track(c *gin.Context) {
	linkID := c.Param("id")
	v, err := h.trackerSvc.RegisterVisit(c.Request.Context(), linkID, services.VisitRequest{
		Header:     c.Request.Header,
		RemoteAddr: c.Request.RemoteAddr,
	})
	switch {
	case errors.Is(err, services.ErrLinkNotFound):
		c.String(http.StatusNotFound, "Link not found")
		return
	case err != nil:
		middleware.LoggerFrom(c).Error().Err(err).Str("link_id", linkID).Msg("register visit failed")
		c.String(http.StatusInternalServerError, "Internal error")
		return
	}

	c.Render(http.StatusOK, render.HTML{
		Template: trackPage,
		Name:     "track.html",
		Data: trackPageData{
			LinkID:      v.LinkID,
			ClickID:     v.ClickID,
			CallbackURL: h.callbackPath,
		},
	})
}
