// Client callback handler.
//
// POST /click-update receives the payload collected by a tracking page and
// merges it into the click it belongs to. The tracking script cannot react
// to failures, so the endpoint always answers 200 with {"ok": bool}.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ClickUpdateResponse reports whether the client payload was merged.
type ClickUpdateResponse struct {
	OK bool `json:"ok" example:"true"`
}

// UpdateClick godoc
// @ID          updateClick
// @Summary     Merge client telemetry into a click
// @Description Replaces the client fragment of the click identified by linkId and clickId with the remaining body fields. Unknown ids or malformed bodies answer {"ok": false}.
// @Tags        Tracking
// @Accept      json
// @Produce     json
//
// @Param       body  body  object  true  "{linkId, clickId, ...payload}"
//
// @Success     200  {object} handlers.ClickUpdateResponse
// @Router      /click-update [post]
func (h *Handlers) UpdateClick(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil || body == nil {
		ok(c, http.StatusOK, ClickUpdateResponse{OK: false})
		return
	}

	linkID, _ := body["linkId"].(string)
	clickID, _ := body["clickId"].(string)
	delete(body, "linkId")
	delete(body, "clickId")

	merged := h.trackerSvc.MergeClientPayload(c.Request.Context(), linkID, clickID, body)
	ok(c, http.StatusOK, ClickUpdateResponse{OK: merged})
}
