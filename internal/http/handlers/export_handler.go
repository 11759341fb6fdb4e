// Export redemption handlers.
//
// This file exposes the unauthenticated endpoints backed by the export
// capability mechanism and the public event listing:
//   - GET /export               (redeem token, download owner's events)
//   - GET /public/events        (public events of one owner, no token)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. A failed redemption always
// answers 403 "invalid link" regardless of whether the token was forged or
// merely stale.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-calendar-backend/internal/domain"
	"github.com/tbourn/go-calendar-backend/internal/export"
	"github.com/tbourn/go-calendar-backend/internal/http/middleware"
)

//
// Service contracts (context-aware)
//

// EventReader lists calendar events for the export and public endpoints.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type EventReader interface {
	// List returns every event of the owner in chronological order.
	List(ctx context.Context, ownerID int64) ([]domain.Event, error)
	// ListPublic returns only the owner's public events.
	ListPublic(ctx context.Context, ownerID int64) ([]domain.Event, error)
}

// TokenRedeemer verifies export capability tokens.
type TokenRedeemer interface {
	// Redeem returns the owner identity bound to a valid token.
	Redeem(token string, maxAge time.Duration) (int64, error)
}

// ExportHandlers groups the endpoints reachable without a bot session.
type ExportHandlers struct {
	events EventReader
	tokens TokenRedeemer
	maxAge time.Duration
}

// NewExportHandlers constructs ExportHandlers bound to the given services.
func NewExportHandlers(events EventReader, tokens TokenRedeemer, maxAge time.Duration) *ExportHandlers {
	return &ExportHandlers{events: events, tokens: tokens, maxAge: maxAge}
}

// Export godoc
// @ID          exportEvents
// @Summary     Download your events via a capability token
// @Description Redeems a signed, time-limited token and returns the owner's event list as JSON or CSV.
// @Tags        Export
// @Produce     json
// @Produce     text/csv
//
// @Param       token   query  string  true  "Capability token issued by the bot"
// @Param       format  query  string  false "csv or json"  Enums(csv, json)  default(json)
//
// @Success     200  {array}   export.Record
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Invalid link"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /export [get]
func (h *ExportHandlers) Export(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "token required")
		return
	}

	format := strings.ToLower(c.DefaultQuery("format", "json"))
	if format != "json" && format != "csv" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "format must be csv or json")
		return
	}

	owner, err := h.tokens.Redeem(token, h.maxAge)
	if err != nil {
		// Forged and expired tokens answer identically: no data, no hint.
		fail(c, http.StatusForbidden, ErrCodeInvalidLink, "invalid link")
		return
	}

	events, err := h.events.List(c.Request.Context(), owner)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	records := export.Records(events)

	middleware.CountExport(format)

	if format == "csv" {
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", `attachment; filename="events.csv"`)
		if err := export.WriteCSV(c.Writer, records); err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, records)
}

// PublicEvents godoc
// @ID          listPublicEvents
// @Summary     List an owner's public events
// @Description Returns the events the owner has flagged public. No token required.
// @Tags        Export
// @Produce     json
//
// @Param       owner  query  int  true  "Owner identity"
//
// @Success     200  {array}   domain.Event
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /public/events [get]
func (h *ExportHandlers) PublicEvents(c *gin.Context) {
	owner, err := strconv.ParseInt(c.Query("owner"), 10, 64)
	if err != nil || owner <= 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "owner must be a positive integer")
		return
	}

	events, err := h.events.ListPublic(c.Request.Context(), owner)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, events)
}
