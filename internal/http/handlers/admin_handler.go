// Admin read surface.
//
// This file implements the operator-facing, API-key-guarded endpoints:
//   - GET /admin/events        (paginated, all owners)
//   - GET /admin/appointments  (paginated, all parties)
//   - GET /admin/stats         (recent daily usage counters)
//
// The admin surface is read-only. All mutation happens through the bot.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-calendar-backend/internal/domain"
	"github.com/tbourn/go-calendar-backend/internal/repo"
	"github.com/tbourn/go-calendar-backend/internal/utils"
)

const (
	defaultPageSize = 25
	maxPageSize     = 200
	defaultStatDays = 30
)

// StatsLister returns recent per-day usage counters, newest first.
type StatsLister interface {
	List(ctx context.Context, limit int) ([]domain.DailyStats, error)
}

// AdminHandlers serves the read-only operator endpoints.
type AdminHandlers struct {
	db    *gorm.DB
	stats StatsLister
}

// NewAdminHandlers constructs AdminHandlers over the given database handle.
func NewAdminHandlers(db *gorm.DB, stats StatsLister) *AdminHandlers {
	return &AdminHandlers{db: db, stats: stats}
}

// PaginatedResponse is the standard envelope for paginated admin listings.
type PaginatedResponse struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
	Items    any   `json:"items"`
}

// Events godoc
// @ID          adminListEvents
// @Summary     List all events (admin)
// @Tags        Admin
// @Produce     json
// @Security    AdminKeyAuth
//
// @Param       page       query  int  false  "Page number (1-based)"       default(1)
// @Param       page_size  query  int  false  "Items per page (max 200)"    default(25)
//
// @Success     200  {object}  handlers.PaginatedResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/events [get]
func (h *AdminHandlers) Events(c *gin.Context) {
	page, size := h.pageParams(c)
	ctx := c.Request.Context()

	total, err := repo.CountEvents(ctx, h.db)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	items, err := repo.ListAllEvents(ctx, h.db, (page-1)*size, size)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, PaginatedResponse{Page: page, PageSize: size, Total: total, Items: items})
}

// Appointments godoc
// @ID          adminListAppointments
// @Summary     List all appointments (admin)
// @Tags        Admin
// @Produce     json
// @Security    AdminKeyAuth
//
// @Param       page       query  int  false  "Page number (1-based)"       default(1)
// @Param       page_size  query  int  false  "Items per page (max 200)"    default(25)
//
// @Success     200  {object}  handlers.PaginatedResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/appointments [get]
func (h *AdminHandlers) Appointments(c *gin.Context) {
	page, size := h.pageParams(c)
	ctx := c.Request.Context()

	total, err := repo.CountAppointments(ctx, h.db)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	items, err := repo.ListAllAppointments(ctx, h.db, (page-1)*size, size)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, PaginatedResponse{Page: page, PageSize: size, Total: total, Items: items})
}

// Stats godoc
// @ID          adminDailyStats
// @Summary     Recent daily usage counters (admin)
// @Tags        Admin
// @Produce     json
// @Security    AdminKeyAuth
//
// @Param       days  query  int  false  "How many recent days to return"  default(30)
//
// @Success     200  {array}   domain.DailyStats
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/stats [get]
func (h *AdminHandlers) Stats(c *gin.Context) {
	days := utils.AtoiDefault(c.Query("days"), defaultStatDays)
	if days < 1 {
		days = defaultStatDays
	}

	rows, err := h.stats.List(c.Request.Context(), days)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, rows)
}

func (h *AdminHandlers) pageParams(c *gin.Context) (page, size int) {
	page = utils.AtoiDefault(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	size = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}
