// Package services – StatsService
//
// Daily activity counters for the admin read surface, mirrored per user.
// Recording is best effort: a failed increment is logged by the caller and
// never blocks the user-facing operation that triggered it.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-calendar-backend/internal/domain"
	"github.com/tbourn/go-calendar-backend/internal/repo"
)

// StatsService increments daily aggregates and per-user activity counters.
type StatsService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Now is the clock used to pick today's row; overridable in tests.
	Now func() time.Time
}

// NewStatsService constructs a StatsService over the given handle.
func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{DB: db, Now: time.Now}
}

// today returns the current date in the wire layout.
func (s *StatsService) today() string {
	return s.Now().UTC().Format(domain.DateLayout)
}

// RecordNewUser counts a first-time registration. Re-registrations must not
// be passed here; the caller decides using the upsert's created flag.
func (s *StatsService) RecordNewUser(ctx context.Context) error {
	return repo.IncrementDailyStat(ctx, s.DB, s.today(), "new_users")
}

// RecordEventCreated counts one created event for the day and the owner.
func (s *StatsService) RecordEventCreated(ctx context.Context, ownerID int64) error {
	if err := repo.IncrementDailyStat(ctx, s.DB, s.today(), "events_created"); err != nil {
		return err
	}
	return repo.BumpUserCounter(ctx, s.DB, ownerID, "events_created")
}

// RecordEventEdited counts one edited event for the day and the owner.
func (s *StatsService) RecordEventEdited(ctx context.Context, ownerID int64) error {
	if err := repo.IncrementDailyStat(ctx, s.DB, s.today(), "events_edited"); err != nil {
		return err
	}
	return repo.BumpUserCounter(ctx, s.DB, ownerID, "events_edited")
}

// RecordEventDeleted counts one deleted event for the day and the owner.
func (s *StatsService) RecordEventDeleted(ctx context.Context, ownerID int64) error {
	if err := repo.IncrementDailyStat(ctx, s.DB, s.today(), "events_deleted"); err != nil {
		return err
	}
	return repo.BumpUserCounter(ctx, s.DB, ownerID, "events_deleted")
}

// List returns the newest daily rows for the admin surface.
func (s *StatsService) List(ctx context.Context, limit int) ([]domain.DailyStats, error) {
	if limit <= 0 {
		limit = 30
	}
	return repo.ListDailyStats(ctx, s.DB, limit)
}
