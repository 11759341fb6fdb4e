// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Event model.
//
// Error semantics:
//   - When an event is not found (or belongs to another owner), functions
//     return gorm.ErrRecordNotFound (also exported here as ErrNotFound).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Every query is owner-scoped: there is deliberately no way to reach another
// owner's event through this file, so "not found" and "not yours" are
// indistinguishable to callers.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-calendar-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateEvent inserts a new Event row owned by ownerID. The event ID is a
// randomly generated UUID (string), and CreatedAt is set to UTC.
func CreateEvent(ctx context.Context, db *gorm.DB, ownerID int64, title, date, timeStr, details string) (*domain.Event, error) {
	e := &domain.Event{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     title,
		Date:      date,
		Time:      timeStr,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(e).Error; err != nil {
		return nil, err
	}
	return e, nil
}

// GetEvent fetches a single event by its ID and owner. If the record does not
// exist or is owned by someone else, it returns ErrNotFound.
func GetEvent(ctx context.Context, db *gorm.DB, id string, ownerID int64) (*domain.Event, error) {
	var e domain.Event
	err := db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEventsByOwner returns all events belonging to ownerID ordered
// chronologically (date, then time, then id for a stable tiebreak).
func ListEventsByOwner(ctx context.Context, db *gorm.DB, ownerID int64) ([]domain.Event, error) {
	var out []domain.Event
	err := db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("date, time, id").
		Find(&out).Error
	return out, err
}

// ListPublicEventsByOwner returns the owner's events flagged public, in the
// same chronological order as ListEventsByOwner. Consumed by the
// unauthenticated public listing.
func ListPublicEventsByOwner(ctx context.Context, db *gorm.DB, ownerID int64) ([]domain.Event, error) {
	var out []domain.Event
	err := db.WithContext(ctx).
		Where("owner_id = ? AND is_public = ?", ownerID, true).
		Order("date, time, id").
		Find(&out).Error
	return out, err
}

// ListAllEvents returns every event in the store, newest first. Admin surface
// only; the bot never calls this.
func ListAllEvents(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Event, error) {
	var out []domain.Event
	err := db.WithContext(ctx).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountEvents returns the total number of events for admin pagination.
func CountEvents(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Event{}).Count(&total).Error
	return total, err
}

// UpdateEventDetails replaces the details of an event identified by id and
// owned by ownerID. If no rows are affected (event missing or foreign), it
// returns ErrNotFound.
func UpdateEventDetails(ctx context.Context, db *gorm.DB, id string, ownerID int64, details string) error {
	res := db.WithContext(ctx).
		Model(&domain.Event{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Update("details", details)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetEventVisibility flips the is_public flag of an owner's event. Returns
// ErrNotFound when the event is missing or foreign.
func SetEventVisibility(ctx context.Context, db *gorm.DB, id string, ownerID int64, public bool) error {
	res := db.WithContext(ctx).
		Model(&domain.Event{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Update("is_public", public)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteEvent soft-deletes an owner's event. Returns ErrNotFound when the
// event is missing or foreign.
func DeleteEvent(ctx context.Context, db *gorm.DB, id string, ownerID int64) error {
	res := db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&domain.Event{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
