// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-calendar-backend/internal/domain"
)

// UpsertUser inserts a user row for the given identity or refreshes the
// profile columns when the row already exists. It reports whether the row was
// newly created so callers can count registrations exactly once.
func UpsertUser(ctx context.Context, db *gorm.DB, id int64, username, firstName, lastName string) (*domain.User, bool, error) {
	existing, err := GetUser(ctx, db, id)
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, false, err
	}
	created := existing == nil

	u := &domain.User{
		ID:        id,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		IsActive:  true,
	}
	if existing != nil {
		// Preserve activity counters across re-registration.
		u.EventsCreated = existing.EventsCreated
		u.EventsEdited = existing.EventsEdited
		u.EventsDeleted = existing.EventsDeleted
		u.CreatedAt = existing.CreatedAt
	}
	err = db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "first_name", "last_name", "is_active", "updated_at"}),
	}).Create(u).Error
	if err != nil {
		return nil, false, err
	}
	return u, created, nil
}

// GetUser fetches a user by identity. If the record does not exist, it
// returns gorm.ErrRecordNotFound.
func GetUser(ctx context.Context, db *gorm.DB, id int64) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UserExists reports whether a user row exists for the identity.
func UserExists(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Count(&n).Error
	return n > 0, err
}

// BumpUserCounter increments one of the per-user activity counters
// (events_created, events_edited, events_deleted) by one. Unknown identities
// are a no-op: the counter exists for reporting, not enforcement.
func BumpUserCounter(ctx context.Context, db *gorm.DB, id int64, column string) error {
	return db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + 1")).Error
}
