// Package services – UserService
//
// Registration and lookup of messaging-platform users. Registration is an
// upsert: re-registering refreshes profile fields and never duplicates rows
// or double-counts statistics.
package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tbourn/go-calendar-backend/internal/domain"
	"github.com/tbourn/go-calendar-backend/internal/repo"
)

// UserService manages user registration state.
type UserService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// NewUserService constructs a UserService over the given handle.
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// Register upserts the user row and reports whether it was newly created so
// the caller can count first-time registrations exactly once.
func (s *UserService) Register(ctx context.Context, id int64, username, firstName, lastName string) (*domain.User, bool, error) {
	u, created, err := repo.UpsertUser(ctx, s.DB, id, username, firstName, lastName)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return u, created, nil
}

// Exists reports whether the identity has registered.
func (s *UserService) Exists(ctx context.Context, id int64) (bool, error) {
	ok, err := repo.UserExists(ctx, s.DB, id)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return ok, nil
}

// Get fetches a user row by identity.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return u, nil
}
