// Package services – EventService
//
// This file implements the EventService, which manages the lifecycle of
// calendar events. It validates and normalizes titles and date/time inputs,
// enforces ownership rules, and coordinates repository operations for
// creating, listing, editing, sharing, and deleting events.
//
// Service-level errors (e.g., ErrEventNotFound) are returned for predictable
// cases so the bot dispatcher and HTTP handlers can map them to user-facing
// results consistently.
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/go-calendar-backend/internal/domain"
	"github.com/tbourn/go-calendar-backend/internal/repo"
)

// EventRepo defines the repository contract required by EventService.
// Implementations are responsible for persistence of event aggregates.
type EventRepo interface {
	// CreateEvent inserts a new event row for the given owner.
	CreateEvent(ctx context.Context, db *gorm.DB, ownerID int64, title, date, timeStr, details string) (*domain.Event, error)

	// GetEvent fetches an event by ID ensuring it belongs to the owner.
	GetEvent(ctx context.Context, db *gorm.DB, id string, ownerID int64) (*domain.Event, error)

	// ListEventsByOwner returns all events belonging to the owner.
	ListEventsByOwner(ctx context.Context, db *gorm.DB, ownerID int64) ([]domain.Event, error)

	// ListPublicEventsByOwner returns the owner's public events only.
	ListPublicEventsByOwner(ctx context.Context, db *gorm.DB, ownerID int64) ([]domain.Event, error)

	// UpdateEventDetails replaces an event's details (owner-scoped).
	UpdateEventDetails(ctx context.Context, db *gorm.DB, id string, ownerID int64, details string) error

	// SetEventVisibility flips an event's public flag (owner-scoped).
	SetEventVisibility(ctx context.Context, db *gorm.DB, id string, ownerID int64, public bool) error

	// DeleteEvent soft-deletes an event (owner-scoped).
	DeleteEvent(ctx context.Context, db *gorm.DB, id string, ownerID int64) error
}

// EventService provides owner-checked CRUD over calendar events. It enforces
// title rules and the wire date/time formats.
type EventService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the event repository used by this service.
	Repo EventRepo

	// TitleMaxLen caps stored titles by rune length.
	TitleMaxLen int
	// TitleCaser upcases the first rune of bare lowercase titles.
	TitleCaser cases.Caser
}

// NewEventService constructs an EventService with sane defaults for title
// handling.
func NewEventService(db *gorm.DB, r EventRepo) *EventService {
	return &EventService{
		DB:          db,
		Repo:        r,
		TitleMaxLen: 120,
		TitleCaser:  cases.Title(language.Und, cases.NoLower),
	}
}

// Create validates inputs and inserts a new event owned by ownerID.
// Titles are normalized, trimmed, and clipped; date and time must be in the
// wire layouts.
func (s *EventService) Create(ctx context.Context, ownerID int64, title, date, timeStr, details string) (*domain.Event, error) {
	title = normalizeTitle(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return nil, ErrInvalidDate
	}
	if _, err := time.Parse(domain.TimeLayout, timeStr); err != nil {
		return nil, ErrInvalidTime
	}

	ev, err := s.Repo.CreateEvent(ctx, s.DB, ownerID, s.clip(s.caseTitle(title)), date, timeStr, strings.TrimSpace(details))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return ev, nil
}

// Get returns a single event by id, scoped to the owner.
func (s *EventService) Get(ctx context.Context, ownerID int64, id string) (*domain.Event, error) {
	ev, err := s.Repo.GetEvent(ctx, s.DB, id, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return ev, nil
}

// List returns all events for an owner in chronological order.
func (s *EventService) List(ctx context.Context, ownerID int64) ([]domain.Event, error) {
	out, err := s.Repo.ListEventsByOwner(ctx, s.DB, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return out, nil
}

// ListPublic returns only the owner's public events. Consumed by the
// unauthenticated public listing; never exposes private rows.
func (s *EventService) ListPublic(ctx context.Context, ownerID int64) ([]domain.Event, error) {
	out, err := s.Repo.ListPublicEventsByOwner(ctx, s.DB, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return out, nil
}

// UpdateDetails replaces an event's description, ensuring the event exists
// and belongs to the given owner.
func (s *EventService) UpdateDetails(ctx context.Context, ownerID int64, id, details string) error {
	return s.mapMutation(s.Repo.UpdateEventDetails(ctx, s.DB, id, ownerID, strings.TrimSpace(details)))
}

// SetVisibility makes an event public or private again.
func (s *EventService) SetVisibility(ctx context.Context, ownerID int64, id string, public bool) error {
	return s.mapMutation(s.Repo.SetEventVisibility(ctx, s.DB, id, ownerID, public))
}

// Delete removes an owner's event.
func (s *EventService) Delete(ctx context.Context, ownerID int64, id string) error {
	return s.mapMutation(s.Repo.DeleteEvent(ctx, s.DB, id, ownerID))
}

// mapMutation converts repository mutation errors to service errors.
func (s *EventService) mapMutation(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrEventNotFound
	default:
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
}

// clip truncates an event title to the configured maximum rune length.
func (s *EventService) clip(title string) string {
	if s.TitleMaxLen > 0 && utf8.RuneCountInString(title) > s.TitleMaxLen {
		return string([]rune(title)[:s.TitleMaxLen])
	}
	return title
}

// caseTitle upcases an all-lowercase title; mixed-case input is kept as typed.
func (s *EventService) caseTitle(title string) string {
	if title == strings.ToLower(title) {
		return s.TitleCaser.String(title)
	}
	return title
}

// normalizeTitle trims whitespace and collapses multiple spaces to one.
func normalizeTitle(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)

// eventRepoShim adapts the repository free functions to the EventRepo
// interface. This keeps the service decoupled from the concrete repo package
// while reusing the existing functions.
type eventRepoShim struct{}

// NewEventRepo returns the default repository implementation backed by the
// repo package's free functions.
func NewEventRepo() EventRepo { return eventRepoShim{} }

func (eventRepoShim) CreateEvent(ctx context.Context, db *gorm.DB, ownerID int64, title, date, timeStr, details string) (*domain.Event, error) {
	return repo.CreateEvent(ctx, db, ownerID, title, date, timeStr, details)
}

func (eventRepoShim) GetEvent(ctx context.Context, db *gorm.DB, id string, ownerID int64) (*domain.Event, error) {
	return repo.GetEvent(ctx, db, id, ownerID)
}

func (eventRepoShim) ListEventsByOwner(ctx context.Context, db *gorm.DB, ownerID int64) ([]domain.Event, error) {
	return repo.ListEventsByOwner(ctx, db, ownerID)
}

func (eventRepoShim) ListPublicEventsByOwner(ctx context.Context, db *gorm.DB, ownerID int64) ([]domain.Event, error) {
	return repo.ListPublicEventsByOwner(ctx, db, ownerID)
}

func (eventRepoShim) UpdateEventDetails(ctx context.Context, db *gorm.DB, id string, ownerID int64, details string) error {
	return repo.UpdateEventDetails(ctx, db, id, ownerID, details)
}

func (eventRepoShim) SetEventVisibility(ctx context.Context, db *gorm.DB, id string, ownerID int64, public bool) error {
	return repo.SetEventVisibility(ctx, db, id, ownerID, public)
}

func (eventRepoShim) DeleteEvent(ctx context.Context, db *gorm.DB, id string, ownerID int64) error {
	return repo.DeleteEvent(ctx, db, id, ownerID)
}
