// Package domain defines the persistence models for users, calendar events,
// appointments, and daily activity statistics. These types are mapped with
// GORM and form the core data layer of the calendar backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Appointment status values. An appointment starts as StatusPending and is
// driven through the lifecycle exclusively by the scheduling service.
// StatusDeclined and StatusCancelled are terminal; StatusConfirmed still
// counts toward the busy slot and remains cancellable.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusDeclined  = "declined"
	StatusCancelled = "cancelled"
)

// Wire formats for calendar dates and times. All date/time columns store
// plain strings in these layouts; the bot dialogs and the export payload use
// the same formats end to end.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// BusyStatuses lists the appointment statuses that occupy a participant's
// time slot. Used by the scheduling repository when checking availability.
var BusyStatuses = []string{StatusPending, StatusConfirmed}

// User represents a registered messaging-platform account. The primary key is
// the platform-assigned numeric identity, so lookups by sender id are direct.
//
// Fields:
//   - ID: stable platform user id (the identity used as a key everywhere).
//   - Username / FirstName / LastName: profile data refreshed on registration.
//   - IsActive: soft activation flag for the admin surface.
//   - EventsCreated / EventsEdited / EventsDeleted: per-user activity counters.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type User struct {
	ID        int64  `json:"id"         gorm:"primaryKey;autoIncrement:false"`
	Username  string `json:"username"   gorm:"type:varchar(255);not null;default:''"`
	FirstName string `json:"first_name" gorm:"type:varchar(255);not null;default:''"`
	LastName  string `json:"last_name"  gorm:"type:varchar(255);not null;default:''"`
	IsActive  bool   `json:"is_active"  gorm:"not null;default:true"`

	EventsCreated uint `json:"events_created" gorm:"not null;default:0"`
	EventsEdited  uint `json:"events_edited"  gorm:"not null;default:0"`
	EventsDeleted uint `json:"events_deleted" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Event represents a calendar entry owned by exactly one user. Only the owner
// may read it through owner-scoped queries, mutate it, or delete it; events
// flagged public are additionally visible through the public listing.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - OwnerID: identity of the owning user; indexed for per-owner listing.
//   - Title: short event name, normalized by the event service.
//   - Date / Time: wire-format strings (DateLayout / TimeLayout).
//   - Details: free-form description, may be empty.
//   - IsPublic: whether the event appears in the public listing.
//   - DeletedAt: soft deletion marker (retains row for audit/history).
type Event struct {
	ID       string `json:"id"        gorm:"type:char(36);primaryKey"`
	OwnerID  int64  `json:"owner_id"  gorm:"not null;index:idx_owner_events"`
	Title    string `json:"title"     gorm:"type:varchar(255);not null"`
	Date     string `json:"date"      gorm:"type:char(10);not null"`
	Time     string `json:"time"      gorm:"type:char(5);not null"`
	Details  string `json:"details"   gorm:"type:text;not null;default:''"`
	IsPublic bool   `json:"is_public" gorm:"not null;default:false"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for Event.
func (Event) TableName() string { return "events" }

// Appointment represents a proposed meeting between an organizer and a
// participant, anchored to one of the organizer's events. The event reference
// is logical only: no foreign-key constraint is enforced, so appointments
// survive event deletion for audit purposes.
//
// Appointments are never physically deleted; cancellation is a status.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - EventID: logical reference to the anchoring event.
//   - OrganizerID / ParticipantID: identities on both sides; indexed for the
//     busy-slot query which matches either role.
//   - Date / Time: the proposed slot, wire-format strings.
//   - Details: optional note shown to the participant.
//   - Status: one of the Status* constants; indexed for busy-slot filtering.
type Appointment struct {
	ID            string `json:"id"             gorm:"type:char(36);primaryKey"`
	EventID       string `json:"event_id"       gorm:"type:char(36);not null;index"`
	OrganizerID   int64  `json:"organizer_id"   gorm:"not null;index"`
	ParticipantID int64  `json:"participant_id" gorm:"not null;index"`
	Date          string `json:"date"           gorm:"type:char(10);not null"`
	Time          string `json:"time"           gorm:"type:char(5);not null"`
	Details       string `json:"details"        gorm:"type:text;not null;default:''"`
	Status        string `json:"status"         gorm:"type:varchar(16);not null;default:'pending';index;check:status IN ('pending','confirmed','declined','cancelled')"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Appointment.
func (Appointment) TableName() string { return "appointments" }

// Terminal reports whether the appointment status admits no further
// transitions. Confirmed appointments are not terminal: they can still be
// cancelled by either party.
func (a *Appointment) Terminal() bool {
	return a.Status == StatusDeclined || a.Status == StatusCancelled
}

// DailyStats aggregates bot activity per calendar day for the admin read
// surface. One row per date; counters are incremented by the stats service.
type DailyStats struct {
	ID            uint   `json:"id"             gorm:"primaryKey"`
	Date          string `json:"date"           gorm:"type:char(10);not null;uniqueIndex"`
	NewUsers      uint   `json:"new_users"      gorm:"not null;default:0"`
	EventsCreated uint   `json:"events_created" gorm:"not null;default:0"`
	EventsEdited  uint   `json:"events_edited"  gorm:"not null;default:0"`
	EventsDeleted uint   `json:"events_deleted" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for DailyStats.
func (DailyStats) TableName() string { return "daily_stats" }
