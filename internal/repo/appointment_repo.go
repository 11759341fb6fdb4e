// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Appointment
// model, including the busy-slot query used by the scheduling service.
//
// The busy-slot predicate mirrors the scheduling invariant: an identity is
// busy at (date, time) when any appointment at exactly that slot names it as
// organizer or participant with status pending or confirmed. Callers that
// need check-then-insert atomicity must run both calls inside one
// transaction; this file only composes the queries.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-calendar-backend/internal/domain"
)

// busyScope filters appointments that occupy the identity's slot at exactly
// (date, time): either role, status pending or confirmed.
func busyScope(db *gorm.DB, id int64, date, timeStr string) *gorm.DB {
	return db.
		Model(&domain.Appointment{}).
		Where("(organizer_id = ? OR participant_id = ?)", id, id).
		Where("date = ? AND time = ?", date, timeStr).
		Where("status IN ?", domain.BusyStatuses)
}

// CountBusy returns the number of appointments occupying the identity's slot
// at exactly (date, time).
func CountBusy(ctx context.Context, db *gorm.DB, id int64, date, timeStr string) (int64, error) {
	var n int64
	err := busyScope(db.WithContext(ctx), id, date, timeStr).Count(&n).Error
	return n, err
}

// CreateAppointment inserts a new pending appointment. The appointment ID is
// a randomly generated UUID and CreatedAt is set to UTC. The caller is
// responsible for running the availability check in the same transaction.
func CreateAppointment(ctx context.Context, db *gorm.DB, eventID string, organizerID, participantID int64, date, timeStr, details string) (*domain.Appointment, error) {
	a := &domain.Appointment{
		ID:            uuid.NewString(),
		EventID:       eventID,
		OrganizerID:   organizerID,
		ParticipantID: participantID,
		Date:          date,
		Time:          timeStr,
		Details:       details,
		Status:        domain.StatusPending,
		CreatedAt:     time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

// GetAppointment fetches an appointment by ID. Returns ErrNotFound when the
// record does not exist. Authorization (organizer/participant checks) is the
// scheduling service's job, not the repository's.
func GetAppointment(ctx context.Context, db *gorm.DB, id string) (*domain.Appointment, error) {
	var a domain.Appointment
	if err := db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateAppointmentStatus transitions an appointment from one status to
// another. The WHERE clause carries the expected current status, so a
// concurrent transition loses cleanly: zero rows affected maps to
// ErrNotFound and the caller re-reads to report the actual state.
func UpdateAppointmentStatus(ctx context.Context, db *gorm.DB, id, from, to string) error {
	res := db.WithContext(ctx).
		Model(&domain.Appointment{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListAppointmentsForIdentity returns appointments where the identity is
// organizer or participant, newest slot first.
func ListAppointmentsForIdentity(ctx context.Context, db *gorm.DB, id int64) ([]domain.Appointment, error) {
	var out []domain.Appointment
	err := db.WithContext(ctx).
		Where("organizer_id = ? OR participant_id = ?", id, id).
		Order("date desc, time desc, id desc").
		Find(&out).Error
	return out, err
}

// ListAllAppointments returns every appointment, newest slot first. Admin
// surface only.
func ListAllAppointments(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Appointment, error) {
	var out []domain.Appointment
	err := db.WithContext(ctx).
		Order("date desc, time desc, id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountAppointments returns the total number of appointments for admin
// pagination.
func CountAppointments(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Appointment{}).Count(&total).Error
	return total, err
}
