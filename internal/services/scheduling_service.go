// Package services – SchedulingService
//
// This file implements SchedulingService, the component that enforces the
// busy-slot invariant and drives appointment status transitions. An identity
// is busy at (date, time) when any appointment at exactly that slot names it
// as organizer or participant with status pending or confirmed; declined and
// cancelled appointments free the slot.
//
// CreateInvite runs its availability check and insert inside one transaction.
// Together with SQLite's single-writer connection this makes check-then-insert
// atomic across all identities, so two concurrent invites for the same
// participant and slot cannot both succeed.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include appointment and identity attributes.
package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-calendar-backend/internal/domain"
	"github.com/tbourn/go-calendar-backend/internal/repo"
)

// Decision is a participant's answer to a pending invitation.
type Decision int

// Participant decisions.
const (
	DecisionConfirm Decision = iota
	DecisionDecline
)

// SchedulingService coordinates appointment creation and its status
// lifecycle. All writes to the appointments table go through this service.
type SchedulingService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// NewSchedulingService constructs a SchedulingService over the given handle.
func NewSchedulingService(db *gorm.DB) *SchedulingService {
	return &SchedulingService{DB: db}
}

// IsFree reports whether the identity has no pending or confirmed
// appointment at exactly (date, time). Only exact slot equality counts;
// whether overlapping-but-not-identical times should block too is a pending
// product decision.
func (s *SchedulingService) IsFree(ctx context.Context, id int64, date, timeStr string) (bool, error) {
	n, err := repo.CountBusy(ctx, s.DB, id, date, timeStr)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return n == 0, nil
}

// CreateInvite creates a pending appointment anchored to one of the
// organizer's events, proposing (date, time) to the participant.
//
// Returns ErrNotOwner when the event is missing or foreign, ErrSelfInvite for
// organizer == participant, and ErrBusy when the participant already holds a
// pending or confirmed appointment at that slot; on ErrBusy nothing is
// written.
func (s *SchedulingService) CreateInvite(ctx context.Context, organizerID, participantID int64, eventID, date, timeStr, details string) (*domain.Appointment, error) {
	tr := otel.Tracer("services/SchedulingService")
	ctx, span := tr.Start(ctx, "CreateInvite",
		trace.WithAttributes(
			attribute.Int64("organizer.id", organizerID),
			attribute.Int64("participant.id", participantID),
			attribute.String("event.id", eventID),
		),
	)
	defer span.End()

	if organizerID == participantID {
		return nil, ErrSelfInvite
	}

	var appt *domain.Appointment
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ev, err := repo.GetEvent(ctx, tx, eventID, organizerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotOwner
			}
			return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}

		// The invite defaults to the event's own slot and description.
		if date == "" {
			date = ev.Date
		}
		if timeStr == "" {
			timeStr = ev.Time
		}
		if details == "" {
			details = ev.Details
		}

		busy, err := repo.CountBusy(ctx, tx, participantID, date, timeStr)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		if busy > 0 {
			return ErrBusy
		}

		appt, err = repo.CreateAppointment(ctx, tx, ev.ID, organizerID, participantID, date, timeStr, details)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return appt, nil
}

// Respond records the participant's decision on a pending appointment.
// Confirm moves it to confirmed, decline to declined. Only the participant
// may respond (ErrNotParticipant); any status other than pending yields
// ErrInvalidTransition with the stored status unchanged, which also absorbs
// double button presses.
func (s *SchedulingService) Respond(ctx context.Context, apptID string, responderID int64, d Decision) (*domain.Appointment, error) {
	tr := otel.Tracer("services/SchedulingService")
	ctx, span := tr.Start(ctx, "Respond",
		trace.WithAttributes(
			attribute.String("appointment.id", apptID),
			attribute.Int64("responder.id", responderID),
		),
	)
	defer span.End()

	to := domain.StatusConfirmed
	if d == DecisionDecline {
		to = domain.StatusDeclined
	}

	return s.transition(ctx, apptID, to, func(a *domain.Appointment) error {
		if a.ParticipantID != responderID {
			return ErrNotParticipant
		}
		if a.Status != domain.StatusPending {
			return ErrInvalidTransition
		}
		return nil
	}, domain.StatusPending)
}

// Cancel moves a pending or confirmed appointment to cancelled, freeing the
// slot. Either the organizer or the participant may cancel (ErrNotParty
// otherwise); terminal statuses yield ErrInvalidTransition.
func (s *SchedulingService) Cancel(ctx context.Context, apptID string, requesterID int64) (*domain.Appointment, error) {
	tr := otel.Tracer("services/SchedulingService")
	ctx, span := tr.Start(ctx, "Cancel",
		trace.WithAttributes(
			attribute.String("appointment.id", apptID),
			attribute.Int64("requester.id", requesterID),
		),
	)
	defer span.End()

	var from string
	appt, err := s.transitionPick(ctx, apptID, domain.StatusCancelled, func(a *domain.Appointment) error {
		if a.OrganizerID != requesterID && a.ParticipantID != requesterID {
			return ErrNotParty
		}
		if a.Terminal() {
			return ErrInvalidTransition
		}
		from = a.Status
		return nil
	}, &from)
	return appt, err
}

// Get fetches an appointment by id with no authorization check; callers that
// expose it to users must verify the requester is a party themselves.
func (s *SchedulingService) Get(ctx context.Context, apptID string) (*domain.Appointment, error) {
	a, err := repo.GetAppointment(ctx, s.DB, apptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return a, nil
}

// ListForIdentity returns the appointments where the identity is organizer or
// participant, newest slot first.
func (s *SchedulingService) ListForIdentity(ctx context.Context, id int64) ([]domain.Appointment, error) {
	out, err := repo.ListAppointmentsForIdentity(ctx, s.DB, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return out, nil
}

// transition moves an appointment from a fixed status to another after the
// guard approves, all inside one transaction.
func (s *SchedulingService) transition(ctx context.Context, apptID, to string, guard func(*domain.Appointment) error, from string) (*domain.Appointment, error) {
	return s.transitionPick(ctx, apptID, to, guard, &from)
}

// transitionPick is transition with a late-bound "from" status: the guard may
// set *from after inspecting the current row (cancel accepts both pending and
// confirmed). The guarded UPDATE re-checks the status so a concurrent
// transition between read and write loses cleanly.
func (s *SchedulingService) transitionPick(ctx context.Context, apptID, to string, guard func(*domain.Appointment) error, from *string) (*domain.Appointment, error) {
	var out *domain.Appointment
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := repo.GetAppointment(ctx, tx, apptID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAppointmentNotFound
			}
			return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		if err := guard(a); err != nil {
			return err
		}
		if err := repo.UpdateAppointmentStatus(ctx, tx, apptID, *from, to); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidTransition
			}
			return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		a.Status = to
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
