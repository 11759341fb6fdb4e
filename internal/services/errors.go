// Package services defines the business logic for events, scheduling, and
// activity statistics. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer; the bot
// dispatcher and HTTP handlers translate them into user-facing messages.
// None of them should crash the process: every one is a recoverable, local
// condition except ErrStorageUnavailable, which signals that the underlying
// store could not be reached and the caller may retry.
package services

import "errors"

// Event-related errors.
var (
	// ErrEventNotFound indicates that the requested event does not exist or
	// belongs to another owner. The two cases are deliberately not
	// distinguishable, so nothing leaks about foreign events.
	ErrEventNotFound = errors.New("event not found")

	// ErrInvalidDate is returned when a date is not in the 2006-01-02 layout.
	ErrInvalidDate = errors.New("date must look like 2025-11-03")

	// ErrInvalidTime is returned when a time is not in the 15:04 layout.
	ErrInvalidTime = errors.New("time must look like 14:30")

	// ErrEmptyTitle is returned when an event is created without a title.
	ErrEmptyTitle = errors.New("title is empty")
)

// Scheduling errors.
var (
	// ErrBusy indicates the participant already holds a pending or confirmed
	// appointment at exactly that date and time. No record is created.
	ErrBusy = errors.New("participant is busy at that time")

	// ErrNotOwner is returned when an organizer tries to anchor an invite to
	// an event they do not own.
	ErrNotOwner = errors.New("event not found")

	// ErrNotParticipant is returned when someone other than the invited
	// participant tries to respond to an appointment.
	ErrNotParticipant = errors.New("not a participant of this appointment")

	// ErrNotParty is returned when a cancel request comes from an identity
	// that is neither organizer nor participant.
	ErrNotParty = errors.New("not a party to this appointment")

	// ErrInvalidTransition is returned when the appointment's current status
	// does not admit the requested transition (already decided, already
	// terminal). The stored status is left unchanged.
	ErrInvalidTransition = errors.New("appointment already decided")

	// ErrSelfInvite is returned when organizer and participant are the same
	// identity.
	ErrSelfInvite = errors.New("cannot invite yourself")

	// ErrAppointmentNotFound indicates the appointment id does not exist.
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// ErrStorageUnavailable wraps storage-layer failures so callers can surface a
// maintenance message or retry instead of silently losing dialog state.
var ErrStorageUnavailable = errors.New("storage unavailable")
