package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-calendar-backend/internal/domain"
	"github.com/tbourn/go-calendar-backend/internal/repo"
)

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("services_test_%d.db", time.Now().UnixNano()))
	db, err := repo.OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// seedEvent creates an owner's event directly through the repository.
func seedEvent(t *testing.T, db *gorm.DB, owner int64, date, timeStr string) *domain.Event {
	t.Helper()
	ev, err := repo.CreateEvent(context.Background(), db, owner, "Planning", date, timeStr, "quarterly planning")
	if err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return ev
}

func TestCreateInvite_HappyPathDefaultsFromEvent(t *testing.T) {
	db := newServiceDB(t)
	svc := NewSchedulingService(db)
	ctx := context.Background()

	ev := seedEvent(t, db, 1, "2025-06-01", "14:30")

	appt, err := svc.CreateInvite(ctx, 1, 2, ev.ID, "", "", "")
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}
	if appt.Status != domain.StatusPending {
		t.Fatalf("status = %q; want pending", appt.Status)
	}
	// Empty slot and note fall back to the event's own values.
	if appt.Date != "2025-06-01" || appt.Time != "14:30" || appt.Details != "quarterly planning" {
		t.Fatalf("defaults not applied: %+v", appt)
	}
	if appt.EventID != ev.ID || appt.OrganizerID != 1 || appt.ParticipantID != 2 {
		t.Fatalf("unexpected parties: %+v", appt)
	}
}

func TestCreateInvite_SelfInviteRejected(t *testing.T) {
	db := newServiceDB(t)
	svc := NewSchedulingService(db)

	ev := seedEvent(t, db, 1, "2025-06-01", "14:30")
	if _, err := svc.CreateInvite(context.Background(), 1, 1, ev.ID, "", "", ""); !errors.Is(err, ErrSelfInvite) {
		t.Fatalf("err = %v; want ErrSelfInvite", err)
	}
}

func TestCreateInvite_ForeignEventLooksMissing(t *testing.T) {
	db := newServiceDB(t)
	svc := NewSchedulingService(db)
	ctx := context.Background()

	ev := seedEvent(t, db, 1, "2025-06-01", "14:30")

	// Identity 3 does not own the event; the error reads like "not found".
	if _, err := svc.CreateInvite(ctx, 3, 2, ev.ID, "", "", ""); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("err = %v; want ErrNotOwner", err)
	}
	// A made-up event id behaves identically.
	if _, err := svc.CreateInvite(ctx, 1, 2, "33333333-3333-3333-3333-333333333333", "", "", ""); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("missing event err = %v; want ErrNotOwner", err)
	}
}

func TestCreateInvite_BusySlotBlocksSecondInvite(t *testing.T) {
	db := newServiceDB(t)
	svc := NewSchedulingService(db)
	ctx := context.Background()

	ev1 := seedEvent(t, db, 1, "2025-06-01", "14:30")
	ev3 := seedEvent(t, db, 3, "2025-06-01", "14:30")

	if _, err := svc.CreateInvite(ctx, 1, 2, ev1.ID, "", "", ""); err != nil {
		t.Fatalf("first invite: %v", err)
	}

	// A different organizer proposing the same slot to the same participant
	// is refused, and nothing is written.
	before, _ := repo.CountAppointments(ctx, db)
	if _, err := svc.CreateInvite(ctx, 3, 2, ev3.ID, "", "", ""); !errors.Is(err, ErrBusy) {
		t.Fatalf("err = %v; want ErrBusy", err)
	}
	after, _ := repo.CountAppointments(ctx, db)
	if before != after {
		t.Fatalf("busy refusal must not create rows: %d -> %d", before, after)
	}

	// Another time is fine.
	if _, err := svc.CreateInvite(ctx, 3, 2, ev3.ID, "2025-06-01", "16:00", ""); err != nil {
		t.Fatalf("free slot invite: %v", err)
	}
}

func TestCreateInvite_OrganizerRoleOccupiesSlot(t *testing.T) {
	db := newServiceDB(t)
	svc := NewSchedulingService(db)
	ctx := context.Background()

	// Identity 2 organizes a pending appointment at the slot.
	ev2 := seedEvent(t, db, 2, "2025-06-01", "14:30")
	if _, err := svc.CreateInvite(ctx, 2, 4, ev2.ID, "", "", ""); err != nil {
		t.Fatalf("invite: %v", err)
	}

	// Inviting 2 at the same slot fails: organizing counts as busy too.
	ev3 := seedEvent(t, db, 3, "2025-06-01", "14:30")
	if _, err := svc.CreateInvite(ctx, 3, 2, ev3.ID, "", "", ""); !errors.Is(err, ErrBusy) {
		t.Fatalf("err = %v; want ErrBusy", err)
	}
}

func TestRespond_ConfirmAndDecline(t *testing.T) {
	db := newServiceDB(t)
	svc := NewSchedulingService(db)
	ctx := context.Background()

	ev := seedEvent(t, db, 1, "2025-06-01", "14:30")
	appt, _ := svc.CreateInvite(ctx, 1, 2, ev.ID, "", "", "")

	got, err := svc.Respond(ctx, appt.ID, 2, DecisionConfirm)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got.Status != domain.StatusConfirmed {
		t.Fatalf("status = %q; want confirmed", got.Status)
	}

	// Decline path on a fresh appointment.
	ev2 := seedEvent(t, db, 1, "2025-06-02", "10:00")
	appt2, _ := svc.CreateInvite(ctx, 1, 2, ev2.ID, "", "", "")
	got2, err := svc.Respond(ctx, appt2.ID, 2, DecisionDecline)
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if got2.Status != domain.StatusDeclined {
		t.Fatalf("status = %q; want declined", got2.Status)
	}

	// Declining frees the slot for a new invite.
	ev3 := seedEvent(t, db, 3, "2025-06-02", "10:00")
	if _, err := svc.CreateInvite(ctx, 3, 2, ev3.ID, "", "", ""); err != nil {
		t.Fatalf("slot not freed after decline: %v", err)
	}
}

func TestRespond_OnlyParticipantMayAnswer(t *testing.T) {
	db := newServiceDB(t)
	svc := NewSchedulingService(db)
	ctx := context.Background()

	ev := seedEvent(t, db, 1, "2025-06-01", "14:30")
	appt, _ := svc.CreateInvite(ctx, 1, 2, ev.ID, "", "", "")

	// Neither the organizer nor a stranger may decide.
	for _, id := range []int64{1, 9} {
		if _, err := svc.Respond(ctx, appt.ID, id, DecisionConfirm); !errors.Is(err, ErrNotParticipant) {
			t.Fatalf("identity %d: err = %v; want ErrNotParticipant", id, err)
		}
	}

	// The stored status never moved.
	got, _ := svc.Get(ctx, appt.ID)
	if got.Status != domain.StatusPending {
		t.Fatalf("status = %q; want pending", got.Status)
	}
}

func TestRespond_DoublePressAbsorbed(t *testing.T) {
	db := newServiceDB(t)
	svc := NewSchedulingService(db)
	ctx := context.Background()

	ev := seedEvent(t, db, 1, "2025-06-01", "14:30")
	appt, _ := svc.CreateInvite(ctx, 1, 2, ev.ID, "", "", "")

	if _, err := svc.Respond(ctx, appt.ID, 2, DecisionConfirm); err != nil {
		t.Fatalf("first press: %v", err)
	}
	// Second press, either button: invalid transition, status untouched.
	if _, err := svc.Respond(ctx, appt.ID, 2, DecisionDecline); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v; want ErrInvalidTransition", err)
	}
	got, _ := svc.Get(ctx, appt.ID)
	if got.Status != domain.StatusConfirmed {
		t.Fatalf("status = %q; want confirmed", got.Status)
	}
}

func TestCancel_EitherPartyFromPendingOrConfirmed(t *testing.T) {
	db := newServiceDB(t)
	svc := NewSchedulingService(db)
	ctx := context.Background()

	// Organizer cancels a pending appointment.
	ev := seedEvent(t, db, 1, "2025-06-01", "14:30")
	appt, _ := svc.CreateInvite(ctx, 1, 2, ev.ID, "", "", "")
	got, err := svc.Cancel(ctx, appt.ID, 1)
	if err != nil || got.Status != domain.StatusCancelled {
		t.Fatalf("organizer cancel: %v (%+v)", err, got)
	}

	// Participant cancels a confirmed appointment.
	ev2 := seedEvent(t, db, 1, "2025-06-02", "10:00")
	appt2, _ := svc.CreateInvite(ctx, 1, 2, ev2.ID, "", "", "")
	if _, err := svc.Respond(ctx, appt2.ID, 2, DecisionConfirm); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := svc.Cancel(ctx, appt2.ID, 2); err != nil {
		t.Fatalf("participant cancel: %v", err)
	}

	// The slot is free again.
	free, err := svc.IsFree(ctx, 2, "2025-06-02", "10:00")
	if err != nil || !free {
		t.Fatalf("slot still busy after cancel: free=%v err=%v", free, err)
	}
}

func TestCancel_StrangerAndTerminalRejected(t *testing.T) {
	db := newServiceDB(t)
	svc := NewSchedulingService(db)
	ctx := context.Background()

	ev := seedEvent(t, db, 1, "2025-06-01", "14:30")
	appt, _ := svc.CreateInvite(ctx, 1, 2, ev.ID, "", "", "")

	if _, err := svc.Cancel(ctx, appt.ID, 9); !errors.Is(err, ErrNotParty) {
		t.Fatalf("stranger cancel err = %v; want ErrNotParty", err)
	}

	if _, err := svc.Cancel(ctx, appt.ID, 1); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	// Cancelling an already-cancelled appointment is an invalid transition.
	if _, err := svc.Cancel(ctx, appt.ID, 1); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("double cancel err = %v; want ErrInvalidTransition", err)
	}
}

func TestScheduling_GetAndList(t *testing.T) {
	db := newServiceDB(t)
	svc := NewSchedulingService(db)
	ctx := context.Background()

	if _, err := svc.Get(ctx, "44444444-4444-4444-4444-444444444444"); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("missing get err = %v; want ErrAppointmentNotFound", err)
	}

	ev := seedEvent(t, db, 1, "2025-06-01", "14:30")
	appt, _ := svc.CreateInvite(ctx, 1, 2, ev.ID, "", "", "")

	for _, id := range []int64{1, 2} {
		list, err := svc.ListForIdentity(ctx, id)
		if err != nil || len(list) != 1 || list[0].ID != appt.ID {
			t.Fatalf("identity %d: list = %+v, err = %v", id, list, err)
		}
	}
	if list, _ := svc.ListForIdentity(ctx, 9); len(list) != 0 {
		t.Fatalf("stranger list should be empty, got %+v", list)
	}
}
