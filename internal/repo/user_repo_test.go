package repo

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"
)

func TestUpsertUser_CreateThenRefresh(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u, created, err := UpsertUser(ctx, db, 42, "ada", "Ada", "Lovelace")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !created {
		t.Fatalf("first upsert must report created")
	}
	if u.ID != 42 || u.Username != "ada" || !u.IsActive {
		t.Fatalf("unexpected user: %+v", u)
	}

	// Bump a counter, then re-register with a changed profile.
	if err := BumpUserCounter(ctx, db, 42, "events_created"); err != nil {
		t.Fatalf("bump: %v", err)
	}

	u2, created, err := UpsertUser(ctx, db, 42, "ada2", "Ada", "L.")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if created {
		t.Fatalf("second upsert must not report created")
	}
	if u2.Username != "ada2" {
		t.Fatalf("profile not refreshed: %+v", u2)
	}

	// Counters survive re-registration.
	got, err := GetUser(ctx, db, 42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.EventsCreated != 1 {
		t.Fatalf("events_created = %d; want 1", got.EventsCreated)
	}
	if got.Username != "ada2" {
		t.Fatalf("stored username = %q; want ada2", got.Username)
	}
}

func TestGetUser_Missing(t *testing.T) {
	db := newTestDB(t)
	if _, err := GetUser(context.Background(), db, 999); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("err = %v; want ErrRecordNotFound", err)
	}
}

func TestUserExists(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if ok, err := UserExists(ctx, db, 42); err != nil || ok {
		t.Fatalf("exists before insert = %v, err = %v", ok, err)
	}
	_, _, _ = UpsertUser(ctx, db, 42, "ada", "Ada", "")
	if ok, err := UserExists(ctx, db, 42); err != nil || !ok {
		t.Fatalf("exists after insert = %v, err = %v", ok, err)
	}
}

func TestBumpUserCounter_UnknownIdentityNoop(t *testing.T) {
	db := newTestDB(t)
	// No row, no error: the counter is reporting, not enforcement.
	if err := BumpUserCounter(context.Background(), db, 999, "events_deleted"); err != nil {
		t.Fatalf("bump unknown: %v", err)
	}
}
