package memory

import (
	"context"
	"testing"
	"time"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
)

type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time { return c.now }

func TestStoreHandsOutCopies(t *testing.T) {
	store := New(time.Hour, nil, nil)
	ctx := context.Background()
	session := &domain.Session{ID: "s1", Stage: domain.StageUploaded, Image: []byte("img")}
	if err := store.Create(ctx, session); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	session.Image[0] = 'X'

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got.Image) != "img" {
		t.Fatalf("store must keep its own copy, got %q", got.Image)
	}
	got.Stage = domain.StageReviewed
	again, _ := store.Get(ctx, "s1")
	if again.Stage != domain.StageUploaded {
		t.Fatalf("mutating a returned session must not change the store")
	}
}

func TestStoreExpiresIdleSessions(t *testing.T) {
	clock := &manualClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := New(30*time.Minute, clock, nil)
	ctx := context.Background()
	_ = store.Create(ctx, &domain.Session{ID: "a"})
	_ = store.Create(ctx, &domain.Session{ID: "b"})

	clock.now = clock.now.Add(20 * time.Minute)
	if _, err := store.Get(ctx, "a"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	clock.now = clock.now.Add(20 * time.Minute)
	if _, err := store.Get(ctx, "b"); !domain.IsKind(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected b expired, got %v", err)
	}
	if _, err := store.Get(ctx, "a"); err != nil {
		t.Fatalf("access must extend the TTL, got %v", err)
	}

	clock.now = clock.now.Add(time.Hour)
	if removed := store.Sweep(); removed != 1 || store.Len() != 0 {
		t.Fatalf("expected sweep to remove a, removed=%d len=%d", removed, store.Len())
	}
}

func TestStoreUpdateAndDeleteUnknown(t *testing.T) {
	store := New(0, nil, nil)
	ctx := context.Background()
	if err := store.Update(ctx, &domain.Session{ID: "x"}); !domain.IsKind(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found on update, got %v", err)
	}
	if err := store.Delete(ctx, "x"); !domain.IsKind(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found on delete, got %v", err)
	}
	if err := store.Create(ctx, &domain.Session{}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty id, got %v", err)
	}
}
