package users

import (
	"context"
	"testing"

	"github.com/NYARANGA-ROB/Smart/internal/models"
)

func TestCreateAndGet(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	p := models.NewUserProfile("uid-1")
	p.Email = "x@example.com"
	p.FirstName = "Amina"
	if err := svc.Create(ctx, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.Get(ctx, "uid-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("expected profile, got nil")
	}
	if got.Language != "en" || got.Role != "farmer" || got.Experience != "beginner" {
		t.Fatalf("registration defaults not applied: %+v", got)
	}
	if !got.Preferences.Notifications.Email || !got.Preferences.Notifications.Push {
		t.Fatalf("notification defaults not applied: %+v", got.Preferences)
	}
	if got.Preferences.Privacy.PublicProfile {
		t.Fatal("profiles must default to private")
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}
}

func TestGet_Missing(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	got, err := svc.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing profile, got %+v", got)
	}
}

func TestUpdate_WhitelistsFields(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	p := models.NewUserProfile("uid-2")
	p.Role = "farmer"
	if err := svc.Create(ctx, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := svc.Update(ctx, "uid-2", map[string]interface{}{
		"firstName": "Kofi",
		"farmSize":  3.5,
		"role":      "admin", // not updatable through the profile endpoint
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := svc.Get(ctx, "uid-2")
	if got.FirstName != "Kofi" {
		t.Fatalf("firstName not updated: %q", got.FirstName)
	}
	if got.FarmSize != 3.5 {
		t.Fatalf("farmSize not updated: %v", got.FarmSize)
	}
	if got.Role != "farmer" {
		t.Fatalf("role must not be client-updatable, got %q", got.Role)
	}
}

func TestTouchLogin(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	p := models.NewUserProfile("uid-3")
	if err := svc.Create(ctx, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.TouchLogin(ctx, "uid-3"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := svc.Get(ctx, "uid-3")
	if got.LastLoginAt == nil {
		t.Fatal("expected lastLoginAt to be stamped")
	}
}
