package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"timebank-backend/internal/models"
)

func TestToggleIDAddsAndRemoves(t *testing.T) {
	start := []string{"u1", "u2"}

	added := ToggleID(start, "u3")
	if !reflect.DeepEqual(added, []string{"u1", "u2", "u3"}) {
		t.Fatalf("add: got %v", added)
	}

	removed := ToggleID(added, "u3")
	if !reflect.DeepEqual(removed, start) {
		t.Fatalf("double toggle did not restore input: got %v, want %v", removed, start)
	}
}

func TestToggleIDRemovesFromMiddle(t *testing.T) {
	got := ToggleID([]string{"u1", "u2", "u3"}, "u2")
	if !reflect.DeepEqual(got, []string{"u1", "u3"}) {
		t.Fatalf("got %v, want [u1 u3]", got)
	}
}

func TestToggleIDEmptyList(t *testing.T) {
	got := ToggleID(nil, "u1")
	if !reflect.DeepEqual(got, []string{"u1"}) {
		t.Fatalf("got %v, want [u1]", got)
	}
}

func TestToggleFavoritePreconditions(t *testing.T) {
	// The identity checks run before any repository access, so a service
	// without a backing store is enough to exercise them.
	s := NewProfileService(nil, NewSessionRegistry(), nil)

	tests := []struct {
		name     string
		userID   string
		targetID string
	}{
		{"missing user", "", "u2"},
		{"missing target", "u1", ""},
		{"both missing", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ToggleFavorite(context.Background(), tt.userID, tt.targetID)
			if !errors.Is(err, ErrInvalidReference) {
				t.Fatalf("got %v, want ErrInvalidReference", err)
			}
		})
	}
}

func TestToggleFavoriteSelf(t *testing.T) {
	s := NewProfileService(nil, NewSessionRegistry(), nil)

	_, err := s.ToggleFavorite(context.Background(), "u1", "u1")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}

func TestCachePhotoURL(t *testing.T) {
	reg := NewSessionRegistry()
	s := NewProfileService(nil, reg, nil)

	reg.Put(&models.Profile{ID: "u1", Email: "ana@example.com", FullName: "Ana"})
	s.cachePhotoURL("u1", "https://cdn.example.com/profiles/u1/p1.jpg")

	cached := reg.Get("u1")
	if cached == nil || cached.PhotoURL == nil {
		t.Fatal("cached profile missing photo url after confirmation")
	}
	if *cached.PhotoURL != "https://cdn.example.com/profiles/u1/p1.jpg" {
		t.Fatalf("cached photo url: got %q", *cached.PhotoURL)
	}
	if cached.FullName != "Ana" {
		t.Fatalf("unrelated field changed: got %q", cached.FullName)
	}

	// no cached session, nothing to update
	s.cachePhotoURL("u2", "https://cdn.example.com/profiles/u2/p1.jpg")
	if reg.Get("u2") != nil {
		t.Fatal("cache entry created for unknown user")
	}
}
