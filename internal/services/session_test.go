package services

import (
	"testing"

	"timebank-backend/internal/models"
)

func TestSessionRegistryPutGet(t *testing.T) {
	r := NewSessionRegistry()

	if r.Get("u1") != nil {
		t.Fatal("empty registry returned a profile")
	}

	r.Put(&models.Profile{ID: "u1", FullName: "Ana"})
	got := r.Get("u1")
	if got == nil || got.FullName != "Ana" {
		t.Fatalf("got %+v, want Ana", got)
	}

	r.Invalidate("u1")
	if r.Get("u1") != nil {
		t.Fatal("profile survived invalidation")
	}
}

func TestSessionRegistryWatch(t *testing.T) {
	r := NewSessionRegistry()

	var seen []string
	cancel := r.Watch("u1", func(p *models.Profile) {
		seen = append(seen, p.FullName)
	})

	r.Put(&models.Profile{ID: "u1", FullName: "Ana"})
	r.Put(&models.Profile{ID: "u2", FullName: "Bo"}) // other user, no notification
	cancel()
	r.Put(&models.Profile{ID: "u1", FullName: "Ana Maria"})

	if len(seen) != 1 || seen[0] != "Ana" {
		t.Fatalf("watcher saw %v, want [Ana]", seen)
	}
}

func TestSessionRegistryIgnoresEmptyID(t *testing.T) {
	r := NewSessionRegistry()
	r.Put(&models.Profile{})
	r.Put(nil)
	if r.Get("") != nil {
		t.Fatal("profile cached under empty id")
	}
}
