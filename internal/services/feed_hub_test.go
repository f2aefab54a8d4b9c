package services

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// newTestConn upgrades a loopback connection and returns the server
// side, which is what the hub writes to. The client side drains reads
// so server writes never block.
func newTestConn(t *testing.T) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	ready := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ready <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	go func() {
		for {
			if _, _, err := client.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return <-ready
}

func TestBroadcastConcurrentWriters(t *testing.T) {
	// Snapshots for one user arrive from many mutation goroutines at
	// once; writes to the connection must be serialized.
	hub := NewFeedHub()
	hub.Register("u1", newTestConn(t))
	hub.Subscribe("u1", "profiles")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				hub.Broadcast("profiles", []string{"snapshot"}, 1)
			}
		}()
	}
	wg.Wait()

	if !hub.IsOnline("u1") {
		t.Fatal("connection dropped during concurrent broadcasts")
	}
}

func TestRegisterReplacesConnection(t *testing.T) {
	hub := NewFeedHub()
	first := newTestConn(t)
	second := newTestConn(t)

	hub.Register("u1", first)
	hub.Register("u1", second)

	// teardown of the replaced connection must not evict its successor
	hub.UnregisterConn("u1", first)
	if !hub.IsOnline("u1") {
		t.Fatal("successor connection evicted by predecessor teardown")
	}

	hub.UnregisterConn("u1", second)
	if hub.IsOnline("u1") {
		t.Fatal("still registered after unregister")
	}
}

func TestSendToUserOffline(t *testing.T) {
	hub := NewFeedHub()
	if err := hub.SendToUser("ghost", FeedMessage{Type: "snapshot"}); err == nil {
		t.Fatal("expected error for offline user")
	}
}
