package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestPublishStoresWithoutConnections(t *testing.T) {
	hub := NewHub(NewInMemory())

	n, err := hub.Publish(context.Background(), "user-1", TypeTicket, "Ticket updated", "Support replied")
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if n.Read {
		t.Fatal("new notification marked read")
	}

	latest, err := hub.Latest(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(latest) != 1 || latest[0].Title != "Ticket updated" {
		t.Fatalf("latest = %+v, want the stored notification", latest)
	}
}

func TestPublishReachesLiveSocket(t *testing.T) {
	hub := NewHub(NewInMemory())
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		hub.Attach("user-1", conn)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Wait for the server side to register the connection.
	deadline := time.Now().Add(2 * time.Second)
	for hub.Connections("user-1") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection never attached")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if _, err := hub.Publish(context.Background(), "user-1", TypePayment, "Payment received", "Invoice 12 paid"); err != nil {
		t.Fatalf("publish: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Notification
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Title != "Payment received" || got.Type != TypePayment {
		t.Fatalf("got %+v, want the published notification", got)
	}
}

// Two handlers notifying the same user at once must not interleave frames
// on the shared socket.
func TestConcurrentPublishToOneSocket(t *testing.T) {
	hub := NewHub(NewInMemory())
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		hub.Attach("user-1", conn)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Connections("user-1") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection never attached")
		}
		time.Sleep(10 * time.Millisecond)
	}

	const publishers = 64
	var wg sync.WaitGroup
	for i := 0; i < publishers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := hub.Publish(context.Background(), "user-1", TypeInfo, fmt.Sprintf("n%d", i), ""); err != nil {
				t.Errorf("publish %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for len(seen) < publishers {
		var got Notification
		if err := conn.ReadJSON(&got); err != nil {
			t.Fatalf("read after %d frames: %v", len(seen), err)
		}
		if seen[got.Title] {
			t.Fatalf("frame %q delivered twice", got.Title)
		}
		seen[got.Title] = true
	}

	if hub.Connections("user-1") != 1 {
		t.Fatalf("connections = %d, want the socket still attached", hub.Connections("user-1"))
	}
}

func TestLatestCapsAtTwenty(t *testing.T) {
	hub := NewHub(NewInMemory())
	for i := 0; i < 25; i++ {
		if _, err := hub.Publish(context.Background(), "user-1", TypeInfo, fmt.Sprintf("n%d", i), ""); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
	latest, err := hub.Latest(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(latest) != 20 {
		t.Fatalf("latest = %d notifications, want 20", len(latest))
	}
}

func TestMarkReadChecksOwnership(t *testing.T) {
	hub := NewHub(NewInMemory())
	n, err := hub.Publish(context.Background(), "user-1", TypeInfo, "hello", "")
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := hub.MarkRead(context.Background(), n.ID, "user-2"); err != ErrNotFound {
		t.Fatalf("foreign mark read: err = %v, want ErrNotFound", err)
	}
	if err := hub.MarkRead(context.Background(), n.ID, "user-1"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	latest, _ := hub.Latest(context.Background(), "user-1")
	if !latest[0].Read {
		t.Fatal("notification still unread after MarkRead")
	}
}
