package httpapi

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"softwarepar.lat/internal/notify"
)

func TestNotificationList(t *testing.T) {
	api := newTestAPI(t)
	token, user := api.register("cliente@example.com", "Cliente Uno")

	ctx := context.Background()
	if _, err := api.hub.Publish(ctx, user.ID, notify.TypeInfo, "Bienvenido", "Gracias por registrarte."); err != nil {
		t.Fatalf("publish: %v", err)
	}

	resp := api.do(http.MethodGet, "/api/notifications", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	notes := decodeBody[[]*notify.Notification](t, resp)
	if len(notes) != 1 || notes[0].Read {
		t.Fatalf("notes = %+v, want one unread", notes)
	}

	resp = api.do(http.MethodPut, "/api/notifications/"+notes[0].ID+"/read", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mark read status = %d", resp.StatusCode)
	}

	resp = api.do(http.MethodGet, "/api/notifications", token, nil)
	notes = decodeBody[[]*notify.Notification](t, resp)
	if !notes[0].Read {
		t.Fatal("expected the note to be read")
	}
}

func TestNotificationReadAll(t *testing.T) {
	api := newTestAPI(t)
	token, user := api.register("cliente@example.com", "Cliente Uno")

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := api.hub.Publish(ctx, user.ID, notify.TypeInfo, "Aviso", "Contenido."); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	resp := api.do(http.MethodPut, "/api/notifications/read-all", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("read-all status = %d", resp.StatusCode)
	}

	resp = api.do(http.MethodGet, "/api/notifications", token, nil)
	notes := decodeBody[[]*notify.Notification](t, resp)
	for _, n := range notes {
		if !n.Read {
			t.Fatalf("note %s still unread", n.ID)
		}
	}
}

func TestNotificationForeignMarkRead(t *testing.T) {
	api := newTestAPI(t)
	_, owner := api.register("owner@example.com", "Owner")
	otherToken, _ := api.register("other@example.com", "Other")

	note, err := api.hub.Publish(context.Background(), owner.ID, notify.TypeInfo, "Privado", "Solo para owner.")
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	resp := api.do(http.MethodPut, "/api/notifications/"+note.ID+"/read", otherToken, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestWebsocketDeliversNotifications(t *testing.T) {
	api := newTestAPI(t)
	token, user := api.register("cliente@example.com", "Cliente Uno")

	wsURL := "ws" + api.baseURL[len("http"):] + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The read pump registers asynchronously.
	deadline := time.Now().Add(2 * time.Second)
	for api.hub.Connections(user.ID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("socket never attached")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := api.hub.Publish(context.Background(), user.ID, notify.TypeTicket, "Ticket actualizado", "Tu ticket fue respondido."); err != nil {
		t.Fatalf("publish: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got notify.Notification
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Title != "Ticket actualizado" || got.Type != notify.TypeTicket {
		t.Fatalf("got %+v", got)
	}
}

func TestWebsocketRejectsBadToken(t *testing.T) {
	api := newTestAPI(t)
	wsURL := "ws" + api.baseURL[len("http"):] + "/ws?token=not-a-token"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("expected the dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("resp = %+v, want 401", resp)
	}
}
