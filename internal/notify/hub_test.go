package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dejobratic/cosrent/internal/notify"
	"github.com/dejobratic/cosrent/internal/rental/domain"
	"github.com/gorilla/websocket"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startHub serves the hub with the actor taken from ?id=&role= query
// parameters.
func startHub(t *testing.T) (*notify.Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := notify.NewHub(discardLogger(), notify.NewNoopMetrics(), nil)
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := domain.Actor{ID: r.URL.Query().Get("id"), Role: domain.Role(r.URL.Query().Get("role"))}
		if err := hub.ServeWS(w, r, actor); err != nil {
			t.Logf("serve ws: %v", err)
		}
	}))
	t.Cleanup(srv.Close)

	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, id string, role domain.Role) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?id=" + id + "&role=" + string(role)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *notify.Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, hub.Clients())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn, wait time.Duration) (notify.Event, error) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(wait))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return notify.Event{}, err
	}
	var event notify.Event
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	return event, nil
}

func TestHubDeliversToAdminsAndOwner(t *testing.T) {
	hub, srv := startHub(t)

	adminConn := dial(t, srv, "admin-1", domain.RoleAdmin)
	ownerConn := dial(t, srv, "cust-1", domain.RoleCustomer)
	otherConn := dial(t, srv, "cust-2", domain.RoleCustomer)
	waitForClients(t, hub, 3)

	bus := notify.NewBus(hub)
	booking := domain.Booking{ID: "bk-1", CustomerID: "cust-1", Status: domain.BookingConfirmed}
	if err := bus.PublishBookingStatusChanged(context.Background(), booking, domain.BookingPending); err != nil {
		t.Fatalf("publish: %v", err)
	}

	for name, conn := range map[string]*websocket.Conn{"admin": adminConn, "owner": ownerConn} {
		event, err := readEvent(t, conn, 2*time.Second)
		if err != nil {
			t.Fatalf("%s: expected event, got %v", name, err)
		}
		if event.Type != notify.EventBookingStatusChanged {
			t.Errorf("%s: expected %s, got %s", name, notify.EventBookingStatusChanged, event.Type)
		}
		if event.PreviousStatus != "PENDING" || event.Booking == nil || event.Booking.ID != "bk-1" {
			t.Errorf("%s: unexpected event %+v", name, event)
		}
	}

	if _, err := readEvent(t, otherConn, 200*time.Millisecond); err == nil {
		t.Error("expected other customer to receive nothing")
	}
}

func TestHubUnregistersClosedClients(t *testing.T) {
	hub, srv := startHub(t)

	conn := dial(t, srv, "admin-1", domain.RoleAdmin)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHubPublishAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := notify.NewHub(discardLogger(), notify.NewNoopMetrics(), nil)

	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	err := hub.Publish(context.Background(), notify.Event{Type: notify.EventBookingCreated})
	if !errors.Is(err, notify.ErrHubStopped) {
		t.Fatalf("expected ErrHubStopped, got %v", err)
	}
}

func TestHubPublishNeverBlocks(t *testing.T) {
	hub := notify.NewHub(discardLogger(), notify.NewNoopMetrics(), nil)

	var err error
	for i := 0; i < 1000 && err == nil; i++ {
		err = hub.Publish(context.Background(), notify.Event{Type: notify.EventPaymentSubmitted})
	}
	if !errors.Is(err, notify.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull once the queue fills, got %v", err)
	}
}
