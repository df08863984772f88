package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/dejobratic/cosrent/internal/rental/domain"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
	queueSize      = 256
)

var (
	// ErrHubStopped is returned by Publish after Run has returned.
	ErrHubStopped = errors.New("notify hub stopped")
	// ErrQueueFull is returned when the hub is not draining fast enough.
	ErrQueueFull = errors.New("notify queue full")
)

type client struct {
	actor domain.Actor
	conn  *websocket.Conn
	send  chan []byte
}

// Hub fans events out to websocket subscribers. The client registry is
// owned by the Run goroutine.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan Event
	done       chan struct{}
	stopped    atomic.Bool
	clients    atomic.Int64

	upgrader websocket.Upgrader
	logger   *slog.Logger
	metrics  *Metrics
}

// NewHub builds a hub. checkOrigin may be nil to accept every origin.
func NewHub(logger *slog.Logger, metrics *Metrics, checkOrigin func(r *http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Event, queueSize),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// Run delivers events until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	clients := make(map[*client]struct{})

	defer func() {
		h.stopped.Store(true)
		close(h.done)
		for c := range clients {
			h.drop(ctx, clients, c, false)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			clients[c] = struct{}{}
			h.clients.Add(1)
			h.metrics.clientConnected(ctx, c.actor.IsAdmin())
		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				h.drop(ctx, clients, c, false)
			}
		case event := <-h.broadcast:
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.ErrorContext(ctx, "failed to encode event", "event_type", event.Type, "error", err)
				continue
			}
			for c := range clients {
				if !event.visibleTo(c.actor) {
					continue
				}
				select {
				case c.send <- payload:
				default:
					h.logger.WarnContext(ctx, "dropping slow websocket client", "actor_id", c.actor.ID)
					h.drop(ctx, clients, c, true)
				}
			}
		}
	}
}

func (h *Hub) drop(ctx context.Context, clients map[*client]struct{}, c *client, slow bool) {
	delete(clients, c)
	close(c.send)
	h.clients.Add(-1)
	h.metrics.clientDisconnected(ctx, c.actor.IsAdmin(), slow)
}

// Publish queues event for delivery without waiting on clients.
func (h *Hub) Publish(ctx context.Context, event Event) error {
	if h.stopped.Load() {
		return ErrHubStopped
	}
	select {
	case h.broadcast <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Clients reports the number of connected subscribers.
func (h *Hub) Clients() int {
	return int(h.clients.Load())
}

// ServeWS upgrades the request and subscribes actor to the events it may
// see. It returns once the connection is registered.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, actor domain.Actor) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("upgrade websocket: %w", err)
	}

	c := &client{actor: actor, conn: conn, send: make(chan []byte, sendBuffer)}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return ErrHubStopped
	}

	go h.writePump(c)
	go h.readPump(c)
	return nil
}

// readPump discards inbound frames and keeps the read deadline fresh.
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read failed", "actor_id", c.actor.ID, "error", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
