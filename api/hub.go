package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/matt-g-everett/ledtimeline/timeline"
)

// Hub fans snapshots out to websocket clients and turns their messages into
// commands.
type Hub struct {
	upgrader  websocket.Upgrader
	execute   func(context.Context, Command) (timeline.Snapshot, error)
	clients   map[*websocket.Conn]bool
	register  chan *websocket.Conn
	remove    chan *websocket.Conn
	broadcast chan []byte
	done      chan struct{}
	latest    []byte
}

// NewHub creates a Hub that runs client commands through execute.
func NewHub(execute func(context.Context, Command) (timeline.Snapshot, error)) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		execute:   execute,
		clients:   make(map[*websocket.Conn]bool),
		register:  make(chan *websocket.Conn),
		remove:    make(chan *websocket.Conn),
		broadcast: make(chan []byte, 16),
		done:      make(chan struct{}),
	}
}

// Run delivers broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for conn := range h.clients {
				conn.Close()
			}
			h.clients = make(map[*websocket.Conn]bool)
			return
		case conn := <-h.register:
			h.clients[conn] = true
			if h.latest != nil {
				h.send(conn, h.latest)
			}
		case conn := <-h.remove:
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
		case msg := <-h.broadcast:
			h.latest = msg
			for conn := range h.clients {
				h.send(conn, msg)
			}
		}
	}
}

func (h *Hub) send(conn *websocket.Conn, msg []byte) {
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		slog.Warn("failed to send to websocket client", "remote", conn.RemoteAddr(), "error", err)
		delete(h.clients, conn)
		conn.Close()
	}
}

// Broadcast queues snap for every client. It never blocks: when clients fall
// behind the snapshot is dropped.
func (h *Hub) Broadcast(snap timeline.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		slog.Error("failed to marshal snapshot", "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		slog.Debug("dropping snapshot for slow websocket clients")
	}
}

func (h *Hub) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
		return
	}

	go h.read(conn)
}

// read executes commands from conn until it closes. Replies go out as
// broadcasts so that writes stay on the Run goroutine.
func (h *Hub) read(conn *websocket.Conn) {
	defer func() {
		select {
		case h.remove <- conn:
		case <-h.done:
			conn.Close()
		}
	}()
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket error", "error", err)
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			slog.Debug("ignoring malformed websocket command", "error", err)
			continue
		}
		snap, err := h.execute(context.Background(), cmd)
		if err != nil {
			slog.Debug("websocket command failed", "op", cmd.Op, "error", err)
			continue
		}
		h.Broadcast(snap)
	}
}
