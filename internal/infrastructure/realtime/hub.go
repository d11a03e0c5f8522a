package realtime

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/solarops/dispatch/internal/domain"
	"github.com/solarops/dispatch/internal/infrastructure/logger"
)

// Opcodes from RFC 6455, matching websocket.TextMessage and websocket.PingMessage.
const (
	textMessage = 1
	pingMessage = 9
)

const (
	defaultSendBuffer = 32
	writeWait         = 10 * time.Second
)

// Conn is the write side of a live websocket connection.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Client is one registered connection with its own outbound queue.
type Client struct {
	ID   string
	conn Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
	done   chan struct{}
}

// enqueue never blocks. It reports false when the queue is full or closed.
func (c *Client) enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Hub is the registry of live connections. Broadcast snapshots the registry
// and hands each client a copy of the frame; slow or dead clients miss it.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]*Client
	sendBuffer   int
	pingInterval time.Duration
	logger       *logger.Logger

	delivered atomic.Int64
	dropped   atomic.Int64
}

type Option func(*Hub)

// WithPingInterval makes every writer ping its peer at the given period.
// Zero disables keepalive pings.
func WithPingInterval(d time.Duration) Option {
	return func(h *Hub) { h.pingInterval = d }
}

func NewHub(sendBuffer int, log *logger.Logger, opts ...Option) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBuffer
	}
	h := &Hub{
		clients:    make(map[string]*Client),
		sendBuffer: sendBuffer,
		logger:     log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds conn to the registry and starts its writer goroutine.
func (h *Hub) Register(conn Conn) *Client {
	client := &Client{
		ID:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, h.sendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[client.ID] = client
	total := len(h.clients)
	h.mu.Unlock()

	go h.writeLoop(client)
	h.logger.Infow("realtime_client_registered", "client_id", client.ID, "clients", total)
	return client
}

// Unregister removes the client, closes its queue and waits for the writer
// to exit. Safe to call more than once.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client.ID]
	delete(h.clients, client.ID)
	total := len(h.clients)
	h.mu.Unlock()

	client.close()
	<-client.done
	if ok {
		h.logger.Infow("realtime_client_unregistered", "client_id", client.ID, "clients", total)
	}
}

// writeLoop is the only writer for data frames and pings on a connection.
func (h *Hub) writeLoop(client *Client) {
	defer close(client.done)

	var tick <-chan time.Time
	if h.pingInterval > 0 {
		ticker := time.NewTicker(h.pingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	failed := false
	fail := func(err error) {
		// Closing the connection ends the reader, which unregisters us.
		failed = true
		h.logger.Debugw("realtime_write_failed", "client_id", client.ID, "error", err)
		_ = client.conn.Close()
	}

	for {
		select {
		case frame, ok := <-client.send:
			if !ok {
				return
			}
			if failed {
				continue
			}
			if err := client.conn.WriteMessage(textMessage, frame); err != nil {
				fail(err)
			}
		case <-tick:
			if failed {
				continue
			}
			if err := client.conn.WriteControl(pingMessage, nil, time.Now().Add(writeWait)); err != nil {
				fail(err)
			}
		}
	}
}

// Broadcast implements ports.Broadcaster.
func (h *Hub) Broadcast(event domain.Event) {
	frame, err := json.Marshal(event)
	if err != nil {
		h.logger.Errorw("realtime_encode_failed", "type", event.Type, "error", err)
		return
	}

	h.mu.RLock()
	snapshot := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range snapshot {
		if c.enqueue(frame) {
			sent++
			continue
		}
		h.dropped.Add(1)
		h.logger.Debugw("realtime_frame_dropped", "client_id", c.ID, "type", event.Type)
	}
	h.delivered.Add(int64(sent))
	h.logger.Debugw("realtime_broadcast", "type", event.Type, "clients", len(snapshot), "sent", sent)
}

// Count returns the number of registered clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

type Stats struct {
	Clients   int   `json:"clients"`
	Delivered int64 `json:"delivered"`
	Dropped   int64 `json:"dropped"`
}

func (h *Hub) Stats() Stats {
	return Stats{Clients: h.Count(), Delivered: h.delivered.Load(), Dropped: h.dropped.Load()}
}

// Shutdown closes every connection and drains the registry.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	snapshot := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.RUnlock()

	for _, c := range snapshot {
		_ = c.conn.Close()
		h.Unregister(c)
	}
}
