package gateway

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"echocore/pkg/types"
)

// Connection wraps one WebSocket link. Writes are serialized through a
// single writer goroutine; concurrent WriteJSON calls never touch the
// socket directly.
type Connection struct {
	id      uuid.UUID
	conn    *websocket.Conn
	writeCh chan []byte

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	writeTimeout time.Duration

	mu            sync.RWMutex
	userID        int64
	username      string
	token         string // raw credential presented at handshake
	authenticated bool
	lastSeen      time.Time
}

// NewConnection wraps an upgraded socket and starts its writer goroutine.
// The raw token is retained so new-session alerts can exclude the
// originating credential.
func NewConnection(conn *websocket.Conn, token string, bufferSize int, writeTimeout time.Duration) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		id:           uuid.New(),
		conn:         conn,
		writeCh:      make(chan []byte, bufferSize),
		ctx:          ctx,
		cancel:       cancel,
		token:        token,
		writeTimeout: writeTimeout,
		lastSeen:     time.Now(),
	}

	go c.writeLoop()

	return c
}

func (c *Connection) writeLoop() {
	defer func() {
		for len(c.writeCh) > 0 {
			<-c.writeCh
		}
	}()

	for {
		select {
		case data := <-c.writeCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// Send emits one event envelope to this client. Non-blocking up to the
// write buffer; a full buffer or closed connection returns an error and the
// event is dropped (at-most-once delivery).
func (c *Connection) Send(event string, data any) error {
	return c.WriteJSON(types.Envelope{Event: event, Data: data})
}

// WriteJSON marshals v and queues it for the writer goroutine.
func (c *Connection) WriteJSON(v any) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	data, err := json.Marshal(v)
	if err != nil {
		return ErrInvalidJSON
	}

	select {
	case c.writeCh <- data:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		return ErrWriteBufferFull
	}
}

// Bind records the verified identity. Resolved exactly once per connection,
// before any room join is accepted.
func (c *Connection) Bind(userID int64, username string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = userID
	c.username = username
	c.authenticated = true
}

// Close tears down the socket and stops the writer goroutine. Idempotent.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	return err
}

// Touch refreshes the last-seen timestamp on read activity.
func (c *Connection) Touch() {
	c.mu.Lock()
	c.lastSeen = time.Now()
	c.mu.Unlock()
}

func (c *Connection) ID() uuid.UUID { return c.id }

func (c *Connection) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authenticated
}

func (c *Connection) UserID() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

func (c *Connection) Username() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.username
}

// Token returns the raw credential captured at handshake time.
func (c *Connection) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Connection) LastSeen() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSeen
}
