package gateway

import (
	"sync"

	"github.com/google/uuid"

	"echocore/pkg/types"
)

// Registry tracks live connections, per-user connection counts and room
// membership. Rooms are ephemeral: a room exists exactly as long as it has
// members. Membership edges are held both ways (room -> conns and
// conn -> rooms) so disconnect cleanup is O(rooms joined).
type Registry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]*Connection
	users map[int64]map[uuid.UUID]*Connection
	rooms map[string]map[uuid.UUID]*Connection
	joined map[uuid.UUID]map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[uuid.UUID]*Connection),
		users:  make(map[int64]map[uuid.UUID]*Connection),
		rooms:  make(map[string]map[uuid.UUID]*Connection),
		joined: make(map[uuid.UUID]map[string]struct{}),
	}
}

// Add tracks a connection from transport handshake time, before
// authentication resolves.
func (r *Registry) Add(conn *Connection) error {
	if conn == nil {
		return ErrNilConnection
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[conn.ID()]; exists {
		return ErrAlreadyRegistered
	}
	r.conns[conn.ID()] = conn
	return nil
}

// Associate links an authenticated connection to its user and reports
// whether it is the user's first open connection. Multiple simultaneous
// connections per user (tabs, devices) are expected.
func (r *Registry) Associate(conn *Connection) (first bool, err error) {
	if conn == nil {
		return false, ErrNilConnection
	}
	if !conn.IsAuthenticated() {
		return false, ErrNotAuthenticated
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	userID := conn.UserID()
	set, exists := r.users[userID]
	if !exists {
		set = make(map[uuid.UUID]*Connection)
		r.users[userID] = set
	}
	first = len(set) == 0
	set[conn.ID()] = conn
	return first, nil
}

// Remove drops a connection from every map. Returns the bound user ID and
// whether this was the user's last open connection; last is meaningful only
// when the connection had authenticated. Idempotent.
func (r *Registry) Remove(conn *Connection) (userID int64, authed bool, last bool) {
	if conn == nil {
		return 0, false, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	connID := conn.ID()
	if _, exists := r.conns[connID]; !exists {
		return 0, false, false
	}
	delete(r.conns, connID)

	for room := range r.joined[connID] {
		if members, ok := r.rooms[room]; ok {
			delete(members, connID)
			if len(members) == 0 {
				delete(r.rooms, room)
			}
		}
	}
	delete(r.joined, connID)

	if !conn.IsAuthenticated() {
		return 0, false, false
	}

	userID = conn.UserID()
	if set, ok := r.users[userID]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.users, userID)
			last = true
		}
	}
	return userID, true, last
}

// JoinRoom adds a connection to a room. Joining a room the connection is
// already in is a no-op. Unauthenticated connections may not join rooms.
func (r *Registry) JoinRoom(conn *Connection, room string) error {
	if conn == nil {
		return ErrNilConnection
	}
	if !conn.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	if !types.IsValidRoomName(room) {
		return ErrInvalidRoomName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	connID := conn.ID()
	if _, tracked := r.conns[connID]; !tracked {
		return ErrConnectionClosed
	}

	members, exists := r.rooms[room]
	if !exists {
		members = make(map[uuid.UUID]*Connection)
		r.rooms[room] = members
	}
	members[connID] = conn

	set, exists := r.joined[connID]
	if !exists {
		set = make(map[string]struct{})
		r.joined[connID] = set
	}
	set[room] = struct{}{}
	return nil
}

// LeaveRoom removes a connection from a room. Leaving a room the connection
// is not in is a no-op.
func (r *Registry) LeaveRoom(conn *Connection, room string) {
	if conn == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	connID := conn.ID()
	if members, ok := r.rooms[room]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	if set, ok := r.joined[connID]; ok {
		delete(set, room)
	}
}

// RoomConnections returns the current members of a room. An unknown room
// yields an empty slice.
func (r *Registry) RoomConnections(room string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[room]
	conns := make([]*Connection, 0, len(members))
	for _, conn := range members {
		conns = append(conns, conn)
	}
	return conns
}

// AllConnections returns every tracked connection.
func (r *Registry) AllConnections() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	return conns
}

// UserConnectionCount reports how many connections a user has open.
func (r *Registry) UserConnectionCount(userID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userID])
}

// IsUserOnline reports whether a user has at least one live authenticated
// connection.
func (r *Registry) IsUserOnline(userID int64) bool {
	return r.UserConnectionCount(userID) > 0
}

// Stats returns registry counters for the stats endpoint.
func (r *Registry) Stats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return map[string]int{
		"total_connections": len(r.conns),
		"online_users":      len(r.users),
		"active_rooms":      len(r.rooms),
	}
}
