package interfaces

// Broadcaster is the gateway surface the import worker and request handlers
// emit through. Delivery is fire-and-forget, at-most-once, to currently
// connected members only.
type Broadcaster interface {
	// BroadcastToRoom sends an event to every current member of a room.
	// A room with zero members is a silent no-op.
	BroadcastToRoom(room, event string, payload any)

	// BroadcastToUser sends an event to every live connection of one user.
	BroadcastToUser(userID int64, event string, payload any)

	// BroadcastAll sends an event to every connected client.
	BroadcastAll(event string, payload any)
}
