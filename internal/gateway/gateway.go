package gateway

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"echocore/internal/auth"
	"echocore/pkg/interfaces"
	"echocore/pkg/types"
)

// CredentialVerifier validates the signed token presented at handshake.
type CredentialVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Gateway authenticates connections, maintains presence and provides
// room-scoped publish/subscribe to the rest of the system.
//
// Presence is reference counted: a user is online while at least one
// authenticated connection is open, and goes offline only when the last one
// closes.
type Gateway struct {
	registry *Registry
	verifier CredentialVerifier
	users    interfaces.UserStore
	convos   interfaces.ConversationStore
	logger   *zap.Logger

	storeTimeout time.Duration
}

var _ interfaces.Broadcaster = (*Gateway)(nil)

// New creates a gateway over the given registry and collaborators.
func New(registry *Registry, verifier CredentialVerifier, users interfaces.UserStore, convos interfaces.ConversationStore, logger *zap.Logger) *Gateway {
	return &Gateway{
		registry:     registry,
		verifier:     verifier,
		users:        users,
		convos:       convos,
		logger:       logger.Named("gateway"),
		storeTimeout: 10 * time.Second,
	}
}

// Authenticate resolves a connection's credential. On success the
// connection is bound to its user, implicitly joins the per-user room and
// the user's online status is broadcast to every client. Any verification
// failure is fatal for the connection: the caller must close it, and the
// client reconnects with a fresh credential.
func (g *Gateway) Authenticate(conn *Connection) error {
	claims, err := g.verifier.Verify(conn.Token())
	if err != nil {
		g.logger.Info("connection rejected", zap.Error(err))
		return err
	}

	conn.Bind(claims.UserID, claims.Username)

	first, err := g.registry.Associate(conn)
	if err != nil {
		return err
	}
	if err := g.registry.JoinRoom(conn, types.UserRoom(claims.UserID)); err != nil {
		return err
	}

	// The persisted flag is refreshed on every connect; only the first
	// connection changes the derived presence state.
	ctx, cancel := context.WithTimeout(context.Background(), g.storeTimeout)
	defer cancel()
	if err := g.users.SetOnline(ctx, claims.UserID, true); err != nil {
		g.logger.Warn("failed to persist online flag",
			zap.Int64("user_id", claims.UserID), zap.Error(err))
	}

	g.logger.Info("user connected",
		zap.Int64("user_id", claims.UserID),
		zap.String("username", claims.Username),
		zap.Bool("first_connection", first))

	g.BroadcastAll(types.EventUserStatusChange, types.StatusChange{
		UserID:   claims.UserID,
		IsOnline: true,
	})
	return nil
}

// Disconnect removes a connection. If it was the user's last open
// connection the user goes offline and the status change is broadcast to
// every client.
func (g *Gateway) Disconnect(conn *Connection) {
	userID, authed, last := g.registry.Remove(conn)
	if !authed {
		return
	}

	g.logger.Info("user disconnected",
		zap.Int64("user_id", userID),
		zap.Bool("last_connection", last))

	if !last {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), g.storeTimeout)
	defer cancel()
	if err := g.users.SetOnline(ctx, userID, false); err != nil {
		g.logger.Warn("failed to persist offline flag",
			zap.Int64("user_id", userID), zap.Error(err))
	}

	g.BroadcastAll(types.EventUserStatusChange, types.StatusChange{
		UserID:   userID,
		IsOnline: false,
	})
}

// JoinRoom subscribes a connection to a room. Any authenticated connection
// may join any well-formed room name; the public preview rooms rely on
// this open-subscription policy.
func (g *Gateway) JoinRoom(conn *Connection, room string) error {
	if err := g.registry.JoinRoom(conn, room); err != nil {
		return err
	}
	g.logger.Debug("joined room",
		zap.Int64("user_id", conn.UserID()), zap.String("room", room))
	return nil
}

// LeaveRoom unsubscribes a connection from a room.
func (g *Gateway) LeaveRoom(conn *Connection, room string) {
	g.registry.LeaveRoom(conn, room)
	g.logger.Debug("left room",
		zap.Int64("user_id", conn.UserID()), zap.String("room", room))
}

// BroadcastToRoom delivers an event to every current member of a room.
// Fire-and-forget: per-connection write failures are logged and skipped,
// and a room with zero members is a silent no-op.
func (g *Gateway) BroadcastToRoom(room, event string, payload any) {
	for _, conn := range g.registry.RoomConnections(room) {
		if err := conn.Send(event, payload); err != nil {
			g.logger.Debug("dropped event",
				zap.String("room", room),
				zap.String("event", event),
				zap.Error(err))
		}
	}
}

// BroadcastToUser delivers an event to every live connection of one user.
func (g *Gateway) BroadcastToUser(userID int64, event string, payload any) {
	g.BroadcastToRoom(types.UserRoom(userID), event, payload)
}

// BroadcastAll delivers an event to every connected client, authenticated
// or not.
func (g *Gateway) BroadcastAll(event string, payload any) {
	for _, conn := range g.registry.AllConnections() {
		if err := conn.Send(event, payload); err != nil {
			g.logger.Debug("dropped event",
				zap.String("event", event),
				zap.Error(err))
		}
	}
}

// NotifyTyping fans a typing indicator out to the other participants of a
// conversation. A failed membership lookup or an empty participant list is
// a silent no-op, never an error.
func (g *Gateway) NotifyTyping(ctx context.Context, conn *Connection, conversationID int64) {
	if !conn.IsAuthenticated() || conversationID == 0 {
		return
	}
	senderID := conn.UserID()

	participants, err := g.convos.ListOtherParticipants(ctx, conversationID, senderID)
	if err != nil {
		g.logger.Warn("typing lookup failed",
			zap.Int64("conversation_id", conversationID), zap.Error(err))
		return
	}
	if len(participants) == 0 {
		return
	}

	userName, err := g.users.DisplayName(ctx, senderID)
	if err != nil || userName == "" {
		userName = conn.Username()
	}
	if userName == "" {
		userName = "Someone"
	}

	payload := types.Typing{
		UserID:         senderID,
		ConversationID: conversationID,
		UserName:       userName,
	}
	for _, p := range participants {
		g.BroadcastToUser(p.UserID, types.EventUserTyping, payload)
	}
}

// NotifyNewSessionDetected warns a user's existing sessions about a fresh
// login. Every live connection of the user receives the event except those
// presenting the credential that created the new session, so the new login
// does not warn itself.
func (g *Gateway) NotifyNewSessionDetected(userID int64, session any, excludeToken string) {
	for _, conn := range g.registry.RoomConnections(types.UserRoom(userID)) {
		if conn.Token() == excludeToken {
			continue
		}
		if err := conn.Send(types.EventNewSessionAlert, session); err != nil {
			g.logger.Debug("dropped session alert",
				zap.Int64("user_id", userID), zap.Error(err))
		}
	}
}

// IsUserOnline exposes derived presence for request handlers.
func (g *Gateway) IsUserOnline(userID int64) bool {
	return g.registry.IsUserOnline(userID)
}

// Stats returns gateway counters for the stats endpoint.
func (g *Gateway) Stats() map[string]int {
	return g.registry.Stats()
}

// IsFatalAuthError reports whether an authentication error should terminate
// the connection. All verification failures qualify.
func IsFatalAuthError(err error) bool {
	return errors.Is(err, auth.ErrMissingToken) ||
		errors.Is(err, auth.ErrInvalidToken) ||
		errors.Is(err, auth.ErrExpiredToken) ||
		errors.Is(err, auth.ErrInvalidAlgorithm)
}
