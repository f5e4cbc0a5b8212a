package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"echocore/internal/config"
	"echocore/pkg/types"
)

// Handler upgrades HTTP requests to WebSocket connections and runs their
// lifecycle: authenticate, register, heartbeat, dispatch client events,
// clean up.
type Handler struct {
	gateway  *Gateway
	registry *Registry
	cfg      *config.WebSocketConfig
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates the WebSocket endpoint handler.
func NewHandler(gw *Gateway, registry *Registry, cfg *config.WebSocketConfig, logger *zap.Logger) *Handler {
	return &Handler{
		gateway:  gw,
		registry: registry,
		cfg:      cfg,
		logger:   logger.Named("ws"),
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin: func(r *http.Request) bool {
				// Browser clients connect from a separate origin; token
				// verification is the actual gate.
				return true
			},
		},
	}
}

// HandleWebSocket is the /ws endpoint. The credential arrives as a "token"
// query parameter or an Authorization header. A missing or invalid
// credential terminates the connection immediately with no partial state.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = r.Header.Get("Authorization")
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := NewConnection(ws, token, h.cfg.BufferSize, h.cfg.WriteTimeout)

	if err := h.registry.Add(conn); err != nil {
		h.logger.Warn("failed to track connection", zap.Error(err))
		_ = conn.Close()
		return
	}

	if err := h.gateway.Authenticate(conn); err != nil {
		h.gateway.Disconnect(conn)
		_ = conn.Close()
		return
	}

	go h.runConnection(conn)
}

// runConnection owns the read side of one connection: ping/pong heartbeat
// plus the client event pump. Returns when the transport closes.
func (h *Handler) runConnection(conn *Connection) {
	defer func() {
		h.gateway.Disconnect(conn)
		_ = conn.Close()
	}()

	if err := conn.conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout)); err != nil {
		return
	}
	conn.conn.SetPongHandler(func(string) error {
		conn.Touch()
		return conn.conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	})

	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := conn.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(h.cfg.WriteTimeout)); err != nil {
					return
				}
			case <-conn.ctx.Done():
				return
			}
		}
	}()

	for {
		messageType, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("websocket read error",
					zap.Int64("user_id", conn.UserID()), zap.Error(err))
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		conn.Touch()

		if err := h.dispatch(conn, data); err != nil {
			h.logger.Debug("client event rejected",
				zap.Int64("user_id", conn.UserID()), zap.Error(err))
		}
	}
}

// dispatch routes one client event. Malformed payloads and unknown events
// are logged and dropped, never fatal for the connection.
func (h *Handler) dispatch(conn *Connection, data []byte) error {
	var env types.ClientEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	switch env.Event {
	case types.ClientEventTyping:
		var req types.TypingRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		h.gateway.NotifyTyping(ctx, conn, req.ConversationID)
		return nil

	case types.ClientEventJoinPostRoom:
		return h.joinTarget(conn, env.Data, func(t types.RoomTarget) string {
			return types.PostRoom(t.PostID)
		})
	case types.ClientEventLeavePostRoom:
		return h.leaveTarget(conn, env.Data, func(t types.RoomTarget) string {
			return types.PostRoom(t.PostID)
		})
	case types.ClientEventJoinProfileRoom:
		return h.joinTarget(conn, env.Data, func(t types.RoomTarget) string {
			return types.ProfileRoom(t.UserID)
		})
	case types.ClientEventLeaveProfileRoom:
		return h.leaveTarget(conn, env.Data, func(t types.RoomTarget) string {
			return types.ProfileRoom(t.UserID)
		})
	case types.ClientEventJoinConversation:
		return h.joinTarget(conn, env.Data, func(t types.RoomTarget) string {
			return types.ConversationRoom(t.ConversationID)
		})
	case types.ClientEventLeaveConversation:
		return h.leaveTarget(conn, env.Data, func(t types.RoomTarget) string {
			return types.ConversationRoom(t.ConversationID)
		})

	case types.ClientEventJoinAdminChannel:
		// Admin authorization is enforced by the service issuing admin UI
		// access, not at the transport level.
		return h.gateway.JoinRoom(conn, types.AdminChannel)
	case types.ClientEventLeaveAdminChannel:
		h.gateway.LeaveRoom(conn, types.AdminChannel)
		return nil

	default:
		return ErrUnknownClientEvent
	}
}

func (h *Handler) joinTarget(conn *Connection, raw json.RawMessage, room func(types.RoomTarget) string) error {
	var target types.RoomTarget
	if err := json.Unmarshal(raw, &target); err != nil {
		return err
	}
	return h.gateway.JoinRoom(conn, room(target))
}

func (h *Handler) leaveTarget(conn *Connection, raw json.RawMessage, room func(types.RoomTarget) string) error {
	var target types.RoomTarget
	if err := json.Unmarshal(raw, &target); err != nil {
		return err
	}
	h.gateway.LeaveRoom(conn, room(target))
	return nil
}
