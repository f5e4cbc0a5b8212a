package types

import (
	"encoding/json"
)

// Server-emitted event names. These are part of the wire contract with the
// web and mobile clients and must not be renamed without a client migration.
const (
	EventUserStatusChange  = "user_status_change"
	EventNewNotification   = "new_notification"
	EventUserTyping        = "user_typing"
	EventNewSessionAlert   = "new_session_detected"
	EventImportLog         = "admin_import_log"
	EventImportQueueUpdate = "admin_import_queue_update"
)

// Client-emitted event names handled by the gateway read pump.
const (
	ClientEventTyping            = "typing"
	ClientEventJoinPostRoom      = "join_post_room"
	ClientEventLeavePostRoom     = "leave_post_room"
	ClientEventJoinProfileRoom   = "join_profile_room"
	ClientEventLeaveProfileRoom  = "leave_profile_room"
	ClientEventJoinConversation  = "join_conversation"
	ClientEventLeaveConversation = "leave_conversation"
	ClientEventJoinAdminChannel  = "join_admin_channel"
	ClientEventLeaveAdminChannel = "leave_admin_channel"
)

// Import log severity levels, rendered as colored lines in the admin console.
const (
	LogInfo    = "info"
	LogSuccess = "success"
	LogWarn    = "warn"
	LogError   = "error"
)

// Envelope is the wire format for every server-to-client event.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// ClientEnvelope is the wire format for client-to-server events. Data stays
// raw until the event name selects a payload type.
type ClientEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// StatusChange is the payload of user_status_change.
type StatusChange struct {
	UserID   int64 `json:"userId"`
	IsOnline bool  `json:"isOnline"`
}

// Typing is the payload of user_typing.
type Typing struct {
	UserID         int64  `json:"userId"`
	ConversationID int64  `json:"conversationId"`
	UserName       string `json:"userName"`
}

// TypingRequest is the payload of the client "typing" event.
type TypingRequest struct {
	ConversationID int64 `json:"conversationId"`
}

// RoomTarget carries the entity ID for join/leave room events.
type RoomTarget struct {
	PostID int64 `json:"postId,omitempty"`
	UserID int64 `json:"userId,omitempty"`
	ConversationID int64 `json:"conversationId,omitempty"`
}

// LogEvent is the payload of admin_import_log.
type LogEvent struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// QueueStatus is the payload of admin_import_queue_update and the response
// of the queue status endpoint. Every broadcast carries the full snapshot,
// never a delta, so late joiners converge on the next update.
type QueueStatus struct {
	Queue         []string `json:"queue"`
	IsProcessing  bool     `json:"isProcessing"`
	CurrentArtist *string  `json:"currentArtist"`
}
