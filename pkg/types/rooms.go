package types

import (
	"fmt"
)

// AdminChannel is the room that receives import log and queue snapshot
// events. Joining it is gated by an external admin check, not by the
// gateway itself.
const AdminChannel = "admin_channel"

// MaxRoomNameLength bounds client-supplied room names.
const MaxRoomNameLength = 128

// UserRoom is the per-user room joined implicitly at authentication time.
// Private notifications and typing indicators are delivered through it.
func UserRoom(userID int64) string {
	return fmt.Sprintf("user_%d", userID)
}

// PostRoom carries live comment and reaction events for a post.
func PostRoom(postID int64) string {
	return fmt.Sprintf("post_room_%d", postID)
}

// ProfileRoom carries live profile activity for preview cards.
func ProfileRoom(userID int64) string {
	return fmt.Sprintf("profile_room_%d", userID)
}

// ConversationRoom carries events scoped to one direct or group conversation.
func ConversationRoom(conversationID int64) string {
	return fmt.Sprintf("conversation_%d", conversationID)
}

// IsValidRoomName reports whether a room name is acceptable for join/leave.
// Any authenticated connection may subscribe to any well-formed room name;
// room names double as capability tokens for the public preview rooms.
func IsValidRoomName(name string) bool {
	return name != "" && len(name) <= MaxRoomNameLength
}
