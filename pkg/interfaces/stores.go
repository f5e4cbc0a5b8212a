package interfaces

import (
	"context"

	"echocore/pkg/types"
)

// UserStore persists the derived online flag and resolves display names.
// The gateway calls SetOnline on connect and on the close of a user's last
// connection; the flag is a denormalized mirror of in-memory presence.
type UserStore interface {
	// SetOnline flips the persisted online flag for a user.
	SetOnline(ctx context.Context, userID int64, online bool) error

	// DisplayName resolves the name shown in typing indicators. Falls back
	// to the username when no display name is set.
	DisplayName(ctx context.Context, userID int64) (string, error)
}

// ConversationStore resolves conversation membership for typing fan-out.
type ConversationStore interface {
	// ListOtherParticipants returns every member of a conversation except
	// the excluded user, skipping members flagged as kicked or departed.
	ListOtherParticipants(ctx context.Context, conversationID, excludingUserID int64) ([]types.Participant, error)
}

// CatalogStore persists imported music metadata. Lookups that find nothing
// return ErrNotFound rather than a nil/nil pair.
type CatalogStore interface {
	FindArtist(ctx context.Context, name string) (*types.Artist, error)
	CreateArtist(ctx context.Context, artist *types.Artist) error

	FindAlbum(ctx context.Context, artistID int64, title string) (*types.Album, error)
	CreateAlbum(ctx context.Context, album *types.Album) error

	TrackExists(ctx context.Context, albumID int64, title string) (bool, error)
	CreateTrack(ctx context.Context, track *types.Track) error
}
