package interfaces

import (
	"context"

	"echocore/pkg/types"
)

// ObjectStorage uploads a local file and returns its public URL. Account
// selection, quota rotation and transcoding live behind this boundary.
type ObjectStorage interface {
	Upload(ctx context.Context, localPath, folder string) (string, error)
}

// MusicSource is the external catalog the importer scrapes. Implementations
// wrap a third-party music API; the importer only sees these shapes.
type MusicSource interface {
	// SearchArtist resolves a free-form query to the best-matching artist.
	// Returns ErrNotFound when the source has no match.
	SearchArtist(ctx context.Context, query string) (*types.SourceArtist, error)

	// ArtistAlbums lists the artist's direct albums.
	ArtistAlbums(ctx context.Context, artistID string) ([]types.SourceAlbum, error)

	// AlbumTracks lists an album's tracks in playback order.
	AlbumTracks(ctx context.Context, albumID string) ([]types.SourceTrack, error)

	// TrackDownloadURL resolves a direct, time-limited download URL for the
	// highest-bitrate variant of a track.
	TrackDownloadURL(ctx context.Context, trackID string) (string, error)
}
