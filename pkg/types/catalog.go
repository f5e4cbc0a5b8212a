package types

import (
	"time"
)

// Participant identifies a conversation member other than the sender.
type Participant struct {
	UserID int64 `json:"userId"`
}

// Artist is a canonical catalog artist row.
type Artist struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar,omitempty"`
	Bio       string `json:"bio,omitempty"`
}

// Album is a canonical catalog album row.
type Album struct {
	ID       int64  `json:"id"`
	ArtistID int64  `json:"artistId"`
	Title    string `json:"title"`
	Year     int    `json:"year,omitempty"`
	CoverURL string `json:"coverUrl,omitempty"`
}

// Track is a canonical catalog track row. URL points at the uploaded audio
// asset in object storage, not at the source service.
type Track struct {
	ID          int64  `json:"id"`
	ArtistID    int64  `json:"artistId"`
	AlbumID     int64  `json:"albumId"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	CoverURL    string `json:"coverUrl,omitempty"`
	Duration    int    `json:"duration"`
	TrackNumber int    `json:"trackNumber"`
}

// SourceArtist is an artist as reported by the external music source.
type SourceArtist struct {
	ID       string
	Name     string
	CoverURL string
}

// SourceAlbum is an album as reported by the external music source.
type SourceAlbum struct {
	ID       string
	Title    string
	Year     int
	CoverURL string
}

// SourceTrack is a track as reported by the external music source.
type SourceTrack struct {
	ID       string
	Title    string
	Duration time.Duration
}
