package store

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"echocore/pkg/interfaces"
	"echocore/pkg/types"
)

var (
	_ interfaces.UserStore         = (*Manager)(nil)
	_ interfaces.ConversationStore = (*Manager)(nil)
	_ interfaces.CatalogStore      = (*Manager)(nil)
)

// SetOnline flips the persisted presence flag. A missing user row is not an
// error; the account service owns row creation.
func (m *Manager) SetOnline(ctx context.Context, userID int64, online bool) error {
	return m.executeWrite(func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, `
			UPDATE users SET is_online = ?, last_seen = CURRENT_TIMESTAMP WHERE id = ?`,
			boolToInt(online), userID)
		if err != nil {
			return fmt.Errorf("failed to set online flag: %w", err)
		}
		return nil
	})
}

// DisplayName prefers the profile name over the login username.
func (m *Manager) DisplayName(ctx context.Context, userID int64) (string, error) {
	var name string
	err := m.db.QueryRowContext(ctx, `
		SELECT COALESCE(NULLIF(name, ''), username) FROM users WHERE id = ?`, userID).Scan(&name)
	if err == sql.ErrNoRows {
		return "", interfaces.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve display name: %w", err)
	}
	return name, nil
}

// ListOtherParticipants returns conversation members excluding the sender
// and anyone kicked or departed.
func (m *Manager) ListOtherParticipants(ctx context.Context, conversationID, excludingUserID int64) ([]types.Participant, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT user_id FROM conversation_participants
		WHERE conversation_id = ? AND user_id != ? AND is_kicked = 0 AND has_left = 0`,
		conversationID, excludingUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []types.Participant
	for rows.Next() {
		var p types.Participant
		if err := rows.Scan(&p.UserID); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// FindArtist matches by name, case-insensitively.
func (m *Manager) FindArtist(ctx context.Context, name string) (*types.Artist, error) {
	var a types.Artist
	var avatar, bio sql.NullString
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, avatar, bio FROM artists WHERE name = ? COLLATE NOCASE`, name).
		Scan(&a.ID, &a.Name, &avatar, &bio)
	if err == sql.ErrNoRows {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find artist: %w", err)
	}
	a.AvatarURL = avatar.String
	a.Bio = bio.String
	return &a, nil
}

// CreateArtist inserts a new artist and fills its ID.
func (m *Manager) CreateArtist(ctx context.Context, artist *types.Artist) error {
	return m.executeWrite(func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, `
			INSERT INTO artists (name, avatar, bio) VALUES (?, ?, ?)`,
			artist.Name, artist.AvatarURL, artist.Bio)
		if err != nil {
			return fmt.Errorf("failed to create artist: %w", err)
		}
		artist.ID, err = res.LastInsertId()
		return err
	})
}

// FindAlbum matches by artist and exact title.
func (m *Manager) FindAlbum(ctx context.Context, artistID int64, title string) (*types.Album, error) {
	var a types.Album
	var year sql.NullInt64
	var cover sql.NullString
	err := m.db.QueryRowContext(ctx, `
		SELECT id, artist_id, title, year, cover_url FROM albums
		WHERE artist_id = ? AND title = ?`, artistID, title).
		Scan(&a.ID, &a.ArtistID, &a.Title, &year, &cover)
	if err == sql.ErrNoRows {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find album: %w", err)
	}
	a.Year = int(year.Int64)
	a.CoverURL = cover.String
	return &a, nil
}

// CreateAlbum inserts a new album and fills its ID.
func (m *Manager) CreateAlbum(ctx context.Context, album *types.Album) error {
	return m.executeWrite(func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, `
			INSERT INTO albums (artist_id, title, year, cover_url) VALUES (?, ?, ?, ?)`,
			album.ArtistID, album.Title, album.Year, album.CoverURL)
		if err != nil {
			return fmt.Errorf("failed to create album: %w", err)
		}
		album.ID, err = res.LastInsertId()
		return err
	})
}

// TrackExists reports whether an album already has a track with this title.
func (m *Manager) TrackExists(ctx context.Context, albumID int64, title string) (bool, error) {
	var count int
	err := m.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM tracks WHERE album_id = ? AND title = ?`, albumID, title).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check track: %w", err)
	}
	return count > 0, nil
}

// CreateTrack inserts a new track and fills its ID.
func (m *Manager) CreateTrack(ctx context.Context, track *types.Track) error {
	err := m.executeWrite(func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, `
			INSERT INTO tracks (artist_id, album_id, title, url, cover_url, duration, track_number)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			track.ArtistID, track.AlbumID, track.Title, track.URL,
			track.CoverURL, track.Duration, track.TrackNumber)
		if err != nil {
			return fmt.Errorf("failed to create track: %w", err)
		}
		track.ID, err = res.LastInsertId()
		return err
	})
	if err == nil {
		m.logger.Debug("track persisted",
			zap.String("title", track.Title),
			zap.Int64("album_id", track.AlbumID))
	}
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
