package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"echocore/pkg/interfaces"
	"echocore/pkg/types"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "test.db"), 5*time.Second, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func seedUser(t *testing.T, m *Manager, id int64, username, name string) {
	t.Helper()
	_, err := m.db.Exec(`INSERT INTO users (id, username, name) VALUES (?, ?, ?)`, id, username, name)
	require.NoError(t, err)
}

func seedParticipant(t *testing.T, m *Manager, conversationID, userID int64, kicked, left bool) {
	t.Helper()
	_, err := m.db.Exec(`
		INSERT INTO conversation_participants (conversation_id, user_id, is_kicked, has_left)
		VALUES (?, ?, ?, ?)`, conversationID, userID, boolToInt(kicked), boolToInt(left))
	require.NoError(t, err)
}

func TestManager_OpenAndHealth(t *testing.T) {
	m := newTestManager(t)
	assert.NoError(t, m.HealthCheck(context.Background()))
}

func TestManager_MigrationsAreIdempotent(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, applyMigrations(m.db))
}

func TestManager_CloseRejectsFurtherWrites(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "test.db"), 5*time.Second, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Close())

	err = m.SetOnline(context.Background(), 1, true)
	assert.ErrorIs(t, err, ErrManagerClosed)
}

func TestUserStore_SetOnline(t *testing.T) {
	m := newTestManager(t)
	seedUser(t, m, 7, "ada", "Ada L")

	require.NoError(t, m.SetOnline(context.Background(), 7, true))

	var online int
	require.NoError(t, m.db.QueryRow(`SELECT is_online FROM users WHERE id = 7`).Scan(&online))
	assert.Equal(t, 1, online)

	require.NoError(t, m.SetOnline(context.Background(), 7, false))
	require.NoError(t, m.db.QueryRow(`SELECT is_online FROM users WHERE id = 7`).Scan(&online))
	assert.Equal(t, 0, online)
}

func TestUserStore_SetOnlineMissingUser(t *testing.T) {
	m := newTestManager(t)
	// The account service owns user rows; a missing row is not our error.
	assert.NoError(t, m.SetOnline(context.Background(), 404, true))
}

func TestUserStore_DisplayName(t *testing.T) {
	m := newTestManager(t)
	seedUser(t, m, 1, "ada", "Ada L")
	seedUser(t, m, 2, "ben", "")

	name, err := m.DisplayName(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Ada L", name)

	// Empty profile name falls back to the username.
	name, err = m.DisplayName(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "ben", name)

	_, err = m.DisplayName(context.Background(), 404)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestConversationStore_ListOtherParticipants(t *testing.T) {
	m := newTestManager(t)
	seedParticipant(t, m, 55, 1, false, false)
	seedParticipant(t, m, 55, 2, false, false)
	seedParticipant(t, m, 55, 3, true, false)  // kicked
	seedParticipant(t, m, 55, 4, false, true)  // left
	seedParticipant(t, m, 99, 5, false, false) // other conversation

	participants, err := m.ListOtherParticipants(context.Background(), 55, 1)
	require.NoError(t, err)
	require.Len(t, participants, 1)
	assert.Equal(t, int64(2), participants[0].UserID)
}

func TestConversationStore_EmptyConversation(t *testing.T) {
	m := newTestManager(t)
	participants, err := m.ListOtherParticipants(context.Background(), 404, 1)
	require.NoError(t, err)
	assert.Empty(t, participants)
}

func TestCatalogStore_ArtistLifecycle(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.FindArtist(ctx, "Moderat")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	artist := &types.Artist{Name: "Moderat", AvatarURL: "/media/avatars/m.jpg", Bio: "Catalog import"}
	require.NoError(t, m.CreateArtist(ctx, artist))
	assert.NotZero(t, artist.ID)

	// Lookup is case-insensitive.
	found, err := m.FindArtist(ctx, "moderat")
	require.NoError(t, err)
	assert.Equal(t, artist.ID, found.ID)
	assert.Equal(t, "Moderat", found.Name)
	assert.Equal(t, "Catalog import", found.Bio)
}

func TestCatalogStore_AlbumAndTracks(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	artist := &types.Artist{Name: "Moderat"}
	require.NoError(t, m.CreateArtist(ctx, artist))

	_, err := m.FindAlbum(ctx, artist.ID, "II")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	album := &types.Album{ArtistID: artist.ID, Title: "II", Year: 2013, CoverURL: "/media/avatars/ii.jpg"}
	require.NoError(t, m.CreateAlbum(ctx, album))
	assert.NotZero(t, album.ID)

	found, err := m.FindAlbum(ctx, artist.ID, "II")
	require.NoError(t, err)
	assert.Equal(t, album.ID, found.ID)
	assert.Equal(t, 2013, found.Year)

	exists, err := m.TrackExists(ctx, album.ID, "Bad Kingdom")
	require.NoError(t, err)
	assert.False(t, exists)

	track := &types.Track{
		ArtistID:    artist.ID,
		AlbumID:     album.ID,
		Title:       "Bad Kingdom",
		URL:         "/media/audio/bk.mp3",
		CoverURL:    album.CoverURL,
		Duration:    206,
		TrackNumber: 1,
	}
	require.NoError(t, m.CreateTrack(ctx, track))
	assert.NotZero(t, track.ID)

	exists, err = m.TrackExists(ctx, album.ID, "Bad Kingdom")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCatalogStore_ConcurrentWrites(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	// All writes funnel through the single writer; concurrent creators must
	// not lose inserts.
	const n = 20
	errCh := make(chan error, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			errCh <- m.CreateArtist(ctx, &types.Artist{Name: "Artist " + string(rune('A'+i))})
		}(i)
	}
	for i := 0; i < n; i++ {
		require.NoError(t, <-errCh)
	}

	var count int
	require.NoError(t, m.db.QueryRow(`SELECT COUNT(1) FROM artists`).Scan(&count))
	assert.Equal(t, n, count)
}
