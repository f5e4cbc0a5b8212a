package media

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"echocore/pkg/interfaces"
)

func newCatalogServer(t *testing.T) (*httptest.Server, *http.Request) {
	t.Helper()
	var lastReq http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastReq = *r.Clone(context.Background())
		switch r.URL.Path {
		case "/artists/search":
			json.NewEncoder(w).Encode(map[string]any{"artists": []map[string]any{
				{"id": "src-1", "name": "Moderat", "cover": "https://img/moderat.jpg"},
				{"id": "src-2", "name": "Moderator", "cover": ""},
			}})
		case "/artists/none/albums":
			http.NotFound(w, r)
		case "/artists/src-1/albums":
			json.NewEncoder(w).Encode(map[string]any{"albums": []map[string]any{
				{"id": "alb-1", "title": "II", "year": 2013, "cover": "https://img/ii.jpg"},
			}})
		case "/albums/alb-1/tracks":
			json.NewEncoder(w).Encode(map[string]any{"tracks": []map[string]any{
				{"id": "trk-1", "title": "Bad Kingdom", "durationMs": 206000},
			}})
		case "/tracks/trk-1/download":
			json.NewEncoder(w).Encode(map[string]any{"variants": []map[string]any{
				{"url": "https://cdn/low.mp3", "bitrateKbps": 128},
				{"url": "https://cdn/high.mp3", "bitrateKbps": 320},
			}})
		case "/tracks/empty/download":
			json.NewEncoder(w).Encode(map[string]any{"variants": []map[string]any{}})
		case "/broken":
			w.Write([]byte("{not json"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &lastReq
}

func TestSourceClient_SearchArtist(t *testing.T) {
	srv, lastReq := newCatalogServer(t)
	client := NewSourceClient(srv.URL, "secret-token", 5*time.Second)

	artist, err := client.SearchArtist(context.Background(), "moderat live")
	require.NoError(t, err)
	assert.Equal(t, "src-1", artist.ID)
	assert.Equal(t, "Moderat", artist.Name)
	assert.Equal(t, "https://img/moderat.jpg", artist.CoverURL)

	assert.Equal(t, "moderat live", lastReq.URL.Query().Get("q"))
	assert.Equal(t, "Bearer secret-token", lastReq.Header.Get("Authorization"))
}

func TestSourceClient_SearchArtistNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"artists": []any{}})
	}))
	t.Cleanup(srv.Close)

	client := NewSourceClient(srv.URL, "", 5*time.Second)
	_, err := client.SearchArtist(context.Background(), "nobody")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestSourceClient_ArtistAlbums(t *testing.T) {
	srv, _ := newCatalogServer(t)
	client := NewSourceClient(srv.URL, "", 5*time.Second)

	albums, err := client.ArtistAlbums(context.Background(), "src-1")
	require.NoError(t, err)
	require.Len(t, albums, 1)
	assert.Equal(t, "II", albums[0].Title)
	assert.Equal(t, 2013, albums[0].Year)
}

func TestSourceClient_ArtistAlbumsNotFound(t *testing.T) {
	srv, _ := newCatalogServer(t)
	client := NewSourceClient(srv.URL, "", 5*time.Second)

	_, err := client.ArtistAlbums(context.Background(), "none")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestSourceClient_AlbumTracks(t *testing.T) {
	srv, _ := newCatalogServer(t)
	client := NewSourceClient(srv.URL, "", 5*time.Second)

	tracks, err := client.AlbumTracks(context.Background(), "alb-1")
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Bad Kingdom", tracks[0].Title)
	assert.Equal(t, 206*time.Second, tracks[0].Duration)
}

func TestSourceClient_TrackDownloadURLPicksBestBitrate(t *testing.T) {
	srv, _ := newCatalogServer(t)
	client := NewSourceClient(srv.URL, "", 5*time.Second)

	url, err := client.TrackDownloadURL(context.Background(), "trk-1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/high.mp3", url)
}

func TestSourceClient_TrackDownloadURLNoVariants(t *testing.T) {
	srv, _ := newCatalogServer(t)
	client := NewSourceClient(srv.URL, "", 5*time.Second)

	_, err := client.TrackDownloadURL(context.Background(), "empty")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestSourceClient_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	t.Cleanup(srv.Close)

	client := NewSourceClient(srv.URL, "", 5*time.Second)
	_, err := client.SearchArtist(context.Background(), "x")
	assert.Error(t, err)
}

func TestSourceClient_CancelledContext(t *testing.T) {
	srv, _ := newCatalogServer(t)
	client := NewSourceClient(srv.URL, "", 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.SearchArtist(ctx, "moderat")
	assert.Error(t, err)
}
