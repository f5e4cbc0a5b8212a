package media

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"echocore/pkg/interfaces"
	"echocore/pkg/types"
)

// SourceClient talks to the external music catalog API the importer scrapes.
// The API is a plain JSON service; authentication is a bearer token.
type SourceClient struct {
	baseURL string
	token   string
	client  *http.Client
}

var _ interfaces.MusicSource = (*SourceClient)(nil)

// NewSourceClient creates a catalog client for the given API root.
func NewSourceClient(baseURL, token string, timeout time.Duration) *SourceClient {
	return &SourceClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

type sourceArtistResponse struct {
	Artists []struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Cover string `json:"cover"`
	} `json:"artists"`
}

// SearchArtist resolves a query to the source's best match.
func (c *SourceClient) SearchArtist(ctx context.Context, query string) (*types.SourceArtist, error) {
	var res sourceArtistResponse
	err := c.get(ctx, "/artists/search?q="+url.QueryEscape(query), &res)
	if err != nil {
		return nil, err
	}
	if len(res.Artists) == 0 {
		return nil, interfaces.ErrNotFound
	}
	best := res.Artists[0]
	return &types.SourceArtist{ID: best.ID, Name: best.Name, CoverURL: best.Cover}, nil
}

type sourceAlbumsResponse struct {
	Albums []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Year  int    `json:"year"`
		Cover string `json:"cover"`
	} `json:"albums"`
}

// ArtistAlbums lists the artist's direct albums.
func (c *SourceClient) ArtistAlbums(ctx context.Context, artistID string) ([]types.SourceAlbum, error) {
	var res sourceAlbumsResponse
	if err := c.get(ctx, "/artists/"+url.PathEscape(artistID)+"/albums", &res); err != nil {
		return nil, err
	}
	albums := make([]types.SourceAlbum, 0, len(res.Albums))
	for _, a := range res.Albums {
		albums = append(albums, types.SourceAlbum{ID: a.ID, Title: a.Title, Year: a.Year, CoverURL: a.Cover})
	}
	return albums, nil
}

type sourceTracksResponse struct {
	Tracks []struct {
		ID         string `json:"id"`
		Title      string `json:"title"`
		DurationMS int64  `json:"durationMs"`
	} `json:"tracks"`
}

// AlbumTracks lists an album's tracks in playback order.
func (c *SourceClient) AlbumTracks(ctx context.Context, albumID string) ([]types.SourceTrack, error) {
	var res sourceTracksResponse
	if err := c.get(ctx, "/albums/"+url.PathEscape(albumID)+"/tracks", &res); err != nil {
		return nil, err
	}
	tracks := make([]types.SourceTrack, 0, len(res.Tracks))
	for _, t := range res.Tracks {
		tracks = append(tracks, types.SourceTrack{
			ID:       t.ID,
			Title:    t.Title,
			Duration: time.Duration(t.DurationMS) * time.Millisecond,
		})
	}
	return tracks, nil
}

type downloadInfoResponse struct {
	Variants []struct {
		URL     string `json:"url"`
		Bitrate int    `json:"bitrateKbps"`
	} `json:"variants"`
}

// TrackDownloadURL picks the highest-bitrate variant's direct URL.
func (c *SourceClient) TrackDownloadURL(ctx context.Context, trackID string) (string, error) {
	var res downloadInfoResponse
	if err := c.get(ctx, "/tracks/"+url.PathEscape(trackID)+"/download", &res); err != nil {
		return "", err
	}
	if len(res.Variants) == 0 {
		return "", interfaces.ErrNotFound
	}
	best := res.Variants[0]
	for _, v := range res.Variants[1:] {
		if v.Bitrate > best.Bitrate {
			best = v
		}
	}
	return best.URL, nil
}

func (c *SourceClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("bad source request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("source request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return interfaces.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("source request failed: unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("source response malformed: %w", err)
	}
	return nil
}
