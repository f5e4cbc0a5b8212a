package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"echocore/pkg/interfaces"
	"echocore/pkg/types"
)

// ProgressLog receives granular progress lines while a job runs; the worker
// fans them out to the admin channel.
type ProgressLog func(message, logType string)

// Pipeline runs one artist import end to end: resolve the artist against
// the external source, mirror every album and track asset into object
// storage, and persist catalog metadata.
//
// A failed download, upload or insert for one track is logged and skipped;
// it never aborts the album, the job or the queue. There is no retry.
type Pipeline struct {
	source  interfaces.MusicSource
	storage interfaces.ObjectStorage
	catalog interfaces.CatalogStore
	client  *http.Client
	tempDir string
	log     ProgressLog
	logger  *zap.Logger
}

// NewPipeline wires the import collaborators.
func NewPipeline(source interfaces.MusicSource, storage interfaces.ObjectStorage, catalog interfaces.CatalogStore, client *http.Client, tempDir string, log ProgressLog, logger *zap.Logger) *Pipeline {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = func(string, string) {}
	}
	return &Pipeline{
		source:  source,
		storage: storage,
		catalog: catalog,
		client:  client,
		tempDir: tempDir,
		log:     log,
		logger:  logger.Named("pipeline"),
	}
}

var _ JobRunner = (*Pipeline)(nil)

// Run imports one artist by free-form name.
func (p *Pipeline) Run(ctx context.Context, name string) error {
	p.log(fmt.Sprintf("Searching for artist %q", name), types.LogInfo)

	found, err := p.source.SearchArtist(ctx, name)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			p.log(fmt.Sprintf("Artist %q not found", name), types.LogError)
		}
		return fmt.Errorf("artist lookup failed: %w", err)
	}

	artist, err := p.resolveArtist(ctx, found)
	if err != nil {
		return err
	}

	albums, err := p.source.ArtistAlbums(ctx, found.ID)
	if err != nil {
		return fmt.Errorf("album listing failed: %w", err)
	}

	for _, album := range albums {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.importAlbum(ctx, artist, album)
	}
	return nil
}

func (p *Pipeline) resolveArtist(ctx context.Context, found *types.SourceArtist) (*types.Artist, error) {
	artist, err := p.catalog.FindArtist(ctx, found.Name)
	if err == nil {
		return artist, nil
	}
	if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, fmt.Errorf("artist lookup failed: %w", err)
	}

	p.log(fmt.Sprintf("Creating artist %s", found.Name), types.LogInfo)

	avatar, err := p.mirror(ctx, found.CoverURL, "avatars")
	if err != nil {
		p.log(fmt.Sprintf("Artist avatar skipped: %v", err), types.LogWarn)
	}

	artist = &types.Artist{Name: found.Name, AvatarURL: avatar, Bio: "Catalog import"}
	if err := p.catalog.CreateArtist(ctx, artist); err != nil {
		return nil, fmt.Errorf("artist create failed: %w", err)
	}
	return artist, nil
}

// importAlbum mirrors one album and its tracks. Errors are contained at
// track granularity.
func (p *Pipeline) importAlbum(ctx context.Context, artist *types.Artist, source types.SourceAlbum) {
	tracks, err := p.source.AlbumTracks(ctx, source.ID)
	if err != nil {
		p.log(fmt.Sprintf("Album %q skipped: %v", source.Title, err), types.LogError)
		return
	}

	album, err := p.catalog.FindAlbum(ctx, artist.ID, source.Title)
	if errors.Is(err, interfaces.ErrNotFound) {
		p.log(fmt.Sprintf("Importing album %q", source.Title), types.LogInfo)

		cover, coverErr := p.mirror(ctx, source.CoverURL, "avatars")
		if coverErr != nil {
			p.log(fmt.Sprintf("Album cover skipped: %v", coverErr), types.LogWarn)
		}

		album = &types.Album{
			ArtistID: artist.ID,
			Title:    source.Title,
			Year:     source.Year,
			CoverURL: cover,
		}
		if err := p.catalog.CreateAlbum(ctx, album); err != nil {
			p.log(fmt.Sprintf("Album %q skipped: %v", source.Title, err), types.LogError)
			return
		}
	} else if err != nil {
		p.log(fmt.Sprintf("Album %q skipped: %v", source.Title, err), types.LogError)
		return
	}

	for i, track := range tracks {
		if err := ctx.Err(); err != nil {
			return
		}
		p.importTrack(ctx, artist, album, track, i+1, len(tracks))
	}
}

func (p *Pipeline) importTrack(ctx context.Context, artist *types.Artist, album *types.Album, source types.SourceTrack, number, total int) {
	exists, err := p.catalog.TrackExists(ctx, album.ID, source.Title)
	if err != nil {
		p.log(fmt.Sprintf("Track %q skipped: %v", source.Title, err), types.LogError)
		return
	}
	if exists {
		return
	}

	p.log(fmt.Sprintf("[%d/%d] Downloading %q", number, total, source.Title), types.LogInfo)

	downloadURL, err := p.source.TrackDownloadURL(ctx, source.ID)
	if err != nil {
		p.log(fmt.Sprintf("Track %q skipped: %v", source.Title, err), types.LogError)
		return
	}

	audioURL, err := p.mirror(ctx, downloadURL, "audio")
	if err != nil {
		p.log(fmt.Sprintf("Track %q skipped: %v", source.Title, err), types.LogError)
		return
	}

	track := &types.Track{
		ArtistID:    artist.ID,
		AlbumID:     album.ID,
		Title:       source.Title,
		URL:         audioURL,
		CoverURL:    album.CoverURL,
		Duration:    int(source.Duration.Seconds()),
		TrackNumber: number,
	}
	if err := p.catalog.CreateTrack(ctx, track); err != nil {
		p.log(fmt.Sprintf("Track %q skipped: %v", source.Title, err), types.LogError)
		return
	}

	p.log(fmt.Sprintf("[%d/%d] Imported %q", number, total, source.Title), types.LogSuccess)
}

// mirror downloads a remote asset to a scoped temp file and pushes it into
// object storage. The temp file is removed on every path, success or
// failure.
func (p *Pipeline) mirror(ctx context.Context, url, folder string) (string, error) {
	if url == "" {
		return "", ErrNoAssetURL
	}

	if err := os.MkdirAll(p.tempDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}

	ext := ".jpg"
	if folder == "audio" {
		ext = ".mp3"
	}
	tempPath := filepath.Join(p.tempDir, uuid.New().String()+ext)
	defer func() {
		if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
			p.logger.Warn("temp file not removed", zap.String("path", tempPath), zap.Error(err))
		}
	}()

	if err := p.download(ctx, url, tempPath); err != nil {
		return "", err
	}

	publicURL, err := p.storage.Upload(ctx, tempPath, folder)
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	return publicURL, nil
}

func (p *Pipeline) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("bad asset url: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: unexpected status %d", resp.StatusCode)
	}

	file, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(file, resp.Body); err != nil {
		_ = file.Close()
		return fmt.Errorf("download failed: %w", err)
	}
	return file.Close()
}
