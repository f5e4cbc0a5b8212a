package store

import (
	"database/sql"
	"fmt"
)

// migrations run in order exactly once each; schema_migrations records the
// applied versions. Only the columns the realtime core touches exist here;
// the main application owns the full social schema.
var migrations = []struct {
	version int
	name    string
	stmt    string
}{
	{1, "create_users", `
		CREATE TABLE IF NOT EXISTS users (
			id         INTEGER PRIMARY KEY,
			username   TEXT NOT NULL UNIQUE,
			name       TEXT,
			is_online  INTEGER NOT NULL DEFAULT 0,
			last_seen  DATETIME
		)`},
	{2, "create_conversation_participants", `
		CREATE TABLE IF NOT EXISTS conversation_participants (
			conversation_id INTEGER NOT NULL,
			user_id         INTEGER NOT NULL,
			is_kicked       INTEGER NOT NULL DEFAULT 0,
			has_left        INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (conversation_id, user_id)
		)`},
	{3, "create_artists", `
		CREATE TABLE IF NOT EXISTS artists (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			name   TEXT NOT NULL COLLATE NOCASE,
			avatar TEXT,
			bio    TEXT
		)`},
	{4, "create_albums", `
		CREATE TABLE IF NOT EXISTS albums (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			artist_id INTEGER NOT NULL REFERENCES artists(id),
			title     TEXT NOT NULL,
			year      INTEGER,
			cover_url TEXT
		)`},
	{5, "create_tracks", `
		CREATE TABLE IF NOT EXISTS tracks (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			artist_id    INTEGER NOT NULL REFERENCES artists(id),
			album_id     INTEGER NOT NULL REFERENCES albums(id),
			title        TEXT NOT NULL,
			url          TEXT NOT NULL,
			cover_url    TEXT,
			duration     INTEGER NOT NULL DEFAULT 0,
			track_number INTEGER NOT NULL DEFAULT 0
		)`},
	{6, "index_catalog_lookups", `
		CREATE INDEX IF NOT EXISTS idx_albums_artist_title ON albums(artist_id, title);
		CREATE INDEX IF NOT EXISTS idx_tracks_album_title  ON tracks(album_id, title)`},
}

func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	for _, mig := range migrations {
		var applied int
		err := db.QueryRow(`SELECT COUNT(1) FROM schema_migrations WHERE version = ?`, mig.version).Scan(&applied)
		if err != nil {
			return fmt.Errorf("failed to check migration %d: %w", mig.version, err)
		}
		if applied > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", mig.version, err)
		}
		if _, err := tx.Exec(mig.stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", mig.version, mig.name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, mig.version, mig.name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", mig.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", mig.version, err)
		}
	}

	return nil
}
