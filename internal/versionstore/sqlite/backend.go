// Package sqlite provides a SQLite-backed version store backend.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"transcript-revision-service/internal/models"
	"transcript-revision-service/internal/versionstore"
)

// Config holds SQLite backend configuration.
type Config struct {
	Path string `yaml:"path"`
}

// Backend stores transcript versions in a SQLite database. Version numbers
// are assigned inside a transaction, making the database the single
// serialization point for concurrent savers.
type Backend struct {
	db    *sql.DB
	log   zerolog.Logger
	clock func() time.Time
}

// Open initializes the backend, creating the data directory and schema as
// needed.
func Open(ctx context.Context, cfg Config, log zerolog.Logger) (*Backend, error) {
	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	b := &Backend{db: db, log: log, clock: time.Now}
	if err := b.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

func (b *Backend) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS transcript_versions (
    transcript_id TEXT NOT NULL,
    version INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    changes TEXT NOT NULL DEFAULT '',
    document BLOB NOT NULL,
    PRIMARY KEY (transcript_id, version)
);
CREATE INDEX IF NOT EXISTS idx_versions_transcript ON transcript_versions(transcript_id, version);
`
	if _, err := b.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Close releases underlying resources.
func (b *Backend) Close() error {
	return b.db.Close()
}

// ListVersions returns all versions for a transcript ordered ascending.
func (b *Backend) ListVersions(ctx context.Context, transcriptID string) ([]models.Version, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT version, created_at, changes, document
		 FROM transcript_versions WHERE transcript_id = ? ORDER BY version ASC`, transcriptID)
	if err != nil {
		return nil, &versionstore.TransportError{Op: "list", Err: err, Transient: true}
	}
	defer rows.Close()

	var versions []models.Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, &versionstore.TransportError{Op: "list", Err: err, Transient: true}
	}
	return versions, nil
}

// LoadVersion returns one version, or versionstore.ErrVersionNotFound.
func (b *Backend) LoadVersion(ctx context.Context, transcriptID string, version int) (*models.Version, error) {
	row := b.db.QueryRowContext(ctx,
		`SELECT version, created_at, changes, document
		 FROM transcript_versions WHERE transcript_id = ? AND version = ?`, transcriptID, version)
	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, versionstore.ErrVersionNotFound
	}
	return v, err
}

// LoadLatest returns the highest-numbered version, or
// versionstore.ErrNoVersions.
func (b *Backend) LoadLatest(ctx context.Context, transcriptID string) (*models.Version, error) {
	row := b.db.QueryRowContext(ctx,
		`SELECT version, created_at, changes, document
		 FROM transcript_versions WHERE transcript_id = ? ORDER BY version DESC LIMIT 1`, transcriptID)
	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, versionstore.ErrNoVersions
	}
	return v, err
}

// SaveVersion assigns the next version number and stores the document. With
// an expected parent, the save fails with versionstore.ErrVersionConflict
// when a concurrent writer got there first.
func (b *Backend) SaveVersion(ctx context.Context, transcriptID string, doc *models.RecognizerDocument, changes string, expectedParent int) (*models.Version, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &versionstore.TransportError{Op: "save", Err: err, Transient: true}
	}
	defer tx.Rollback()

	var latest sql.NullInt64
	if err := tx.QueryRowContext(ctx,
		`SELECT MAX(version) FROM transcript_versions WHERE transcript_id = ?`, transcriptID).Scan(&latest); err != nil {
		return nil, &versionstore.TransportError{Op: "save", Err: err, Transient: true}
	}

	parent := -1
	if latest.Valid {
		parent = int(latest.Int64)
	}
	if expectedParent != versionstore.SkipParentCheck && parent != expectedParent {
		return nil, fmt.Errorf("latest is %d, expected %d: %w", parent, expectedParent, versionstore.ErrVersionConflict)
	}

	next := parent + 1
	created := b.clock().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO transcript_versions(transcript_id, version, created_at, changes, document)
		 VALUES(?, ?, ?, ?, ?)`, transcriptID, next, created, changes, payload); err != nil {
		return nil, &versionstore.TransportError{Op: "save", Err: err, Transient: true}
	}
	if err := tx.Commit(); err != nil {
		return nil, &versionstore.TransportError{Op: "save", Err: err, Transient: true}
	}

	b.log.Debug().Str("transcriptId", transcriptID).Int("version", next).Msg("version row inserted")

	return &models.Version{
		Version:   next,
		Timestamp: created,
		Changes:   changes,
		Document:  *doc.Clone(),
	}, nil
}

// DeleteVersion removes one version row, or returns
// versionstore.ErrVersionNotFound.
func (b *Backend) DeleteVersion(ctx context.Context, transcriptID string, version int) error {
	res, err := b.db.ExecContext(ctx,
		`DELETE FROM transcript_versions WHERE transcript_id = ? AND version = ?`, transcriptID, version)
	if err != nil {
		return &versionstore.TransportError{Op: "delete", Err: err, Transient: true}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return &versionstore.TransportError{Op: "delete", Err: err, Transient: true}
	}
	if affected == 0 {
		return versionstore.ErrVersionNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVersion(row scanner) (*models.Version, error) {
	var v models.Version
	var payload []byte
	if err := row.Scan(&v.Version, &v.Timestamp, &v.Changes, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, &versionstore.TransportError{Op: "scan", Err: err, Transient: false}
	}
	if err := json.Unmarshal(payload, &v.Document); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return &v, nil
}
