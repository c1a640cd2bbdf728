package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go, no CGO)
)

// Catalog provides SQLite persistence for the recordings index. The
// frame stream itself lives in the FrameStore; the catalog exists so
// listing and filtering recordings does not touch Badger.
type Catalog struct {
	db *sql.DB
}

// NewCatalog initializes the catalog and runs migrations.
// busy_timeout avoids "database locked" errors under concurrent reads.
func NewCatalog(dbPath string) (*Catalog, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping catalog: %w", err)
	}

	c := &Catalog{db: db}
	if err := c.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return c, nil
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS recordings (
		id TEXT PRIMARY KEY,
		controller TEXT NOT NULL,
		started_at TEXT NOT NULL,
		stopped_at TEXT,
		frames INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'recording' CHECK(status IN ('recording', 'done'))
	);

	CREATE INDEX IF NOT EXISTS idx_recordings_controller ON recordings(controller);
	CREATE INDEX IF NOT EXISTS idx_recordings_started ON recordings(started_at);
	`
	_, err := c.db.Exec(schema)
	return err
}

// Insert registers a newly started recording.
func (c *Catalog) Insert(ctx context.Context, meta Meta) error {
	query := `
	INSERT INTO recordings (id, controller, started_at, status)
	VALUES (?, ?, ?, ?)
	`
	_, err := c.db.ExecContext(ctx, query,
		meta.ID, meta.Controller, meta.StartedAt.UTC().Format(time.RFC3339Nano), StatusRecording)
	return err
}

// Finish marks a recording done with its final frame count.
func (c *Catalog) Finish(ctx context.Context, id string, stoppedAt time.Time, frames uint64) error {
	query := `
	UPDATE recordings SET stopped_at = ?, frames = ?, status = ?
	WHERE id = ?
	`
	res, err := c.db.ExecContext(ctx, query,
		stoppedAt.UTC().Format(time.RFC3339Nano), frames, StatusDone, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Get retrieves a single recording by ID. ErrNotFound for unknown IDs.
func (c *Catalog) Get(ctx context.Context, id string) (Meta, error) {
	query := `
	SELECT id, controller, started_at, stopped_at, frames, status
	FROM recordings
	WHERE id = ?
	`
	meta, err := scanMeta(c.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Meta{}, ErrNotFound
	}
	return meta, err
}

// List retrieves all recordings, newest first.
func (c *Catalog) List(ctx context.Context) ([]Meta, error) {
	query := `
	SELECT id, controller, started_at, stopped_at, frames, status
	FROM recordings
	ORDER BY started_at DESC
	`
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var metas []Meta
	for rows.Next() {
		meta, err := scanMeta(rows)
		if err != nil {
			return nil, err
		}
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

// Delete removes a recording from the catalog.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM recordings WHERE id = ?`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeta(row rowScanner) (Meta, error) {
	var meta Meta
	var startedStr string
	var stoppedStr sql.NullString

	if err := row.Scan(&meta.ID, &meta.Controller, &startedStr, &stoppedStr, &meta.Frames, &meta.Status); err != nil {
		return Meta{}, err
	}

	started, err := time.Parse(time.RFC3339Nano, startedStr)
	if err != nil {
		return Meta{}, fmt.Errorf("parse started_at: %w", err)
	}
	meta.StartedAt = started

	if stoppedStr.Valid {
		t, err := time.Parse(time.RFC3339Nano, stoppedStr.String)
		if err == nil {
			meta.StoppedAt = &t
		}
	}
	return meta, nil
}
