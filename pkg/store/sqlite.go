package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore keeps run records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite creates or opens the database at path and applies the
// schema. It is safe to call on an existing database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, r *Record) error {
	if err := validate(r); err != nil {
		return err
	}
	tiles, err := json.Marshal(r.Tiles)
	if err != nil {
		return fmt.Errorf("marshal tiles: %w", err)
	}
	if r.Tiles == nil {
		tiles = []byte("[]")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (
			id, started_at, finished_at, state, output_dir, modulus, num_tiles,
			completed, last_tile, used, water_limit, abort_code, error, tiles
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, unixNano(r.StartedAt), unixNano(r.FinishedAt), r.State, r.OutputDir,
		int64(r.Modulus), r.NumTiles, r.Completed, r.LastTile, r.Used, r.Limit,
		r.AbortCode, r.Error, string(tiles),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

const selectRun = `
	SELECT id, started_at, finished_at, state, output_dir, modulus, num_tiles,
	       completed, last_tile, used, water_limit, abort_code, error, tiles
	FROM runs`

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, selectRun+` WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	return r, err
}

func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*Record, error) {
	query := selectRun + ` ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*Record, error) {
	var (
		r                 Record
		started, finished int64
		modulus           int64
		tiles             string
	)
	err := sc.Scan(&r.ID, &started, &finished, &r.State, &r.OutputDir, &modulus, &r.NumTiles,
		&r.Completed, &r.LastTile, &r.Used, &r.Limit, &r.AbortCode, &r.Error, &tiles)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	r.StartedAt = fromUnixNano(started)
	r.FinishedAt = fromUnixNano(finished)
	r.Modulus = uint64(modulus)
	if err := json.Unmarshal([]byte(tiles), &r.Tiles); err != nil {
		return nil, fmt.Errorf("decode tiles of run %s: %w", r.ID, err)
	}
	if len(r.Tiles) == 0 {
		r.Tiles = nil
	}
	return &r, nil
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

var _ Store = (*SQLiteStore)(nil)
