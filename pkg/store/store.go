// Package store persists run records.
//
// Every run that reaches a terminal state is saved with its ledger and
// the index of the last completed tile, so an operator can audit an
// aborted run or resume it from where it stopped. Three backends
// implement [Store]:
//
//   - [FileStore]: one JSON file per run, the CLI default
//   - [SQLiteStore]: a single database file, for hosts that keep history
//   - [MongoStore]: shared history across pipeline hosts
package store

import (
	"context"
	"time"

	"github.com/slizzai/slizzai/pkg/errors"
)

// Record is the persisted summary of one run.
type Record struct {
	ID         string    `json:"id" bson:"_id"`
	StartedAt  time.Time `json:"started_at" bson:"started_at"`
	FinishedAt time.Time `json:"finished_at" bson:"finished_at"`
	State      string    `json:"state" bson:"state"`
	OutputDir  string    `json:"output_dir" bson:"output_dir"`

	Modulus   uint64 `json:"modulus" bson:"modulus"`
	NumTiles  int    `json:"num_tiles" bson:"num_tiles"`
	Completed int    `json:"completed" bson:"completed"`
	LastTile  int    `json:"last_tile" bson:"last_tile"` // -1 when no tile completed

	Used  float64 `json:"used" bson:"used"`
	Limit float64 `json:"limit" bson:"limit"`

	AbortCode string `json:"abort_code,omitempty" bson:"abort_code,omitempty"`
	Error     string `json:"error,omitempty" bson:"error,omitempty"`

	Tiles []Tile `json:"tiles,omitempty" bson:"tiles,omitempty"`
}

// Tile is one completed tile of a run.
type Tile struct {
	Index    int           `json:"index" bson:"index"`
	U        float64       `json:"u" bson:"u"`
	V        float64       `json:"v" bson:"v"`
	Raw      string        `json:"raw" bson:"raw"`
	Final    string        `json:"final" bson:"final"`
	Duration time.Duration `json:"duration" bson:"duration"`
}

// Duration returns the wall time of the run.
func (r *Record) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store saves and loads run records.
type Store interface {
	// Save inserts or replaces the record with r.ID.
	Save(ctx context.Context, r *Record) error

	// Get returns the record with id, or a NOT_FOUND error.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns up to limit records, most recently started first.
	// A limit <= 0 returns all records.
	List(ctx context.Context, limit int) ([]*Record, error)

	Close() error
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "run %q not found", id)
}

func validate(r *Record) error {
	if r == nil || r.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "run record has no id")
	}
	return nil
}
