package pipeline

import (
	"time"

	"github.com/slizzai/slizzai/pkg/budget"
	"github.com/slizzai/slizzai/pkg/errors"
	"github.com/slizzai/slizzai/pkg/scheduler"
	"github.com/slizzai/slizzai/pkg/store"
)

// TileOutput is one completed tile pair.
type TileOutput struct {
	Index        int           `json:"index"`
	UV           scheduler.UV  `json:"uv"`
	RawPath      string        `json:"raw_path"`
	FinalPath    string        `json:"final_path"`
	MaxDeviation float64       `json:"max_deviation"`
	Duration     time.Duration `json:"duration"`
}

// Stats contains timing and retry statistics for a run.
type Stats struct {
	Duration       time.Duration `json:"duration"`
	TilesPerSecond float64       `json:"tiles_per_second"`
	MeanTile       time.Duration `json:"mean_tile"`
	Retries        int           `json:"retries"`
}

// Report is the outcome of a run. Tiles are ordered by index.
type Report struct {
	RunID     string        `json:"run_id"`
	State     State         `json:"-"`
	NumTiles  int           `json:"num_tiles"`
	Modulus   uint64        `json:"modulus"`
	OutputDir string        `json:"output_dir"`
	Tiles     []TileOutput  `json:"tiles"`
	Completed int           `json:"completed"`
	LastTile  int           `json:"last_tile"`
	Ledger    budget.Ledger `json:"ledger"`
	AbortCode errors.Code   `json:"abort_code,omitempty"`
	Err       error         `json:"-"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Stats      Stats     `json:"stats"`
}

// Record converts the report into its persisted form.
func (r *Report) Record() *store.Record {
	rec := &store.Record{
		ID:         r.RunID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		State:      r.State.String(),
		OutputDir:  r.OutputDir,
		Modulus:    r.Modulus,
		NumTiles:   r.NumTiles,
		Completed:  r.Completed,
		LastTile:   r.LastTile,
		Used:       r.Ledger.Used,
		Limit:      r.Ledger.Limit,
		AbortCode:  string(r.AbortCode),
	}
	if r.Err != nil {
		rec.Error = r.Err.Error()
	}
	for _, t := range r.Tiles {
		rec.Tiles = append(rec.Tiles, store.Tile{
			Index:    t.Index,
			U:        t.UV.U,
			V:        t.UV.V,
			Raw:      t.RawPath,
			Final:    t.FinalPath,
			Duration: t.Duration,
		})
	}
	return rec
}

func computeStats(tiles []TileOutput, retries int, elapsed time.Duration) Stats {
	s := Stats{Duration: elapsed, Retries: retries}
	if len(tiles) == 0 {
		return s
	}
	var total time.Duration
	for _, t := range tiles {
		total += t.Duration
	}
	s.MeanTile = total / time.Duration(len(tiles))
	if elapsed > 0 {
		s.TilesPerSecond = float64(len(tiles)) / elapsed.Seconds()
	}
	return s
}
