package observability

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Event is one diagnostics record.
type Event struct {
	Time   time.Time      `json:"time"`
	Kind   string         `json:"kind"`
	Tile   *int           `json:"tile,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

// Event kinds.
const (
	EventRunStart     = "run_start"
	EventRunComplete  = "run_complete"
	EventTileStart    = "tile_start"
	EventTileComplete = "tile_complete"
	EventRetry        = "retry"
	EventBudget       = "budget"
)

// Diagnostics records pipeline events in memory and writes them out as
// JSON. It is safe for concurrent use.
type Diagnostics struct {
	NoopPipelineHooks

	mu     sync.Mutex
	events []Event
	now    func() time.Time
}

// NewDiagnostics creates an empty recorder.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{now: time.Now}
}

// Record appends an event. A negative tile means the event is run-wide.
func (d *Diagnostics) Record(kind string, tile int, fields map[string]any) {
	e := Event{Kind: kind, Fields: fields}
	if tile >= 0 {
		e.Tile = &tile
	}
	d.mu.Lock()
	e.Time = d.now()
	d.events = append(d.events, e)
	d.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (d *Diagnostics) Events() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Event(nil), d.events...)
}

// Save writes {"events": [...]} to path, creating parent directories.
func (d *Diagnostics) Save(path string) error {
	d.mu.Lock()
	doc := struct {
		Events []Event `json:"events"`
	}{Events: append([]Event{}, d.events...)}
	d.mu.Unlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (d *Diagnostics) OnRunStart(_ context.Context, runID string, tiles int) {
	d.Record(EventRunStart, -1, map[string]any{"run_id": runID, "tiles": tiles})
}

func (d *Diagnostics) OnRunComplete(_ context.Context, runID, state string, completed int, dur time.Duration, err error) {
	f := map[string]any{
		"run_id":      runID,
		"state":       state,
		"completed":   completed,
		"duration_ms": dur.Milliseconds(),
	}
	if err != nil {
		f["error"] = err.Error()
	}
	d.Record(EventRunComplete, -1, f)
}

func (d *Diagnostics) OnTileStart(_ context.Context, tile int, u, v float64) {
	d.Record(EventTileStart, tile, map[string]any{"u": u, "v": v})
}

func (d *Diagnostics) OnTileComplete(_ context.Context, tile int, dur time.Duration, err error) {
	f := map[string]any{"duration_ms": dur.Milliseconds()}
	if err != nil {
		f["error"] = err.Error()
	}
	d.Record(EventTileComplete, tile, f)
}

func (d *Diagnostics) OnRetry(_ context.Context, tile int, stage string, attempt int, err error) {
	f := map[string]any{"stage": stage, "attempt": attempt}
	if err != nil {
		f["error"] = err.Error()
	}
	d.Record(EventRetry, tile, f)
}

func (d *Diagnostics) OnBudget(_ context.Context, tile int, used, limit float64) {
	d.Record(EventBudget, tile, map[string]any{"used": used, "limit": limit})
}

var _ PipelineHooks = (*Diagnostics)(nil)
