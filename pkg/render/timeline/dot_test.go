package timeline

import (
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"

	"github.com/slizzai/slizzai/pkg/store"
)

func newGolden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestToDOTAborted(t *testing.T) {
	rec := &store.Record{
		ID:        "0192aaaa-bbbb-7ccc-8ddd-eeeeffff0001",
		State:     "aborted",
		Modulus:   100,
		NumTiles:  3,
		Completed: 1,
		LastTile:  0,
		Used:      0.00025,
		Limit:     0.0002,
		AbortCode: "BUDGET_EXCEEDED",
		Tiles: []store.Tile{
			{Index: 0, U: 0.01, V: 0.01, Raw: "/out/tile_000.png", Final: "/out/final_000.png"},
		},
	}
	newGolden(t).Assert(t, "aborted", []byte(ToDOT(rec, Options{})))
}

func TestToDOTCompletedDetailed(t *testing.T) {
	rec := &store.Record{
		ID:        "run-1",
		State:     "completed",
		Modulus:   100,
		NumTiles:  2,
		Completed: 2,
		LastTile:  1,
		Used:      0.0005,
		Limit:     1,
		Tiles: []store.Tile{
			{Index: 0, U: 0.01, V: 0.01, Final: "/out/final_000.png", Duration: 12 * time.Millisecond},
			{Index: 1, U: 0.01, V: 0.02, Final: "/out/final_001.png", Duration: 8 * time.Millisecond},
		},
	}
	newGolden(t).Assert(t, "completed_detailed", []byte(ToDOT(rec, Options{Detailed: true})))
}

func TestToDOTNoTiles(t *testing.T) {
	dot := ToDOT(&store.Record{ID: "r", State: "aborted", AbortCode: "INTERRUPTED", LastTile: -1}, Options{})
	assert.Contains(t, dot, "start -> end;")
	assert.Contains(t, dot, "last tile -1")
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	assert.True(t, strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50">`), out)

	plain := []byte("<svg><g/></svg>")
	assert.Equal(t, plain, normalizeViewBox(plain))
}
