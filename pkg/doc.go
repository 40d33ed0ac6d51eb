// Package pkg provides the core libraries for SlizzAi tile production.
//
// # Overview
//
// SlizzAi produces pairs of image tiles. Every tile gets a coordinate from a
// deterministic Fibonacci walk over the unit square, its geometry payload
// is checked through a quantized codec, a simulated cooling-water budget is
// charged, and the tile is rendered and then enhanced by a super-sampling
// service. A run stops at the first tile that exhausts the budget or fails
// for good, keeping everything produced so far.
//
// # Architecture
//
// The data flow of one tile:
//
//	[scheduler] (u, v)
//	     ↓
//	geometry source → [codec] round trip
//	     ↓
//	[budget] gate admits the tile
//	     ↓
//	[render] raw PNG → [enhance] final PNG
//	     ↓
//	tile_NNN.png, final_NNN.png
//
// [pipeline] drives the loop and owns the run state machine. Everything it
// talks to is injected through small interfaces so tests can substitute
// fakes.
//
// # Quick Start
//
//	cfg, _ := config.Load("slizzai.yaml")
//
//	opts := cfg.Pipeline()
//	opts.Logger = logger
//
//	orch, _ := pipeline.New(opts, pipeline.Collaborators{
//	    Geometry: geometry.Uniform{Seed: 7},
//	    Render:   render.Procedural{},
//	    Enhance:  enhance.Upscaler{},
//	})
//	report, err := orch.Run(ctx)
//
// # Main Packages
//
// ## Run Logic
//
// [pipeline] - The orchestrator: Begin, Tick and Run, sequential or with a
// bounded worker pool, and the final [pipeline.Report].
//
// [scheduler] - Fibonacci coordinate generator and Pisano period helpers.
//
// [codec] - Lossless-within-tolerance quantized float codec.
//
// [budget] - Water budget gate fed by a temperature signal (sysfs thermal
// zones or a constant).
//
// ## Collaborators
//
// [geometry] - Seeded reference geometry source.
//
// [render] - Reference procedural renderer and its cache wrapper.
//
// [render/timeline] - Graphviz timeline of a recorded run.
//
// [enhance] - Super-sampling client, local upscaler, HTTP handler and cache
// wrapper.
//
// ## Infrastructure
//
// [config] - TOML and YAML configuration with CUE schema validation.
//
// [cache] - File, Redis and null caches with SHA-256 keys.
//
// [store] - Run records on disk, in SQLite or in MongoDB.
//
// [observability] - Pipeline, cache and HTTP hooks plus a diagnostics recorder.
//
// [httputil] - Retry with exponential backoff and per-attempt timeouts.
//
// [errors] - Structured errors with machine-readable codes.
//
// # Testing
//
//	go test ./pkg/...                          # All tests
//	go test ./pkg/pipeline/...                 # Specific package
//	go test ./pkg/render/timeline -update      # Refresh golden files
//
// [pipeline]: https://pkg.go.dev/github.com/slizzai/slizzai/pkg/pipeline
// [pipeline.Report]: https://pkg.go.dev/github.com/slizzai/slizzai/pkg/pipeline#Report
// [scheduler]: https://pkg.go.dev/github.com/slizzai/slizzai/pkg/scheduler
// [codec]: https://pkg.go.dev/github.com/slizzai/slizzai/pkg/codec
// [budget]: https://pkg.go.dev/github.com/slizzai/slizzai/pkg/budget
// [geometry]: https://pkg.go.dev/github.com/slizzai/slizzai/pkg/geometry
// [render]: https://pkg.go.dev/github.com/slizzai/slizzai/pkg/render
// [render/timeline]: https://pkg.go.dev/github.com/slizzai/slizzai/pkg/render/timeline
// [enhance]: https://pkg.go.dev/github.com/slizzai/slizzai/pkg/enhance
// [config]: https://pkg.go.dev/github.com/slizzai/slizzai/pkg/config
// [cache]: https://pkg.go.dev/github.com/slizzai/slizzai/pkg/cache
// [store]: https://pkg.go.dev/github.com/slizzai/slizzai/pkg/store
// [observability]: https://pkg.go.dev/github.com/slizzai/slizzai/pkg/observability
// [httputil]: https://pkg.go.dev/github.com/slizzai/slizzai/pkg/httputil
// [errors]: https://pkg.go.dev/github.com/slizzai/slizzai/pkg/errors
package pkg
