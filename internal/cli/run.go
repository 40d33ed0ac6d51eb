package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/slizzai/slizzai/pkg/cache"
	"github.com/slizzai/slizzai/pkg/config"
	"github.com/slizzai/slizzai/pkg/enhance"
	"github.com/slizzai/slizzai/pkg/errors"
	"github.com/slizzai/slizzai/pkg/geometry"
	"github.com/slizzai/slizzai/pkg/observability"
	"github.com/slizzai/slizzai/pkg/pipeline"
	"github.com/slizzai/slizzai/pkg/render"
	"github.com/slizzai/slizzai/pkg/store"
)

// diagnosticsFile is written to the output directory after every run.
const diagnosticsFile = "diagnostics.json"

// runOptions holds the command-line overrides for a run.
type runOptions struct {
	output    string
	tiles     int
	workers   int
	startTile int
	noCache   bool
	tui       bool
	local     bool
}

// runCommand creates the run command.
func (c *CLI) runCommand() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Produce raw and enhanced tiles until done or out of budget",
		Long: `Run the tile pipeline described by the configuration file.

Each tile is assigned the next coordinate of the Fibonacci sequence, its
geometry payload is verified through the quantized codec, the simulated
water usage is charged, and the tile is rendered and enhanced. The run stops
early when the water budget is spent, an external service fails for good, or
the run is interrupted. Finished tiles are kept on every outcome.`,
		Example: `  slizzai run -c slizzai.yaml
  slizzai run --tiles 8 --workers 4 --output out/
  slizzai run --start-tile 12      # resume after tile 11
  slizzai run --local --tui        # in-process upscaler with live progress`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if err := opts.apply(cmd, cfg); err != nil {
				return err
			}
			return c.runPipeline(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output directory (overrides output_dir)")
	cmd.Flags().IntVarP(&opts.tiles, "tiles", "n", 0, "number of tiles (overrides num_tiles)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "concurrent tiles (overrides workers)")
	cmd.Flags().IntVar(&opts.startTile, "start-tile", 0, "first tile index, for resuming a run")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render and enhancement caches")
	cmd.Flags().BoolVar(&opts.tui, "tui", false, "show live progress")
	cmd.Flags().BoolVar(&opts.local, "local", false, "enhance in-process instead of calling super_sampler_url")

	return cmd
}

// apply copies the flags the user set onto cfg and revalidates it.
func (o runOptions) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := false
	if cmd.Flags().Changed("output") {
		cfg.OutputDir, changed = o.output, true
	}
	if cmd.Flags().Changed("tiles") {
		n := o.tiles
		cfg.NumTiles, changed = &n, true
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers, changed = o.workers, true
	}
	if !changed {
		return nil
	}
	return cfg.Validate()
}

// runPipeline wires the collaborators, runs the orchestrator and records
// the outcome.
func (c *CLI) runPipeline(ctx context.Context, cfg *config.Config, ro runOptions) error {
	counter := &cacheCounter{}
	keyer := cache.WithPrefix(nil, cfg.Cache.Prefix)

	cc, err := c.openCache(ctx, cfg, ro.noCache)
	if err != nil {
		return err
	}
	defer cc.Close()

	var enhancer enhance.Enhancer
	endpoint := "local"
	if ro.local {
		enhancer = enhance.Upscaler{Factor: enhance.DefaultFactor}
	} else {
		client, err := enhance.NewClient(cfg.SuperSamplerURL,
			enhance.WithTimeout(time.Duration(cfg.CallTimeout*float64(time.Second))),
			enhance.WithHooks(logHTTPHooks{logger: c.Logger}),
		)
		if err != nil {
			return err
		}
		enhancer, endpoint = client, client.Endpoint()
	}

	collab := pipeline.Collaborators{
		Geometry: geometry.Uniform{Size: cfg.Geometry.Size, Seed: cfg.Geometry.Seed},
		Render: render.NewCached(render.Procedural{Size: cfg.TileSize}, cc, keyer,
			cache.RenderKeyOpts{Size: cfg.TileSize, Renderer: render.Name}, 0, counter),
		Enhance: enhance.NewCached(enhancer, cc, keyer,
			cache.EnhanceKeyOpts{Endpoint: endpoint, Factor: enhance.DefaultFactor}, cfg.CacheTTL(), counter),
	}

	diag := observability.NewDiagnostics()
	opts := cfg.Pipeline()
	opts.StartTile = ro.startTile
	opts.Logger = c.Logger
	opts.Hooks = diag

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var prog *tea.Program
	if ro.tui {
		prog = tea.NewProgram(NewRunModel(*cfg.NumTiles, cfg.WaterLimit, cancel), tea.WithContext(ctx))
		opts.Hooks = observability.MultiPipeline(diag, tuiHooks{send: prog.Send})
		opts.Logger = newLogger(io.Discard, c.Logger.GetLevel())
	}

	orch, err := pipeline.New(opts, collab)
	if err != nil {
		return err
	}

	var report *pipeline.Report
	var runErr error
	if prog != nil {
		done := make(chan struct{})
		go func() {
			defer close(done)
			report, runErr = orch.Run(runCtx)
			prog.Send(runDoneMsg{state: orch.State().String(), err: runErr})
		}()
		if _, err := prog.Run(); err != nil {
			cancel()
		}
		<-done
	} else {
		report, runErr = orch.Run(runCtx)
	}
	if report == nil {
		return runErr
	}

	if err := diag.Save(filepath.Join(report.OutputDir, diagnosticsFile)); err != nil {
		c.Logger.Warn("could not write diagnostics", "err", err)
	}
	c.saveRecord(ctx, cfg, report.Record())

	printRunSummary(report, int(counter.hits.Load()))
	if runErr == nil && report.NumTiles > 0 {
		printNewline()
		printNextStep("Inspect the run", fmt.Sprintf("%s runs show %s", appName, report.RunID))
	}
	return runErr
}

// saveRecord persists a run record. Failures are logged; the tiles on disk
// are the primary output.
func (c *CLI) saveRecord(ctx context.Context, cfg *config.Config, rec *store.Record) {
	ctx = context.WithoutCancel(ctx)
	s, err := c.openStore(ctx, cfg)
	if err != nil {
		c.Logger.Warn("could not open run store", "err", err)
		return
	}
	if s == nil {
		return
	}
	defer s.Close()
	if err := s.Save(ctx, rec); err != nil {
		c.Logger.Warn("could not save run record", "run", rec.ID, "err", err)
		return
	}
	c.Logger.Debug("saved run record", "run", rec.ID)
}

// printRunSummary prints the outcome, the files written and the ledger.
func printRunSummary(r *pipeline.Report, cacheHits int) {
	switch {
	case r.State == pipeline.StateCompleted:
		printSuccess("Run %s completed", r.RunID)
	case r.AbortCode == errors.ErrCodeInterrupted:
		printWarning("Run %s interrupted", r.RunID)
	default:
		printError("Run %s aborted: %s", r.RunID, r.AbortCode)
	}
	printRunStats(r.Completed, r.NumTiles, r.Stats.Retries, r.Stats.TilesPerSecond, cacheHits)

	if n := len(r.Tiles); n > 0 {
		last := r.Tiles[n-1]
		printFile(last.RawPath)
		printFile(last.FinalPath)
		if n > 1 {
			printDetail("and %d earlier tile pairs in %s", n-1, r.OutputDir)
		}
	}
	printKeyValue("water", formatLitres(r.Ledger.Used)+StyleDim.Render(" of ")+formatLitres(r.Ledger.Limit))
	if r.State == pipeline.StateAborted && r.LastTile >= 0 {
		printDetail("resume with --start-tile %d", r.LastTile+1)
	}
}
