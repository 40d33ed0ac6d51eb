package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/slizzai/slizzai/pkg/config"
	"github.com/slizzai/slizzai/pkg/render/timeline"
	"github.com/slizzai/slizzai/pkg/store"
)

const defaultListLimit = 20

// runsCommand groups commands that read persisted run records.
func (c *CLI) runsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List and inspect past runs",
	}
	cmd.AddCommand(c.runsListCommand())
	cmd.AddCommand(c.runsShowCommand())
	return cmd
}

func (c *CLI) runsListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.queryStore(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			recs, err := s.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				printInfo("No runs recorded yet")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), runsTable(recs, time.Now()))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultListLimit, "maximum number of runs")
	return cmd
}

func (c *CLI) runsShowCommand() *cobra.Command {
	var (
		svgPath  string
		dot      bool
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and draw its tile timeline",
		Example: `  slizzai runs show 0192f1c4-...
  slizzai runs show 0192f1c4-... --svg timeline.svg --detailed
  slizzai runs show 0192f1c4-... --dot | dot -Tpng > timeline.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.queryStore(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			rec, err := s.Get(ctx, args[0])
			if err != nil {
				return err
			}

			opts := timeline.Options{Detailed: detailed}
			if dot {
				fmt.Fprint(cmd.OutOrStdout(), timeline.ToDOT(rec, opts))
				return nil
			}

			printRecord(rec)
			if svgPath == "" {
				return nil
			}

			err = withSpinner(ctx, "Drawing timeline...", "Timeline written", "Drawing failed", func(ctx context.Context) error {
				svg, err := timeline.RenderSVG(ctx, timeline.ToDOT(rec, opts))
				if err != nil {
					return err
				}
				return os.WriteFile(svgPath, svg, 0o644)
			})
			if err != nil {
				return err
			}
			printFile(svgPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&svgPath, "svg", "", "write the timeline as SVG to this file")
	cmd.Flags().BoolVar(&dot, "dot", false, "print the timeline as Graphviz DOT and exit")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "label tiles with coordinates and durations")
	return cmd
}

// queryStore opens the run store. Reading runs does not need a complete
// configuration, so defaults are used when no file exists.
func (c *CLI) queryStore(cmd *cobra.Command) (store.Store, error) {
	cfg, err := c.queryConfig()
	if err != nil {
		return nil, err
	}
	s, err := c.openStore(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("run records are disabled (store.backend = %s)", config.StoreNone)
	}
	return s, nil
}

func (c *CLI) queryConfig() (*config.Config, error) {
	if c.configPath == "" {
		if _, err := os.Stat(defaultConfigFile); os.IsNotExist(err) {
			cfg := &config.Config{}
			cfg.SetDefaults()
			return cfg, nil
		}
	}
	return c.loadConfig()
}

// =============================================================================
// Formatting
// =============================================================================

func runsTable(recs []*store.Record, now time.Time) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(StyleDim).
		Headers("RUN", "STARTED", "STATE", "TILES", "WATER", "DURATION").
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return style.Bold(true).Foreground(colorGray)
			}
			if col == 2 && row >= 0 && row < len(recs) {
				if recs[row].State == "completed" {
					return style.Foreground(colorGreen)
				}
				return style.Foreground(colorRed)
			}
			return style
		})

	for _, r := range recs {
		t.Row(
			shortRunID(r.ID),
			formatRelativeTime(r.StartedAt, now),
			stateLabel(r),
			fmt.Sprintf("%d/%d", r.Completed, r.NumTiles),
			formatLitres(r.Used),
			r.Duration().Round(time.Millisecond).String(),
		)
	}
	return t.Render()
}

func printRecord(r *store.Record) {
	fmt.Fprintln(stdout, StyleTitle.Render("Run "+r.ID))
	printNewline()
	printKeyValue("state", stateLabel(r))
	printKeyValue("started", r.StartedAt.Local().Format(time.DateTime))
	printKeyValue("duration", r.Duration().Round(time.Millisecond).String())
	printKeyValue("output", r.OutputDir)
	printKeyValue("tiles", fmt.Sprintf("%d/%d", r.Completed, r.NumTiles))
	printKeyValue("last tile", strconv.Itoa(r.LastTile))
	printKeyValue("modulus", numbers.Sprintf("%d", r.Modulus))
	printKeyValue("water", formatLitres(r.Used)+StyleDim.Render(" of ")+formatLitres(r.Limit))
	if r.Error != "" {
		printKeyValue("error", r.Error)
	}
}

func stateLabel(r *store.Record) string {
	if r.AbortCode != "" {
		return r.State + " (" + r.AbortCode + ")"
	}
	return r.State
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatRelativeTime formats t relative to now for display.
func formatRelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		m := int(d.Minutes())
		if m == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", m)
	case d < 24*time.Hour:
		h := int(d.Hours())
		if h == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", h)
	case d < 30*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "yesterday"
		}
		return fmt.Sprintf("%d days ago", days)
	}
	return t.Format("Jan 2, 2006")
}
