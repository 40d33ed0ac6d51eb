package timeline

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/goccy/go-graphviz"

	"github.com/slizzai/slizzai/pkg/store"
)

// Options configures timeline rendering.
type Options struct {
	// Detailed adds file names and per-tile durations to labels.
	Detailed bool
}

// ToDOT converts a run record to Graphviz DOT.
func ToDOT(rec *store.Record, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph run {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14];\n")
	buf.WriteString("\n")

	fmt.Fprintf(&buf, "  start [label=%q, shape=oval, fillcolor=lightgrey];\n",
		fmt.Sprintf("run %s\n%d tiles, M=%d", shortID(rec.ID), rec.NumTiles, rec.Modulus))

	prev := "start"
	for _, t := range rec.Tiles {
		id := fmt.Sprintf("t%03d", t.Index)
		fmt.Fprintf(&buf, "  %s [label=%q];\n", id, tileLabel(t, opts.Detailed))
		fmt.Fprintf(&buf, "  %s -> %s;\n", prev, id)
		prev = id
	}

	fmt.Fprintf(&buf, "  end [label=%q, shape=oval, %s];\n", endLabel(rec), endStyle(rec))
	fmt.Fprintf(&buf, "  %s -> end;\n", prev)
	buf.WriteString("}\n")
	return buf.String()
}

func tileLabel(t store.Tile, detailed bool) string {
	label := fmt.Sprintf("tile %d\nu=%.4f v=%.4f", t.Index, t.U, t.V)
	if detailed {
		label += fmt.Sprintf("\n%s\n%s", t.Duration.Round(time.Millisecond), filepath.Base(t.Final))
	}
	return label
}

func endLabel(rec *store.Record) string {
	if rec.AbortCode == "" {
		return fmt.Sprintf("%s\nused %.6g of %.6g", rec.State, rec.Used, rec.Limit)
	}
	return fmt.Sprintf("%s: %s\nlast tile %d\nused %.6g of %.6g", rec.State, rec.AbortCode, rec.LastTile, rec.Used, rec.Limit)
}

func endStyle(rec *store.Record) string {
	if rec.AbortCode == "" {
		return "fillcolor=palegreen"
	}
	return "fillcolor=lightpink, color=red"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[len(id)-8:]
	}
	return id
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
