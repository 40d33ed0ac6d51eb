// Package timeline renders a run record as a Graphviz diagram.
//
// Each completed tile becomes a box in index order, labelled with its
// coordinate and duration, between a start node and an end node that
// shows how the run ended. Aborted runs end in a red node naming the
// abort code and the ledger at the time of the abort.
//
//	dot := timeline.ToDOT(rec, timeline.Options{})
//	svg, err := timeline.RenderSVG(ctx, dot)
//
// [ToDOT] is pure and deterministic, so its output can be compared
// against golden files; [RenderSVG] needs the embedded Graphviz runtime.
package timeline
