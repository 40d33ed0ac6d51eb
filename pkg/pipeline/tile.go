package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/slizzai/slizzai/pkg/codec"
	"github.com/slizzai/slizzai/pkg/errors"
	"github.com/slizzai/slizzai/pkg/httputil"
	"github.com/slizzai/slizzai/pkg/scheduler"
)

// RawName returns the file name of a tile's raw render.
func RawName(index int) string { return fmt.Sprintf("tile_%03d.png", index) }

// FinalName returns the file name of a tile's enhanced image.
func FinalName(index int) string { return fmt.Sprintf("final_%03d.png", index) }

// processTile runs the full sequence for one tile. Files are written only
// after both external calls succeed, so a failed tile leaves nothing
// behind.
func (o *Orchestrator) processTile(ctx context.Context, idx int) (*TileOutput, error) {
	uv := o.coords[idx]
	logger := o.log.With("tile", idx)
	start := time.Now()

	o.hooks.OnTileStart(ctx, idx, uv.U, uv.V)
	logger.Debug("tile started", "u", uv.U, "v", uv.V)

	out, err := o.produce(ctx, idx, uv)
	elapsed := time.Since(start)
	o.hooks.OnTileComplete(ctx, idx, elapsed, err)
	if err != nil {
		logger.Debug("tile failed", "err", err)
		return nil, err
	}
	out.Duration = elapsed

	logger.Info("tile complete", "u", uv.U, "v", uv.V, "duration", elapsed)
	return out, nil
}

func (o *Orchestrator) produce(ctx context.Context, idx int, uv scheduler.UV) (*TileOutput, error) {
	delta, err := o.collab.Geometry.Delta(ctx, idx, uv)
	if err != nil {
		return nil, serviceError(ctx, "geometry", err)
	}
	dev, err := codec.Verify(delta, o.opts.Tolerance)
	if err != nil {
		return nil, err
	}

	if err := o.gate.Admit(ctx); err != nil {
		return nil, err
	}
	ledger := o.gate.Ledger()
	o.hooks.OnBudget(ctx, idx, ledger.Used, ledger.Limit)
	o.log.Debug("budget charged", "tile", idx, "used", ledger.Used, "limit", ledger.Limit)

	raw, err := o.call(ctx, idx, "render", func(ctx context.Context) ([]byte, error) {
		return o.collab.Render.RenderTile(ctx, uv)
	})
	if err != nil {
		return nil, err
	}
	final, err := o.call(ctx, idx, "enhance", func(ctx context.Context) ([]byte, error) {
		return o.collab.Enhance.Enhance(ctx, raw)
	})
	if err != nil {
		return nil, err
	}

	out := &TileOutput{
		Index:        idx,
		UV:           uv,
		RawPath:      filepath.Join(o.opts.OutputDir, RawName(idx)),
		FinalPath:    filepath.Join(o.opts.OutputDir, FinalName(idx)),
		MaxDeviation: dev,
	}
	if err := writeFileAtomic(out.RawPath, raw); err != nil {
		return nil, err
	}
	if err := writeFileAtomic(out.FinalPath, final); err != nil {
		_ = os.Remove(out.RawPath)
		return nil, err
	}
	return out, nil
}

// call runs one external stage under the retry policy.
func (o *Orchestrator) call(ctx context.Context, idx int, stage string, fn func(context.Context) ([]byte, error)) ([]byte, error) {
	policy := o.opts.retryPolicy()
	policy.OnRetry = func(attempt int, err error) {
		o.mu.Lock()
		o.retries++
		o.mu.Unlock()
		o.log.Warn("retrying", "tile", idx, "stage", stage, "attempt", attempt, "err", err)
		o.hooks.OnRetry(ctx, idx, stage, attempt, err)
	}

	var data []byte
	err := httputil.Do(ctx, policy, func(ctx context.Context) error {
		b, err := fn(ctx)
		if err != nil {
			return err
		}
		if len(b) == 0 {
			return errors.New(errors.ErrCodeService, "%s returned an empty image", stage)
		}
		data = b
		return nil
	})
	if err != nil {
		return nil, serviceError(ctx, stage, err)
	}
	return data, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	return nil
}
