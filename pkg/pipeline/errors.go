package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/slizzai/slizzai/pkg/budget"
	"github.com/slizzai/slizzai/pkg/errors"
	"github.com/slizzai/slizzai/pkg/httputil"
)

// AbortError ends an aborted run. It carries everything needed to audit
// the run or resume it with Options.StartTile = LastTile + 1.
//
// Ledger.Used includes the charge of every admitted tile, including a
// tile whose render or enhancement then failed: the gate charges a tile
// before its external calls start.
type AbortError struct {
	Reason    errors.Code
	LastTile  int // last tile of the completed prefix, -1 if none
	Completed int
	Ledger    budget.Ledger
	Err       error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("run aborted after tile %d (%d completed, used %.6g of %.6g): %v",
		e.LastTile, e.Completed, e.Ledger.Used, e.Ledger.Limit, e.Err)
}

func (e *AbortError) Unwrap() error { return e.Err }

// Code implements errors.Coder.
func (e *AbortError) Code() errors.Code { return e.Reason }

// reason picks the abort code for err.
func reason(err error) errors.Code {
	if code := errors.GetCode(err); code != "" {
		return code
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.ErrCodeInterrupted
	}
	return errors.ErrCodeInternal
}

// serviceError classifies a failed render or enhancement call.
// A retryable error that survived the retry policy is TRANSIENT_SERVICE;
// a coded error keeps its code; anything else is SERVICE_ERROR.
func serviceError(ctx context.Context, stage string, err error) error {
	if ctx.Err() != nil {
		return errors.Wrap(errors.ErrCodeInterrupted, ctx.Err(), "%s interrupted", stage)
	}
	if httputil.IsRetryable(err) {
		return errors.Wrap(errors.ErrCodeTransientService, err, "%s failed after retries", stage)
	}
	if errors.GetCode(err) != "" {
		return err
	}
	return errors.Wrap(errors.ErrCodeService, err, "%s failed", stage)
}
