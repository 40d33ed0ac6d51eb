package cli

import (
	"context"
	stderrors "errors"

	"github.com/slizzai/slizzai/pkg/errors"
)

// Exit statuses.
const (
	ExitOK          = 0
	ExitFailure     = 1   // aborted run or any other error
	ExitConfig      = 2   // invalid configuration or arguments
	ExitService     = 3   // network or remote service failure
	ExitInterrupted = 130 // SIGINT convention
)

// ExitCode maps a command error onto a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidInput,
		errors.ErrCodeInvalidPath, errors.ErrCodeInvalidURL:
		return ExitConfig
	case errors.ErrCodeTransientService, errors.ErrCodeService,
		errors.ErrCodeNetwork, errors.ErrCodeTimeout, errors.ErrCodeRateLimited:
		return ExitService
	case errors.ErrCodeInterrupted:
		return ExitInterrupted
	case "":
		if stderrors.Is(err, context.Canceled) {
			return ExitInterrupted
		}
	}
	return ExitFailure
}
