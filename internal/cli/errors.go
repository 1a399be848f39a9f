package cli

import (
	"errors"
	"fmt"

	"github.com/rshade/greenledger/internal/activity"
	"github.com/rshade/greenledger/internal/factors"
	"github.com/rshade/greenledger/internal/goals"
	"github.com/rshade/greenledger/internal/rewards"
	"github.com/rshade/greenledger/internal/store"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitInvalid = 2
	// ExitConflict reports that another process saved a record this run
	// changed. Nothing was written; rerunning the command is safe.
	ExitConflict = 3
)

// usageError marks bad flag combinations so they map to ExitInvalid.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func newUsageError(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// ExitCode maps a command error to a process exit code. Rejected input
// (usage mistakes, invalid activity data, invalid goals, unknown factor
// versions and rejected ledger operations) exits with ExitInvalid.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ue *usageError
	switch {
	case errors.Is(err, store.ErrStateConflict):
		return ExitConflict
	case errors.As(err, &ue),
		errors.Is(err, activity.ErrValidation),
		errors.Is(err, goals.ErrValidation),
		errors.Is(err, factors.ErrUnknownVersion),
		errors.Is(err, rewards.ErrInvalidAmount),
		errors.Is(err, rewards.ErrInsufficientFunds),
		errors.Is(err, rewards.ErrNotEligible),
		errors.Is(err, rewards.ErrUnknownItem):
		return ExitInvalid
	default:
		return ExitFailure
	}
}
