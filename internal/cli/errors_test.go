package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rshade/greenledger/internal/activity"
	"github.com/rshade/greenledger/internal/factors"
	"github.com/rshade/greenledger/internal/goals"
	"github.com/rshade/greenledger/internal/rewards"
	"github.com/rshade/greenledger/internal/store"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"usage", newUsageError("--user is required"), ExitInvalid},
		{"wrapped usage", fmt.Errorf("calc: %w", newUsageError("bad")), ExitInvalid},
		{"activity", &activity.ValidationError{Category: "transport", Reason: "negative"}, ExitInvalid},
		{"goal", &goals.ValidationError{Field: "timeframe", Reason: "unknown"}, ExitInvalid},
		{"factor version", fmt.Errorf("resolve: %w", factors.ErrUnknownVersion), ExitInvalid},
		{"insufficient funds", rewards.ErrInsufficientFunds, ExitInvalid},
		{"not eligible", rewards.ErrNotEligible, ExitInvalid},
		{"unknown item", rewards.ErrUnknownItem, ExitInvalid},
		{"invalid amount", rewards.ErrInvalidAmount, ExitInvalid},
		{"state conflict", fmt.Errorf("saving state: %w", store.ErrStateConflict), ExitConflict},
		{"corrupted store", fmt.Errorf("opening store: %w", store.ErrStoreCorrupted), ExitFailure},
		{"other", errors.New("boom"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
