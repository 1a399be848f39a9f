package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/greenledger/internal/goals"
	"github.com/rshade/greenledger/internal/logging"
	"github.com/rshade/greenledger/internal/rewards"
	"github.com/rshade/greenledger/internal/store"
)

// Earn credits tokens to the user's account.
func (e *Engine) Earn(ctx context.Context, userID string, amount int64, reason string) (rewards.Account, error) {
	acct, err := e.store.UpdateAccount(userID, func(a rewards.Account) (rewards.Account, error) {
		return e.ledger.Earn(a, amount, reason)
	})
	logLedger(ctx, err, "earn", userID, amount, acct.Balance)
	return acct, err
}

// redeemAttempts bounds the optimistic retries of Redeem.
const redeemAttempts = 8

// Redeem spends tokens on a catalog item. The ledger runs on a snapshot of
// the account and the result is stored with a compare-and-swap, retrying
// when another redemption got there first. On failure the stored account is
// unchanged and the returned account is the one the ledger saw.
func (e *Engine) Redeem(ctx context.Context, userID, itemID string) (rewards.Account, error) {
	item, err := e.catalog.Get(itemID)
	if err != nil {
		return rewards.Account{}, err
	}

	var acct rewards.Account
	for range redeemAttempts {
		current, version := e.store.Account(userID)
		acct, err = e.ledger.Redeem(current, item)
		if err != nil {
			break
		}
		if _, err = e.store.CompareAndSwapAccount(userID, version, acct); !errors.Is(err, store.ErrStateConflict) {
			break
		}
		acct = current
	}
	logLedger(ctx, err, "redeem", userID, item.Cost, acct.Balance)
	return acct, err
}

func logLedger(ctx context.Context, err error, op, userID string, amount, balance int64) {
	log := logging.FromContext(ctx)
	var ev *zerolog.Event
	if err != nil {
		ev = log.Warn().Err(err)
	} else {
		ev = log.Info()
	}
	ev.Ctx(ctx).
		Str("component", "engine").
		Str("operation", op).
		Str("user_id", userID).
		Int64("amount", amount).
		Int64("balance", balance).
		Msg("ledger event")
}

// Account returns the user's account.
func (e *Engine) Account(userID string) rewards.Account {
	a, _ := e.store.Account(userID)
	return a
}

// Tier returns the user's tier.
func (e *Engine) Tier(userID string) rewards.Tier {
	return e.ledger.Tier(e.Account(userID))
}

// CreateGoal captures the user's latest footprint as the baseline of a new
// goal.
func (e *Engine) CreateGoal(ctx context.Context, spec goals.Spec) (goals.Goal, error) {
	baseline, ok := e.store.LatestFootprint(spec.UserID)
	if !ok {
		return goals.Goal{}, fmt.Errorf("user %s: %w", spec.UserID, ErrNoBaseline)
	}
	g, err := e.tracker.Create(spec, baseline)
	if err != nil {
		return goals.Goal{}, err
	}
	if err := e.store.PutGoal(g); err != nil {
		return goals.Goal{}, err
	}

	logging.FromContext(ctx).Info().
		Ctx(ctx).
		Str("component", "engine").
		Str("operation", "create_goal").
		Str("goal_id", g.ID).
		Str("user_id", g.UserID).
		Float64("target_pct", g.TargetReductionPct).
		Msg("goal created")
	return g, nil
}

// Goals returns the user's goals.
func (e *Engine) Goals(userID string) []goals.Goal {
	return e.store.GoalsFor(userID)
}

// Remaining returns the time left before g's deadline, or 0.
func (e *Engine) Remaining(g goals.Goal) time.Duration {
	return e.tracker.Remaining(g)
}

// GoalUpdate is the outcome of evaluating one goal.
type GoalUpdate struct {
	Goal      goals.Goal
	Previous  goals.State
	Completed bool
	Reward    int64
}

// EvaluateGoals advances every active goal of the user against the latest
// footprint, or only checks deadlines when none is recorded. Goals that
// complete earn their milestone reward.
func (e *Engine) EvaluateGoals(ctx context.Context, userID string) ([]GoalUpdate, error) {
	latest, hasLatest := e.store.LatestFootprint(userID)

	var updates []GoalUpdate
	for _, g := range e.store.GoalsFor(userID) {
		if g.State.Terminal() {
			updates = append(updates, GoalUpdate{Goal: g, Previous: g.State})
			continue
		}

		var prev goals.State
		next, err := e.store.UpdateGoal(g.ID, func(cur goals.Goal) (goals.Goal, error) {
			prev = cur.State
			if !hasLatest {
				return e.tracker.Expire(cur), nil
			}
			return e.tracker.UpdateProgress(cur, latest), nil
		})
		if err != nil {
			return updates, err
		}

		u := GoalUpdate{Goal: next, Previous: prev}
		if prev == goals.StateActive && next.State == goals.StateCompleted {
			u.Completed = true
			if reward := e.milestones.For(next.Difficulty); reward > 0 {
				if _, err := e.Earn(ctx, userID, reward, "goal completed: "+goalLabel(next)); err != nil {
					return updates, err
				}
				u.Reward = reward
			}
		}
		updates = append(updates, u)
	}
	return updates, nil
}

func goalLabel(g goals.Goal) string {
	if g.Title != "" {
		return g.Title
	}
	return g.ID
}
