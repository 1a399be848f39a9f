package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/greenledger/internal/activity"
	"github.com/rshade/greenledger/internal/engine/cache"
	"github.com/rshade/greenledger/internal/footprint"
	"github.com/rshade/greenledger/internal/logging"
	"github.com/rshade/greenledger/internal/trend"
)

// CalculateRequest is one footprint calculation. A non-empty UserID records
// the result in that user's history.
type CalculateRequest struct {
	UserID        string
	Input         activity.Input
	FactorVersion string
}

// Calculate normalizes the input, applies the resolved factor table and
// optionally records the result. Cache hits are restamped with a fresh id
// and time so every calculation yields a distinct snapshot.
func (e *Engine) Calculate(ctx context.Context, req CalculateRequest) (footprint.Result, error) {
	res, err := e.calculate(ctx, req)
	if err != nil {
		return footprint.Result{}, err
	}
	if req.UserID != "" {
		e.store.AppendFootprint(req.UserID, res)
	}
	return res, nil
}

func (e *Engine) calculate(ctx context.Context, req CalculateRequest) (footprint.Result, error) {
	log := logging.FromContext(ctx)
	start := time.Now()

	table, err := e.factors.Resolve(req.FactorVersion)
	if err != nil {
		return footprint.Result{}, err
	}
	n, err := e.schema.Normalize(req.Input)
	if err != nil {
		return footprint.Result{}, err
	}

	key := cache.Key(table.Version, n)
	res, hit, cacheErr := e.results.Lookup(key)
	if cacheErr != nil {
		log.Warn().Ctx(ctx).Str("component", "engine").Err(cacheErr).Msg("result cache lookup failed")
	}

	if hit {
		res.ID = ulid.Make().String()
		res.CreatedAt = e.now()
	} else {
		res = footprint.ComputeAt(n, table, e.now())
		if err := e.results.Store(key, res); err != nil {
			log.Warn().Ctx(ctx).Str("component", "engine").Err(err).Msg("result cache store failed")
		}
	}

	log.Debug().
		Ctx(ctx).
		Str("component", "engine").
		Str("operation", "calculate").
		Str("user_id", req.UserID).
		Str("factor_version", table.Version).
		Bool("cache_hit", hit).
		Float64("total", res.Total).
		Dur("duration", time.Since(start)).
		Msg("footprint calculated")

	return res, nil
}

// CalculateBatch runs requests concurrently, bounded by the batch limit.
// Results keep request order. The first failure cancels the remaining work
// and records nothing; on success history is appended in request order.
func (e *Engine) CalculateBatch(ctx context.Context, reqs []CalculateRequest) ([]footprint.Result, error) {
	results := make([]footprint.Result, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.batchLimit)

	for i, req := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := e.calculate(gctx, req)
			if err != nil {
				return fmt.Errorf("request %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, req := range reqs {
		if req.UserID != "" {
			e.store.AppendFootprint(req.UserID, results[i])
		}
	}
	return results, nil
}

// Trend compares the user's latest footprint against the earlier ones and,
// when a peer feed is configured, against a peer benchmark. A failing feed
// degrades to a report without peer data.
func (e *Engine) Trend(ctx context.Context, userID string) (trend.Report, error) {
	log := logging.FromContext(ctx)

	history := e.store.History(userID)
	if len(history) == 0 {
		return trend.Report{}, fmt.Errorf("user %s: %w", userID, ErrNoFootprint)
	}
	current := history[len(history)-1]

	var peer *footprint.Result
	if e.feed != nil {
		bench, err := e.feed.Benchmark(ctx)
		switch {
		case ctx.Err() != nil:
			return trend.Report{}, ctx.Err()
		case err != nil:
			log.Warn().Ctx(ctx).Str("component", "engine").Err(err).Msg("peer benchmark unavailable")
		default:
			peer = &bench
		}
	}

	return trend.Compare(current, history[:len(history)-1], peer, e.trendOpts...), nil
}
