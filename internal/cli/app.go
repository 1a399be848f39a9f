package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/greenledger/internal/config"
	"github.com/rshade/greenledger/internal/engine"
	"github.com/rshade/greenledger/internal/engine/cache"
	"github.com/rshade/greenledger/internal/factors"
	"github.com/rshade/greenledger/internal/goals"
	"github.com/rshade/greenledger/internal/logging"
	"github.com/rshade/greenledger/internal/rewards"
	"github.com/rshade/greenledger/internal/store"
	"github.com/rshade/greenledger/internal/trend"
)

// app is the per-invocation wiring of config, store and engine.
type app struct {
	cfg    *config.Config
	store  *store.Store
	engine *engine.Engine
}

// appOptions adjusts the wiring for a single command.
type appOptions struct {
	peerSeed *uint64
	noCache  bool
}

// newApp opens the store and builds an engine from cfg.
func newApp(ctx context.Context, cfg *config.Config, o appOptions) (*app, error) {
	log := logging.FromContext(ctx)

	st, err := store.Open(cfg.Store.Path, store.WithHistoryLimit(cfg.Store.HistoryLimit))
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	registry, err := loadRegistry(cfg.Factors.Tables)
	if err != nil {
		return nil, err
	}

	catalog := rewards.DefaultCatalog()
	if cfg.Rewards.CatalogFile != "" {
		if catalog, err = rewards.LoadCatalog(cfg.Rewards.CatalogFile); err != nil {
			return nil, err
		}
	}

	ledger := rewards.NewLedger()
	ledger.Thresholds = rewards.Thresholds{
		Sapling: cfg.Rewards.Tiers.Sapling,
		Grove:   cfg.Rewards.Tiers.Grove,
		Forest:  cfg.Rewards.Tiers.Forest,
	}
	if err := ledger.Thresholds.Validate(); err != nil {
		return nil, err
	}

	opts := []engine.Option{
		engine.WithFactors(registry),
		engine.WithCatalog(catalog),
		engine.WithLedger(ledger),
		engine.WithTracker(goals.NewTracker(cfg.Goals.MinTargetPct, cfg.Goals.MaxTargetPct)),
		engine.WithMilestones(engine.Milestones{
			Easy:   cfg.Goals.Milestones.Easy,
			Medium: cfg.Goals.Milestones.Medium,
			Hard:   cfg.Goals.Milestones.Hard,
		}),
		engine.WithTrendOptions(trend.WithEpsilon(cfg.Trend.Epsilon)),
	}

	if cfg.Trend.PeerEnabled {
		seed := cfg.Trend.PeerSeed
		if o.peerSeed != nil {
			seed = *o.peerSeed
		}
		means := trend.DefaultPeerMeans()
		if cfg.Trend.PeerMeansFile != "" {
			if means, err = trend.LoadPeerMeans(cfg.Trend.PeerMeansFile); err != nil {
				return nil, err
			}
		}
		opts = append(opts, engine.WithPeerFeed(
			trend.NewSeededFeed(seed, means, cfg.Trend.PeerSpread)))
	}

	if results := openResultCache(ctx, cfg.Cache, o.noCache); results != nil {
		opts = append(opts, engine.WithResultCache(results))
	}

	eng, err := engine.New(st, opts...)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Ctx(ctx).
		Str("operation", "new_app").
		Str("store_path", st.FilePath()).
		Strs("factor_versions", registry.Versions()).
		Msg("engine ready")

	return &app{cfg: cfg, store: st, engine: eng}, nil
}

// appFromCmd builds the app from the global config.
func appFromCmd(cmd *cobra.Command, o appOptions) (*app, error) {
	return newApp(cmd.Context(), config.GetGlobalConfig(), o)
}

// save persists the store after a mutating command.
func (a *app) save() error {
	if err := a.store.Save(); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return nil
}

// loadRegistry registers the built-in table plus every configured table file.
func loadRegistry(paths []string) (*factors.Registry, error) {
	tables := []factors.Table{factors.Default()}
	for _, p := range paths {
		t, err := factors.LoadTable(p)
		if err != nil {
			return nil, fmt.Errorf("loading factor table %s: %w", p, err)
		}
		tables = append(tables, t)
	}
	return factors.NewRegistry(tables...)
}

// openResultCache returns nil when caching is disabled or unavailable. A
// broken cache directory never fails the command.
func openResultCache(ctx context.Context, cc config.CacheConfig, disabled bool) *cache.Results {
	if disabled {
		return nil
	}
	fs, err := openCacheStore(cc)
	if err != nil {
		logging.FromContext(ctx).Warn().
			Ctx(ctx).
			Str("operation", "open_cache").
			Err(err).
			Msg("result cache unavailable, continuing without it")
		return nil
	}
	if fs == nil {
		return nil
	}
	return cache.NewResults(fs)
}

// openCacheStore resolves the cache settings against the environment and
// opens the store. It returns nil without error when caching is off.
func openCacheStore(cc config.CacheConfig) (*cache.FileStore, error) {
	if !cache.EnabledFromEnv(cc.Enabled) {
		return nil, nil //nolint:nilnil // disabled is not an error
	}
	ttl := cache.TTLFromEnv(time.Duration(cc.TTLSeconds) * time.Second)

	dir := cc.Directory
	if v := os.Getenv(cache.EnvDir); v != "" {
		dir = v
	}
	if dir == "" {
		d, err := config.GetCacheDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	return cache.NewFileStore(dir, true, ttl)
}
