package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"coinpulse/internal/domain"
	"coinpulse/internal/fallback"
	"coinpulse/internal/portfolio"
	"coinpulse/internal/provider"
	"coinpulse/internal/snapshot"

	"go.opentelemetry.io/otel/trace"
)

const baselineCacheKey = "baseline:markets:usd"

// ErrHoldingsUnavailable is returned when no holdings storage is
// configured (DATABASE_URL unset).
var ErrHoldingsUnavailable = errors.New("service: holdings storage not configured")

// ErrBaselineUnavailable means every baseline tier failed: no fresh
// cache, no live fetch, no stale cache. The store still serves whatever
// it holds, down to the static asset list.
var ErrBaselineUnavailable = errors.New("service: baseline data unavailable")

// BaselineProvider fetches the raw markets payload from the REST source.
type BaselineProvider interface {
	FetchMarketsRaw(ctx context.Context) ([]byte, error)
}

// BaselineCache is the read-through fallback cache for baseline payloads.
type BaselineCache interface {
	ReadThrough(ctx context.Context, key string, fetch func(context.Context) ([]byte, error)) ([]byte, fallback.Tier, error)
}

// HoldingStore persists the user's purchase lots.
type HoldingStore interface {
	ListHoldings(ctx context.Context) ([]domain.Holding, error)
	AddHolding(ctx context.Context, h domain.Holding) (domain.Holding, error)
	DeleteHolding(ctx context.Context, id int64) error
}

// MarketService orchestrates baseline refreshes through the fallback
// chain, serves snapshot reads, and owns the holdings-driven subscription
// set.
type MarketService struct {
	tracer   trace.Tracer
	provider BaselineProvider
	cache    BaselineCache
	store    *snapshot.Store
	holdings HoldingStore

	resubscribe func(ctx context.Context, assetIDs []string)
}

func NewMarketService(
	tracer trace.Tracer,
	baselineProvider BaselineProvider,
	cache BaselineCache,
	store *snapshot.Store,
	holdings HoldingStore,
) *MarketService {
	return &MarketService{
		tracer:   tracer,
		provider: baselineProvider,
		cache:    cache,
		store:    store,
		holdings: holdings,
	}
}

// WithResubscriber assigns the hook invoked when the subscription set
// changes (holdings added or removed).
func (s *MarketService) WithResubscriber(fn func(ctx context.Context, assetIDs []string)) {
	s.resubscribe = fn
}

// RefreshBaseline pulls baseline market data through the fallback chain
// and seeds the snapshot store. Data served from a stale cache entry is
// labeled fallback so consumers can render a degraded-mode hint. Only a
// miss on every tier returns an error; even then the static asset list
// keeps the store populated.
func (s *MarketService) RefreshBaseline(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "market-service.refresh-baseline")
	defer span.End()

	data, tier, err := s.cache.ReadThrough(ctx, baselineCacheKey, s.provider.FetchMarketsRaw)
	if err != nil {
		s.seedStatic()
		return fmt.Errorf("%w: %v", ErrBaselineUnavailable, err)
	}

	snaps, err := provider.ParseMarkets(data)
	if err != nil {
		s.seedStatic()
		return fmt.Errorf("%w: %v", ErrBaselineUnavailable, err)
	}

	source := domain.SourceBaseline
	if tier == fallback.TierStale {
		source = domain.SourceFallback
	}
	s.store.Seed(snaps, source)

	log.Printf("Baseline refreshed: %d assets from %s tier", len(snaps), tier)
	return nil
}

// seedStatic fills only assets the store knows nothing about, so a total
// baseline outage cannot zero out previously good data.
func (s *MarketService) seedStatic() {
	var missing []domain.AssetSnapshot
	for _, snap := range fallback.StaticSnapshots() {
		if _, ok := s.store.Get(snap.AssetID); !ok {
			missing = append(missing, snap)
		}
	}
	if len(missing) > 0 {
		s.store.Seed(missing, domain.SourceFallback)
		log.Printf("Baseline unavailable, seeded %d static assets", len(missing))
	}
}

// Snapshot returns the best-known snapshot for one asset.
func (s *MarketService) Snapshot(assetID string) (domain.AssetSnapshot, bool) {
	return s.store.Get(assetID)
}

// Snapshots returns all snapshots sorted by asset id.
func (s *MarketService) Snapshots() []domain.AssetSnapshot {
	return s.store.List()
}

// WatchSnapshots exposes the store's coalescing update channel.
func (s *MarketService) WatchSnapshots() (<-chan struct{}, func()) {
	return s.store.Watch()
}

// Portfolio valuates the user's holdings against current snapshots.
func (s *MarketService) Portfolio(ctx context.Context) (portfolio.Summary, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.portfolio")
	defer span.End()

	if s.holdings == nil {
		return portfolio.Summary{}, ErrHoldingsUnavailable
	}
	holdings, err := s.holdings.ListHoldings(ctx)
	if err != nil {
		return portfolio.Summary{}, err
	}
	return portfolio.Summarize(holdings, s.store.Snapshots()), nil
}

// AddHolding persists a new lot and recomputes the subscription set.
func (s *MarketService) AddHolding(ctx context.Context, assetID string, quantity, invested float64) (domain.Holding, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.add-holding")
	defer span.End()

	assetID = strings.TrimSpace(assetID)
	if assetID == "" {
		return domain.Holding{}, fmt.Errorf("asset_id is required")
	}
	if quantity <= 0 {
		return domain.Holding{}, fmt.Errorf("quantity must be positive")
	}
	if invested < 0 {
		return domain.Holding{}, fmt.Errorf("invested must not be negative")
	}
	if s.holdings == nil {
		return domain.Holding{}, ErrHoldingsUnavailable
	}

	h, err := s.holdings.AddHolding(ctx, domain.Holding{
		AssetID:  assetID,
		Quantity: quantity,
		Invested: invested,
	})
	if err != nil {
		return domain.Holding{}, err
	}

	s.notifyResubscribe(ctx)
	return h, nil
}

// RemoveHolding deletes a lot and recomputes the subscription set.
func (s *MarketService) RemoveHolding(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "market-service.remove-holding")
	defer span.End()

	if s.holdings == nil {
		return ErrHoldingsUnavailable
	}
	if err := s.holdings.DeleteHolding(ctx, id); err != nil {
		return err
	}

	s.notifyResubscribe(ctx)
	return nil
}

// SubscriptionAssets is the asset set the stream scope should cover: the
// supported list plus anything the user holds beyond it.
func (s *MarketService) SubscriptionAssets(ctx context.Context) []string {
	assets := append([]string(nil), domain.SupportedAssets...)
	seen := make(map[string]bool, len(assets))
	for _, id := range assets {
		seen[id] = true
	}

	if s.holdings != nil {
		holdings, err := s.holdings.ListHoldings(ctx)
		if err != nil {
			log.Printf("subscription set: listing holdings failed: %v", err)
		}
		for _, h := range holdings {
			if !seen[h.AssetID] {
				seen[h.AssetID] = true
				assets = append(assets, h.AssetID)
			}
		}
	}

	sort.Strings(assets)
	return assets
}

func (s *MarketService) notifyResubscribe(ctx context.Context) {
	if s.resubscribe == nil {
		return
	}
	s.resubscribe(ctx, s.SubscriptionAssets(ctx))
}
