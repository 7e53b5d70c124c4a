package snapshot

import (
	"testing"
	"time"

	"coinpulse/internal/domain"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestSeedAndGet(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Seed([]domain.AssetSnapshot{
		{AssetID: "bitcoin", Price: 43000, MarketCap: 850e9},
		{AssetID: "", Price: 1},
		{AssetID: "ethereum", Price: -5},
	}, domain.SourceBaseline)

	snap, ok := s.Get("bitcoin")
	if !ok {
		t.Fatal("expected bitcoin snapshot")
	}
	if snap.Source != domain.SourceBaseline {
		t.Fatalf("expected baseline source, got %s", snap.Source)
	}
	if snap.UpdatedAt.IsZero() {
		t.Fatal("expected UpdatedAt to be stamped")
	}
	if _, ok := s.Get("ethereum"); ok {
		t.Fatal("negative price must be rejected")
	}
	if len(s.List()) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(s.List()))
	}
}

func TestSeedDoesNotDowngradeLive(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	s := NewStore()
	s.now = fixedClock(base)

	s.Seed([]domain.AssetSnapshot{{AssetID: "bitcoin", Price: 43000}}, domain.SourceBaseline)
	s.ApplyFlush(map[string]domain.Tick{
		"bitcoin": {Price: domain.Float(43500)},
	})

	// Stale baseline from before the flush must not win.
	s.Seed([]domain.AssetSnapshot{
		{AssetID: "bitcoin", Price: 42000, UpdatedAt: base.Add(-time.Minute)},
	}, domain.SourceBaseline)

	snap, _ := s.Get("bitcoin")
	if snap.Price != 43500 || snap.Source != domain.SourceLive {
		t.Fatalf("live snapshot was downgraded: %+v", snap)
	}

	// A strictly newer baseline may replace live data.
	s.Seed([]domain.AssetSnapshot{
		{AssetID: "bitcoin", Price: 44000, UpdatedAt: base.Add(time.Minute)},
	}, domain.SourceBaseline)

	snap, _ = s.Get("bitcoin")
	if snap.Price != 44000 || snap.Source != domain.SourceBaseline {
		t.Fatalf("expected newer baseline to apply: %+v", snap)
	}
}

func TestSeedReseedSameSourceApplies(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Seed([]domain.AssetSnapshot{{AssetID: "bitcoin", Price: 43000}}, domain.SourceBaseline)
	s.Seed([]domain.AssetSnapshot{{AssetID: "bitcoin", Price: 43100}}, domain.SourceBaseline)

	snap, _ := s.Get("bitcoin")
	if snap.Price != 43100 {
		t.Fatalf("expected reseed to apply, got price %v", snap.Price)
	}
}

func TestApplyFlushMergesFields(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Seed([]domain.AssetSnapshot{
		{AssetID: "bitcoin", Price: 43000, ChangePct24h: 1.0, MarketCap: 850e9},
	}, domain.SourceBaseline)

	s.ApplyFlush(map[string]domain.Tick{
		"bitcoin": {Price: domain.Float(43500), ChangePct: domain.Float(2.5)},
	})

	snap, _ := s.Get("bitcoin")
	if snap.Price != 43500 {
		t.Fatalf("expected price 43500, got %v", snap.Price)
	}
	if snap.ChangePct24h != 2.5 {
		t.Fatalf("expected change pct 2.5, got %v", snap.ChangePct24h)
	}
	if snap.MarketCap != 850e9 {
		t.Fatalf("market cap must survive a flush, got %v", snap.MarketCap)
	}
	if snap.Source != domain.SourceLive {
		t.Fatalf("expected live source, got %s", snap.Source)
	}
}

func TestApplyFlushIdempotent(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	s := NewStore()
	s.now = fixedClock(base)
	s.Seed([]domain.AssetSnapshot{
		{AssetID: "bitcoin", Price: 43000, MarketCap: 850e9},
	}, domain.SourceBaseline)

	batch := map[string]domain.Tick{
		"bitcoin": {Price: domain.Float(43500), ChangePct: domain.Float(2.5)},
	}
	s.ApplyFlush(batch)
	first, _ := s.Get("bitcoin")

	s.ApplyFlush(batch)
	second, _ := s.Get("bitcoin")

	if first != second {
		t.Fatalf("reapplying the same batch changed the snapshot:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestApplyFlushNegativePriceIgnored(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Seed([]domain.AssetSnapshot{{AssetID: "bitcoin", Price: 43000}}, domain.SourceBaseline)

	s.ApplyFlush(map[string]domain.Tick{
		"bitcoin": {Price: domain.FloatField{Value: -1, Valid: true}, ChangePct: domain.Float(1)},
	})

	snap, _ := s.Get("bitcoin")
	if snap.Price != 43000 {
		t.Fatalf("negative price must be ignored, got %v", snap.Price)
	}
	if snap.ChangePct24h != 1 {
		t.Fatalf("valid fields in the same tick still apply, got %v", snap.ChangePct24h)
	}
}

func TestApplyFlushUnknownAssetCreatesSnapshot(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.ApplyFlush(map[string]domain.Tick{
		"solana": {Price: domain.Float(150)},
	})

	snap, ok := s.Get("solana")
	if !ok {
		t.Fatal("expected snapshot created from tick alone")
	}
	if snap.Price != 150 || snap.Source != domain.SourceLive {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestUpdatedAtNeverRegresses(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	s := NewStore()
	s.now = fixedClock(base)

	s.Seed([]domain.AssetSnapshot{{AssetID: "bitcoin", Price: 43000}}, domain.SourceBaseline)

	// Clock moved backwards; the stamp must hold.
	s.now = fixedClock(base.Add(-time.Hour))
	s.ApplyFlush(map[string]domain.Tick{"bitcoin": {Price: domain.Float(43500)}})

	snap, _ := s.Get("bitcoin")
	if snap.UpdatedAt.Before(base) {
		t.Fatalf("UpdatedAt regressed to %v", snap.UpdatedAt)
	}
	if snap.Price != 43500 {
		t.Fatalf("price should still update, got %v", snap.Price)
	}
}

func TestListSortedByAssetID(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Seed([]domain.AssetSnapshot{
		{AssetID: "solana", Price: 150},
		{AssetID: "bitcoin", Price: 43000},
		{AssetID: "ethereum", Price: 2200},
	}, domain.SourceBaseline)

	list := s.List()
	if len(list) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(list))
	}
	if list[0].AssetID != "bitcoin" || list[1].AssetID != "ethereum" || list[2].AssetID != "solana" {
		t.Fatalf("unexpected order: %v %v %v", list[0].AssetID, list[1].AssetID, list[2].AssetID)
	}
}

func TestWatchCoalescesNotifications(t *testing.T) {
	t.Parallel()

	s := NewStore()
	updates, cancel := s.Watch()
	defer cancel()

	s.Seed([]domain.AssetSnapshot{{AssetID: "bitcoin", Price: 1}}, domain.SourceBaseline)
	s.Seed([]domain.AssetSnapshot{{AssetID: "bitcoin", Price: 2}}, domain.SourceBaseline)
	s.Seed([]domain.AssetSnapshot{{AssetID: "bitcoin", Price: 3}}, domain.SourceBaseline)

	select {
	case <-updates:
	default:
		t.Fatal("expected a pending notification")
	}
	select {
	case <-updates:
		t.Fatal("notifications must coalesce to one")
	default:
	}
}

func TestWatchCancelStopsNotifications(t *testing.T) {
	t.Parallel()

	s := NewStore()
	updates, cancel := s.Watch()
	cancel()

	s.Seed([]domain.AssetSnapshot{{AssetID: "bitcoin", Price: 1}}, domain.SourceBaseline)

	select {
	case <-updates:
		t.Fatal("cancelled watcher must not be notified")
	default:
	}
}

func TestApplyFlushEmptyBatchNoNotify(t *testing.T) {
	t.Parallel()

	s := NewStore()
	updates, cancel := s.Watch()
	defer cancel()

	s.ApplyFlush(nil)
	s.ApplyFlush(map[string]domain.Tick{"bitcoin": {}})

	select {
	case <-updates:
		t.Fatal("empty flushes must not notify")
	default:
	}
}
