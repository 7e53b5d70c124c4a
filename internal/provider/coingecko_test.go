package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
)

const marketsPayload = `[
	{
		"id": "bitcoin",
		"current_price": 43250.10,
		"price_change_percentage_24h": 2.5,
		"price_change_24h": 1055.20,
		"total_volume": 28100000000,
		"market_cap": 850000000000,
		"last_updated": "2026-01-10T12:00:00Z"
	},
	{
		"id": "ethereum",
		"current_price": 2200.5,
		"price_change_percentage_24h": -1.2,
		"price_change_24h": -26.7,
		"total_volume": 9300000000,
		"market_cap": 265000000000,
		"last_updated": "not-a-timestamp"
	},
	{
		"id": "",
		"current_price": 1
	},
	{
		"id": "broken",
		"current_price": -5
	}
]`

func TestFetchMarketsRaw(t *testing.T) {
	t.Parallel()

	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/markets" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		w.Write([]byte(marketsPayload))
	}))
	defer srv.Close()

	provider := NewCoinGeckoProvider(trace.NewNoopTracerProvider().Tracer("test"))
	provider.baseURL = srv.URL

	data, err := provider.FetchMarketsRaw(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != marketsPayload {
		t.Fatal("expected raw body to pass through unmodified")
	}
	if !strings.Contains(gotQuery, "vs_currency=usd") {
		t.Fatalf("expected usd currency in query: %s", gotQuery)
	}
	if !strings.Contains(gotQuery, "bitcoin") {
		t.Fatalf("expected supported asset ids in query: %s", gotQuery)
	}
	if !strings.Contains(gotQuery, "price_change_percentage=24h") {
		t.Fatalf("expected 24h change in query: %s", gotQuery)
	}
}

func TestFetchMarketsRawAPIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	provider := NewCoinGeckoProvider(trace.NewNoopTracerProvider().Tracer("test"))
	provider.baseURL = srv.URL

	if _, err := provider.FetchMarketsRaw(context.Background()); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestFetchMarketsRawRespectsContext(t *testing.T) {
	t.Parallel()

	provider := NewCoinGeckoProvider(trace.NewNoopTracerProvider().Tracer("test"))
	provider.limiter = NewRateLimiter(0, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := provider.FetchMarketsRaw(ctx); err == nil {
		t.Fatal("expected error when rate limit wait is cancelled")
	}
}

func TestParseMarkets(t *testing.T) {
	t.Parallel()

	snaps, err := ParseMarkets([]byte(marketsPayload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots (empty id and negative price skipped), got %d", len(snaps))
	}

	btc := snaps[0]
	if btc.AssetID != "bitcoin" || btc.Price != 43250.10 {
		t.Fatalf("unexpected bitcoin snapshot: %+v", btc)
	}
	if btc.ChangePct24h != 2.5 || btc.MarketCap != 850000000000 {
		t.Fatalf("unexpected bitcoin fields: %+v", btc)
	}
	want := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	if !btc.UpdatedAt.Equal(want) {
		t.Fatalf("expected UpdatedAt %v, got %v", want, btc.UpdatedAt)
	}

	eth := snaps[1]
	if eth.AssetID != "ethereum" {
		t.Fatalf("unexpected snapshot: %+v", eth)
	}
	if !eth.UpdatedAt.IsZero() {
		t.Fatalf("unparseable last_updated must leave UpdatedAt zero, got %v", eth.UpdatedAt)
	}
}

func TestParseMarketsBadJSON(t *testing.T) {
	t.Parallel()

	if _, err := ParseMarkets([]byte(`{not json`)); err == nil {
		t.Fatal("expected error")
	}
}
