package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"coinpulse/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoProvider fetches baseline market data from the CoinGecko free
// API. The raw payload and its parsed form are split so callers can
// persist the exact bytes in the fallback cache and re-parse them later.
type CoinGeckoProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewCoinGeckoProvider creates a provider with built-in rate limiting.
// Rate limited to 8 requests per minute (one token every 7.5 seconds).
func NewCoinGeckoProvider(tracer trace.Tracer) *CoinGeckoProvider {
	return &CoinGeckoProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: coingeckoBaseURL,
		tracer:  tracer,
		limiter: NewRateLimiter(8, 7500*time.Millisecond),
	}
}

// marketRow mirrors one element of the /coins/markets response.
type marketRow struct {
	ID                string  `json:"id"`
	CurrentPrice      float64 `json:"current_price"`
	PriceChangePct24h float64 `json:"price_change_percentage_24h"`
	PriceChange24h    float64 `json:"price_change_24h"`
	TotalVolume       float64 `json:"total_volume"`
	MarketCap         float64 `json:"market_cap"`
	LastUpdated       string  `json:"last_updated"`
}

// FetchMarketsRaw fetches the markets payload for all supported assets in
// a single API call and returns the raw response body.
func (p *CoinGeckoProvider) FetchMarketsRaw(ctx context.Context) ([]byte, error) {
	_, span := p.tracer.Start(ctx, "coingecko.fetch-markets")
	defer span.End()

	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("ids", strings.Join(domain.SupportedAssets, ","))
	q.Set("price_change_percentage", "24h")

	body, err := p.doRequest(ctx, p.baseURL+"/coins/markets?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch markets: %w", err)
	}
	return body, nil
}

// ParseMarkets converts a markets payload into baseline snapshots.
// Rows for unknown assets and rows with negative prices are skipped.
func ParseMarkets(data []byte) ([]domain.AssetSnapshot, error) {
	var rows []marketRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse markets: %w", err)
	}

	snaps := make([]domain.AssetSnapshot, 0, len(rows))
	for _, row := range rows {
		if row.ID == "" || row.CurrentPrice < 0 {
			continue
		}
		snap := domain.AssetSnapshot{
			AssetID:      row.ID,
			Price:        row.CurrentPrice,
			ChangePct24h: row.PriceChangePct24h,
			ChangeAbs24h: row.PriceChange24h,
			Volume:       row.TotalVolume,
			MarketCap:    row.MarketCap,
		}
		if ts, err := time.Parse(time.RFC3339, row.LastUpdated); err == nil {
			snap.UpdatedAt = ts
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

func (p *CoinGeckoProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("coingecko API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
