package domain

import "time"

// Source labels where the most recent data in a snapshot came from.
type Source string

const (
	SourceLive     Source = "live"
	SourceBaseline Source = "baseline"
	SourceFallback Source = "fallback"
)

// AssetSnapshot is the best-known current market data for one asset.
// Price is never negative; UpdatedAt never moves backwards for a given
// asset within a process lifetime.
type AssetSnapshot struct {
	AssetID      string    `json:"asset_id"`
	Price        float64   `json:"price"`
	ChangePct24h float64   `json:"change_pct_24h"`
	ChangeAbs24h float64   `json:"change_abs_24h"`
	Volume       float64   `json:"volume"`
	QuoteVolume  float64   `json:"quote_volume"`
	MarketCap    float64   `json:"market_cap"`
	UpdatedAt    time.Time `json:"updated_at"`
	Source       Source    `json:"source"`
}

// Holding is one purchase lot of an asset. Quantity may aggregate
// multiple buys; Invested is the total cost basis for the lot.
type Holding struct {
	ID        int64     `json:"id"`
	AssetID   string    `json:"asset_id"`
	Quantity  float64   `json:"quantity"`
	Invested  float64   `json:"invested"`
	CreatedAt time.Time `json:"created_at"`
}

// PortfolioPosition is a derived view of one asset across all its lots.
// It is always rebuilt from holdings and snapshots, never mutated.
type PortfolioPosition struct {
	AssetID       string  `json:"asset_id"`
	Quantity      float64 `json:"quantity"`
	Invested      float64 `json:"invested"`
	CurrentPrice  float64 `json:"current_price"`
	CurrentValue  float64 `json:"current_value"`
	ProfitLoss    float64 `json:"profit_loss"`
	ProfitLossPct float64 `json:"profit_loss_pct"`
}

// ConnectionState describes the stream manager's connection lifecycle.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
	Reconnecting
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}
