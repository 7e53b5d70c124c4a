// Package portfolio derives financial metrics from holdings and market
// snapshots. Everything here is pure: no I/O, no clocks, no mutation of
// inputs, so a valuation can run on every store update without side
// effects.
package portfolio

import "coinpulse/internal/domain"

// Summary is a full portfolio valuation with cross-position totals.
type Summary struct {
	Positions          []domain.PortfolioPosition `json:"positions"`
	TotalValue         float64                    `json:"total_value"`
	TotalInvested      float64                    `json:"total_invested"`
	TotalProfitLoss    float64                    `json:"total_profit_loss"`
	TotalProfitLossPct float64                    `json:"total_profit_loss_pct"`
}

// Valuate combines holdings with current snapshots into positions, one
// per asset. Lots sharing an asset aggregate: quantities and invested
// amounts sum, and current value is recomputed from the summed quantity
// rather than summed per lot, so rounding cannot drift.
//
// Missing data never escalates: an asset with no snapshot values at price
// zero, and a zero invested amount yields a zero percentage, never NaN.
func Valuate(holdings []domain.Holding, snapshots map[string]domain.AssetSnapshot) []domain.PortfolioPosition {
	order := make([]string, 0, len(holdings))
	byAsset := make(map[string]*domain.PortfolioPosition, len(holdings))

	for _, h := range holdings {
		pos, ok := byAsset[h.AssetID]
		if !ok {
			pos = &domain.PortfolioPosition{AssetID: h.AssetID}
			byAsset[h.AssetID] = pos
			order = append(order, h.AssetID)
		}
		pos.Quantity += h.Quantity
		pos.Invested += h.Invested
	}

	positions := make([]domain.PortfolioPosition, 0, len(order))
	for _, assetID := range order {
		pos := byAsset[assetID]

		if snap, ok := snapshots[assetID]; ok {
			pos.CurrentPrice = snap.Price
		}
		pos.CurrentValue = pos.Quantity * pos.CurrentPrice
		pos.ProfitLoss = pos.CurrentValue - pos.Invested
		if pos.Invested > 0 {
			pos.ProfitLossPct = pos.ProfitLoss / pos.Invested * 100
		}
		positions = append(positions, *pos)
	}
	return positions
}

// Summarize valuates and totals the portfolio.
func Summarize(holdings []domain.Holding, snapshots map[string]domain.AssetSnapshot) Summary {
	positions := Valuate(holdings, snapshots)

	s := Summary{Positions: positions}
	for _, pos := range positions {
		s.TotalValue += pos.CurrentValue
		s.TotalInvested += pos.Invested
	}
	s.TotalProfitLoss = s.TotalValue - s.TotalInvested
	if s.TotalInvested > 0 {
		s.TotalProfitLossPct = s.TotalProfitLoss / s.TotalInvested * 100
	}
	return s
}
