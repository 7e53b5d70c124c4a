package portfolio

import (
	"math"
	"testing"

	"coinpulse/internal/domain"
)

func snapMap(pairs map[string]float64) map[string]domain.AssetSnapshot {
	out := make(map[string]domain.AssetSnapshot, len(pairs))
	for id, price := range pairs {
		out[id] = domain.AssetSnapshot{AssetID: id, Price: price}
	}
	return out
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestValuateSingleHolding(t *testing.T) {
	t.Parallel()

	holdings := []domain.Holding{
		{ID: 1, AssetID: "bitcoin", Quantity: 0.5, Invested: 20000},
	}
	positions := Valuate(holdings, snapMap(map[string]float64{"bitcoin": 50000}))

	if len(positions) != 1 {
		t.Fatalf("expected 1 position, got %d", len(positions))
	}
	pos := positions[0]
	if pos.CurrentValue != 25000 {
		t.Fatalf("expected value 25000, got %v", pos.CurrentValue)
	}
	if pos.ProfitLoss != 5000 {
		t.Fatalf("expected profit 5000, got %v", pos.ProfitLoss)
	}
	if !almostEqual(pos.ProfitLossPct, 25) {
		t.Fatalf("expected 25%%, got %v", pos.ProfitLossPct)
	}
}

func TestValuateAggregatesLots(t *testing.T) {
	t.Parallel()

	holdings := []domain.Holding{
		{ID: 1, AssetID: "solana", Quantity: 2, Invested: 100},
		{ID: 2, AssetID: "solana", Quantity: 3, Invested: 200},
	}
	positions := Valuate(holdings, snapMap(map[string]float64{"solana": 50}))

	if len(positions) != 1 {
		t.Fatalf("expected aggregated position, got %d", len(positions))
	}
	pos := positions[0]
	if pos.Quantity != 5 || pos.Invested != 300 {
		t.Fatalf("expected qty 5 invested 300, got qty %v invested %v", pos.Quantity, pos.Invested)
	}
	if pos.CurrentValue != 250 {
		t.Fatalf("expected value 250, got %v", pos.CurrentValue)
	}
	if pos.ProfitLoss != -50 {
		t.Fatalf("expected loss -50, got %v", pos.ProfitLoss)
	}
	if !almostEqual(pos.ProfitLossPct, -50.0/300.0*100) {
		t.Fatalf("expected about -16.67%%, got %v", pos.ProfitLossPct)
	}
}

func TestValuatePreservesFirstAppearanceOrder(t *testing.T) {
	t.Parallel()

	holdings := []domain.Holding{
		{ID: 1, AssetID: "ethereum", Quantity: 1, Invested: 2000},
		{ID: 2, AssetID: "bitcoin", Quantity: 1, Invested: 40000},
		{ID: 3, AssetID: "ethereum", Quantity: 1, Invested: 2100},
	}
	positions := Valuate(holdings, nil)

	if len(positions) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(positions))
	}
	if positions[0].AssetID != "ethereum" || positions[1].AssetID != "bitcoin" {
		t.Fatalf("unexpected order: %s, %s", positions[0].AssetID, positions[1].AssetID)
	}
}

func TestValuateMissingSnapshot(t *testing.T) {
	t.Parallel()

	holdings := []domain.Holding{
		{ID: 1, AssetID: "cardano", Quantity: 1000, Invested: 500},
	}
	positions := Valuate(holdings, nil)

	pos := positions[0]
	if pos.CurrentPrice != 0 || pos.CurrentValue != 0 {
		t.Fatalf("expected zero valuation without a snapshot, got %+v", pos)
	}
	if pos.ProfitLoss != -500 {
		t.Fatalf("expected loss -500, got %v", pos.ProfitLoss)
	}
}

func TestValuateZeroInvestedNeverNaN(t *testing.T) {
	t.Parallel()

	holdings := []domain.Holding{
		{ID: 1, AssetID: "dogecoin", Quantity: 100, Invested: 0},
	}
	positions := Valuate(holdings, snapMap(map[string]float64{"dogecoin": 0.1}))

	pos := positions[0]
	if math.IsNaN(pos.ProfitLossPct) || pos.ProfitLossPct != 0 {
		t.Fatalf("expected 0%% for zero invested, got %v", pos.ProfitLossPct)
	}
	if pos.ProfitLoss != 10 {
		t.Fatalf("expected profit 10, got %v", pos.ProfitLoss)
	}
}

func TestSummarizeTotals(t *testing.T) {
	t.Parallel()

	holdings := []domain.Holding{
		{ID: 1, AssetID: "bitcoin", Quantity: 0.5, Invested: 20000},
		{ID: 2, AssetID: "ethereum", Quantity: 10, Invested: 20000},
	}
	s := Summarize(holdings, snapMap(map[string]float64{"bitcoin": 50000, "ethereum": 2500}))

	if s.TotalValue != 50000 {
		t.Fatalf("expected total value 50000, got %v", s.TotalValue)
	}
	if s.TotalInvested != 40000 {
		t.Fatalf("expected total invested 40000, got %v", s.TotalInvested)
	}
	if s.TotalProfitLoss != 10000 {
		t.Fatalf("expected total profit 10000, got %v", s.TotalProfitLoss)
	}
	if !almostEqual(s.TotalProfitLossPct, 25) {
		t.Fatalf("expected 25%%, got %v", s.TotalProfitLossPct)
	}
}

func TestSummarizeEmptyPortfolio(t *testing.T) {
	t.Parallel()

	s := Summarize(nil, nil)
	if len(s.Positions) != 0 {
		t.Fatalf("expected no positions, got %d", len(s.Positions))
	}
	if s.TotalProfitLossPct != 0 || math.IsNaN(s.TotalProfitLossPct) {
		t.Fatalf("expected 0%%, got %v", s.TotalProfitLossPct)
	}
}
