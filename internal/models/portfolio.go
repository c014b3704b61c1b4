package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// allocationTolerance is the allowed deviation (in percentage points) between
// the sum of holding allocations plus cash and 100%.
var allocationTolerance = decimal.NewFromFloat(0.5)

// Holding represents a single position inside a portfolio snapshot.
type Holding struct {
	Symbol            string          `json:"symbol"`
	CompanyName       string          `json:"company_name"`
	Shares            decimal.Decimal `json:"shares"`
	AverageCost       decimal.Decimal `json:"average_cost"`
	CurrentPrice      decimal.Decimal `json:"current_price"`
	MarketValue       decimal.Decimal `json:"market_value"`
	DayChange         decimal.Decimal `json:"day_change"`
	DayChangePercent  decimal.Decimal `json:"day_change_percent"`
	AllocationPercent decimal.Decimal `json:"allocation_percent"`
	Sector            string          `json:"sector"`
	AssetType         string          `json:"asset_type"`
	Geography         string          `json:"geography,omitempty"`
}

// PeriodReturn returns the holding's return over the reporting period as a
// fraction (DayChangePercent is expressed in percent).
func (h *Holding) PeriodReturn() decimal.Decimal {
	return h.DayChangePercent.Div(decimal.NewFromInt(100))
}

// UnrealizedPnL returns the gain or loss against the holding's cost basis.
func (h *Holding) UnrealizedPnL() decimal.Decimal {
	return h.MarketValue.Sub(h.Shares.Mul(h.AverageCost))
}

// PortfolioSnapshot is the engine's primary input: the current holdings plus
// the historical total-value series, one entry per trading period, oldest
// first. The engine never mutates it.
type PortfolioSnapshot struct {
	Holdings         []Holding         `json:"holdings"`
	CashBalance      decimal.Decimal   `json:"cash_balance"`
	TotalValue       decimal.Decimal   `json:"total_value"`
	HistoricalValues []decimal.Decimal `json:"historical_values"`
}

// HoldingsValue returns the sum of holding market values.
func (p *PortfolioSnapshot) HoldingsValue() decimal.Decimal {
	total := decimal.Zero
	for _, h := range p.Holdings {
		total = total.Add(h.MarketValue)
	}
	return total
}

// Weight returns the holding's fractional weight of total value.
func (p *PortfolioSnapshot) Weight(h *Holding) decimal.Decimal {
	if p.TotalValue.IsZero() {
		return decimal.Zero
	}
	return h.MarketValue.Div(p.TotalValue)
}

// Validate checks structural invariants. A failure here indicates a bug in
// the calling pipeline, not a data-sparsity condition, so the whole analysis
// call must abort.
func (p *PortfolioSnapshot) Validate() error {
	if p.TotalValue.LessThan(decimal.Zero) {
		return &ValidationError{Field: "total_value", Reason: "total value cannot be negative"}
	}

	if len(p.Holdings) == 0 && p.TotalValue.GreaterThan(p.CashBalance) {
		return &ValidationError{Field: "holdings", Reason: "holdings list is empty but total value exceeds cash balance"}
	}

	allocation := decimal.Zero
	for i := range p.Holdings {
		h := &p.Holdings[i]
		if h.Symbol == "" {
			return &ValidationError{Field: "holdings", Reason: fmt.Sprintf("holding %d: symbol is required", i)}
		}
		if h.Shares.LessThan(decimal.Zero) {
			return &ValidationError{Field: "holdings", Reason: fmt.Sprintf("holding %s: shares cannot be negative", h.Symbol)}
		}
		if h.AverageCost.LessThan(decimal.Zero) {
			return &ValidationError{Field: "holdings", Reason: fmt.Sprintf("holding %s: average cost cannot be negative", h.Symbol)}
		}
		allocation = allocation.Add(h.AllocationPercent)
	}

	// Holding allocations plus cash must account for the whole portfolio.
	if len(p.Holdings) > 0 && !p.TotalValue.IsZero() {
		cashPercent := p.CashBalance.Div(p.TotalValue).Mul(decimal.NewFromInt(100))
		total := allocation.Add(cashPercent)
		if total.Sub(decimal.NewFromInt(100)).Abs().GreaterThan(allocationTolerance) {
			return &ValidationError{
				Field:  "holdings",
				Reason: fmt.Sprintf("allocation percentages sum to %s, expected 100", total.StringFixed(2)),
			}
		}
	}

	expected := p.HoldingsValue().Add(p.CashBalance)
	if expected.Sub(p.TotalValue).Abs().GreaterThan(decimal.NewFromFloat(0.01)) {
		return &ValidationError{
			Field:  "total_value",
			Reason: fmt.Sprintf("total value %s does not equal holdings plus cash %s", p.TotalValue, expected),
		}
	}

	return nil
}

// PriceSeries is a chronological per-symbol price history.
type PriceSeries struct {
	Symbol string            `json:"symbol"`
	Prices []decimal.Decimal `json:"prices"`
}

// MarketData carries optional per-symbol price histories used for the
// correlation matrix and per-holding beta estimates.
type MarketData struct {
	Series []PriceSeries `json:"series"`
}

// SeriesFor returns the price series for a symbol, if present.
func (m *MarketData) SeriesFor(symbol string) ([]decimal.Decimal, bool) {
	if m == nil {
		return nil, false
	}
	for i := range m.Series {
		if m.Series[i].Symbol == symbol {
			return m.Series[i].Prices, true
		}
	}
	return nil, false
}

// BenchmarkData carries the reference index value series, aligned by period
// index to the portfolio's historical values.
type BenchmarkData struct {
	Symbol           string            `json:"symbol"`
	HistoricalValues []decimal.Decimal `json:"historical_values"`
}
