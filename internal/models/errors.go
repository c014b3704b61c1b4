package models

import "fmt"

// Reason codes attached to unavailable metrics.
const (
	ReasonInsufficientHistory   = "insufficient_history"
	ReasonInsufficientSample    = "insufficient_sample"
	ReasonZeroVolatility        = "zero_volatility"
	ReasonNoDownsidePeriods     = "no_downside_periods"
	ReasonZeroDrawdown          = "zero_drawdown"
	ReasonZeroBenchmarkVariance = "zero_benchmark_variance"
	ReasonZeroValueInSeries     = "zero_value_in_series"
	ReasonSeriesMisaligned      = "series_misaligned"
	ReasonNoLosingPeriods       = "no_losing_periods"
	ReasonNoWinningPeriods      = "no_winning_periods"
	ReasonNoHoldings            = "no_holdings"
	ReasonMarketDataMissing     = "market_data_unavailable"
	ReasonESGUnavailable        = "esg_data_unavailable"
)

// ValidationError indicates malformed input. It always aborts the whole
// analysis call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// AlignmentError indicates portfolio and benchmark/market series of
// mismatched length. Series are never silently truncated.
type AlignmentError struct {
	PortfolioLen int
	BenchmarkLen int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("series misaligned: portfolio has %d values, benchmark has %d", e.PortfolioLen, e.BenchmarkLen)
}

// DivisionByZeroError indicates a zero portfolio value at a period boundary,
// which makes the period return undefined.
type DivisionByZeroError struct {
	Index int
}

func (e *DivisionByZeroError) Error() string {
	return fmt.Sprintf("period return undefined: value at index %d is zero", e.Index)
}

// InsufficientDataError indicates too few observations for a metric. Outside
// strict mode it degrades to an unavailable metric rather than a failure.
type InsufficientDataError struct {
	Metric   string
	Required int
	Actual   int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s requires at least %d observations, got %d", e.Metric, e.Required, e.Actual)
}

// StrictModeError wraps the first degraded metric when strict mode is on.
type StrictModeError struct {
	Metric string
	Reason string
}

func (e *StrictModeError) Error() string {
	return fmt.Sprintf("strict mode: metric %s unavailable (%s)", e.Metric, e.Reason)
}
