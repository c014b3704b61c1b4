package analytics

import (
	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"portfolio-analytics/internal/calculator"
	"portfolio-analytics/internal/models"
)

// CorrelationAnalyzer computes pairwise Pearson correlations between holding
// return series drawn from the supplied market data.
type CorrelationAnalyzer struct{}

func NewCorrelationAnalyzer() *CorrelationAnalyzer {
	return &CorrelationAnalyzer{}
}

// Analyze builds a symmetric correlation matrix with a unit diagonal over the
// holdings that have usable price series. When market data is missing or the
// series cannot be aligned, the result is explicitly unavailable; correlations
// are never fabricated.
func (ca *CorrelationAnalyzer) Analyze(snapshot *models.PortfolioSnapshot, market *models.MarketData) *models.CorrelationAnalysis {
	if market == nil || len(market.Series) == 0 {
		return &models.CorrelationAnalysis{
			Available: false,
			Reason:    models.ReasonMarketDataMissing,
			Average:   models.MetricUnavailable(models.ReasonMarketDataMissing),
		}
	}

	symbols := make([]string, 0, len(snapshot.Holdings))
	returnSeries := make(map[string][]decimal.Decimal)
	seriesLen := -1

	for i := range snapshot.Holdings {
		symbol := snapshot.Holdings[i].Symbol
		prices, ok := market.SeriesFor(symbol)
		if !ok || len(prices) < 3 {
			continue
		}
		if seriesLen == -1 {
			seriesLen = len(prices)
		} else if len(prices) != seriesLen {
			return &models.CorrelationAnalysis{
				Available: false,
				Reason:    models.ReasonSeriesMisaligned,
				Average:   models.MetricUnavailable(models.ReasonSeriesMisaligned),
			}
		}
		returns, err := calculator.CalculateReturns(prices)
		if err != nil {
			return &models.CorrelationAnalysis{
				Available: false,
				Reason:    models.ReasonZeroValueInSeries,
				Average:   models.MetricUnavailable(models.ReasonZeroValueInSeries),
			}
		}
		symbols = append(symbols, symbol)
		returnSeries[symbol] = returns
	}

	if len(symbols) < 2 {
		return &models.CorrelationAnalysis{
			Available: false,
			Reason:    models.ReasonMarketDataMissing,
			Average:   models.MetricUnavailable(models.ReasonMarketDataMissing),
		}
	}

	analysis := &models.CorrelationAnalysis{
		Available: true,
		Symbols:   symbols,
		Matrix:    make(map[string]map[string]decimal.Decimal, len(symbols)),
	}

	one := decimal.NewFromInt(1)
	sum := decimal.Zero
	pairs := 0

	for _, a := range symbols {
		analysis.Matrix[a] = make(map[string]decimal.Decimal, len(symbols))
		analysis.Matrix[a][a] = one
	}

	for i := 0; i < len(symbols); i++ {
		for j := i + 1; j < len(symbols); j++ {
			a, b := symbols[i], symbols[j]
			corr, err := stats.Pearson(floats(returnSeries[a]), floats(returnSeries[b]))
			if err != nil {
				// A constant series has no defined correlation; leave the
				// pair out rather than inventing a value.
				continue
			}
			value := decimal.NewFromFloat(corr)
			analysis.Matrix[a][b] = value
			analysis.Matrix[b][a] = value

			sum = sum.Add(value)
			pairs++

			pair := &models.CorrelationPair{SymbolA: a, SymbolB: b, Correlation: value}
			if analysis.HighestPair == nil || value.GreaterThan(analysis.HighestPair.Correlation) {
				analysis.HighestPair = pair
			}
			if analysis.LowestPair == nil || value.LessThan(analysis.LowestPair.Correlation) {
				analysis.LowestPair = pair
			}
		}
	}

	if pairs == 0 {
		analysis.Average = models.MetricUnavailable(models.ReasonZeroVolatility)
	} else {
		analysis.Average = models.MetricOf(sum.Div(decimal.NewFromInt(int64(pairs))))
	}

	return analysis
}

func floats(series []decimal.Decimal) []float64 {
	out := make([]float64, len(series))
	for i, v := range series {
		out[i], _ = v.Float64()
	}
	return out
}
