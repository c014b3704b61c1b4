package analytics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-analytics/internal/models"
)

func corrSnapshot() *models.PortfolioSnapshot {
	return &models.PortfolioSnapshot{
		Holdings: []models.Holding{
			{Symbol: "AAA", MarketValue: decimal.NewFromInt(500)},
			{Symbol: "BBB", MarketValue: decimal.NewFromInt(500)},
		},
		TotalValue: decimal.NewFromInt(1000),
	}
}

func prices(values ...float64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.NewFromFloat(v)
	}
	return out
}

func TestCorrelationAnalyzer(t *testing.T) {
	ca := NewCorrelationAnalyzer()

	t.Run("unavailable without market data", func(t *testing.T) {
		analysis := ca.Analyze(corrSnapshot(), nil)

		assert.False(t, analysis.Available)
		assert.Equal(t, models.ReasonMarketDataMissing, analysis.Reason)
		assert.False(t, analysis.Average.Available())
	})

	t.Run("perfectly co-moving series correlate at one", func(t *testing.T) {
		market := &models.MarketData{
			Series: []models.PriceSeries{
				{Symbol: "AAA", Prices: prices(100, 110, 99, 105, 120)},
				{Symbol: "BBB", Prices: prices(50, 55, 49.5, 52.5, 60)},
			},
		}

		analysis := ca.Analyze(corrSnapshot(), market)

		require.True(t, analysis.Available)
		require.Contains(t, analysis.Matrix, "AAA")

		// Unit diagonal.
		assert.True(t, analysis.Matrix["AAA"]["AAA"].Equal(decimal.NewFromInt(1)))
		assert.True(t, analysis.Matrix["BBB"]["BBB"].Equal(decimal.NewFromInt(1)))

		// BBB is AAA at half scale: identical returns, correlation 1.
		corr, _ := analysis.Matrix["AAA"]["BBB"].Float64()
		assert.InDelta(t, 1.0, corr, 1e-9)

		// Symmetric matrix.
		assert.True(t, analysis.Matrix["AAA"]["BBB"].Equal(analysis.Matrix["BBB"]["AAA"]))

		require.NotNil(t, analysis.HighestPair)
		require.True(t, analysis.Average.Available())
	})

	t.Run("inverse series correlate at minus one", func(t *testing.T) {
		market := &models.MarketData{
			Series: []models.PriceSeries{
				{Symbol: "AAA", Prices: prices(100, 110, 99)},
				{Symbol: "BBB", Prices: prices(100, 90, 99.9)},
			},
		}

		analysis := ca.Analyze(corrSnapshot(), market)

		require.True(t, analysis.Available)
		corr, _ := analysis.Matrix["AAA"]["BBB"].Float64()
		assert.True(t, corr < 0, "expected negative correlation, got %v", corr)
		require.NotNil(t, analysis.LowestPair)
	})

	t.Run("misaligned series are rejected", func(t *testing.T) {
		market := &models.MarketData{
			Series: []models.PriceSeries{
				{Symbol: "AAA", Prices: prices(100, 110, 99, 105)},
				{Symbol: "BBB", Prices: prices(50, 55, 49.5)},
			},
		}

		analysis := ca.Analyze(corrSnapshot(), market)

		assert.False(t, analysis.Available)
		assert.Equal(t, models.ReasonSeriesMisaligned, analysis.Reason)
		assert.Nil(t, analysis.Matrix)
	})

	t.Run("single usable symbol is not enough", func(t *testing.T) {
		market := &models.MarketData{
			Series: []models.PriceSeries{
				{Symbol: "AAA", Prices: prices(100, 110, 99)},
			},
		}

		analysis := ca.Analyze(corrSnapshot(), market)

		assert.False(t, analysis.Available)
		assert.Equal(t, models.ReasonMarketDataMissing, analysis.Reason)
	})

	t.Run("zero price in series is rejected", func(t *testing.T) {
		market := &models.MarketData{
			Series: []models.PriceSeries{
				{Symbol: "AAA", Prices: prices(100, 0, 99)},
				{Symbol: "BBB", Prices: prices(50, 55, 49.5)},
			},
		}

		analysis := ca.Analyze(corrSnapshot(), market)

		assert.False(t, analysis.Available)
		assert.Equal(t, models.ReasonZeroValueInSeries, analysis.Reason)
	})
}
