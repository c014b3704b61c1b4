package analytics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-analytics/internal/models"
)

func TestAttributionAnalyzer(t *testing.T) {
	aa := NewAttributionAnalyzer()

	t.Run("contributions sum to portfolio period return", func(t *testing.T) {
		snapshot := &models.PortfolioSnapshot{
			Holdings: []models.Holding{
				{
					Symbol:           "AAPL",
					MarketValue:      decimal.NewFromInt(600),
					DayChangePercent: decimal.NewFromInt(2),
					Sector:           "Technology",
				},
				{
					Symbol:           "XOM",
					MarketValue:      decimal.NewFromInt(400),
					DayChangePercent: decimal.NewFromInt(-1),
					Sector:           "Energy",
				},
			},
			TotalValue: decimal.NewFromInt(1000),
		}

		analysis := aa.Analyze(snapshot)

		// 0.6*0.02 + 0.4*(-0.01) = 0.012 - 0.004 = 0.008
		assert.True(t, analysis.PortfolioReturn.Equal(decimal.NewFromFloat(0.008)),
			"got %s", analysis.PortfolioReturn)

		sum := decimal.Zero
		for _, h := range analysis.Holdings {
			sum = sum.Add(h.Contribution)
		}
		assert.True(t, sum.Equal(analysis.PortfolioReturn))

		require.Len(t, analysis.Sectors, 2)
		sectorSum := decimal.Zero
		for _, s := range analysis.Sectors {
			sectorSum = sectorSum.Add(s.Contribution)
		}
		assert.True(t, sectorSum.Equal(analysis.PortfolioReturn))
	})

	t.Run("top contributor and detractor", func(t *testing.T) {
		snapshot := &models.PortfolioSnapshot{
			Holdings: []models.Holding{
				{Symbol: "WIN", MarketValue: decimal.NewFromInt(500), DayChangePercent: decimal.NewFromInt(3)},
				{Symbol: "FLAT", MarketValue: decimal.NewFromInt(300), DayChangePercent: decimal.Zero},
				{Symbol: "LOSE", MarketValue: decimal.NewFromInt(200), DayChangePercent: decimal.NewFromInt(-5)},
			},
			TotalValue: decimal.NewFromInt(1000),
		}

		analysis := aa.Analyze(snapshot)

		require.NotNil(t, analysis.TopContributor)
		assert.Equal(t, "WIN", analysis.TopContributor.Symbol)
		require.NotNil(t, analysis.TopDetractor)
		assert.Equal(t, "LOSE", analysis.TopDetractor.Symbol)
	})

	t.Run("unclassified sector bucket", func(t *testing.T) {
		snapshot := &models.PortfolioSnapshot{
			Holdings: []models.Holding{
				{Symbol: "MYS", MarketValue: decimal.NewFromInt(100), DayChangePercent: decimal.NewFromInt(1)},
			},
			TotalValue: decimal.NewFromInt(100),
		}

		analysis := aa.Analyze(snapshot)

		require.Len(t, analysis.Sectors, 1)
		assert.Equal(t, "Unclassified", analysis.Sectors[0].Sector)
	})

	t.Run("empty portfolio", func(t *testing.T) {
		snapshot := &models.PortfolioSnapshot{TotalValue: decimal.Zero}

		analysis := aa.Analyze(snapshot)

		assert.True(t, analysis.PortfolioReturn.IsZero())
		assert.Empty(t, analysis.Holdings)
		assert.Nil(t, analysis.TopContributor)
	})
}
