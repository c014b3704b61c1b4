package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"portfolio-analytics/internal/models"
)

// AttributionAnalyzer decomposes the portfolio's period return into holding
// and sector contributions.
type AttributionAnalyzer struct{}

func NewAttributionAnalyzer() *AttributionAnalyzer {
	return &AttributionAnalyzer{}
}

// Analyze computes contribution = weight x period return for every holding
// and aggregates per sector. The holding contributions sum to the portfolio
// period return by construction (cash contributes zero).
func (aa *AttributionAnalyzer) Analyze(snapshot *models.PortfolioSnapshot) *models.AttributionAnalysis {
	analysis := &models.AttributionAnalysis{
		PortfolioReturn: decimal.Zero,
		Holdings:        make([]models.HoldingContribution, 0, len(snapshot.Holdings)),
		Sectors:         make([]models.SectorContribution, 0),
	}

	sectorWeights := make(map[string]decimal.Decimal)
	sectorContributions := make(map[string]decimal.Decimal)

	for i := range snapshot.Holdings {
		h := &snapshot.Holdings[i]
		weight := snapshot.Weight(h)
		periodReturn := h.PeriodReturn()
		contribution := weight.Mul(periodReturn)

		analysis.Holdings = append(analysis.Holdings, models.HoldingContribution{
			Symbol:       h.Symbol,
			Weight:       weight,
			PeriodReturn: periodReturn,
			Contribution: contribution,
		})
		analysis.PortfolioReturn = analysis.PortfolioReturn.Add(contribution)

		sector := h.Sector
		if sector == "" {
			sector = "Unclassified"
		}
		sectorWeights[sector] = sectorWeights[sector].Add(weight)
		sectorContributions[sector] = sectorContributions[sector].Add(contribution)
	}

	for sector, weight := range sectorWeights {
		analysis.Sectors = append(analysis.Sectors, models.SectorContribution{
			Sector:       sector,
			Weight:       weight,
			Contribution: sectorContributions[sector],
		})
	}
	sort.Slice(analysis.Sectors, func(i, j int) bool {
		return analysis.Sectors[i].Contribution.GreaterThan(analysis.Sectors[j].Contribution)
	})

	sort.Slice(analysis.Holdings, func(i, j int) bool {
		return analysis.Holdings[i].Contribution.GreaterThan(analysis.Holdings[j].Contribution)
	})
	if len(analysis.Holdings) > 0 {
		top := analysis.Holdings[0]
		bottom := analysis.Holdings[len(analysis.Holdings)-1]
		analysis.TopContributor = &top
		analysis.TopDetractor = &bottom
	}

	return analysis
}
