package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"portfolio-analytics/internal/models"
)

// DiversificationAnalyzer measures how the portfolio is spread across
// holdings, sectors, asset classes and geographies.
type DiversificationAnalyzer struct {
	holdingCeiling decimal.Decimal
	sectorCeiling  decimal.Decimal
	holdingWeight  decimal.Decimal
	sectorWeight   decimal.Decimal
	topN           int
}

type DiversificationConfig struct {
	// HoldingCeiling and SectorCeiling are the counts at which the holding
	// and sector components of the score saturate.
	HoldingCeiling int     `json:"holding_ceiling" default:"20"`
	SectorCeiling  int     `json:"sector_ceiling" default:"11"`
	HoldingWeight  float64 `json:"holding_weight" default:"0.6"`
	SectorWeight   float64 `json:"sector_weight" default:"0.4"`
	TopN           int     `json:"top_n" default:"5"`
}

func NewDiversificationAnalyzer(config DiversificationConfig) *DiversificationAnalyzer {
	if config.HoldingCeiling <= 0 {
		config.HoldingCeiling = 20
	}
	if config.SectorCeiling <= 0 {
		config.SectorCeiling = 11
	}
	if config.HoldingWeight+config.SectorWeight == 0 {
		config.HoldingWeight = 0.6
		config.SectorWeight = 0.4
	}
	if config.TopN <= 0 {
		config.TopN = 5
	}
	return &DiversificationAnalyzer{
		holdingCeiling: decimal.NewFromInt(int64(config.HoldingCeiling)),
		sectorCeiling:  decimal.NewFromInt(int64(config.SectorCeiling)),
		holdingWeight:  decimal.NewFromFloat(config.HoldingWeight),
		sectorWeight:   decimal.NewFromFloat(config.SectorWeight),
		topN:           config.TopN,
	}
}

// Analyze builds the allocation maps, the Herfindahl concentration index over
// fractional holding weights, effective holdings (1/HHI) and the 0-1
// diversification score.
func (da *DiversificationAnalyzer) Analyze(snapshot *models.PortfolioSnapshot) *models.DiversificationReport {
	report := &models.DiversificationReport{
		HoldingCount:      len(snapshot.Holdings),
		SectorWeights:     make(map[string]decimal.Decimal),
		AssetClassWeights: make(map[string]decimal.Decimal),
		GeographyWeights:  make(map[string]decimal.Decimal),
		TopConcentration:  make([]models.HoldingWeight, 0),
	}

	weights := make([]models.HoldingWeight, 0, len(snapshot.Holdings))
	herfindahl := decimal.Zero

	for i := range snapshot.Holdings {
		h := &snapshot.Holdings[i]
		weight := snapshot.Weight(h)
		weights = append(weights, models.HoldingWeight{Symbol: h.Symbol, Weight: weight})
		herfindahl = herfindahl.Add(weight.Mul(weight))

		sector := h.Sector
		if sector == "" {
			sector = "Unclassified"
		}
		report.SectorWeights[sector] = report.SectorWeights[sector].Add(weight)

		assetType := h.AssetType
		if assetType == "" {
			assetType = "Unclassified"
		}
		report.AssetClassWeights[assetType] = report.AssetClassWeights[assetType].Add(weight)

		if h.Geography != "" {
			report.GeographyWeights[h.Geography] = report.GeographyWeights[h.Geography].Add(weight)
		}
	}

	// Cash is part of the allocation picture even though it is not a holding.
	if !snapshot.CashBalance.IsZero() && !snapshot.TotalValue.IsZero() {
		cashWeight := snapshot.CashBalance.Div(snapshot.TotalValue)
		report.AssetClassWeights["Cash"] = report.AssetClassWeights["Cash"].Add(cashWeight)
	}

	report.SectorCount = len(report.SectorWeights)
	report.HerfindahlIndex = herfindahl

	if herfindahl.IsZero() {
		report.EffectiveHoldings = models.MetricUnavailable(models.ReasonNoHoldings)
	} else {
		report.EffectiveHoldings = models.MetricOf(decimal.NewFromInt(1).Div(herfindahl))
	}

	sort.Slice(weights, func(i, j int) bool {
		return weights[i].Weight.GreaterThan(weights[j].Weight)
	})
	topN := da.topN
	if topN > len(weights) {
		topN = len(weights)
	}
	report.TopConcentration = weights[:topN]

	report.Score = da.score(len(snapshot.Holdings), report.SectorCount)

	return report
}

// score saturates holding and sector counts against their ceilings and
// combines them with the configured weights.
func (da *DiversificationAnalyzer) score(holdingCount, sectorCount int) decimal.Decimal {
	holdingComponent := decimal.NewFromInt(int64(holdingCount)).Div(da.holdingCeiling)
	if holdingComponent.GreaterThan(decimal.NewFromInt(1)) {
		holdingComponent = decimal.NewFromInt(1)
	}
	sectorComponent := decimal.NewFromInt(int64(sectorCount)).Div(da.sectorCeiling)
	if sectorComponent.GreaterThan(decimal.NewFromInt(1)) {
		sectorComponent = decimal.NewFromInt(1)
	}
	return holdingComponent.Mul(da.holdingWeight).Add(sectorComponent.Mul(da.sectorWeight))
}
