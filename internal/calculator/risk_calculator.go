package calculator

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"portfolio-analytics/internal/models"
)

// RiskCalculator derives distribution and tail-risk metrics from a return
// series and scores overall portfolio risk.
type RiskCalculator struct {
	periodsPerYear int
	confidence     float64
	volCeiling     decimal.Decimal
	volWeight      decimal.Decimal
	concWeight     decimal.Decimal
	divWeight      decimal.Decimal
}

type RiskCalculatorConfig struct {
	PeriodsPerYear int `json:"periods_per_year" default:"252"`
	// ConfidenceLevel is the primary VaR confidence level; the 99% figures
	// are always reported alongside it.
	ConfidenceLevel float64 `json:"confidence_level" default:"0.95"`
	// VolCeiling is the annualized volatility treated as maximal when
	// normalizing for the composite score.
	// The three components are equally weighted unless overridden.
	VolCeiling          float64 `json:"vol_ceiling" default:"0.60"`
	VolatilityWeight    float64 `json:"volatility_weight"`
	ConcentrationWeight float64 `json:"concentration_weight"`
	DiversityWeight     float64 `json:"diversity_weight"`
}

func NewRiskCalculator(config RiskCalculatorConfig) *RiskCalculator {
	if config.PeriodsPerYear <= 0 {
		config.PeriodsPerYear = 252
	}
	if config.ConfidenceLevel <= 0 || config.ConfidenceLevel >= 1 {
		config.ConfidenceLevel = 0.95
	}
	if config.VolCeiling <= 0 {
		config.VolCeiling = 0.60
	}
	if config.VolatilityWeight+config.ConcentrationWeight+config.DiversityWeight == 0 {
		config.VolatilityWeight = 1.0 / 3
		config.ConcentrationWeight = 1.0 / 3
		config.DiversityWeight = 1.0 / 3
	}
	return &RiskCalculator{
		periodsPerYear: config.PeriodsPerYear,
		confidence:     config.ConfidenceLevel,
		volCeiling:     decimal.NewFromFloat(config.VolCeiling),
		volWeight:      decimal.NewFromFloat(config.VolatilityWeight),
		concWeight:     decimal.NewFromFloat(config.ConcentrationWeight),
		divWeight:      decimal.NewFromFloat(config.DiversityWeight),
	}
}

// CalculateRisk computes volatility, empirical VaR and expected shortfall at
// 95% and 99%, and the third/fourth moments of the return distribution. The
// composite score is filled in separately by ScoreRisk once concentration
// figures are known.
func (rc *RiskCalculator) CalculateRisk(returns []decimal.Decimal) *models.RiskAnalysis {
	analysis := &models.RiskAnalysis{}

	if len(returns) < 2 {
		analysis.Volatility = models.MetricUnavailable(models.ReasonInsufficientHistory)
		analysis.AnnualizedVolatility = models.MetricUnavailable(models.ReasonInsufficientHistory)
	} else {
		variance := PopulationVariance(returns)
		varianceFloat, _ := variance.Float64()
		stdDev := math.Sqrt(varianceFloat)
		analysis.Volatility = models.MetricFromFloat(stdDev)
		analysis.AnnualizedVolatility = models.MetricFromFloat(
			stdDev * math.Sqrt(float64(rc.periodsPerYear)))
	}

	analysis.VaR95 = rc.calculateVaR(returns, rc.confidence)
	analysis.VaR99 = rc.calculateVaR(returns, 0.99)
	analysis.ExpectedShortfall95 = rc.calculateExpectedShortfall(returns, rc.confidence)
	analysis.ExpectedShortfall99 = rc.calculateExpectedShortfall(returns, 0.99)
	analysis.Skewness, analysis.Kurtosis = rc.calculateMoments(returns)

	return analysis
}

// minSampleFor is the smallest sample that makes the (1-c) quantile
// meaningful: ceil(1/(1-c)) observations.
func minSampleFor(confidence float64) int {
	return int(math.Ceil(1.0 / (1.0 - confidence)))
}

// CheckSample reports whether the series can support empirical VaR at the
// configured confidence level.
func (rc *RiskCalculator) CheckSample(observations int) error {
	required := minSampleFor(rc.confidence)
	if observations < required {
		return &models.InsufficientDataError{
			Metric:   "value_at_risk",
			Required: required,
			Actual:   observations,
		}
	}
	return nil
}

// calculateVaR returns the empirical value-at-risk at the given confidence
// level: the magnitude of the return at the (1-c) quantile of the sorted
// series.
func (rc *RiskCalculator) calculateVaR(returns []decimal.Decimal, confidence float64) models.Metric {
	if len(returns) < minSampleFor(confidence) {
		return models.MetricUnavailable(models.ReasonInsufficientSample)
	}

	sorted := sortedCopy(returns)
	index := int(math.Floor((1.0 - confidence) * float64(len(sorted))))
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return models.MetricOf(sorted[index].Abs())
}

// calculateExpectedShortfall averages the tail at or below the VaR cutoff.
func (rc *RiskCalculator) calculateExpectedShortfall(returns []decimal.Decimal, confidence float64) models.Metric {
	if len(returns) < minSampleFor(confidence) {
		return models.MetricUnavailable(models.ReasonInsufficientSample)
	}

	sorted := sortedCopy(returns)
	cutoff := int(math.Floor((1.0 - confidence) * float64(len(sorted))))
	if cutoff >= len(sorted) {
		cutoff = len(sorted) - 1
	}

	sum := decimal.Zero
	for i := 0; i <= cutoff; i++ {
		sum = sum.Add(sorted[i])
	}
	tailMean := sum.Div(decimal.NewFromInt(int64(cutoff + 1)))

	return models.MetricOf(tailMean.Abs())
}

// calculateMoments returns standardized skewness and excess kurtosis.
func (rc *RiskCalculator) calculateMoments(returns []decimal.Decimal) (models.Metric, models.Metric) {
	if len(returns) < 3 {
		return models.MetricUnavailable(models.ReasonInsufficientHistory),
			models.MetricUnavailable(models.ReasonInsufficientHistory)
	}

	data := toFloats(returns)
	meanVal, err := stats.Mean(data)
	if err != nil {
		return models.MetricUnavailable(models.ReasonInsufficientHistory),
			models.MetricUnavailable(models.ReasonInsufficientHistory)
	}
	stdDev, err := stats.StandardDeviationPopulation(data)
	if err != nil || stdDev == 0 {
		return models.MetricUnavailable(models.ReasonZeroVolatility),
			models.MetricUnavailable(models.ReasonZeroVolatility)
	}

	var third, fourth float64
	for _, v := range data {
		z := (v - meanVal) / stdDev
		third += z * z * z
		fourth += z * z * z * z
	}
	n := float64(len(data))
	skewness := third / n
	kurtosis := fourth/n - 3 // excess kurtosis

	return models.MetricFromFloat(skewness), models.MetricFromFloat(kurtosis)
}

// ScoreRisk combines normalized volatility, Herfindahl concentration and the
// inverse diversification score into a 1-10 composite, clamped at both ends.
func (rc *RiskCalculator) ScoreRisk(analysis *models.RiskAnalysis, herfindahl, diversificationScore decimal.Decimal) {
	if !analysis.AnnualizedVolatility.Available() {
		analysis.RiskScore = models.MetricUnavailable(analysis.AnnualizedVolatility.Reason)
		return
	}

	normalizedVol := analysis.AnnualizedVolatility.Decimal().Div(rc.volCeiling)
	if normalizedVol.GreaterThan(decimal.NewFromInt(1)) {
		normalizedVol = decimal.NewFromInt(1)
	}

	inverseDiv := decimal.NewFromInt(1).Sub(diversificationScore)

	composite := normalizedVol.Mul(rc.volWeight).
		Add(herfindahl.Mul(rc.concWeight)).
		Add(inverseDiv.Mul(rc.divWeight))

	// Map the 0-1 composite onto the 1-10 scale.
	score := decimal.NewFromInt(1).Add(composite.Mul(decimal.NewFromInt(9)))
	if score.LessThan(decimal.NewFromInt(1)) {
		score = decimal.NewFromInt(1)
	}
	if score.GreaterThan(decimal.NewFromInt(10)) {
		score = decimal.NewFromInt(10)
	}

	analysis.RiskScore = models.MetricOf(score)
	analysis.RiskLevel = riskLevel(score)
}

func riskLevel(score decimal.Decimal) string {
	scoreFloat, _ := score.Float64()
	switch {
	case scoreFloat <= 3:
		return "conservative"
	case scoreFloat <= 5:
		return "moderate"
	case scoreFloat <= 7:
		return "moderate-aggressive"
	case scoreFloat <= 9:
		return "aggressive"
	default:
		return "very-aggressive"
	}
}

func sortedCopy(returns []decimal.Decimal) []decimal.Decimal {
	sorted := make([]decimal.Decimal, len(returns))
	copy(sorted, returns)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].LessThan(sorted[j])
	})
	return sorted
}
