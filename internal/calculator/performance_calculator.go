package calculator

import (
	"math"

	"github.com/shopspring/decimal"

	"portfolio-analytics/internal/models"
)

// PerformanceCalculator derives return-based performance metrics from a
// portfolio value series.
type PerformanceCalculator struct {
	riskFreeRate   decimal.Decimal
	periodsPerYear int
}

type PerformanceCalculatorConfig struct {
	RiskFreeRate   float64 `json:"risk_free_rate" default:"0.02"`
	PeriodsPerYear int     `json:"periods_per_year" default:"252"`
}

func NewPerformanceCalculator(config PerformanceCalculatorConfig) *PerformanceCalculator {
	if config.PeriodsPerYear <= 0 {
		config.PeriodsPerYear = 252
	}
	return &PerformanceCalculator{
		riskFreeRate:   decimal.NewFromFloat(config.RiskFreeRate),
		periodsPerYear: config.PeriodsPerYear,
	}
}

// CalculatePerformance computes the performance section from the value series
// and its precomputed period returns. Metrics that cannot be derived from the
// available history carry a reason code instead of a value.
func (pc *PerformanceCalculator) CalculatePerformance(values, returns []decimal.Decimal) *models.PerformanceAnalysis {
	analysis := &models.PerformanceAnalysis{PeriodCount: len(returns)}

	if len(returns) == 0 {
		analysis.TotalReturn = models.MetricUnavailable(models.ReasonInsufficientHistory)
		analysis.AnnualizedReturn = models.MetricUnavailable(models.ReasonInsufficientHistory)
		analysis.SharpeRatio = models.MetricUnavailable(models.ReasonInsufficientHistory)
		analysis.SortinoRatio = models.MetricUnavailable(models.ReasonInsufficientHistory)
		analysis.CalmarRatio = models.MetricUnavailable(models.ReasonInsufficientHistory)
		analysis.MaxDrawdown = models.MetricUnavailable(models.ReasonInsufficientHistory)
		analysis.WinRate = models.MetricUnavailable(models.ReasonInsufficientHistory)
		analysis.AverageWin = models.MetricUnavailable(models.ReasonInsufficientHistory)
		analysis.AverageLoss = models.MetricUnavailable(models.ReasonInsufficientHistory)
		analysis.WinLossRatio = models.MetricUnavailable(models.ReasonInsufficientHistory)
		return analysis
	}

	first := values[0]
	last := values[len(values)-1]
	totalReturn := last.Sub(first).Div(first)
	analysis.TotalReturn = models.MetricOf(totalReturn)

	annualized := pc.annualizedReturn(totalReturn, len(returns))
	analysis.AnnualizedReturn = annualized

	maxDrawdown := pc.calculateMaxDrawdown(values)
	analysis.MaxDrawdown = models.MetricOf(maxDrawdown)

	analysis.SharpeRatio = pc.calculateSharpeRatio(returns, annualized)
	analysis.SortinoRatio = pc.calculateSortinoRatio(returns, annualized)
	analysis.CalmarRatio = pc.calculateCalmarRatio(annualized, maxDrawdown)

	pc.calculateWinLoss(returns, analysis)

	return analysis
}

// CompareToBenchmark computes benchmark-relative metrics. The benchmark value
// series must align one-to-one with the portfolio value series; a length
// mismatch is an *models.AlignmentError, never a silent truncation.
func (pc *PerformanceCalculator) CompareToBenchmark(values, returns []decimal.Decimal, benchmark *models.BenchmarkData) (*models.BenchmarkComparison, error) {
	if len(benchmark.HistoricalValues) != len(values) {
		return nil, &models.AlignmentError{
			PortfolioLen: len(values),
			BenchmarkLen: len(benchmark.HistoricalValues),
		}
	}

	benchmarkReturns, err := CalculateReturns(benchmark.HistoricalValues)
	if err != nil {
		return nil, err
	}

	comparison := &models.BenchmarkComparison{Symbol: benchmark.Symbol}

	if len(returns) < 2 {
		comparison.Beta = models.MetricUnavailable(models.ReasonInsufficientHistory)
		comparison.Alpha = models.MetricUnavailable(models.ReasonInsufficientHistory)
		comparison.TrackingError = models.MetricUnavailable(models.ReasonInsufficientHistory)
		comparison.InformationRatio = models.MetricUnavailable(models.ReasonInsufficientHistory)
		return comparison, nil
	}

	benchmarkVariance := PopulationVariance(benchmarkReturns)
	if benchmarkVariance.IsZero() {
		comparison.Beta = models.MetricUnavailable(models.ReasonZeroBenchmarkVariance)
		comparison.Alpha = models.MetricUnavailable(models.ReasonZeroBenchmarkVariance)
	} else {
		beta := Covariance(returns, benchmarkReturns).Div(benchmarkVariance)
		comparison.Beta = models.MetricOf(beta)
		comparison.Alpha = pc.calculateAlpha(values, returns, benchmark.HistoricalValues, benchmarkReturns, beta)
	}

	// Tracking error is the annualized deviation of active returns.
	activeReturns := make([]decimal.Decimal, len(returns))
	for i := range returns {
		activeReturns[i] = returns[i].Sub(benchmarkReturns[i])
	}
	trackingError := pc.annualizeDeviation(PopulationVariance(activeReturns))
	comparison.TrackingError = models.MetricOf(trackingError)

	if trackingError.IsZero() {
		comparison.InformationRatio = models.MetricUnavailable(models.ReasonZeroVolatility)
	} else {
		meanActive := Mean(activeReturns).Mul(decimal.NewFromInt(int64(pc.periodsPerYear)))
		comparison.InformationRatio = models.MetricOf(meanActive.Div(trackingError))
	}

	return comparison, nil
}

func (pc *PerformanceCalculator) annualizedReturn(totalReturn decimal.Decimal, periods int) models.Metric {
	factor := decimal.NewFromInt(1).Add(totalReturn)
	factorFloat, _ := factor.Float64()
	if factorFloat <= 0 {
		// Portfolio lost its entire value; a geometric annualization is
		// undefined past -100%.
		return models.MetricOf(decimal.NewFromInt(-1))
	}
	exponent := float64(pc.periodsPerYear) / float64(periods)
	return models.MetricFromFloat(math.Pow(factorFloat, exponent) - 1)
}

func (pc *PerformanceCalculator) calculateSharpeRatio(returns []decimal.Decimal, annualized models.Metric) models.Metric {
	if len(returns) < 2 {
		return models.MetricUnavailable(models.ReasonInsufficientHistory)
	}
	annualizedVol := pc.annualizeDeviation(PopulationVariance(returns))
	if annualizedVol.IsZero() {
		return models.MetricUnavailable(models.ReasonZeroVolatility)
	}
	excess := annualized.Decimal().Sub(pc.riskFreeRate)
	return models.MetricOf(excess.Div(annualizedVol))
}

func (pc *PerformanceCalculator) calculateSortinoRatio(returns []decimal.Decimal, annualized models.Metric) models.Metric {
	if len(returns) < 2 {
		return models.MetricUnavailable(models.ReasonInsufficientHistory)
	}

	downsideSquares := decimal.Zero
	downsideCount := 0
	for _, ret := range returns {
		if ret.LessThan(decimal.Zero) {
			downsideSquares = downsideSquares.Add(ret.Mul(ret))
			downsideCount++
		}
	}
	if downsideCount == 0 {
		return models.MetricUnavailable(models.ReasonNoDownsidePeriods)
	}

	// Downside deviation over the losing periods only.
	downsideVariance := downsideSquares.Div(decimal.NewFromInt(int64(downsideCount)))
	annualizedDownside := pc.annualizeDeviation(downsideVariance)
	if annualizedDownside.IsZero() {
		return models.MetricUnavailable(models.ReasonZeroVolatility)
	}

	excess := annualized.Decimal().Sub(pc.riskFreeRate)
	return models.MetricOf(excess.Div(annualizedDownside))
}

func (pc *PerformanceCalculator) calculateCalmarRatio(annualized models.Metric, maxDrawdown decimal.Decimal) models.Metric {
	if maxDrawdown.IsZero() {
		return models.MetricUnavailable(models.ReasonZeroDrawdown)
	}
	return models.MetricOf(annualized.Decimal().Div(maxDrawdown))
}

func (pc *PerformanceCalculator) calculateMaxDrawdown(values []decimal.Decimal) decimal.Decimal {
	maxDrawdown := decimal.Zero
	peak := values[0]

	for _, value := range values {
		if value.GreaterThan(peak) {
			peak = value
		}
		if peak.GreaterThan(decimal.Zero) {
			drawdown := peak.Sub(value).Div(peak)
			if drawdown.GreaterThan(maxDrawdown) {
				maxDrawdown = drawdown
			}
		}
	}

	return maxDrawdown
}

func (pc *PerformanceCalculator) calculateWinLoss(returns []decimal.Decimal, analysis *models.PerformanceAnalysis) {
	winSum := decimal.Zero
	lossSum := decimal.Zero
	wins := 0
	losses := 0

	for _, ret := range returns {
		if ret.GreaterThan(decimal.Zero) {
			winSum = winSum.Add(ret)
			wins++
		} else if ret.LessThan(decimal.Zero) {
			lossSum = lossSum.Add(ret)
			losses++
		}
	}

	analysis.WinRate = models.MetricOf(
		decimal.NewFromInt(int64(wins)).Div(decimal.NewFromInt(int64(len(returns)))))

	if wins == 0 {
		analysis.AverageWin = models.MetricUnavailable(models.ReasonNoWinningPeriods)
	} else {
		analysis.AverageWin = models.MetricOf(winSum.Div(decimal.NewFromInt(int64(wins))))
	}

	if losses == 0 {
		analysis.AverageLoss = models.MetricUnavailable(models.ReasonNoLosingPeriods)
		analysis.WinLossRatio = models.MetricUnavailable(models.ReasonNoLosingPeriods)
		return
	}

	// Reported as a magnitude; lossSum itself is negative.
	averageLoss := lossSum.Div(decimal.NewFromInt(int64(losses)))
	analysis.AverageLoss = models.MetricOf(averageLoss.Abs())

	if wins == 0 {
		analysis.WinLossRatio = models.MetricUnavailable(models.ReasonNoWinningPeriods)
		return
	}
	analysis.WinLossRatio = models.MetricOf(
		winSum.Div(decimal.NewFromInt(int64(wins))).Div(averageLoss.Abs()))
}

func (pc *PerformanceCalculator) calculateAlpha(values, returns, benchmarkValues, benchmarkReturns []decimal.Decimal, beta decimal.Decimal) models.Metric {
	portfolioAnnualized := pc.annualizedReturn(
		values[len(values)-1].Sub(values[0]).Div(values[0]), len(returns))

	benchmarkTotal := benchmarkValues[len(benchmarkValues)-1].
		Sub(benchmarkValues[0]).Div(benchmarkValues[0])
	benchmarkAnnualized := pc.annualizedReturn(benchmarkTotal, len(benchmarkReturns))

	// CAPM expected return: rf + beta * (benchmark - rf).
	expected := pc.riskFreeRate.Add(beta.Mul(benchmarkAnnualized.Decimal().Sub(pc.riskFreeRate)))
	return models.MetricOf(portfolioAnnualized.Decimal().Sub(expected))
}

// annualizeDeviation converts a per-period variance into an annualized
// standard deviation.
func (pc *PerformanceCalculator) annualizeDeviation(variance decimal.Decimal) decimal.Decimal {
	varianceFloat, _ := variance.Float64()
	if varianceFloat <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(math.Sqrt(varianceFloat) * math.Sqrt(float64(pc.periodsPerYear)))
}

// Covariance returns the population covariance of two equal-length series.
func Covariance(a, b []decimal.Decimal) decimal.Decimal {
	if len(a) == 0 || len(a) != len(b) {
		return decimal.Zero
	}
	meanA := Mean(a)
	meanB := Mean(b)
	sum := decimal.Zero
	for i := range a {
		sum = sum.Add(a[i].Sub(meanA).Mul(b[i].Sub(meanB)))
	}
	return sum.Div(decimal.NewFromInt(int64(len(a))))
}
