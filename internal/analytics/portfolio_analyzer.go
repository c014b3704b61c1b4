package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"portfolio-analytics/internal/calculator"
	"portfolio-analytics/internal/models"
)

// PortfolioAnalyzer orchestrates the full analysis pipeline: returns,
// performance, risk, attribution, diversification, correlation, stress
// testing, scenarios, ESG and recommendations.
type PortfolioAnalyzer struct {
	performance     *calculator.PerformanceCalculator
	risk            *calculator.RiskCalculator
	attribution     *AttributionAnalyzer
	diversification *DiversificationAnalyzer
	correlation     *CorrelationAnalyzer
	stressTester    *StressTester
	esgProvider     ESGDataProvider
	thresholds      RecommendationThresholds
	lookbackPeriod  int
	strictMode      bool
	logger          *logrus.Logger
}

// RecommendationThresholds are the trigger points for generated findings.
type RecommendationThresholds struct {
	SharpeFloor          float64 `json:"sharpe_floor" default:"1.0"`
	VaRShareOfValue      float64 `json:"var_share_of_value" default:"0.05"`
	DiversificationFloor float64 `json:"diversification_floor" default:"0.7"`
	TopHoldingCeiling    float64 `json:"top_holding_ceiling" default:"0.30"`
	SectorCeiling        float64 `json:"sector_ceiling" default:"0.40"`
}

// AnalyzerConfig aggregates the knobs of every pipeline stage.
type AnalyzerConfig struct {
	Performance     calculator.PerformanceCalculatorConfig
	Risk            calculator.RiskCalculatorConfig
	Diversification DiversificationConfig
	Stress          StressTesterConfig
	Thresholds      RecommendationThresholds
	// LookbackPeriod caps the number of return periods analyzed; older
	// historical values are ignored. Zero means the full series.
	LookbackPeriod int
	// StrictMode turns any degraded (reason-coded) metric into a call
	// failure instead of a null value in the report.
	StrictMode bool
}

func NewPortfolioAnalyzer(config AnalyzerConfig, logger *logrus.Logger) *PortfolioAnalyzer {
	if config.Thresholds.SharpeFloor == 0 {
		config.Thresholds.SharpeFloor = 1.0
	}
	if config.Thresholds.VaRShareOfValue == 0 {
		config.Thresholds.VaRShareOfValue = 0.05
	}
	if config.Thresholds.DiversificationFloor == 0 {
		config.Thresholds.DiversificationFloor = 0.7
	}
	if config.Thresholds.TopHoldingCeiling == 0 {
		config.Thresholds.TopHoldingCeiling = 0.30
	}
	if config.Thresholds.SectorCeiling == 0 {
		config.Thresholds.SectorCeiling = 0.40
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &PortfolioAnalyzer{
		performance:     calculator.NewPerformanceCalculator(config.Performance),
		risk:            calculator.NewRiskCalculator(config.Risk),
		attribution:     NewAttributionAnalyzer(),
		diversification: NewDiversificationAnalyzer(config.Diversification),
		correlation:     NewCorrelationAnalyzer(),
		stressTester:    NewStressTester(config.Stress),
		esgProvider:     NewUnavailableESGProvider(),
		thresholds:      config.Thresholds,
		lookbackPeriod:  config.LookbackPeriod,
		strictMode:      config.StrictMode,
		logger:          logger,
	}
}

// SetESGProvider swaps in an external ESG data source.
func (pa *PortfolioAnalyzer) SetESGProvider(provider ESGDataProvider) {
	if provider != nil {
		pa.esgProvider = provider
	}
}

// AnalyzePortfolio runs the full pipeline over one snapshot. Structural input
// problems fail the whole call; per-metric data problems degrade to explicit
// null-with-reason values unless strict mode is enabled.
func (pa *PortfolioAnalyzer) AnalyzePortfolio(ctx context.Context, snapshot *models.PortfolioSnapshot, market *models.MarketData, benchmark *models.BenchmarkData) (*models.AnalysisReport, error) {
	start := time.Now()

	if snapshot == nil {
		return nil, &models.ValidationError{Field: "snapshot", Reason: "snapshot is required"}
	}

	pa.logger.WithFields(logrus.Fields{
		"holdings": len(snapshot.Holdings),
		"periods":  len(snapshot.HistoricalValues),
	}).Info("Starting portfolio analysis")

	if err := snapshot.Validate(); err != nil {
		pa.logger.WithError(err).Warn("Portfolio analysis rejected invalid input")
		return nil, err
	}

	values := pa.window(snapshot.HistoricalValues)

	returns, err := calculator.CalculateReturns(values)
	if err != nil {
		pa.logger.WithError(err).Warn("Portfolio analysis failed on return series")
		return nil, fmt.Errorf("calculating returns: %w", err)
	}

	// Strict callers get a typed failure up front when the sample cannot
	// support the tail-risk metrics, instead of a degraded report.
	if pa.strictMode {
		if err := pa.risk.CheckSample(len(returns)); err != nil {
			pa.logger.WithError(err).Warn("Portfolio analysis failed on sample size")
			return nil, fmt.Errorf("risk metrics: %w", err)
		}
	}

	report := &models.AnalysisReport{GeneratedAt: time.Now()}

	report.Summary = pa.buildSummary(snapshot)
	report.Performance = pa.performance.CalculatePerformance(values, returns)

	if benchmark != nil {
		// Alignment is judged on the raw inputs; the benchmark is windowed
		// the same way only once the series are known to line up.
		var comparison *models.BenchmarkComparison
		var err error
		if len(benchmark.HistoricalValues) != len(snapshot.HistoricalValues) {
			err = &models.AlignmentError{
				PortfolioLen: len(snapshot.HistoricalValues),
				BenchmarkLen: len(benchmark.HistoricalValues),
			}
		} else {
			windowed := &models.BenchmarkData{
				Symbol:           benchmark.Symbol,
				HistoricalValues: pa.window(benchmark.HistoricalValues),
			}
			comparison, err = pa.performance.CompareToBenchmark(values, returns, windowed)
		}
		if err != nil {
			if pa.strictMode {
				pa.logger.WithError(err).Warn("Portfolio analysis failed on benchmark comparison")
				return nil, fmt.Errorf("benchmark comparison: %w", err)
			}
			report.Performance.Benchmark = misalignedComparison(benchmark.Symbol)
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("benchmark comparison skipped: %s", err.Error()))
		} else {
			report.Performance.Benchmark = comparison
		}
	}

	report.Risk = pa.risk.CalculateRisk(returns)
	report.Attribution = pa.attribution.Analyze(snapshot)
	report.Diversification = pa.diversification.Analyze(snapshot)
	report.Correlation = pa.correlation.Analyze(snapshot, market)

	pa.risk.ScoreRisk(report.Risk, report.Diversification.HerfindahlIndex, report.Diversification.Score)

	report.StressTest = pa.stressTester.RunStressTests(snapshot, market, benchmark)
	report.Scenarios = pa.stressTester.RunScenarios(snapshot, pa.portfolioBeta(report))

	esg, err := pa.esgProvider.Scores(ctx, snapshot)
	if err != nil {
		if pa.strictMode {
			return nil, fmt.Errorf("esg provider: %w", err)
		}
		esg = &models.ESGReport{
			Available:     false,
			Reason:        models.ReasonESGUnavailable,
			Environmental: models.MetricUnavailable(models.ReasonESGUnavailable),
			Social:        models.MetricUnavailable(models.ReasonESGUnavailable),
			Governance:    models.MetricUnavailable(models.ReasonESGUnavailable),
			Composite:     models.MetricUnavailable(models.ReasonESGUnavailable),
		}
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("esg scores unavailable: %s", err.Error()))
	}
	report.ESG = esg

	report.Recommendations = pa.generateRecommendations(report)

	if pa.strictMode {
		if err := pa.checkStrict(report); err != nil {
			pa.logger.WithError(err).Warn("Portfolio analysis failed in strict mode")
			return nil, err
		}
	}

	pa.logger.WithFields(logrus.Fields{
		"duration":        time.Since(start).String(),
		"recommendations": len(report.Recommendations),
		"warnings":        len(report.Warnings),
	}).Info("Portfolio analysis completed")

	return report, nil
}

// window trims a value series to the configured lookback: the last
// lookbackPeriod+1 values yield at most lookbackPeriod returns.
func (pa *PortfolioAnalyzer) window(series []decimal.Decimal) []decimal.Decimal {
	if pa.lookbackPeriod <= 0 || len(series) <= pa.lookbackPeriod+1 {
		return series
	}
	return series[len(series)-pa.lookbackPeriod-1:]
}

func (pa *PortfolioAnalyzer) buildSummary(snapshot *models.PortfolioSnapshot) *models.PortfolioSummary {
	summary := &models.PortfolioSummary{
		TotalValue:    snapshot.TotalValue,
		CashBalance:   snapshot.CashBalance,
		InvestedValue: snapshot.HoldingsValue(),
		HoldingCount:  len(snapshot.Holdings),
	}

	pnl := decimal.Zero
	for i := range snapshot.Holdings {
		h := &snapshot.Holdings[i]
		pnl = pnl.Add(h.UnrealizedPnL())

		periodReturn := h.PeriodReturn()
		if summary.BestPerformer == nil || periodReturn.GreaterThan(summary.BestPerformer.PeriodReturn) {
			summary.BestPerformer = &models.HoldingBrief{Symbol: h.Symbol, PeriodReturn: periodReturn}
		}
		if summary.WorstPerformer == nil || periodReturn.LessThan(summary.WorstPerformer.PeriodReturn) {
			summary.WorstPerformer = &models.HoldingBrief{Symbol: h.Symbol, PeriodReturn: periodReturn}
		}
	}
	summary.UnrealizedPnL = pnl

	return summary
}

// portfolioBeta prefers the benchmark-regressed beta and falls back to 1.0.
func (pa *PortfolioAnalyzer) portfolioBeta(report *models.AnalysisReport) decimal.Decimal {
	if report.Performance.Benchmark != nil && report.Performance.Benchmark.Beta.Available() {
		return report.Performance.Benchmark.Beta.Decimal()
	}
	return decimal.NewFromInt(1)
}

func (pa *PortfolioAnalyzer) generateRecommendations(report *models.AnalysisReport) []models.Recommendation {
	recommendations := make([]models.Recommendation, 0)

	if report.Performance.SharpeRatio.Available() &&
		report.Performance.SharpeRatio.Decimal().LessThan(decimal.NewFromFloat(pa.thresholds.SharpeFloor)) {
		recommendations = append(recommendations, models.Recommendation{
			Category: "performance",
			Priority: "medium",
			Message: fmt.Sprintf("Sharpe ratio %s is below %.2f; risk-adjusted returns are weak",
				report.Performance.SharpeRatio.Decimal().StringFixed(2), pa.thresholds.SharpeFloor),
		})
	}

	if report.Risk.VaR95.Available() &&
		report.Risk.VaR95.Decimal().GreaterThan(decimal.NewFromFloat(pa.thresholds.VaRShareOfValue)) {
		recommendations = append(recommendations, models.Recommendation{
			Category: "risk",
			Priority: "high",
			Message: fmt.Sprintf("Daily VaR(95) of %s%% exceeds %.0f%% of portfolio value; consider reducing exposure",
				report.Risk.VaR95.Decimal().Mul(decimal.NewFromInt(100)).StringFixed(2),
				pa.thresholds.VaRShareOfValue*100),
		})
	}

	if report.Diversification.Score.LessThan(decimal.NewFromFloat(pa.thresholds.DiversificationFloor)) {
		recommendations = append(recommendations, models.Recommendation{
			Category: "diversification",
			Priority: "medium",
			Message: fmt.Sprintf("Diversification score %s is below %.2f; add holdings across more sectors",
				report.Diversification.Score.StringFixed(2), pa.thresholds.DiversificationFloor),
		})
	}

	if len(report.Diversification.TopConcentration) > 0 {
		top := report.Diversification.TopConcentration[0]
		if top.Weight.GreaterThan(decimal.NewFromFloat(pa.thresholds.TopHoldingCeiling)) {
			recommendations = append(recommendations, models.Recommendation{
				Category: "concentration",
				Priority: "high",
				Message: fmt.Sprintf("%s is %s%% of the portfolio; consider trimming the position",
					top.Symbol, top.Weight.Mul(decimal.NewFromInt(100)).StringFixed(1)),
			})
		}
	}

	for sector, weight := range report.Diversification.SectorWeights {
		if weight.GreaterThan(decimal.NewFromFloat(pa.thresholds.SectorCeiling)) {
			recommendations = append(recommendations, models.Recommendation{
				Category: "concentration",
				Priority: "medium",
				Message: fmt.Sprintf("Sector %s holds %s%% of the portfolio; rebalance across sectors",
					sector, weight.Mul(decimal.NewFromInt(100)).StringFixed(1)),
			})
		}
	}

	return recommendations
}

// checkStrict fails on the first metric that carries a reason instead of a
// value. ESG is exempt: an absent provider is configuration, not data decay.
func (pa *PortfolioAnalyzer) checkStrict(report *models.AnalysisReport) error {
	named := []namedMetric{
		{"total_return", report.Performance.TotalReturn},
		{"annualized_return", report.Performance.AnnualizedReturn},
		{"sharpe_ratio", report.Performance.SharpeRatio},
		{"sortino_ratio", report.Performance.SortinoRatio},
		{"calmar_ratio", report.Performance.CalmarRatio},
		{"max_drawdown", report.Performance.MaxDrawdown},
		{"win_rate", report.Performance.WinRate},
		{"average_win", report.Performance.AverageWin},
		{"average_loss", report.Performance.AverageLoss},
		{"win_loss_ratio", report.Performance.WinLossRatio},
		{"volatility", report.Risk.Volatility},
		{"annualized_volatility", report.Risk.AnnualizedVolatility},
		{"var_95", report.Risk.VaR95},
		{"var_99", report.Risk.VaR99},
		{"expected_shortfall_95", report.Risk.ExpectedShortfall95},
		{"expected_shortfall_99", report.Risk.ExpectedShortfall99},
		{"skewness", report.Risk.Skewness},
		{"kurtosis", report.Risk.Kurtosis},
		{"risk_score", report.Risk.RiskScore},
		{"effective_holdings", report.Diversification.EffectiveHoldings},
	}
	if report.Performance.Benchmark != nil {
		b := report.Performance.Benchmark
		named = append(named,
			namedMetric{"beta", b.Beta},
			namedMetric{"alpha", b.Alpha},
			namedMetric{"tracking_error", b.TrackingError},
			namedMetric{"information_ratio", b.InformationRatio},
		)
	}

	for _, entry := range named {
		if !entry.metric.Available() {
			return &models.StrictModeError{Metric: entry.name, Reason: entry.metric.Reason}
		}
	}

	if !report.Correlation.Available && report.Correlation.Reason == models.ReasonSeriesMisaligned {
		return &models.StrictModeError{Metric: "correlation_matrix", Reason: report.Correlation.Reason}
	}

	return nil
}

type namedMetric struct {
	name   string
	metric models.Metric
}

func misalignedComparison(symbol string) *models.BenchmarkComparison {
	return &models.BenchmarkComparison{
		Symbol:           symbol,
		Beta:             models.MetricUnavailable(models.ReasonSeriesMisaligned),
		Alpha:            models.MetricUnavailable(models.ReasonSeriesMisaligned),
		TrackingError:    models.MetricUnavailable(models.ReasonSeriesMisaligned),
		InformationRatio: models.MetricUnavailable(models.ReasonSeriesMisaligned),
	}
}
