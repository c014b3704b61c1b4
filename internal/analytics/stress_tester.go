package analytics

import (
	"github.com/shopspring/decimal"

	"portfolio-analytics/internal/calculator"
	"portfolio-analytics/internal/models"
)

// StressScenario is one historical shock from the catalogue.
type StressScenario struct {
	Name string
	// MarketDrop is the market-wide decline as a negative fraction.
	MarketDrop decimal.Decimal
	// Correlation is the assumed portfolio-to-market correlation during the
	// shock. Correlations tighten in crises, hence the high defaults.
	Correlation decimal.Decimal
}

// MacroScenario is a forward-looking market state for scenario analysis.
type MacroScenario struct {
	Name         string
	MarketReturn decimal.Decimal
	Volatility   decimal.Decimal
	Probability  decimal.Decimal
}

// DefaultStressScenarios returns the built-in historical shock catalogue.
func DefaultStressScenarios() []StressScenario {
	return []StressScenario{
		{Name: "2008 Financial Crisis", MarketDrop: decimal.NewFromFloat(-0.37), Correlation: decimal.NewFromFloat(0.80)},
		{Name: "COVID-19 Crash", MarketDrop: decimal.NewFromFloat(-0.34), Correlation: decimal.NewFromFloat(0.85)},
		{Name: "Dot-Com Bust", MarketDrop: decimal.NewFromFloat(-0.30), Correlation: decimal.NewFromFloat(0.75)},
		{Name: "Black Monday", MarketDrop: decimal.NewFromFloat(-0.22), Correlation: decimal.NewFromFloat(0.90)},
	}
}

// DefaultMacroScenarios returns the built-in macro states, equally weighted.
func DefaultMacroScenarios() []MacroScenario {
	equal := decimal.NewFromFloat(0.2)
	return []MacroScenario{
		{Name: "bull_market", MarketReturn: decimal.NewFromFloat(0.15), Volatility: decimal.NewFromFloat(0.12), Probability: equal},
		{Name: "bear_market", MarketReturn: decimal.NewFromFloat(-0.20), Volatility: decimal.NewFromFloat(0.25), Probability: equal},
		{Name: "recession", MarketReturn: decimal.NewFromFloat(-0.28), Volatility: decimal.NewFromFloat(0.30), Probability: equal},
		{Name: "inflation_spike", MarketReturn: decimal.NewFromFloat(-0.08), Volatility: decimal.NewFromFloat(0.20), Probability: equal},
		{Name: "rising_rates", MarketReturn: decimal.NewFromFloat(-0.05), Volatility: decimal.NewFromFloat(0.18), Probability: equal},
	}
}

// StressTester replays historical shocks and projects macro scenarios against
// the current holdings.
type StressTester struct {
	scenarios            []StressScenario
	macroScenarios       []MacroScenario
	recoveryRatePerMonth decimal.Decimal
}

type StressTesterConfig struct {
	Scenarios      []StressScenario
	MacroScenarios []MacroScenario
	// RecoveryRatePerMonth is the assumed fraction of portfolio value
	// recovered per month after a shock.
	RecoveryRatePerMonth float64 `json:"recovery_rate_per_month" default:"0.02"`
}

func NewStressTester(config StressTesterConfig) *StressTester {
	if len(config.Scenarios) == 0 {
		config.Scenarios = DefaultStressScenarios()
	}
	if len(config.MacroScenarios) == 0 {
		config.MacroScenarios = DefaultMacroScenarios()
	}
	if config.RecoveryRatePerMonth <= 0 {
		config.RecoveryRatePerMonth = 0.02
	}
	return &StressTester{
		scenarios:            config.Scenarios,
		macroScenarios:       config.MacroScenarios,
		recoveryRatePerMonth: decimal.NewFromFloat(config.RecoveryRatePerMonth),
	}
}

// RunStressTests applies each catalogue shock to the holdings. Per-holding
// impact is marketValue x |drop| x beta x correlation, with beta estimated
// from market data against the benchmark when both are available and 1.0
// otherwise. Cash is unaffected.
func (st *StressTester) RunStressTests(snapshot *models.PortfolioSnapshot, market *models.MarketData, benchmark *models.BenchmarkData) *models.StressTestReport {
	report := &models.StressTestReport{
		Results: make([]models.StressTestResult, 0, len(st.scenarios)),
	}

	betas := st.estimateBetas(snapshot, market, benchmark)

	for _, scenario := range st.scenarios {
		result := models.StressTestResult{
			Scenario:   scenario.Name,
			MarketDrop: scenario.MarketDrop,
		}

		totalLoss := decimal.Zero
		var worstLoss, bestLoss decimal.Decimal
		for i := range snapshot.Holdings {
			h := &snapshot.Holdings[i]
			loss := h.MarketValue.
				Mul(scenario.MarketDrop.Abs()).
				Mul(betas[h.Symbol]).
				Mul(scenario.Correlation)
			totalLoss = totalLoss.Add(loss)

			if result.MostAffected == "" || loss.GreaterThan(worstLoss) {
				worstLoss = loss
				result.MostAffected = h.Symbol
			}
			if result.LeastAffected == "" || loss.LessThan(bestLoss) {
				bestLoss = loss
				result.LeastAffected = h.Symbol
			}
		}

		result.EstimatedLoss = totalLoss
		result.PortfolioValueAfter = snapshot.TotalValue.Sub(totalLoss)

		if snapshot.TotalValue.IsZero() {
			result.EstimatedLossPercent = decimal.Zero
			result.RecoveryMonths = models.MetricUnavailable(models.ReasonZeroValueInSeries)
		} else {
			lossFraction := totalLoss.Div(snapshot.TotalValue)
			result.EstimatedLossPercent = lossFraction.Mul(decimal.NewFromInt(100))
			result.RecoveryMonths = models.MetricOf(lossFraction.Div(st.recoveryRatePerMonth))
		}

		report.Results = append(report.Results, result)
	}

	return report
}

// RunScenarios projects each macro state onto the invested value (cash is
// carried through unchanged) and reports the probability-weighted expected
// return.
func (st *StressTester) RunScenarios(snapshot *models.PortfolioSnapshot, portfolioBeta decimal.Decimal) *models.ScenarioAnalysis {
	analysis := &models.ScenarioAnalysis{
		Scenarios: make([]models.ScenarioProjection, 0, len(st.macroScenarios)),
	}

	holdingsValue := snapshot.HoldingsValue()
	weighted := decimal.Zero
	totalProbability := decimal.Zero

	for _, scenario := range st.macroScenarios {
		expected := scenario.MarketReturn.Mul(portfolioBeta)
		projected := snapshot.CashBalance.Add(
			holdingsValue.Mul(decimal.NewFromInt(1).Add(expected)))

		analysis.Scenarios = append(analysis.Scenarios, models.ScenarioProjection{
			Name:           scenario.Name,
			MarketReturn:   scenario.MarketReturn,
			Volatility:     scenario.Volatility,
			Probability:    scenario.Probability,
			ExpectedReturn: expected,
			ProjectedValue: projected,
		})

		weighted = weighted.Add(expected.Mul(scenario.Probability))
		totalProbability = totalProbability.Add(scenario.Probability)
	}

	if totalProbability.IsZero() {
		analysis.ProbabilityWeightedReturn = models.MetricUnavailable(models.ReasonInsufficientSample)
	} else {
		analysis.ProbabilityWeightedReturn = models.MetricOf(weighted.Div(totalProbability))
	}

	return analysis
}

// estimateBetas regresses each holding's market-data returns against the
// benchmark returns. Holdings without usable data fall back to beta 1.0.
func (st *StressTester) estimateBetas(snapshot *models.PortfolioSnapshot, market *models.MarketData, benchmark *models.BenchmarkData) map[string]decimal.Decimal {
	one := decimal.NewFromInt(1)
	betas := make(map[string]decimal.Decimal, len(snapshot.Holdings))
	for i := range snapshot.Holdings {
		betas[snapshot.Holdings[i].Symbol] = one
	}

	if market == nil || benchmark == nil || len(benchmark.HistoricalValues) < 3 {
		return betas
	}

	benchmarkReturns, err := calculator.CalculateReturns(benchmark.HistoricalValues)
	if err != nil {
		return betas
	}
	benchmarkVariance := calculator.PopulationVariance(benchmarkReturns)
	if benchmarkVariance.IsZero() {
		return betas
	}

	for i := range snapshot.Holdings {
		symbol := snapshot.Holdings[i].Symbol
		prices, ok := market.SeriesFor(symbol)
		if !ok || len(prices) != len(benchmark.HistoricalValues) {
			continue
		}
		holdingReturns, err := calculator.CalculateReturns(prices)
		if err != nil {
			continue
		}
		betas[symbol] = calculator.Covariance(holdingReturns, benchmarkReturns).Div(benchmarkVariance)
	}

	return betas
}
