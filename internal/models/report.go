package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AnalysisReport is the engine's single output value: every analysis section
// assembled from one snapshot, plus generation metadata.
type AnalysisReport struct {
	GeneratedAt     time.Time              `json:"generated_at"`
	Summary         *PortfolioSummary      `json:"summary"`
	Performance     *PerformanceAnalysis   `json:"performance"`
	Risk            *RiskAnalysis          `json:"risk"`
	Attribution     *AttributionAnalysis   `json:"attribution"`
	Diversification *DiversificationReport `json:"diversification"`
	Correlation     *CorrelationAnalysis   `json:"correlation"`
	StressTest      *StressTestReport      `json:"stress_test"`
	Scenarios       *ScenarioAnalysis      `json:"scenarios"`
	ESG             *ESGReport             `json:"esg"`
	Recommendations []Recommendation       `json:"recommendations"`
	Warnings        []string               `json:"warnings,omitempty"`
}

// PortfolioSummary captures the snapshot-level figures that frame the rest of
// the report.
type PortfolioSummary struct {
	TotalValue     decimal.Decimal `json:"total_value"`
	CashBalance    decimal.Decimal `json:"cash_balance"`
	InvestedValue  decimal.Decimal `json:"invested_value"`
	UnrealizedPnL  decimal.Decimal `json:"unrealized_pnl"`
	HoldingCount   int             `json:"holding_count"`
	BestPerformer  *HoldingBrief   `json:"best_performer,omitempty"`
	WorstPerformer *HoldingBrief   `json:"worst_performer,omitempty"`
}

// HoldingBrief is a holding reference used inside report sections.
type HoldingBrief struct {
	Symbol       string          `json:"symbol"`
	PeriodReturn decimal.Decimal `json:"period_return"`
}

// PerformanceAnalysis holds return-based performance metrics over the
// snapshot's historical value series.
type PerformanceAnalysis struct {
	PeriodCount      int                  `json:"period_count"`
	TotalReturn      Metric               `json:"total_return"`
	AnnualizedReturn Metric               `json:"annualized_return"`
	SharpeRatio      Metric               `json:"sharpe_ratio"`
	SortinoRatio     Metric               `json:"sortino_ratio"`
	CalmarRatio      Metric               `json:"calmar_ratio"`
	MaxDrawdown      Metric               `json:"max_drawdown"`
	WinRate          Metric               `json:"win_rate"`
	AverageWin       Metric               `json:"average_win"`
	AverageLoss      Metric               `json:"average_loss"`
	WinLossRatio     Metric               `json:"win_loss_ratio"`
	Benchmark        *BenchmarkComparison `json:"benchmark,omitempty"`
}

// BenchmarkComparison holds benchmark-relative metrics, present only when a
// benchmark series was supplied.
type BenchmarkComparison struct {
	Symbol           string `json:"symbol"`
	Beta             Metric `json:"beta"`
	Alpha            Metric `json:"alpha"`
	TrackingError    Metric `json:"tracking_error"`
	InformationRatio Metric `json:"information_ratio"`
}

// RiskAnalysis holds distribution and tail-risk metrics plus the composite
// risk score.
type RiskAnalysis struct {
	Volatility           Metric `json:"volatility"`
	AnnualizedVolatility Metric `json:"annualized_volatility"`
	VaR95                Metric `json:"var_95"`
	VaR99                Metric `json:"var_99"`
	ExpectedShortfall95  Metric `json:"expected_shortfall_95"`
	ExpectedShortfall99  Metric `json:"expected_shortfall_99"`
	Skewness             Metric `json:"skewness"`
	Kurtosis             Metric `json:"kurtosis"`
	RiskScore            Metric `json:"risk_score"`
	RiskLevel            string `json:"risk_level,omitempty"`
}

// AttributionAnalysis breaks the portfolio's period return into per-holding
// and per-sector contributions.
type AttributionAnalysis struct {
	PortfolioReturn decimal.Decimal       `json:"portfolio_return"`
	Holdings        []HoldingContribution `json:"holdings"`
	Sectors         []SectorContribution  `json:"sectors"`
	TopContributor  *HoldingContribution  `json:"top_contributor,omitempty"`
	TopDetractor    *HoldingContribution  `json:"top_detractor,omitempty"`
}

// HoldingContribution is one holding's share of the portfolio period return.
type HoldingContribution struct {
	Symbol       string          `json:"symbol"`
	Weight       decimal.Decimal `json:"weight"`
	PeriodReturn decimal.Decimal `json:"period_return"`
	Contribution decimal.Decimal `json:"contribution"`
}

// SectorContribution aggregates holding contributions per sector.
type SectorContribution struct {
	Sector       string          `json:"sector"`
	Weight       decimal.Decimal `json:"weight"`
	Contribution decimal.Decimal `json:"contribution"`
}

// DiversificationReport describes how the portfolio is spread across
// holdings, sectors, asset classes and geographies.
type DiversificationReport struct {
	HoldingCount      int                        `json:"holding_count"`
	SectorCount       int                        `json:"sector_count"`
	SectorWeights     map[string]decimal.Decimal `json:"sector_weights"`
	AssetClassWeights map[string]decimal.Decimal `json:"asset_class_weights"`
	GeographyWeights  map[string]decimal.Decimal `json:"geography_weights,omitempty"`
	HerfindahlIndex   decimal.Decimal            `json:"herfindahl_index"`
	EffectiveHoldings Metric                     `json:"effective_holdings"`
	TopConcentration  []HoldingWeight            `json:"top_concentration"`
	Score             decimal.Decimal            `json:"score"`
}

// HoldingWeight is a symbol/weight pair used for concentration listings.
type HoldingWeight struct {
	Symbol string          `json:"symbol"`
	Weight decimal.Decimal `json:"weight"`
}

// CorrelationAnalysis holds the pairwise correlation matrix over the symbols
// for which market data was supplied.
type CorrelationAnalysis struct {
	Available   bool                                  `json:"available"`
	Reason      string                                `json:"reason,omitempty"`
	Symbols     []string                              `json:"symbols,omitempty"`
	Matrix      map[string]map[string]decimal.Decimal `json:"matrix,omitempty"`
	HighestPair *CorrelationPair                      `json:"highest_pair,omitempty"`
	LowestPair  *CorrelationPair                      `json:"lowest_pair,omitempty"`
	Average     Metric                                `json:"average_correlation"`
}

// CorrelationPair names the two symbols behind a matrix extreme.
type CorrelationPair struct {
	SymbolA     string          `json:"symbol_a"`
	SymbolB     string          `json:"symbol_b"`
	Correlation decimal.Decimal `json:"correlation"`
}

// StressTestReport holds the outcome of replaying the historical shock
// catalogue against the current holdings.
type StressTestReport struct {
	Results []StressTestResult `json:"results"`
}

// StressTestResult is one shock applied to the portfolio.
type StressTestResult struct {
	Scenario             string          `json:"scenario"`
	MarketDrop           decimal.Decimal `json:"market_drop"`
	EstimatedLoss        decimal.Decimal `json:"estimated_loss"`
	EstimatedLossPercent decimal.Decimal `json:"estimated_loss_percent"`
	PortfolioValueAfter  decimal.Decimal `json:"portfolio_value_after"`
	MostAffected         string          `json:"most_affected,omitempty"`
	LeastAffected        string          `json:"least_affected,omitempty"`
	RecoveryMonths       Metric          `json:"recovery_months"`
}

// ScenarioAnalysis projects the portfolio across forward-looking macro
// states.
type ScenarioAnalysis struct {
	Scenarios                 []ScenarioProjection `json:"scenarios"`
	ProbabilityWeightedReturn Metric               `json:"probability_weighted_return"`
}

// ScenarioProjection is one macro state applied to the portfolio.
type ScenarioProjection struct {
	Name           string          `json:"name"`
	MarketReturn   decimal.Decimal `json:"market_return"`
	Volatility     decimal.Decimal `json:"volatility"`
	Probability    decimal.Decimal `json:"probability"`
	ExpectedReturn decimal.Decimal `json:"expected_return"`
	ProjectedValue decimal.Decimal `json:"projected_value"`
}

// ESGReport carries environmental/social/governance scores when a provider is
// configured, or the unavailable reason otherwise.
type ESGReport struct {
	Available     bool   `json:"available"`
	Reason        string `json:"reason,omitempty"`
	Environmental Metric `json:"environmental"`
	Social        Metric `json:"social"`
	Governance    Metric `json:"governance"`
	Composite     Metric `json:"composite"`
}

// Recommendation is an actionable finding derived from the report sections.
type Recommendation struct {
	Category string `json:"category"`
	Priority string `json:"priority"`
	Message  string `json:"message"`
}
