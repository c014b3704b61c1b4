package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-analytics/internal/analytics"
	"portfolio-analytics/internal/models"
	"portfolio-analytics/internal/services"
)

func setupTestRouter(strict bool) *gin.Engine {
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	analyzer := analytics.NewPortfolioAnalyzer(analytics.AnalyzerConfig{StrictMode: strict}, logger)
	service := services.NewAnalysisService(analyzer, nil, 0, logger)
	controller := NewAnalysisController(service, logger)

	router := gin.New()
	router.POST("/api/analysis", controller.Analyze)
	return router
}

func postAnalysis(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/analysis", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const validBody = `{
	"portfolio": {
		"holdings": [
			{"symbol": "AAPL", "shares": "10", "average_cost": "150", "current_price": "180",
			 "market_value": "1800", "day_change_percent": "1", "allocation_percent": "90",
			 "sector": "Technology", "asset_type": "stock"}
		],
		"cash_balance": "200",
		"total_value": "2000",
		"historical_values": ["1900", "1950", "2000"]
	}
}`

func TestAnalysisController_Analyze(t *testing.T) {
	t.Run("valid request returns a report", func(t *testing.T) {
		router := setupTestRouter(false)

		w := postAnalysis(t, router, validBody)

		require.Equal(t, http.StatusOK, w.Code)

		var report models.AnalysisReport
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
		require.NotNil(t, report.Summary)
		assert.Equal(t, 1, report.Summary.HoldingCount)
		require.NotNil(t, report.Performance)
		assert.True(t, report.Performance.TotalReturn.Available())
	})

	t.Run("malformed json is a 400", func(t *testing.T) {
		router := setupTestRouter(false)

		w := postAnalysis(t, router, `{"portfolio": `)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "invalid request body", resp.Error)
	})

	t.Run("missing portfolio is a 400", func(t *testing.T) {
		router := setupTestRouter(false)

		w := postAnalysis(t, router, `{}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid snapshot is a 400", func(t *testing.T) {
		router := setupTestRouter(false)

		body := `{"portfolio": {"total_value": "-5"}}`
		w := postAnalysis(t, router, body)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "validation failed", resp.Error)
	})

	t.Run("zero historical value is a 400", func(t *testing.T) {
		router := setupTestRouter(false)

		body := strings.Replace(validBody, `["1900", "1950", "2000"]`, `["1900", "0", "2000"]`, 1)
		w := postAnalysis(t, router, body)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "invalid value series", resp.Error)
	})

	t.Run("strict mode with a short sample is a 422", func(t *testing.T) {
		// Two returns cannot support VaR at 95%, which strict mode refuses
		// to null out.
		router := setupTestRouter(true)

		w := postAnalysis(t, router, validBody)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "insufficient data", resp.Error)
	})

	t.Run("misaligned benchmark in strict mode is a 422", func(t *testing.T) {
		router := setupTestRouter(true)

		// A long series clears the sample check so the benchmark mismatch
		// is what fails.
		req := services.AnalysisRequest{
			Portfolio: &models.PortfolioSnapshot{
				Holdings: []models.Holding{
					{
						Symbol:            "AAPL",
						Shares:            decimal.NewFromInt(10),
						AverageCost:       decimal.NewFromInt(150),
						MarketValue:       decimal.NewFromInt(1800),
						AllocationPercent: decimal.NewFromInt(90),
						Sector:            "Technology",
					},
				},
				CashBalance: decimal.NewFromInt(200),
				TotalValue:  decimal.NewFromInt(2000),
			},
			Benchmark: &models.BenchmarkData{
				Symbol:           "SPY",
				HistoricalValues: []decimal.Decimal{decimal.NewFromInt(400), decimal.NewFromInt(404)},
			},
		}
		for i := 0; i <= 20; i++ {
			req.Portfolio.HistoricalValues = append(req.Portfolio.HistoricalValues,
				decimal.NewFromInt(int64(1900+i*5)))
		}

		body, err := json.Marshal(req)
		require.NoError(t, err)
		w := postAnalysis(t, router, string(body))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "series misaligned", resp.Error)
	})
}
