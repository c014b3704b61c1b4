package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"portfolio-analytics/internal/models"
)

type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) AnalyzePortfolio(ctx context.Context, snapshot *models.PortfolioSnapshot, market *models.MarketData, benchmark *models.BenchmarkData) (*models.AnalysisReport, error) {
	args := m.Called(ctx, snapshot, market, benchmark)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AnalysisReport), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func testRequest() *AnalysisRequest {
	return &AnalysisRequest{
		Portfolio: &models.PortfolioSnapshot{
			Holdings: []models.Holding{
				{Symbol: "AAPL", MarketValue: decimal.NewFromInt(1000)},
			},
			TotalValue: decimal.NewFromInt(1000),
		},
	}
}

func testReport() *models.AnalysisReport {
	return &models.AnalysisReport{
		GeneratedAt: time.Now(),
		Summary: &models.PortfolioSummary{
			TotalValue:   decimal.NewFromInt(1000),
			HoldingCount: 1,
		},
	}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestAnalysisService_Analyze(t *testing.T) {
	ctx := context.Background()

	t.Run("computes and caches on miss", func(t *testing.T) {
		mockAnalyzer := new(MockAnalyzer)
		mockCache := new(MockCache)
		service := NewAnalysisService(mockAnalyzer, mockCache, 5*time.Minute, quietLogger())

		req := testRequest()
		report := testReport()

		mockCache.On("Get", ctx, mock.AnythingOfType("string"), mock.Anything).
			Return(errors.New("not found"))
		mockAnalyzer.On("AnalyzePortfolio", ctx, req.Portfolio, req.Market, req.Benchmark).
			Return(report, nil)
		mockCache.On("Set", ctx, mock.AnythingOfType("string"), report, 5*time.Minute).
			Return(nil)

		result, err := service.Analyze(ctx, req)

		require.NoError(t, err)
		assert.Equal(t, report, result)
		mockAnalyzer.AssertExpectations(t)
		mockCache.AssertExpectations(t)
	})

	t.Run("serves from cache without computing", func(t *testing.T) {
		mockAnalyzer := new(MockAnalyzer)
		mockCache := new(MockCache)
		service := NewAnalysisService(mockAnalyzer, mockCache, 5*time.Minute, quietLogger())

		mockCache.On("Get", ctx, mock.AnythingOfType("string"), mock.Anything).
			Run(func(args mock.Arguments) {
				dest := args.Get(2).(*models.AnalysisReport)
				*dest = *testReport()
			}).
			Return(nil)

		result, err := service.Analyze(ctx, testRequest())

		require.NoError(t, err)
		require.NotNil(t, result.Summary)
		assert.Equal(t, 1, result.Summary.HoldingCount)
		mockAnalyzer.AssertNotCalled(t, "AnalyzePortfolio",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("identical requests share a cache key", func(t *testing.T) {
		service := NewAnalysisService(nil, nil, 0, quietLogger())

		first, err := service.cacheKey(testRequest())
		require.NoError(t, err)
		second, err := service.cacheKey(testRequest())
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Contains(t, first, "analysis:")
	})

	t.Run("different requests get different keys", func(t *testing.T) {
		service := NewAnalysisService(nil, nil, 0, quietLogger())

		first, err := service.cacheKey(testRequest())
		require.NoError(t, err)

		other := testRequest()
		other.Portfolio.TotalValue = decimal.NewFromInt(2000)
		second, err := service.cacheKey(other)
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})

	t.Run("analyzer error propagates", func(t *testing.T) {
		mockAnalyzer := new(MockAnalyzer)
		service := NewAnalysisService(mockAnalyzer, nil, 5*time.Minute, quietLogger())

		expected := &models.ValidationError{Field: "total_value", Reason: "total value cannot be negative"}
		mockAnalyzer.On("AnalyzePortfolio", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, expected)

		result, err := service.Analyze(ctx, testRequest())

		require.Error(t, err)
		assert.Nil(t, result)

		var validationErr *models.ValidationError
		assert.True(t, errors.As(err, &validationErr))
	})

	t.Run("cache set failure does not fail the request", func(t *testing.T) {
		mockAnalyzer := new(MockAnalyzer)
		mockCache := new(MockCache)
		service := NewAnalysisService(mockAnalyzer, mockCache, time.Minute, quietLogger())

		report := testReport()
		mockCache.On("Get", ctx, mock.AnythingOfType("string"), mock.Anything).
			Return(errors.New("redis down"))
		mockAnalyzer.On("AnalyzePortfolio", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(report, nil)
		mockCache.On("Set", ctx, mock.AnythingOfType("string"), report, time.Minute).
			Return(errors.New("redis down"))

		result, err := service.Analyze(ctx, testRequest())

		require.NoError(t, err)
		assert.Equal(t, report, result)
	})

	t.Run("works without a cache", func(t *testing.T) {
		mockAnalyzer := new(MockAnalyzer)
		service := NewAnalysisService(mockAnalyzer, nil, time.Minute, quietLogger())

		report := testReport()
		mockAnalyzer.On("AnalyzePortfolio", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(report, nil)

		result, err := service.Analyze(ctx, testRequest())

		require.NoError(t, err)
		assert.Equal(t, report, result)
		mockAnalyzer.AssertExpectations(t)
	})
}
