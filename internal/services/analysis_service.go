package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"portfolio-analytics/internal/models"
	"portfolio-analytics/pkg/metrics"
)

// AnalysisRequest is the full input of one analysis call.
type AnalysisRequest struct {
	Portfolio *models.PortfolioSnapshot `json:"portfolio" binding:"required"`
	Market    *models.MarketData        `json:"market_data,omitempty"`
	Benchmark *models.BenchmarkData     `json:"benchmark,omitempty"`
}

// Analyzer runs the analysis pipeline over one snapshot.
type Analyzer interface {
	AnalyzePortfolio(ctx context.Context, snapshot *models.PortfolioSnapshot, market *models.MarketData, benchmark *models.BenchmarkData) (*models.AnalysisReport, error)
}

// ReportCache stores finished reports keyed by request content.
type ReportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// AnalysisService wraps the engine with report caching and metrics. Cache
// failures never fail a request; the service falls back to computing.
type AnalysisService struct {
	analyzer Analyzer
	cache    ReportCache
	ttl      time.Duration
	logger   *logrus.Logger
}

func NewAnalysisService(analyzer Analyzer, cache ReportCache, ttl time.Duration, logger *logrus.Logger) *AnalysisService {
	if logger == nil {
		logger = logrus.New()
	}
	return &AnalysisService{
		analyzer: analyzer,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
	}
}

// Analyze returns the report for a request, serving identical requests from
// cache while the TTL lasts.
func (s *AnalysisService) Analyze(ctx context.Context, req *AnalysisRequest) (*models.AnalysisReport, error) {
	start := time.Now()

	key, err := s.cacheKey(req)
	if err == nil && s.cache != nil {
		var cached models.AnalysisReport
		if cacheErr := s.cache.Get(ctx, key, &cached); cacheErr == nil {
			metrics.CacheHits.Inc()
			s.logger.WithField("cache_key", key).Debug("Serving analysis report from cache")
			return &cached, nil
		}
		metrics.CacheMisses.Inc()
	}

	report, err := s.analyzer.AnalyzePortfolio(ctx, req.Portfolio, req.Market, req.Benchmark)
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.AnalysesTotal.WithLabelValues("success").Inc()
	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())

	if s.cache != nil && key != "" {
		if cacheErr := s.cache.Set(ctx, key, report, s.ttl); cacheErr != nil {
			s.logger.WithError(cacheErr).Warn("Failed to cache analysis report")
		}
	}

	return report, nil
}

// cacheKey hashes the request content so identical inputs share a report.
func (s *AnalysisService) cacheKey(req *AnalysisRequest) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to build cache key: %w", err)
	}
	sum := sha256.Sum256(data)
	return "analysis:" + hex.EncodeToString(sum[:]), nil
}
