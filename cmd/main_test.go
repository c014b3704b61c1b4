package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-analytics/internal/analytics"
	"portfolio-analytics/internal/config"
	"portfolio-analytics/internal/controllers"
	"portfolio-analytics/internal/services"
)

type stubCacheHealth struct {
	err error
}

func (s *stubCacheHealth) HealthCheck(ctx context.Context) error {
	return s.err
}

func testHealthRouter(t *testing.T, cacheHealth cacheHealthChecker) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	analyzer := analytics.NewPortfolioAnalyzer(analytics.AnalyzerConfig{}, logger)
	service := services.NewAnalysisService(analyzer, nil, time.Minute, logger)
	controller := controllers.NewAnalysisController(service, logger)

	cfg := &config.Config{}
	return setupRouter(cfg, controller, cacheHealth)
}

func getHealth(t *testing.T, router *gin.Engine) map[string]interface{} {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthEndpoint(t *testing.T) {
	t.Run("without a cache", func(t *testing.T) {
		router := testHealthRouter(t, nil)

		body := getHealth(t, router)

		assert.Equal(t, "healthy", body["status"])
		assert.NotContains(t, body, "cache")
	})

	t.Run("reports a reachable cache", func(t *testing.T) {
		router := testHealthRouter(t, &stubCacheHealth{})

		body := getHealth(t, router)

		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "healthy", body["cache"])
	})

	t.Run("reports an unreachable cache without failing", func(t *testing.T) {
		router := testHealthRouter(t, &stubCacheHealth{err: errors.New("connection refused")})

		body := getHealth(t, router)

		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "unavailable", body["cache"])
	})
}
