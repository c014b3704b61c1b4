package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"portfolio-analytics/internal/analytics"
	"portfolio-analytics/internal/calculator"
	"portfolio-analytics/internal/config"
	"portfolio-analytics/internal/controllers"
	"portfolio-analytics/internal/middleware"
	"portfolio-analytics/internal/services"
	"portfolio-analytics/pkg/cache"
	"portfolio-analytics/pkg/logger"
	"portfolio-analytics/pkg/metrics"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logrus.Fatal("Invalid configuration: ", err)
	}

	// Initialize logger
	logger.Init(cfg.Logger)
	log := logrus.WithField("service", "portfolio-analytics")

	log.Info("Starting Portfolio Analytics service...")

	// Initialize Redis cache; the service degrades to computing when the
	// cache is unavailable.
	var reportCache services.ReportCache
	var cacheHealth cacheHealthChecker
	if cfg.Cache.Enabled {
		client, err := cache.NewRedisClient(cfg.Cache)
		if err != nil {
			log.Warn("Failed to connect to Redis, running without report cache: ", err)
		} else {
			reportCache = client
			cacheHealth = client
			defer client.Close()
		}
	}

	// Initialize analysis engine
	analyzer := analytics.NewPortfolioAnalyzer(analyzerConfig(cfg.Analytics), logrus.StandardLogger())

	// Initialize services and controllers
	analysisService := services.NewAnalysisService(analyzer, reportCache, cfg.Cache.ReportTTL, logrus.StandardLogger())
	analysisController := controllers.NewAnalysisController(analysisService, logrus.StandardLogger())

	// Setup HTTP server
	router := setupRouter(cfg, analysisController, cacheHealth)

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.WithField("port", cfg.Server.Port).Info("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server: ", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: ", err)
	}

	log.Info("Server exited")
}

// analyzerConfig maps environment configuration onto the engine's knobs.
func analyzerConfig(cfg config.AnalyticsConfig) analytics.AnalyzerConfig {
	return analytics.AnalyzerConfig{
		Performance: calculator.PerformanceCalculatorConfig{
			RiskFreeRate:   cfg.RiskFreeRate,
			PeriodsPerYear: cfg.PeriodsPerYear,
		},
		Risk: calculator.RiskCalculatorConfig{
			PeriodsPerYear:      cfg.PeriodsPerYear,
			ConfidenceLevel:     cfg.ConfidenceLevel,
			VolCeiling:          cfg.RiskScoreVolCeiling,
			VolatilityWeight:    cfg.VolatilityWeight,
			ConcentrationWeight: cfg.ConcentrationWeight,
			DiversityWeight:     cfg.DiversityWeight,
		},
		Diversification: analytics.DiversificationConfig{
			HoldingCeiling: cfg.HoldingCeiling,
			SectorCeiling:  cfg.SectorCeiling,
			HoldingWeight:  cfg.HoldingWeight,
			SectorWeight:   cfg.SectorWeight,
		},
		Stress: analytics.StressTesterConfig{
			RecoveryRatePerMonth: cfg.StressRecoveryRatePerMonth,
		},
		Thresholds: analytics.RecommendationThresholds{
			SharpeFloor:          cfg.SharpeFloor,
			VaRShareOfValue:      cfg.VaRShareOfValue,
			DiversificationFloor: cfg.DiversificationFloor,
			TopHoldingCeiling:    cfg.TopHoldingCeiling,
			SectorCeiling:        cfg.SectorWeightCeiling,
		},
		LookbackPeriod: cfg.LookbackPeriod,
		StrictMode:     cfg.StrictMode,
	}
}

// cacheHealthChecker is the slice of the Redis client the health endpoint
// needs.
type cacheHealthChecker interface {
	HealthCheck(ctx context.Context) error
}

func setupRouter(cfg *config.Config, analysisController *controllers.AnalysisController, cacheHealth cacheHealthChecker) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logging())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		status := gin.H{
			"status":    "healthy",
			"service":   "portfolio-analytics",
			"timestamp": time.Now().UTC(),
		}
		if cacheHealth != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := cacheHealth.HealthCheck(ctx); err != nil {
				status["cache"] = "unavailable"
			} else {
				status["cache"] = "healthy"
			}
		}
		c.JSON(http.StatusOK, status)
	})

	// Prometheus scrape endpoint
	router.GET("/metrics", metrics.Handler())

	// API routes
	api := router.Group("/api")
	api.Use(middleware.Auth(cfg.Auth))
	{
		api.POST("/analysis", analysisController.Analyze)
	}

	return router
}
