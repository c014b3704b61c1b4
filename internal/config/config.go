package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Cache     CacheConfig     `json:"cache"`
	Auth      AuthConfig      `json:"auth"`
	Logger    LoggerConfig    `json:"logger"`
	Analytics AnalyticsConfig `json:"analytics"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Port           int    `json:"port"`
	Host           string `json:"host"`
	Environment    string `json:"environment"`
	ReadTimeout    int    `json:"read_timeout"`
	WriteTimeout   int    `json:"write_timeout"`
	MaxHeaderBytes int    `json:"max_header_bytes"`
}

// CacheConfig represents Redis cache configuration
type CacheConfig struct {
	Enabled            bool          `json:"enabled"`
	Host               string        `json:"host"`
	Port               int           `json:"port"`
	Password           string        `json:"password"`
	DB                 int           `json:"db"`
	MaxRetries         int           `json:"max_retries"`
	PoolSize           int           `json:"pool_size"`
	MinIdleConnections int           `json:"min_idle_connections"`
	DialTimeout        time.Duration `json:"dial_timeout"`
	ReadTimeout        time.Duration `json:"read_timeout"`
	WriteTimeout       time.Duration `json:"write_timeout"`
	ReportTTL          time.Duration `json:"report_ttl"`
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	JWTSecret   string `json:"jwt_secret"`
	RequireAuth bool   `json:"require_auth"`
}

// LoggerConfig represents logging configuration
type LoggerConfig struct {
	Level      string `json:"level"`
	Format     string `json:"format"`
	Output     string `json:"output"`
	Filename   string `json:"filename"`
	MaxSize    int    `json:"max_size"`
	MaxAge     int    `json:"max_age"`
	MaxBackups int    `json:"max_backups"`
	Compress   bool   `json:"compress"`
}

// AnalyticsConfig represents the analysis engine configuration
type AnalyticsConfig struct {
	RiskFreeRate    float64 `json:"risk_free_rate"`
	ConfidenceLevel float64 `json:"confidence_level"`
	PeriodsPerYear  int     `json:"periods_per_year"`
	LookbackPeriod  int     `json:"lookback_period"`
	BenchmarkSymbol string  `json:"benchmark_symbol"`
	StrictMode      bool    `json:"strict_mode"`

	// Diversification score saturation ceilings and weights
	HoldingCeiling int     `json:"holding_ceiling"`
	SectorCeiling  int     `json:"sector_ceiling"`
	HoldingWeight  float64 `json:"holding_weight"`
	SectorWeight   float64 `json:"sector_weight"`

	// Composite risk score knobs
	RiskScoreVolCeiling float64 `json:"risk_score_vol_ceiling"`
	VolatilityWeight    float64 `json:"volatility_weight"`
	ConcentrationWeight float64 `json:"concentration_weight"`
	DiversityWeight     float64 `json:"diversity_weight"`

	// Stress testing
	StressRecoveryRatePerMonth float64 `json:"stress_recovery_rate_per_month"`

	// Recommendation thresholds
	SharpeFloor          float64 `json:"sharpe_floor"`
	VaRShareOfValue      float64 `json:"var_share_of_value"`
	DiversificationFloor float64 `json:"diversification_floor"`
	TopHoldingCeiling    float64 `json:"top_holding_ceiling"`
	SectorWeightCeiling  float64 `json:"sector_weight_ceiling"`
}

// Load loads configuration from environment variables
func Load() *Config {
	// Load .env file if exists
	godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:           getEnvInt("SERVER_PORT", 8083),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			ReadTimeout:    getEnvInt("SERVER_READ_TIMEOUT", 30),
			WriteTimeout:   getEnvInt("SERVER_WRITE_TIMEOUT", 30),
			MaxHeaderBytes: getEnvInt("SERVER_MAX_HEADER_BYTES", 1048576),
		},

		Cache: CacheConfig{
			Enabled:            getEnvBool("CACHE_ENABLED", true),
			Host:               getEnv("REDIS_HOST", "localhost"),
			Port:               getEnvInt("REDIS_PORT", 6379),
			Password:           getEnv("REDIS_PASSWORD", ""),
			DB:                 getEnvInt("REDIS_DB", 0),
			MaxRetries:         getEnvInt("REDIS_MAX_RETRIES", 3),
			PoolSize:           getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConnections: getEnvInt("REDIS_MIN_IDLE_CONNECTIONS", 5),
			DialTimeout:        getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:        getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:       getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			ReportTTL:          getEnvDuration("CACHE_REPORT_TTL", 5*time.Minute),
		},

		Auth: AuthConfig{
			JWTSecret:   getEnv("JWT_SECRET", "default-secret-key"),
			RequireAuth: getEnvBool("REQUIRE_AUTH", true),
		},

		Logger: LoggerConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			Output:     getEnv("LOG_OUTPUT", "stdout"),
			Filename:   getEnv("LOG_FILENAME", ""),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 28),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},

		Analytics: AnalyticsConfig{
			RiskFreeRate:    getEnvFloat("RISK_FREE_RATE", 0.02),
			ConfidenceLevel: getEnvFloat("CONFIDENCE_LEVEL", 0.95),
			PeriodsPerYear:  getEnvInt("PERIODS_PER_YEAR", 252),
			LookbackPeriod:  getEnvInt("LOOKBACK_PERIOD", 252),
			BenchmarkSymbol: getEnv("BENCHMARK_SYMBOL", "SPY"),
			StrictMode:      getEnvBool("STRICT_MODE", false),

			HoldingCeiling: getEnvInt("HOLDING_CEILING", 20),
			SectorCeiling:  getEnvInt("SECTOR_CEILING", 11),
			HoldingWeight:  getEnvFloat("HOLDING_WEIGHT", 0.6),
			SectorWeight:   getEnvFloat("SECTOR_WEIGHT", 0.4),

			RiskScoreVolCeiling: getEnvFloat("RISK_SCORE_VOL_CEILING", 0.60),
			VolatilityWeight:    getEnvFloat("RISK_VOLATILITY_WEIGHT", 1.0/3),
			ConcentrationWeight: getEnvFloat("RISK_CONCENTRATION_WEIGHT", 1.0/3),
			DiversityWeight:     getEnvFloat("RISK_DIVERSITY_WEIGHT", 1.0/3),

			StressRecoveryRatePerMonth: getEnvFloat("STRESS_RECOVERY_RATE_PER_MONTH", 0.02),

			SharpeFloor:          getEnvFloat("RECOMMENDATION_SHARPE_FLOOR", 1.0),
			VaRShareOfValue:      getEnvFloat("RECOMMENDATION_VAR_SHARE", 0.05),
			DiversificationFloor: getEnvFloat("RECOMMENDATION_DIVERSIFICATION_FLOOR", 0.7),
			TopHoldingCeiling:    getEnvFloat("RECOMMENDATION_TOP_HOLDING_CEILING", 0.30),
			SectorWeightCeiling:  getEnvFloat("RECOMMENDATION_SECTOR_CEILING", 0.40),
		},
	}

	return config
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" || c.Auth.JWTSecret == "default-secret-key" {
		logrus.Warn("Using default JWT secret key, this is not recommended for production")
	}

	if c.Analytics.ConfidenceLevel <= 0 || c.Analytics.ConfidenceLevel >= 1 {
		return fmt.Errorf("confidence level must be in (0, 1), got %v", c.Analytics.ConfidenceLevel)
	}

	if c.Analytics.PeriodsPerYear <= 0 {
		return fmt.Errorf("periods per year must be positive, got %d", c.Analytics.PeriodsPerYear)
	}

	if c.Analytics.RiskFreeRate < 0 {
		return fmt.Errorf("risk-free rate cannot be negative, got %v", c.Analytics.RiskFreeRate)
	}

	return nil
}
