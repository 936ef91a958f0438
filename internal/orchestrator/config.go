package orchestrator

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// RetryPolicy controls the backoff ladder applied to a single external call.
type RetryPolicy struct {
	MaxAttempts          int
	InitialBackoff       time.Duration
	Multiplier           float64
}

// CircuitBreakerPolicy configures the per-capability breaker.
type CircuitBreakerPolicy struct {
	MaxRequestsHalfOpen uint32
	OpenInterval        time.Duration
	OpenTimeout         time.Duration
	MinRequestsToTrip   uint32
	FailureRatioToTrip  float64
}

// Config holds every tunable knob recognized by the orchestrator.
type Config struct {
	MaxConcurrentJobs      int
	CleanupInterval        time.Duration
	JobTTL                 time.Duration
	AnalysisTimeout        time.Duration
	ImageTimeout           time.Duration
	TextsTimeout           time.Duration
	Retry                  RetryPolicy
	IntraBranchConcurrency int
	InterChunkPause        time.Duration
	DefaultAdPlatforms     []string
	CircuitBreaker         CircuitBreakerPolicy
	BundleDir              string
}

// Default returns the baseline defaults for every knob.
func Default() Config {
	return Config{
		MaxConcurrentJobs:      5,
		CleanupInterval:        10 * time.Minute,
		JobTTL:                 time.Hour,
		AnalysisTimeout:        30 * time.Second,
		ImageTimeout:           60 * time.Second,
		TextsTimeout:           30 * time.Second,
		Retry: RetryPolicy{
			MaxAttempts:    3,
			InitialBackoff: time.Second,
			Multiplier:     2,
		},
		IntraBranchConcurrency: 2,
		InterChunkPause:        time.Second,
		DefaultAdPlatforms:     append([]string(nil), defaultAdPlatforms...),
		CircuitBreaker: CircuitBreakerPolicy{
			MaxRequestsHalfOpen: 1,
			OpenInterval:        5 * time.Second,
			OpenTimeout:         3 * time.Second,
			MinRequestsToTrip:   3,
			FailureRatioToTrip:  0.6,
		},
		BundleDir: "./data/bundles",
	}
}

// LoadConfig loads an optional .env file, then layers environment-variable
// overrides on top of Default() for the job cap, cleanup interval, TTL,
// per-stage timeouts, retry attempts and initial backoff, intra-branch
// concurrency, and bundle directory, the same way this codebase's
// infra.LoadConfig loads service configuration. The retry multiplier,
// inter-chunk pause, default ad platforms, and circuit-breaker policy keep
// their Default() values.
func LoadConfig() Config {
	_ = godotenv.Load(".env", ".env.local")

	cfg := Default()
	cfg.MaxConcurrentJobs = getEnvInt("ORCH_MAX_CONCURRENT_JOBS", cfg.MaxConcurrentJobs)
	cfg.CleanupInterval = getEnvSeconds("ORCH_CLEANUP_INTERVAL_SECONDS", cfg.CleanupInterval)
	cfg.JobTTL = getEnvSeconds("ORCH_JOB_TTL_SECONDS", cfg.JobTTL)
	cfg.AnalysisTimeout = getEnvMillis("ORCH_ANALYSIS_TIMEOUT_MILLIS", cfg.AnalysisTimeout)
	cfg.ImageTimeout = getEnvMillis("ORCH_IMAGE_TIMEOUT_MILLIS", cfg.ImageTimeout)
	cfg.TextsTimeout = getEnvMillis("ORCH_TEXTS_TIMEOUT_MILLIS", cfg.TextsTimeout)
	cfg.Retry.MaxAttempts = getEnvInt("ORCH_RETRY_MAX_ATTEMPTS", cfg.Retry.MaxAttempts)
	cfg.Retry.InitialBackoff = getEnvMillis("ORCH_RETRY_INITIAL_BACKOFF_MILLIS", cfg.Retry.InitialBackoff)
	cfg.IntraBranchConcurrency = getEnvInt("ORCH_INTRA_BRANCH_CONCURRENCY", cfg.IntraBranchConcurrency)
	if v := os.Getenv("ORCH_BUNDLE_DIR"); v != "" {
		cfg.BundleDir = v
	}
	return cfg
}

var defaultAdPlatforms = []string{
	"instagram-square",
	"twitter-card",
	"facebook-feed",
	"web-banner-medium-rectangle",
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvSeconds(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return time.Duration(f * float64(time.Second))
		}
	}
	return fallback
}

func getEnvMillis(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return time.Duration(i) * time.Millisecond
		}
	}
	return fallback
}
