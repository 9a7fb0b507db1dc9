// Package config defines service configuration and how it is loaded.
//
// Conventions:
//   - Keys are flat and snake_case; env vars are the upper-cased key with the
//     HIGHLIGHTS_ prefix.
//   - Collaborator URLs left empty select the local simulators.
package config

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"
)

// Store backends.
const (
	StoreMemory    = "memory"
	StoreBadger    = "badger"
	StoreFirestore = "firestore"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	LogJSON  bool   `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// HTTPRateLimit caps requests per client IP per minute; zero disables.
	HTTPRateLimit int `koanf:"http_rate_limit"`

	// MaxHighlightsLimit caps the limit query parameter of list endpoints.
	MaxHighlightsLimit int `koanf:"max_highlights_limit"`

	// CORSOrigins lists browser origins allowed to call the API.
	CORSOrigins []string `koanf:"cors_origins"`

	// Pipeline sizing.
	QueueSize   int `koanf:"queue_size"`
	WorkerCount int `koanf:"worker_count"`
	DedupeSize  int `koanf:"dedupe_size"`
	BatchSize   int `koanf:"batch_size"`
	PoolSize    int `koanf:"pool_size"`

	// Store selects the metadata backend: memory, badger or firestore.
	Store            string `koanf:"store"`
	BadgerPath       string `koanf:"badger_path"`
	FirestoreProject string `koanf:"firestore_project"`

	// GoogleCredentialsFile is a service-account JSON used by Firestore and
	// text analytics. Empty uses application default credentials.
	GoogleCredentialsFile string `koanf:"google_credentials_file"`

	// Collaborators.
	DetectionURL          string `koanf:"detection_url"`
	DetectionAPIKey       string `koanf:"detection_api_key"`
	TranscoderURL         string `koanf:"transcoder_url"`
	TranscoderAPIKey      string `koanf:"transcoder_api_key"`
	TranscoderCallbackURL string `koanf:"transcoder_callback_url"`
	RecommenderURL        string `koanf:"recommender_url"`
	RecommenderAPIKey     string `koanf:"recommender_api_key"`
	OpenAIAPIKey          string `koanf:"openai_api_key"`
	OpenAIModel           string `koanf:"openai_model"`
	OpenAIBaseURL         string `koanf:"openai_base_url"`
	TextAnalytics         bool   `koanf:"text_analytics"`
	CollaboratorTimeoutMS int    `koanf:"collaborator_timeout_ms"`

	// Simulators, used for collaborators without a URL.
	SimulateLatencyMS   int     `koanf:"simulate_latency_ms"`
	SimulateFailureRate float64 `koanf:"simulate_failure_rate"`

	// Job polling. Zero attempts or timeout means unbounded.
	PollIntervalMS  int `koanf:"poll_interval_ms"`
	PollMaxAttempts int `koanf:"poll_max_attempts"`
	PollTimeoutSec  int `koanf:"poll_timeout_sec"`

	// Clustering.
	MinConfidence float64  `koanf:"min_confidence"`
	MaxConfidence float64  `koanf:"max_confidence"`
	MaxGapMS      int      `koanf:"max_gap_ms"`
	MinTimestamps int      `koanf:"min_timestamps"`
	Labels        []string `koanf:"labels"`

	// Enrichment.
	EnrichConcurrency  int     `koanf:"enrich_concurrency"`
	TextRateLimit      float64 `koanf:"text_rate_limit"`
	TextRateBurst      int     `koanf:"text_rate_burst"`
	SentimentThreshold float64 `koanf:"sentiment_threshold"`

	// Ranking weights of the rule-based strategy.
	WeightTeam     float64 `koanf:"weight_team"`
	WeightPlayer   float64 `koanf:"weight_player"`
	WeightPlayType float64 `koanf:"weight_play_type"`
	WeightSport    float64 `koanf:"weight_sport"`

	// Clips.
	ClipFrameRate   int    `koanf:"clip_frame_rate"`
	ClipDestination string `koanf:"clip_destination"`
	RescanSchedule  string `koanf:"rescan_schedule"`

	// Circuit breakers around collaborators.
	BreakerTimeoutSec   int     `koanf:"breaker_timeout_sec"`
	BreakerMinRequests  int     `koanf:"breaker_min_requests"`
	BreakerFailureRatio float64 `koanf:"breaker_failure_ratio"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":9080",
		HTTPRateLimit:         600,
		MaxHighlightsLimit:    200,
		QueueSize:             1024,
		WorkerCount:           runtime.NumCPU() * 2,
		DedupeSize:            50_000,
		BatchSize:             25,
		PoolSize:              500,
		Store:                 StoreMemory,
		OpenAIModel:           "gpt-4o-mini",
		CollaboratorTimeoutMS: 30_000,
		SimulateLatencyMS:     2000,
		PollIntervalMS:        5000,
		PollTimeoutSec:        1800,
		MinConfidence:         85,
		MaxConfidence:         100,
		MaxGapMS:              5000,
		MinTimestamps:         3,
		EnrichConcurrency:     4,
		TextRateLimit:         10,
		TextRateBurst:         5,
		SentimentThreshold:    0.7,
		WeightTeam:            10,
		WeightPlayer:          15,
		WeightPlayType:        5,
		WeightSport:           3,
		ClipFrameRate:         30,
		ClipDestination:       "clips",
		RescanSchedule:        "@every 10m",
		BreakerTimeoutSec:     30,
		BreakerMinRequests:    10,
		BreakerFailureRatio:   0.6,
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var problems []string
	fail := func(format string, args ...any) { problems = append(problems, fmt.Sprintf(format, args...)) }

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		fail("log_level %q is not a level", c.LogLevel)
	}
	if c.Addr == "" {
		fail("addr must not be empty")
	}
	for name, v := range map[string]int{
		"queue_size": c.QueueSize, "worker_count": c.WorkerCount, "dedupe_size": c.DedupeSize,
		"batch_size": c.BatchSize, "pool_size": c.PoolSize, "poll_interval_ms": c.PollIntervalMS,
		"min_timestamps": c.MinTimestamps, "enrich_concurrency": c.EnrichConcurrency,
		"clip_frame_rate": c.ClipFrameRate, "max_highlights_limit": c.MaxHighlightsLimit,
	} {
		if v <= 0 {
			fail("%s must be positive", name)
		}
	}
	if c.BatchSize > 500 {
		fail("batch_size must be at most 500")
	}
	switch c.Store {
	case StoreMemory:
	case StoreBadger:
		if c.BadgerPath == "" {
			fail("badger_path is required for the badger store")
		}
	case StoreFirestore:
		if c.FirestoreProject == "" {
			fail("firestore_project is required for the firestore store")
		}
	default:
		fail("store %q must be memory, badger or firestore", c.Store)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 100 {
		fail("min_confidence must be within 0-100")
	}
	if c.MaxConfidence < c.MinConfidence {
		fail("max_confidence must not be below min_confidence")
	}
	if c.SimulateFailureRate < 0 || c.SimulateFailureRate > 1 {
		fail("simulate_failure_rate must be within 0-1")
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		fail("breaker_failure_ratio must be within (0, 1]")
	}
	if c.WeightTeam < 0 || c.WeightPlayer < 0 || c.WeightPlayType < 0 || c.WeightSport < 0 {
		fail("ranking weights must not be negative")
	}
	if c.PollMaxAttempts < 0 || c.PollTimeoutSec < 0 || c.HTTPRateLimit < 0 {
		fail("poll_max_attempts, poll_timeout_sec and http_rate_limit must not be negative")
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrInvalidConfig, problems)
}

// Durations derived from millisecond and second settings.

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}
func (c *Config) PollTimeout() time.Duration { return time.Duration(c.PollTimeoutSec) * time.Second }
func (c *Config) MaxGap() time.Duration      { return time.Duration(c.MaxGapMS) * time.Millisecond }
func (c *Config) SimulateLatency() time.Duration {
	return time.Duration(c.SimulateLatencyMS) * time.Millisecond
}
func (c *Config) CollaboratorTimeout() time.Duration {
	return time.Duration(c.CollaboratorTimeoutMS) * time.Millisecond
}
func (c *Config) BreakerTimeout() time.Duration {
	return time.Duration(c.BreakerTimeoutSec) * time.Second
}
