package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// ClassifierBackend defines which classification backend serves the NLP dimensions
type ClassifierBackend string

const (
	BackendNone   ClassifierBackend = "none"   // No classifier, neutral results only
	BackendHugot  ClassifierBackend = "hugot"  // Local ONNX inference (default when models present)
	BackendRemote ClassifierBackend = "remote" // Remote inference API (HuggingFace-compatible)
)

// Config holds global settings for the Haven engine.
// All settings can be configured via environment variables or programmatically.
type Config struct {
	// === Classification ===
	ClassifierBackend ClassifierBackend // Which backend to use: "hugot", "remote", "none"
	ClassifierBaseURL string            // Base URL for the remote backend
	ClassifierAPIKey  string            // API key for the remote backend (optional)
	ClassifierTimeout time.Duration     // Timeout for a single classification call
	MaxTextLength     int               // Inputs longer than this are truncated, never rejected (default: 512)

	// === Distress Detection Thresholds (0.0 - 1.0) ===
	SentimentUrgentThreshold float64 // Negative sentiment above this score escalates (default: 0.90)
	EmotionUrgentThreshold   float64 // Severe emotion above this score escalates (default: 0.85)

	// === Risk Tiering Thresholds (0.0 - 1.0) ===
	RiskHighThreshold   float64 // Overall risk above this = high (default: 0.7)
	RiskMediumThreshold float64 // Overall risk above this = medium (default: 0.4)

	// === Urgent Phrase List ===
	// Scanned in declaration order; first match is authoritative.
	UrgentKeywords []string

	// === Thesaurus ===
	ThesaurusBaseURL string        // Synonym lookup API (default: https://api.datamuse.com)
	ThesaurusTimeout time.Duration // Timeout for one lookup (default: 5s)

	// === Feature Flags ===
	EnableSemanticCrisis bool // Embedding-similarity crisis matching (default: false; additive layer only)
	EnableToxicity       bool // Toxicity dimension on the analysis surface (default: true)

	// === Session Management ===
	SessionTTL    time.Duration // Idle sessions older than this are swept (default: 24h)
	SweepInterval time.Duration // Background reaper interval (default: 10m)
	MaxHistory    int           // Per-user history bound, 0 = unbounded (default: 200)
	RedisAddr     string        // Optional Redis session store, empty = in-memory
	RedisPassword string
	RedisDB       int
}

// NewDefaultConfig creates a Config with sensible defaults.
// All settings can be overridden via environment variables.
func NewDefaultConfig() *Config {
	cfg := &Config{
		// Classification
		ClassifierBackend: detectClassifierBackend(),
		ClassifierBaseURL: GetEnv("HAVEN_CLASSIFIER_BASE_URL", ""),
		ClassifierAPIKey:  GetEnv("HAVEN_CLASSIFIER_API_KEY", ""),
		ClassifierTimeout: time.Duration(GetEnvInt("HAVEN_CLASSIFIER_TIMEOUT_MS", 30000)) * time.Millisecond,
		MaxTextLength:     clampInt(GetEnvInt("HAVEN_MAX_TEXT_LENGTH", 512), 16, 1<<16),

		// Distress thresholds
		SentimentUrgentThreshold: GetEnvFloat("HAVEN_SENTIMENT_URGENT_THRESHOLD", 0.90),
		EmotionUrgentThreshold:   GetEnvFloat("HAVEN_EMOTION_URGENT_THRESHOLD", 0.85),

		// Risk tiering
		RiskHighThreshold:   GetEnvFloat("HAVEN_RISK_HIGH_THRESHOLD", 0.7),
		RiskMediumThreshold: GetEnvFloat("HAVEN_RISK_MEDIUM_THRESHOLD", 0.4),

		// Urgent phrases - order matters, first match wins
		UrgentKeywords: GetEnvSlice("HAVEN_URGENT_KEYWORDS", []string{
			"suicide", "kill myself", "ending it all", "can't go on",
			"don't want to live", "hopeless", "no way out",
			"hurting myself", "want to die", "end it all",
		}),

		// Thesaurus
		ThesaurusBaseURL: GetEnv("HAVEN_THESAURUS_BASE_URL", "https://api.datamuse.com"),
		ThesaurusTimeout: time.Duration(GetEnvInt("HAVEN_THESAURUS_TIMEOUT_MS", 5000)) * time.Millisecond,

		// Feature flags
		EnableSemanticCrisis: GetEnvBool("HAVEN_ENABLE_SEMANTIC_CRISIS", false),
		EnableToxicity:       GetEnvBool("HAVEN_ENABLE_TOXICITY", true),

		// Sessions
		SessionTTL:    time.Duration(GetEnvInt("HAVEN_SESSION_TTL_SECONDS", 86400)) * time.Second,
		SweepInterval: time.Duration(GetEnvInt("HAVEN_SWEEP_INTERVAL_SECONDS", 600)) * time.Second,
		MaxHistory:    clampInt(GetEnvInt("HAVEN_MAX_HISTORY", 200), 0, 1<<20),
		RedisAddr:     GetEnv("HAVEN_REDIS_ADDR", ""),
		RedisPassword: GetEnv("HAVEN_REDIS_PASSWORD", ""),
		RedisDB:       GetEnvInt("HAVEN_REDIS_DB", 0),
	}

	return cfg
}

// NewLocalConfig creates a Config optimized for fully-local operation (no API calls).
// The thesaurus is disabled, so category matching degrades to literal-only.
func NewLocalConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.ClassifierBackend = BackendHugot
	cfg.ClassifierBaseURL = ""
	cfg.ThesaurusBaseURL = ""
	return cfg
}

// NewHighSensitivityConfig creates a Config that escalates more aggressively.
// Expect more crisis responses on ambiguous input.
func NewHighSensitivityConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.SentimentUrgentThreshold = 0.80
	cfg.EmotionUrgentThreshold = 0.75
	cfg.RiskHighThreshold = 0.6
	cfg.RiskMediumThreshold = 0.3
	return cfg
}

func detectClassifierBackend() ClassifierBackend {
	if b := os.Getenv("HAVEN_CLASSIFIER_BACKEND"); b != "" {
		return ClassifierBackend(b)
	}
	if os.Getenv("HAVEN_CLASSIFIER_BASE_URL") != "" {
		return BackendRemote
	}
	return BackendHugot
}

// clampInt ensures a value is within bounds
func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	var problems []string

	if c.SentimentUrgentThreshold <= 0 || c.SentimentUrgentThreshold > 1 {
		problems = append(problems, "HAVEN_SENTIMENT_URGENT_THRESHOLD must be in (0, 1]")
	}
	if c.EmotionUrgentThreshold <= 0 || c.EmotionUrgentThreshold > 1 {
		problems = append(problems, "HAVEN_EMOTION_URGENT_THRESHOLD must be in (0, 1]")
	}
	if c.RiskMediumThreshold >= c.RiskHighThreshold {
		problems = append(problems, "HAVEN_RISK_MEDIUM_THRESHOLD must be below HAVEN_RISK_HIGH_THRESHOLD")
	}
	if len(c.UrgentKeywords) == 0 {
		problems = append(problems, "HAVEN_URGENT_KEYWORDS must not be empty")
	}
	if c.SessionTTL <= 0 {
		problems = append(problems, "HAVEN_SESSION_TTL_SECONDS must be positive")
	}
	if c.ClassifierBackend == BackendRemote && c.ClassifierBaseURL == "" {
		problems = append(problems, "HAVEN_CLASSIFIER_BASE_URL is required for the remote backend")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// MustValidate calls Validate and fatally exits if validation fails.
// Call this at startup before serving traffic.
func (c *Config) MustValidate() {
	if err := c.Validate(); err != nil {
		log.Fatalf("[STARTUP] FATAL: Configuration validation failed: %v", err)
	}
	log.Println("[STARTUP] Configuration validated successfully")
}

// Helper functions for environment variable parsing
// These are exported for use by other packages (e.g., pkg/nlp)

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool returns the boolean value of an environment variable or a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvFloat returns the float64 value of an environment variable or a default value.
func GetEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}

// GetEnvInt returns the integer value of an environment variable or a default value.
func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

// GetEnvSlice returns a comma-separated list from an environment variable or a default value.
func GetEnvSlice(key string, defaultValue []string) []string {
	if v := os.Getenv(key); v != "" {
		var parts []string
		for _, p := range strings.Split(v, ",") {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}
