// Package config loads engine and storage configuration from the
// environment. Library callers that construct components directly can skip
// it; the per-package DefaultXConfig functions carry the same defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/veloplan/paceline/alignment"
	"github.com/veloplan/paceline/compliance"
	"github.com/veloplan/paceline/internal/database"
	"github.com/veloplan/paceline/internal/utils"
	"github.com/veloplan/paceline/pkg/logger"
	"github.com/veloplan/paceline/workout"
)

// Config holds engine and storage configuration
type Config struct {
	DataDir   string // Base directory for the report archive (always absolute)
	LogLevel  string
	LogPretty bool

	// Scoring
	PowerTolerance float64  // Fractional band around the target treated as on-target
	AllowBelowFor  []string // Intensity classes allowed to undershoot their target

	// Offset search
	MaxOffset  int // Largest recording-start delay scanned, seconds
	MinOverlap int // Minimum overlap for an offset estimate to be trusted

	// Anchoring and warping
	AnchorMinRun  int
	DTWWindow     int
	DTWPsi        int
	DTWPenalty    float64
	DTWDownsample int
}

// Load reads configuration from environment variables, honoring a .env
// file when present. The data directory is created if missing.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:        absDataDir,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogPretty:      getEnvAsBool("LOG_PRETTY", false),
		PowerTolerance: getEnvAsFloat("POWER_TOLERANCE", 0.05),
		AllowBelowFor:  utils.ParseCSV(getEnv("ALLOW_BELOW_FOR", "warmup,cooldown")),
		MaxOffset:      getEnvAsInt("MAX_OFFSET", 300),
		MinOverlap:     getEnvAsInt("MIN_OVERLAP", 60),
		AnchorMinRun:   getEnvAsInt("ANCHOR_MIN_RUN", 45),
		DTWWindow:      getEnvAsInt("DTW_WINDOW", 120),
		DTWPsi:         getEnvAsInt("DTW_PSI", 30),
		DTWPenalty:     getEnvAsFloat("DTW_PENALTY", 0.5),
		DTWDownsample:  getEnvAsInt("DTW_DOWNSAMPLE", 5),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configured values fall in the ranges the engine supports
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL %q: must be debug, info, warn or error", c.LogLevel)
	}

	if c.PowerTolerance < 0 || c.PowerTolerance >= 1 {
		return fmt.Errorf("POWER_TOLERANCE %v out of range [0, 1)", c.PowerTolerance)
	}
	if c.MaxOffset < 0 {
		return fmt.Errorf("MAX_OFFSET cannot be negative, got %d", c.MaxOffset)
	}
	if c.MinOverlap < 1 {
		return fmt.Errorf("MIN_OVERLAP must be at least 1, got %d", c.MinOverlap)
	}
	if c.AnchorMinRun < 1 {
		return fmt.Errorf("ANCHOR_MIN_RUN must be at least 1, got %d", c.AnchorMinRun)
	}
	if c.DTWWindow < 1 {
		return fmt.Errorf("DTW_WINDOW must be at least 1, got %d", c.DTWWindow)
	}
	if c.DTWPsi < 0 {
		return fmt.Errorf("DTW_PSI cannot be negative, got %d", c.DTWPsi)
	}
	if c.DTWPenalty < 0 {
		return fmt.Errorf("DTW_PENALTY cannot be negative, got %v", c.DTWPenalty)
	}
	if c.DTWDownsample < 1 {
		return fmt.Errorf("DTW_DOWNSAMPLE must be at least 1, got %d", c.DTWDownsample)
	}

	return nil
}

// LoggerConfig converts to the logging bootstrap configuration
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:  c.LogLevel,
		Pretty: c.LogPretty,
	}
}

// ScorerConfig converts to the bounded scorer configuration
func (c *Config) ScorerConfig() compliance.ScorerConfig {
	classes := make([]workout.IntensityClass, 0, len(c.AllowBelowFor))
	for _, name := range c.AllowBelowFor {
		classes = append(classes, workout.IntensityClass(name))
	}

	return compliance.ScorerConfig{
		Tolerance:     c.PowerTolerance,
		AllowBelowFor: classes,
	}
}

// OffsetConfig converts to the offset-search bounds
func (c *Config) OffsetConfig() alignment.OffsetConfig {
	return alignment.OffsetConfig{
		MaxOffset:   c.MaxOffset,
		MinRequired: c.MinOverlap,
	}
}

// AnchorConfig converts to the anchor detection configuration
func (c *Config) AnchorConfig() alignment.AnchorConfig {
	cfg := alignment.DefaultAnchorConfig()
	cfg.MinRun = c.AnchorMinRun
	return cfg
}

// AlignerConfig converts to the DTW aligner configuration
func (c *Config) AlignerConfig() alignment.AlignerConfig {
	cfg := alignment.DefaultAlignerConfig()
	cfg.Window = c.DTWWindow
	cfg.Psi = c.DTWPsi
	cfg.Penalty = c.DTWPenalty
	cfg.Downsample = c.DTWDownsample
	cfg.AnchorMinRun = c.AnchorMinRun
	return cfg
}

// AnalyzerConfig bundles the conversions for the default pipeline
func (c *Config) AnalyzerConfig() compliance.AnalyzerConfig {
	return compliance.AnalyzerConfig{
		Scorer: c.ScorerConfig(),
		Offset: c.OffsetConfig(),
		Anchor: c.AnchorConfig(),
	}
}

// HistoryDatabaseConfig locates the report archive under the data directory
func (c *Config) HistoryDatabaseConfig() database.Config {
	return database.Config{
		Path:    filepath.Join(c.DataDir, "history.db"),
		Profile: database.ProfileArchive,
		Name:    "history",
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
