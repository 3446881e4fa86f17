package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kohakuhub/kohakuhub/internal/bytesize"
	"github.com/kohakuhub/kohakuhub/pkg/hub/store"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//
// Booleans whose default is true (fallback.enabled, git.enabled,
// s3.force_path_style, auth.open_registration, telemetry.insecure) cannot be
// distinguished from an explicit false here; their defaults live in the viper
// layer (see setupViper) and in GetDefaultConfig.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyShutdownTimeoutDefaults(cfg)
	applyDatabaseDefaults(&cfg.Database)
	applyMetricsDefaults(&cfg.Metrics)
	applyServerDefaults(&cfg.Server)
	applyS3Defaults(&cfg.S3)
	applyLakeFSDefaults(&cfg.LakeFS)
	applyLFSDefaults(&cfg.LFS)
	applyFallbackDefaults(&cfg.Fallback)
	applyAuthDefaults(&cfg.Auth)
	applyGitDefaults(&cfg.Git)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	// Enabled defaults to false (opt-in for telemetry)
	// No need to set, zero value is false

	// Default endpoint is localhost:4317 (standard OTLP gRPC port)
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}

	// Default sample rate is 1.0 (sample all traces)
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	// Apply profiling defaults
	applyProfilingDefaults(&cfg.Profiling)
}

// applyProfilingDefaults sets Pyroscope profiling defaults.
func applyProfilingDefaults(cfg *ProfilingConfig) {
	// Enabled defaults to false (opt-in for profiling)
	// No need to set, zero value is false

	// Default endpoint is localhost:4040 (standard Pyroscope port)
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}

	// Default profile types include CPU, memory allocation, and goroutines
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

// applyShutdownTimeoutDefaults sets shutdown timeout defaults.
func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyDatabaseDefaults sets hub database defaults.
func applyDatabaseDefaults(cfg *store.Config) {
	cfg.ApplyDefaults()
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	// Enabled defaults to false (opt-in for metrics)
	// Port defaults to 9090 if metrics are enabled
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// applyServerDefaults sets hub API server defaults.
func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	// The external URL feeds presigned-action bodies and clone URLs, so it
	// must be derived after the port default is settled.
	if cfg.ExternalURL == "" {
		cfg.ExternalURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}
	cfg.ExternalURL = strings.TrimRight(cfg.ExternalURL, "/")

	if cfg.ReadHeaderTimeout == 0 {
		cfg.ReadHeaderTimeout = 10 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 120 * time.Second
	}
}

// applyS3Defaults sets blob store defaults (MinIO-shaped).
func applyS3Defaults(cfg *S3Config) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:9000"
	}
	// PublicEndpoint intentionally has no default; empty means "same as
	// Endpoint" and is resolved where presigned URLs are built.
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "kohakuhub"
	}
	if cfg.PresignTTL == 0 {
		cfg.PresignTTL = time.Hour
	}
}

// applyLakeFSDefaults sets branch/commit backend defaults.
func applyLakeFSDefaults(cfg *LakeFSConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:8000"
	}
	// Credentials have no defaults; they must be configured by the user.
}

// applyLFSDefaults sets large-file storage defaults.
func applyLFSDefaults(cfg *LFSConfig) {
	// 5 MB decimal, matching the pointer-file convention clients expect.
	if cfg.ThresholdBytes == 0 {
		cfg.ThresholdBytes = 5 * bytesize.MB
	}
	if cfg.KeepVersions == 0 {
		cfg.KeepVersions = 5
	}
	if cfg.MultipartThreshold == 0 {
		cfg.MultipartThreshold = 5 * bytesize.GiB
	}
	if cfg.MultipartPartSize == 0 {
		cfg.MultipartPartSize = 100 * bytesize.MiB
	}
	if cfg.ReservationTTL == 0 {
		cfg.ReservationTTL = time.Hour
	}
}

// applyFallbackDefaults sets fallback proxy defaults.
func applyFallbackDefaults(cfg *FallbackConfig) {
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 300 * time.Second
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = 4096
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxConcurrent == 0 {
		cfg.MaxConcurrent = 5
	}
	for i := range cfg.Sources {
		if cfg.Sources[i].Priority == 0 {
			cfg.Sources[i].Priority = 100
		}
	}
}

// applyAuthDefaults sets session defaults.
// SessionSecret has no default; an empty secret makes the server generate
// an ephemeral one at startup.
func applyAuthDefaults(cfg *AuthConfig) {
	if cfg.AccessTokenTTL == 0 {
		cfg.AccessTokenTTL = 24 * time.Hour
	}
	if cfg.RefreshTokenTTL == 0 {
		cfg.RefreshTokenTTL = 720 * time.Hour
	}
}

// applyGitDefaults sets git bridge defaults.
func applyGitDefaults(cfg *GitConfig) {
	if cfg.PackInlineThreshold == 0 {
		cfg.PackInlineThreshold = bytesize.MiB
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		Logging: LoggingConfig{},
		Telemetry: TelemetryConfig{
			Insecure: true,
		},
		Database: store.Config{
			Type: store.DatabaseTypeSQLite, // Default to SQLite for single-node
		},
		S3: S3Config{
			ForcePathStyle: true,
		},
		Fallback: FallbackConfig{
			Enabled: true,
			Sources: []FallbackSourceConfig{
				{
					Name:     "huggingface",
					Endpoint: "https://huggingface.co",
					Priority: 100,
					Enabled:  true,
				},
			},
		},
		Auth: AuthConfig{
			OpenRegistration: true,
		},
		Git: GitConfig{
			Enabled: true,
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
