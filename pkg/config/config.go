package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/kohakuhub/kohakuhub/internal/bytesize"
	"github.com/kohakuhub/kohakuhub/pkg/hub/store"
)

// Config represents the KohakuHub configuration.
//
// This structure captures static configuration aspects of the hub server:
//   - Logging configuration
//   - Telemetry/tracing configuration
//   - Server settings (HTTP listener, external URL, shutdown timeout)
//   - Database connection (hub persistence)
//   - Blob store (S3-compatible) and branch/commit backend (LakeFS) access
//   - LFS, quota, fallback and git bridge behavior
//   - Auth secrets and admin surface
//
// Dynamic state (users, organizations, repositories, tokens, fallback
// sources) is managed through the REST API and stored in the hub database.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (KOHAKUHUB_*, plus the bare aliases listed
//     per field, e.g. S3_ENDPOINT)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Database configures the hub database (SQLite or PostgreSQL).
	// This is the persistent store for users, organizations, repositories
	// and bookkeeping.
	Database store.Config `mapstructure:"database" yaml:"database"`

	// Metrics contains Prometheus metrics server configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Server contains the hub HTTP API server configuration
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// S3 configures the S3-compatible blob store where file content lives.
	S3 S3Config `mapstructure:"s3" yaml:"s3"`

	// LakeFS configures the branch/commit backend.
	LakeFS LakeFSConfig `mapstructure:"lakefs" yaml:"lakefs"`

	// LFS controls large-file thresholds, multipart uploads and version GC.
	LFS LFSConfig `mapstructure:"lfs" yaml:"lfs"`

	// Fallback controls proxying to external hubs for unknown repos.
	Fallback FallbackConfig `mapstructure:"fallback" yaml:"fallback"`

	// Quota sets default storage limits applied to new users and orgs.
	Quota QuotaConfig `mapstructure:"quota" yaml:"quota"`

	// Auth holds session and registration settings.
	Auth AuthConfig `mapstructure:"auth" yaml:"auth"`

	// Git controls the read-only git smart-HTTP bridge.
	Git GitConfig `mapstructure:"git" yaml:"git"`

	// Admin configures the token-protected admin surface.
	Admin AdminConfig `mapstructure:"admin" yaml:"admin"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
// When enabled, trace data is exported to an OTLP-compatible collector
// (e.g., Jaeger, Tempo, or any OTLP receiver).
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled
	// Default: false (opt-in for telemetry)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port)
	// Default: "localhost:4317" (standard OTLP gRPC port)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use insecure (non-TLS) connection
	// Default: true (for local development)
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0)
	// Default: 1.0 (sample all)
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	// Enabled controls whether continuous profiling is enabled
	// Default: false (opt-in for profiling)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server endpoint (URL)
	// Default: "http://localhost:4040" (standard Pyroscope port)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes specifies which profile types to collect
	// Valid values: cpu, alloc_objects, alloc_space, inuse_objects, inuse_space,
	//               goroutines, mutex_count, mutex_duration, block_count, block_duration
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false, no metrics are collected (zero overhead).
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP server are enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the metrics endpoint
	// Default: 9090
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// ServerConfig contains the hub API server configuration.
type ServerConfig struct {
	// Host is the listen address. Default: "0.0.0.0"
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the listen port. Default: 8080
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	// ExternalURL is the base URL clients reach the hub at. It is embedded
	// in LFS batch actions, git clone instructions and pagination links.
	// Default: "http://localhost:8080"
	ExternalURL string `mapstructure:"external_url" yaml:"external_url"`

	// ReadHeaderTimeout bounds header parsing. Body reads are not bounded
	// here because commit payloads and git packs stream for a long time.
	// Default: 10s
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`

	// IdleTimeout closes idle keep-alive connections. Default: 120s
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
}

// S3Config configures the S3-compatible blob store.
//
// Environment variable aliases: S3_ENDPOINT, S3_PUBLIC_ENDPOINT, S3_REGION,
// S3_BUCKET, S3_ACCESS_KEY, S3_SECRET_KEY.
type S3Config struct {
	// Endpoint is the blob store endpoint used by the hub itself.
	// Default: "http://localhost:9000" (MinIO)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// PublicEndpoint is the endpoint embedded in presigned URLs handed to
	// clients. Empty means same as Endpoint. Deployments behind NAT or a
	// reverse proxy set this to the externally reachable address.
	PublicEndpoint string `mapstructure:"public_endpoint" yaml:"public_endpoint,omitempty"`

	// Region is the S3 region. Default: "us-east-1"
	Region string `mapstructure:"region" yaml:"region"`

	// Bucket holds all repository content. Default: "kohakuhub"
	Bucket string `mapstructure:"bucket" yaml:"bucket"`

	// AccessKey and SecretKey authenticate the hub against the blob store.
	AccessKey string `mapstructure:"access_key" yaml:"access_key,omitempty"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key,omitempty"`

	// ForcePathStyle addresses buckets as /bucket/key instead of
	// bucket.host/key. Required for MinIO. Default: true
	ForcePathStyle bool `mapstructure:"force_path_style" yaml:"force_path_style"`

	// PresignTTL is the lifetime of presigned upload/download URLs.
	// Default: 1h
	PresignTTL time.Duration `mapstructure:"presign_ttl" yaml:"presign_ttl"`
}

// LakeFSConfig configures the branch/commit backend.
//
// Environment variable aliases: LAKEFS_ENDPOINT, LAKEFS_ACCESS_KEY,
// LAKEFS_SECRET_KEY.
type LakeFSConfig struct {
	// Endpoint is the backend API base URL. Default: "http://localhost:8000"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// AccessKey and SecretKey authenticate the hub against the backend.
	AccessKey string `mapstructure:"access_key" yaml:"access_key,omitempty"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key,omitempty"`
}

// LFSConfig controls large-file storage behavior. Per-repo settings
// override these server defaults.
type LFSConfig struct {
	// ThresholdBytes is the inline size limit; files at or above it must go
	// through LFS. Alias: LFS_THRESHOLD_BYTES. Default: 5MB
	ThresholdBytes bytesize.ByteSize `mapstructure:"threshold_bytes" yaml:"threshold_bytes"`

	// KeepVersions is how many historical versions per (repo, path) survive
	// garbage collection. Values below 2 forbid revert; the settings API
	// warns but honors them. Alias: LFS_KEEP_VERSIONS. Default: 5
	KeepVersions int `mapstructure:"keep_versions" validate:"omitempty,min=1" yaml:"keep_versions"`

	// AutoGC runs version garbage collection after each commit.
	// Alias: LFS_AUTO_GC. Default: false
	AutoGC bool `mapstructure:"auto_gc" yaml:"auto_gc"`

	// SuffixRules lists file suffixes that always use LFS regardless of
	// size (case-insensitive, leading dot). Default: empty
	SuffixRules []string `mapstructure:"suffix_rules" yaml:"suffix_rules,omitempty"`

	// MultipartThreshold is the object size at which uploads switch to
	// multipart. Default: 5Gi (the single-PUT ceiling)
	MultipartThreshold bytesize.ByteSize `mapstructure:"multipart_threshold" yaml:"multipart_threshold"`

	// MultipartPartSize is the size of each multipart part. Default: 100Mi
	MultipartPartSize bytesize.ByteSize `mapstructure:"multipart_part_size" yaml:"multipart_part_size"`

	// ReservationTTL is how long quota stays reserved for an upload that
	// never verifies. Default: 1h
	ReservationTTL time.Duration `mapstructure:"reservation_ttl" yaml:"reservation_ttl"`
}

// FallbackConfig controls proxying to external hubs when a repository does
// not exist locally.
type FallbackConfig struct {
	// Enabled turns the fallback proxy on. Alias: FALLBACK_ENABLED.
	// Default: true
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// CacheTTL is how long a repo-to-source mapping stays cached.
	// Alias: FALLBACK_CACHE_TTL (unit-less values are seconds). Default: 300s
	CacheTTL time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`

	// CacheSize bounds the repo-to-source cache entry count. Default: 4096
	CacheSize int `mapstructure:"cache_size" validate:"omitempty,min=1" yaml:"cache_size"`

	// Timeout bounds each external request.
	// Alias: FALLBACK_TIMEOUT (unit-less values are seconds). Default: 10s
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// MaxConcurrent bounds in-flight external requests.
	// Alias: FALLBACK_MAX_CONCURRENT. Default: 5
	MaxConcurrent int `mapstructure:"max_concurrent" validate:"omitempty,min=1" yaml:"max_concurrent"`

	// Sources are seeded into the database at startup. Sources created
	// through the admin API are kept alongside.
	Sources []FallbackSourceConfig `mapstructure:"sources" yaml:"sources,omitempty"`
}

// FallbackSourceConfig describes one configured upstream hub.
type FallbackSourceConfig struct {
	// Name identifies the source. Default seed: "huggingface"
	Name string `mapstructure:"name" yaml:"name"`

	// Endpoint is the upstream base URL, e.g. "https://huggingface.co"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Token is an optional per-source bearer token. User tokens are never
	// forwarded upstream.
	Token string `mapstructure:"token" yaml:"token,omitempty"`

	// Priority orders probing; lower probes first. Default: 100
	Priority int `mapstructure:"priority" yaml:"priority"`

	// Enabled toggles the source without deleting it. Default: true
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// QuotaConfig sets default storage limits for new accounts. Zero means
// unlimited.
type QuotaConfig struct {
	// UserPrivate / UserPublic are the per-user defaults.
	UserPrivate bytesize.ByteSize `mapstructure:"user_private" yaml:"user_private"`
	UserPublic  bytesize.ByteSize `mapstructure:"user_public" yaml:"user_public"`

	// OrgPrivate / OrgPublic are the per-organization defaults.
	OrgPrivate bytesize.ByteSize `mapstructure:"org_private" yaml:"org_private"`
	OrgPublic  bytesize.ByteSize `mapstructure:"org_public" yaml:"org_public"`
}

// AuthConfig holds session and registration settings.
type AuthConfig struct {
	// SessionSecret signs session JWTs. Empty generates an ephemeral secret
	// at startup (sessions then do not survive restarts).
	SessionSecret string `mapstructure:"session_secret" yaml:"session_secret,omitempty"`

	// AccessTokenTTL is the session access token lifetime. Default: 24h
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl" yaml:"access_token_ttl"`

	// RefreshTokenTTL is the session refresh token lifetime. Default: 720h
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl" yaml:"refresh_token_ttl"`

	// OpenRegistration allows registering without an invitation.
	// Default: true
	OpenRegistration bool `mapstructure:"open_registration" yaml:"open_registration"`
}

// GitConfig controls the read-only git smart-HTTP bridge.
type GitConfig struct {
	// Enabled turns the bridge on. Default: true
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// PackInlineThreshold is the largest file embedded directly into
	// synthesized packs; larger files (and LFS-suffixed ones) become LFS
	// pointer blobs. Independent of the storage LFS threshold so repos
	// that predate LFS conventions still clone in reasonable time.
	// Default: 1Mi
	PackInlineThreshold bytesize.ByteSize `mapstructure:"pack_inline_threshold" yaml:"pack_inline_threshold"`
}

// AdminConfig configures the token-protected admin surface.
type AdminConfig struct {
	// Enabled turns the /api/admin routes on. Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// SecretToken is required in the X-Admin-Token header on admin routes.
	SecretToken string `mapstructure:"secret_token" yaml:"secret_token,omitempty"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (KOHAKUHUB_* and the bare aliases)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Configure viper
	setupViper(v, configPath)

	// Read configuration file if it exists. A missing file is fine; the
	// explicitly bound environment variables still feed Unmarshal below.
	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	// Unmarshal into config struct with custom decode hooks
	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply defaults for any missing values
	ApplyDefaults(&cfg)

	// Validate configuration
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages.
// It checks if the config file exists and provides user-friendly instructions if not.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  kohakuhub init\n\n"+
				"Or specify a custom config file:\n"+
				"  kohakuhub <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  kohakuhub init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path.
// The configuration is saved in YAML format using proper yaml tags.
func SaveConfig(cfg *Config, path string) error {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Use yaml.Marshal directly to respect yaml tags
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to file with restricted permissions (0600 = owner read/write only).
	// Config files carry blob store credentials and session secrets.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the KOHAKUHUB_ prefix and underscores.
	// Example: KOHAKUHUB_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("KOHAKUHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key is bound explicitly so environment-only deployments (no
	// config file at all) still resolve values through Unmarshal. Keys
	// listed with extra names also accept those bare aliases.
	bindEnvKeys(v)

	// Booleans that default to true cannot round-trip through
	// ApplyDefaults (an unset field and an explicit false are both false
	// by then), so they default at the viper layer where "unset" is still
	// observable.
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("s3.force_path_style", true)
	v.SetDefault("fallback.enabled", true)
	v.SetDefault("auth.open_registration", true)
	v.SetDefault("git.enabled", true)

	// Configure config file search
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Use default location: $XDG_CONFIG_HOME/kohakuhub/config.yaml
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// bindEnvKeys binds every configuration key, attaching the documented bare
// aliases where the deployment surface predates the KOHAKUHUB_ prefix.
func bindEnvKeys(v *viper.Viper) {
	keys := [][]string{
		{"logging.level"},
		{"logging.format"},
		{"logging.output"},
		{"telemetry.enabled"},
		{"telemetry.endpoint"},
		{"telemetry.insecure"},
		{"telemetry.sample_rate"},
		{"telemetry.profiling.enabled"},
		{"telemetry.profiling.endpoint"},
		{"telemetry.profiling.profile_types"},
		{"shutdown_timeout"},
		{"database.type"},
		{"database.sqlite.path"},
		{"database.postgres.host"},
		{"database.postgres.port"},
		{"database.postgres.database"},
		{"database.postgres.user"},
		{"database.postgres.password"},
		{"database.postgres.ssl_mode"},
		{"database.postgres.ssl_root_cert"},
		{"database.postgres.max_open_conns"},
		{"database.postgres.max_idle_conns"},
		{"metrics.enabled"},
		{"metrics.port"},
		{"server.host"},
		{"server.port"},
		{"server.external_url"},
		{"server.read_header_timeout"},
		{"server.idle_timeout"},
		{"s3.endpoint", "KOHAKUHUB_S3_ENDPOINT", "S3_ENDPOINT"},
		{"s3.public_endpoint", "KOHAKUHUB_S3_PUBLIC_ENDPOINT", "S3_PUBLIC_ENDPOINT"},
		{"s3.region", "KOHAKUHUB_S3_REGION", "S3_REGION"},
		{"s3.bucket", "KOHAKUHUB_S3_BUCKET", "S3_BUCKET"},
		{"s3.access_key", "KOHAKUHUB_S3_ACCESS_KEY", "S3_ACCESS_KEY"},
		{"s3.secret_key", "KOHAKUHUB_S3_SECRET_KEY", "S3_SECRET_KEY"},
		{"s3.force_path_style"},
		{"s3.presign_ttl"},
		{"lakefs.endpoint", "KOHAKUHUB_LAKEFS_ENDPOINT", "LAKEFS_ENDPOINT"},
		{"lakefs.access_key", "KOHAKUHUB_LAKEFS_ACCESS_KEY", "LAKEFS_ACCESS_KEY"},
		{"lakefs.secret_key", "KOHAKUHUB_LAKEFS_SECRET_KEY", "LAKEFS_SECRET_KEY"},
		{"lfs.threshold_bytes", "KOHAKUHUB_LFS_THRESHOLD_BYTES", "LFS_THRESHOLD_BYTES"},
		{"lfs.keep_versions", "KOHAKUHUB_LFS_KEEP_VERSIONS", "LFS_KEEP_VERSIONS"},
		{"lfs.auto_gc", "KOHAKUHUB_LFS_AUTO_GC", "LFS_AUTO_GC"},
		{"lfs.suffix_rules"},
		{"lfs.multipart_threshold"},
		{"lfs.multipart_part_size"},
		{"lfs.reservation_ttl"},
		{"fallback.enabled", "KOHAKUHUB_FALLBACK_ENABLED", "FALLBACK_ENABLED"},
		{"fallback.cache_ttl", "KOHAKUHUB_FALLBACK_CACHE_TTL", "FALLBACK_CACHE_TTL"},
		{"fallback.cache_size"},
		{"fallback.timeout", "KOHAKUHUB_FALLBACK_TIMEOUT", "FALLBACK_TIMEOUT"},
		{"fallback.max_concurrent", "KOHAKUHUB_FALLBACK_MAX_CONCURRENT", "FALLBACK_MAX_CONCURRENT"},
		{"quota.user_private"},
		{"quota.user_public"},
		{"quota.org_private"},
		{"quota.org_public"},
		{"auth.session_secret"},
		{"auth.access_token_ttl"},
		{"auth.refresh_token_ttl"},
		{"auth.open_registration"},
		{"git.enabled"},
		{"git.pack_inline_threshold"},
		{"admin.enabled"},
		{"admin.secret_token"},
	}

	for _, key := range keys {
		// Errors only occur with zero arguments.
		_ = v.BindEnv(key...)
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		// Check if error is "config file not found"
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		// Also check for os.PathError when explicit config file doesn't exist
		if os.IsNotExist(err) {
			return false, nil
		}
		// Other errors are problems
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
// This includes ByteSize and time.Duration parsing.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

// byteSizeDecodeHook returns a mapstructure decode hook that converts strings
// and integers to bytesize.ByteSize. This enables config files to use human-readable
// sizes like "1Gi", "500Mi", "100MB", or plain numbers.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		// Only handle conversion to ByteSize
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			// Parse human-readable string like "1Gi", "500Mi", "100MB"
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook returns a mapstructure decode hook that converts strings
// to time.Duration. Unit-suffixed strings ("30s", "5m", "1h") parse as usual.
// Unit-less strings are SECONDS, matching the documented FALLBACK_CACHE_TTL
// and FALLBACK_TIMEOUT environment variables (env values always arrive as
// strings). Raw YAML integers remain nanoseconds so SaveConfig output
// round-trips.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		// Only handle conversion to time.Duration
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if d, err := time.ParseDuration(v); err == nil {
				return d, nil
			}
			if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
				return time.Duration(secs) * time.Second, nil
			}
			return time.ParseDuration(v)
		case int:
			// Assume nanoseconds for raw integers
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	// Check XDG_CONFIG_HOME
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "kohakuhub")
	}

	// Fall back to ~/.config
	home, err := os.UserHomeDir()
	if err != nil {
		// If we can't get home dir, use current directory as last resort
		return "."
	}

	return filepath.Join(home, ".config", "kohakuhub")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	path := GetDefaultConfigPath()
	_, err := os.Stat(path)
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
