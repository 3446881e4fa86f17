package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kohakuhub/kohakuhub/internal/bytesize"
)

// yamlSafePath converts a filesystem path to a YAML-safe representation.
// On Windows, backslashes in double-quoted YAML strings are interpreted as
// escape sequences (e.g. \U -> Unicode escape), causing parse errors.
func yamlSafePath(p string) string {
	return filepath.ToSlash(p)
}

func TestLoad_DefaultConfig(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Write minimal config with new structure
	configContent := `
logging:
  level: "INFO"

database:
  type: sqlite
  sqlite:
    path: "` + yamlSafePath(tmpDir) + `/hub.db"

server:
  port: 8080
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	// Load config
	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify defaults were applied
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected server port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.ExternalURL != "http://localhost:8080" {
		t.Errorf("Expected derived external URL, got %q", cfg.Server.ExternalURL)
	}
	if cfg.LFS.ThresholdBytes != 5*bytesize.MB {
		t.Errorf("Expected default LFS threshold 5MB, got %v", cfg.LFS.ThresholdBytes)
	}
	if cfg.LFS.KeepVersions != 5 {
		t.Errorf("Expected default keep_versions 5, got %d", cfg.LFS.KeepVersions)
	}
	if cfg.LFS.AutoGC {
		t.Error("Expected auto_gc to default to false")
	}
	if !cfg.Fallback.Enabled {
		t.Error("Expected fallback to default to enabled")
	}
	if cfg.Fallback.CacheTTL != 300*time.Second {
		t.Errorf("Expected default fallback cache TTL 300s, got %v", cfg.Fallback.CacheTTL)
	}
	if cfg.Fallback.Timeout != 10*time.Second {
		t.Errorf("Expected default fallback timeout 10s, got %v", cfg.Fallback.Timeout)
	}
	if cfg.Fallback.MaxConcurrent != 5 {
		t.Errorf("Expected default fallback max_concurrent 5, got %d", cfg.Fallback.MaxConcurrent)
	}
	if !cfg.S3.ForcePathStyle {
		t.Error("Expected force_path_style to default to true")
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// Loading with no config file returns a valid default config.
	// This allows users to run the server without a config file for quick testing.
	tmpDir := t.TempDir()
	nonExistentPath := filepath.Join(tmpDir, "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error when loading default config, got: %v", err)
	}

	// Verify default config is returned
	if cfg == nil {
		t.Fatal("Expected default config to be returned")
	}

	// Verify default server port
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default server port 8080, got %d", cfg.Server.Port)
	}
	if !cfg.Git.Enabled {
		t.Error("Expected git bridge to default to enabled")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	// Write invalid YAML
	configContent := `
logging:
  level: INFO
  invalid yaml here [[[
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	// Should return error
	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_ByteSizesAndDurations(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
lfs:
  threshold_bytes: 10MB
  multipart_threshold: 5Gi
  multipart_part_size: 64Mi
  reservation_ttl: 30m

fallback:
  cache_ttl: "120"
  timeout: 5s
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.LFS.ThresholdBytes != 10*bytesize.MB {
		t.Errorf("Expected threshold 10MB, got %v", cfg.LFS.ThresholdBytes)
	}
	if cfg.LFS.MultipartThreshold != 5*bytesize.GiB {
		t.Errorf("Expected multipart threshold 5Gi, got %v", cfg.LFS.MultipartThreshold)
	}
	if cfg.LFS.MultipartPartSize != 64*bytesize.MiB {
		t.Errorf("Expected part size 64Mi, got %v", cfg.LFS.MultipartPartSize)
	}
	if cfg.LFS.ReservationTTL != 30*time.Minute {
		t.Errorf("Expected reservation TTL 30m, got %v", cfg.LFS.ReservationTTL)
	}

	// Unit-less duration strings are seconds, matching the env var contract.
	if cfg.Fallback.CacheTTL != 120*time.Second {
		t.Errorf("Expected cache TTL 120s from unit-less value, got %v", cfg.Fallback.CacheTTL)
	}
	if cfg.Fallback.Timeout != 5*time.Second {
		t.Errorf("Expected timeout 5s, got %v", cfg.Fallback.Timeout)
	}
}

func TestLoad_FallbackSources(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
fallback:
  enabled: true
  sources:
    - name: huggingface
      endpoint: https://huggingface.co
      enabled: true
    - name: mirror
      endpoint: https://hub.example.com
      priority: 10
      token: secret
      enabled: true
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if len(cfg.Fallback.Sources) != 2 {
		t.Fatalf("Expected 2 fallback sources, got %d", len(cfg.Fallback.Sources))
	}
	if cfg.Fallback.Sources[0].Priority != 100 {
		t.Errorf("Expected default priority 100, got %d", cfg.Fallback.Sources[0].Priority)
	}
	if cfg.Fallback.Sources[1].Priority != 10 {
		t.Errorf("Expected explicit priority 10, got %d", cfg.Fallback.Sources[1].Priority)
	}
	if cfg.Fallback.Sources[1].Token != "secret" {
		t.Errorf("Expected source token to be preserved, got %q", cfg.Fallback.Sources[1].Token)
	}
}

func TestLoad_DisablingDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// An explicit false must survive the default-true handling.
	configContent := `
fallback:
  enabled: false

git:
  enabled: false

auth:
  open_registration: false
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Fallback.Enabled {
		t.Error("Expected fallback.enabled=false to be preserved")
	}
	if cfg.Git.Enabled {
		t.Error("Expected git.enabled=false to be preserved")
	}
	if cfg.Auth.OpenRegistration {
		t.Error("Expected auth.open_registration=false to be preserved")
	}
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	// Verify all defaults are set
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default log output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default server port 8080, got %d", cfg.Server.Port)
	}
	if cfg.S3.Bucket != "kohakuhub" {
		t.Errorf("Expected default bucket 'kohakuhub', got %q", cfg.S3.Bucket)
	}
	if cfg.S3.PresignTTL != time.Hour {
		t.Errorf("Expected default presign TTL 1h, got %v", cfg.S3.PresignTTL)
	}
	if len(cfg.Fallback.Sources) != 1 || cfg.Fallback.Sources[0].Name != "huggingface" {
		t.Errorf("Expected default huggingface fallback source, got %+v", cfg.Fallback.Sources)
	}
	if cfg.Git.PackInlineThreshold != bytesize.MiB {
		t.Errorf("Expected default pack inline threshold 1Mi, got %v", cfg.Git.PackInlineThreshold)
	}
	if cfg.Admin.Enabled {
		t.Error("Expected admin surface to default to disabled")
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()

	if !filepath.IsAbs(path) {
		t.Errorf("Expected absolute path, got %q", path)
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("Expected filename 'config.yaml', got %q", filepath.Base(path))
	}
}

func TestGetConfigDir(t *testing.T) {
	dir := GetConfigDir()

	if filepath.Base(dir) != "kohakuhub" {
		t.Errorf("Expected directory name 'kohakuhub', got %q", filepath.Base(dir))
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	// Set environment variables
	t.Setenv("KOHAKUHUB_LOGGING_LEVEL", "ERROR")
	t.Setenv("KOHAKUHUB_SERVER_PORT", "9091")

	// Create minimal config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "INFO"

server:
  port: 8080
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify environment variables override config file
	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected level 'ERROR' from env var, got %q", cfg.Logging.Level)
	}
	if cfg.Server.Port != 9091 {
		t.Errorf("Expected port 9091 from env var, got %d", cfg.Server.Port)
	}
}

func TestLoad_BareEnvAliases(t *testing.T) {
	// The deployment surface documents unprefixed names for the storage and
	// fallback settings; both spellings must work with no config file at all.
	t.Setenv("S3_ENDPOINT", "http://minio.internal:9000")
	t.Setenv("S3_BUCKET", "hub-data")
	t.Setenv("LAKEFS_ENDPOINT", "http://lakefs.internal:8000")
	t.Setenv("LFS_THRESHOLD_BYTES", "1000000")
	t.Setenv("LFS_KEEP_VERSIONS", "2")
	t.Setenv("FALLBACK_CACHE_TTL", "600")
	t.Setenv("FALLBACK_ENABLED", "false")

	tmpDir := t.TempDir()
	cfg, err := Load(filepath.Join(tmpDir, "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("Failed to load config from environment: %v", err)
	}

	if cfg.S3.Endpoint != "http://minio.internal:9000" {
		t.Errorf("Expected S3 endpoint from bare alias, got %q", cfg.S3.Endpoint)
	}
	if cfg.S3.Bucket != "hub-data" {
		t.Errorf("Expected bucket from bare alias, got %q", cfg.S3.Bucket)
	}
	if cfg.LakeFS.Endpoint != "http://lakefs.internal:8000" {
		t.Errorf("Expected lakefs endpoint from bare alias, got %q", cfg.LakeFS.Endpoint)
	}
	if cfg.LFS.ThresholdBytes != bytesize.ByteSize(1000000) {
		t.Errorf("Expected LFS threshold 1000000, got %v", cfg.LFS.ThresholdBytes)
	}
	if cfg.LFS.KeepVersions != 2 {
		t.Errorf("Expected keep_versions 2, got %d", cfg.LFS.KeepVersions)
	}
	if cfg.Fallback.CacheTTL != 600*time.Second {
		t.Errorf("Expected cache TTL 600s from bare seconds value, got %v", cfg.Fallback.CacheTTL)
	}
	if cfg.Fallback.Enabled {
		t.Error("Expected FALLBACK_ENABLED=false to disable the proxy")
	}
}

func TestSaveConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Server.ExternalURL = "https://hub.example.com"

	if err := SaveConfig(cfg, configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Saved config not found: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected 0600 permissions, got %v", info.Mode().Perm())
	}

	// Round-trip through Load
	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to reload saved config: %v", err)
	}
	if loaded.Server.ExternalURL != "https://hub.example.com" {
		t.Errorf("Expected external URL to round-trip, got %q", loaded.Server.ExternalURL)
	}
}
