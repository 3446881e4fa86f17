package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configFileHeader = `# KohakuHub Configuration File
#
# Values here can be overridden with KOHAKUHUB_* environment variables,
# e.g. KOHAKUHUB_LOGGING_LEVEL=DEBUG or KOHAKUHUB_SERVER_PORT=9090.
# Storage and fallback settings also accept their bare names
# (S3_ENDPOINT, LAKEFS_ENDPOINT, LFS_THRESHOLD_BYTES, FALLBACK_ENABLED, ...).

`

// InitConfig creates a configuration file at the default location with
// default values and a freshly generated session secret.
//
// Returns the path of the created file. Fails if a file already exists
// unless force is set.
func InitConfig(force bool) (string, error) {
	configPath := GetDefaultConfigPath()
	if err := InitConfigToPath(configPath, force); err != nil {
		return "", err
	}
	return configPath, nil
}

// InitConfigToPath creates a configuration file at the given path with
// default values and a freshly generated session secret.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
		}
	}

	cfg := GetDefaultConfig()

	// Generate a session secret so sessions survive restarts out of the box.
	secret, err := generateSessionSecret()
	if err != nil {
		return fmt.Errorf("failed to generate session secret: %w", err)
	}
	cfg.Auth.SessionSecret = secret

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// 0600: the file carries credentials and the session secret.
	content := append([]byte(configFileHeader), data...)
	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// generateSessionSecret returns a random URL-safe secret for signing
// session tokens.
func generateSessionSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
