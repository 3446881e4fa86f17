package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate checks the configuration for errors.
//
// Struct-level rules come from `validate` tags; cross-field rules that tags
// cannot express are checked explicitly afterwards. Validation never mutates
// the configuration (normalization belongs to ApplyDefaults).
//
// Returns a descriptive error naming the offending field, or nil.
func Validate(cfg *Config) error {
	v := validator.New()

	if err := v.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			// Report the first failure with its namespace so the message
			// points at the field and the rule that rejected it.
			fe := verrs[0]
			return fmt.Errorf("invalid value for %s: failed %q validation",
				fe.Namespace(), fe.Tag())
		}
		return err
	}

	if err := cfg.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry is enabled but no endpoint is configured")
	}
	if cfg.Telemetry.Profiling.Enabled && cfg.Telemetry.Profiling.Endpoint == "" {
		return fmt.Errorf("profiling is enabled but no endpoint is configured")
	}

	if err := validateBaseURL("server.external_url", cfg.Server.ExternalURL); err != nil {
		return err
	}
	if err := validateBaseURL("s3.endpoint", cfg.S3.Endpoint); err != nil {
		return err
	}
	if cfg.S3.PublicEndpoint != "" {
		if err := validateBaseURL("s3.public_endpoint", cfg.S3.PublicEndpoint); err != nil {
			return err
		}
	}
	if err := validateBaseURL("lakefs.endpoint", cfg.LakeFS.Endpoint); err != nil {
		return err
	}

	if cfg.LFS.MultipartPartSize == 0 {
		return fmt.Errorf("lfs.multipart_part_size must be positive")
	}
	if cfg.LFS.MultipartThreshold < cfg.LFS.MultipartPartSize {
		return fmt.Errorf("lfs.multipart_threshold (%s) must be at least lfs.multipart_part_size (%s)",
			cfg.LFS.MultipartThreshold, cfg.LFS.MultipartPartSize)
	}
	for _, rule := range cfg.LFS.SuffixRules {
		if strings.TrimSpace(rule) == "" {
			return fmt.Errorf("lfs.suffix_rules must not contain empty entries")
		}
	}

	if cfg.Fallback.Enabled {
		if cfg.Fallback.CacheTTL <= 0 {
			return fmt.Errorf("fallback.cache_ttl must be positive")
		}
		if cfg.Fallback.Timeout <= 0 {
			return fmt.Errorf("fallback.timeout must be positive")
		}
		for i, src := range cfg.Fallback.Sources {
			if src.Name == "" {
				return fmt.Errorf("fallback.sources[%d]: name is required", i)
			}
			if err := validateBaseURL(fmt.Sprintf("fallback.sources[%d].endpoint", i), src.Endpoint); err != nil {
				return err
			}
		}
	}

	if cfg.Admin.Enabled && cfg.Admin.SecretToken == "" {
		return fmt.Errorf("admin surface is enabled but admin.secret_token is not set")
	}

	return nil
}

// validateBaseURL checks that the value parses as an absolute http(s) URL.
func validateBaseURL(field, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", field, value)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host: %q", field, value)
	}
	return nil
}
