package config

import (
	"context"
	"fmt"

	"github.com/kohakuhub/kohakuhub/internal/logger"
	"github.com/kohakuhub/kohakuhub/pkg/api"
	"github.com/kohakuhub/kohakuhub/pkg/api/handlers"
	"github.com/kohakuhub/kohakuhub/pkg/blobstore"
	"github.com/kohakuhub/kohakuhub/pkg/commitengine"
	"github.com/kohakuhub/kohakuhub/pkg/fallback"
	"github.com/kohakuhub/kohakuhub/pkg/gitbridge"
	"github.com/kohakuhub/kohakuhub/pkg/hub/auth"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
	"github.com/kohakuhub/kohakuhub/pkg/hub/store"
	"github.com/kohakuhub/kohakuhub/pkg/lakefs"
	"github.com/kohakuhub/kohakuhub/pkg/lfs"
	promm "github.com/kohakuhub/kohakuhub/pkg/metrics/prometheus"
	"github.com/kohakuhub/kohakuhub/pkg/quota"
	"github.com/kohakuhub/kohakuhub/pkg/registry"
)

// Services holds the fully wired hub service graph.
//
// InitializeServices builds it from a loaded Config:
//  1. Hub database store (SQLite or PostgreSQL)
//  2. Blob store client and branch/commit backend client
//  3. Quota engine, registry, commit engine, LFS, git bridge, fallback
//  4. Session JWT service and auth resolver
//
// The graph is ready to serve once api.NewServer is given Deps().
type Services struct {
	Store    store.Store
	Blobs    *blobstore.Client
	Backend  *lakefs.Client
	Quotas   *quota.Engine
	Registry *registry.Service
	Commits  *commitengine.Engine
	LFS      *lfs.Service
	Git      *gitbridge.Service
	Fallback *fallback.Service
	JWT      *auth.JWTService
	Resolver *auth.Resolver

	version string
	config  *Config
}

// InitializeServices creates the complete service graph from configuration.
//
// Dynamic state (fallback sources from cfg.Fallback.Sources) is seeded
// into the database so the admin API and the config file stay in sync.
func InitializeServices(ctx context.Context, cfg *Config, version string) (*Services, error) {
	s, err := store.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize hub store: %w", err)
	}
	logger.Info("Hub store initialized", "type", cfg.Database.Type)

	blobs, err := blobstore.New(ctx, blobstore.Config{
		Endpoint:       cfg.S3.Endpoint,
		PublicEndpoint: cfg.S3.PublicEndpoint,
		Region:         cfg.S3.Region,
		Bucket:         cfg.S3.Bucket,
		AccessKey:      cfg.S3.AccessKey,
		SecretKey:      cfg.S3.SecretKey,
		ForcePathStyle: cfg.S3.ForcePathStyle,
		PresignTTL:     cfg.S3.PresignTTL,
		Metrics:        promm.NewBlobstoreMetrics(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize blob store: %w", err)
	}
	logger.Info("Blob store initialized", "endpoint", cfg.S3.Endpoint, "bucket", cfg.S3.Bucket)

	backend, err := lakefs.New(lakefs.Config{
		Endpoint:  cfg.LakeFS.Endpoint,
		AccessKey: cfg.LakeFS.AccessKey,
		SecretKey: cfg.LakeFS.SecretKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize branch backend: %w", err)
	}
	logger.Info("Branch backend initialized", "endpoint", cfg.LakeFS.Endpoint)

	quotas := quota.New(s, backend, cfg.LFS.ReservationTTL)

	reg := registry.New(s, backend, blobs, quotas, cfg.S3.Bucket)

	commits := commitengine.New(s, backend, blobs, quotas, commitengine.Config{
		Bucket:            cfg.S3.Bucket,
		LFSThresholdBytes: int64(cfg.LFS.ThresholdBytes),
		SuffixRules:       cfg.LFS.SuffixRules,
	})

	lfsSvc := lfs.New(s, blobs, quotas, lfs.Config{
		BaseURL:            cfg.Server.ExternalURL,
		MultipartThreshold: int64(cfg.LFS.MultipartThreshold),
		PartSize:           int64(cfg.LFS.MultipartPartSize),
		PresignTTL:         cfg.S3.PresignTTL,
		KeepVersions:       cfg.LFS.KeepVersions,
		Metrics:            promm.NewLFSMetrics(),
	})

	var git *gitbridge.Service
	if cfg.Git.Enabled {
		git = gitbridge.New(backend, blobs, gitbridge.Config{
			BaseURL:             cfg.Server.ExternalURL,
			PackInlineThreshold: int64(cfg.Git.PackInlineThreshold),
			SuffixRules:         cfg.LFS.SuffixRules,
			AgentVersion:        version,
			Metrics:             promm.NewGitBridgeMetrics(),
		})
	}

	var fb *fallback.Service
	if cfg.Fallback.Enabled {
		if err := seedFallbackSources(ctx, s, cfg.Fallback.Sources); err != nil {
			return nil, fmt.Errorf("failed to seed fallback sources: %w", err)
		}
		fb = fallback.New(s, fallback.Config{
			CacheTTL:      cfg.Fallback.CacheTTL,
			CacheSize:     cfg.Fallback.CacheSize,
			Timeout:       cfg.Fallback.Timeout,
			MaxConcurrent: int64(cfg.Fallback.MaxConcurrent),
			Metrics:       promm.NewFallbackMetrics(),
		})
	}

	jwt, err := auth.NewJWTService(auth.JWTConfig{
		Secret:               cfg.Auth.SessionSecret,
		AccessTokenDuration:  cfg.Auth.AccessTokenTTL,
		RefreshTokenDuration: cfg.Auth.RefreshTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session signing: %w", err)
	}

	return &Services{
		Store:    s,
		Blobs:    blobs,
		Backend:  backend,
		Quotas:   quotas,
		Registry: reg,
		Commits:  commits,
		LFS:      lfsSvc,
		Git:      git,
		Fallback: fb,
		JWT:      jwt,
		Resolver: auth.NewResolver(s, jwt),
		version:  version,
		config:   cfg,
	}, nil
}

// Deps returns the handler dependency set for api.NewServer.
func (s *Services) Deps() handlers.Deps {
	return handlers.Deps{
		Store:             s.Store,
		Registry:          s.Registry,
		Commits:           s.Commits,
		LFS:               s.LFS,
		Git:               s.Git,
		Fallback:          s.Fallback,
		Quotas:            s.Quotas,
		Backend:           s.Backend,
		Blobs:             s.Blobs,
		JWT:               s.JWT,
		BackendHealth:     s.Backend,
		BaseURL:           s.config.Server.ExternalURL,
		Version:           s.version,
		RequireInvitation: !s.config.Auth.OpenRegistration,
		LFSThresholdBytes: int64(s.config.LFS.ThresholdBytes),
		LFSSuffixRules:    s.config.LFS.SuffixRules,
	}
}

// APIConfig maps server settings onto the HTTP server configuration.
func (s *Services) APIConfig() api.APIConfig {
	return api.APIConfig{
		Port:              s.config.Server.Port,
		ReadHeaderTimeout: s.config.Server.ReadHeaderTimeout,
		IdleTimeout:       s.config.Server.IdleTimeout,
	}
}

// Close releases database connections. The blob store and backend
// clients hold no persistent resources.
func (s *Services) Close() error {
	return s.Store.Close()
}

// seedFallbackSources upserts configured sources so endpoint, token and
// priority edits in the config file take effect on restart. Sources
// created through the admin API are left untouched.
func seedFallbackSources(ctx context.Context, s store.Store, sources []FallbackSourceConfig) error {
	for _, src := range sources {
		err := s.UpsertFallbackSource(ctx, &models.FallbackSource{
			Name:     src.Name,
			Endpoint: src.Endpoint,
			Token:    src.Token,
			Priority: src.Priority,
			Enabled:  src.Enabled,
		})
		if err != nil {
			return fmt.Errorf("source %q: %w", src.Name, err)
		}
		logger.Debug("Fallback source seeded", "name", src.Name, "endpoint", src.Endpoint)
	}
	return nil
}
