// Package fallback proxies read requests for repositories that do not
// exist locally to external hubs. Sources are probed in priority order
// and the winning repo→source mapping is cached with a TTL; content is
// never cached and user credentials are never forwarded.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/kohakuhub/kohakuhub/internal/logger"
	"github.com/kohakuhub/kohakuhub/internal/telemetry"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
)

// Defaults for Config fields left zero.
const (
	DefaultCacheTTL      = 5 * time.Minute
	DefaultCacheSize     = 4096
	DefaultTimeout       = 10 * time.Second
	DefaultMaxConcurrent = 5
)

// ErrNotAvailable means no enabled source has the repository.
var ErrNotAvailable = errors.New("repository not available from any fallback source")

// Store is the slice of the hub store the proxy reads sources from.
type Store interface {
	ListEnabledFallbackSources(ctx context.Context) ([]*models.FallbackSource, error)
}

// Metrics receives probe observations. Nil disables reporting.
type Metrics interface {
	ObserveProbe(source string, hit bool, seconds float64)
	ObserveCache(hit bool)
}

// Config tunes the proxy.
type Config struct {
	// CacheTTL bounds how long a repo→source mapping is trusted.
	CacheTTL time.Duration

	// CacheSize bounds the number of cached mappings.
	CacheSize int

	// Timeout applies per external request.
	Timeout time.Duration

	// MaxConcurrent bounds inflight external requests.
	MaxConcurrent int64

	// Metrics is optional.
	Metrics Metrics
}

// Service probes and proxies external hubs.
type Service struct {
	store  Store
	cfg    Config
	client *http.Client
	cache  *expirable.LRU[string, string]
	group  singleflight.Group
	sem    *semaphore.Weighted
}

// New creates a fallback proxy.
func New(store Store, cfg Config) *Service {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	return &Service{
		store:  store,
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		cache:  expirable.NewLRU[string, string](cfg.CacheSize, nil, cfg.CacheTTL),
		sem:    semaphore.NewWeighted(cfg.MaxConcurrent),
	}
}

func cacheKey(repoType, namespace, name string) string {
	return fmt.Sprintf("%s:%s/%s", repoType, namespace, name)
}

// sourcesFor lists enabled sources applicable to one namespace, in
// ascending priority order.
func (s *Service) sourcesFor(ctx context.Context, namespace string) ([]*models.FallbackSource, error) {
	all, err := s.store.ListEnabledFallbackSources(ctx)
	if err != nil {
		return nil, err
	}
	sources := make([]*models.FallbackSource, 0, len(all))
	for _, src := range all {
		if src.Namespace != "" && src.Namespace != namespace {
			continue
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// FindSource returns the first source that has the repository.
// Concurrent misses for the same repo coalesce on one probe run.
func (s *Service) FindSource(ctx context.Context, repoType, namespace, name string) (*models.FallbackSource, error) {
	ctx, span := telemetry.StartSpan(ctx, "fallback.find_source",
		trace.WithAttributes(telemetry.Namespace(namespace), telemetry.Operation(repoType)))
	defer span.End()

	sources, err := s.sourcesFor(ctx, namespace)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, ErrNotAvailable
	}

	key := cacheKey(repoType, namespace, name)
	if id, ok := s.cache.Get(key); ok {
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.ObserveCache(true)
		}
		for _, src := range sources {
			if src.ID == id {
				return src, nil
			}
		}
		// The cached source vanished or was disabled; fall through to
		// a fresh probe.
		s.cache.Remove(key)
	}
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.ObserveCache(false)
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		for _, src := range sources {
			if s.probe(ctx, src, repoType, namespace, name) {
				s.cache.Add(key, src.ID)
				return src, nil
			}
		}
		return nil, ErrNotAvailable
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.FallbackSource), nil
}

// probe checks whether one source has the repository. Any non-2xx
// answer, timeout, or transport error counts as "not here".
func (s *Service) probe(ctx context.Context, src *models.FallbackSource, repoType, namespace, name string) bool {
	start := time.Now()
	hit := s.probeOnce(ctx, src, http.MethodHead, repoType, namespace, name)
	if !hit {
		// Some hubs reject HEAD on API routes.
		hit = s.probeOnce(ctx, src, http.MethodGet, repoType, namespace, name)
	}
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.ObserveProbe(src.Name, hit, time.Since(start).Seconds())
	}
	return hit
}

func (s *Service) probeOnce(ctx context.Context, src *models.FallbackSource, method, repoType, namespace, name string) bool {
	url := apiRepoURL(src, repoType, namespace, name)
	resp, err := s.roundTrip(ctx, src, method, url)
	if err != nil {
		logger.DebugCtx(ctx, "Fallback probe failed",
			"source", src.Name, "url", url, "error", err)
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// roundTrip performs one bounded external request. Only the source's
// own token is attached, never the caller's.
func (s *Service) roundTrip(ctx context.Context, src *models.FallbackSource, method, url string) (*http.Response, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	// The client carries the per-request timeout, covering the body
	// read after this returns.
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	if src.Token != "" {
		req.Header.Set("Authorization", "Bearer "+src.Token)
	}
	return s.client.Do(req)
}

// Invalidate drops the cached mapping for one repository.
func (s *Service) Invalidate(repoType, namespace, name string) {
	s.cache.Remove(cacheKey(repoType, namespace, name))
}
