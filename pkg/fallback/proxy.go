package fallback

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/kohakuhub/kohakuhub/internal/logger"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
)

// maxBodyBytes caps proxied JSON bodies.
const maxBodyBytes = 32 << 20

// ResolveURL returns the external download URL a local 404 should
// redirect to.
func (s *Service) ResolveURL(ctx context.Context, repoType, namespace, name, revision, path string) (string, error) {
	src, err := s.FindSource(ctx, repoType, namespace, name)
	if err != nil {
		return "", err
	}
	return resolveURL(src, repoType, namespace, name, revision, path), nil
}

// RepoInfo fetches external repo metadata and tags it with the source.
// "_partial" marks bodies the external schema left incomplete.
func (s *Service) RepoInfo(ctx context.Context, repoType, namespace, name, revision string) (map[string]any, error) {
	src, err := s.FindSource(ctx, repoType, namespace, name)
	if err != nil {
		return nil, err
	}
	fetchURL := apiRevisionURL(src, repoType, namespace, name, revision)

	var info map[string]any
	if err := s.fetchJSON(ctx, src, fetchURL, &info); err != nil {
		return nil, err
	}
	info["_source"] = src.Name
	info["_source_url"] = fetchURL
	if _, ok := info["siblings"]; !ok {
		info["_partial"] = true
	}
	return info, nil
}

// Tree fetches an external tree page, tagging each entry with the
// source.
func (s *Service) Tree(ctx context.Context, repoType, namespace, name, revision, path string) ([]map[string]any, error) {
	src, err := s.FindSource(ctx, repoType, namespace, name)
	if err != nil {
		return nil, err
	}
	fetchURL := apiTreeURL(src, repoType, namespace, name, revision, path)

	var entries []map[string]any
	if err := s.fetchJSON(ctx, src, fetchURL, &entries); err != nil {
		return nil, err
	}
	for _, entry := range entries {
		entry["_source"] = src.Name
	}
	return entries, nil
}

// List queries every applicable source for repo listings in parallel
// and returns the tagged union. Sources that fail are skipped.
func (s *Service) List(ctx context.Context, repoType string, params url.Values) ([]map[string]any, error) {
	namespace := params.Get("author")
	sources, err := s.sourcesFor(ctx, namespace)
	if err != nil {
		return nil, err
	}

	results := make([][]map[string]any, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			listURL := apiListURL(src, repoType)
			if len(params) > 0 {
				listURL += "?" + params.Encode()
			}
			var items []map[string]any
			if err := s.fetchJSON(gctx, src, listURL, &items); err != nil {
				logger.DebugCtx(gctx, "Fallback list skipped a source",
					"source", src.Name, "error", err)
				return nil
			}
			for _, item := range items {
				item["_source"] = src.Name
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []map[string]any
	for _, items := range results {
		merged = append(merged, items...)
	}
	return merged, nil
}

// MergeListings combines a local listing with external items, keeping
// the local entry when both sides know the same repo id.
func MergeListings(local, external []map[string]any) []map[string]any {
	seen := make(map[string]bool, len(local))
	for _, item := range local {
		if id, ok := item["id"].(string); ok {
			seen[id] = true
		}
	}
	merged := append([]map[string]any(nil), local...)
	for _, item := range external {
		if id, ok := item["id"].(string); ok && seen[id] {
			continue
		}
		merged = append(merged, item)
	}
	return merged
}

func (s *Service) fetchJSON(ctx context.Context, src *models.FallbackSource, fetchURL string, out any) error {
	resp, err := s.roundTrip(ctx, src, http.MethodGet, fetchURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotAvailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return fmt.Errorf("%w: %s returned %d", ErrNotAvailable, src.Name, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("%w: malformed body from %s", ErrNotAvailable, src.Name)
	}
	return nil
}
