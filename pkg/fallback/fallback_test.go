package fallback

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
)

type fakeStore struct {
	sources []*models.FallbackSource
}

func (f *fakeStore) ListEnabledFallbackSources(ctx context.Context) ([]*models.FallbackSource, error) {
	out := make([]*models.FallbackSource, 0, len(f.sources))
	for _, src := range f.sources {
		if src.Enabled {
			out = append(out, src)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out, nil
}

func hubSource(id, name, endpoint string, priority int) *models.FallbackSource {
	return &models.FallbackSource{
		ID:         id,
		Name:       name,
		Endpoint:   endpoint,
		SourceType: models.SourceTypeHuggingFace,
		Priority:   priority,
		Enabled:    true,
	}
}

func TestFindSourcePriorityAndCache(t *testing.T) {
	var missRequests, hitRequests atomic.Int64

	miss := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		missRequests.Add(1)
		http.NotFound(w, r)
	}))
	defer miss.Close()

	hit := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hitRequests.Add(1)
		if r.URL.Path != "/api/models/openai/gpt2" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer hit.Close()

	service := New(&fakeStore{sources: []*models.FallbackSource{
		hubSource("b", "mirror", hit.URL, 2),
		hubSource("a", "primary", miss.URL, 1),
	}}, Config{})

	src, err := service.FindSource(context.Background(), "model", "openai", "gpt2")
	if err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	if src.Name != "mirror" {
		t.Errorf("got source %s, want mirror", src.Name)
	}
	if missRequests.Load() == 0 {
		t.Error("higher priority source was never probed")
	}

	probed := hitRequests.Load()
	src, err = service.FindSource(context.Background(), "model", "openai", "gpt2")
	if err != nil || src.Name != "mirror" {
		t.Fatalf("cached lookup: src=%v err=%v", src, err)
	}
	if hitRequests.Load() != probed {
		t.Error("cache hit still probed the source")
	}

	service.Invalidate("model", "openai", "gpt2")
	if _, err := service.FindSource(context.Background(), "model", "openai", "gpt2"); err != nil {
		t.Fatalf("re-probe after invalidate failed: %v", err)
	}
	if hitRequests.Load() == probed {
		t.Error("invalidate did not force a re-probe")
	}
}

func TestFindSourceNamespaceScoped(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	scoped := hubSource("a", "acme-mirror", upstream.URL, 1)
	scoped.Namespace = "acme"
	service := New(&fakeStore{sources: []*models.FallbackSource{scoped}}, Config{})

	if _, err := service.FindSource(context.Background(), "model", "alice", "bert"); !errors.Is(err, ErrNotAvailable) {
		t.Errorf("namespace-scoped source leaked: %v", err)
	}
	if _, err := service.FindSource(context.Background(), "model", "acme", "bert"); err != nil {
		t.Errorf("scoped namespace should match: %v", err)
	}
}

func TestFindSourceSendsOnlySourceToken(t *testing.T) {
	var seenAuth atomic.Value
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	src := hubSource("a", "primary", upstream.URL, 1)
	src.Token = "source-secret"
	service := New(&fakeStore{sources: []*models.FallbackSource{src}}, Config{})

	if _, err := service.FindSource(context.Background(), "model", "openai", "gpt2"); err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	if got := seenAuth.Load(); got != "Bearer source-secret" {
		t.Errorf("upstream saw Authorization %q", got)
	}
}

func TestRepoInfo(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/models/openai/gpt2":
			json.NewEncoder(w).Encode(map[string]any{"id": "openai/gpt2"})
		case "/api/models/openai/gpt2/revision/main":
			json.NewEncoder(w).Encode(map[string]any{
				"id":       "openai/gpt2",
				"siblings": []map[string]any{{"rfilename": "config.json"}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer upstream.Close()

	service := New(&fakeStore{sources: []*models.FallbackSource{
		hubSource("a", "primary", upstream.URL, 1),
	}}, Config{})

	info, err := service.RepoInfo(context.Background(), "model", "openai", "gpt2", "")
	if err != nil {
		t.Fatalf("info failed: %v", err)
	}
	if info["_source"] != "primary" || info["_partial"] != true {
		t.Errorf("info tags = %v", info)
	}

	info, err = service.RepoInfo(context.Background(), "model", "openai", "gpt2", "main")
	if err != nil {
		t.Fatalf("revision info failed: %v", err)
	}
	if _, partial := info["_partial"]; partial {
		t.Errorf("complete body flagged partial: %v", info)
	}
	if info["_source_url"] != upstream.URL+"/api/models/openai/gpt2/revision/main" {
		t.Errorf("_source_url = %v", info["_source_url"])
	}
}

func TestTreeTagsEntries(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/datasets/openai/webtext/tree/main" && r.Method == http.MethodGet {
			json.NewEncoder(w).Encode([]map[string]any{
				{"type": "file", "path": "data.parquet"},
			})
			return
		}
		// Probe target.
		if r.URL.Path == "/api/datasets/openai/webtext" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	defer upstream.Close()

	service := New(&fakeStore{sources: []*models.FallbackSource{
		hubSource("a", "primary", upstream.URL, 1),
	}}, Config{})

	entries, err := service.Tree(context.Background(), "dataset", "openai", "webtext", "main", "")
	if err != nil {
		t.Fatalf("tree failed: %v", err)
	}
	if len(entries) != 1 || entries[0]["_source"] != "primary" {
		t.Errorf("entries = %v", entries)
	}
}

func TestResolveURLRemap(t *testing.T) {
	hf := hubSource("a", "hf", "https://huggingface.co/", 1)
	kh := hubSource("b", "kh", "https://hub.example", 1)
	kh.SourceType = models.SourceTypeKohakuHub

	tests := []struct {
		name     string
		src      *models.FallbackSource
		repoType string
		want     string
	}{
		{"hf model drops type segment", hf, "model",
			"https://huggingface.co/openai/gpt2/resolve/main/config.json"},
		{"hf dataset keeps type segment", hf, "dataset",
			"https://huggingface.co/datasets/openai/gpt2/resolve/main/config.json"},
		{"kohakuhub model keeps type segment", kh, "model",
			"https://hub.example/models/openai/gpt2/resolve/main/config.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveURL(tt.src, tt.repoType, "openai", "gpt2", "main", "config.json")
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestListMerge(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/models" || r.URL.Query().Get("author") != "openai" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "openai/gpt2"},
			{"id": "openai/whisper"},
		})
	}))
	defer upstream.Close()

	service := New(&fakeStore{sources: []*models.FallbackSource{
		hubSource("a", "primary", upstream.URL, 1),
	}}, Config{})

	external, err := service.List(context.Background(), "model", url.Values{"author": {"openai"}})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(external) != 2 || external[0]["_source"] != "primary" {
		t.Fatalf("external = %v", external)
	}

	local := []map[string]any{{"id": "openai/gpt2", "private": false}}
	merged := MergeListings(local, external)
	if len(merged) != 2 {
		t.Fatalf("merged = %v", merged)
	}
	if _, tagged := merged[0]["_source"]; tagged {
		t.Error("local entry should win for a shared id")
	}
}
