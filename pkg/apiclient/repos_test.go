package apiclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeSegment(t *testing.T) {
	assert.Equal(t, "models", typeSegment("model"))
	assert.Equal(t, "models", typeSegment("models"))
	assert.Equal(t, "datasets", typeSegment("dataset"))
	assert.Equal(t, "spaces", typeSegment("space"))
}

func TestCreateRepo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/repos/create", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req CreateRepoRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "model", req.Type)
		assert.Equal(t, "alice", req.Namespace)
		assert.True(t, req.Private)

		_ = json.NewEncoder(w).Encode(RepoURL{
			URL:    "http://hub.local/models/alice/bert",
			RepoID: "alice/bert",
		})
	}))
	defer server.Close()

	client := New(server.URL).WithToken("hf_test")
	resp, err := client.CreateRepo(&CreateRepoRequest{
		Type: "model", Namespace: "alice", Name: "bert", Private: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice/bert", resp.RepoID)
}

func TestListRepos(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/models", r.URL.Path)
		assert.Equal(t, "alice", r.URL.Query().Get("author"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))

		_ = json.NewEncoder(w).Encode([]RepoSummary{
			{ID: "alice/bert", Author: "alice"},
			{ID: "alice/gpt", Author: "alice", Private: true},
		})
	}))
	defer server.Close()

	repos, err := New(server.URL).ListRepos("model", ListReposOptions{Author: "alice", Limit: 10})
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "alice/bert", repos[0].ID)
	assert.True(t, repos[1].Private)
}

func TestListTree(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/datasets/alice/corpus/tree/main/data", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("recursive"))

		_ = json.NewEncoder(w).Encode([]TreeEntry{
			{Type: "file", Path: "data/train.parquet", Size: 1024,
				LFS: &LFSInfo{OID: "abc", Size: 1024}},
		})
	}))
	defer server.Close()

	entries, err := New(server.URL).ListTree("dataset", "alice", "corpus", "main", "data", true)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].LFS)
	assert.Equal(t, "abc", entries[0].LFS.OID)
}

func TestGetRepoInfoNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Error-Code", "not-found")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "repository not found"})
	}))
	defer server.Close()

	_, err := New(server.URL).GetRepoInfo("model", "alice", "missing")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.True(t, apiErr.IsNotFound())
}

func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "alice", req["username"])
		assert.Equal(t, "secret123", req["password"])

		_ = json.NewEncoder(w).Encode(TokenResponse{
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenType:    "Bearer",
			ExpiresIn:    900,
		})
	}))
	defer server.Close()

	pair, err := New(server.URL).Login("alice", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "access", pair.AccessToken)
	assert.Equal(t, int64(900), pair.ExpiresIn)
}

func TestCreateAPIToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/tokens", r.URL.Path)
		_ = json.NewEncoder(w).Encode(APIToken{ID: "t-1", Name: "ci", Token: "hf_secret"})
	}))
	defer server.Close()

	tok, err := New(server.URL).WithToken("access").CreateAPIToken("ci")
	require.NoError(t, err)
	assert.Equal(t, "hf_secret", tok.Token)
}
