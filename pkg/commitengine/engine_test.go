//go:build integration

package commitengine

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/kohakuhub/kohakuhub/pkg/blobstore"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
	"github.com/kohakuhub/kohakuhub/pkg/hub/store"
	"github.com/kohakuhub/kohakuhub/pkg/lakefs"
)

// fakeBackend holds one branch's staged tree in memory.
type fakeBackend struct {
	head    string
	objects map[string]lakefs.ObjectStat // path -> stat
	commits []lakefs.CommitOptions
	fail    bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{head: "head-1", objects: map[string]lakefs.ObjectStat{}}
}

func (f *fakeBackend) GetBranch(context.Context, string, string) (*lakefs.Branch, error) {
	return &lakefs.Branch{ID: "main", CommitID: f.head}, nil
}

func (f *fakeBackend) StatObject(_ context.Context, _, _, path string) (*lakefs.ObjectStat, error) {
	if stat, ok := f.objects[path]; ok {
		return &stat, nil
	}
	return nil, lakefs.ErrNotFound
}

func (f *fakeBackend) ListAllObjects(_ context.Context, _, _, prefix string) ([]lakefs.ObjectStat, error) {
	var out []lakefs.ObjectStat
	for _, stat := range f.objects {
		if strings.HasPrefix(stat.Path, prefix) {
			out = append(out, stat)
		}
	}
	return out, nil
}

func (f *fakeBackend) StageObject(_ context.Context, _, _, path, addr string, size int64, checksum string) error {
	f.objects[path] = lakefs.ObjectStat{
		Path: path, PathType: "object", PhysicalAddress: addr, SizeBytes: size, Checksum: checksum,
	}
	return nil
}

func (f *fakeBackend) DeleteObject(_ context.Context, _, _, path string) error {
	if _, ok := f.objects[path]; !ok {
		return lakefs.ErrNotFound
	}
	delete(f.objects, path)
	return nil
}

func (f *fakeBackend) DeletePrefix(_ context.Context, _, _, prefix string) (int, error) {
	n := 0
	for path := range f.objects {
		if strings.HasPrefix(path, prefix) {
			delete(f.objects, path)
			n++
		}
	}
	return n, nil
}

func (f *fakeBackend) Commit(_ context.Context, _, _ string, opts lakefs.CommitOptions) (*lakefs.Commit, error) {
	if f.fail {
		return nil, lakefs.ErrConflict
	}
	f.commits = append(f.commits, opts)
	f.head = fmt.Sprintf("head-%d", len(f.commits)+1)
	return &lakefs.Commit{ID: f.head, Parents: []string{"head-1"}}, nil
}

// fakeBlobs stores object bytes in memory.
type fakeBlobs struct {
	data map[string][]byte
}

func newFakeBlobs() *fakeBlobs { return &fakeBlobs{data: map[string][]byte{}} }

func (f *fakeBlobs) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.data[key] = data
	return nil
}

func (f *fakeBlobs) Head(_ context.Context, key string) (*blobstore.ObjectInfo, error) {
	data, ok := f.data[key]
	if !ok {
		return nil, blobstore.ErrObjectNotFound
	}
	return &blobstore.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

// fakeQuotas records admissions and applications.
type fakeQuotas struct {
	available int64
	admitted  []int64
	applied   []int64
}

func (f *fakeQuotas) Admit(_ context.Context, ns, _ string, delta int64) error {
	if delta > 0 && delta > f.available {
		return &models.QuotaExceededError{Namespace: ns, Requested: delta, Available: f.available}
	}
	f.admitted = append(f.admitted, delta)
	return nil
}

func (f *fakeQuotas) Apply(_ context.Context, _, _ string, delta int64) error {
	f.applied = append(f.applied, delta)
	return nil
}

func newTestStore(t *testing.T) *store.GORMStore {
	t.Helper()
	s, err := store.New(&store.Config{
		Type:   store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{Path: ":memory:"},
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type fixture struct {
	engine  *Engine
	store   *store.GORMStore
	backend *fakeBackend
	blobs   *fakeBlobs
	quotas  *fakeQuotas
	user    *models.User
	repo    *models.Repository
}

func newFixture(t *testing.T, available int64) *fixture {
	t.Helper()
	ctx := context.Background()
	s := newTestStore(t)

	user := &models.User{Username: "alice", PasswordHash: "x", Enabled: true, Role: "user"}
	if _, err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	repo := &models.Repository{RepoType: "model", Namespace: "alice", Name: "bert", FullID: "alice/bert"}
	if _, err := s.CreateRepo(ctx, repo); err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}

	backend := newFakeBackend()
	blobs := newFakeBlobs()
	quotas := &fakeQuotas{available: available}
	engine := New(s, backend, blobs, quotas, Config{
		Bucket:            "hub",
		LFSThresholdBytes: 1000,
		SuffixRules:       []string{".safetensors"},
	})
	return &fixture{engine: engine, store: s, backend: backend, blobs: blobs, quotas: quotas, user: user, repo: repo}
}

func stream(lines ...string) io.Reader {
	return strings.NewReader(strings.Join(lines, "\n"))
}

func header(summary string) string {
	return fmt.Sprintf(`{"key":"header","value":{"summary":%q}}`, summary)
}

func fileRecord(path, content string) string {
	return fmt.Sprintf(`{"key":"file","value":{"path":%q,"content":%q,"encoding":"base64"}}`,
		path, base64.StdEncoding.EncodeToString([]byte(content)))
}

func TestProcessInlineFiles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1<<30)

	result, err := f.engine.Process(ctx, f.user, f.repo, "main", stream(
		header("Add readme"),
		fileRecord("README.md", "hello world"),
	))
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if result.OID == "" {
		t.Error("missing commit oid")
	}

	canonical := lakefs.RepoName("model", "alice", "bert")
	if string(f.blobs.data[canonical+"/README.md"]) != "hello world" {
		t.Error("inline blob not stored")
	}
	staged, ok := f.backend.objects["README.md"]
	if !ok {
		t.Fatal("object not staged")
	}
	if staged.SizeBytes != 11 || staged.PhysicalAddress != "s3://hub/"+canonical+"/README.md" {
		t.Errorf("got %+v", staged)
	}
	if len(f.backend.commits) != 1 || f.backend.commits[0].Message != "Add readme" {
		t.Errorf("got commits %+v", f.backend.commits)
	}

	// One log row with the author recorded.
	log, err := f.store.ListCommits(ctx, f.repo.ID, "main", 10, 0)
	if err != nil || len(log) != 1 {
		t.Fatalf("got log %v (%v)", log, err)
	}
	if log[0].Summary != "Add readme" || log[0].AuthorName != "alice" || log[0].CommitID != result.OID {
		t.Errorf("got %+v", log[0])
	}

	if len(f.quotas.admitted) != 1 || f.quotas.admitted[0] != 11 {
		t.Errorf("got admissions %v", f.quotas.admitted)
	}
	if len(f.quotas.applied) != 1 || f.quotas.applied[0] != 11 {
		t.Errorf("got applications %v", f.quotas.applied)
	}
}

func TestProcessLFSFiles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1<<30)

	oid := strings.Repeat("ab", 32)
	f.blobs.data["lfs/ab/ab/"+oid] = make([]byte, 5000)

	lfsLine := fmt.Sprintf(`{"key":"lfsFile","value":{"path":"model.bin","algo":"sha256","oid":%q,"size":5000}}`, oid)
	if _, err := f.engine.Process(ctx, f.user, f.repo, "main", stream(header("Add model"), lfsLine)); err != nil {
		t.Fatalf("process failed: %v", err)
	}

	staged := f.backend.objects["model.bin"]
	if staged.PhysicalAddress != "s3://hub/lfs/ab/ab/"+oid || staged.Checksum != oid {
		t.Errorf("got %+v", staged)
	}

	history, err := f.store.ListLFSHistoryByPath(ctx, f.repo.ID, "model.bin")
	if err != nil || len(history) != 1 || history[0].OID != oid {
		t.Errorf("got history %v (%v)", history, err)
	}

	t.Run("missing object fails whole commit", func(t *testing.T) {
		missing := strings.Repeat("cd", 32)
		line := fmt.Sprintf(`{"key":"lfsFile","value":{"path":"x.bin","oid":%q,"size":1}}`, missing)
		_, err := f.engine.Process(ctx, f.user, f.repo, "main", stream(header("Bad"), line))
		if !errors.Is(err, ErrLFSObjectMissing) {
			t.Errorf("got %v", err)
		}
		if len(f.backend.commits) != 1 {
			t.Error("failed commit still landed")
		}
	})

	t.Run("size mismatch fails", func(t *testing.T) {
		line := fmt.Sprintf(`{"key":"lfsFile","value":{"path":"y.bin","oid":%q,"size":4999}}`, oid)
		_, err := f.engine.Process(ctx, f.user, f.repo, "main", stream(header("Bad"), line))
		if !errors.Is(err, ErrLFSObjectMissing) {
			t.Errorf("got %v", err)
		}
	})
}

func TestProcessDeletes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1<<30)

	for path, size := range map[string]int64{"old.txt": 100, "legacy/a": 200, "legacy/b": 300} {
		f.backend.objects[path] = lakefs.ObjectStat{Path: path, PathType: "object", SizeBytes: size}
	}

	_, err := f.engine.Process(ctx, f.user, f.repo, "main", stream(
		header("Cleanup"),
		`{"key":"deletedFile","value":{"path":"old.txt"}}`,
		`{"key":"deletedFolder","value":{"path":"legacy"}}`,
	))
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if len(f.backend.objects) != 0 {
		t.Errorf("objects remain: %v", f.backend.objects)
	}
	if f.quotas.applied[0] != -600 {
		t.Errorf("got delta %d, want -600", f.quotas.applied[0])
	}
}

func TestProcessNetDeltaOnReplace(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1<<30)

	f.backend.objects["README.md"] = lakefs.ObjectStat{Path: "README.md", PathType: "object", SizeBytes: 100}

	_, err := f.engine.Process(ctx, f.user, f.repo, "main", stream(
		header("Shrink readme"),
		fileRecord("README.md", "tiny"),
	))
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if f.quotas.admitted[0] != -96 {
		t.Errorf("got admitted delta %d, want -96", f.quotas.admitted[0])
	}
}

func TestProcessQuotaRejection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)

	_, err := f.engine.Process(ctx, f.user, f.repo, "main", stream(
		header("Too big"),
		fileRecord("README.md", "hello world"),
	))
	if _, ok := models.IsQuotaExceeded(err); !ok {
		t.Fatalf("got %v", err)
	}
	if len(f.backend.commits) != 0 || len(f.blobs.data) != 0 {
		t.Error("state mutated despite rejection")
	}
}

func TestProcessOversizedInline(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1<<30)

	t.Run("above threshold", func(t *testing.T) {
		_, err := f.engine.Process(ctx, f.user, f.repo, "main", stream(
			header("Big"),
			fileRecord("big.bin", strings.Repeat("x", 1001)),
		))
		if !errors.Is(err, models.ErrValidation) {
			t.Errorf("got %v", err)
		}
	})

	t.Run("suffix rule", func(t *testing.T) {
		_, err := f.engine.Process(ctx, f.user, f.repo, "main", stream(
			header("Weights"),
			fileRecord("model.safetensors", "small"),
		))
		if !errors.Is(err, models.ErrValidation) {
			t.Errorf("got %v", err)
		}
	})

	t.Run("suffix rule ignores case", func(t *testing.T) {
		_, err := f.engine.Process(ctx, f.user, f.repo, "main", stream(
			header("Weights"),
			fileRecord("model.SAFETENSORS", "small"),
		))
		if !errors.Is(err, models.ErrValidation) {
			t.Errorf("got %v", err)
		}
	})

	t.Run("repo override wins", func(t *testing.T) {
		threshold := int64(10)
		f.repo.LFSThresholdBytes = &threshold
		defer func() { f.repo.LFSThresholdBytes = nil }()
		_, err := f.engine.Process(ctx, f.user, f.repo, "main", stream(
			header("Medium"),
			fileRecord("m.bin", strings.Repeat("x", 11)),
		))
		if !errors.Is(err, models.ErrValidation) {
			t.Errorf("got %v", err)
		}
	})
}

func TestProcessStaleParent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1<<30)

	_, err := f.engine.Process(ctx, f.user, f.repo, "main", stream(
		`{"key":"header","value":{"summary":"Stale","parentCommit":"not-head"}}`,
		fileRecord("a.txt", "x"),
	))
	if !errors.Is(err, ErrStaleParent) {
		t.Errorf("got %v", err)
	}
}
