package gitbridge

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/packfile"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/kohakuhub/kohakuhub/pkg/blobstore"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
	"github.com/kohakuhub/kohakuhub/pkg/lakefs"
	"github.com/kohakuhub/kohakuhub/pkg/lfs"
)

const (
	testBucket = "kohakuhub"
	lfsOID     = "b5bb9d8014a0f9b1d61e21e796d78dccdf1352f23cd32812f4850b878ae4944c"
	bigOID     = "7d865e959b2466918c9863afca942d0fb89d7c9ac0c99bafc3749504ded97730"
)

type fakeBackend struct {
	branches []lakefs.Branch
	commits  map[string]*lakefs.Commit
	objects  []lakefs.ObjectStat
}

func (f *fakeBackend) ListBranches(ctx context.Context, repo string) ([]lakefs.Branch, error) {
	return f.branches, nil
}

func (f *fakeBackend) ResolveRef(ctx context.Context, repo, ref string) (*lakefs.Commit, error) {
	commit, ok := f.commits[ref]
	if !ok {
		return nil, lakefs.ErrNotFound
	}
	return commit, nil
}

func (f *fakeBackend) ListAllObjects(ctx context.Context, repo, ref, prefix string) ([]lakefs.ObjectStat, error) {
	var out []lakefs.ObjectStat
	for _, entry := range f.objects {
		if strings.HasPrefix(entry.Path, prefix) {
			out = append(out, entry)
		}
	}
	return out, nil
}

type fakeBlobs struct {
	data map[string][]byte
}

func (f *fakeBlobs) GetBytes(ctx context.Context, key string) ([]byte, error) {
	content, ok := f.data[key]
	if !ok {
		return nil, blobstore.ErrObjectNotFound
	}
	return content, nil
}

func testRepo() *models.Repository {
	return &models.Repository{
		RepoType:  string(models.RepoTypeModel),
		Namespace: "alice",
		Name:      "bert",
		FullID:    "alice/bert",
	}
}

func testFixture() (*fakeBackend, *fakeBlobs) {
	canonical := lakefs.RepoName(string(models.RepoTypeModel), "alice", "bert")
	commit := &lakefs.Commit{
		ID:           "c1",
		Committer:    "alice",
		Message:      "Add weights",
		CreationDate: 1700000000,
	}
	backend := &fakeBackend{
		branches: []lakefs.Branch{{ID: "main", CommitID: "c1"}},
		commits:  map[string]*lakefs.Commit{"main": commit, "c1": commit},
		objects: []lakefs.ObjectStat{
			{
				Path:            "README.md",
				PathType:        "object",
				PhysicalAddress: blobstore.S3URI(testBucket, canonical+"/README.md"),
				SizeBytes:       12,
			},
			{
				Path:            "weights/model.bin",
				PathType:        "object",
				PhysicalAddress: blobstore.S3URI(testBucket, lfs.KeyForOID(lfsOID)),
				Checksum:        lfsOID,
				SizeBytes:       5000,
			},
			{Path: "weights/", PathType: "common_prefix"},
		},
	}
	blobs := &fakeBlobs{data: map[string][]byte{
		canonical + "/README.md": []byte("hello world\n"),
	}}
	return backend, blobs
}

func testService(backend *fakeBackend, blobs *fakeBlobs) *Service {
	return New(backend, blobs, Config{
		BaseURL:      "https://hub.example",
		SuffixRules:  []string{".safetensors"},
		AgentVersion: "1.0.0",
	})
}

func decodePack(t *testing.T, pack []byte) *memory.Storage {
	t.Helper()
	st := memory.NewStorage()
	if err := packfile.UpdateObjectStorage(st, bytes.NewReader(pack)); err != nil {
		t.Fatalf("pack did not decode: %v", err)
	}
	return st
}

func fileContents(t *testing.T, st *memory.Storage, commitHash plumbing.Hash, path string) string {
	t.Helper()
	commit, err := object.GetCommit(st, commitHash)
	if err != nil {
		t.Fatalf("commit %s not in pack: %v", commitHash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		t.Fatalf("tree lookup failed: %v", err)
	}
	file, err := tree.File(path)
	if err != nil {
		t.Fatalf("file %s not in tree: %v", path, err)
	}
	content, err := file.Contents()
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return content
}

func TestBuildSnapshot(t *testing.T) {
	backend, blobs := testFixture()
	service := testService(backend, blobs)

	snap, err := service.snapshotFor(context.Background(), testRepo(), "main")
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}

	st := decodePack(t, snap.Pack)
	if got := fileContents(t, st, snap.CommitHash, "README.md"); got != "hello world\n" {
		t.Errorf("README content = %q", got)
	}

	pointer := fileContents(t, st, snap.CommitHash, "weights/model.bin")
	if !strings.Contains(pointer, "oid sha256:"+lfsOID) || !strings.Contains(pointer, "size 5000") {
		t.Errorf("pointer blob = %q", pointer)
	}

	attrs := fileContents(t, st, snap.CommitHash, ".gitattributes")
	if !strings.Contains(attrs, "*.safetensors filter=lfs diff=lfs merge=lfs -text") {
		t.Errorf("missing suffix rule in %q", attrs)
	}
	if !strings.Contains(attrs, "weights/model.bin filter=lfs diff=lfs merge=lfs -text") {
		t.Errorf("missing pointer path rule in %q", attrs)
	}

	lfsconfig := fileContents(t, st, snap.CommitHash, ".lfsconfig")
	want := "url = https://hub.example/api/models/alice/bert.git/info/lfs"
	if !strings.Contains(lfsconfig, want) {
		t.Errorf("lfsconfig = %q, want it to contain %q", lfsconfig, want)
	}

	commit, err := object.GetCommit(st, snap.CommitHash)
	if err != nil {
		t.Fatalf("commit missing: %v", err)
	}
	if commit.Author.Name != "alice" || commit.Message != "Add weights\n" {
		t.Errorf("commit = %q by %q", commit.Message, commit.Author.Name)
	}
}

func TestBuildDeterministic(t *testing.T) {
	backend, blobs := testFixture()

	first, err := testService(backend, blobs).snapshotFor(context.Background(), testRepo(), "main")
	if err != nil {
		t.Fatalf("first build failed: %v", err)
	}
	second, err := testService(backend, blobs).snapshotFor(context.Background(), testRepo(), "main")
	if err != nil {
		t.Fatalf("second build failed: %v", err)
	}

	if first.CommitHash != second.CommitHash {
		t.Errorf("commit hashes diverged: %s vs %s", first.CommitHash, second.CommitHash)
	}
	if !bytes.Equal(first.Pack, second.Pack) {
		t.Error("packs are not byte identical across builds")
	}
}

func TestTreeSortOrder(t *testing.T) {
	canonical := lakefs.RepoName(string(models.RepoTypeModel), "alice", "bert")
	commit := &lakefs.Commit{ID: "c1", Message: "init", CreationDate: 1}
	backend := &fakeBackend{
		branches: []lakefs.Branch{{ID: "main", CommitID: "c1"}},
		commits:  map[string]*lakefs.Commit{"main": commit},
		objects: []lakefs.ObjectStat{
			{Path: "foo.txt", PathType: "object", PhysicalAddress: blobstore.S3URI(testBucket, canonical+"/foo.txt"), SizeBytes: 1},
			{Path: "foo/bar.txt", PathType: "object", PhysicalAddress: blobstore.S3URI(testBucket, canonical+"/foo/bar.txt"), SizeBytes: 1},
		},
	}
	blobs := &fakeBlobs{data: map[string][]byte{
		canonical + "/foo.txt":     []byte("a"),
		canonical + "/foo/bar.txt": []byte("b"),
	}}

	snap, err := testService(backend, blobs).snapshotFor(context.Background(), testRepo(), "main")
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}

	st := decodePack(t, snap.Pack)
	gitCommit, err := object.GetCommit(st, snap.CommitHash)
	if err != nil {
		t.Fatalf("commit missing: %v", err)
	}
	tree, err := gitCommit.Tree()
	if err != nil {
		t.Fatalf("tree missing: %v", err)
	}

	var fileIdx, dirIdx = -1, -1
	for i, entry := range tree.Entries {
		switch entry.Name {
		case "foo.txt":
			fileIdx = i
		case "foo":
			dirIdx = i
		}
	}
	if fileIdx < 0 || dirIdx < 0 {
		t.Fatalf("entries missing from tree: %+v", tree.Entries)
	}
	// "foo.txt" sorts before the directory "foo" because directories
	// compare with a trailing slash.
	if fileIdx > dirIdx {
		t.Errorf("foo.txt at %d sorted after foo/ at %d", fileIdx, dirIdx)
	}
}

func TestFileContentPointerDecision(t *testing.T) {
	backend, blobs := testFixture()
	service := testService(backend, blobs)
	ctx := context.Background()
	rules := []string{".safetensors"}

	// LFS physical address wins regardless of size.
	content, isPointer, err := service.fileContent(ctx, rules, lakefs.ObjectStat{
		Path:            "model.bin",
		PhysicalAddress: blobstore.S3URI(testBucket, lfs.KeyForOID(lfsOID)),
		SizeBytes:       10,
	})
	if err != nil || !isPointer {
		t.Fatalf("lfs-backed file: pointer=%v err=%v", isPointer, err)
	}
	if !strings.Contains(string(content), lfsOID) {
		t.Errorf("pointer missing oid: %q", content)
	}

	// Oversized inline file with a sha256 checksum becomes a pointer.
	_, isPointer, err = service.fileContent(ctx, rules, lakefs.ObjectStat{
		Path:            "big.dat",
		PhysicalAddress: blobstore.S3URI(testBucket, "repo/big.dat"),
		Checksum:        bigOID,
		SizeBytes:       DefaultPackInlineThreshold + 1,
	})
	if err != nil || !isPointer {
		t.Fatalf("oversized file: pointer=%v err=%v", isPointer, err)
	}

	// Suffix rule match becomes a pointer too.
	_, isPointer, err = service.fileContent(ctx, rules, lakefs.ObjectStat{
		Path:            "weights.safetensors",
		PhysicalAddress: blobstore.S3URI(testBucket, "repo/weights.safetensors"),
		Checksum:        bigOID,
		SizeBytes:       10,
	})
	if err != nil || !isPointer {
		t.Fatalf("suffix match: pointer=%v err=%v", isPointer, err)
	}

	// Small regular file is fetched inline.
	canonical := lakefs.RepoName(string(models.RepoTypeModel), "alice", "bert")
	content, isPointer, err = service.fileContent(ctx, rules, lakefs.ObjectStat{
		Path:            "README.md",
		PhysicalAddress: blobstore.S3URI(testBucket, canonical+"/README.md"),
		SizeBytes:       12,
	})
	if err != nil || isPointer {
		t.Fatalf("inline file: pointer=%v err=%v", isPointer, err)
	}
	if string(content) != "hello world\n" {
		t.Errorf("inline content = %q", content)
	}
}

func TestPackCache(t *testing.T) {
	backend, blobs := testFixture()
	service := testService(backend, blobs)
	ctx := context.Background()

	first, err := service.snapshotFor(ctx, testRepo(), "main")
	if err != nil {
		t.Fatalf("first snapshot failed: %v", err)
	}
	second, err := service.snapshotFor(ctx, testRepo(), "main")
	if err != nil {
		t.Fatalf("second snapshot failed: %v", err)
	}
	if first != second {
		t.Error("expected the cached snapshot on the second call")
	}

	service.Invalidate(testRepo())
	third, err := service.snapshotFor(ctx, testRepo(), "main")
	if err != nil {
		t.Fatalf("post-invalidate snapshot failed: %v", err)
	}
	if third == first {
		t.Error("invalidate did not evict the cached snapshot")
	}
	if third.CommitHash != first.CommitHash {
		t.Errorf("rebuild changed the commit hash: %s vs %s", third.CommitHash, first.CommitHash)
	}
}

func TestPackCacheBudget(t *testing.T) {
	cache := newPackCache(100)
	for i := 0; i < 5; i++ {
		cache.add(fmt.Sprintf("repo@c%d", i), &snapshot{Pack: make([]byte, 40)})
	}
	if cache.bytes > 100 {
		t.Errorf("cache holds %d bytes over the 100 byte budget", cache.bytes)
	}
	if _, ok := cache.get("repo@c4"); !ok {
		t.Error("most recent entry was evicted")
	}
	if _, ok := cache.get("repo@c0"); ok {
		t.Error("oldest entry survived past the budget")
	}
}
