//go:build integration

package lfs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/kohakuhub/kohakuhub/pkg/blobstore"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
	"github.com/kohakuhub/kohakuhub/pkg/hub/store"
)

// fakeBlobs is an in-memory blob store answering the LFS slice.
type fakeBlobs struct {
	sizes   map[string]int64 // key -> size
	deleted []string
	aborted []string
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{sizes: map[string]int64{}}
}

func (f *fakeBlobs) Exists(_ context.Context, key string) (bool, error) {
	_, ok := f.sizes[key]
	return ok, nil
}

func (f *fakeBlobs) Head(_ context.Context, key string) (*blobstore.ObjectInfo, error) {
	size, ok := f.sizes[key]
	if !ok {
		return nil, blobstore.ErrObjectNotFound
	}
	return &blobstore.ObjectInfo{Key: key, Size: size}, nil
}

func (f *fakeBlobs) Delete(_ context.Context, key string) error {
	delete(f.sizes, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeBlobs) PresignDownload(_ context.Context, key string, _ blobstore.DownloadOptions) (*blobstore.PresignedRequest, error) {
	return &blobstore.PresignedRequest{
		URL:       "https://s3.test/get/" + key,
		Method:    http.MethodGet,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (f *fakeBlobs) PresignUpload(_ context.Context, key string, opts blobstore.UploadOptions) (*blobstore.PresignedRequest, error) {
	header := map[string]string{}
	if opts.SHA256 != "" {
		b64, err := blobstore.HexToChecksumBase64(opts.SHA256)
		if err != nil {
			return nil, err
		}
		header["x-amz-checksum-sha256"] = b64
	}
	return &blobstore.PresignedRequest{
		URL:       "https://s3.test/put/" + key,
		Method:    http.MethodPut,
		Header:    header,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (f *fakeBlobs) CreateMultipart(_ context.Context, key string, partCount int, _ int64, _ time.Duration, _ string) (*blobstore.MultipartUpload, error) {
	urls := make([]string, partCount)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://s3.test/part/%s/%d", key, i+1)
	}
	return &blobstore.MultipartUpload{
		UploadID:  "upload-1",
		Key:       key,
		PartURLs:  urls,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (f *fakeBlobs) CompleteMultipart(_ context.Context, key, _ string, _ []blobstore.CompletedPart) error {
	f.sizes[key] = -1
	return nil
}

func (f *fakeBlobs) AbortMultipart(_ context.Context, key, _ string) error {
	f.aborted = append(f.aborted, key)
	return nil
}

// fakeQuotas tracks reservations in memory.
type fakeQuotas struct {
	available int64
	reserved  map[string]int64 // repoID/oid -> size
}

func newFakeQuotas(available int64) *fakeQuotas {
	return &fakeQuotas{available: available, reserved: map[string]int64{}}
}

func (f *fakeQuotas) Reserve(_ context.Context, ns, _, repoID, oid string, size int64) (string, error) {
	var held int64
	for _, s := range f.reserved {
		held += s
	}
	if held+size > f.available {
		return "", &models.QuotaExceededError{Namespace: ns, Requested: size, Available: f.available - held}
	}
	f.reserved[repoID+"/"+oid] = size
	return "resv", nil
}

func (f *fakeQuotas) Release(_ context.Context, repoID, oid string) error {
	delete(f.reserved, repoID+"/"+oid)
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

func testRepo(t *testing.T, s *store.GORMStore) *models.Repository {
	t.Helper()
	ctx := context.Background()
	if _, err := s.CreateUser(ctx, &models.User{Username: "alice", PasswordHash: "x", Enabled: true, Role: "user"}); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	repo := &models.Repository{RepoType: "model", Namespace: "alice", Name: "bert", FullID: "alice/bert"}
	if _, err := s.CreateRepo(ctx, repo); err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}
	return repo
}

// oidN returns a synthetic distinct oid.
func oidN(n int) string {
	return fmt.Sprintf("%064x", n)
}

func TestBatchUpload(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	blobs := newFakeBlobs()
	quotas := newFakeQuotas(1 << 40)
	svc := New(s, blobs, quotas, Config{BaseURL: "https://hub.test"})
	repo := testRepo(t, s)

	existing := oidN(1)
	blobs.sizes[KeyForOID(existing)] = 100

	resp, err := svc.Batch(ctx, repo, &BatchRequest{
		Operation: "upload",
		Objects: []ObjectSpec{
			{OID: existing, Size: 100},
			{OID: oidN(2), Size: 200},
			{OID: "nothex", Size: 1},
		},
	})
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if resp.Transfer != TransferBasic || resp.HashAlgo != "sha256" {
		t.Errorf("got %+v", resp)
	}

	t.Run("dedup hit emits no actions", func(t *testing.T) {
		obj := resp.Objects[0]
		if obj.Error != nil || len(obj.Actions) != 0 {
			t.Errorf("got %+v", obj)
		}
	})

	t.Run("new object gets checksum-bound put and verify", func(t *testing.T) {
		obj := resp.Objects[1]
		if obj.Error != nil {
			t.Fatalf("got error %+v", obj.Error)
		}
		upload := obj.Actions["upload"]
		if upload == nil || !strings.Contains(upload.Href, KeyForOID(oidN(2))) {
			t.Fatalf("got upload %+v", upload)
		}
		if upload.Header["X-Amz-Checksum-Sha256"] == "" && upload.Header["x-amz-checksum-sha256"] == "" {
			t.Errorf("missing checksum header: %v", upload.Header)
		}
		verify := obj.Actions["verify"]
		if verify == nil || verify.Href != "https://hub.test/api/models/alice/bert.git/info/lfs/verify" {
			t.Errorf("got verify %+v", verify)
		}
		if _, held := quotas.reserved[repo.ID+"/"+oidN(2)]; !held {
			t.Error("no reservation recorded")
		}
	})

	t.Run("malformed oid rejected per object", func(t *testing.T) {
		obj := resp.Objects[2]
		if obj.Error == nil || obj.Error.Code != http.StatusUnprocessableEntity {
			t.Errorf("got %+v", obj)
		}
	})

	t.Run("unknown operation rejected", func(t *testing.T) {
		_, err := svc.Batch(ctx, repo, &BatchRequest{Operation: "replace"})
		if !errors.Is(err, models.ErrValidation) {
			t.Errorf("got %v", err)
		}
	})
}

func TestBatchUploadQuota(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	quotas := newFakeQuotas(150)
	svc := New(s, newFakeBlobs(), quotas, Config{BaseURL: "https://hub.test"})
	repo := testRepo(t, s)

	resp, err := svc.Batch(ctx, repo, &BatchRequest{
		Operation: "upload",
		Objects: []ObjectSpec{
			{OID: oidN(1), Size: 100},
			{OID: oidN(2), Size: 100},
		},
	})
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if resp.Objects[0].Error != nil {
		t.Errorf("first object rejected: %+v", resp.Objects[0].Error)
	}
	second := resp.Objects[1]
	if second.Error == nil || second.Error.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("got %+v", second)
	}
}

func TestBatchMultipart(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	svc := New(s, newFakeBlobs(), newFakeQuotas(1<<50), Config{
		BaseURL:            "https://hub.test",
		MultipartThreshold: 1000,
		PartSize:           400,
	})
	repo := testRepo(t, s)

	resp, err := svc.Batch(ctx, repo, &BatchRequest{
		Operation: "upload",
		Objects:   []ObjectSpec{{OID: oidN(7), Size: 1100}},
	})
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	upload := resp.Objects[0].Actions["upload"]
	if upload == nil {
		t.Fatal("missing upload action")
	}
	if !strings.Contains(upload.Href, "/multipart/complete?") ||
		!strings.Contains(upload.Href, "uploadId=upload-1") ||
		!strings.Contains(upload.Href, "oid="+oidN(7)) {
		t.Errorf("got href %q", upload.Href)
	}
	// 1100 bytes at 400 per part = 3 parts.
	for _, part := range []string{"00001", "00002", "00003"} {
		if upload.Header[part] == "" {
			t.Errorf("missing part url %s: %v", part, upload.Header)
		}
	}
	if upload.Header["chunk_size"] != "400" {
		t.Errorf("got chunk_size %q", upload.Header["chunk_size"])
	}
}

func TestBatchDownload(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	blobs := newFakeBlobs()
	svc := New(s, blobs, newFakeQuotas(0), Config{BaseURL: "https://hub.test"})
	repo := testRepo(t, s)

	present := oidN(3)
	blobs.sizes[KeyForOID(present)] = 50

	resp, err := svc.Batch(ctx, repo, &BatchRequest{
		Operation: "download",
		Objects: []ObjectSpec{
			{OID: present, Size: 50},
			{OID: oidN(4), Size: 10},
		},
	})
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if dl := resp.Objects[0].Actions["download"]; dl == nil || !strings.Contains(dl.Href, KeyForOID(present)) {
		t.Errorf("got %+v", resp.Objects[0])
	}
	if e := resp.Objects[1].Error; e == nil || e.Code != http.StatusNotFound {
		t.Errorf("got %+v", resp.Objects[1])
	}
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	blobs := newFakeBlobs()
	quotas := newFakeQuotas(1 << 40)
	svc := New(s, blobs, quotas, Config{BaseURL: "https://hub.test"})
	repo := testRepo(t, s)

	oid := oidN(9)
	if _, err := quotas.Reserve(ctx, "alice", "public", repo.ID, oid, 500); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	blobs.sizes[KeyForOID(oid)] = 500

	t.Run("success records history and releases reservation", func(t *testing.T) {
		if err := svc.Verify(ctx, repo, oid, 500); err != nil {
			t.Fatalf("verify failed: %v", err)
		}
		if len(quotas.reserved) != 0 {
			t.Error("reservation not released")
		}
		history, err := s.ListLFSHistory(ctx, repo.ID)
		if err != nil || len(history) != 1 || history[0].OID != oid {
			t.Errorf("got history %v (%v)", history, err)
		}
		// Idempotent.
		if err := svc.Verify(ctx, repo, oid, 500); err != nil {
			t.Fatalf("re-verify failed: %v", err)
		}
		history, _ = s.ListLFSHistory(ctx, repo.ID)
		if len(history) != 1 {
			t.Errorf("duplicate history rows: %v", history)
		}
	})

	t.Run("missing object", func(t *testing.T) {
		missing := oidN(10)
		_, _ = quotas.Reserve(ctx, "alice", "public", repo.ID, missing, 5)
		err := svc.Verify(ctx, repo, missing, 5)
		if !errors.Is(err, ErrObjectMissing) {
			t.Errorf("got %v", err)
		}
		if _, held := quotas.reserved[repo.ID+"/"+missing]; held {
			t.Error("failed verify kept the reservation")
		}
	})

	t.Run("size mismatch", func(t *testing.T) {
		err := svc.Verify(ctx, repo, oid, 501)
		if !errors.Is(err, ErrSizeMismatch) {
			t.Errorf("got %v", err)
		}
	})
}

func TestGC(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	blobs := newFakeBlobs()
	keep := 2
	svc := New(s, blobs, newFakeQuotas(1<<40), Config{BaseURL: "https://hub.test"})
	repo := testRepo(t, s)
	repo.LFSKeepVersions = &keep

	// Four versions of the same path, oldest first, plus a second repo
	// path sharing the oldest oid.
	for i := 1; i <= 4; i++ {
		oid := oidN(i)
		blobs.sizes[KeyForOID(oid)] = int64(i * 10)
		if err := s.RecordLFSObject(ctx, repo.ID, oid, "model.bin", int64(i*10)); err != nil {
			t.Fatalf("record failed: %v", err)
		}
		// Distinct timestamps so newest-first ordering is stable.
		time.Sleep(5 * time.Millisecond)
	}
	if err := s.RecordLFSObject(ctx, repo.ID, oidN(1), "shared.bin", 10); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	t.Run("dry run deletes nothing", func(t *testing.T) {
		result, err := svc.GC(ctx, repo, true)
		if err != nil {
			t.Fatalf("gc failed: %v", err)
		}
		if result.Deleted != 1 {
			t.Errorf("got %+v", result)
		}
		if len(blobs.deleted) != 0 {
			t.Errorf("dry run deleted %v", blobs.deleted)
		}
	})

	result, err := svc.GC(ctx, repo, false)
	if err != nil {
		t.Fatalf("gc failed: %v", err)
	}

	// Versions 1 and 2 of model.bin fall outside keep=2; oid 1 survives
	// in storage because shared.bin still references it.
	if result.Deleted != 1 || result.BytesFreed != 20 {
		t.Errorf("got %+v", result)
	}
	if len(blobs.deleted) != 1 || blobs.deleted[0] != KeyForOID(oidN(2)) {
		t.Errorf("got deleted %v", blobs.deleted)
	}
	if _, ok := blobs.sizes[KeyForOID(oidN(1))]; !ok {
		t.Error("shared object deleted")
	}

	history, _ := s.ListLFSHistory(ctx, repo.ID)
	paths := map[string]int{}
	for _, row := range history {
		paths[row.Path]++
	}
	if paths["model.bin"] != 2 || paths["shared.bin"] != 1 {
		t.Errorf("got history %v", paths)
	}
}
