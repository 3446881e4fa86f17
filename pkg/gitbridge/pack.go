package gitbridge

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/packfile"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/kohakuhub/kohakuhub/internal/logger"
	"github.com/kohakuhub/kohakuhub/internal/telemetry"
	"github.com/kohakuhub/kohakuhub/pkg/blobstore"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
	"github.com/kohakuhub/kohakuhub/pkg/lakefs"
	"github.com/kohakuhub/kohakuhub/pkg/lfs"
)

// snapshot is one synthesized branch head: a single commit, its trees
// and blobs, encoded as a complete packfile.
type snapshot struct {
	CommitHash plumbing.Hash
	Pack       []byte
}

// snapshotFor resolves a ref and returns its synthesized snapshot.
func (s *Service) snapshotFor(ctx context.Context, repo *models.Repository, ref string) (*snapshot, error) {
	canonical := lakefs.RepoName(repo.RepoType, repo.Namespace, repo.Name)
	commit, err := s.backend.ResolveRef(ctx, canonical, ref)
	if err != nil {
		return nil, err
	}
	return s.snapshotForCommit(ctx, repo, canonical, commit)
}

// snapshotForCommit returns the cached snapshot for a backend commit,
// building it once when missing. Concurrent builds for the same commit
// are coalesced.
func (s *Service) snapshotForCommit(ctx context.Context, repo *models.Repository, canonical string, commit *lakefs.Commit) (*snapshot, error) {
	key := canonical + "@" + commit.ID
	if snap, ok := s.cache.get(key); ok {
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.ObservePackCache(true)
		}
		return snap, nil
	}
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.ObservePackCache(false)
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		if snap, ok := s.cache.get(key); ok {
			return snap, nil
		}
		snap, err := s.build(ctx, repo, canonical, commit)
		if err != nil {
			return nil, err
		}
		s.cache.add(key, snap)
		s.rememberRef(snap.CommitHash, canonical, commit.ID)
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*snapshot), nil
}

// build synthesizes the full object set for one commit and encodes it
// into a pack. Window 0 disables delta search, so a fixed object order
// yields byte-identical packs across builds.
func (s *Service) build(ctx context.Context, repo *models.Repository, canonical string, commit *lakefs.Commit) (*snapshot, error) {
	ctx, span := telemetry.StartRepoSpan(ctx, "gitbridge.build", repo.RepoType, repo.FullID,
		telemetry.Revision(commit.ID))
	defer span.End()
	start := time.Now()

	st := memory.NewStorage()
	commitHash, hashes, err := s.synthesize(ctx, st, repo, canonical, commit)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}

	var buf bytes.Buffer
	encoder := packfile.NewEncoder(&buf, st, false)
	if _, err := encoder.Encode(hashes, 0); err != nil {
		telemetry.RecordError(ctx, err)
		return nil, fmt.Errorf("failed to encode pack: %w", err)
	}

	if s.cfg.Metrics != nil {
		s.cfg.Metrics.ObservePackBuild(time.Since(start).Seconds(), int64(buf.Len()))
	}
	logger.DebugCtx(ctx, "Synthesized pack",
		"repo", repo.FullID,
		"commit", commit.ID,
		"objects", len(hashes),
		"pack_bytes", buf.Len(),
	)
	return &snapshot{CommitHash: commitHash, Pack: buf.Bytes()}, nil
}

// synthesize writes every object of the snapshot into st and returns
// the commit hash plus all object hashes in encoding order: commit,
// trees, then blobs by path.
func (s *Service) synthesize(ctx context.Context, st *memory.Storage, repo *models.Repository, canonical string, commit *lakefs.Commit) (plumbing.Hash, []plumbing.Hash, error) {
	entries, err := s.backend.ListAllObjects(ctx, canonical, commit.ID, "")
	if err != nil {
		return plumbing.ZeroHash, nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	rules := repo.SuffixRules()
	if rules == nil {
		rules = s.cfg.SuffixRules
	}

	root := newTreeNode()
	havePath := make(map[string]bool, len(entries))
	var blobHashes []plumbing.Hash
	var pointerPaths []string

	addBlob := func(path string, content []byte) error {
		hash, err := writeBlob(st, content)
		if err != nil {
			return err
		}
		root.insert(path, hash)
		blobHashes = append(blobHashes, hash)
		return nil
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		havePath[entry.Path] = true
		content, isPointer, err := s.fileContent(ctx, rules, entry)
		if err != nil {
			return plumbing.ZeroHash, nil, err
		}
		if err := addBlob(entry.Path, content); err != nil {
			return plumbing.ZeroHash, nil, err
		}
		if isPointer && !lfs.MatchesSuffixRule(entry.Path, rules) {
			pointerPaths = append(pointerPaths, entry.Path)
		}
	}

	// Checked-in versions win over synthesized ones.
	if !havePath[".gitattributes"] {
		if text := gitattributesText(rules, pointerPaths); text != "" {
			if err := addBlob(".gitattributes", []byte(text)); err != nil {
				return plumbing.ZeroHash, nil, err
			}
		}
	}
	if !havePath[".lfsconfig"] && s.cfg.BaseURL != "" {
		if err := addBlob(".lfsconfig", []byte(lfsconfigText(s.cfg.BaseURL, repo))); err != nil {
			return plumbing.ZeroHash, nil, err
		}
	}

	var treeHashes []plumbing.Hash
	rootHash, err := root.encode(st, &treeHashes)
	if err != nil {
		return plumbing.ZeroHash, nil, err
	}
	commitHash, err := writeCommit(st, rootHash, commit)
	if err != nil {
		return plumbing.ZeroHash, nil, err
	}

	hashes := make([]plumbing.Hash, 0, 1+len(treeHashes)+len(blobHashes))
	seen := make(map[plumbing.Hash]bool, cap(hashes))
	for _, hash := range append(append([]plumbing.Hash{commitHash}, treeHashes...), blobHashes...) {
		if seen[hash] {
			continue
		}
		seen[hash] = true
		hashes = append(hashes, hash)
	}
	return commitHash, hashes, nil
}

// fileContent decides how one stored file appears in the git view:
// LFS-backed and oversized files become pointer blobs, everything else
// is fetched inline.
func (s *Service) fileContent(ctx context.Context, rules []string, entry lakefs.ObjectStat) ([]byte, bool, error) {
	_, key, err := blobstore.ParseS3URI(entry.PhysicalAddress)
	if err != nil {
		return nil, false, fmt.Errorf("unsupported physical address for %s: %w", entry.Path, err)
	}

	if oid, ok := lfs.OIDFromKey(key); ok {
		return []byte(lfs.PointerText(oid, entry.SizeBytes)), true, nil
	}

	if entry.SizeBytes > s.cfg.PackInlineThreshold || lfs.MatchesSuffixRule(entry.Path, rules) {
		if lfs.ValidOID(entry.Checksum) {
			return []byte(lfs.PointerText(entry.Checksum, entry.SizeBytes)), true, nil
		}
		logger.WarnCtx(ctx, "Cannot synthesize pointer without a sha256 checksum, embedding inline",
			"path", entry.Path, "size", entry.SizeBytes)
	}

	content, err := s.blobs.GetBytes(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch %s: %w", entry.Path, err)
	}
	return content, false, nil
}

// gitattributesText renders the LFS tracking rules git-lfs clients
// expect: one glob line per suffix rule plus explicit lines for
// pointer-backed paths no rule covers.
func gitattributesText(rules, pointerPaths []string) string {
	var b strings.Builder
	for _, suffix := range rules {
		fmt.Fprintf(&b, "*%s filter=lfs diff=lfs merge=lfs -text\n", suffix)
	}
	sorted := append([]string(nil), pointerPaths...)
	sort.Strings(sorted)
	for _, path := range sorted {
		fmt.Fprintf(&b, "%s filter=lfs diff=lfs merge=lfs -text\n", path)
	}
	return b.String()
}

func lfsconfigText(baseURL string, repo *models.Repository) string {
	return fmt.Sprintf("[lfs]\n\turl = %s/api/%s/%s.git/info/lfs\n",
		strings.TrimSuffix(baseURL, "/"), repo.Type().Plural(), repo.FullID)
}

func writeBlob(st storer.EncodedObjectStorer, content []byte) (plumbing.Hash, error) {
	obj := st.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(content)))
	w, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if _, err := w.Write(content); err != nil {
		w.Close()
		return plumbing.ZeroHash, err
	}
	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, err
	}
	return st.SetEncodedObject(obj)
}

// writeCommit encodes the single synthetic commit. Author and
// committer come from the backend commit, so the hash is stable for a
// given backend state.
func writeCommit(st storer.EncodedObjectStorer, tree plumbing.Hash, src *lakefs.Commit) (plumbing.Hash, error) {
	name := src.Committer
	if name == "" {
		name = "kohakuhub"
	}
	sig := object.Signature{Name: name, Email: "git@kohakuhub", When: src.CreationTime()}
	message := src.Message
	if message == "" {
		message = src.ID
	}
	if !strings.HasSuffix(message, "\n") {
		message += "\n"
	}
	commit := &object.Commit{
		Author:    sig,
		Committer: sig,
		Message:   message,
		TreeHash:  tree,
	}
	obj := st.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return plumbing.ZeroHash, err
	}
	return st.SetEncodedObject(obj)
}

// treeNode is the path trie the flat listing is folded into.
type treeNode struct {
	dirs  map[string]*treeNode
	files map[string]plumbing.Hash
}

func newTreeNode() *treeNode {
	return &treeNode{dirs: make(map[string]*treeNode), files: make(map[string]plumbing.Hash)}
}

func (n *treeNode) insert(path string, hash plumbing.Hash) {
	dir, rest, found := strings.Cut(path, "/")
	if !found {
		n.files[path] = hash
		return
	}
	child := n.dirs[dir]
	if child == nil {
		child = newTreeNode()
		n.dirs[dir] = child
	}
	child.insert(rest, hash)
}

// encode writes this subtree and all children into st, appending every
// tree hash to trees in a deterministic child-first order.
func (n *treeNode) encode(st storer.EncodedObjectStorer, trees *[]plumbing.Hash) (plumbing.Hash, error) {
	entries := make([]object.TreeEntry, 0, len(n.dirs)+len(n.files))

	dirNames := make([]string, 0, len(n.dirs))
	for name := range n.dirs {
		dirNames = append(dirNames, name)
	}
	sort.Strings(dirNames)
	for _, name := range dirNames {
		hash, err := n.dirs[name].encode(st, trees)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		entries = append(entries, object.TreeEntry{Name: name, Mode: filemode.Dir, Hash: hash})
	}
	for name, hash := range n.files {
		entries = append(entries, object.TreeEntry{Name: name, Mode: filemode.Regular, Hash: hash})
	}

	// Git's tree order: byte-wise by name, with directories compared
	// as if their name ended in "/".
	sort.Slice(entries, func(i, j int) bool {
		return treeSortName(entries[i]) < treeSortName(entries[j])
	})

	tree := &object.Tree{Entries: entries}
	obj := st.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, err
	}
	hash, err := st.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	*trees = append(*trees, hash)
	return hash, nil
}

func treeSortName(entry object.TreeEntry) string {
	if entry.Mode == filemode.Dir {
		return entry.Name + "/"
	}
	return entry.Name
}
