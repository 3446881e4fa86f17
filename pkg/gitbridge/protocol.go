package gitbridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/packfile"
	"github.com/go-git/go-git/v5/plumbing/format/pktline"
	"github.com/go-git/go-git/v5/plumbing/protocol/packp/sideband"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/kohakuhub/kohakuhub/internal/logger"
	"github.com/kohakuhub/kohakuhub/internal/telemetry"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
	"github.com/kohakuhub/kohakuhub/pkg/lakefs"
)

// ErrUnknownService rejects services other than upload-pack and
// receive-pack.
var ErrUnknownService = errors.New("unknown git service")

// advRef is one advertised ref.
type advRef struct {
	Name string
	Hash plumbing.Hash
}

// Advertise writes the smart HTTP ref advertisement, including the
// "# service=" header pkt-line.
func (s *Service) Advertise(ctx context.Context, repo *models.Repository, service string, w io.Writer) error {
	ctx, span := telemetry.StartRepoSpan(ctx, "gitbridge.advertise", repo.RepoType, repo.FullID,
		telemetry.Operation(service))
	defer span.End()

	if service != UploadPackService && service != ReceivePackService {
		return fmt.Errorf("%w: %s", ErrUnknownService, service)
	}

	refs, head, err := s.branchRefs(ctx, repo)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return err
	}

	enc := pktline.NewEncoder(w)
	if err := enc.Encodef("# service=%s\n", service); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}

	caps := s.capabilities(service, head != plumbing.ZeroHash)
	if len(refs) == 0 {
		if err := enc.Encodef("%s capabilities^{}\x00%s\n", plumbing.ZeroHash, caps); err != nil {
			return err
		}
		return enc.Flush()
	}

	first := true
	if head != plumbing.ZeroHash {
		if err := enc.Encodef("%s HEAD\x00%s\n", head, caps); err != nil {
			return err
		}
		first = false
	}
	for _, ref := range refs {
		if first {
			if err := enc.Encodef("%s refs/heads/%s\x00%s\n", ref.Hash, ref.Name, caps); err != nil {
				return err
			}
			first = false
			continue
		}
		if err := enc.Encodef("%s refs/heads/%s\n", ref.Hash, ref.Name); err != nil {
			return err
		}
	}
	return enc.Flush()
}

func (s *Service) capabilities(service string, haveHead bool) string {
	if service == ReceivePackService {
		return "report-status delete-refs ofs-delta agent=" + s.agent()
	}
	caps := "multi_ack thin-pack side-band side-band-64k ofs-delta"
	if haveHead {
		caps += " symref=HEAD:refs/heads/" + models.DefaultBranch
	}
	return caps + " agent=" + s.agent()
}

// branchRefs synthesizes every branch head and returns the advertised
// refs sorted by name plus the HEAD hash (zero when the default branch
// is missing).
func (s *Service) branchRefs(ctx context.Context, repo *models.Repository) ([]advRef, plumbing.Hash, error) {
	canonical := lakefs.RepoName(repo.RepoType, repo.Namespace, repo.Name)
	branches, err := s.backend.ListBranches(ctx, canonical)
	if err != nil {
		return nil, plumbing.ZeroHash, err
	}

	refs := make([]advRef, 0, len(branches))
	head := plumbing.ZeroHash
	for _, branch := range branches {
		commit, err := s.backend.ResolveRef(ctx, canonical, branch.ID)
		if err != nil {
			logger.WarnCtx(ctx, "Skipping unresolvable branch",
				"repo", repo.FullID, "branch", branch.ID, "error", err)
			continue
		}
		snap, err := s.snapshotForCommit(ctx, repo, canonical, commit)
		if err != nil {
			return nil, plumbing.ZeroHash, err
		}
		refs = append(refs, advRef{Name: branch.ID, Hash: snap.CommitHash})
		if branch.ID == models.DefaultBranch {
			head = snap.CommitHash
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, head, nil
}

// UploadPack answers one stateless upload-pack request. The synthetic
// history has exactly one commit per ref, so negotiation always ends
// in NAK followed by the full pack.
func (s *Service) UploadPack(ctx context.Context, repo *models.Repository, r io.Reader, w io.Writer) error {
	ctx, span := telemetry.StartRepoSpan(ctx, "gitbridge.upload_pack", repo.RepoType, repo.FullID)
	defer span.End()

	wants, caps, done, err := parseUploadPackRequest(r)
	if err != nil {
		writePktErr(w, "%v", err)
		return err
	}
	if len(wants) == 0 {
		return nil
	}

	enc := pktline.NewEncoder(w)
	if !done {
		// Stateless negotiation round without done: report no common
		// commits and let the client come back.
		if err := enc.EncodeString("NAK\n"); err != nil {
			return err
		}
		return enc.Flush()
	}

	pack, err := s.packForWants(ctx, repo, wants)
	if err != nil {
		telemetry.RecordError(ctx, err)
		writePktErr(w, "%v", err)
		return err
	}

	if err := enc.EncodeString("NAK\n"); err != nil {
		return err
	}
	switch {
	case caps["side-band-64k"]:
		return writeSideband(w, sideband.Sideband64k, pack)
	case caps["side-band"]:
		return writeSideband(w, sideband.Sideband, pack)
	default:
		_, err := w.Write(pack)
		return err
	}
}

func writeSideband(w io.Writer, t sideband.Type, pack []byte) error {
	mux := sideband.NewMuxer(t, w)
	if _, err := mux.Write(pack); err != nil {
		return err
	}
	return pktline.NewEncoder(w).Flush()
}

// packForWants returns a single pack covering every wanted commit. The
// common single-want case is served from the cache; multi-want requests
// are encoded fresh from a union of the snapshots' object sets.
func (s *Service) packForWants(ctx context.Context, repo *models.Repository, wants []plumbing.Hash) ([]byte, error) {
	targets := make([]refTarget, 0, len(wants))
	refreshed := false
	for _, want := range wants {
		target, ok := s.lookupRef(want)
		if !ok && !refreshed {
			// The index is process-local; rebuild it once before
			// declaring the want invalid.
			if _, _, err := s.branchRefs(ctx, repo); err != nil {
				return nil, err
			}
			refreshed = true
			target, ok = s.lookupRef(want)
		}
		if !ok {
			return nil, fmt.Errorf("not our ref %s", want)
		}
		targets = append(targets, target)
	}

	if len(targets) == 1 {
		commit, err := s.backend.ResolveRef(ctx, targets[0].canonical, targets[0].commitID)
		if err != nil {
			return nil, err
		}
		snap, err := s.snapshotForCommit(ctx, repo, targets[0].canonical, commit)
		if err != nil {
			return nil, err
		}
		return snap.Pack, nil
	}

	st := memory.NewStorage()
	var hashes []plumbing.Hash
	seen := make(map[plumbing.Hash]bool)
	for _, target := range targets {
		commit, err := s.backend.ResolveRef(ctx, target.canonical, target.commitID)
		if err != nil {
			return nil, err
		}
		_, objectHashes, err := s.synthesize(ctx, st, repo, target.canonical, commit)
		if err != nil {
			return nil, err
		}
		for _, hash := range objectHashes {
			if seen[hash] {
				continue
			}
			seen[hash] = true
			hashes = append(hashes, hash)
		}
	}
	return encodePack(st, hashes)
}

func encodePack(st *memory.Storage, hashes []plumbing.Hash) ([]byte, error) {
	var buf bytes.Buffer
	encoder := packfile.NewEncoder(&buf, st, false)
	if _, err := encoder.Encode(hashes, 0); err != nil {
		return nil, fmt.Errorf("failed to encode pack: %w", err)
	}
	return buf.Bytes(), nil
}

// parseUploadPackRequest reads want/have/done pkt-lines. Capabilities
// ride on the first want line.
func parseUploadPackRequest(r io.Reader) (wants []plumbing.Hash, caps map[string]bool, done bool, err error) {
	caps = make(map[string]bool)
	scanner := pktline.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSuffix(string(scanner.Bytes()), "\n")
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "want":
			if len(fields) < 2 || !plumbing.IsHash(fields[1]) {
				return nil, nil, false, fmt.Errorf("malformed want line %q", line)
			}
			wants = append(wants, plumbing.NewHash(fields[1]))
			for _, capability := range fields[2:] {
				caps[capName(capability)] = true
			}
		case "have":
			// Nothing in the synthetic history is shared; ignored.
		case "done":
			done = true
		case "deepen", "deepen-since", "deepen-not", "shallow":
			return nil, nil, false, fmt.Errorf("shallow clones are not supported")
		default:
			return nil, nil, false, fmt.Errorf("unexpected pkt-line %q", line)
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return nil, nil, false, err
	}
	return wants, caps, done, nil
}

func capName(capability string) string {
	name, _, _ := strings.Cut(capability, "=")
	return name
}

// ReceivePack accepts a push, acknowledges every ref, and discards the
// pack. Content changes go through the HTTP API; the bridge is a read
// surface.
func (s *Service) ReceivePack(ctx context.Context, repo *models.Repository, r io.Reader, w io.Writer) error {
	ctx, span := telemetry.StartRepoSpan(ctx, "gitbridge.receive_pack", repo.RepoType, repo.FullID)
	defer span.End()

	var refs []string
	caps := make(map[string]bool)
	first := true
	scanner := pktline.NewScanner(r)
	for scanner.Scan() {
		payload := scanner.Bytes()
		if len(payload) == 0 {
			break
		}
		line := strings.TrimSuffix(string(payload), "\n")
		if first {
			first = false
			if cmd, capList, found := strings.Cut(line, "\x00"); found {
				line = cmd
				for _, capability := range strings.Fields(capList) {
					caps[capName(capability)] = true
				}
			}
		}
		fields := strings.Fields(line)
		if len(fields) == 3 {
			refs = append(refs, fields[2])
		}
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return err
	}

	logger.InfoCtx(ctx, "Accepted push without applying it; content changes go through the API",
		"repo", repo.FullID, "refs", len(refs))

	var report bytes.Buffer
	enc := pktline.NewEncoder(&report)
	if err := enc.EncodeString("unpack ok\n"); err != nil {
		return err
	}
	for _, ref := range refs {
		if err := enc.Encodef("ok %s\n", ref); err != nil {
			return err
		}
	}
	if err := enc.Flush(); err != nil {
		return err
	}

	if caps["side-band-64k"] {
		mux := sideband.NewMuxer(sideband.Sideband64k, w)
		if _, err := mux.Write(report.Bytes()); err != nil {
			return err
		}
		return pktline.NewEncoder(w).Flush()
	}
	_, err := w.Write(report.Bytes())
	return err
}

func writePktErr(w io.Writer, format string, args ...any) {
	_ = pktline.NewEncoder(w).Encodef("ERR "+format+"\n", args...)
}
