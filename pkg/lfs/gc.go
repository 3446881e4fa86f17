package lfs

import (
	"context"

	"github.com/kohakuhub/kohakuhub/internal/logger"
	"github.com/kohakuhub/kohakuhub/internal/telemetry"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
)

// GCResult summarizes one garbage collection run.
type GCResult struct {
	Scanned    int   `json:"scanned"`
	Deleted    int   `json:"deleted"`
	BytesFreed int64 `json:"bytes_freed"`
}

// GC collects LFS versions outside the repository's keep-versions window.
// A blob is deleted from storage only when no history row anywhere still
// references its oid after the window rows are dropped. dryRun reports
// what would be deleted without touching anything.
func (s *Service) GC(ctx context.Context, repo *models.Repository, dryRun bool) (*GCResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "lfs.gc")
	defer span.End()
	telemetry.SetAttributes(ctx, telemetry.RepoID(repo.FullID))

	keep := s.keepVersionsFor(repo)

	history, err := s.store.ListLFSHistory(ctx, repo.ID)
	if err != nil {
		return nil, err
	}

	// Rows arrive newest first; group per path and keep the window.
	perPath := make(map[string][]*models.LFSObjectHistory)
	for _, row := range history {
		if row.Path == "" {
			// Uploaded-not-committed markers are not versions of any
			// path; they fall out once a commit records a real path.
			continue
		}
		perPath[row.Path] = append(perPath[row.Path], row)
	}

	var candidates []*models.LFSObjectHistory
	for _, rows := range perPath {
		if len(rows) > keep {
			candidates = append(candidates, rows[keep:]...)
		}
	}

	result := &GCResult{Scanned: len(history)}
	if len(candidates) == 0 {
		return result, nil
	}

	// Count candidate rows per oid so shared objects survive when any
	// reference outside the candidate set remains.
	candidateRefs := make(map[string]int64)
	candidateSize := make(map[string]int64)
	var rowIDs []string
	for _, row := range candidates {
		candidateRefs[row.OID]++
		candidateSize[row.OID] = row.Size
		rowIDs = append(rowIDs, row.ID)
	}

	for oid, dropped := range candidateRefs {
		total, err := s.store.CountLFSRefs(ctx, oid)
		if err != nil {
			return nil, err
		}
		if total > dropped {
			continue
		}
		result.Deleted++
		result.BytesFreed += candidateSize[oid]
		if dryRun {
			continue
		}
		if err := s.blobs.Delete(ctx, KeyForOID(oid)); err != nil {
			logger.WarnCtx(ctx, "Failed to delete LFS object", "oid", oid, "error", err)
		}
	}

	if !dryRun {
		if err := s.store.DeleteLFSRows(ctx, rowIDs); err != nil {
			return nil, err
		}
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.AddGCReclaimed(result.Deleted, result.BytesFreed)
		}
	}

	logger.InfoCtx(ctx, "LFS garbage collection finished",
		"repo", repo.FullID,
		"scanned", result.Scanned,
		"deleted", result.Deleted,
		"bytes_freed", result.BytesFreed,
		"dry_run", dryRun,
	)
	return result, nil
}
