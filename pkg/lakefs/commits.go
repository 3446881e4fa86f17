package lakefs

import (
	"context"
	"net/url"
	"strconv"

	"github.com/kohakuhub/kohakuhub/internal/telemetry"
)

// CommitOptions carry the commit message and metadata.
type CommitOptions struct {
	// Message is the commit message (summary plus optional description).
	Message string

	// Metadata is attached to the backend commit. The hub records the
	// author here; the backend committer is the service account.
	Metadata map[string]string
}

// Commit turns all staged operations on branch into one atomic commit.
// Returns ErrConflict when a concurrent commit won the race; the caller may
// restage against the new head and retry.
func (c *Client) Commit(ctx context.Context, repo, branch string, opts CommitOptions) (*Commit, error) {
	ctx, span := telemetry.StartLakeFSSpan(ctx, "Commit", repo, telemetry.Branch(branch))
	defer span.End()

	body := map[string]any{
		"message": opts.Message,
	}
	if len(opts.Metadata) > 0 {
		body["metadata"] = opts.Metadata
	}

	var commit Commit
	err := c.post(ctx, "/repositories/"+url.PathEscape(repo)+"/branches/"+url.PathEscape(branch)+"/commits",
		body, &commit)
	if err != nil {
		return nil, err
	}

	telemetry.SetAttributes(ctx, telemetry.CommitID(commit.ID))
	return &commit, nil
}

// GetCommit returns one commit by id.
// Returns ErrNotFound if the commit does not exist.
func (c *Client) GetCommit(ctx context.Context, repo, commitID string) (*Commit, error) {
	var commit Commit
	err := c.get(ctx, "/repositories/"+url.PathEscape(repo)+"/commits/"+url.PathEscape(commitID), nil, &commit)
	if err != nil {
		return nil, err
	}
	return &commit, nil
}

// ResolveRef resolves a branch name, commit id or ref expression to its
// commit. Branches resolve through GetBranch first so "main" finds the
// branch head rather than requiring a commit id.
func (c *Client) ResolveRef(ctx context.Context, repo, ref string) (*Commit, error) {
	if branch, err := c.GetBranch(ctx, repo, ref); err == nil && branch.CommitID != "" {
		return c.GetCommit(ctx, repo, branch.CommitID)
	}
	return c.GetCommit(ctx, repo, ref)
}

// ListCommits returns one page of the commit log at ref, newest first.
func (c *Client) ListCommits(ctx context.Context, repo, ref, after string, amount int) (*CommitList, error) {
	ctx, span := telemetry.StartLakeFSSpan(ctx, "ListCommits", repo, telemetry.LakeFSRef(ref))
	defer span.End()

	query := url.Values{}
	if after != "" {
		query.Set("after", after)
	}
	if amount > 0 {
		query.Set("amount", strconv.Itoa(amount))
	}

	var list CommitList
	err := c.get(ctx, "/repositories/"+url.PathEscape(repo)+"/refs/"+url.PathEscape(ref)+"/commits/log", query, &list)
	if err != nil {
		return nil, err
	}
	return &list, nil
}
