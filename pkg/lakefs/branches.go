package lakefs

import (
	"context"
	"net/url"
)

// CreateBranch creates a branch pointing at source (a branch name or commit
// id) and returns the commit id it points to.
func (c *Client) CreateBranch(ctx context.Context, repo, branch, source string) (string, error) {
	var commitID string
	err := c.do(ctx, "POST", "/repositories/"+url.PathEscape(repo)+"/branches", nil, map[string]any{
		"name":   branch,
		"source": source,
	}, &commitID)
	if err != nil {
		return "", err
	}
	return commitID, nil
}

// GetBranch returns a branch and its current commit id.
// Returns ErrNotFound if the branch does not exist.
func (c *Client) GetBranch(ctx context.Context, repo, branch string) (*Branch, error) {
	var b Branch
	err := c.get(ctx, "/repositories/"+url.PathEscape(repo)+"/branches/"+url.PathEscape(branch), nil, &b)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBranches returns all branches of a repository.
func (c *Client) ListBranches(ctx context.Context, repo string) ([]Branch, error) {
	var branches []Branch
	after := ""
	for {
		query := url.Values{"amount": {"500"}}
		if after != "" {
			query.Set("after", after)
		}

		var page branchList
		if err := c.get(ctx, "/repositories/"+url.PathEscape(repo)+"/branches", query, &page); err != nil {
			return nil, err
		}
		branches = append(branches, page.Results...)

		if !page.Pagination.HasMore {
			return branches, nil
		}
		after = page.Pagination.NextOffset
	}
}

// DeleteBranch removes a branch.
func (c *Client) DeleteBranch(ctx context.Context, repo, branch string) error {
	return c.delete(ctx, "/repositories/"+url.PathEscape(repo)+"/branches/"+url.PathEscape(branch), nil)
}

// Revert creates a new commit on branch that undoes the changes of ref.
func (c *Client) Revert(ctx context.Context, repo, branch, ref string) error {
	return c.post(ctx, "/repositories/"+url.PathEscape(repo)+"/branches/"+url.PathEscape(branch)+"/revert",
		map[string]any{"ref": ref, "parent_number": 1}, nil)
}

// CherryPick applies the changes of ref as a new commit on branch.
func (c *Client) CherryPick(ctx context.Context, repo, branch, ref string) (*Commit, error) {
	var commit Commit
	err := c.post(ctx, "/repositories/"+url.PathEscape(repo)+"/branches/"+url.PathEscape(branch)+"/cherry-pick",
		map[string]any{"ref": ref, "parent_number": 1}, &commit)
	if err != nil {
		return nil, err
	}
	return &commit, nil
}

// ResetBranch discards all uncommitted staging on the branch. It produces
// no commit; committed history is untouched.
func (c *Client) ResetBranch(ctx context.Context, repo, branch string) error {
	return c.put(ctx, "/repositories/"+url.PathEscape(repo)+"/branches/"+url.PathEscape(branch),
		nil, map[string]any{"type": "reset"}, nil)
}
