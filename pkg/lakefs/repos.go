package lakefs

import (
	"context"
	"net/url"

	"github.com/kohakuhub/kohakuhub/internal/telemetry"
)

// CreateRepository creates a backend repository rooted at storageNamespace
// (an s3:// URI) with the given default branch.
func (c *Client) CreateRepository(ctx context.Context, name, storageNamespace, defaultBranch string) (*Repository, error) {
	ctx, span := telemetry.StartLakeFSSpan(ctx, "CreateRepository", name)
	defer span.End()

	if defaultBranch == "" {
		defaultBranch = "main"
	}

	var repo Repository
	err := c.post(ctx, "/repositories", map[string]any{
		"name":              name,
		"storage_namespace": storageNamespace,
		"default_branch":    defaultBranch,
	}, &repo)
	if err != nil {
		return nil, err
	}
	return &repo, nil
}

// GetRepository returns a backend repository.
// Returns ErrNotFound if it does not exist.
func (c *Client) GetRepository(ctx context.Context, name string) (*Repository, error) {
	ctx, span := telemetry.StartLakeFSSpan(ctx, "GetRepository", name)
	defer span.End()

	var repo Repository
	if err := c.get(ctx, "/repositories/"+url.PathEscape(name), nil, &repo); err != nil {
		return nil, err
	}
	return &repo, nil
}

// DeleteRepository removes a backend repository. The blob store prefix is
// cleaned up separately by the caller.
func (c *Client) DeleteRepository(ctx context.Context, name string) error {
	ctx, span := telemetry.StartLakeFSSpan(ctx, "DeleteRepository", name)
	defer span.End()

	return c.delete(ctx, "/repositories/"+url.PathEscape(name), nil)
}
