package apiclient

// branchRequest addresses one branch of one repository.
type branchRequest struct {
	Type     string `json:"type"`
	Repo     string `json:"repo"` // namespace/name
	Branch   string `json:"branch"`
	Source   string `json:"source,omitempty"`
	Revision string `json:"revision,omitempty"`
}

// CreateBranch creates a branch. Source names the branch or commit to
// seed it from; empty means the default branch.
func (c *Client) CreateBranch(repoType, repo, branch, source string) error {
	return c.post("/api/repos/branches/create", branchRequest{
		Type: repoType, Repo: repo, Branch: branch, Source: source,
	}, nil)
}

// DeleteBranch deletes a branch.
func (c *Client) DeleteBranch(repoType, repo, branch string) error {
	return c.post("/api/repos/branches/delete", branchRequest{
		Type: repoType, Repo: repo, Branch: branch,
	}, nil)
}

// RevertBranch reverts the named commit on a branch.
func (c *Client) RevertBranch(repoType, repo, branch, revision string) error {
	return c.post("/api/repos/branches/revert", branchRequest{
		Type: repoType, Repo: repo, Branch: branch, Revision: revision,
	}, nil)
}

// ResetBranch drops a branch's uncommitted staging area.
func (c *Client) ResetBranch(repoType, repo, branch string) error {
	return c.post("/api/repos/branches/reset", branchRequest{
		Type: repoType, Repo: repo, Branch: branch,
	}, nil)
}

// CherryPickResult reports the commit created by a cherry-pick.
type CherryPickResult struct {
	Branch string `json:"branch"`
	Commit string `json:"commit"`
}

// CherryPickBranch applies the named commit on top of a branch.
func (c *Client) CherryPickBranch(repoType, repo, branch, revision string) (*CherryPickResult, error) {
	return createResource[CherryPickResult](c, "/api/repos/branches/cherry-pick", branchRequest{
		Type: repoType, Repo: repo, Branch: branch, Revision: revision,
	})
}
