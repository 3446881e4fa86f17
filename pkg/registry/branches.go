package registry

import (
	"context"
	"fmt"

	"github.com/kohakuhub/kohakuhub/internal/logger"
	"github.com/kohakuhub/kohakuhub/pkg/hub/auth"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
	"github.com/kohakuhub/kohakuhub/pkg/lakefs"
)

// writableRepo loads a repository and checks write permission.
func (s *Service) writableRepo(ctx context.Context, user *models.User, repoType models.RepoType, fullID string) (*models.Repository, error) {
	repo, err := s.store.GetRepo(ctx, repoType, fullID)
	if err != nil {
		return nil, err
	}
	ok, err := s.perms.CanWrite(ctx, user, repo)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, auth.ErrPermissionDenied
	}
	return repo, nil
}

// CreateBranch creates a branch from a source revision (default branch
// when empty).
func (s *Service) CreateBranch(ctx context.Context, user *models.User, repoType models.RepoType, fullID, branch, source string) error {
	repo, err := s.writableRepo(ctx, user, repoType, fullID)
	if err != nil {
		return err
	}
	if source == "" {
		source = models.DefaultBranch
	}
	_, err = s.backend.CreateBranch(ctx, s.canonical(repo), branch, source)
	return err
}

// DeleteBranch deletes a branch. The default branch cannot be deleted.
func (s *Service) DeleteBranch(ctx context.Context, user *models.User, repoType models.RepoType, fullID, branch string) error {
	repo, err := s.writableRepo(ctx, user, repoType, fullID)
	if err != nil {
		return err
	}
	if branch == models.DefaultBranch {
		return fmt.Errorf("%w: cannot delete the default branch", models.ErrValidation)
	}
	return s.backend.DeleteBranch(ctx, s.canonical(repo), branch)
}

// RevertBranch reverts the changes of ref on a branch, producing a new
// commit, and logs it.
func (s *Service) RevertBranch(ctx context.Context, user *models.User, repoType models.RepoType, fullID, branch, ref string) error {
	repo, err := s.writableRepo(ctx, user, repoType, fullID)
	if err != nil {
		return err
	}
	canonical := s.canonical(repo)
	if err := s.backend.Revert(ctx, canonical, branch, ref); err != nil {
		return err
	}
	s.logBranchCommit(ctx, user, repo, branch, fmt.Sprintf("Revert %s", ref))
	return nil
}

// ResetBranch drops the branch's uncommitted staged changes.
func (s *Service) ResetBranch(ctx context.Context, user *models.User, repoType models.RepoType, fullID, branch string) error {
	repo, err := s.writableRepo(ctx, user, repoType, fullID)
	if err != nil {
		return err
	}
	return s.backend.ResetBranch(ctx, s.canonical(repo), branch)
}

// CherryPickBranch applies the changes of ref onto a branch as a new
// commit, and logs it.
func (s *Service) CherryPickBranch(ctx context.Context, user *models.User, repoType models.RepoType, fullID, branch, ref string) (*lakefs.Commit, error) {
	repo, err := s.writableRepo(ctx, user, repoType, fullID)
	if err != nil {
		return nil, err
	}
	commit, err := s.backend.CherryPick(ctx, s.canonical(repo), branch, ref)
	if err != nil {
		return nil, err
	}
	s.logBranchCommit(ctx, user, repo, branch, fmt.Sprintf("Cherry-pick %s", ref))
	return commit, nil
}

// logBranchCommit records the branch head in the commit log after a
// backend-side commit (revert, cherry-pick). Best effort: the backend
// commit already happened.
func (s *Service) logBranchCommit(ctx context.Context, user *models.User, repo *models.Repository, branch, summary string) {
	head, err := s.backend.ResolveRef(ctx, s.canonical(repo), branch)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to resolve branch head for commit log",
			"repo", repo.FullID, "branch", branch, "error", err)
		return
	}
	parent := ""
	if len(head.Parents) > 0 {
		parent = head.Parents[0]
	}
	if _, err := s.store.RecordCommit(ctx, &models.CommitLog{
		RepoID:     repo.ID,
		Branch:     branch,
		CommitID:   head.ID,
		ParentID:   parent,
		Summary:    summary,
		AuthorID:   user.ID,
		AuthorName: user.Username,
	}); err != nil {
		logger.WarnCtx(ctx, "Failed to record commit log",
			"repo", repo.FullID, "branch", branch, "error", err)
	}
}
