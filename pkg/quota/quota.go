// Package quota implements per-namespace storage accounting.
//
// Every namespace (user or organization) carries two counters: bytes used
// by private repositories and bytes used by public ones, each with its own
// optional limit. Writes are admitted before any backend mutation and the
// counters are updated only after the backend commit succeeds, so a failed
// commit never leaks usage.
//
// Admission also counts active reservations: LFS batch admission reserves
// the object size until verify settles the upload, so concurrent batches
// cannot jointly overshoot a limit. Counters can drift when the blob store
// and the database diverge (crashes, manual cleanup); Recompute restores
// truth by walking the backend listings.
package quota

import (
	"context"
	"sync"
	"time"

	"github.com/kohakuhub/kohakuhub/internal/logger"
	"github.com/kohakuhub/kohakuhub/internal/telemetry"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
	"github.com/kohakuhub/kohakuhub/pkg/hub/store"
	"github.com/kohakuhub/kohakuhub/pkg/lakefs"
)

// DefaultReservationTTL bounds how long an unverified upload holds quota.
const DefaultReservationTTL = 24 * time.Hour

// TreeLister lists backend trees for usage recomputation.
type TreeLister interface {
	ListAllObjects(ctx context.Context, repo, ref, prefix string) ([]lakefs.ObjectStat, error)
}

// Engine is the quota engine.
//
// Admissions on the same namespace serialize through a per-namespace mutex;
// different namespaces proceed in parallel. Counter updates use the store's
// conditional UPDATE so they are atomic even across processes.
type Engine struct {
	store store.Store
	trees TreeLister

	resvTTL time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a quota engine.
func New(s store.Store, trees TreeLister, reservationTTL time.Duration) *Engine {
	if reservationTTL <= 0 {
		reservationTTL = DefaultReservationTTL
	}
	return &Engine{
		store:   s,
		trees:   trees,
		resvTTL: reservationTTL,
		locks:   make(map[string]*sync.Mutex),
	}
}

// nsLock returns the mutex serializing admissions for one namespace.
func (e *Engine) nsLock(namespace string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	lock, ok := e.locks[namespace]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[namespace] = lock
	}
	return lock
}

// Admit checks whether delta bytes fit in the namespace's visibility
// bucket. Negative deltas (deletes) always pass. Returns a
// *models.QuotaExceededError when the write does not fit.
func (e *Engine) Admit(ctx context.Context, namespace, visibility string, delta int64) error {
	if delta <= 0 {
		return nil
	}

	lock := e.nsLock(namespace)
	lock.Lock()
	defer lock.Unlock()

	return e.admitLocked(ctx, namespace, visibility, delta)
}

// admitLocked checks admission with the namespace lock held.
func (e *Engine) admitLocked(ctx context.Context, namespace, visibility string, delta int64) error {
	ns, err := e.store.GetNamespace(ctx, namespace)
	if err != nil {
		return err
	}

	quota := ns.QuotaFor(visibility)
	if quota == nil {
		return nil
	}

	reserved, err := e.store.SumActiveReservations(ctx, namespace, visibility, time.Now())
	if err != nil {
		return err
	}

	used := ns.UsedFor(visibility) + reserved
	if used+delta > *quota {
		available := *quota - used
		if available < 0 {
			available = 0
		}
		return &models.QuotaExceededError{
			Namespace: namespace,
			Requested: delta,
			Available: available,
		}
	}
	return nil
}

// Apply adds delta (possibly negative) to the namespace counter. Called
// only after the backend mutation succeeded.
func (e *Engine) Apply(ctx context.Context, namespace, visibility string, delta int64) error {
	if delta == 0 {
		return nil
	}
	return e.store.ApplyNamespaceUsage(ctx, namespace, visibility, delta)
}

// Reserve admits size bytes and records a reservation held until the
// upload is verified or the TTL passes. Returns the reservation id.
func (e *Engine) Reserve(ctx context.Context, namespace, visibility, repoID, oid string, size int64) (string, error) {
	lock := e.nsLock(namespace)
	lock.Lock()
	defer lock.Unlock()

	if err := e.admitLocked(ctx, namespace, visibility, size); err != nil {
		return "", err
	}

	return e.store.CreateReservation(ctx, &models.StorageReservation{
		Namespace:  namespace,
		Visibility: visibility,
		RepoID:     repoID,
		OID:        oid,
		Size:       size,
		ExpiresAt:  time.Now().Add(e.resvTTL),
	})
}

// Release drops the reservations held for an object, either because verify
// settled the upload (and Apply took over the accounting) or because it
// failed.
func (e *Engine) Release(ctx context.Context, repoID, oid string) error {
	return e.store.ReleaseReservations(ctx, repoID, oid)
}

// PurgeExpired removes reservations past their deadline. Run periodically.
func (e *Engine) PurgeExpired(ctx context.Context) (int64, error) {
	return e.store.PurgeExpiredReservations(ctx, time.Now())
}

// Recompute rebuilds both usage counters from backend truth: the sum of
// entry sizes on every repo's default branch, attributed by the repo's
// current visibility. Returns the recomputed (private, public) usage.
func (e *Engine) Recompute(ctx context.Context, namespace string) (privateUsed, publicUsed int64, err error) {
	ctx, span := telemetry.StartSpan(ctx, "quota.recompute")
	defer span.End()
	telemetry.SetAttributes(ctx, telemetry.Namespace(namespace))

	lock := e.nsLock(namespace)
	lock.Lock()
	defer lock.Unlock()

	repos, err := e.store.ListRepos(ctx, store.RepoFilter{
		Namespace:  namespace,
		AllPrivate: true,
	})
	if err != nil {
		return 0, 0, err
	}

	for _, repo := range repos {
		size, usageErr := e.repoUsage(ctx, repo)
		if usageErr != nil {
			telemetry.RecordError(ctx, usageErr)
			return 0, 0, usageErr
		}
		if repo.Private {
			privateUsed += size
		} else {
			publicUsed += size
		}
	}

	if err := e.store.SetNamespaceUsage(ctx, namespace, privateUsed, publicUsed); err != nil {
		return 0, 0, err
	}

	logger.InfoCtx(ctx, "Recomputed namespace usage",
		"namespace", namespace,
		"private_used", privateUsed,
		"public_used", publicUsed,
		"repos", len(repos),
	)
	return privateUsed, publicUsed, nil
}

// RepoUsage returns the bytes a repository currently contributes to its
// namespace: the sum of entry sizes at the default branch head. LFS
// entries count their full object size.
func (e *Engine) RepoUsage(ctx context.Context, repo *models.Repository) (int64, error) {
	lock := e.nsLock(repo.Namespace)
	lock.Lock()
	defer lock.Unlock()
	return e.repoUsage(ctx, repo)
}

// repoUsage sums a repo's tree with the namespace lock held.
func (e *Engine) repoUsage(ctx context.Context, repo *models.Repository) (int64, error) {
	backendRepo := lakefs.RepoName(repo.RepoType, repo.Namespace, repo.Name)
	entries, err := e.trees.ListAllObjects(ctx, backendRepo, models.DefaultBranch, "")
	if err != nil {
		return 0, err
	}

	var total int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		total += entry.SizeBytes
	}
	return total, nil
}

// MoveVisibility moves a repository's contribution between the private and
// public counters of its namespace. The repo's tree is re-measured so the
// swap also repairs any drift for this repo. The sum of the two counters
// is preserved.
func (e *Engine) MoveVisibility(ctx context.Context, repo *models.Repository, toPrivate bool) error {
	if repo.Private == toPrivate {
		return nil
	}

	lock := e.nsLock(repo.Namespace)
	lock.Lock()
	defer lock.Unlock()

	size, err := e.repoUsage(ctx, repo)
	if err != nil {
		return err
	}

	from, to := models.VisibilityPublic, models.VisibilityPrivate
	if !toPrivate {
		from, to = to, from
	}

	if err := e.store.ApplyNamespaceUsage(ctx, repo.Namespace, from, -size); err != nil {
		return err
	}
	return e.store.ApplyNamespaceUsage(ctx, repo.Namespace, to, size)
}
