package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/kohakuhub/kohakuhub/internal/logger"
	"github.com/kohakuhub/kohakuhub/pkg/api/handlers"
	"github.com/kohakuhub/kohakuhub/pkg/api/middleware"
	"github.com/kohakuhub/kohakuhub/pkg/hub/auth"
	"github.com/kohakuhub/kohakuhub/pkg/metrics"
	promm "github.com/kohakuhub/kohakuhub/pkg/metrics/prometheus"
)

// repoTypes is the route pattern matching the typed URL prefix.
const repoTypes = "{type:models|datasets|spaces}"

// NewRouter builds the hub route table.
//
// The surface splits in two: /api carries the JSON control plane under a
// request timeout, while the git smart HTTP, LFS batch and resolve
// endpoints stream unbounded bodies and stay outside it. Git clients
// address repositories both with and without the type segment; typeless
// paths default to the model type.
func NewRouter(deps handlers.Deps, resolver *auth.Resolver, cfg APIConfig) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)
	if mw := promm.NewHTTPMiddleware(); mw != nil {
		r.Use(mw)
	}

	authn := middleware.NewAuthenticator(resolver)
	r.Use(authn.Optional)

	h := handlers.New(deps)

	// Ops surface - unauthenticated
	r.Get("/health", h.Liveness)
	r.Get("/health/ready", h.Readiness)
	if mh := metrics.Handler(); mh != nil {
		r.Handle("/metrics", mh)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(chimw.Timeout(cfg.RequestTimeout))

		r.Get("/version", h.Version)
		r.Post("/validate-yaml", h.ValidateYAML)
		r.Get("/whoami-v2", h.Whoami)

		r.Post("/auth/login", h.Login)
		r.Post("/auth/refresh", h.Refresh)
		r.Get("/auth/tokens", h.ListTokens)
		r.Post("/auth/tokens", h.CreateToken)
		r.Delete("/auth/tokens/{id}", h.DeleteToken)

		r.Post("/users/register", h.Register)
		r.Get("/users/{username}", h.GetUserProfile)

		r.Post("/user/keys", h.AddSSHKey)
		r.Get("/user/keys", h.ListSSHKeys)
		r.Delete("/user/keys/{id}", h.DeleteSSHKey)

		r.Post("/orgs/create", h.CreateOrg)
		r.Get("/orgs/{name}", h.GetOrg)
		r.Post("/orgs/{name}/members", h.AddMember)
		r.Put("/orgs/{name}/members/{username}", h.UpdateMemberRole)
		r.Delete("/orgs/{name}/members/{username}", h.RemoveMember)

		r.Post("/repos/create", h.CreateRepo)
		r.Delete("/repos/delete", h.DeleteRepo)
		r.Post("/repos/move", h.MoveRepo)
		r.Post("/repos/branches/create", h.CreateBranch)
		r.Post("/repos/branches/delete", h.DeleteBranch)
		r.Post("/repos/branches/revert", h.RevertBranch)
		r.Post("/repos/branches/reset", h.ResetBranch)
		r.Post("/repos/branches/cherry-pick", h.CherryPickBranch)

		r.Get("/quota/{namespace}", h.GetQuota)
		r.Put("/quota/{namespace}", h.UpdateQuota)
		r.Post("/quota/{namespace}/recalculate", h.RecalculateQuota)

		r.Post("/invitations/create", h.CreateInvitation)
		r.Post("/invitations/accept", h.AcceptInvitation)
		r.Get("/invitations", h.ListInvitations)
		r.Delete("/invitations/{token}", h.DeleteInvitation)

		r.Get("/admin/fallback-sources", h.ListFallbackSources)
		r.Post("/admin/fallback-sources", h.CreateFallbackSource)
		r.Put("/admin/fallback-sources/{name}", h.UpdateFallbackSource)
		r.Delete("/admin/fallback-sources/{name}", h.DeleteFallbackSource)

		r.Route("/"+repoTypes, func(r chi.Router) {
			r.Get("/", h.ListRepos)

			r.Route("/{namespace}/{name}", func(r chi.Router) {
				r.Get("/", h.RepoInfo)
				r.Get("/revision/{revision}", h.RepoInfo)
				r.Get("/tree/{revision}", h.Tree)
				r.Get("/tree/{revision}/*", h.Tree)
				r.Get("/refs", h.Refs)
				r.Get("/commits/{revision}", h.Commits)
				r.Post("/commit/{branch}", h.Commit)
				r.Post("/preupload/{revision}", h.Preupload)
				r.Get("/settings", h.GetSettings)
				r.Put("/settings", h.UpdateSettings)
				r.Post("/lfs/gc", h.LFSGC)
			})

			r.Post("/{namespace}/{name}.git/info/lfs/verify", h.LFSVerify)
			r.Post("/{namespace}/{name}.git/info/lfs/multipart/complete", h.LFSMultipartComplete)
		})
	})

	// Streaming surface: resolve redirects, LFS batch, git smart HTTP.
	r.Route("/"+repoTypes+"/{namespace}", func(r chi.Router) {
		r.Get("/{name}/resolve/{revision}/*", h.Resolve)
		r.Head("/{name}/resolve/{revision}/*", h.Resolve)
		mountGitRoutes(r, h)
	})

	// Typeless model paths, as used by hub clients and plain git remotes.
	r.Route("/{namespace}", func(r chi.Router) {
		r.Use(defaultRepoType("models"))
		r.Get("/{name}/resolve/{revision}/*", h.Resolve)
		r.Head("/{name}/resolve/{revision}/*", h.Resolve)
		mountGitRoutes(r, h)
	})

	return r
}

// mountGitRoutes attaches the smart HTTP and LFS batch endpoints under a
// {name}.git prefix.
func mountGitRoutes(r chi.Router, h *handlers.Handler) {
	r.Get("/{name}.git/info/refs", h.GitInfoRefs)
	r.Get("/{name}.git/HEAD", h.GitHead)
	r.Post("/{name}.git/git-upload-pack", h.GitUploadPack)
	r.Post("/{name}.git/git-receive-pack", h.GitReceivePack)
	r.Post("/{name}.git/info/lfs/objects/batch", h.LFSBatch)
}

// defaultRepoType injects a type URL param for routes without the type
// segment.
func defaultRepoType(repoType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				rctx.URLParams.Add("type", repoType)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger logs request start at DEBUG and completion at INFO.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := chimw.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.Info("API request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		)
	})
}
