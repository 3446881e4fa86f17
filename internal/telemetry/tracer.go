package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys, following OpenTelemetry semantic conventions where
// applicable. Hub-specific keys use their component prefix.
const (
	// Client attributes
	AttrClientIP   = "client.ip"
	AttrClientAddr = "client.address"

	// Repository attributes
	AttrRepoType = "repo.type" // model, dataset, space
	AttrRepoID   = "repo.id"   // namespace/name
	AttrRevision = "repo.revision"
	AttrBranch   = "repo.branch"
	AttrCommitID = "repo.commit_id"
	AttrPath     = "repo.path"

	// LFS attributes
	AttrOID        = "lfs.oid"
	AttrSize       = "lfs.size"
	AttrUploadMode = "lfs.upload_mode"
	AttrPartCount  = "lfs.part_count"

	// Git bridge attributes
	AttrGitService  = "git.service" // git-upload-pack, git-receive-pack
	AttrPackObjects = "git.pack_objects"
	AttrPackBytes   = "git.pack_bytes"

	// Blob store attributes
	AttrBucket = "storage.bucket"
	AttrKey    = "storage.key"
	AttrRegion = "storage.region"

	// Branch/commit backend attributes
	AttrLakeFSRepo = "lakefs.repository"
	AttrLakeFSRef  = "lakefs.ref"

	// Quota attributes
	AttrNamespace  = "quota.namespace"
	AttrVisibility = "quota.visibility"
	AttrRequested  = "quota.requested"

	// Fallback attributes
	AttrSource   = "fallback.source"
	AttrCacheHit = "cache.hit"

	// User/Auth attributes
	AttrUsername = "user.name"
	AttrAuth     = "auth.method"

	// Generic operation attributes
	AttrOperation = "hub.operation"
	AttrCount     = "hub.count"
)

// Span names. Format: <component>.<operation>.
const (
	SpanCommitCreate  = "commit.create"
	SpanCommitParse   = "commit.parse"
	SpanLFSBatch      = "lfs.batch"
	SpanLFSVerify     = "lfs.verify"
	SpanLFSGC         = "lfs.gc"
	SpanGitAdvertise  = "git.advertise"
	SpanGitUploadPack = "git.upload_pack"
	SpanPackBuild     = "pack.build"
	SpanResolve       = "resolve.redirect"
	SpanQuotaAdmit    = "quota.admit"
	SpanQuotaRecount  = "quota.recompute"
	SpanFallbackProbe = "fallback.probe"
)

// ClientIP returns an attribute for client IP address
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// RepoType returns an attribute for the repository type
func RepoType(t string) attribute.KeyValue {
	return attribute.String(AttrRepoType, t)
}

// RepoID returns an attribute for the namespace/name repository id
func RepoID(id string) attribute.KeyValue {
	return attribute.String(AttrRepoID, id)
}

// Revision returns an attribute for the requested revision
func Revision(rev string) attribute.KeyValue {
	return attribute.String(AttrRevision, rev)
}

// Branch returns an attribute for the branch name
func Branch(name string) attribute.KeyValue {
	return attribute.String(AttrBranch, name)
}

// CommitID returns an attribute for a commit id
func CommitID(id string) attribute.KeyValue {
	return attribute.String(AttrCommitID, id)
}

// Path returns an attribute for an in-repo path
func Path(p string) attribute.KeyValue {
	return attribute.String(AttrPath, p)
}

// OID returns an attribute for an LFS object id
func OID(oid string) attribute.KeyValue {
	return attribute.String(AttrOID, oid)
}

// Size returns an attribute for a byte size
func Size(n int64) attribute.KeyValue {
	return attribute.Int64(AttrSize, n)
}

// UploadMode returns an attribute for the preupload classification
func UploadMode(mode string) attribute.KeyValue {
	return attribute.String(AttrUploadMode, mode)
}

// GitService returns an attribute for the smart HTTP service name
func GitService(svc string) attribute.KeyValue {
	return attribute.String(AttrGitService, svc)
}

// PackObjects returns an attribute for the number of objects in a pack
func PackObjects(n int) attribute.KeyValue {
	return attribute.Int(AttrPackObjects, n)
}

// Bucket returns an attribute for S3 bucket name
func Bucket(name string) attribute.KeyValue {
	return attribute.String(AttrBucket, name)
}

// StorageKey returns an attribute for S3 object key
func StorageKey(key string) attribute.KeyValue {
	return attribute.String(AttrKey, key)
}

// Region returns an attribute for cloud region
func Region(region string) attribute.KeyValue {
	return attribute.String(AttrRegion, region)
}

// LakeFSRepo returns an attribute for the backend repository name
func LakeFSRepo(name string) attribute.KeyValue {
	return attribute.String(AttrLakeFSRepo, name)
}

// LakeFSRef returns an attribute for the backend ref
func LakeFSRef(ref string) attribute.KeyValue {
	return attribute.String(AttrLakeFSRef, ref)
}

// Namespace returns an attribute for a quota namespace
func Namespace(ns string) attribute.KeyValue {
	return attribute.String(AttrNamespace, ns)
}

// Visibility returns an attribute for quota visibility (private/public)
func Visibility(v string) attribute.KeyValue {
	return attribute.String(AttrVisibility, v)
}

// Source returns an attribute for a fallback source name
func Source(name string) attribute.KeyValue {
	return attribute.String(AttrSource, name)
}

// CacheHit returns an attribute for cache hit indicator
func CacheHit(hit bool) attribute.KeyValue {
	return attribute.Bool(AttrCacheHit, hit)
}

// Username returns an attribute for username
func Username(name string) attribute.KeyValue {
	return attribute.String(AttrUsername, name)
}

// Operation returns an attribute for a generic operation name
func Operation(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// Count returns an attribute for a generic count
func Count(n int) attribute.KeyValue {
	return attribute.Int(AttrCount, n)
}

// StartS3Span starts a span for a blob store operation.
func StartS3Span(ctx context.Context, operation, bucket, key string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{Bucket(bucket)}
	if key != "" {
		allAttrs = append(allAttrs, StorageKey(key))
	}
	allAttrs = append(allAttrs, attrs...)
	return StartSpan(ctx, "s3."+operation, trace.WithAttributes(allAttrs...))
}

// StartLakeFSSpan starts a span for a branch/commit backend operation.
func StartLakeFSSpan(ctx context.Context, operation, repo string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{LakeFSRepo(repo)}
	allAttrs = append(allAttrs, attrs...)
	return StartSpan(ctx, "lakefs."+operation, trace.WithAttributes(allAttrs...))
}

// StartRepoSpan starts a span for a repository-scoped hub operation.
func StartRepoSpan(ctx context.Context, name, repoType, repoID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{RepoType(repoType), RepoID(repoID)}
	allAttrs = append(allAttrs, attrs...)
	return StartSpan(ctx, name, trace.WithAttributes(allAttrs...))
}
