package logger

// Standard field keys for structured logging. Use these consistently across
// packages so logs aggregate and query cleanly.
const (
	// Distributed tracing
	KeyTraceID   = "trace_id"
	KeySpanID    = "span_id"
	KeyRequestID = "request_id"

	// HTTP surface
	KeyMethod     = "method"
	KeyPath       = "path"
	KeyStatus     = "status"
	KeyClientIP   = "client_ip"
	KeyUserAgent  = "user_agent"
	KeyDurationMs = "duration_ms"

	// Principals and namespaces
	KeyUser      = "user"
	KeyOrg       = "org"
	KeyNamespace = "namespace"
	KeyRole      = "role"

	// Repositories
	KeyRepoType = "repo_type"
	KeyRepo     = "repo"
	KeyRevision = "revision"
	KeyBranch   = "branch"
	KeyCommitID = "commit_id"

	// Content addressing
	KeyOID        = "oid"
	KeySize       = "size"
	KeyUploadID   = "upload_id"
	KeyUploadMode = "upload_mode"
	KeyPartNumber = "part"

	// Blob store
	KeyBucket = "bucket"
	KeyKey    = "key"

	// Generic operation metadata
	KeyOperation = "operation"
	KeyError     = "error"
	KeyAttempt   = "attempt"
	KeyCount     = "count"

	// Fallback proxy
	KeySource   = "source"
	KeyCacheHit = "cache_hit"

	// Quota
	KeyRequested  = "requested"
	KeyAvailable  = "available"
	KeyVisibility = "visibility"
)
