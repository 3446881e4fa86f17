package lfs

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kohakuhub/kohakuhub/internal/logger"
	"github.com/kohakuhub/kohakuhub/internal/telemetry"
	"github.com/kohakuhub/kohakuhub/pkg/blobstore"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
)

// TransferBasic is the only transfer adapter the server offers.
const TransferBasic = "basic"

// BatchRequest is the Git LFS batch API request body.
type BatchRequest struct {
	Operation string       `json:"operation"`
	Transfers []string     `json:"transfers,omitempty"`
	Ref       *BatchRef    `json:"ref,omitempty"`
	Objects   []ObjectSpec `json:"objects"`
	HashAlgo  string       `json:"hash_algo,omitempty"`
}

// BatchRef names the ref the batch belongs to.
type BatchRef struct {
	Name string `json:"name"`
}

// ObjectSpec identifies one object in a batch request.
type ObjectSpec struct {
	OID  string `json:"oid"`
	Size int64  `json:"size"`
}

// Action is one transfer action (upload, download, verify).
type Action struct {
	Href      string            `json:"href"`
	Header    map[string]string `json:"header,omitempty"`
	ExpiresIn int               `json:"expires_in,omitempty"`
	ExpiresAt *time.Time        `json:"expires_at,omitempty"`
}

// ObjectError is a per-object batch failure.
type ObjectError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ObjectResponse is one object in a batch response.
type ObjectResponse struct {
	OID           string             `json:"oid"`
	Size          int64              `json:"size"`
	Authenticated bool               `json:"authenticated"`
	Actions       map[string]*Action `json:"actions,omitempty"`
	Error         *ObjectError       `json:"error,omitempty"`
}

// BatchResponse is the Git LFS batch API response body.
type BatchResponse struct {
	Transfer string           `json:"transfer"`
	Objects  []ObjectResponse `json:"objects"`
	HashAlgo string           `json:"hash_algo"`
}

// Batch answers a Git LFS batch request for one repository. Permission
// checks happen in the handler; the service assumes the caller may
// perform req.Operation.
func (s *Service) Batch(ctx context.Context, repo *models.Repository, req *BatchRequest) (*BatchResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "lfs.batch")
	defer span.End()
	telemetry.SetAttributes(ctx,
		telemetry.Operation(req.Operation),
		telemetry.RepoID(repo.FullID),
		telemetry.Count(len(req.Objects)),
	)

	if req.Operation != "upload" && req.Operation != "download" {
		return nil, fmt.Errorf("%w: unknown operation %q", models.ErrValidation, req.Operation)
	}

	resp := &BatchResponse{
		Transfer: TransferBasic,
		Objects:  make([]ObjectResponse, 0, len(req.Objects)),
		HashAlgo: "sha256",
	}
	dedup := 0
	for _, spec := range req.Objects {
		var obj ObjectResponse
		if req.Operation == "upload" {
			obj = s.uploadObject(ctx, repo, spec, &dedup)
		} else {
			obj = s.downloadObject(ctx, repo, spec)
		}
		resp.Objects = append(resp.Objects, obj)
	}

	if s.cfg.Metrics != nil {
		s.cfg.Metrics.ObserveBatch(req.Operation, len(req.Objects), dedup)
	}
	return resp, nil
}

// downloadObject builds the response for one download spec.
func (s *Service) downloadObject(ctx context.Context, repo *models.Repository, spec ObjectSpec) ObjectResponse {
	obj := ObjectResponse{OID: spec.OID, Size: spec.Size, Authenticated: true}
	if !ValidOID(spec.OID) {
		obj.Error = &ObjectError{Code: http.StatusUnprocessableEntity, Message: "malformed oid"}
		return obj
	}

	key := KeyForOID(spec.OID)
	exists, err := s.blobs.Exists(ctx, key)
	if err != nil {
		obj.Error = &ObjectError{Code: http.StatusInternalServerError, Message: "storage unavailable"}
		return obj
	}
	if !exists {
		obj.Error = &ObjectError{Code: http.StatusNotFound, Message: "object does not exist"}
		return obj
	}

	presigned, err := s.blobs.PresignDownload(ctx, key, blobstore.DownloadOptions{TTL: s.cfg.PresignTTL})
	if err != nil {
		obj.Error = &ObjectError{Code: http.StatusInternalServerError, Message: "failed to sign download"}
		return obj
	}
	obj.Actions = map[string]*Action{
		"download": s.action(presigned),
	}
	return obj
}

// uploadObject builds the response for one upload spec: dedup hit, plain
// presigned PUT, or multipart above the threshold.
func (s *Service) uploadObject(ctx context.Context, repo *models.Repository, spec ObjectSpec, dedup *int) ObjectResponse {
	obj := ObjectResponse{OID: spec.OID, Size: spec.Size, Authenticated: true}
	if !ValidOID(spec.OID) || spec.Size < 0 {
		obj.Error = &ObjectError{Code: http.StatusUnprocessableEntity, Message: "malformed object spec"}
		return obj
	}

	key := KeyForOID(spec.OID)
	exists, err := s.blobs.Exists(ctx, key)
	if err != nil {
		obj.Error = &ObjectError{Code: http.StatusInternalServerError, Message: "storage unavailable"}
		return obj
	}
	if exists {
		// Content-addressed dedup: nothing to transfer, no actions.
		*dedup++
		if err := s.store.RecordLFSObject(ctx, repo.ID, spec.OID, "", spec.Size); err != nil {
			logger.WarnCtx(ctx, "Failed to record dedup hit", "oid", spec.OID, "error", err)
		}
		return obj
	}

	if _, err := s.quotas.Reserve(ctx, repo.Namespace, models.VisibilityOf(repo.Private), repo.ID, spec.OID, spec.Size); err != nil {
		if qe, ok := models.IsQuotaExceeded(err); ok {
			obj.Error = &ObjectError{
				Code:    http.StatusRequestEntityTooLarge,
				Message: qe.Error(),
			}
			return obj
		}
		obj.Error = &ObjectError{Code: http.StatusInternalServerError, Message: "quota admission failed"}
		return obj
	}

	if spec.Size > s.cfg.MultipartThreshold {
		return s.multipartUpload(ctx, repo, spec, obj)
	}

	presigned, err := s.blobs.PresignUpload(ctx, key, blobstore.UploadOptions{
		TTL:    s.cfg.PresignTTL,
		SHA256: spec.OID,
	})
	if err != nil {
		obj.Error = &ObjectError{Code: http.StatusInternalServerError, Message: "failed to sign upload"}
		return obj
	}
	obj.Actions = map[string]*Action{
		"upload": s.action(presigned),
		"verify": s.verifyAction(repo),
	}
	return obj
}

// multipartUpload initiates a multipart transfer: the upload action's
// header carries zero-padded part numbers mapped to presigned URLs plus
// the chunk size, and its href points at the completion endpoint.
func (s *Service) multipartUpload(ctx context.Context, repo *models.Repository, spec ObjectSpec, obj ObjectResponse) ObjectResponse {
	key := KeyForOID(spec.OID)
	partCount := int((spec.Size + s.cfg.PartSize - 1) / s.cfg.PartSize)

	mu, err := s.blobs.CreateMultipart(ctx, key, partCount, s.cfg.PartSize, s.cfg.PresignTTL, "")
	if err != nil {
		obj.Error = &ObjectError{Code: http.StatusInternalServerError, Message: "failed to initiate multipart upload"}
		return obj
	}

	header := make(map[string]string, len(mu.PartURLs)+1)
	for i, partURL := range mu.PartURLs {
		header[fmt.Sprintf("%05d", i+1)] = partURL
	}
	header["chunk_size"] = strconv.FormatInt(s.cfg.PartSize, 10)

	expiresAt := mu.ExpiresAt
	obj.Actions = map[string]*Action{
		"upload": {
			Href:      s.completeURL(repo, spec, mu.UploadID),
			Header:    header,
			ExpiresAt: &expiresAt,
		},
		"verify": s.verifyAction(repo),
	}
	return obj
}

// action converts a presigned request into a batch action.
func (s *Service) action(presigned *blobstore.PresignedRequest) *Action {
	header := make(map[string]string, len(presigned.Header))
	for name, value := range presigned.Header {
		header[name] = value
	}
	expiresAt := presigned.ExpiresAt
	return &Action{
		Href:      presigned.URL,
		Header:    header,
		ExpiresAt: &expiresAt,
	}
}

// verifyAction points the client at the verify endpoint for this repo.
func (s *Service) verifyAction(repo *models.Repository) *Action {
	return &Action{
		Href:      fmt.Sprintf("%s/api/%s/%s.git/info/lfs/verify", s.cfg.BaseURL, repo.Type().Plural(), repo.FullID),
		ExpiresIn: int(s.cfg.PresignTTL.Seconds()),
	}
}

// completeURL builds the multipart completion href carrying everything
// the completion handler needs.
func (s *Service) completeURL(repo *models.Repository, spec ObjectSpec, uploadID string) string {
	q := url.Values{}
	q.Set("oid", spec.OID)
	q.Set("size", strconv.FormatInt(spec.Size, 10))
	q.Set("uploadId", uploadID)
	return fmt.Sprintf("%s/api/%s/%s.git/info/lfs/multipart/complete?%s",
		s.cfg.BaseURL, repo.Type().Plural(), repo.FullID, q.Encode())
}
