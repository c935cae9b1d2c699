package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/addy2510/policymanager/model"
	"github.com/addy2510/policymanager/pkg/logger"
)

// Upload is an incoming document as declared by the client
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ArtifactService validates, stores and resolves policy documents
type ArtifactService struct {
	policies  PolicyStore
	artifacts ArtifactStore
	blobs     BlobStore
	maxSize   int64
	now       func() time.Time
}

func NewArtifactService(policies PolicyStore, artifacts ArtifactStore, blobs BlobStore, maxSize int64, now func() time.Time) *ArtifactService {
	if now == nil {
		now = time.Now
	}
	return &ArtifactService{
		policies:  policies,
		artifacts: artifacts,
		blobs:     blobs,
		maxSize:   maxSize,
		now:       now,
	}
}

// MaxSize is the largest accepted artifact in bytes
func (s *ArtifactService) MaxSize() int64 { return s.maxSize }

// ValidateIntake runs the type and size checks independently. When both fail
// the joined error carries both, media type first.
func (s *ArtifactService) ValidateIntake(contentType string, size int64) error {
	var errs []error
	if !allowedContentType(contentType) {
		errs = append(errs, UnsupportedMediaType("Only PDF or image files are allowed"))
	}
	if size > s.maxSize {
		errs = append(errs, PayloadTooLarge("File exceeds maximum allowed size of %d bytes", s.maxSize))
	}
	return errors.Join(errs...)
}

func allowedContentType(ct string) bool {
	if strings.EqualFold(ct, model.ContentTypePDF) {
		return true
	}
	return strings.HasPrefix(strings.ToLower(ct), model.ContentTypeImage)
}

// Upload stores the document under the policy's namespace and records it.
func (s *ArtifactService) Upload(ctx context.Context, policyNo int64, up Upload) (*model.Artifact, error) {
	if err := s.ValidateIntake(up.ContentType, up.Size); err != nil {
		return nil, err
	}
	ok, err := s.policies.Exists(ctx, policyNo)
	if err != nil {
		return nil, fmt.Errorf("check policy %d: %w", policyNo, err)
	}
	if !ok {
		return nil, NotFound("Policy not found: %d", policyNo)
	}

	namespace := strconv.FormatInt(policyNo, 10)
	if err := s.blobs.EnsureNamespace(ctx, namespace); err != nil {
		return nil, fmt.Errorf("prepare namespace %s: %w", namespace, err)
	}

	now := s.now()
	name := StoredName(now, up.FileName)
	location, err := s.blobs.Put(ctx, namespace, name, up.Body, up.Size, up.ContentType)
	if err != nil {
		return nil, fmt.Errorf("store artifact: %w", err)
	}

	a := &model.Artifact{
		PolicyNo:    policyNo,
		FileName:    up.FileName,
		ContentType: up.ContentType,
		Size:        up.Size,
		Location:    location,
		UploadedAt:  now,
	}
	if err := s.artifacts.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("record artifact: %w", err)
	}

	logger.Info(ctx, "artifact stored",
		"policy_no", policyNo,
		"artifact_id", a.ID,
		"content_type", a.ContentType,
		"size", a.Size,
	)
	return a, nil
}

// StoredName is <unix millis>_<base name>. Two uploads of the same name in
// the same millisecond share it and the later one wins.
func StoredName(at time.Time, fileName string) string {
	return strconv.FormatInt(at.UnixMilli(), 10) + "_" + baseName(fileName)
}

func baseName(name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	if base == "." || base == "/" {
		return "file"
	}
	return base
}

// List pages through the artifacts of a policy
func (s *ArtifactService) List(ctx context.Context, policyNo int64, req model.PageRequest) (model.Page[model.Artifact], error) {
	page, err := s.artifacts.FindByPolicy(ctx, policyNo, req)
	if err != nil {
		return model.Page[model.Artifact]{}, fmt.Errorf("list artifacts of %d: %w", policyNo, err)
	}
	return page, nil
}

// Resolve returns the artifact if both its record and its blob still exist.
func (s *ArtifactService) Resolve(ctx context.Context, id int64) (*model.Artifact, error) {
	a, err := s.artifacts.Get(ctx, id)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, NotFound("Artifact not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load artifact %d: %w", id, err)
	}
	ok, err := s.blobs.Exists(ctx, a.Location)
	if err != nil {
		return nil, fmt.Errorf("check artifact %d: %w", id, err)
	}
	if !ok {
		return nil, NotFound("Artifact file missing: %d", id)
	}
	return a, nil
}

// Open resolves the artifact and opens its content. The caller closes it.
func (s *ArtifactService) Open(ctx context.Context, id int64) (*model.Artifact, io.ReadCloser, error) {
	a, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Open(ctx, a.Location)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, nil, NotFound("Artifact file missing: %d", id)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open artifact %d: %w", id, err)
	}
	return a, rc, nil
}
