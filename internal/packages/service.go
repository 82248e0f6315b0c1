package packages

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"scormhost/internal/blob"
	"scormhost/internal/domain"
	"scormhost/internal/observability"
	"scormhost/internal/validation"
)

// UploadInput carries one uploaded archive through the pipeline.
type UploadInput struct {
	FileName string
	Title    string
	CourseID string
	Content  []byte
}

// Service orchestrates validate, resolve, extract, and catalog for uploaded
// packages.
type Service struct {
	validator *validation.Validator
	blobs     blob.Store
	catalog   domain.Catalog
	logger    domain.Logger
	metrics   observability.Recorder
	now       func() time.Time
	newID     func() string
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger attaches a logger.
func WithLogger(logger domain.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics attaches an operation recorder.
func WithMetrics(rec observability.Recorder) Option {
	return func(s *Service) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

// WithClock overrides the timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithValidator overrides the default validator (e.g. custom size ceiling).
func WithValidator(v *validation.Validator) Option {
	return func(s *Service) {
		if v != nil {
			s.validator = v
		}
	}
}

// NewService constructs the upload pipeline over a blob store and catalog.
func NewService(blobs blob.Store, catalog domain.Catalog, opts ...Option) *Service {
	s := &Service{
		validator: validation.New(),
		blobs:     blobs,
		catalog:   catalog,
		logger:    domain.NopLogger{},
		metrics:   observability.NopRecorder{},
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload runs the full pipeline. Validation failures come back in the result
// with a zero record and nil error; only unexpected pipeline failures (blob
// or catalog I/O) surface as errors. No catalog row is ever written for a
// package whose extraction did not fully succeed.
func (s *Service) Upload(ctx context.Context, in UploadInput) (domain.PackageRecord, validation.Result, error) {
	start := s.now()
	record, result, err := s.upload(ctx, in)
	status := "succeeded"
	if err != nil || !result.IsValid {
		status = "failed"
	}
	s.metrics.RecordOperation("package_upload", status, s.now().Sub(start))
	return record, result, err
}

func (s *Service) upload(ctx context.Context, in UploadInput) (domain.PackageRecord, validation.Result, error) {
	result := s.validator.Validate(in.FileName, in.Content)
	if !result.IsValid {
		s.logger.Info("package rejected", "file", in.FileName, "errors", len(result.Errors))
		return domain.PackageRecord{}, result, nil
	}

	launchURL, err := result.Manifest.ResolveLaunchURL()
	if err != nil {
		// Syntactically valid but unlaunchable; surfaced as a rejection.
		result.IsValid = false
		result.Errors = append(result.Errors, err.Error())
		return domain.PackageRecord{}, result, nil
	}
	title := in.Title
	if title == "" {
		title = result.Manifest.ResolveTitle()
	}

	archive, err := zip.NewReader(bytes.NewReader(in.Content), int64(len(in.Content)))
	if err != nil {
		return domain.PackageRecord{}, result, fmt.Errorf("reopen archive: %w", err)
	}

	id := s.newID()
	prefix := "packages/" + id
	keys, err := Extract(ctx, s.blobs, archive, prefix)
	if err != nil {
		if _, cleanupErr := s.blobs.DeletePrefix(ctx, prefix); cleanupErr != nil {
			s.logger.Warn("cleanup after failed extraction", "prefix", prefix, "error", cleanupErr)
		}
		return domain.PackageRecord{}, result, fmt.Errorf("extract package: %w", err)
	}

	record := domain.PackageRecord{
		ID:          id,
		CourseID:    in.CourseID,
		Identifier:  result.Manifest.Identifier,
		Title:       title,
		Version:     result.Version,
		LaunchURL:   launchURL,
		StoragePath: prefix,
		SizeBytes:   result.SizeBytes,
		ManifestXML: string(result.RawManifest),
		CreatedAt:   s.now(),
	}
	if _, err := s.catalog.SavePackage(ctx, record); err != nil {
		if _, cleanupErr := s.blobs.DeletePrefix(ctx, prefix); cleanupErr != nil {
			s.logger.Warn("cleanup after failed catalog save", "prefix", prefix, "error", cleanupErr)
		}
		return domain.PackageRecord{}, result, fmt.Errorf("catalog package: %w", err)
	}

	s.logger.Info("package catalogued",
		"package_id", id, "course_id", in.CourseID, "version", record.Version,
		"launch_url", launchURL, "files", len(keys), "bytes", record.SizeBytes)
	return record, result, nil
}

// Get looks up a catalogued package.
func (s *Service) Get(ctx context.Context, id string) (domain.PackageRecord, bool, error) {
	return s.catalog.GetPackage(ctx, id)
}

// Delete removes the catalog row. Stored files are reclaimed by a separate
// cleanup path, and completed sessions keep their historical records.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	return s.catalog.DeletePackage(ctx, id)
}

// OpenContent serves one stored file of a catalogued package.
func (s *Service) OpenContent(ctx context.Context, record domain.PackageRecord, filePath string) (io.ReadCloser, error) {
	key, err := blob.SanitizeKey(record.StoragePath + "/" + filePath)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(key, record.StoragePath+"/") {
		return nil, fmt.Errorf("content path %q escapes package storage", filePath)
	}
	return s.blobs.Open(ctx, key)
}
