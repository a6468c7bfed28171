// Package image handles image upload, retrieval and deletion, keeping the
// labeling pipeline in step with the stored blobs.
package image

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bluestone/imagetag/internal/domain"
)

// Service handles image CRUD with inline labeling.
type Service struct {
	repo            Repository
	labeling        Labeling
	maxUploadBytes  int64
	defaultPageSize int
	maxPageSize     int
	now             func() time.Time
	logger          *zap.Logger
}

// New creates an image service.
func New(repo Repository, labeling Labeling, logger *zap.Logger) *Service {
	return &Service{
		repo:            repo,
		labeling:        labeling,
		maxUploadBytes:  10 << 20,
		defaultPageSize: 20,
		maxPageSize:     100,
		now:             time.Now,
		logger:          logger,
	}
}

// WithUploadLimit configures the maximum accepted image size in bytes.
func (s *Service) WithUploadLimit(maxBytes int64) *Service {
	if maxBytes > 0 {
		s.maxUploadBytes = maxBytes
	}
	return s
}

// WithPagination configures page size limits.
func (s *Service) WithPagination(defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize > 0 {
		s.defaultPageSize = defaultPageSize
	}
	if maxPageSize > 0 {
		s.maxPageSize = maxPageSize
	}
	return s
}

// Upload validates and stores an image, then runs the labeling pipeline.
// A labeling failure does not undo the upload: the image stays stored
// without labels and can be relabeled later.
func (s *Service) Upload(ctx context.Context, name string, data []byte) (domain.Image, domain.LabelDocument, error) {
	if s.maxUploadBytes > 0 && int64(len(data)) > s.maxUploadBytes {
		return domain.Image{}, domain.LabelDocument{},
			fmt.Errorf("%w: %d bytes (limit %d)", domain.ErrImageTooLarge, len(data), s.maxUploadBytes)
	}

	img, err := domain.NewImage(name, data, s.now().UTC())
	if err != nil {
		return domain.Image{}, domain.LabelDocument{}, err
	}

	if err := s.repo.Put(ctx, img); err != nil {
		return domain.Image{}, domain.LabelDocument{}, fmt.Errorf("store image: %w", err)
	}

	doc, err := s.labeling.Label(ctx, img)
	if err != nil {
		s.logger.Warn("labeling failed, image stored without labels",
			zap.String("image", name), zap.Error(err))
		return img, domain.LabelDocument{}, nil
	}
	return img, doc, nil
}

// Get retrieves a stored image.
func (s *Service) Get(ctx context.Context, name string) (domain.Image, error) {
	img, err := s.repo.Get(ctx, name)
	if err != nil {
		return domain.Image{}, fmt.Errorf("get image: %w", err)
	}
	return img, nil
}

// List returns a paginated list of image names.
func (s *Service) List(ctx context.Context, cursor string, limit int) ([]string, string, error) {
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	names, nextCursor, err := s.repo.List(ctx, cursor, limit)
	if err != nil {
		return nil, "", fmt.Errorf("list images: %w", err)
	}
	return names, nextCursor, nil
}

// Delete removes an image, its label document and its count contributions.
func (s *Service) Delete(ctx context.Context, name string) error {
	ok, err := s.repo.Exists(ctx, name)
	if err != nil {
		return fmt.Errorf("check image: %w", err)
	}
	if !ok {
		return domain.ErrImageNotFound
	}

	if err := s.labeling.Remove(ctx, name); err != nil {
		return fmt.Errorf("remove labels: %w", err)
	}
	if err := s.repo.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}
