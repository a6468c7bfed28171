// Package label runs the image labeling pipeline: detect labels, persist
// the document, and keep the corpus-wide counts in step.
package label

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bluestone/imagetag/internal/domain"
)

// Service handles image labeling and label document access.
type Service struct {
	detector Detector
	docs     DocumentStore
	counts   Counter
	now      func() time.Time
	logger   *zap.Logger
}

// New creates a labeling service.
func New(detector Detector, docs DocumentStore, counts Counter, logger *zap.Logger) *Service {
	return &Service{
		detector: detector,
		docs:     docs,
		counts:   counts,
		now:      time.Now,
		logger:   logger,
	}
}

// Label detects labels for an image, persists the document and increments
// each label's count (lowercased). A count increment failure is logged but
// never fails the pipeline: the counts converge on the next rebuild cycle.
func (s *Service) Label(ctx context.Context, img domain.Image) (domain.LabelDocument, error) {
	labels, err := s.detector.DetectLabels(ctx, img.Data, img.ContentType)
	if err != nil {
		return domain.LabelDocument{}, fmt.Errorf("detect labels: %w", err)
	}

	doc := domain.LabelDocument{
		Image:     img.Name,
		Timestamp: s.now().UTC(),
		Labels:    labels,
	}
	if err := s.docs.PutLabels(ctx, doc); err != nil {
		return domain.LabelDocument{}, fmt.Errorf("persist label document: %w", err)
	}

	for _, l := range labels {
		name := strings.ToLower(l.Name)
		if _, err := s.counts.Incr(ctx, name, 1); err != nil {
			s.logger.Warn("failed to increment label count",
				zap.String("image", img.Name), zap.String("label", name), zap.Error(err))
		}
	}
	return doc, nil
}

// Get returns the label document for an image.
func (s *Service) Get(ctx context.Context, name string) (domain.LabelDocument, error) {
	doc, err := s.docs.GetLabels(ctx, name)
	if err != nil {
		return domain.LabelDocument{}, fmt.Errorf("get label document: %w", err)
	}
	return doc, nil
}

// Remove deletes the label document for an image and decrements its counts.
// A missing document is fine: the image was never labeled.
func (s *Service) Remove(ctx context.Context, name string) error {
	doc, err := s.docs.GetLabels(ctx, name)
	if errors.Is(err, domain.ErrLabelsNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get label document: %w", err)
	}

	for _, l := range doc.Labels {
		lname := strings.ToLower(l.Name)
		if _, err := s.counts.Incr(ctx, lname, -1); err != nil {
			s.logger.Warn("failed to decrement label count",
				zap.String("image", name), zap.String("label", lname), zap.Error(err))
		}
	}

	if err := s.docs.DeleteLabels(ctx, name); err != nil {
		return fmt.Errorf("delete label document: %w", err)
	}
	return nil
}
