package label

import (
	"context"

	"github.com/bluestone/imagetag/internal/domain"
)

// Detector produces labels for an image through the vision provider.
type Detector interface {
	DetectLabels(ctx context.Context, data []byte, contentType string) ([]domain.Label, error)
}

// DocumentStore persists per-image label documents.
type DocumentStore interface {
	PutLabels(ctx context.Context, doc domain.LabelDocument) error
	GetLabels(ctx context.Context, name string) (domain.LabelDocument, error)
	DeleteLabels(ctx context.Context, name string) error
}

// Counter maintains the corpus-wide label occurrence counts.
type Counter interface {
	Incr(ctx context.Context, label string, delta int64) (int64, error)
}
