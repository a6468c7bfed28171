package image

import (
	"context"

	"github.com/bluestone/imagetag/internal/domain"
)

// Repository defines the storage contract for image blobs.
type Repository interface {
	Put(ctx context.Context, img domain.Image) error
	Get(ctx context.Context, name string) (domain.Image, error)
	Exists(ctx context.Context, name string) (bool, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context, cursor string, limit int) (names []string, nextCursor string, err error)
}

// Labeling runs the labeling pipeline and its cleanup.
type Labeling interface {
	Label(ctx context.Context, img domain.Image) (domain.LabelDocument, error)
	Remove(ctx context.Context, name string) error
}
