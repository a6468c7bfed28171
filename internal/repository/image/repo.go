// Package image persists image blobs and their label documents in the KV
// store (hash per image, JSON document per label result).
package image

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bluestone/imagetag/internal/db"
	"github.com/bluestone/imagetag/internal/domain"
)

// store is the consumer interface for image persistence (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	ScanPage(ctx context.Context, cursor uint64, pattern string, count int64) ([]string, uint64, error)
}

// Repo implements image and label document persistence.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates an image repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// Put stores an image blob with its metadata.
func (r *Repo) Put(ctx context.Context, img domain.Image) error {
	key := r.imageKey(img.Name)
	fields := map[string]string{
		"data":         string(img.Data),
		"content_type": img.ContentType,
		"uploaded_at":  img.UploadedAt.UTC().Format(time.RFC3339),
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Get returns a stored image.
func (r *Repo) Get(ctx context.Context, name string) (domain.Image, error) {
	key := r.imageKey(name)
	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domain.Image{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(fields) == 0 {
		return domain.Image{}, domain.ErrImageNotFound
	}

	uploadedAt, _ := time.Parse(time.RFC3339, fields["uploaded_at"])
	return domain.Image{
		Name:        name,
		ContentType: fields["content_type"],
		Data:        []byte(fields["data"]),
		UploadedAt:  uploadedAt,
	}, nil
}

// Exists checks whether an image is stored.
func (r *Repo) Exists(ctx context.Context, name string) (bool, error) {
	ok, err := r.store.Exists(ctx, r.imageKey(name))
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", r.imageKey(name), err)
	}
	return ok, nil
}

// Delete removes an image blob. Deleting a missing image is not an error:
// the caller still needs to clean up labels and counts.
func (r *Repo) Delete(ctx context.Context, name string) error {
	key := r.imageKey(name)
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// List returns image names after the cursor, sorted ascending, at most limit.
// The next cursor is the last returned name, empty when the listing is done.
func (r *Repo) List(ctx context.Context, cursor string, limit int) ([]string, string, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := r.imageKey("") + "*"

	var names []string
	var scanCursor uint64
	for {
		page, next, err := r.store.ScanPage(ctx, scanCursor, pattern, 500)
		if err != nil {
			return nil, "", fmt.Errorf("scan images: %w", err)
		}
		for _, key := range page {
			names = append(names, strings.TrimPrefix(key, r.imageKey("")))
		}
		scanCursor = next
		if scanCursor == 0 {
			break
		}
	}
	sort.Strings(names)

	start := 0
	if cursor != "" {
		start = sort.SearchStrings(names, cursor)
		if start < len(names) && names[start] == cursor {
			start++
		}
	}

	end := start + limit
	if end > len(names) {
		end = len(names)
	}
	pageNames := names[start:end]

	var nextCursor string
	if end < len(names) && len(pageNames) > 0 {
		nextCursor = pageNames[len(pageNames)-1]
	}
	return pageNames, nextCursor, nil
}

// PutLabels persists the label document for an image.
func (r *Repo) PutLabels(ctx context.Context, doc domain.LabelDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal label document: %w", err)
	}
	key := r.labelsKey(doc.Image)
	if err := r.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// GetLabels returns the label document for an image.
func (r *Repo) GetLabels(ctx context.Context, name string) (domain.LabelDocument, error) {
	key := r.labelsKey(name)
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.LabelDocument{}, domain.ErrLabelsNotFound
		}
		return domain.LabelDocument{}, fmt.Errorf("get %s: %w", key, err)
	}

	var doc domain.LabelDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.LabelDocument{}, fmt.Errorf("unmarshal label document %s: %w", key, err)
	}
	return doc, nil
}

// DeleteLabels removes the label document for an image.
func (r *Repo) DeleteLabels(ctx context.Context, name string) error {
	key := r.labelsKey(name)
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

func (r *Repo) imageKey(name string) string {
	return r.keyPrefix + "image:" + name
}

func (r *Repo) labelsKey(name string) string {
	return r.keyPrefix + "labels:" + name
}
