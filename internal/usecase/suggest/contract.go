package suggest

import "context"

// Reader looks up the persisted suggestions for a prefix.
type Reader interface {
	Get(ctx context.Context, prefix string) ([]string, error)
}
