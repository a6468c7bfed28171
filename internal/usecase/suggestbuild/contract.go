package suggestbuild

import (
	"context"

	"github.com/bluestone/imagetag/internal/repository/labelcount"
	"github.com/bluestone/imagetag/internal/repository/suggestion"
)

// CountSource reads the per-letter label counts.
type CountSource interface {
	ByLetter(ctx context.Context, letter string) labelcount.QueryResult
}

// SuggestionStore persists computed prefix suggestions.
type SuggestionStore interface {
	PrefixesByLetter(ctx context.Context, letter string) ([]string, error)
	PutBatch(ctx context.Context, entries []suggestion.Entry) (ok, failed int)
	DeleteBatch(ctx context.Context, prefixes []string) (ok, failed int)
}
