// Package suggest serves typeahead lookups against the persisted prefix
// suggestion entries.
package suggest

import (
	"context"
	"fmt"
	"strings"

	"github.com/bluestone/imagetag/internal/domain"
	domsuggest "github.com/bluestone/imagetag/internal/domain/suggest"
)

// Service handles prefix suggestion lookups.
type Service struct {
	reader       Reader
	maxPrefixLen int
}

// New creates a suggestion lookup service.
func New(reader Reader, maxPrefixLen int) *Service {
	if maxPrefixLen <= 0 {
		maxPrefixLen = domsuggest.DefaultMaxPrefixLength
	}
	return &Service{reader: reader, maxPrefixLen: maxPrefixLen}
}

// Lookup normalizes the prefix (lowercased, truncated to the indexed
// maximum) and returns its suggestions. An unknown prefix yields an empty
// list; an empty prefix is rejected.
func (s *Service) Lookup(ctx context.Context, prefix string) ([]string, error) {
	p := strings.ToLower(strings.TrimSpace(prefix))
	if p == "" {
		return nil, domain.ErrInvalidPrefix
	}
	p = domsuggest.Truncate(p, s.maxPrefixLen)

	suggestions, err := s.reader.Get(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("lookup suggestions: %w", err)
	}
	return suggestions, nil
}
