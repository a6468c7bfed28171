package redis

import (
	"context"

	"github.com/bluestone/imagetag/internal/db"
)

// ScanPage runs a single SCAN step. The returned cursor is zero when the
// iteration is complete; callers drive the continuation loop.
func (s *Store) ScanPage(ctx context.Context, cursor uint64, pattern string, count int64) ([]string, uint64, error) {
	if count <= 0 {
		count = 100
	}

	cmd := s.b().Scan().Cursor(cursor).Match(pattern).Count(count).Build()
	res, err := s.do(ctx, cmd).AsScanEntry()
	if err != nil {
		return nil, 0, classify(db.OpScan, err)
	}
	return res.Elements, res.Cursor, nil
}
