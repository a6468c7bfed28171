// Package suggestbuild rebuilds the persisted prefix suggestion entries from
// the label counts, one letter at a time so only a single letter's working
// set is ever held in memory.
package suggestbuild

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bluestone/imagetag/internal/domain"
	"github.com/bluestone/imagetag/internal/domain/suggest"
	"github.com/bluestone/imagetag/internal/metrics"
	"github.com/bluestone/imagetag/internal/repository/labelcount"
	"github.com/bluestone/imagetag/internal/repository/suggestion"
)

const letters = "abcdefghijklmnopqrstuvwxyz"

// Report summarizes one rebuild run. Letters whose sync failed are listed;
// the run itself still counts as a success.
type Report struct {
	Message       string   `json:"message"`
	FailedLetters []string `json:"failed_letters,omitempty"`
	Updated       int      `json:"updated"`
	Deleted       int      `json:"deleted"`
}

// Service rebuilds prefix suggestions from label counts.
type Service struct {
	counts         CountSource
	store          SuggestionStore
	maxSuggestions int
	maxPrefixLen   int
	logger         *zap.Logger

	running sync.Mutex
}

// New creates a suggestion build service. Non-positive bounds fall back to
// the defaults.
func New(counts CountSource, store SuggestionStore, maxSuggestions, maxPrefixLen int, logger *zap.Logger) *Service {
	if maxSuggestions <= 0 {
		maxSuggestions = suggest.DefaultMaxSuggestions
	}
	if maxPrefixLen <= 0 {
		maxPrefixLen = suggest.DefaultMaxPrefixLength
	}
	return &Service{
		counts:         counts,
		store:          store,
		maxSuggestions: maxSuggestions,
		maxPrefixLen:   maxPrefixLen,
		logger:         logger,
	}
}

// Run walks the letters a..z strictly sequentially. Per letter: query counts,
// build and fold the index, then reconcile the persisted entries. A letter
// whose counts are unreadable is skipped silently; a letter whose sync fails
// lands in FailedLetters. Only context cancellation aborts the run. A run
// already in flight rejects the new one.
func (s *Service) Run(ctx context.Context) (Report, error) {
	if !s.running.TryLock() {
		return Report{}, domain.ErrBuildInProgress
	}
	defer s.running.Unlock()

	start := time.Now()
	var report Report
	for _, r := range letters {
		letter := string(r)

		res := s.counts.ByLetter(ctx, letter)
		switch res.Status {
		case labelcount.StatusFatal:
			return report, fmt.Errorf("query counts for %q: %w", letter, res.Err)
		case labelcount.StatusNoData:
			continue
		}

		// A successful scan with zero labels still syncs: the empty index
		// prunes every persisted prefix of a letter that emptied out.
		index := s.compute(res.Labels)
		updated, deleted, err := s.sync(ctx, letter, index)
		if err != nil {
			s.logger.Error("failed to sync letter",
				zap.String("letter", letter), zap.Error(err))
			metrics.SuggestLettersFailed.Inc()
			report.FailedLetters = append(report.FailedLetters, letter)
			continue
		}
		report.Updated += updated
		report.Deleted += deleted
	}

	report.Message = "prefix suggestions updated"
	metrics.SuggestBuildDuration.Observe(time.Since(start).Seconds())
	metrics.SuggestPrefixesUpdated.Add(float64(report.Updated))
	metrics.SuggestPrefixesDeleted.Add(float64(report.Deleted))
	metrics.SuggestBuildLastSuccess.SetToCurrentTime()

	s.logger.Info("prefix suggestions rebuilt",
		zap.Int("updated", report.Updated),
		zap.Int("deleted", report.Deleted),
		zap.Strings("failed_letters", report.FailedLetters),
		zap.Duration("elapsed", time.Since(start)))
	return report, nil
}

// compute builds and folds the per-letter index. Malformed count records are
// logged and skipped, never aborting the letter.
func (s *Service) compute(labels []domain.LabelCount) *suggest.Index {
	ix := suggest.NewIndex(s.maxPrefixLen, s.maxSuggestions)
	for _, lc := range labels {
		if err := ix.Add(lc.Name, lc.Count); err != nil {
			s.logger.Warn("skipping invalid label count",
				zap.String("label", lc.Name), zap.Int("count", lc.Count), zap.Error(err))
		}
	}
	ix.Fold()
	return ix
}

// sync reconciles the persisted entries for a letter with the fresh index:
// upsert every non-empty entry, then prune persisted prefixes the index no
// longer knows. Losing the existing prefix listing fails the letter, since
// pruning without it would leave stale entries behind. Per-item batch
// failures are logged and counted but never escalate.
func (s *Service) sync(ctx context.Context, letter string, ix *suggest.Index) (updated, deleted int, err error) {
	existing, err := s.store.PrefixesByLetter(ctx, letter)
	if err != nil {
		return 0, 0, fmt.Errorf("list existing prefixes: %w", err)
	}

	var entries []suggestion.Entry
	for length := 1; length <= ix.MaxPrefixLength(); length++ {
		for prefix, node := range ix.Level(length) {
			if node.Len() == 0 {
				continue
			}
			entries = append(entries, suggestion.Entry{Prefix: prefix, Suggestions: node.Names()})
		}
	}
	okPut, failedPut := s.store.PutBatch(ctx, entries)

	var obsolete []string
	for _, p := range existing {
		trimmed := suggest.Truncate(p, ix.MaxPrefixLength())
		if trimmed == "" {
			continue
		}
		if !ix.Contains(trimmed) {
			obsolete = append(obsolete, p)
		}
	}
	okDel, failedDel := s.store.DeleteBatch(ctx, obsolete)

	if failedPut+failedDel > 0 {
		s.logger.Warn("partial sync for letter",
			zap.String("letter", letter),
			zap.Int("failed_updates", failedPut),
			zap.Int("failed_deletes", failedDel))
	}
	return okPut, okDel, nil
}
