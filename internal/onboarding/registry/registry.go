// Package registry maintains the queryable view of records in flight:
// per-stage listing, operator search, and pagination over a refreshable
// snapshot of the record store.
package registry

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"induct/internal/onboarding/metrics"
	"induct/internal/onboarding/models"
	"induct/internal/onboarding/stages"
	"induct/internal/onboarding/store"
	dErrors "induct/pkg/domain-errors"
)

// Registry serves reads from an in-memory snapshot that Refresh swaps
// atomically. Callers refresh after any successful advance or provisioning
// so stage membership never goes stale.
type Registry struct {
	store   store.RecordStore
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu          sync.RWMutex
	snapshot    []*models.PersonnelRecord
	snapshotGen uint64
	gen         uint64

	flight singleflight.Group
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics publishes a per-stage record count gauge on every refresh.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// New creates a registry backed by the given record store. The snapshot
// starts empty; call Refresh before serving reads.
func New(recordStore store.RecordStore, opts ...Option) *Registry {
	r := &Registry{
		store:  recordStore,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Refresh re-fetches the authoritative set from the record store. Concurrent
// callers share one fetch, but a fetch already in flight may have read the
// store before this caller's mutation committed, so each call claims a
// generation and retries until the installed snapshot reaches it. A refresh
// issued after a committed mutation therefore always observes that mutation.
func (r *Registry) Refresh(ctx context.Context) error {
	r.mu.Lock()
	r.gen++
	want := r.gen
	r.mu.Unlock()

	for {
		_, err, _ := r.flight.Do("refresh", func() (any, error) {
			r.mu.RLock()
			gen := r.gen
			r.mu.RUnlock()

			records, err := r.store.ListAll(ctx)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, "record store unavailable")
			}

			r.mu.Lock()
			// An older fetch completing late must not clobber a newer snapshot.
			if gen > r.snapshotGen {
				r.snapshot = records
				r.snapshotGen = gen
				if r.metrics != nil {
					for stage, n := range tallyStages(records) {
						r.metrics.SetRecordsAtStage(stage, n)
					}
				}
			}
			r.mu.Unlock()

			r.logger.Debug("registry refreshed", "records", len(records))
			return nil, nil
		})
		if err != nil {
			return err
		}
		r.mu.RLock()
		reached := r.snapshotGen >= want
		r.mu.RUnlock()
		if reached {
			return nil
		}
	}
}

// tallyStages counts records per stage, including empty stages so the gauge
// drops back to zero when a stage clears out.
func tallyStages(records []*models.PersonnelRecord) []int {
	counts := make([]int, stages.Terminal+1)
	for _, record := range records {
		if record.Stage >= 0 && record.Stage <= stages.Terminal {
			counts[record.Stage]++
		}
	}
	return counts
}

// ListByStage returns the records eligible to advance into the given stage,
// i.e. those currently sitting one stage below it.
func (r *Registry) ListByStage(stage int) ([]*models.PersonnelRecord, error) {
	if !stages.IsValid(stage) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "stage out of range")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.PersonnelRecord
	for _, record := range r.snapshot {
		if record.Stage == stage-1 {
			out = append(out, record)
		}
	}
	return out, nil
}

// Search filters records by case-insensitive substring match on full name or
// email. It returns a fresh slice; the input is never mutated.
func Search(records []*models.PersonnelRecord, query string) []*models.PersonnelRecord {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return records
	}
	var out []*models.PersonnelRecord
	for _, record := range records {
		if strings.Contains(strings.ToLower(record.FullName), query) ||
			strings.Contains(strings.ToLower(record.Email), query) {
			out = append(out, record)
		}
	}
	return out
}

// Page is one window into a filtered record list.
type Page struct {
	Items      []*models.PersonnelRecord `json:"items"`
	Page       int                       `json:"page"`
	PageSize   int                       `json:"page_size"`
	TotalItems int                       `json:"total_items"`
	TotalPages int                       `json:"total_pages"`
}

// Paginate slices the list into 1-indexed pages. An out-of-range page is
// clamped into [1, totalPages]; pure, no side effects.
func Paginate(records []*models.PersonnelRecord, pageSize, page int) Page {
	if pageSize < 1 {
		pageSize = 1
	}
	totalPages := (len(records) + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(records) {
		start = len(records)
	}
	if end > len(records) {
		end = len(records)
	}
	return Page{
		Items:      records[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalItems: len(records),
		TotalPages: totalPages,
	}
}

// Query combines the per-stage view, search and pagination in one call.
func (r *Registry) Query(stage int, search string, pageSize, page int) (Page, error) {
	records, err := r.ListByStage(stage)
	if err != nil {
		return Page{}, err
	}
	return Paginate(Search(records, search), pageSize, page), nil
}
