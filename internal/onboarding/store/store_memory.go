package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"induct/internal/onboarding/models"
	"induct/internal/sentinel"
	id "induct/pkg/domain"
)

// InMemory stores personnel records in memory for tests and the demo
// environment. All reads return clones so callers never alias store state.
type InMemory struct {
	mu       sync.RWMutex
	records  map[string]*models.PersonnelRecord
	emailIdx map[string]string
	now      func() time.Time
}

// NewInMemory creates an in-memory record store.
func NewInMemory() *InMemory {
	return &InMemory{
		records:  make(map[string]*models.PersonnelRecord),
		emailIdx: make(map[string]string),
		now:      time.Now,
	}
}

// WithClock overrides the time source used for updated_at stamps.
func (s *InMemory) WithClock(now func() time.Time) *InMemory {
	s.now = now
	return s
}

// Create stores a new record if the email is not already enrolled
// (case-insensitive).
func (s *InMemory) Create(_ context.Context, record *models.PersonnelRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lower := strings.ToLower(record.Email)
	if _, exists := s.emailIdx[lower]; exists {
		return fmt.Errorf("email already enrolled: %w", sentinel.ErrAlreadyUsed)
	}
	key := record.ID.String()
	s.records[key] = record.Clone()
	s.emailIdx[lower] = key
	return nil
}

// FindByID retrieves a record by its UUID.
func (s *InMemory) FindByID(_ context.Context, personnelID id.PersonnelID) (*models.PersonnelRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.records[personnelID.String()]; ok {
		return r.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

// ListAll returns every record, ordered by creation time for stable
// pagination.
func (s *InMemory) ListAll(_ context.Context) ([]*models.PersonnelRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.PersonnelRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.Clone())
	}
	sortByCreation(out)
	return out, nil
}

// UpdateStage advances the record iff its stored stage still matches
// expectedStage.
func (s *InMemory) UpdateStage(_ context.Context, personnelID id.PersonnelID, expectedStage, newStage int, rfidCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[personnelID.String()]
	if !ok {
		return sentinel.ErrNotFound
	}
	if r.Stage != expectedStage {
		return fmt.Errorf("record is at stage %d, not %d: %w", r.Stage, expectedStage, sentinel.ErrInvalidState)
	}
	r.Stage = newStage
	if rfidCode != "" {
		r.RFIDCode = rfidCode
	}
	r.UpdatedAt = s.now()
	return nil
}

// MarkLinked records the directory mapping exactly once.
func (s *InMemory) MarkLinked(_ context.Context, personnelID id.PersonnelID, accountID id.AccountID, groupID id.GroupID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[personnelID.String()]
	if !ok {
		return sentinel.ErrNotFound
	}
	if r.UserLinked {
		return fmt.Errorf("record already linked to account %s: %w", r.AccountID, sentinel.ErrAlreadyUsed)
	}
	r.UserLinked = true
	r.AccountID = accountID
	r.GroupID = groupID
	r.UpdatedAt = s.now()
	return nil
}

func sortByCreation(records []*models.PersonnelRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID.String() < records[j].ID.String()
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
}
