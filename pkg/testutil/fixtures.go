package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"induct/internal/onboarding/models"
	id "induct/pkg/domain"
)

// TestIDs provides convenient pre-generated IDs for tests.
// Use these for deterministic test data.
var TestIDs = struct {
	PersonnelID1 id.PersonnelID
	PersonnelID2 id.PersonnelID
	AccountID1   id.AccountID
	AccountID2   id.AccountID
	GroupID1     id.GroupID
	SessionID1   id.SessionID
}{
	PersonnelID1: id.PersonnelID(uuid.MustParse("11111111-1111-1111-1111-111111111111")),
	PersonnelID2: id.PersonnelID(uuid.MustParse("22222222-2222-2222-2222-222222222222")),
	AccountID1:   id.AccountID(uuid.MustParse("aaaa0000-0000-0000-0000-000000000001")),
	AccountID2:   id.AccountID(uuid.MustParse("aaaa0000-0000-0000-0000-000000000002")),
	GroupID1:     id.GroupID(uuid.MustParse("cccc0000-0000-0000-0000-000000000001")),
	SessionID1:   id.SessionID(uuid.MustParse("eeee0000-0000-0000-0000-000000000001")),
}

// RecordBuilder provides a fluent interface for building test personnel records.
type RecordBuilder struct {
	record *models.PersonnelRecord
}

// NewRecordBuilder creates a new RecordBuilder with sensible defaults.
func NewRecordBuilder() *RecordBuilder {
	now := time.Now()
	return &RecordBuilder{
		record: &models.PersonnelRecord{
			ID:        id.PersonnelID(uuid.New()),
			FullName:  "Test Person",
			Email:     UniqueEmail("test"),
			Stage:     0,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

func (b *RecordBuilder) WithID(personnelID id.PersonnelID) *RecordBuilder {
	b.record.ID = personnelID
	return b
}

func (b *RecordBuilder) WithName(fullName string) *RecordBuilder {
	b.record.FullName = fullName
	return b
}

func (b *RecordBuilder) WithEmail(email string) *RecordBuilder {
	b.record.Email = email
	return b
}

func (b *RecordBuilder) AtStage(stage int) *RecordBuilder {
	b.record.Stage = stage
	return b
}

func (b *RecordBuilder) WithRFIDCode(code string) *RecordBuilder {
	b.record.RFIDCode = code
	return b
}

func (b *RecordBuilder) Linked(accountID id.AccountID, groupID id.GroupID) *RecordBuilder {
	b.record.UserLinked = true
	b.record.AccountID = accountID
	b.record.GroupID = groupID
	return b
}

func (b *RecordBuilder) CreatedAt(t time.Time) *RecordBuilder {
	b.record.CreatedAt = t
	b.record.UpdatedAt = t
	return b
}

func (b *RecordBuilder) Build() *models.PersonnelRecord {
	return b.record
}

// UniqueEmail returns an email address that will not collide with other
// fixtures in the same test run.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@example.com", prefix, uuid.NewString()[:8])
}
