// Package store persists personnel records behind a narrow interface with
// in-memory and PostgreSQL implementations.
package store

import (
	"context"

	"induct/internal/onboarding/models"
	id "induct/pkg/domain"
)

// RecordStore persists personnel records. Stage transitions and provisioning
// flags are compare-and-set so concurrent operators cannot double-advance or
// double-link a record.
type RecordStore interface {
	Create(ctx context.Context, record *models.PersonnelRecord) error
	FindByID(ctx context.Context, personnelID id.PersonnelID) (*models.PersonnelRecord, error)
	ListAll(ctx context.Context) ([]*models.PersonnelRecord, error)
	// UpdateStage advances the record from expectedStage to newStage.
	// Fails with sentinel.ErrInvalidState when the stored stage no longer
	// matches expectedStage. rfidCode is written only when non-empty.
	UpdateStage(ctx context.Context, personnelID id.PersonnelID, expectedStage, newStage int, rfidCode string) error
	// MarkLinked flips user_linked and records the directory mapping.
	// Fails with sentinel.ErrAlreadyUsed when the record is already linked.
	MarkLinked(ctx context.Context, personnelID id.PersonnelID, accountID id.AccountID, groupID id.GroupID) error
}
