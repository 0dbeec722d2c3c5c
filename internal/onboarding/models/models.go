// Package models holds the onboarding pipeline domain types.
package models

import (
	"time"

	id "induct/pkg/domain"
	dErrors "induct/pkg/domain-errors"
	"induct/internal/onboarding/stages"
)

// PersonnelRecord is one person moving through the onboarding pipeline.
// Stage is monotonically non-decreasing: 0 means not yet entered, 8 means
// terminal/complete. UserLinked flips to true exactly once, when
// provisioning succeeds, and never back.
type PersonnelRecord struct {
	ID       id.PersonnelID `json:"id"`
	FullName string         `json:"full_name"`
	Email    string         `json:"email"`
	Stage    int            `json:"stage"`
	// RFIDCode is set only upon terminal-stage verification.
	RFIDCode   string       `json:"rfid_code,omitempty"`
	UserLinked bool         `json:"user_linked"`
	AccountID  id.AccountID `json:"account_id,omitempty"`
	GroupID    id.GroupID   `json:"group_id,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// NewPersonnelRecord creates an unenrolled record (stage 0).
func NewPersonnelRecord(recordID id.PersonnelID, fullName, email string, now time.Time) (*PersonnelRecord, error) {
	if fullName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "full name is required")
	}
	if email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email is required")
	}
	return &PersonnelRecord{
		ID:        recordID,
		FullName:  fullName,
		Email:     email,
		Stage:     0,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsComplete reports whether the record has passed the terminal stage.
func (r *PersonnelRecord) IsComplete() bool {
	return r.Stage >= stages.Terminal
}

// EligibleFor reports whether the record may be advanced into the given stage.
func (r *PersonnelRecord) EligibleFor(stage int) bool {
	return stage == r.Stage+1 && stages.IsValid(stage)
}

// Clone returns a copy so registry snapshots never alias store state.
func (r *PersonnelRecord) Clone() *PersonnelRecord {
	c := *r
	return &c
}

// ProvisioningResult records one provisioning attempt, success or failure.
// Used for audit/observability; attempts are never retried automatically.
type ProvisioningResult struct {
	PersonnelID id.PersonnelID `json:"personnel_id"`
	AccountID   id.AccountID   `json:"account_id,omitempty"`
	GroupID     id.GroupID     `json:"group_id,omitempty"`
	Success     bool           `json:"success"`
	ErrorKind   string         `json:"error_kind,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}
