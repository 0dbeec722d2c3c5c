// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "induct/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing a PersonnelID where a
// GroupID is expected.
type (
	// PersonnelID identifies one personnel record for its whole lifetime.
	PersonnelID uuid.UUID
	// AccountID identifies the directory account a record is linked to.
	AccountID uuid.UUID
	// GroupID identifies a security group in the directory.
	GroupID uuid.UUID
	// SessionID identifies one open verification session.
	SessionID uuid.UUID
)

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParsePersonnelID(s string) (PersonnelID, error) {
	id, err := parseUUID(s, "personnel ID")
	return PersonnelID(id), err
}

func ParseAccountID(s string) (AccountID, error) {
	id, err := parseUUID(s, "account ID")
	return AccountID(id), err
}

func ParseGroupID(s string) (GroupID, error) {
	id, err := parseUUID(s, "group ID")
	return GroupID(id), err
}

func ParseSessionID(s string) (SessionID, error) {
	id, err := parseUUID(s, "session ID")
	return SessionID(id), err
}

// String methods - for logging and debugging.

func (id PersonnelID) String() string { return uuid.UUID(id).String() }
func (id AccountID) String() string   { return uuid.UUID(id).String() }
func (id GroupID) String() string     { return uuid.UUID(id).String() }
func (id SessionID) String() string   { return uuid.UUID(id).String() }

// IsNil checks - used for service-layer validation.

func (id PersonnelID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id AccountID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id GroupID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

// parseUUID is the shared validation logic.
// Nil UUIDs are allowed here; use IsNil() at the service layer for business
// validation, which lets store lookups return proper "not found" errors.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	return id, nil
}
