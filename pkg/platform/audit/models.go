package audit

import (
	"context"
	"time"

	id "induct/pkg/domain"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp   time.Time
	Action      string
	PersonnelID id.PersonnelID
	OperatorID  string
	Stage       int
	Detail      string
	RequestID   string
	// Terminal is the fingerprint of the operator terminal, when known.
	Terminal string
}

type AuditEvent string

const (
	EventRecordEnrolled     AuditEvent = "record_enrolled"
	EventStageVerified      AuditEvent = "stage_verified"
	EventScanOverrideUsed   AuditEvent = "scan_override_used"
	EventProvisionSucceeded AuditEvent = "provision_succeeded"
	EventProvisionFailed    AuditEvent = "provision_failed"
)

// Store persists audit events. Implementations must be append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByPersonnel(ctx context.Context, personnelID id.PersonnelID) ([]Event, error)
}

// Emitter is the interface for audit event emission.
// Satisfied by publisher.Publisher.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}
