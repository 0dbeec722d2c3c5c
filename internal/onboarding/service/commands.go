package service

import (
	id "induct/pkg/domain"
)

// EnrollCommand creates a new personnel record at stage 0.
type EnrollCommand struct {
	FullName string
	Email    string
}

// AdvanceCommand carries one verification attempt. ExpectedStage is the
// stage the operator believes the record to be at; the optimistic check
// against the stored stage happens at write time.
type AdvanceCommand struct {
	PersonnelID id.PersonnelID
	// TargetStage is the stage being verified into (record.Stage + 1).
	TargetStage int
	Checklist   map[string]bool
	// ScanCode is the accepted badge scan payload, required at the
	// terminal stage.
	ScanCode string
	// ScanOverride requests skipping the scan requirement. Admin-only and
	// always audited.
	ScanOverride bool
}
