// Package seeder populates in-memory stores with demo data for local
// development.
package seeder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"induct/internal/onboarding/models"
	"induct/internal/onboarding/stages"
	id "induct/pkg/domain"
	"induct/pkg/platform/audit"
)

// RecordStore defines methods for seeding personnel records.
type RecordStore interface {
	Create(ctx context.Context, record *models.PersonnelRecord) error
	UpdateStage(ctx context.Context, personnelID id.PersonnelID, expectedStage, newStage int, rfidCode string) error
}

// AuditStore defines methods for seeding audit events.
type AuditStore interface {
	Append(ctx context.Context, event audit.Event) error
}

// Seeder populates in-memory stores with demo data.
type Seeder struct {
	records RecordStore
	audit   AuditStore
	logger  *slog.Logger
}

// New creates a new seeder.
func New(records RecordStore, auditStore AuditStore, logger *slog.Logger) *Seeder {
	return &Seeder{
		records: records,
		audit:   auditStore,
		logger:  logger,
	}
}

// SeedAll populates all stores with demo data.
func (s *Seeder) SeedAll(ctx context.Context) error {
	s.logger.Info("seeding demo data...")

	records, err := s.seedRecords(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed personnel records: %w", err)
	}

	if err := s.seedAuditEvents(ctx, records); err != nil {
		return fmt.Errorf("failed to seed audit events: %w", err)
	}

	s.logger.Info("demo data seeded successfully",
		"records", len(records),
	)

	return nil
}

func (s *Seeder) seedRecords(ctx context.Context) ([]*models.PersonnelRecord, error) {
	now := time.Now()

	// Demo people spread across the pipeline. Stage is reached by replaying
	// the same compare-and-set transitions the service performs.
	demoPeople := []struct {
		fullName string
		email    string
		stage    int
	}{
		{"Alice Anderson", "alice@example.com", 0},
		{"Bob Brown", "bob@example.com", 1},
		{"Charlie Chen", "charlie@example.com", 1},
		{"Diana Davis", "diana@example.com", 3},
		{"Eve Evans", "eve@example.com", 4},
		{"Frank Foster", "frank@example.com", 6},
		{"Grace Garcia", "grace@example.com", 7},
		{"Henry Harris", "henry@example.com", stages.Terminal},
	}

	var records []*models.PersonnelRecord
	for i, p := range demoPeople {
		record, err := models.NewPersonnelRecord(
			id.PersonnelID(uuid.New()), p.fullName, p.email,
			now.Add(time.Duration(-len(demoPeople)+i)*time.Hour),
		)
		if err != nil {
			return nil, err
		}
		if err := s.records.Create(ctx, record); err != nil {
			return nil, err
		}

		for stage := 1; stage <= p.stage; stage++ {
			rfid := ""
			if stage == stages.Terminal {
				rfid = fmt.Sprintf("BADGE%04d", 1000+i)
			}
			if err := s.records.UpdateStage(ctx, record.ID, stage-1, stage, rfid); err != nil {
				return nil, err
			}
			record.Stage = stage
			record.RFIDCode = rfid
		}

		records = append(records, record)
	}

	return records, nil
}

func (s *Seeder) seedAuditEvents(ctx context.Context, records []*models.PersonnelRecord) error {
	now := time.Now()

	events := []struct {
		recordIdx int
		action    audit.AuditEvent
		stage     int
		detail    string
		offset    time.Duration
	}{
		{0, audit.EventRecordEnrolled, 0, "walk-in enrollment", -8 * time.Hour},
		{1, audit.EventRecordEnrolled, 0, "walk-in enrollment", -7 * time.Hour},
		{1, audit.EventStageVerified, 1, "intake complete", -6 * time.Hour},
		{3, audit.EventStageVerified, 3, "compliance complete", -4 * time.Hour},
		{5, audit.EventStageVerified, 6, "security complete", -2 * time.Hour},
		{6, audit.EventStageVerified, 7, "final review complete", -90 * time.Minute},
		{7, audit.EventStageVerified, stages.Terminal, "badge issued", -30 * time.Minute},
		{7, audit.EventScanOverrideUsed, stages.Terminal, "reader offline at kiosk 2", -30 * time.Minute},
	}

	for _, e := range events {
		if e.recordIdx >= len(records) {
			continue
		}

		event := audit.Event{
			Timestamp:   now.Add(e.offset),
			Action:      string(e.action),
			PersonnelID: records[e.recordIdx].ID,
			OperatorID:  "op-seed",
			Stage:       e.stage,
			Detail:      e.detail,
		}

		if err := s.audit.Append(ctx, event); err != nil {
			return err
		}
	}

	return nil
}
