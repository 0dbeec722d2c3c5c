// Package service implements the stage machine: enrollment and the
// checklist-gated, scan-gated advance of personnel records through the
// pipeline.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"induct/internal/onboarding/metrics"
	"induct/internal/onboarding/scan"
	"induct/internal/onboarding/models"
	"induct/internal/onboarding/stages"
	"induct/internal/platform/tracer"
	"induct/internal/sentinel"
	id "induct/pkg/domain"
	dErrors "induct/pkg/domain-errors"
	"induct/pkg/platform/audit"
	"induct/pkg/requestcontext"
)

// Store defines the persistence interface for personnel records.
// Error contract:
// - FindByID returns sentinel.ErrNotFound when no record exists
// - UpdateStage returns sentinel.ErrInvalidState when the stored stage no
//   longer matches the expected stage
type Store interface {
	Create(ctx context.Context, record *models.PersonnelRecord) error
	FindByID(ctx context.Context, personnelID id.PersonnelID) (*models.PersonnelRecord, error)
	UpdateStage(ctx context.Context, personnelID id.PersonnelID, expectedStage, newStage int, rfidCode string) error
}

// Option configures the Service.
type Option func(*Service)

// Service enforces the linear stage progression. Records advance
// independently; there is no global lock, and a concurrent advance by
// another operator surfaces as a stage mismatch.
type Service struct {
	store      Store
	auditor    audit.Emitter
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     tracer.Tracer
	now        func() time.Time
	minScanLen int
}

// NewService creates the stage machine service.
func NewService(store Store, auditor audit.Emitter, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:      store,
		auditor:    auditor,
		logger:     logger,
		tracer:     tracer.NewNoop(),
		now:        time.Now,
		minScanLen: scan.DefaultMinLength,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTracer sets the tracer used for advance spans.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithScanMinLength sets the minimum accepted length for directly supplied
// scan codes. It matches the scanning session buffer's minimum.
func WithScanMinLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.minScanLen = n
		}
	}
}

// Enroll creates a new record at stage 0.
func (s *Service) Enroll(ctx context.Context, cmd EnrollCommand) (*models.PersonnelRecord, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanEnroll)
	var err error
	defer func() { span.End(err) }()

	record, err := models.NewPersonnelRecord(id.PersonnelID(uuid.New()), cmd.FullName, cmd.Email, s.now())
	if err != nil {
		return nil, err
	}
	if err = s.store.Create(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			err = dErrors.Wrap(err, dErrors.CodeConflict, "email already enrolled")
			return nil, err
		}
		err = dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, "record store unavailable")
		return nil, err
	}

	s.emitAudit(ctx, audit.Event{
		Action:      string(audit.EventRecordEnrolled),
		PersonnelID: record.ID,
		Stage:       record.Stage,
	})
	if s.metrics != nil {
		s.metrics.IncrementEnrollments()
	}
	s.logger.Info("personnel record enrolled",
		"personnel_id", record.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return record, nil
}

// Get retrieves one record.
func (s *Service) Get(ctx context.Context, personnelID id.PersonnelID) (*models.PersonnelRecord, error) {
	if personnelID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "personnel ID is required")
	}
	record, err := s.store.FindByID(ctx, personnelID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "personnel record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, "record store unavailable")
	}
	return record, nil
}

// Advance verifies the record into cmd.TargetStage. The stored stage is
// re-validated at call time, never trusted from an earlier read, so a second
// operator's stale attempt fails with a stage mismatch instead of silently
// double-advancing.
func (s *Service) Advance(ctx context.Context, cmd AdvanceCommand) (*models.PersonnelRecord, error) {
	start := s.now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanAdvance,
		tracer.String(tracer.AttrPersonnelID, cmd.PersonnelID.String()),
		tracer.Int(tracer.AttrStage, cmd.TargetStage),
	)
	var err error
	defer func() { span.End(err) }()

	if cmd.PersonnelID.IsNil() {
		err = dErrors.New(dErrors.CodeInvalidInput, "personnel ID is required")
		return nil, err
	}
	def, ok := stages.Get(cmd.TargetStage)
	if !ok {
		err = dErrors.New(dErrors.CodeInvalidInput, "stage out of range")
		return nil, err
	}

	record, err := s.Get(ctx, cmd.PersonnelID)
	if err != nil {
		return nil, err
	}
	if !record.EligibleFor(cmd.TargetStage) {
		s.countFailure(cmd.TargetStage, dErrors.CodeStageMismatch)
		err = dErrors.New(dErrors.CodeStageMismatch,
			fmt.Sprintf("record is at stage %d; someone else may have advanced it - refresh and retry", record.Stage))
		return nil, err
	}

	if err = s.checkGate(cmd, def); err != nil {
		return nil, err
	}

	scanCode, err := s.checkScan(ctx, cmd, def, record)
	if err != nil {
		return nil, err
	}

	if err = s.store.UpdateStage(ctx, record.ID, record.Stage, cmd.TargetStage, scanCode); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrInvalidState):
			s.countFailure(cmd.TargetStage, dErrors.CodeStageMismatch)
			err = dErrors.Wrap(err, dErrors.CodeStageMismatch,
				"someone else already advanced this record - refresh and retry")
		case errors.Is(err, sentinel.ErrNotFound):
			err = dErrors.New(dErrors.CodeNotFound, "personnel record not found")
		default:
			err = dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, "record store unavailable")
		}
		return nil, err
	}

	record.Stage = cmd.TargetStage
	if scanCode != "" {
		record.RFIDCode = scanCode
	}
	record.UpdatedAt = s.now()

	s.emitAudit(ctx, audit.Event{
		Action:      string(audit.EventStageVerified),
		PersonnelID: record.ID,
		Stage:       cmd.TargetStage,
		Detail:      def.Name,
	})
	if s.metrics != nil {
		s.metrics.IncrementVerifications(cmd.TargetStage)
		s.metrics.ObserveAdvanceLatency(s.now().Sub(start))
	}
	s.logger.Info("stage verified",
		"personnel_id", record.ID,
		"stage", cmd.TargetStage,
		"stage_name", def.Name,
		"request_id", requestcontext.RequestID(ctx),
	)
	return record, nil
}

// checkGate rebuilds the checklist gate for the target stage and applies the
// submitted items. Every item must be checked.
func (s *Service) checkGate(cmd AdvanceCommand, def stages.Definition) error {
	gate, err := stages.NewGate(cmd.TargetStage)
	if err != nil {
		return err
	}
	if err := gate.Apply(cmd.Checklist); err != nil {
		s.countFailure(cmd.TargetStage, dErrors.CodeUnknownChecklistItem)
		return err
	}
	if !gate.AllChecked() {
		s.countFailure(cmd.TargetStage, dErrors.CodeStaleGate)
		return dErrors.New(dErrors.CodeStaleGate,
			fmt.Sprintf("checklist for stage %q is not fully checked", def.Name))
	}
	return nil
}

// checkScan enforces the terminal-stage scan requirement and the admin-only,
// audited override path. Returns the code to persist, if any.
func (s *Service) checkScan(ctx context.Context, cmd AdvanceCommand, def stages.Definition, record *models.PersonnelRecord) (string, error) {
	if !def.RequiresScan {
		return "", nil
	}
	// A directly supplied code obeys the same validity rule as the scanning
	// session buffer: trimmed, and no shorter than the configured minimum.
	if code := strings.TrimSpace(cmd.ScanCode); code != "" {
		if len(code) < s.minScanLen {
			s.countFailure(cmd.TargetStage, dErrors.CodeScanRequired)
			return "", dErrors.New(dErrors.CodeScanRequired,
				fmt.Sprintf("scan code must be at least %d characters", s.minScanLen))
		}
		return code, nil
	}
	if !cmd.ScanOverride {
		s.countFailure(cmd.TargetStage, dErrors.CodeScanRequired)
		return "", dErrors.New(dErrors.CodeScanRequired, "badge scan required to complete this stage")
	}

	operator := requestcontext.OperatorFrom(ctx)
	if !operator.IsAdmin() {
		s.countFailure(cmd.TargetStage, dErrors.CodeForbidden)
		return "", dErrors.New(dErrors.CodeForbidden, "scan override requires the admin role")
	}
	// Override is a distinct, always-audited code path, never a silent
	// bypass.
	s.emitAudit(ctx, audit.Event{
		Action:      string(audit.EventScanOverrideUsed),
		PersonnelID: record.ID,
		Stage:       cmd.TargetStage,
		Detail:      "scan requirement waived by " + operator.ID,
	})
	if s.metrics != nil {
		s.metrics.IncrementScanOverrides()
	}
	s.logger.Warn("scan requirement overridden",
		"personnel_id", record.ID,
		"operator_id", operator.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return "", nil
}

func (s *Service) countFailure(stage int, code dErrors.Code) {
	if s.metrics != nil {
		s.metrics.IncrementVerificationFailures(stage, string(code))
	}
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	event.Timestamp = s.now()
	event.OperatorID = requestcontext.OperatorFrom(ctx).ID
	event.RequestID = requestcontext.RequestID(ctx)
	event.Terminal = requestcontext.TerminalFingerprint(ctx)
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.Warn("audit emit failed", "action", event.Action, "error", err)
	}
}
