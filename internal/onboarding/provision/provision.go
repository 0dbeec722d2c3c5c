// Package provision promotes terminal-stage personnel records into active
// directory accounts. Provisioning is one-way: a record links exactly once
// and is never re-synced.
package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"induct/internal/directory"
	"induct/internal/onboarding/metrics"
	"induct/internal/onboarding/models"
	"induct/internal/onboarding/stages"
	"induct/internal/platform/tracer"
	"induct/internal/sentinel"
	id "induct/pkg/domain"
	dErrors "induct/pkg/domain-errors"
	"induct/pkg/platform/audit"
	"induct/pkg/requestcontext"
)

// Store defines the persistence surface provisioning needs.
// Error contract:
// - FindByID returns sentinel.ErrNotFound when no record exists
// - MarkLinked returns sentinel.ErrAlreadyUsed when the record is linked
type Store interface {
	FindByID(ctx context.Context, personnelID id.PersonnelID) (*models.PersonnelRecord, error)
	MarkLinked(ctx context.Context, personnelID id.PersonnelID, accountID id.AccountID, groupID id.GroupID) error
}

// Command is one provisioning request. GroupID may be nil to leave the
// account unassigned initially.
type Command struct {
	PersonnelID id.PersonnelID
	GroupID     id.GroupID
}

// Option configures the Service.
type Option func(*Service)

// Service runs the one-shot provisioning flow. The directory calls happen
// before the local flag flips, so a failure leaves user_linked false and a
// retry re-links the same upstream account instead of creating a duplicate.
type Service struct {
	store     Store
	directory directory.Client
	auditor   audit.Emitter
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    tracer.Tracer
	now       func() time.Time
}

// NewService creates the provisioning service.
func NewService(store Store, dir directory.Client, auditor audit.Emitter, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:     store,
		directory: dir,
		auditor:   auditor,
		logger:    logger,
		tracer:    tracer.NewNoop(),
		now:       time.Now,
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

// WithTracer sets the tracer used for provisioning spans.
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

// Sync provisions one record. Preconditions are re-validated against the
// store at call time: the record must be at the terminal stage and not yet
// linked. Failures are surfaced for a conscious manual retry, never retried
// automatically; each failed attempt yields a result with Success false and
// the error kind alongside the error.
func (s *Service) Sync(ctx context.Context, cmd Command) (*models.ProvisioningResult, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanProvision,
		tracer.String(tracer.AttrPersonnelID, cmd.PersonnelID.String()),
	)
	var err error
	defer func() { span.End(err) }()

	if cmd.PersonnelID.IsNil() {
		err = dErrors.New(dErrors.CodeInvalidInput, "personnel ID is required")
		return nil, err
	}

	record, err := s.store.FindByID(ctx, cmd.PersonnelID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			err = dErrors.New(dErrors.CodeNotFound, "personnel record not found")
			return nil, err
		}
		err = dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, "record store unavailable")
		return nil, err
	}

	if record.UserLinked {
		s.count("already_synced")
		err = dErrors.New(dErrors.CodeAlreadySynced,
			fmt.Sprintf("record is already linked to account %s", record.AccountID))
		return s.failResult(record, cmd, err), err
	}
	if record.Stage != stages.Terminal {
		s.count("not_eligible")
		err = dErrors.New(dErrors.CodeNotEligible,
			fmt.Sprintf("record is at stage %d; provisioning requires stage %d", record.Stage, stages.Terminal))
		return s.failResult(record, cmd, err), err
	}

	accountID, err := s.createAccount(ctx, record)
	if err != nil {
		return s.fail(ctx, record, cmd, err), err
	}

	if !cmd.GroupID.IsNil() {
		if err = s.assignGroup(ctx, accountID, cmd.GroupID); err != nil {
			// The account exists upstream but user_linked stays false; a
			// retry re-links the same account, never a duplicate.
			return s.fail(ctx, record, cmd, err), err
		}
	}

	// The flag flips only after every directory call succeeded.
	if err = s.store.MarkLinked(ctx, record.ID, accountID, cmd.GroupID); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			s.count("already_synced")
			err = dErrors.Wrap(err, dErrors.CodeAlreadySynced, "record was linked concurrently")
			return s.failResult(record, cmd, err), err
		}
		err = dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, "record store unavailable")
		return s.fail(ctx, record, cmd, err), err
	}

	result := &models.ProvisioningResult{
		PersonnelID: record.ID,
		AccountID:   accountID,
		GroupID:     cmd.GroupID,
		Success:     true,
		Timestamp:   s.now(),
	}
	s.emitAudit(ctx, audit.Event{
		Action:      string(audit.EventProvisionSucceeded),
		PersonnelID: record.ID,
		Stage:       record.Stage,
		Detail:      "account " + accountID.String(),
	})
	s.count("success")
	s.logger.Info("personnel record provisioned",
		"personnel_id", record.ID,
		"account_id", accountID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return result, nil
}

func (s *Service) createAccount(ctx context.Context, record *models.PersonnelRecord) (id.AccountID, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanDirectoryAccount)
	accountID, err := s.directory.CreateOrLinkAccount(ctx, record.ID, record.FullName)
	span.End(err)
	return accountID, err
}

func (s *Service) assignGroup(ctx context.Context, accountID id.AccountID, groupID id.GroupID) error {
	ctx, span := s.tracer.Start(ctx, tracer.SpanDirectoryGroup,
		tracer.String(tracer.AttrGroupID, groupID.String()),
	)
	err := s.directory.AssignGroup(ctx, accountID, groupID)
	span.End(err)
	return err
}

// failResult builds the result recorded for one failed attempt. ErrorKind
// carries the domain error code so the outcome stays queryable after the
// error itself is gone.
func (s *Service) failResult(record *models.PersonnelRecord, cmd Command, cause error) *models.ProvisioningResult {
	return &models.ProvisioningResult{
		PersonnelID: record.ID,
		GroupID:     cmd.GroupID,
		Success:     false,
		ErrorKind:   string(dErrors.CodeOf(cause)),
		Timestamp:   s.now(),
	}
}

// fail records a failed attempt for audit and metrics; the caller returns
// the original error untouched.
func (s *Service) fail(ctx context.Context, record *models.PersonnelRecord, cmd Command, cause error) *models.ProvisioningResult {
	result := s.failResult(record, cmd, cause)
	s.count("failure")
	s.emitAudit(ctx, audit.Event{
		Action:      string(audit.EventProvisionFailed),
		PersonnelID: record.ID,
		Stage:       record.Stage,
		Detail:      result.ErrorKind + ": " + cause.Error(),
	})
	s.logger.Error("provisioning failed",
		"personnel_id", record.ID,
		"group_id", cmd.GroupID,
		"error", cause,
		"request_id", requestcontext.RequestID(ctx),
	)
	return result
}

func (s *Service) count(result string) {
	if s.metrics != nil {
		s.metrics.IncrementProvisioning(result)
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
