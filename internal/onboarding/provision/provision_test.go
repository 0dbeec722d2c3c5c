package provision

// Unit tests for the provisioning flow. The duplicate-account invariant is
// the one that matters most here: no failure mode may leave a half-linked
// record or create a second upstream account on retry.

//go:generate mockgen -source=provision.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"induct/internal/directory"
	"induct/internal/onboarding/models"
	"induct/internal/onboarding/provision/mocks"
	"induct/internal/onboarding/stages"
	"induct/internal/onboarding/store"
	"induct/internal/sentinel"
	id "induct/pkg/domain"
	dErrors "induct/pkg/domain-errors"
	"induct/pkg/platform/audit"
	auditmem "induct/pkg/platform/audit/store/memory"
	"induct/pkg/platform/audit/publisher"
	"induct/pkg/requestcontext"
)

type ProvisionSuite struct {
	suite.Suite
	ctx        context.Context
	store      *store.InMemory
	directory  *directory.InMemory
	auditStore *auditmem.Store
	service    *Service
}

func (s *ProvisionSuite) SetupTest() {
	s.ctx = requestcontext.WithOperator(context.Background(), requestcontext.Operator{
		ID:   "op-1",
		Role: requestcontext.RoleOperator,
	})
	s.store = store.NewInMemory()
	s.directory = directory.NewInMemory()
	s.auditStore = auditmem.New()
	s.service = NewService(
		s.store,
		s.directory,
		publisher.New(s.auditStore),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func TestProvisionSuite(t *testing.T) {
	suite.Run(t, new(ProvisionSuite))
}

// seedRecord creates a record at the given stage.
func (s *ProvisionSuite) seedRecord(stage int) *models.PersonnelRecord {
	record, err := models.NewPersonnelRecord(
		id.PersonnelID(uuid.New()), "Ada Osei", "ada.osei@example.com", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, record))
	for n := 0; n < stage; n++ {
		s.Require().NoError(s.store.UpdateStage(s.ctx, record.ID, n, n+1, ""))
	}
	record.Stage = stage
	return record
}

func (s *ProvisionSuite) TestSyncWithGroup() {
	record := s.seedRecord(stages.Terminal)
	groupID := id.GroupID(uuid.New())

	result, err := s.service.Sync(s.ctx, Command{PersonnelID: record.ID, GroupID: groupID})
	s.Require().NoError(err)
	s.True(result.Success)
	s.False(result.AccountID.IsNil())
	s.Equal(groupID, result.GroupID)

	stored, err := s.store.FindByID(s.ctx, record.ID)
	s.Require().NoError(err)
	s.True(stored.UserLinked)
	s.Equal(result.AccountID, stored.AccountID)
	s.Equal(groupID, stored.GroupID)
	s.Equal([]id.GroupID{groupID}, s.directory.Groups(result.AccountID))

	events, err := s.auditStore.ListByPersonnel(s.ctx, record.ID)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(string(audit.EventProvisionSucceeded), events[0].Action)
	s.Equal("op-1", events[0].OperatorID)
}

func (s *ProvisionSuite) TestSyncWithoutGroup() {
	record := s.seedRecord(stages.Terminal)

	result, err := s.service.Sync(s.ctx, Command{PersonnelID: record.ID})
	s.Require().NoError(err)
	s.True(result.GroupID.IsNil())

	stored, err := s.store.FindByID(s.ctx, record.ID)
	s.Require().NoError(err)
	s.True(stored.UserLinked)
	s.Empty(s.directory.Groups(result.AccountID))
}

func (s *ProvisionSuite) TestSyncIsOneWay() {
	record := s.seedRecord(stages.Terminal)

	first, err := s.service.Sync(s.ctx, Command{PersonnelID: record.ID})
	s.Require().NoError(err)

	repeat, err := s.service.Sync(s.ctx, Command{PersonnelID: record.ID, GroupID: id.GroupID(uuid.New())})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadySynced))
	s.Require().NotNil(repeat)
	s.False(repeat.Success)
	s.Equal(string(dErrors.CodeAlreadySynced), repeat.ErrorKind)

	stored, err := s.store.FindByID(s.ctx, record.ID)
	s.Require().NoError(err)
	s.Equal(first.AccountID, stored.AccountID, "second attempt must not change the mapping")
	s.True(stored.GroupID.IsNil())
	s.Equal(1, s.directory.AccountCount())
}

func (s *ProvisionSuite) TestSyncRequiresTerminalStage() {
	record := s.seedRecord(stages.Terminal - 1)

	result, err := s.service.Sync(s.ctx, Command{PersonnelID: record.ID})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotEligible))
	s.Require().NotNil(result)
	s.False(result.Success)
	s.Equal(record.ID, result.PersonnelID)
	s.Equal(string(dErrors.CodeNotEligible), result.ErrorKind)

	stored, err := s.store.FindByID(s.ctx, record.ID)
	s.Require().NoError(err)
	s.False(stored.UserLinked)
	s.Equal(0, s.directory.AccountCount())
}

func (s *ProvisionSuite) TestSyncUnknownRecord() {
	_, err := s.service.Sync(s.ctx, Command{PersonnelID: id.PersonnelID(uuid.New())})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ProvisionSuite) TestAccountFailureLeavesRecordUntouched() {
	record := s.seedRecord(stages.Terminal)
	s.directory.NextAccountErr = dErrors.New(dErrors.CodeUpstreamUnavailable, "directory down")

	failed, err := s.service.Sync(s.ctx, Command{PersonnelID: record.ID})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUpstreamUnavailable))
	s.Require().NotNil(failed)
	s.False(failed.Success)
	s.Equal(string(dErrors.CodeUpstreamUnavailable), failed.ErrorKind)

	stored, err := s.store.FindByID(s.ctx, record.ID)
	s.Require().NoError(err)
	s.False(stored.UserLinked, "failure must not half-apply")

	events, err := s.auditStore.ListByPersonnel(s.ctx, record.ID)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(string(audit.EventProvisionFailed), events[0].Action)
	s.Contains(events[0].Detail, string(dErrors.CodeUpstreamUnavailable))

	// A manual retry succeeds and links exactly one account.
	result, err := s.service.Sync(s.ctx, Command{PersonnelID: record.ID})
	s.Require().NoError(err)
	s.True(result.Success)
	s.Equal(1, s.directory.AccountCount())
}

func (s *ProvisionSuite) TestGroupFailureLeavesRecordUnlinked() {
	record := s.seedRecord(stages.Terminal)
	groupID := id.GroupID(uuid.New())

	s.directory.NextGroupErr = dErrors.New(dErrors.CodeUpstreamUnavailable, "directory down")

	_, err := s.service.Sync(s.ctx, Command{PersonnelID: record.ID, GroupID: groupID})
	s.Require().Error(err)

	stored, err := s.store.FindByID(s.ctx, record.ID)
	s.Require().NoError(err)
	s.False(stored.UserLinked)

	// Retry links the same account the failed attempt created and completes.
	result, err := s.service.Sync(s.ctx, Command{PersonnelID: record.ID, GroupID: groupID})
	s.Require().NoError(err)
	s.Equal(1, s.directory.AccountCount())
	s.Equal([]id.GroupID{groupID}, s.directory.Groups(result.AccountID))
}

func (s *ProvisionSuite) TestConcurrentLinkDetected() {
	ctrl := gomock.NewController(s.T())
	defer ctrl.Finish()
	mockStore := mocks.NewMockStore(ctrl)

	record := s.seedRecord(stages.Terminal)
	mockStore.EXPECT().FindByID(gomock.Any(), record.ID).Return(record, nil)
	mockStore.EXPECT().
		MarkLinked(gomock.Any(), record.ID, gomock.Any(), gomock.Any()).
		Return(sentinel.ErrAlreadyUsed)

	svc := NewService(mockStore, s.directory, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := svc.Sync(s.ctx, Command{PersonnelID: record.ID})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadySynced))
}

func (s *ProvisionSuite) TestStoreUnavailable() {
	ctrl := gomock.NewController(s.T())
	defer ctrl.Finish()
	mockStore := mocks.NewMockStore(ctrl)

	personnelID := id.PersonnelID(uuid.New())
	mockStore.EXPECT().FindByID(gomock.Any(), personnelID).Return(nil, errors.New("connection refused"))

	svc := NewService(mockStore, s.directory, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := svc.Sync(s.ctx, Command{PersonnelID: personnelID})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUpstreamUnavailable))
}
