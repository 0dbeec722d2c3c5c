package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"induct/internal/directory"
	"induct/internal/onboarding/provision"
	"induct/internal/onboarding/registry"
	"induct/internal/onboarding/service"
	"induct/internal/onboarding/session"
	"induct/internal/onboarding/stages"
	"induct/internal/onboarding/store"
	dErrors "induct/pkg/domain-errors"
	auditmem "induct/pkg/platform/audit/store/memory"
	"induct/pkg/platform/audit/publisher"
	"induct/pkg/platform/middleware/auth"
)

const (
	operatorToken = "operator-token"
	adminToken    = "admin-token"
)

// stubValidator maps fixed test tokens to operator claims.
type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (*auth.Claims, error) {
	switch token {
	case operatorToken:
		return &auth.Claims{OperatorID: "op-1", Role: "operator"}, nil
	case adminToken:
		return &auth.Claims{OperatorID: "admin-1", Role: "admin"}, nil
	}
	return nil, dErrors.New(dErrors.CodeUnauthorized, "unknown token")
}

type HandlerSuite struct {
	suite.Suite
	router    http.Handler
	store     *store.InMemory
	directory *directory.InMemory
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	s.store = store.NewInMemory()
	s.directory = directory.NewInMemory()
	auditor := publisher.New(auditmem.New())

	stageSvc := service.NewService(s.store, auditor, logger)
	provisionSvc := provision.NewService(s.store, s.directory, auditor, logger)
	reg := registry.New(s.store, registry.WithLogger(logger))
	sessions := session.NewManager(session.WithLogger(logger))

	h := New(stageSvc, provisionSvc, reg, sessions, logger)
	r := chi.NewRouter()
	r.Use(auth.RequireAuth(stubValidator{}, logger))
	h.Register(r)
	s.router = r
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) decode(rec *httptest.ResponseRecorder, target any) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), target))
}

func (s *HandlerSuite) enroll() *RecordResponse {
	rec := s.do(http.MethodPost, "/records", operatorToken, EnrollRequest{
		FullName: "Ada Osei",
		Email:    fmt.Sprintf("ada+%s@example.com", uuid.New().String()[:8]),
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var resp RecordResponse
	s.decode(rec, &resp)
	return &resp
}

func (s *HandlerSuite) getRecord(recordID string) *RecordResponse {
	rec := s.do(http.MethodGet, "/records/"+recordID, operatorToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var resp RecordResponse
	s.decode(rec, &resp)
	return &resp
}

func checklistFor(stage int) map[string]bool {
	def, _ := stages.Get(stage)
	out := make(map[string]bool, len(def.Checklist))
	for _, item := range def.Checklist {
		out[item] = true
	}
	return out
}

// verifyTo walks a record up to the given stage over HTTP.
func (s *HandlerSuite) verifyTo(recordID string, stage int) {
	for n := 1; n <= stage; n++ {
		body := VerifyStageRequest{PersonnelID: recordID, Checklist: checklistFor(n)}
		if n == stages.Terminal {
			body.ScanCode = "BADGE0042"
		}
		rec := s.do(http.MethodPost, fmt.Sprintf("/stage/%d/verify", n), operatorToken, body)
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	}
}

func (s *HandlerSuite) TestAuthRequired() {
	rec := s.do(http.MethodPost, "/records", "", EnrollRequest{FullName: "Ada", Email: "a@example.com"})
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestEnrollAndFetch() {
	created := s.enroll()
	s.Equal(0, created.Stage)
	s.False(created.UserLinked)

	rec := s.do(http.MethodGet, "/records/"+created.ID, operatorToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var got RecordResponse
	s.decode(rec, &got)
	s.Equal(created.ID, got.ID)
	s.Equal("Ada Osei", got.FullName)
}

func (s *HandlerSuite) TestEnrollValidation() {
	rec := s.do(http.MethodPost, "/records", operatorToken, EnrollRequest{FullName: "", Email: "a@example.com"})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "full_name")

	rec = s.do(http.MethodPost, "/records", operatorToken, EnrollRequest{FullName: "Ada", Email: "not-an-email"})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestGetRecordErrors() {
	rec := s.do(http.MethodGet, "/records/not-a-uuid", operatorToken, nil)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/records/"+uuid.New().String(), operatorToken, nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestListStage() {
	a := s.enroll()
	s.enroll()

	rec := s.do(http.MethodGet, "/stage/1", operatorToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var page StagePageResponse
	s.decode(rec, &page)
	s.Equal(1, page.Stage)
	s.Equal("intake", page.StageName)
	s.Len(page.Records, 2)
	s.NotEmpty(page.Checklist)

	// Advancing one record moves it out of the stage-1 view.
	body := VerifyStageRequest{PersonnelID: a.ID, Checklist: checklistFor(1)}
	verifyRec := s.do(http.MethodPost, "/stage/1/verify", operatorToken, body)
	s.Require().Equal(http.StatusOK, verifyRec.Code)

	rec = s.do(http.MethodGet, "/stage/1", operatorToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &page)
	s.Len(page.Records, 1)

	rec = s.do(http.MethodGet, "/stage/2", operatorToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &page)
	s.Len(page.Records, 1)
	s.Equal(a.ID, page.Records[0].ID)
}

func (s *HandlerSuite) TestListStageSearchAndPaging() {
	for i := 0; i < 3; i++ {
		s.enroll()
	}

	rec := s.do(http.MethodGet, "/stage/1?page_size=2&page=2", operatorToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var page StagePageResponse
	s.decode(rec, &page)
	s.Equal(2, page.Page)
	s.Len(page.Records, 1)
	s.Equal(3, page.TotalItems)

	rec = s.do(http.MethodGet, "/stage/1?search=nomatch", operatorToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &page)
	s.Empty(page.Records)
}

func (s *HandlerSuite) TestListStageInvalidNumber() {
	for _, path := range []string{"/stage/0", "/stage/9", "/stage/abc"} {
		rec := s.do(http.MethodGet, path, operatorToken, nil)
		s.Equal(http.StatusBadRequest, rec.Code, path)
	}
}

func (s *HandlerSuite) TestVerifyStaleGate() {
	record := s.enroll()
	checklist := checklistFor(1)
	def, _ := stages.Get(1)
	checklist[def.Checklist[0]] = false

	rec := s.do(http.MethodPost, "/stage/1/verify", operatorToken,
		VerifyStageRequest{PersonnelID: record.ID, Checklist: checklist})
	s.Equal(http.StatusPreconditionFailed, rec.Code)
	s.Contains(rec.Body.String(), string(dErrors.CodeStaleGate))
}

func (s *HandlerSuite) TestVerifyStageMismatch() {
	record := s.enroll()
	rec := s.do(http.MethodPost, "/stage/3/verify", operatorToken,
		VerifyStageRequest{PersonnelID: record.ID, Checklist: checklistFor(3)})
	s.Equal(http.StatusConflict, rec.Code)
	s.Contains(rec.Body.String(), string(dErrors.CodeStageMismatch))
}

func (s *HandlerSuite) TestVerifyTerminalWithoutScan() {
	record := s.enroll()
	s.verifyTo(record.ID, stages.Terminal-1)

	rec := s.do(http.MethodPost, fmt.Sprintf("/stage/%d/verify", stages.Terminal), operatorToken,
		VerifyStageRequest{PersonnelID: record.ID, Checklist: checklistFor(stages.Terminal)})
	s.Equal(http.StatusPreconditionFailed, rec.Code)
	s.Contains(rec.Body.String(), string(dErrors.CodeScanRequired))

	// A code below the scanner's minimum length is no better than no code.
	rec = s.do(http.MethodPost, fmt.Sprintf("/stage/%d/verify", stages.Terminal), operatorToken,
		VerifyStageRequest{PersonnelID: record.ID, Checklist: checklistFor(stages.Terminal), ScanCode: "AB"})
	s.Equal(http.StatusPreconditionFailed, rec.Code)
	s.Contains(rec.Body.String(), string(dErrors.CodeScanRequired))

	got := s.getRecord(record.ID)
	s.Equal(stages.Terminal-1, got.Stage, "a rejected scan leaves the record in place")
	s.Empty(got.RFIDCode)
}

func (s *HandlerSuite) TestVerifyScanOverride() {
	record := s.enroll()
	s.verifyTo(record.ID, stages.Terminal-1)

	body := VerifyStageRequest{
		PersonnelID:  record.ID,
		Checklist:    checklistFor(stages.Terminal),
		ScanOverride: true,
	}

	rec := s.do(http.MethodPost, fmt.Sprintf("/stage/%d/verify", stages.Terminal), operatorToken, body)
	s.Equal(http.StatusForbidden, rec.Code, "operators cannot override the scan requirement")

	rec = s.do(http.MethodPost, fmt.Sprintf("/stage/%d/verify", stages.Terminal), adminToken, body)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var got RecordResponse
	s.decode(rec, &got)
	s.Equal(stages.Terminal, got.Stage)
}

func (s *HandlerSuite) TestProvisionLifecycle() {
	record := s.enroll()

	// Not eligible before the terminal stage.
	rec := s.do(http.MethodPost, "/provision", operatorToken, ProvisionRequest{PersonnelID: record.ID})
	s.Equal(http.StatusConflict, rec.Code)
	s.Contains(rec.Body.String(), string(dErrors.CodeNotEligible))

	s.verifyTo(record.ID, stages.Terminal)
	groupID := uuid.New().String()

	rec = s.do(http.MethodPost, "/provision", operatorToken,
		ProvisionRequest{PersonnelID: record.ID, GroupID: groupID})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var result ProvisionResponse
	s.decode(rec, &result)
	s.True(result.Success)
	s.NotEmpty(result.AccountID)
	s.Equal(groupID, result.GroupID)

	// One-way: a second provision is rejected.
	rec = s.do(http.MethodPost, "/provision", operatorToken, ProvisionRequest{PersonnelID: record.ID})
	s.Equal(http.StatusConflict, rec.Code)
	s.Contains(rec.Body.String(), string(dErrors.CodeAlreadySynced))
	s.Equal(1, s.directory.AccountCount())
}

func (s *HandlerSuite) TestSessionLifecycle() {
	record := s.enroll()

	rec := s.do(http.MethodPost, "/sessions", operatorToken,
		OpenSessionRequest{PersonnelID: record.ID, Stage: 1})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var sess SessionResponse
	s.decode(rec, &sess)
	s.False(sess.AllChecked)
	s.False(sess.RequiresScan)

	def, _ := stages.Get(1)
	rec = s.do(http.MethodPost, "/sessions/"+sess.ID+"/toggle", operatorToken,
		ToggleItemRequest{Item: def.Checklist[0]})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &sess)
	s.True(sess.Checklist[def.Checklist[0]])

	rec = s.do(http.MethodPost, "/sessions/"+sess.ID+"/checklist", operatorToken,
		SetAllItemsRequest{Checked: true})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &sess)
	s.True(sess.AllChecked)

	rec = s.do(http.MethodPost, "/sessions/"+sess.ID+"/submit", operatorToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var got RecordResponse
	s.decode(rec, &got)
	s.Equal(1, got.Stage)

	// Submit consumed the session.
	rec = s.do(http.MethodGet, "/sessions/"+sess.ID, operatorToken, nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestSessionScanFlow() {
	record := s.enroll()
	s.verifyTo(record.ID, stages.Terminal-1)

	rec := s.do(http.MethodPost, "/sessions", operatorToken,
		OpenSessionRequest{PersonnelID: record.ID, Stage: stages.Terminal})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var sess SessionResponse
	s.decode(rec, &sess)
	s.True(sess.RequiresScan)

	rec = s.do(http.MethodPost, "/sessions/"+sess.ID+"/checklist", operatorToken,
		SetAllItemsRequest{Checked: true})
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/sessions/"+sess.ID+"/scan", operatorToken,
		ScanInputRequest{Input: "BADGE0042\r"})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &sess)
	s.Equal("BADGE0042", sess.AcceptedScan)
	s.Len(sess.ScanEvents, 1)

	rec = s.do(http.MethodPost, "/sessions/"+sess.ID+"/submit", operatorToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var got RecordResponse
	s.decode(rec, &got)
	s.Equal(stages.Terminal, got.Stage)
	s.Equal("BADGE0042", got.RFIDCode)
}

func (s *HandlerSuite) TestSessionStageMismatch() {
	record := s.enroll()
	rec := s.do(http.MethodPost, "/sessions", operatorToken,
		OpenSessionRequest{PersonnelID: record.ID, Stage: 4})
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *HandlerSuite) TestCloseSessionIsSideEffectFree() {
	record := s.enroll()
	rec := s.do(http.MethodPost, "/sessions", operatorToken,
		OpenSessionRequest{PersonnelID: record.ID, Stage: 1})
	s.Require().Equal(http.StatusCreated, rec.Code)
	var sess SessionResponse
	s.decode(rec, &sess)

	rec = s.do(http.MethodDelete, "/sessions/"+sess.ID, operatorToken, nil)
	s.Equal(http.StatusNoContent, rec.Code)

	// The record is untouched.
	rec = s.do(http.MethodGet, "/records/"+record.ID, operatorToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var got RecordResponse
	s.decode(rec, &got)
	s.Equal(0, got.Stage)
}
