// Package handler exposes the onboarding pipeline over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"induct/internal/onboarding/models"
	"induct/internal/onboarding/provision"
	"induct/internal/onboarding/registry"
	"induct/internal/onboarding/service"
	sessionpkg "induct/internal/onboarding/session"
	id "induct/pkg/domain"
	dErrors "induct/pkg/domain-errors"
	"induct/pkg/platform/httputil"
	"induct/pkg/platform/validation"
	"induct/pkg/requestcontext"
)

// StageService drives enrollment and stage verification.
type StageService interface {
	Enroll(ctx context.Context, cmd service.EnrollCommand) (*models.PersonnelRecord, error)
	Get(ctx context.Context, personnelID id.PersonnelID) (*models.PersonnelRecord, error)
	Advance(ctx context.Context, cmd service.AdvanceCommand) (*models.PersonnelRecord, error)
}

// Provisioner runs the one-shot directory sync.
type Provisioner interface {
	Sync(ctx context.Context, cmd provision.Command) (*models.ProvisioningResult, error)
}

// Registry serves the stage listing views.
type Registry interface {
	Refresh(ctx context.Context) error
	Query(stage int, search string, pageSize, page int) (registry.Page, error)
}

const defaultPageSize = 10

type Handler struct {
	stages      StageService
	provisioner Provisioner
	registry    Registry
	sessions    *sessionpkg.Manager
	logger      *slog.Logger
	pageSize    int
}

// Option configures the Handler.
type Option func(*Handler)

// WithDefaultPageSize overrides the page size used when the query string
// does not set one.
func WithDefaultPageSize(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.pageSize = n
		}
	}
}

// New creates the pipeline HTTP handler.
func New(stages StageService, provisioner Provisioner, reg Registry, sessions *sessionpkg.Manager, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		stages:      stages,
		provisioner: provisioner,
		registry:    reg,
		sessions:    sessions,
		logger:      logger,
		pageSize:    defaultPageSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/records", h.HandleEnroll)
	r.Get("/records/{id}", h.HandleGetRecord)
	r.Get("/stage/{n}", h.HandleListStage)
	r.Post("/stage/{n}/verify", h.HandleVerifyStage)
	r.Post("/provision", h.HandleProvision)
	r.Post("/sessions", h.HandleOpenSession)
	r.Get("/sessions/{id}", h.HandleGetSession)
	r.Post("/sessions/{id}/toggle", h.HandleToggleItem)
	r.Post("/sessions/{id}/checklist", h.HandleSetAllItems)
	r.Post("/sessions/{id}/scan", h.HandleScanInput)
	r.Post("/sessions/{id}/submit", h.HandleSubmitSession)
	r.Delete("/sessions/{id}", h.HandleCloseSession)
}

// HandleEnroll creates a personnel record at stage 0.
func (h *Handler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[EnrollRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.stages.Enroll(ctx, service.EnrollCommand{FullName: req.FullName, Email: req.Email})
	if err != nil {
		h.logger.ErrorContext(ctx, "enroll failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	h.refresh(ctx)

	httputil.WriteJSON(w, http.StatusCreated, toRecordResponse(record))
}

// HandleGetRecord returns one personnel record.
func (h *Handler) HandleGetRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	personnelID, err := id.ParsePersonnelID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid personnel id"))
		return
	}

	record, err := h.stages.Get(ctx, personnelID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecordResponse(record))
}

// HandleListStage lists records eligible to advance into the stage, with
// search and pagination.
func (h *Handler) HandleListStage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stage, ok := h.stageParam(w, r)
	if !ok {
		return
	}

	search := r.URL.Query().Get("search")
	if len(search) > validation.MaxSearchQueryLength {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "search query too long"))
		return
	}
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", h.pageSize)

	if err := h.registry.Refresh(ctx); err != nil {
		h.logger.ErrorContext(ctx, "registry refresh failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	result, err := h.registry.Query(stage, search, pageSize, page)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStagePageResponse(stage, result))
}

// HandleVerifyStage advances a record into the stage after checking the
// submitted checklist (and scan, at the terminal stage).
func (h *Handler) HandleVerifyStage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	stage, ok := h.stageParam(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[VerifyStageRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	personnelID, err := id.ParsePersonnelID(req.PersonnelID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid personnel id"))
		return
	}

	record, err := h.stages.Advance(ctx, service.AdvanceCommand{
		PersonnelID:  personnelID,
		TargetStage:  stage,
		Checklist:    req.Checklist,
		ScanCode:     req.ScanCode,
		ScanOverride: req.ScanOverride,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "stage verify failed",
			"error", err,
			"stage", stage,
			"personnel_id", personnelID,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	h.refresh(ctx)

	httputil.WriteJSON(w, http.StatusOK, toRecordResponse(record))
}

// HandleProvision runs the one-shot directory sync for a terminal-stage
// record.
func (h *Handler) HandleProvision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ProvisionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	personnelID, err := id.ParsePersonnelID(req.PersonnelID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid personnel id"))
		return
	}
	var groupID id.GroupID
	if req.GroupID != "" {
		if groupID, err = id.ParseGroupID(req.GroupID); err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid group id"))
			return
		}
	}

	result, err := h.provisioner.Sync(ctx, provision.Command{PersonnelID: personnelID, GroupID: groupID})
	if err != nil {
		h.logger.ErrorContext(ctx, "provisioning failed",
			"error", err,
			"personnel_id", personnelID,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	h.refresh(ctx)

	httputil.WriteJSON(w, http.StatusOK, toProvisionResponse(result))
}

// HandleOpenSession starts a verification session for a record and stage.
func (h *Handler) HandleOpenSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[OpenSessionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	personnelID, err := id.ParsePersonnelID(req.PersonnelID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid personnel id"))
		return
	}

	// The record must exist and be eligible before a session makes sense.
	record, err := h.stages.Get(ctx, personnelID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !record.EligibleFor(req.Stage) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeStageMismatch,
			"record is not eligible for this stage - refresh and retry"))
		return
	}

	session, err := h.sessions.Open(personnelID, req.Stage)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toSessionResponse(session))
}

// HandleGetSession returns the session's checklist and scan state.
func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.sessionParam(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(session))
}

// HandleToggleItem flips one checklist item in the session.
func (h *Handler) HandleToggleItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := h.sessionParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ToggleItemRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := session.Toggle(req.Item); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(session))
}

// HandleSetAllItems checks or unchecks the whole checklist at once.
func (h *Handler) HandleSetAllItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := h.sessionParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetAllItemsRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	session.SetAll(req.Checked)
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(session))
}

// HandleScanInput feeds raw reader characters into the session's scan
// buffer. Rejected scans surface as unaccepted events, not errors.
func (h *Handler) HandleScanInput(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := h.sessionParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ScanInputRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := session.Input(req.Input); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(session))
}

// HandleSubmitSession advances the record using the session's accumulated
// checklist and scan state, then discards the session.
func (h *Handler) HandleSubmitSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	session, ok := h.sessionParam(w, r)
	if !ok {
		return
	}

	// The body is optional; only the override flag lives in it.
	var req struct {
		ScanOverride bool `json:"scan_override"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	record, err := h.stages.Advance(ctx, service.AdvanceCommand{
		PersonnelID:  session.PersonnelID,
		TargetStage:  session.Stage,
		Checklist:    session.Checklist(),
		ScanCode:     session.AcceptedScan(),
		ScanOverride: req.ScanOverride,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "session submit failed",
			"error", err,
			"session_id", session.ID,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	h.refresh(ctx)

	// Submit consumes the session.
	if err := h.sessions.Close(session.ID); err != nil {
		h.logger.WarnContext(ctx, "session close after submit failed", "error", err)
	}

	httputil.WriteJSON(w, http.StatusOK, toRecordResponse(record))
}

// HandleCloseSession cancels a session without touching the record.
func (h *Handler) HandleCloseSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := id.ParseSessionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid session id"))
		return
	}
	if err := h.sessions.Close(sessionID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) stageParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	stage, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid stage number"))
		return 0, false
	}
	return stage, true
}

func (h *Handler) sessionParam(w http.ResponseWriter, r *http.Request) (*sessionpkg.Session, bool) {
	sessionID, err := id.ParseSessionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid session id"))
		return nil, false
	}
	session, err := h.sessions.Get(sessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	return session, true
}

// refresh keeps the registry's stage membership current after any mutation.
func (h *Handler) refresh(ctx context.Context) {
	if err := h.registry.Refresh(ctx); err != nil {
		h.logger.WarnContext(ctx, "registry refresh failed", "error", err)
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
