package handler

import (
	"time"

	"induct/internal/onboarding/models"
	"induct/internal/onboarding/registry"
	"induct/internal/onboarding/scan"
	"induct/internal/onboarding/session"
	"induct/internal/onboarding/stages"
)

type RecordResponse struct {
	ID         string    `json:"id"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	Stage      int       `json:"stage"`
	StageName  string    `json:"stage_name,omitempty"`
	RFIDCode   string    `json:"rfid_code,omitempty"`
	UserLinked bool      `json:"user_linked"`
	AccountID  string    `json:"account_id,omitempty"`
	GroupID    string    `json:"group_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type StagePageResponse struct {
	Stage      int               `json:"stage"`
	StageName  string            `json:"stage_name"`
	Checklist  []string          `json:"checklist"`
	Records    []*RecordResponse `json:"records"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalItems int               `json:"total_items"`
	TotalPages int               `json:"total_pages"`
}

type ProvisionResponse struct {
	PersonnelID string    `json:"personnel_id"`
	AccountID   string    `json:"account_id"`
	GroupID     string    `json:"group_id,omitempty"`
	Success     bool      `json:"success"`
	Timestamp   time.Time `json:"timestamp"`
}

type SessionResponse struct {
	ID           string          `json:"id"`
	PersonnelID  string          `json:"personnel_id"`
	Stage        int             `json:"stage"`
	Checklist    map[string]bool `json:"checklist"`
	AllChecked   bool            `json:"all_checked"`
	RequiresScan bool            `json:"requires_scan"`
	AcceptedScan string          `json:"accepted_scan,omitempty"`
	ScanEvents   []ScanEventResponse `json:"scan_events,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

type ScanEventResponse struct {
	Code      string    `json:"code"`
	Accepted  bool      `json:"accepted"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Response mapping functions - convert domain objects to HTTP DTOs

func toRecordResponse(r *models.PersonnelRecord) *RecordResponse {
	resp := &RecordResponse{
		ID:         r.ID.String(),
		FullName:   r.FullName,
		Email:      r.Email,
		Stage:      r.Stage,
		RFIDCode:   r.RFIDCode,
		UserLinked: r.UserLinked,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if def, ok := stages.Get(r.Stage); ok {
		resp.StageName = def.Name
	}
	if !r.AccountID.IsNil() {
		resp.AccountID = r.AccountID.String()
	}
	if !r.GroupID.IsNil() {
		resp.GroupID = r.GroupID.String()
	}
	return resp
}

func toStagePageResponse(stage int, page registry.Page) *StagePageResponse {
	def, _ := stages.Get(stage)
	records := make([]*RecordResponse, 0, len(page.Items))
	for _, r := range page.Items {
		records = append(records, toRecordResponse(r))
	}
	return &StagePageResponse{
		Stage:      stage,
		StageName:  def.Name,
		Checklist:  def.Checklist,
		Records:    records,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
	}
}

func toProvisionResponse(r *models.ProvisioningResult) *ProvisionResponse {
	resp := &ProvisionResponse{
		PersonnelID: r.PersonnelID.String(),
		AccountID:   r.AccountID.String(),
		Success:     r.Success,
		Timestamp:   r.Timestamp,
	}
	if !r.GroupID.IsNil() {
		resp.GroupID = r.GroupID.String()
	}
	return resp
}

func toSessionResponse(s *session.Session) *SessionResponse {
	def, _ := stages.Get(s.Stage)
	resp := &SessionResponse{
		ID:           s.ID.String(),
		PersonnelID:  s.PersonnelID.String(),
		Stage:        s.Stage,
		Checklist:    s.Checklist(),
		AllChecked:   s.AllChecked(),
		RequiresScan: def.RequiresScan,
		AcceptedScan: s.AcceptedScan(),
		CreatedAt:    s.CreatedAt,
	}
	for _, e := range s.Events() {
		resp.ScanEvents = append(resp.ScanEvents, toScanEventResponse(e))
	}
	return resp
}

func toScanEventResponse(e scan.Event) ScanEventResponse {
	return ScanEventResponse{
		Code:      e.Code,
		Accepted:  e.Accepted,
		Reason:    string(e.Reason),
		Timestamp: e.Timestamp,
	}
}
