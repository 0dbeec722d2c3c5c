package handler

import (
	"strings"

	dErrors "induct/pkg/domain-errors"
	"induct/pkg/platform/validation"
)

// HTTP request DTOs. Converted to service commands before processing.

type EnrollRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

func (r *EnrollRequest) Normalize() {
	if r == nil {
		return
	}
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *EnrollRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validation.CheckStringLength("full name", r.FullName, validation.MaxFullNameLength); err != nil {
		return err
	}
	if err := validation.CheckStringLength("email", r.Email, validation.MaxEmailLength); err != nil {
		return err
	}
	if r.FullName == "" {
		return dErrors.New(dErrors.CodeValidation, "full_name is required")
	}
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if !strings.Contains(r.Email, "@") {
		return dErrors.New(dErrors.CodeValidation, "email is not valid")
	}
	return nil
}

type VerifyStageRequest struct {
	PersonnelID string          `json:"personnel_id"`
	Checklist   map[string]bool `json:"checklist"`
	// ScanCode is required at the terminal stage unless an admin override
	// is requested.
	ScanCode     string `json:"scan_code,omitempty"`
	ScanOverride bool   `json:"scan_override,omitempty"`
}

func (r *VerifyStageRequest) Normalize() {
	if r == nil {
		return
	}
	r.PersonnelID = strings.TrimSpace(r.PersonnelID)
	r.ScanCode = strings.TrimSpace(r.ScanCode)
}

func (r *VerifyStageRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validation.CheckSliceCount("checklist items", len(r.Checklist), validation.MaxChecklistItems); err != nil {
		return err
	}
	for item := range r.Checklist {
		if err := validation.CheckStringLength("item name", item, validation.MaxItemNameLength); err != nil {
			return err
		}
	}
	if err := validation.CheckStringLength("scan code", r.ScanCode, validation.MaxScanCodeLength); err != nil {
		return err
	}
	if r.PersonnelID == "" {
		return dErrors.New(dErrors.CodeValidation, "personnel_id is required")
	}
	return nil
}

type ProvisionRequest struct {
	PersonnelID string `json:"personnel_id"`
	GroupID     string `json:"group_id,omitempty"`
}

func (r *ProvisionRequest) Normalize() {
	if r == nil {
		return
	}
	r.PersonnelID = strings.TrimSpace(r.PersonnelID)
	r.GroupID = strings.TrimSpace(r.GroupID)
}

func (r *ProvisionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.PersonnelID == "" {
		return dErrors.New(dErrors.CodeValidation, "personnel_id is required")
	}
	return nil
}

type OpenSessionRequest struct {
	PersonnelID string `json:"personnel_id"`
	Stage       int    `json:"stage"`
}

func (r *OpenSessionRequest) Normalize() {
	if r == nil {
		return
	}
	r.PersonnelID = strings.TrimSpace(r.PersonnelID)
}

func (r *OpenSessionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.PersonnelID == "" {
		return dErrors.New(dErrors.CodeValidation, "personnel_id is required")
	}
	return nil
}

type ToggleItemRequest struct {
	Item string `json:"item"`
}

func (r *ToggleItemRequest) Normalize() {
	if r == nil {
		return
	}
	r.Item = strings.TrimSpace(r.Item)
}

func (r *ToggleItemRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validation.CheckStringLength("item name", r.Item, validation.MaxItemNameLength); err != nil {
		return err
	}
	if r.Item == "" {
		return dErrors.New(dErrors.CodeValidation, "item is required")
	}
	return nil
}

type SetAllItemsRequest struct {
	Checked bool `json:"checked"`
}

type ScanInputRequest struct {
	// Input is raw character data from the reader, terminator included.
	Input string `json:"input"`
}

func (r *ScanInputRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validation.CheckStringLength("scan input", r.Input, validation.MaxScanInputLength); err != nil {
		return err
	}
	if r.Input == "" {
		return dErrors.New(dErrors.CodeValidation, "input is required")
	}
	return nil
}
