package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	appcoding "github.com/russellmiller49/ip-assist-lite/internal/application/coding"
	"github.com/russellmiller49/ip-assist-lite/internal/infrastructure/monitoring/logging"
	"github.com/russellmiller49/ip-assist-lite/pkg/errors"
	ctypes "github.com/russellmiller49/ip-assist-lite/pkg/types/coding"
)

// CodingHandler serves the procedural CPT/ICD-10-PCS coding endpoint.
type CodingHandler struct {
	coding *appcoding.Service
	logger logging.Logger
}

// NewCodingHandler wires a CodingHandler.
func NewCodingHandler(c *appcoding.Service, logger logging.Logger) *CodingHandler {
	return &CodingHandler{coding: c, logger: logger}
}

type codeRequest struct {
	NoteText string `json:"note_text"`
	AgeYears *int   `json:"age_years,omitempty"`
}

type suppressedCodeDTO struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

type codeResponse struct {
	PrimaryCPTs       []string            `json:"primary_cpts"`
	AddOnCPTs         []string            `json:"add_on_cpts"`
	HCPCS             []string            `json:"hcpcs,omitempty"`
	Modifiers         map[string][]string `json:"modifiers,omitempty"`
	SedationFamily    []string            `json:"sedation_family,omitempty"`
	ICD10PCS          []string            `json:"icd10_pcs,omitempty"`
	Suppressed        []suppressedCodeDTO `json:"suppressed,omitempty"`
	Warnings          []string            `json:"warnings,omitempty"`
	DocumentationGaps []string            `json:"documentation_gaps,omitempty"`
	OPPSNotes         []string            `json:"opps_notes,omitempty"`
	Explanations      map[string]string   `json:"explanations,omitempty"`
	KBVersion         string              `json:"kb_version"`
	LowConfidence     bool                `json:"low_confidence"`
}

// Code handles POST /api/v1/code: runs the procedural coding pipeline over
// a submitted operative note and returns the resulting code bundle.
func (h *CodingHandler) Code(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.InvalidParam("request body must be valid JSON"))
		return
	}
	if req.NoteText == "" {
		writeError(w, http.StatusBadRequest, errors.InvalidParam("note_text is required"))
		return
	}

	requestID := uuid.New().String()
	var patientCtx *ctypes.PatientContext
	if req.AgeYears != nil {
		patientCtx = &ctypes.PatientContext{AgeYears: req.AgeYears}
	}

	bundle, err := h.coding.Code(r.Context(), requestID, req.NoteText, patientCtx)
	if err != nil {
		writeAppError(w, err)
		return
	}

	w.Header().Set("X-Request-ID", requestID)
	writeJSON(w, http.StatusOK, toCodeResponse(bundle))
}

func toCodeResponse(b *ctypes.CodeBundle) codeResponse {
	suppressed := make([]suppressedCodeDTO, 0, len(b.SuppressedWithReason))
	for _, s := range b.SuppressedWithReason {
		suppressed = append(suppressed, suppressedCodeDTO{Code: s.Code, Reason: s.Reason})
	}
	return codeResponse{
		PrimaryCPTs:       b.PrimaryCPTs,
		AddOnCPTs:         b.AddOnCPTs,
		HCPCS:             b.HCPCS,
		Modifiers:         b.Modifiers,
		SedationFamily:    b.SedationFamily,
		ICD10PCS:          b.ICD10PCS,
		Suppressed:        suppressed,
		Warnings:          b.Warnings,
		DocumentationGaps: b.DocumentationGaps,
		OPPSNotes:         b.OPPSNotes,
		Explanations:      b.Explanations,
		KBVersion:         b.KBVersion,
		LowConfidence:     b.LowConfidence,
	}
}
