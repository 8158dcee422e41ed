// Phase 13 - SDK Coding Sub-Client
// File: pkg/client/coding.go
// Procedural CPT/ICD-10-PCS coding client.

package client

import "context"

// CodingClient serves the procedural coding endpoint.
type CodingClient struct {
	client *Client
}

func newCodingClient(c *Client) *CodingClient {
	return &CodingClient{client: c}
}

// CodeRequest describes an operative note to be coded.
type CodeRequest struct {
	NoteText string `json:"note_text"`
	AgeYears *int   `json:"age_years,omitempty"`
}

// SuppressedCode records a code that was considered but withheld, and why.
type SuppressedCode struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// CodeBundle is the coding result for a single operative note.
type CodeBundle struct {
	PrimaryCPTs       []string            `json:"primary_cpts"`
	AddOnCPTs         []string            `json:"add_on_cpts"`
	HCPCS             []string            `json:"hcpcs,omitempty"`
	Modifiers         map[string][]string `json:"modifiers,omitempty"`
	SedationFamily    []string            `json:"sedation_family,omitempty"`
	ICD10PCS          []string            `json:"icd10_pcs,omitempty"`
	Suppressed        []SuppressedCode    `json:"suppressed,omitempty"`
	Warnings          []string            `json:"warnings,omitempty"`
	DocumentationGaps []string            `json:"documentation_gaps,omitempty"`
	OPPSNotes         []string            `json:"opps_notes,omitempty"`
	Explanations      map[string]string   `json:"explanations,omitempty"`
	KBVersion         string              `json:"kb_version"`
	LowConfidence     bool                `json:"low_confidence"`
}

// Code submits an operative note for procedural coding.
// POST /api/v1/code
func (cc *CodingClient) Code(ctx context.Context, req *CodeRequest) (*CodeBundle, error) {
	if req == nil || req.NoteText == "" {
		return nil, invalidArg("note_text is required")
	}

	var resp CodeBundle
	if err := cc.client.post(ctx, "/api/v1/code", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
