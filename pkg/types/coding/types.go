// Package coding holds the closed-schema value types for the procedural
// coder: PerformedItem, CodeLine, CodeBundle, and the supporting sedation
// and report structures the extractor and rule engine pass between them.
package coding

// Site enumerates the closed anatomic-site taxonomy for a PerformedItem.
type Site string

const (
	SiteTrachea Site = "trachea"
	SiteBronchus Site = "bronchus"
	SiteLobe Site = "lobe"
	SiteUnknown Site = "unknown"
)

// ProcID is a member of the closed set of performed-procedure identifiers.
type ProcID string

const (
	ProcTumorExcisionBronchoscopic ProcID = "tumor_excision_bronchoscopic"
	ProcTumorDestructionBronchoscopic ProcID = "tumor_destruction_bronchoscopic"
	ProcTrachealStentInsertion ProcID = "tracheal_stent_insertion"
	ProcBronchialStentInsertion ProcID = "bronchial_stent_insertion"
	ProcAirwayDilationOnly ProcID = "airway_dilation_only"
	ProcWholeLungLavage ProcID = "whole_lung_lavage"
	ProcEBUSTBNA ProcID = "ebus_tbna"
	ProcEBUSWithoutTBNA ProcID = "ebus_without_tbna"
	ProcTBLBForcepsOrCryo ProcID = "tblb_forceps_or_cryo"

	// Extended set — additive, grounded on the reference implementation's
	// wider procedure vocabulary (patterns.py / rules.py).
	ProcTransbronchialNeedleAspiration ProcID = "transbronchial_needle_aspiration"
	ProcNavBronchoscopy ProcID = "nav_bronchoscopy"
	ProcThoracentesis ProcID = "thoracentesis"
	ProcPleuralDrainageCatheterNonTunneled ProcID = "pleural_drainage_catheter_non_tunneled"
	ProcIPCTunneledPleuralCatheter ProcID = "ipc_tunneled_pleural_catheter"
	ProcChartisAssessment ProcID = "chartis_assessment"
	ProcEndobronchialValves ProcID = "endobronchial_valves"
	ProcFiducialMarkers ProcID = "fiducial_markers"
	ProcMicrowaveAblationBronchoscopic ProcID = "microwave_ablation_bronchoscopic"
	ProcTransbronchialAblationPEF ProcID = "transbronchial_ablation_pulsed_electric_field"
)

// Laterality enumerates the closed laterality taxonomy.
type Laterality string

const (
	LateralityRight Laterality = "right"
	LateralityLeft Laterality = "left"
	LateralityBilateral Laterality = "bilateral"
	LateralityUnspecified Laterality = "unspecified"
)

// PerformedItem is a single procedure event extracted from an operative
// note.
type PerformedItem struct {
	ID ProcID
	Site Site
	Details string
	Count int
	SpecimensCollected bool

	// Extraction metadata consumed by the rule engine; not part of the
	// core schema but threaded alongside it for rule matching.
	Brand string
	Stations []string
	Lobes []string
	Laterality Laterality
	Guided bool
	SourceSpan string
}

// SedationInfo captures detected sedation data for a note.
type SedationInfo struct {
	GeneralAnesthesia bool
	ProvidedByProceduralist bool
	StartTime string
	EndTime string
	TotalMinutes int
	IndependentObserverDocumented bool
}

// PatientContext is the optional patient_ctx accompanying a coding request.
type PatientContext struct {
	AgeYears *int
}

// CodeLine is a single suggested code with its rationale, used internally
// by the rule engine before being folded into a CodeBundle.
type CodeLine struct {
	Code string
	Description string
	Rationale string
	Modifiers []string
	Quantity int
}

// SuppressedCode records a code that was suppressed along with why.
type SuppressedCode struct {
	Code string
	Reason string
}

// CodeBundle is the procedural coder's output.
type CodeBundle struct {
	PrimaryCPTs []string
	AddOnCPTs []string
	HCPCS []string
	Modifiers map[string][]string // code -> modifiers
	SedationFamily []string
	ICD10PCS []string
	SuppressedWithReason []SuppressedCode
	Warnings []string
	DocumentationGaps []string
	OPPSNotes []string
	Explanations map[string]string
	KBVersion string
	LowConfidence bool
}

// NewCodeBundle returns a CodeBundle with its maps initialized.
func NewCodeBundle() *CodeBundle {
	return &CodeBundle{
		Modifiers: make(map[string][]string),
		Explanations: make(map[string]string),
	}
}

// AllCodes returns the union of primary, add-on, and HCPCS codes
// currently in the bundle, in insertion order.
func (b *CodeBundle) AllCodes() []string {
	out := make([]string, 0, len(b.PrimaryCPTs)+len(b.AddOnCPTs)+len(b.HCPCS)+len(b.SedationFamily))
	out = append(out, b.PrimaryCPTs...)
	out = append(out, b.AddOnCPTs...)
	out = append(out, b.HCPCS...)
	out = append(out, b.SedationFamily...)
	return out
}

// HasCode reports whether code is present anywhere in the bundle.
func (b *CodeBundle) HasCode(code string) bool {
	for _, c := range b.AllCodes() {
		if c == code {
			return true
		}
	}
	return false
}

// Suppress removes code from every code slice and records the reason.
func (b *CodeBundle) Suppress(code, reason string) {
	b.PrimaryCPTs = removeCode(b.PrimaryCPTs, code)
	b.AddOnCPTs = removeCode(b.AddOnCPTs, code)
	b.HCPCS = removeCode(b.HCPCS, code)
	b.SedationFamily = removeCode(b.SedationFamily, code)
	b.SuppressedWithReason = append(b.SuppressedWithReason, SuppressedCode{Code: code, Reason: reason})
}

func removeCode(codes []string, code string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if c != code {
			out = append(out, c)
		}
	}
	return out
}

// AddWarning appends a warning, deduplicating exact repeats.
func (b *CodeBundle) AddWarning(msg string) {
	for _, w := range b.Warnings {
		if w == msg {
			return
		}
	}
	b.Warnings = append(b.Warnings, msg)
}

// AddDocumentationGap appends a documentation-gap warning, deduplicating.
func (b *CodeBundle) AddDocumentationGap(msg string) {
	for _, w := range b.DocumentationGaps {
		if w == msg {
			return
		}
	}
	b.DocumentationGaps = append(b.DocumentationGaps, msg)
}
