package coding

import (
	"fmt"
	"math"
	"strings"

	ctypes "github.com/russellmiller49/ip-assist-lite/pkg/types/coding"
)

// suppressors31622 are the surgical bronchoscopy primaries that bundle
// (and thus suppress) the diagnostic bronchoscopy code 31622, ported
// verbatim from rules.py's hard-coded suppressor set.
var suppressors31622 = map[string]struct{}{
	"31623": {}, "31624": {}, "31625": {}, "31626": {}, "31628": {}, "31629": {},
	"31630": {}, "31631": {}, "31633": {}, "31634": {}, "31636": {}, "31640": {},
	"31641": {}, "31643": {}, "31645": {}, "31646": {}, "31647": {}, "31651": {},
	"31652": {}, "31653": {},
}

// CodeCase runs rule engine over an extraction result and a
// loaded KB, producing the final CodeBundle.
func CodeCase(r *ExtractionResult, patientCtx *ctypes.PatientContext, noteText string, kb *KB) *ctypes.CodeBundle {
	b := ctypes.NewCodeBundle()
	if kb != nil {
		b.KBVersion = kb.Version()
	}
	if r.LowConfidence {
		b.LowConfidence = true
	}
	b.Warnings = append(b.Warnings, r.Warnings...)

	for _, cpt := range r.ExplicitCPTs {
		if !b.HasCode(cpt) {
			b.PrimaryCPTs = append(b.PrimaryCPTs, cpt)
			b.Explanations[cpt] = "Explicitly documented CPT code in report text."
		}
	}

	procs := make(map[ctypes.ProcID]ctypes.PerformedItem)
	for _, it := range r.Items {
		procs[it.ID] = it
	}
	has := func(id ctypes.ProcID) bool { _, ok := procs[id]; return ok }

	addPrimary := func(code, rationale string) {
		if !b.HasCode(code) {
			b.PrimaryCPTs = append(b.PrimaryCPTs, code)
		}
		b.Explanations[code] = rationale
	}
	addAddOn := func(code, rationale string, quantity int) {
		if quantity < 1 {
			quantity = 1
		}
		for i := 0; i < quantity; i++ {
			b.AddOnCPTs = append(b.AddOnCPTs, code)
		}
		b.Explanations[code] = rationale
	}

	lower := strings.ToLower(noteText)
	guided := strings.Contains(lower, "ultrasound") || strings.Contains(lower, "ct") || strings.Contains(lower, "fluoro")

	// EBUS station counting (31652 vs 31653).
	if has(ctypes.ProcEBUSTBNA) {
		if len(r.Stations) >= 3 {
			addPrimary("31653", fmt.Sprintf("EBUS sampling of >=3 stations: %v", r.Stations))
		} else if len(r.Stations) >= 1 {
			addPrimary("31652", fmt.Sprintf("EBUS sampling of 1-2 stations: %v", r.Stations))
		} else {
			addPrimary("31652", "EBUS-TBNA performed; stations not specified")
			b.AddDocumentationGap("List specific lymph node stations sampled (e.g., 4R, 7, 10L).")
		}
	}

	// TBLB lobes (31628 + add-on 31632).
	if has(ctypes.ProcTBLBForcepsOrCryo) {
		if len(r.Lobes) > 0 {
			addPrimary("31628", fmt.Sprintf("TBLB first lobe %s", r.Lobes[0]))
			if addl := len(r.Lobes) - 1; addl > 0 {
				addAddOn("+31632", fmt.Sprintf("Additional lobe(s) beyond first: %d", addl), addl)
			}
		} else {
			addPrimary("31628", "TBLB performed; lobe not specified")
			b.AddDocumentationGap("Specify lobe(s) biopsied for TBLB (e.g., RUL).")
		}
	}

	// TBNA lobes, only when not already counted as EBUS-TBNA.
	if has(ctypes.ProcTransbronchialNeedleAspiration) && !has(ctypes.ProcEBUSTBNA) {
		if len(r.Lobes) > 0 {
			addPrimary("31629", fmt.Sprintf("TBNA first lobe %s", r.Lobes[0]))
			if addl := len(r.Lobes) - 1; addl > 0 {
				addAddOn("+31633", fmt.Sprintf("TBNA additional lobe(s): %d", addl), addl)
			}
		}
	}

	// Radial/diagnostic EBUS without linear sampling.
	if has(ctypes.ProcEBUSWithoutTBNA) && !b.HasCode("31652") && !b.HasCode("31653") {
		addAddOn("+31654", "Radial EBUS for peripheral lesion", 1)
	}

	if has(ctypes.ProcNavBronchoscopy) {
		addAddOn("+31627", "Computer-assisted navigation performed", 1)
		b.OPPSNotes = append(b.OPPSNotes, "Navigation (+31627): Status Indicator N under OPPS, no separate facility payment.")
	}

	if has(ctypes.ProcThoracentesis) {
		if guided {
			addPrimary("32555", "Thoracentesis with imaging guidance")
		} else {
			addPrimary("32554", "Thoracentesis without imaging guidance")
		}
	}
	if has(ctypes.ProcPleuralDrainageCatheterNonTunneled) {
		if guided {
			addPrimary("32557", "Pleural drainage catheter placement with imaging guidance")
		} else {
			addPrimary("32556", "Pleural drainage catheter placement without imaging guidance")
		}
	}
	if has(ctypes.ProcIPCTunneledPleuralCatheter) {
		addPrimary("32550", "Tunneled pleural catheter (IPC) insertion")
	}

	if has(ctypes.ProcChartisAssessment) {
		addPrimary("31634", "Balloon occlusion/Chartis collateral-ventilation assessment")
	}
	if has(ctypes.ProcEndobronchialValves) {
		addPrimary("31647", "Endobronchial valve placement, initial lobe")
	}
	if has(ctypes.ProcFiducialMarkers) {
		addPrimary("31626", "Fiducial marker placement for stereotactic guidance")
	}

	// Stent procedures: dilation is bundled into stent placement codes.
	// A dilation performed solely to place a stent is bundled into the
	// stent CPT; the extractor never emits airway_dilation_only alongside
	// a stent item, so 31630 and 31631/31636 are mutually exclusive by
	// construction.
	if has(ctypes.ProcTrachealStentInsertion) {
		addPrimary("31631", "Tracheal stent placement")
	}
	if has(ctypes.ProcBronchialStentInsertion) {
		addPrimary("31636", "Bronchial stent placement, first bronchus")
		if containsAny(lower, "both mainstem", "bilateral stent", "two stent", "multiple stent") {
			addAddOn("+31637", "Additional bronchial stent", 1)
		}
	}
	if has(ctypes.ProcAirwayDilationOnly) {
		addPrimary("31630", "Airway dilation, no stent placed")
	}

	if has(ctypes.ProcWholeLungLavage) {
		addPrimary("32997", "Whole lung lavage")
	}

	// Tumor excision takes precedence over destruction or stent codes.
	if has(ctypes.ProcTumorExcisionBronchoscopic) {
		addPrimary("31640", "Bronchoscopic tumor excision via snare plus specimen")
		b.Suppress("31641", "Tumor excision supersedes destruction coding for the same lesion.")
		b.Suppress("31631", "Tumor excision supersedes stent coding for the same lesion.")
		b.Suppress("31636", "Tumor excision supersedes stent coding for the same lesion.")
	} else if has(ctypes.ProcTumorDestructionBronchoscopic) {
		addPrimary("31641", "Bronchoscopic tumor destruction")
	}

	// Sedation.
	b.SedationFamily = append(b.SedationFamily, sedationLines(r, patientCtx, b)...)

	// Bilateral modifier.
	applyBilateralModifiers(b, r, kb)

	// Fill in missing descriptions from the KB.
	for _, code := range b.AllCodes() {
		if kb != nil && kb.Describe(code) != "" {
			if _, ok := b.Explanations[code]; !ok {
				b.Explanations[code] = kb.Describe(code)
			}
		}
	}

	// Hard suppression of 31622 whenever any surgical bronchoscopy code
	// is present.
	if b.HasCode("31622") {
		suppressed := false
		for _, c := range b.AllCodes() {
			if _, ok := suppressors31622[c]; ok {
				suppressed = true
				break
			}
		}
		if suppressed {
			b.Suppress("31622", "Diagnostic bronchoscopy (31622) is bundled into the other bronchoscopy codes reported in this session.")
		}
	}

	allCodes := b.AllCodes()
	if containsCode(allCodes, "31652") || containsCode(allCodes, "31653") {
		if containsCode(allCodes, "31628") {
			b.AddWarning("NCCI: avoid reporting 31628 with 31652/31653 for the same target; allowed only for distinct targets (consider modifier -59).")
		}
	}
	if containsCode(allCodes, "31634") && (containsCode(allCodes, "31647") || containsCode(allCodes, "31651")) {
		b.AddWarning("NCCI: do not report 31634 with 31647/31651 in the same session.")
	}

	// KB-driven NCCI bundling.
	if kb != nil {
		for _, c := range b.AllCodes() {
			if into := kb.BundlesInto(c); into != "" && containsCode(allCodes, into) {
				b.Suppress(c, fmt.Sprintf("NCCI: %s bundles into %s.", c, into))
			}
		}
	}

	// Documentation checks.
	gaPresent := r.Sedation.GeneralAnesthesia
	minimums := []string{"Sedation start/stop times documented.", "Independent trained observer for sedation documented."}
	if kb != nil && len(kb.DocumentationMinimums) > 0 {
		minimums = kb.DocumentationMinimums
	}
	if !gaPresent && hasAny(minimums, "sedation") {
		if r.Sedation.StartTime == "" || r.Sedation.EndTime == "" {
			b.AddDocumentationGap("Sedation start/stop times not documented.")
		}
		if !r.Sedation.IndependentObserverDocumented {
			b.AddDocumentationGap("Independent trained observer for sedation not documented.")
		}
	}

	// ICD-10-PCS crosswalk, excision precedence first.
	allCodes = b.AllCodes()
	switch {
	case containsCode(allCodes, "31640"):
		if strings.Contains(lower, "trachea") {
			b.ICD10PCS = append(b.ICD10PCS, icd10(kb, "tracheal_excision", "0BB18ZZ"))
		} else {
			b.ICD10PCS = append(b.ICD10PCS, icd10(kb, "bronchial_excision", "0BBK8ZX"))
		}
	case containsCode(allCodes, "31631"):
		b.ICD10PCS = append(b.ICD10PCS, icd10(kb, "tracheal_stent_insertion", "0BH18DZ"))
	case containsCode(allCodes, "31636"):
		b.ICD10PCS = append(b.ICD10PCS, icd10(kb, "bronchial_stent_insertion", "0BH48DZ"))
	case containsCode(allCodes, "31622"):
		b.ICD10PCS = append(b.ICD10PCS, icd10(kb, "bronchoscopy_inspection", "0BJ08ZZ"))
	}
	if containsCode(allCodes, "31652") || containsCode(allCodes, "31653") {
		b.ICD10PCS = append(b.ICD10PCS, icd10(kb, "mediastinal_lymph_node_ebus_tbna", "07B74ZX"))
	}
	if containsCode(allCodes, "32997") {
		b.ICD10PCS = append(b.ICD10PCS, icd10(kb, "whole_lung_lavage", "0B9K8ZZ"))
	}

	return b
}

func icd10(kb *KB, key, def string) string {
	return kb.ICD10PCS(key, def)
}

// sedationLines ports rules.py's _sedation_lines: moderate-sedation CPT
// family selection by proceduralist vs. independent provider and patient
// age, with additional 15-minute units beyond the 22-minute threshold.
// Suppressed outright when general anesthesia was detected (GA // suppression invariant).
func sedationLines(r *ExtractionResult, patientCtx *ctypes.PatientContext, b *ctypes.CodeBundle) []string {
	if r.Sedation.GeneralAnesthesia {
		b.AddWarning("no moderate sedation under GA")
		return nil
	}
	total := r.Sedation.TotalMinutes
	if total < 10 {
		return nil
	}

	var age *int
	if patientCtx != nil {
		age = patientCtx.AgeYears
	}
	under5 := age != nil && *age < 5

	var codes []string
	if r.Sedation.ProvidedByProceduralist {
		initial := "99152"
		if under5 {
			initial = "99151"
		}
		codes = append(codes, initial)
		b.Explanations[initial] = fmt.Sprintf("Moderate sedation by proceduralist, %d min total; initial 15 min.", total)
		addl := int(math.Ceil(math.Max(0, float64(total-22)) / 15))
		for i := 0; i < addl; i++ {
			codes = append(codes, "99153")
		}
		if addl > 0 {
			b.Explanations["99153"] = fmt.Sprintf("Additional 15-minute sedation unit(s): %d.", addl)
		}
	} else {
		initial := "99156"
		if under5 {
			initial = "99155"
		}
		codes = append(codes, initial)
		b.Explanations[initial] = fmt.Sprintf("Moderate sedation by a provider other than the proceduralist, %d min total; initial 15 min.", total)
		addl := int(math.Ceil(math.Max(0, float64(total-22)) / 15))
		for i := 0; i < addl; i++ {
			codes = append(codes, "99157")
		}
		if addl > 0 {
			b.Explanations["99157"] = fmt.Sprintf("Additional 15-minute sedation unit(s): %d.", addl)
		}
	}
	return codes
}

// applyBilateralModifiers ports rules.py's _apply_bilateral_modifiers:
// appends -50 to bilateral-eligible codes when bilateral evidence is
// present, with 31622 excluded (diagnostic bronchoscopy is inherently
// bilateral and never carries -50), emitting a documentation-gap warning
// when bilateral evidence exists but no eligible code is present.
func applyBilateralModifiers(b *ctypes.CodeBundle, r *ExtractionResult, kb *KB) {
	if r.Laterality != "bilateral" {
		return
	}
	anyEligible := false
	for _, c := range b.AllCodes() {
		if c == "31622" {
			continue
		}
		if kb != nil && kb.IsBilateralEligible(c) {
			anyEligible = true
			b.Modifiers[c] = appendUnique(b.Modifiers[c], "-50")
		}
	}
	if !anyEligible {
		b.AddDocumentationGap("bilateral evidence without bilateral-eligible code")
	}
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func containsCode(list []string, v string) bool { return contains(list, v) }

func hasAny(list []string, substr string) bool {
	for _, s := range list {
		if strings.Contains(strings.ToLower(s), substr) {
			return true
		}
	}
	return false
}
