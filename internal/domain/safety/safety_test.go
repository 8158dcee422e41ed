package safety

import (
	"testing"

	rtypes "github.com/russellmiller49/ip-assist-lite/pkg/types/retrieval"
)

func TestDetectEmergency_MassiveHemoptysis(t *testing.T) {
	ok, subtype := DetectEmergency("what is the management of massive hemoptysis")
	if !ok || subtype != SubtypeMassiveHemoptysis {
		t.Fatalf("got ok=%v subtype=%v", ok, subtype)
	}
}

func TestDetectEmergency_NoMatch(t *testing.T) {
	ok, _ := DetectEmergency("routine surveillance bronchoscopy schedule")
	if ok {
		t.Fatal("did not expect emergency match")
	}
}

func TestLookupProtocol_FallsBackToGeneric(t *testing.T) {
	p := LookupProtocol("unknown_subtype")
	if p.Subtype != SubtypeGeneric {
		t.Fatalf("expected generic fallback, got %v", p.Subtype)
	}
}

func TestPreSynthesisCheck_Pediatric(t *testing.T) {
	warnings, isEmergency, _ := PreSynthesisCheck("dosing for pediatric bronchoscopy sedation")
	if isEmergency {
		t.Fatal("did not expect emergency classification")
	}
	found := false
	for _, w := range warnings {
		if w.Code == "pediatric_population" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected pediatric_population warning, got %+v", warnings)
	}
}

func TestPreSynthesisCheck_EmergencyShortCircuits(t *testing.T) {
	warnings, isEmergency, subtype := PreSynthesisCheck("tension pneumothorax management")
	if !isEmergency || subtype != SubtypeTensionPneumothorax {
		t.Fatalf("expected tension pneumothorax emergency, got isEmergency=%v subtype=%v", isEmergency, subtype)
	}
	if len(warnings) == 0 {
		t.Fatal("expected at least one warning")
	}
}

func TestPostSynthesisCheck_UnsupportedDoseFlagged(t *testing.T) {
	draft := "Administer lidocaine 200 mg topically."
	chunks := []*rtypes.Chunk{
		{Text: "Topical lidocaine is typically limited to 100 mg in adults."},
	}
	warnings, reviewRequired := PostSynthesisCheck(DefaultPostSynthesisCheckConfig(), draft, chunks, rtypes.ClassClinical)
	if !reviewRequired {
		t.Fatal("expected review_required for uncorroborated dose claim")
	}
	found := false
	for _, w := range warnings {
		if w.Code == "unsupported_dose_claim" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected unsupported_dose_claim warning, got %+v", warnings)
	}
}

func TestPostSynthesisCheck_CorroboratedDosePasses(t *testing.T) {
	draft := "Administer lidocaine 100 mg topically."
	chunks := []*rtypes.Chunk{
		{Text: "Topical lidocaine dose of 100 mg is standard."},
		{Text: "Typical topical lidocaine dosing is around 110 mg in adults."},
	}
	warnings, _ := PostSynthesisCheck(DefaultPostSynthesisCheckConfig(), draft, chunks, rtypes.ClassClinical)
	for _, w := range warnings {
		if w.Code == "unsupported_dose_claim" {
			t.Fatalf("did not expect unsupported_dose_claim, got %+v", warnings)
		}
	}
}

func TestPostSynthesisCheck_MissingContraindicationCoverage(t *testing.T) {
	chunks := []*rtypes.Chunk{
		{Text: "General procedural overview with no contraindication content."},
	}
	warnings, reviewRequired := PostSynthesisCheck(DefaultPostSynthesisCheckConfig(), "answer text", chunks, rtypes.ClassSafety)
	if !reviewRequired {
		t.Fatal("expected review_required for missing contraindication coverage")
	}
	found := false
	for _, w := range warnings {
		if w.Code == "missing_contraindication_coverage" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected missing_contraindication_coverage warning, got %+v", warnings)
	}
}

func TestPostSynthesisCheck_ContraindicationCoveragePresent(t *testing.T) {
	chunks := []*rtypes.Chunk{
		{Text: "Contraindicated in severe coagulopathy.", Tags: []rtypes.Tag{rtypes.TagHasContraindication}},
	}
	warnings, _ := PostSynthesisCheck(DefaultPostSynthesisCheckConfig(), "answer text", chunks, rtypes.ClassSafety)
	for _, w := range warnings {
		if w.Code == "missing_contraindication_coverage" {
			t.Fatalf("did not expect missing_contraindication_coverage, got %+v", warnings)
		}
	}
}

func TestWithinVariance(t *testing.T) {
	if !withinVariance(100, 115, 20) {
		t.Fatal("expected 100 vs 115 within 20% variance")
	}
	if withinVariance(100, 130, 20) {
		t.Fatal("expected 100 vs 130 to exceed 20% variance")
	}
}
