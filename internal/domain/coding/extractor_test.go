package coding

import (
	"testing"

	ctypes "github.com/russellmiller49/ip-assist-lite/pkg/types/coding"
)

func TestExtractStations_ContextGuardedNumbers(t *testing.T) {
	got := ExtractStations("Sampled lymph node stations 4R, 7, and 11L with 22G needle.")
	want := map[string]bool{"4R": true, "7": true, "11L": true}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for _, s := range got {
		if !want[s] {
			t.Fatalf("unexpected station %q in %v", s, got)
		}
	}
}

func TestExtractStations_IgnoresFractions(t *testing.T) {
	got := ExtractStations("Tumor occupies 2/3 of the airway lumen.")
	if len(got) != 0 {
		t.Fatalf("expected no stations from fraction text, got %v", got)
	}
}

func TestExtractLobes_MapsToCanonical(t *testing.T) {
	got := ExtractLobes("Biopsy performed in the RUL and left lower lobe.")
	found := map[string]bool{}
	for _, l := range got {
		found[l] = true
	}
	if !found["RUL"] || !found["LLL"] {
		t.Fatalf("expected RUL and LLL, got %v", got)
	}
}

func TestDetermineLaterality_Bilateral(t *testing.T) {
	if l := DetermineLaterality("Bilateral pleural effusions noted."); l != ctypes.LateralityBilateral {
		t.Fatalf("got %v", l)
	}
}

func TestExtract_StentNegativeMentionGuard(t *testing.T) {
	r := Extract("A tracheal stent was considered but not placed due to patient preference.")
	for _, it := range r.Items {
		if it.ID == ctypes.ProcTrachealStentInsertion {
			t.Fatalf("expected negative-mention guard to suppress stent item, got %+v", r.Items)
		}
	}
}

func TestExtract_YStentIsTracheal(t *testing.T) {
	r := Extract("A dynamic Y stent was placed at the carina under fluoroscopic guidance.")
	found := false
	for _, it := range r.Items {
		if it.ID == ctypes.ProcTrachealStentInsertion {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected tracheal_stent_insertion for Y-stent, got %+v", r.Items)
	}
}

func TestExtract_EBUSTBNA(t *testing.T) {
	r := Extract("Convex EBUS-TBNA with sampling of stations 4R, 7, and 11L; 22G needle x3 passes each. ROSE adequate.")
	found := false
	for _, it := range r.Items {
		if it.ID == ctypes.ProcEBUSTBNA {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected ebus_tbna item, got %+v", r.Items)
	}
	if len(r.Stations) < 3 {
		t.Fatalf("expected >=3 stations, got %v", r.Stations)
	}
}

func TestExtract_LowConfidenceOnLongUnmatchedNote(t *testing.T) {
	longNote := ""
	for i := 0; i < 60; i++ {
		longNote += "patient tolerated the visit well and reported no new symptoms today "
	}
	r := Extract(longNote)
	if !r.LowConfidence {
		t.Fatal("expected low_confidence on long note with no matched patterns")
	}
}

func TestExtract_GeneralAnesthesiaDetected(t *testing.T) {
	r := Extract("Patient underwent general anesthesia via ETT for the procedure.")
	if !r.Sedation.GeneralAnesthesia {
		t.Fatal("expected general anesthesia detected")
	}
}
