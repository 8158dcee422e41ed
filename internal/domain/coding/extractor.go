package coding

import (
	"sort"
	"strconv"
	"strings"

	ctypes "github.com/russellmiller49/ip-assist-lite/pkg/types/coding"
	"github.com/russellmiller49/ip-assist-lite/internal/domain/termindex"
)

// ExtractionResult is the extractor's output: the performed items plus
// note-level context the rule engine needs (station/lobe sets, sedation,
// laterality, explicit CPT mentions).
type ExtractionResult struct {
	Items []ctypes.PerformedItem
	Stations []string
	Lobes []string
	Laterality ctypes.Laterality
	Sedation ctypes.SedationInfo
	ExplicitCPTs []string
	Warnings []string
	LowConfidence bool
}

// ExtractStations ports patterns.py's extract_stations: bare station-number
// tokens are only counted when context (preceding/following "station",
// "level", "node", or list-comma adjacency) confirms they are lymph-node
// references, plus anatomic-region additions that are added outright when
// the corresponding region name appears in the note.
func ExtractStations(text string) []string {
	set := map[string]struct{}{}
	matches := reStationPrimary.FindAllStringSubmatchIndex(text, -1)
	for _, m := range matches {
		numStart, numEnd := m[2], m[3]
		num := text[numStart:numEnd]
		var laterality string
		if m[4] != -1 {
			laterality = strings.ToUpper(text[m[4]:m[5]])
		}
		n, _ := strconv.Atoi(num)
		if laterality != "" {
			switch n {
			case 2, 4, 10, 11, 12, 13, 14:
				set[num+laterality] = struct{}{}
			default:
				set[num] = struct{}{}
			}
			continue
		}

		start, end := m[0], m[1]
		beforeStart := start - 15
		if beforeStart < 0 {
			beforeStart = 0
		}
		afterEnd := end + 15
		if afterEnd > len(text) {
			afterEnd = len(text)
		}
		before := strings.ToLower(text[beforeStart:start])
		after := strings.ToLower(text[end:afterEnd])

		if hasTrailingSlash(before) || hasLeadingSlash(after) {
			continue
		}
		if containsAny(before, "station", "level", "node") || containsAny(after, "station", "node", "level") {
			set[num] = struct{}{}
		} else if hasTrailingComma(before) || hasLeadingComma(after) {
			set[num] = struct{}{}
		}
	}

	lower := strings.ToLower(text)
	if strings.Contains(lower, "paratracheal") && strings.Contains(lower, "right") {
		set["2R"] = struct{}{}
		set["4R"] = struct{}{}
	}
	if strings.Contains(lower, "paratracheal") && strings.Contains(lower, "left") {
		set["2L"] = struct{}{}
		set["4L"] = struct{}{}
	}
	if strings.Contains(lower, "subcarinal") {
		set["7"] = struct{}{}
	}
	if strings.Contains(lower, "hilar") && strings.Contains(lower, "right") {
		set["10R"] = struct{}{}
		set["11R"] = struct{}{}
	}
	if strings.Contains(lower, "hilar") && strings.Contains(lower, "left") {
		set["10L"] = struct{}{}
		set["11L"] = struct{}{}
	}
	if strings.Contains(lower, "aortopulmonary") || strings.Contains(lower, "ap window") {
		set["5"] = struct{}{}
	}

	return setToSortedSlice(set)
}

func hasTrailingSlash(s string) bool {
	return len(s) >= 1 && strings.Contains(s[clampFloor(len(s)-2):], "/")
}
func hasLeadingSlash(s string) bool {
	return len(s) >= 1 && strings.Contains(s[:clampCeil(len(s), 2)], "/")
}
func hasTrailingComma(s string) bool {
	return strings.Contains(s[clampFloor(len(s)-3):], ",")
}
func hasLeadingComma(s string) bool {
	return strings.Contains(s[:clampCeil(len(s), 3)], ",")
}
func clampFloor(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
func clampCeil(n, limit int) int {
	if n < limit {
		return n
	}
	return limit
}

func containsAny(haystack string, needles...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func setToSortedSlice(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// FindCPTTokensInNote surfaces explicit CPT-shaped tokens mentioned
// directly in the note text, reusing the term index's token scanner.
func FindCPTTokensInNote(text string) []string {
	return termindex.FindCPTTokens(text)
}

// ExtractLobes ports patterns.py's extract_lobes.
func ExtractLobes(text string) []string {
	set := map[string]struct{}{}
	for _, m := range reLobes.FindAllString(text, -1) {
		canon, ok := lobeMap[strings.ToLower(m)]
		if !ok {
			canon = strings.ToUpper(m)
		}
		set[canon] = struct{}{}
	}
	return setToSortedSlice(set)
}

// DetermineLaterality ports patterns.py's determine_laterality.
func DetermineLaterality(text string) ctypes.Laterality {
	if reBilateral.MatchString(text) {
		return ctypes.LateralityBilateral
	}
	hasRight := reRight.MatchString(text)
	hasLeft := reLeft.MatchString(text)

	stations := ExtractStations(text)
	rightStations, leftStations := 0, 0
	for _, s := range stations {
		if strings.HasSuffix(s, "R") {
			rightStations++
		}
		if strings.HasSuffix(s, "L") {
			leftStations++
		}
	}

	right := hasRight || rightStations > 0
	left := hasLeft || leftStations > 0
	switch {
	case right && left:
		return ctypes.LateralityBilateral
	case right:
		return ctypes.LateralityRight
	case left:
		return ctypes.LateralityLeft
	default:
		return ctypes.LateralityUnspecified
	}
}

// detectGeneralAnesthesia reports whether GA indicators are present.
func detectGeneralAnesthesia(text string) bool {
	return reGeneralAnesthesia.MatchString(text)
}

// extractSedationMinutes ports the sedation_minutes / hhmm_times patterns,
// preferring an explicit minutes figure and falling back to the difference
// between documented start/end clock times.
func extractSedationMinutes(text string) (minutes int, start, end string) {
	if m := reSedationMinutes.FindStringSubmatch(text); m != nil {
		for _, g := range m[1:] {
			if g != "" {
				v, _ := strconv.Atoi(g)
				return v, "", ""
			}
		}
	}
	if m := reHHMMTimes.FindStringSubmatch(text); m != nil {
		start, end = m[1], m[2]
		mins := hhmmDiffMinutes(start, end)
		return mins, start, end
	}
	return 0, "", ""
}

func hhmmDiffMinutes(start, end string) int {
	sh, sm := parseHHMM(start)
	eh, em := parseHHMM(end)
	total := (eh*60 + em) - (sh*60 + sm)
	if total < 0 {
		total += 24 * 60
	}
	return total
}

func parseHHMM(s string) (int, int) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return h, m
}

// Extract runs the full extraction pipeline over a lightly normalized
// operative note, producing PerformedItems plus note-level context.
func Extract(noteText string) *ExtractionResult {
	r := &ExtractionResult{}
	r.Stations = ExtractStations(noteText)
	r.Lobes = ExtractLobes(noteText)
	r.Laterality = DetermineLaterality(noteText)
	r.ExplicitCPTs = FindCPTTokensInNote(noteText)

	lower := strings.ToLower(noteText)
	guided := reUltrasound.MatchString(noteText) || reCTGuidance.MatchString(noteText) || reFluoroscopy.MatchString(noteText) || strings.Contains(lower, "ct")

	addItem := func(id ctypes.ProcID, site ctypes.Site) {
		r.Items = append(r.Items, ctypes.PerformedItem{ID: id, Site: site, Laterality: r.Laterality})
	}

	// Stent detection with negative-mention guard and brand/site
	// disambiguation.
	if loc := reStent.FindStringIndex(noteText); loc != nil && !hasNegativeMentionNearby(noteText, loc[0], loc[1]) {
		isY := reYStent.MatchString(noteText)
		isTracheal := isY || (reTracheal.MatchString(noteText) && !reBronchial.MatchString(noteText))
		if isTracheal {
			addItem(ctypes.ProcTrachealStentInsertion, ctypes.SiteTrachea)
		} else {
			addItem(ctypes.ProcBronchialStentInsertion, ctypes.SiteBronchus)
		}
	} else if loc := reStentBrand.FindStringIndex(noteText); loc != nil && !hasNegativeMentionNearby(noteText, loc[0], loc[1]) {
		if reTracheal.MatchString(noteText) && !reBronchial.MatchString(noteText) {
			addItem(ctypes.ProcTrachealStentInsertion, ctypes.SiteTrachea)
		} else {
			addItem(ctypes.ProcBronchialStentInsertion, ctypes.SiteBronchus)
		}
	}

	hasStent := false
	for _, it := range r.Items {
		if it.ID == ctypes.ProcTrachealStentInsertion || it.ID == ctypes.ProcBronchialStentInsertion {
			hasStent = true
		}
	}
	if reDilation.MatchString(noteText) && !hasStent {
		addItem(ctypes.ProcAirwayDilationOnly, ctypes.SiteUnknown)
	}

	// Tumor excision vs destruction: excision wins when both detected.
	hasExcision := reSnareExcision.MatchString(noteText)
	hasDestruction := reAblation.MatchString(noteText)
	switch {
	case hasExcision:
		addItem(ctypes.ProcTumorExcisionBronchoscopic, ctypes.SiteUnknown)
	case hasDestruction:
		addItem(ctypes.ProcTumorDestructionBronchoscopic, ctypes.SiteUnknown)
	}

	if reWholeLungLavage.MatchString(noteText) {
		addItem(ctypes.ProcWholeLungLavage, ctypes.SiteUnknown)
	}

	// EBUS: convex with TBNA vs radial/diagnostic only.
	hasEBUS := reEBUS.MatchString(noteText)
	hasTBNA := reTBNA.MatchString(noteText)
	isRadial := strings.Contains(lower, "radial")
	switch {
	case hasEBUS && hasTBNA && !isRadial:
		addItem(ctypes.ProcEBUSTBNA, ctypes.SiteUnknown)
	case hasEBUS:
		addItem(ctypes.ProcEBUSWithoutTBNA, ctypes.SiteUnknown)
	case hasTBNA:
		addItem(ctypes.ProcTransbronchialNeedleAspiration, ctypes.SiteUnknown)
	}

	if reTBLB.MatchString(noteText) {
		addItem(ctypes.ProcTBLBForcepsOrCryo, ctypes.SiteLobe)
	}

	if reNavigation.MatchString(noteText) {
		addItem(ctypes.ProcNavBronchoscopy, ctypes.SiteUnknown)
	}

	if reThoracentesis.MatchString(noteText) {
		item := ctypes.PerformedItem{ID: ctypes.ProcThoracentesis, Site: ctypes.SiteUnknown, Guided: guided, Laterality: r.Laterality}
		r.Items = append(r.Items, item)
	}
	if rePleurx.MatchString(noteText) {
		addItem(ctypes.ProcIPCTunneledPleuralCatheter, ctypes.SiteUnknown)
	} else if reChestTube.MatchString(noteText) {
		item := ctypes.PerformedItem{ID: ctypes.ProcPleuralDrainageCatheterNonTunneled, Site: ctypes.SiteUnknown, Guided: guided, Laterality: r.Laterality}
		r.Items = append(r.Items, item)
	}

	if reChartis.MatchString(noteText) {
		addItem(ctypes.ProcChartisAssessment, ctypes.SiteUnknown)
	}
	if reValves.MatchString(noteText) {
		addItem(ctypes.ProcEndobronchialValves, ctypes.SiteUnknown)
	}
	if reFiducial.MatchString(noteText) {
		addItem(ctypes.ProcFiducialMarkers, ctypes.SiteUnknown)
	}

	// Sedation.
	ga := detectGeneralAnesthesia(noteText)
	minutes, start, end := extractSedationMinutes(noteText)
	r.Sedation = ctypes.SedationInfo{
		GeneralAnesthesia: ga,
		ProvidedByProceduralist: reModerateSedation.MatchString(noteText) && !strings.Contains(lower, "anesthesiologist") && !strings.Contains(lower, "crna"),
		StartTime: start,
		EndTime: end,
		TotalMinutes: minutes,
	}

	if len(r.Items) == 0 && wordCount(noteText) > 50 {
		r.LowConfidence = true
		r.Warnings = append(r.Warnings, "low_confidence: no procedure patterns matched a note of substantial length")
	}

	return r
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
