// Package coding implements the procedural coder : the pattern-based
// extractor, the deterministic rule engine, the KB loader, and the
// source-only explainer. Grounded on the reference implementation's
// src/coding/patterns.py and src/coding/rules.py.
package coding

import "regexp"

// namedPattern pairs a compiled regex with the procedure it signals.
type namedPattern struct {
	name string
	re *regexp.Regexp
}

var (
	reBronchoscopy = regexp.MustCompile(`(?i)\b(bronchoscop|flexible\s+bronch|diagnostic\s+bronch|therapeutic\s+bronch)\w*\b`)
	reEBUS = regexp.MustCompile(`(?i)\b(ebus|endobronchial\s+ultrasound|linear\s+ebus|radial\s+ebus|cp.?ebus)\b`)
	reTBNA = regexp.MustCompile(`(?i)\b(tbna|transbronchial\s+needle\s+aspiration|needle\s+aspiration|fine\s+needle\s+aspir)\w*\b`)
	reTBLB = regexp.MustCompile(`(?i)\b(tblb|transbronchial\s+lung\s+biops|transbronchial\s+biops|forceps\s+biops|cryobiops)\w*\b`)
	reNavigation = regexp.MustCompile(`(?i)\b(navigat|enb|emn|ion\s+system|monarch|virtual\s+bronch|computer.?assisted|shape.?sens)\w*\b`)

	reLobes = regexp.MustCompile(`(?i)\b(rul|rml|rll|lul|lingula|lll|right\s+upper|right\s+middle|right\s+lower|left\s+upper|left\s+lower)\b`)
	reRight = regexp.MustCompile(`(?i)\b(right|rt\.?)\s*(?:sided?|lung|side|chest|pleural|hilar|paratracheal|lower\s+paratracheal|upper\s+paratracheal)\b`)
	reLeft = regexp.MustCompile(`(?i)\b(left|lt\.?)\s*(?:sided?|lung|side|chest|pleural|hilar|para.?aortic|subaortic|aortopulmonary)\b`)
	reBilateral = regexp.MustCompile(`(?i)\b(bilateral|both\s+sides?|both\s+lungs?|bilaterally)\b`)

	reThoracentesis = regexp.MustCompile(`(?i)\b(thoracentesis|pleural\s+tap|pleural\s+aspirat|diagnostic\s+tap)\w*\b`)
	reChestTube = regexp.MustCompile(`(?i)\b(chest\s+tube|pleural\s+drain|pigtail|thoracostomy|tube\s+thoracostomy)\b`)
	rePleurx = regexp.MustCompile(`(?i)\b(pleurx|ipc|indwelling\s+pleural\s+catheter|tunneled\s+catheter|chronic\s+drain)\b`)
	reUltrasound = regexp.MustCompile(`(?i)\b(ultrasound|u/?s\s+guid|sonograph|echo.?guid)\w*\b`)
	reFluoroscopy = regexp.MustCompile(`(?i)\b(fluoroscop|fluoro\s+guid|c.?arm)\w*\b`)
	reCTGuidance = regexp.MustCompile(`(?i)\b(ct\s+guid|computed\s+tomograph.?\s+guid|ct.?fluoroscop)\w*\b`)

	reModerateSedation = regexp.MustCompile(`(?i)\b(moderate\s+sedat|conscious\s+sedat|versed|fentanyl|midazolam|propofol)\w*\b`)
	reHHMMTimes = regexp.MustCompile(`(?i)(\d{1,2}:\d{2})\s*(?:to|-|–|through)\s*(\d{1,2}:\d{2})`)
	reSedationMinutes = regexp.MustCompile(`(?i)sedat\w*\s+(?:time|duration)[:\s]*(\d+)\s*min|\bsedat\w*\s+(?:for\s+)?(\d+)\s*min|(\d+)\s*min\w*\s+(?:of\s+)?sedat|sedat\w*[,:\s]+(\d+)\s*min`)

	reChartis = regexp.MustCompile(`(?i)\b(chartis|collateral\s+ventilat|balloon\s+occlus|assessment\s+catheter)\w*\b`)
	reValves = regexp.MustCompile(`(?i)\b(zephyr|endobronchial\s+valve|ebv|valve\s+placement|spiration|one.?way\s+valve)\w*\b`)
	reAblation = regexp.MustCompile(`(?i)\b(ablat|microwave|mwa|cryo.?(?:ablat|therap)|pulsed.?electric|radiofrequency|thermal\s+(?:ablat|destruct)|apc\b|argon\s+plasma|laser\s+(?:ablat|therap|destruct))\w*\b`)
	reFiducial = regexp.MustCompile(`(?i)\b(fiducial|marker\s+placement|gold\s+seed|beacon|anchor)\w*\b`)

	reStent = regexp.MustCompile(`(?i)\b(stent|sems|metallic\s+stent|silicone\s+stent|airway\s+stent)\w*\b`)
	reStentBrand = regexp.MustCompile(`(?i)\b(bona[\s-]?stent|bonastent|thoracent|micro[\s-]?tech(?:\s+y[- ]?stent)?|aero(?:mini)?|merit(?:\s+endotek)?|ultra[\s-]?flex|ultraflex|dumon(?:\s*y)?|dynamic\s*y|poly[\s-]?flex|r(?:ü|u)sch|hood|hood\s+labs?|t[- ]?tube|niti[\s-]?s|taewoong)\b`)
	reYStent = regexp.MustCompile(`(?i)\b(y[-\s]?stent|carinal\s+y[-\s]?stent|dynamic\s*y)\b`)
	reTracheal = regexp.MustCompile(`(?i)\b(trachea|tracheal|subglott|cricoid|carinal?|carina)\b`)
	reBronchial = regexp.MustCompile(`(?i)\b(bronchus|bronchial|mainstem|main\s+stem|lobar\s+bronchus|segmental\s+bronchus)\b`)
	reDilation = regexp.MustCompile(`(?i)\b(dilat|balloon\s+dilat|pneumatic\s+dilat|rigid\s+dilat)\w*\b`)
	reForeignBody = regexp.MustCompile(`(?i)\b(foreign\s+body|fb\s+removal|retrieval|extraction)\b`)
	reWashBrush = regexp.MustCompile(`(?i)\b(wash|brush|bronchial\s+wash|protected\s+brush|psc)\w*\b`)
	reWholeLungLavage = regexp.MustCompile(`(?i)\b(whole\s+lung\s+lavage|wll|double[- ]lumen\s+tube\s+lavage|bilateral\s+lung\s+lavage)\b`)
	reSnareExcision = regexp.MustCompile(`(?i)\b(electrocautery\s+snare|snare|polypectomy|excis|transect|resect|specimen\s+(?:sent|collected|submitted)|lesions?\s+removed\s+with\s+suction|completely\s+removed)\w*\b`)
	reGeneralAnesthesia = regexp.MustCompile(`(?i)\b(general\s+anesthesia|ga\b|lma\b|laryngeal\s+mask|endotracheal|ett\b|intubat|muscle\s+relax|paralytic|rocuronium|succinylcholine|vecuronium)\w*\b`)

	reStationPrimary = regexp.MustCompile(`(?i)\b([1-9]|1[0-4])([RLrl])?\b`)
)

// negativeMentionWords are the terms that, if present within an 8-token
// window of a positive match, invalidate it (stent negative-mention // guard).
var negativeMentionWords = map[string]struct{}{
	"no": {}, "declined": {}, "considered": {}, "deferred": {},
	"reluctant": {}, "not": {},
}

// lobeMap canonicalizes free-text lobe mentions to the closed lobe code set.
var lobeMap = map[string]string{
	"rul": "RUL", "right upper": "RUL",
	"rml": "RML", "right middle": "RML",
	"rll": "RLL", "right lower": "RLL",
	"lul": "LUL", "left upper": "LUL",
	"lingula": "LINGULA",
	"lll": "LLL", "left lower": "LLL",
}

// hasNegativeMentionNearby reports whether any of negativeMentionWords
// appears within an 8-token window around [start,end) in text,
// negative-mention guard used to drop stent-mention false positives like
// "stent placement was considered but not placed".
func hasNegativeMentionNearby(text string, start, end int) bool {
	words := tokenizeWithOffsets(text)
	matchStartWord, matchEndWord := -1, -1
	for i, w := range words {
		if matchStartWord == -1 && w.end > start {
			matchStartWord = i
		}
		if w.start < end {
			matchEndWord = i
		}
	}
	if matchStartWord == -1 {
		return false
	}
	lo := matchStartWord - 8
	if lo < 0 {
		lo = 0
	}
	hi := matchEndWord + 8
	if hi >= len(words) {
		hi = len(words) - 1
	}
	for i := lo; i <= hi; i++ {
		if _, bad := negativeMentionWords[lowerASCII(words[i].text)]; bad {
			return true
		}
	}
	return false
}

type wordSpan struct {
	text string
	start, end int
}

func tokenizeWithOffsets(text string) []wordSpan {
	var out []wordSpan
	start := -1
	for i := 0; i <= len(text); i++ {
		isWordChar := i < len(text) && isAlnum(text[i])
		if isWordChar && start == -1 {
			start = i
		} else if !isWordChar && start != -1 {
			out = append(out, wordSpan{text: text[start:i], start: start, end: i})
			start = -1
		}
	}
	return out
}

func isAlnum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
