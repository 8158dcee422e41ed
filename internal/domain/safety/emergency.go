// Package safety implements the safety layer : the emergency
// pattern detector, the pre- and post-synthesis safety checks, and the
// deterministic emergency-protocol template library used by the
// orchestrator's fast path.
package safety

import "regexp"

// EmergencySubtype identifies which canned protocol template applies.
type EmergencySubtype string

const (
	SubtypeMassiveHemoptysis EmergencySubtype = "massive_hemoptysis"
	SubtypeForeignBody EmergencySubtype = "foreign_body"
	SubtypeTensionPneumothorax EmergencySubtype = "tension_pneumothorax"
	SubtypeGeneric EmergencySubtype = "generic"
)

// emergencyPattern pairs a detection regex with the protocol subtype it
// should route to when matched.
type emergencyPattern struct {
	re *regexp.Regexp
	subtype EmergencySubtype
}

// emergencyPatterns is grounded on the reference retriever's
// EMERGENCY_PATTERNS list, extended with a subtype so the fast path can
// select the matching canned protocol rather than a single generic warning.
var emergencyPatterns = []emergencyPattern{
	{regexp.MustCompile(`\bmassive\s+hemoptysis\b`), SubtypeMassiveHemoptysis},
	{regexp.MustCompile(`\b(?:bleeding|hemorrhage)\s*>?\s*200\s*ml\b`), SubtypeMassiveHemoptysis},
	{regexp.MustCompile(`\bforeign\s+body\s+(?:aspiration|removal)\b`), SubtypeForeignBody},
	{regexp.MustCompile(`\btension\s+pneumothorax\b`), SubtypeTensionPneumothorax},
	{regexp.MustCompile(`\bairway\s+(?:obstruction|emergency)\b`), SubtypeGeneric},
	{regexp.MustCompile(`\bcardiac\s+arrest\b`), SubtypeGeneric},
	{regexp.MustCompile(`\brespiratory\s+failure\b`), SubtypeGeneric},
	{regexp.MustCompile(`\bemergency\s+(?:airway|intubation)\b`), SubtypeGeneric},
}

// DetectEmergency reports whether the normalized query matches any
// emergency pattern, and if so which protocol subtype applies. The first
// matching pattern in list order wins.
func DetectEmergency(normalizedQuery string) (bool, EmergencySubtype) {
	for _, p := range emergencyPatterns {
		if p.re.MatchString(normalizedQuery) {
			return true, p.subtype
		}
	}
	return false, ""
}

// Protocol is a canned, deterministic emergency-response template: no LLM
// call is involved in producing it, satisfying the fast-path latency target.
type Protocol struct {
	Subtype EmergencySubtype
	Title string
	Steps []string
	Warning string
}

// protocolLibrary is the closed set of canned templates keyed by subtype.
var protocolLibrary = map[EmergencySubtype]Protocol{
	SubtypeMassiveHemoptysis: {
		Subtype: SubtypeMassiveHemoptysis,
		Title: "Massive Hemoptysis — Immediate Actions",
		Steps: []string{
			"Position patient with bleeding side down (lateral decubitus) to protect the contralateral airway.",
			"Secure the airway; consider selective mainstem intubation or a bronchial blocker if bleeding is lateralizing.",
			"Activate interventional bronchoscopy / thoracic surgery / interventional radiology emergently.",
			"Correct coagulopathy; obtain type and crossmatch.",
			"Prepare for rigid bronchoscopy if flexible bronchoscopy cannot control the airway.",
		},
		Warning: "This is a life-threatening emergency. Do not delay airway management or specialist activation to read reference material.",
	},
	SubtypeForeignBody: {
		Subtype: SubtypeForeignBody,
		Title: "Foreign Body Aspiration — Immediate Actions",
		Steps: []string{
			"Assess for complete versus partial airway obstruction and stridor.",
			"If complete obstruction and patient unresponsive, proceed per basic/advanced life support obstructed-airway protocol.",
			"Arrange emergent rigid or flexible bronchoscopic retrieval by an operator experienced with foreign-body extraction.",
			"Have retrieval forceps, baskets, and balloon catheters available before induction.",
			"Anticipate need for general anesthesia and a controlled airway during retrieval.",
		},
		Warning: "This is a potentially life-threatening emergency. Activate emergency bronchoscopy services immediately.",
	},
	SubtypeTensionPneumothorax: {
		Subtype: SubtypeTensionPneumothorax,
		Title: "Tension Pneumothorax — Immediate Actions",
		Steps: []string{
			"Do not wait for imaging confirmation if clinical signs (hypotension, tracheal deviation, absent breath sounds, distended neck veins) are present.",
			"Perform emergent needle decompression (2nd intercostal space, midclavicular line, or 4th/5th intercostal space, anterior axillary line).",
			"Follow with tube thoracostomy placement.",
			"Reassess airway, breathing, and circulation continuously.",
		},
		Warning: "This is a life-threatening emergency requiring immediate decompression, not deferred workup.",
	},
	SubtypeGeneric: {
		Subtype: SubtypeGeneric,
		Title: "Possible Emergency — Immediate Actions",
		Steps: []string{
			"Call for emergency assistance and activate the relevant emergency response team.",
			"Assess and secure airway, breathing, and circulation.",
			"Do not delay stabilization to consult reference material.",
		},
		Warning: "This query matched an emergency pattern. Treat as a potential life-threatening situation until excluded clinically.",
	},
}

// LookupProtocol returns the canned protocol for subtype, falling back to
// the generic template for an unrecognized or empty subtype.
func LookupProtocol(subtype EmergencySubtype) Protocol {
	if p, ok := protocolLibrary[subtype]; ok {
		return p
	}
	return protocolLibrary[SubtypeGeneric]
}
