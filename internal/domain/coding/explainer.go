package coding

import (
	"fmt"

	ctypes "github.com/russellmiller49/ip-assist-lite/pkg/types/coding"
)

// Explain returns a deterministic, source-only justification for code
// within bundle: the rule engine's recorded rationale, or its suppression
// reason if it was dropped, explainer contract (no LLM
// involvement at this step).
func Explain(bundle *ctypes.CodeBundle, code string) string {
	if bundle == nil {
		return "no coding bundle available"
	}
	for _, s := range bundle.SuppressedWithReason {
		if s.Code == code {
			return fmt.Sprintf("%s was suppressed: %s", code, s.Reason)
		}
	}
	if explanation, ok := bundle.Explanations[code]; ok {
		return explanation
	}
	if bundle.HasCode(code) {
		return fmt.Sprintf("%s is present in the coding bundle with no additional rationale recorded", code)
	}
	return fmt.Sprintf("%s is not present in this coding bundle", code)
}

// ExplainAll populates bundle.Explanations for every code currently
// present that lacks one, using the generic present-with-no-rationale
// message, so downstream consumers can always look up an explanation.
func ExplainAll(bundle *ctypes.CodeBundle) {
	if bundle == nil {
		return
	}
	for _, code := range bundle.AllCodes() {
		if _, ok := bundle.Explanations[code]; !ok {
			bundle.Explanations[code] = Explain(bundle, code)
		}
	}
}
