package coding

import (
	"context"
	"encoding/json"
	"os"

	"github.com/russellmiller49/ip-assist-lite/pkg/errors"
)

// KB is the loaded coding knowledge base: CPT descriptions, NCCI bundling
// pairs, bilateral-eligible codes, and ICD-10-PCS crosswalk examples.
// Loaded with the reference implementation's fallback-path pattern:
// data/ip_coding_billing.json tried first, data/coding_module.json as
// fallback (Open Question #1).
type KB struct {
	KBVersion string `json:"version"`
	CPTDescriptions map[string]string `json:"cpt_descriptions"`
	NCCIBundles []NCCIPair `json:"ncci_bundles"`
	BilateralEligibleCodes []string `json:"bilateral_eligible_codes"`
	ICD10PCSCrosswalk map[string]string `json:"icd10_pcs_crosswalk"`
	DocumentationMinimums []string `json:"documentation_minimums"`

	SourcePath string `json:"-"`
}

// NCCIPair expresses "code A bundles into code B" — when both A and B are
// present in a bundle, A is suppressed.
type NCCIPair struct {
	Bundled string `json:"bundled"` // code A
	Into string `json:"into"` // code B
	Note string `json:"note"`
}

// LoadKB tries each path in order and returns the first successfully
// parsed KB. Per, kb_version is populated from the loaded file's
// explicit version field, falling back to its mtime.
func LoadKB(paths []string) (*KB, error) {
	var lastErr error
	for _, p := range paths {
		kb, err := loadKBFile(p)
		if err == nil {
			return kb, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		return nil, errors.New(errors.ErrCodeKBLoadFailed, "no coding KB paths configured")
	}
	return nil, errors.Wrap(lastErr, errors.ErrCodeKBLoadFailed, "no coding KB file could be loaded")
}

func loadKBFile(path string) (*KB, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var kb KB
	if err := json.Unmarshal(data, &kb); err != nil {
		return nil, err
	}
	kb.SourcePath = path
	if kb.KBVersion == "" {
		if info, statErr := os.Stat(path); statErr == nil {
			kb.KBVersion = info.ModTime().UTC().Format("20060102T150405Z")
		}
	}
	return &kb, nil
}

// Version satisfies orchestrator.KBVersionProvider, reporting which KB
// snapshot grounded a coding-classed answer.
func (kb *KB) Version() string {
	if kb == nil {
		return ""
	}
	return kb.KBVersion
}

// Describe returns the configured description for code, or "" if unknown.
func (kb *KB) Describe(code string) string {
	if kb == nil {
		return ""
	}
	return kb.CPTDescriptions[code]
}

// BundlesInto returns the code that `code` bundles into, per the NCCI
// pairs, or "" if code is not a bundled member.
func (kb *KB) BundlesInto(code string) string {
	if kb == nil {
		return ""
	}
	for _, pair := range kb.NCCIBundles {
		if pair.Bundled == code {
			return pair.Into
		}
	}
	return ""
}

// IsBilateralEligible reports whether code can carry the -50 modifier.
func (kb *KB) IsBilateralEligible(code string) bool {
	if kb == nil {
		return false
	}
	for _, c := range kb.BilateralEligibleCodes {
		if c == code {
			return true
		}
	}
	return false
}

// ICD10PCS returns the crosswalk code for a named procedure key (e.g.
// "tracheal_excision"), or def if the key is absent from the KB.
func (kb *KB) ICD10PCS(key, def string) string {
	if kb == nil {
		return def
	}
	if v, ok := kb.ICD10PCSCrosswalk[key]; ok && v != "" {
		return v
	}
	return def
}

// BundleGraphSource is an alternate seed for the NCCI bundling pairs and
// ICD-10-PCS crosswalk normally read from the JSON KB file, selected via
// coding.kb_graph_backend=neo4j. It leaves every other KB field (CPT
// descriptions, bilateral-eligible codes, documentation minimums) sourced
// from the JSON file, since only the bundle/crosswalk graph benefits from
// being modeled as a graph.
type BundleGraphSource interface {
	LoadNCCIBundles(ctx context.Context) ([]NCCIPair, error)
	LoadICD10PCSCrosswalk(ctx context.Context) (map[string]string, error)
}

// LoadFromGraph overwrites kb's NCCIBundles and ICD10PCSCrosswalk with the
// contents of src, leaving rules.go and every other *KB accessor untouched.
func (kb *KB) LoadFromGraph(ctx context.Context, src BundleGraphSource) error {
	bundles, err := src.LoadNCCIBundles(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeKBLoadFailed, "failed to load NCCI bundles from graph backend")
	}
	crosswalk, err := src.LoadICD10PCSCrosswalk(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeKBLoadFailed, "failed to load ICD-10-PCS crosswalk from graph backend")
	}
	kb.NCCIBundles = bundles
	kb.ICD10PCSCrosswalk = crosswalk
	return nil
}
