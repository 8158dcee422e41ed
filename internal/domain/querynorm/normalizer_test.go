package querynorm

import "testing"

type stubCounter struct {
	counts map[string]int
}

func (s stubCounter) Count(term string) int { return s.counts[term] }

func TestExpandAbbreviations_EBUS(t *testing.T) {
	n := New()
	got := n.Normalize("what is ebus used for", ZeroMentionCounter{})
	want := "what is endobronchial ultrasound (ebus) used for"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNormalize_PreservesCPTToken(t *testing.T) {
	n := New()
	got := n.Normalize("what does CPT 31622 cover?", ZeroMentionCounter{})
	if !containsToken(got, "31622") {
		t.Fatalf("expected 31622 preserved, got %q", got)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	n := New()
	counter := stubCounter{counts: map[string]int{"bronchoscopy": 5}}
	input := "what is bronkoscopy used for in ebus procedures"
	once := n.Normalize(input, counter)
	twice := n.Normalize(once, counter)
	if once != twice {
		t.Fatalf("normalize not idempotent: once=%q twice=%q", once, twice)
	}
}

func TestFuzzyCorrect_RequiresMinMentions(t *testing.T) {
	n := New()
	lowCounter := stubCounter{counts: map[string]int{"bronchoscopy": 1}}
	got := n.Normalize("bronkoscopy technique", lowCounter)
	if containsToken(got, "bronchoscopy") {
		t.Fatalf("expected no correction below min mentions, got %q", got)
	}

	highCounter := stubCounter{counts: map[string]int{"bronchoscopy": 10}}
	got2 := n.Normalize("bronkoscopy technique", highCounter)
	if !containsToken(got2, "bronchoscopy") {
		t.Fatalf("expected correction at sufficient mentions, got %q", got2)
	}
}

func TestLevenshtein(t *testing.T) {
	if d := levenshtein("kitten", "sitting"); d != 3 {
		t.Fatalf("levenshtein(kitten,sitting) = %d, want 3", d)
	}
	if d := levenshtein("stent", "stent"); d != 0 {
		t.Fatalf("levenshtein identical strings = %d, want 0", d)
	}
}

func containsToken(s, token string) bool {
	for _, w := range splitFields(s) {
		if w == token {
			return true
		}
	}
	return false
}

func splitFields(s string) []string {
	var out []string
	word := ""
	for _, r := range s {
		if r == ' ' {
			if word != "" {
				out = append(out, word)
				word = ""
			}
			continue
		}
		word += string(r)
	}
	if word != "" {
		out = append(out, word)
	}
	return out
}
