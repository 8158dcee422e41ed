package termindex

import (
	"reflect"
	"sort"
	"testing"
)

func TestIndex_CPTRoundTrip(t *testing.T) {
	idx := New()
	idx.AddCPT("31622", "chunk-1")
	idx.AddCPT("31622", "chunk-2")
	idx.AddCPT("31628", "chunk-3")

	got := idx.LookupCPT("31622")
	sort.Strings(got)
	want := []string{"chunk-1", "chunk-2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("LookupCPT(31622) = %v, want %v", got, want)
	}

	if got := idx.LookupCPT("99999"); got != nil {
		t.Fatalf("LookupCPT(unknown) = %v, want nil", got)
	}
}

func TestIndex_AliasRoundTrip(t *testing.T) {
	idx := New()
	idx.AddAlias("ebus-tbna", "chunk-1")
	got := idx.LookupAlias("ebus-tbna")
	if !reflect.DeepEqual(got, []string{"chunk-1"}) {
		t.Fatalf("LookupAlias = %v", got)
	}
}

func TestFindCPTTokens(t *testing.T) {
	got := FindCPTTokens("CPT 31622 and also 31622 again, plus 31628. Not a code: 123456 or 1234.")
	want := []string{"31622", "31628"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FindCPTTokens = %v, want %v", got, want)
	}
}
