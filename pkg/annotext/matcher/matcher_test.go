package matcher

import (
	"errors"
	"testing"

	"github.com/annotext/annotext/pkg/annotext/catalog"
	"github.com/annotext/annotext/pkg/annotext/corpus"
	"github.com/annotext/annotext/pkg/annotext/internalerr"
)

func compile(t *testing.T, entities ...catalog.Entity) *Matcher {
	t.Helper()
	return Compile(entities)
}

func TestFindSpans_NoMatchInsideLargerToken(t *testing.T) {
	m := compile(t, catalog.Entity{Name: "art", Label: "TOPIC"})

	spans, err := m.FindSpans("the start of it")
	if err != nil {
		t.Fatal(err)
	}
	if len(spans) != 0 {
		t.Errorf("expected no spans inside 'start', got %v", spans)
	}
}

func TestFindSpans_StandaloneToken(t *testing.T) {
	m := compile(t, catalog.Entity{Name: "cat", Label: "ANIMAL"})

	spans, err := m.FindSpans("The cat sat.")
	if err != nil {
		t.Fatal(err)
	}
	want := []corpus.Span{{Start: 4, End: 7, Label: "ANIMAL"}}
	if len(spans) != 1 || spans[0] != want[0] {
		t.Errorf("expected %v, got %v", want, spans)
	}
}

func TestFindSpans_PeriodDoesNotTerminate(t *testing.T) {
	// 's' inside "u.s." ends on a period, which is not a valid terminator.
	m := compile(t, catalog.Entity{Name: "s", Label: "X"})

	spans, err := m.FindSpans("u.s. government")
	if err != nil {
		t.Fatal(err)
	}
	if len(spans) != 0 {
		t.Errorf("period should not terminate a match, got %v", spans)
	}
}

func TestFindSpans_LeadingPeriodBlocksPunctuationTerminator(t *testing.T) {
	m := compile(t, catalog.Entity{Name: "cat", Label: "ANIMAL"})

	// Right boundary is ',' but the character before the match is '.'.
	spans, err := m.FindSpans("dog.cat,x")
	if err != nil {
		t.Fatal(err)
	}
	if len(spans) != 0 {
		t.Errorf("expected rejection after '.', got %v", spans)
	}

	// Whitespace on the right is still fine after a leading '.'.
	spans, err = m.FindSpans("dog.cat here")
	if err != nil {
		t.Fatal(err)
	}
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %v", spans)
	}
	if spans[0] != (corpus.Span{Start: 4, End: 7, Label: "ANIMAL"}) {
		t.Errorf("unexpected span %v", spans[0])
	}
}

func TestFindSpans_PunctuationBoundaries(t *testing.T) {
	m := compile(t, catalog.Entity{Name: "cat", Label: "ANIMAL"})

	spans, err := m.FindSpans("(cat), obviously")
	if err != nil {
		t.Fatal(err)
	}
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %v", spans)
	}
	if spans[0] != (corpus.Span{Start: 1, End: 4, Label: "ANIMAL"}) {
		t.Errorf("unexpected span %v", spans[0])
	}
}

func TestFindSpans_RoundTrip(t *testing.T) {
	m := compile(t,
		catalog.Entity{Name: "rust", Label: "LANG"},
		catalog.Entity{Name: "mozilla", Label: "ORG"},
	)

	spans, err := m.FindSpans("rust is made by mozilla")
	if err != nil {
		t.Fatal(err)
	}
	want := []corpus.Span{
		{Start: 0, End: 4, Label: "LANG"},
		{Start: 16, End: 23, Label: "ORG"},
	}
	if len(spans) != len(want) {
		t.Fatalf("expected %v, got %v", want, spans)
	}
	for i := range want {
		if spans[i] != want[i] {
			t.Errorf("span %d: expected %v, got %v", i, want[i], spans[i])
		}
	}
}

func TestFindSpans_NoMatch(t *testing.T) {
	m := compile(t, catalog.Entity{Name: "python", Label: "LANG"})

	spans, err := m.FindSpans("rust is great")
	if err != nil {
		t.Fatal(err)
	}
	if len(spans) != 0 {
		t.Errorf("expected no spans, got %v", spans)
	}
}

func TestFindSpans_OverlappingSpansKept(t *testing.T) {
	m := compile(t,
		catalog.Entity{Name: "new york", Label: "LOC"},
		catalog.Entity{Name: "york", Label: "CITY"},
	)

	spans, err := m.FindSpans("in new york")
	if err != nil {
		t.Fatal(err)
	}
	want := []corpus.Span{
		{Start: 3, End: 11, Label: "LOC"},
		{Start: 7, End: 11, Label: "CITY"},
	}
	if len(spans) != len(want) {
		t.Fatalf("expected overlapping spans %v, got %v", want, spans)
	}
	for i := range want {
		if spans[i] != want[i] {
			t.Errorf("span %d: expected %v, got %v", i, want[i], spans[i])
		}
	}
}

func TestFindSpans_CharacterOffsetsForMultibyteText(t *testing.T) {
	m := compile(t, catalog.Entity{Name: "bar", Label: "PLACE"})

	spans, err := m.FindSpans("café bar")
	if err != nil {
		t.Fatal(err)
	}
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %v", spans)
	}
	// 'é' is two bytes but one character: bar starts at character 5.
	if spans[0] != (corpus.Span{Start: 5, End: 8, Label: "PLACE"}) {
		t.Errorf("unexpected span %v", spans[0])
	}
}

func TestFindSpans_EmptyPatternSet(t *testing.T) {
	m := Compile(nil)

	spans, err := m.FindSpans("anything at all")
	if err != nil {
		t.Fatal(err)
	}
	if len(spans) != 0 {
		t.Errorf("empty matcher must never match, got %v", spans)
	}
}

func TestFindSpans_InvalidUTF8(t *testing.T) {
	m := compile(t, catalog.Entity{Name: "cat", Label: "ANIMAL"})

	_, err := m.FindSpans("cat \xff\xfe dog")
	if !errors.Is(err, internalerr.ErrBadEncoding) {
		t.Fatalf("expected ErrBadEncoding, got %v", err)
	}
}

func TestCompile_RejectsInvalidUTF8Patterns(t *testing.T) {
	m := Compile([]catalog.Entity{
		{Name: "caf\xff", Label: "X"},
		{Name: "cat", Label: "ANIMAL"},
	})
	if m.PatternCount() != 1 {
		t.Fatalf("expected the malformed pattern to be rejected, got %d patterns", m.PatternCount())
	}

	spans, err := m.FindSpans("the cat sat")
	if err != nil {
		t.Fatal(err)
	}
	if len(spans) != 1 || spans[0] != (corpus.Span{Start: 4, End: 7, Label: "ANIMAL"}) {
		t.Errorf("surviving pattern must keep its label and offsets, got %v", spans)
	}
}

func TestCompile_AllPatternsInvalid(t *testing.T) {
	m := Compile([]catalog.Entity{{Name: "\xff\xfe", Label: "X"}})
	if m.PatternCount() != 0 {
		t.Fatalf("expected no compiled patterns, got %d", m.PatternCount())
	}
	spans, err := m.FindSpans("anything")
	if err != nil {
		t.Fatal(err)
	}
	if len(spans) != 0 {
		t.Errorf("expected no spans, got %v", spans)
	}
}

func TestSearch_ReportsContainedMatches(t *testing.T) {
	m := compile(t,
		catalog.Entity{Name: "start", Label: "A"},
		catalog.Entity{Name: "art", Label: "B"},
	)

	raw := m.Search("start")
	if len(raw) != 2 {
		t.Fatalf("expected both the containing and the contained match, got %v", raw)
	}
}
