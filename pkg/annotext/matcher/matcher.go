// Package matcher locates entity occurrences in document text. A compiled
// Matcher wraps a multi-pattern Aho–Corasick automaton over all entity
// names; the boundary filter then keeps only standalone token occurrences.
package matcher

import (
	"unicode/utf8"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"

	"github.com/annotext/annotext/pkg/annotext/catalog"
	"github.com/annotext/annotext/pkg/annotext/corpus"
	"github.com/annotext/annotext/pkg/annotext/internalerr"
)

// Matcher is a compiled multi-pattern automaton. Compilation costs O(total
// pattern length) and happens once per annotation run; the compiled form is
// immutable and safe to share across workers.
type Matcher struct {
	ac       ahocorasick.AhoCorasick
	entities []catalog.Entity
}

// RawMatch is a single automaton hit: byte offsets into the haystack plus
// the index of the pattern that matched. The automaton reports every
// occurrence, including overlapping and contained ones; filtering is the
// boundary resolver's job.
type RawMatch struct {
	StartByte int
	EndByte   int
	Pattern   int
}

// Compile builds the automaton over all entity names. Names that are not
// valid UTF-8 are rejected at compile: automaton offsets must always land
// on rune starts of a valid haystack, and a malformed pattern could match
// mid-rune. An empty entity set yields a valid matcher that never matches.
func Compile(entities []catalog.Entity) *Matcher {
	m := &Matcher{}
	for _, e := range entities {
		if utf8.ValidString(e.Name) {
			m.entities = append(m.entities, e)
		}
	}
	if len(m.entities) == 0 {
		return m
	}
	patterns := make([]string, len(m.entities))
	for i, e := range m.entities {
		patterns[i] = e.Name
	}
	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: false,
		MatchOnlyWholeWords:  false,
		MatchKind:            ahocorasick.StandardMatch,
		DFA:                  true,
	})
	m.ac = builder.Build(patterns)
	return m
}

// PatternCount returns the number of compiled patterns.
func (m *Matcher) PatternCount() int {
	return len(m.entities)
}

// Search returns every occurrence of every pattern in text, overlapping and
// contained matches included.
func (m *Matcher) Search(text string) []RawMatch {
	if len(m.entities) == 0 {
		return nil
	}
	var out []RawMatch
	iter := m.ac.IterOverlapping(text)
	for mt := iter.Next(); mt != nil; mt = iter.Next() {
		out = append(out, RawMatch{StartByte: mt.Start(), EndByte: mt.End(), Pattern: mt.Pattern()})
	}
	return out
}

// FindSpans runs the full per-document pipeline: search, byte→character
// offset conversion, boundary filtering, then sort and exact-duplicate
// removal. Text that is not valid UTF-8 yields internalerr.ErrBadEncoding so
// the caller can skip the document instead of failing the run.
func (m *Matcher) FindSpans(text string) ([]corpus.Span, error) {
	if !utf8.ValidString(text) {
		return nil, internalerr.ErrBadEncoding
	}
	if len(m.entities) == 0 {
		return nil, nil
	}

	runes := []rune(text)
	// Character offset for every rune-start byte; automaton offsets always
	// land on rune starts in valid UTF-8.
	byteToChar := make([]int, len(text)+1)
	char := 0
	for i := range text {
		byteToChar[i] = char
		char++
	}
	byteToChar[len(text)] = char

	var spans []corpus.Span
	iter := m.ac.IterOverlapping(text)
	for mt := iter.Next(); mt != nil; mt = iter.Next() {
		start := byteToChar[mt.Start()]
		end := byteToChar[mt.End()]
		if !validBoundary(runes, start, end) {
			continue
		}
		spans = append(spans, corpus.Span{Start: start, End: end, Label: m.entities[mt.Pattern()].Label})
	}
	return corpus.NormalizeSpans(spans), nil
}
