package corpus

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"
)

// Span marks a character range of a document's text carrying an entity label.
// Start and End are character offsets, not byte offsets.
type Span struct {
	Start int
	End   int
	Label string
}

// MarshalJSON encodes a span as the [start, end, label] triple used by the
// jsonl and spacy output formats.
func (s Span) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]any{s.Start, s.End, s.Label})
}

// UnmarshalJSON decodes a [start, end, label] triple.
func (s *Span) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) != 3 {
		return fmt.Errorf("span: expected [start, end, label], got %d elements", len(parts))
	}
	if err := json.Unmarshal(parts[0], &s.Start); err != nil {
		return fmt.Errorf("span start: %w", err)
	}
	if err := json.Unmarshal(parts[1], &s.End); err != nil {
		return fmt.Errorf("span end: %w", err)
	}
	if err := json.Unmarshal(parts[2], &s.Label); err != nil {
		return fmt.Errorf("span label: %w", err)
	}
	return nil
}

// Document is a single corpus text with the spans found in it.
// ID is a content hash of Text, so identical texts collide by design.
type Document struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Spans []Span `json:"label"`
}

// NewDocument creates an unannotated document from raw text.
func NewDocument(text string) Document {
	return Document{ID: HashText(text), Text: text}
}

// HashText returns the deterministic content hash used as a document id.
func HashText(text string) string {
	h := fnv.New64a()
	h.Write([]byte(text))
	return fmt.Sprintf("%x", h.Sum64())
}

// Extend appends spans to the document and restores the span-list invariant
// (sorted ascending by (start, end, label), exact duplicates removed).
func (d *Document) Extend(spans []Span) {
	d.Spans = NormalizeSpans(append(d.Spans, spans...))
}

// NormalizeSpans sorts spans ascending by (start, end, label) and removes
// exact duplicate triples. Overlapping spans with different labels are kept.
// The operation is idempotent.
func NormalizeSpans(spans []Span) []Span {
	if len(spans) == 0 {
		return spans
	}
	sort.SliceStable(spans, func(i, j int) bool {
		a, b := spans[i], spans[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		return a.Label < b.Label
	})
	out := spans[:1]
	for _, s := range spans[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}

// ByteRange converts a character-offset range into the byte-offset range
// addressing the same slice of text. Out-of-range character offsets clamp to
// the end of the text.
func ByteRange(text string, start, end int) (int, int) {
	byteStart, byteEnd := len(text), len(text)
	char := 0
	for i := range text {
		if char == start {
			byteStart = i
		}
		if char == end {
			byteEnd = i
			break
		}
		char++
	}
	if start == 0 {
		byteStart = 0
	}
	return byteStart, byteEnd
}

// Substring returns the text addressed by a span's character offsets.
func Substring(text string, s Span) string {
	start, end := ByteRange(text, s.Start, s.End)
	return text[start:end]
}
