package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/annotext/annotext/pkg/annotext/catalog"
	"github.com/annotext/annotext/pkg/annotext/corpus"
)

// Imported is a corpus recovered from a previous export, together with the
// entity catalog derived from its annotated substrings.
type Imported struct {
	Documents []corpus.Document
	Entities  []catalog.Entity
}

// FromJSONL reads a jsonl export: one document object per line.
func FromJSONL(path string) (*Imported, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	imp := &Imported{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var doc corpus.Document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		if doc.ID == "" {
			doc.ID = corpus.HashText(doc.Text)
		}
		imp.add(doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return imp, nil
}

// spacyEntry mirrors the spacy export: [text, {"entity": [[s,e,label]...]}].
type spacyEntry struct {
	Text  string
	Spans []corpus.Span
}

func (e *spacyEntry) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) != 2 {
		return fmt.Errorf("expected [text, annotations] pair, got %d elements", len(parts))
	}
	if err := json.Unmarshal(parts[0], &e.Text); err != nil {
		return err
	}
	var wrapper struct {
		Entity []corpus.Span `json:"entity"`
	}
	if err := json.Unmarshal(parts[1], &wrapper); err != nil {
		return err
	}
	e.Spans = wrapper.Entity
	return nil
}

// FromSpacy reads a spacy export: one JSON array of [text, annotations]
// pairs.
func FromSpacy(path string) (*Imported, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	var entries []spacyEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	imp := &Imported{}
	for _, entry := range entries {
		doc := corpus.NewDocument(entry.Text)
		doc.Spans = corpus.NormalizeSpans(entry.Spans)
		imp.add(doc)
	}
	return imp, nil
}

// add appends a document and derives one entity per span, the name being
// the lowercased annotated substring.
func (imp *Imported) add(doc corpus.Document) {
	imp.Documents = append(imp.Documents, doc)
	for _, span := range doc.Spans {
		imp.Entities = append(imp.Entities, catalog.Entity{
			Name:  strings.ToLower(corpus.Substring(doc.Text, span)),
			Label: span.Label,
		})
	}
}
