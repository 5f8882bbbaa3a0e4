package ingest

import (
	"testing"

	"github.com/annotext/annotext/pkg/annotext/corpus"
)

func TestFromJSONL(t *testing.T) {
	path := writeFile(t, "docs.jsonl", `{"id":"a1","text":"rust is made by mozilla","label":[[0,4,"LANG"],[16,23,"ORG"]]}
{"text":"plain line","label":[]}

{"text":"another","label":null}
`)

	imp, err := FromJSONL(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(imp.Documents) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(imp.Documents))
	}
	if imp.Documents[0].ID != "a1" {
		t.Errorf("explicit id lost: %q", imp.Documents[0].ID)
	}
	if imp.Documents[1].ID == "" {
		t.Error("missing id must be backfilled from the text")
	}
	if len(imp.Documents[0].Spans) != 2 {
		t.Errorf("spans lost: %v", imp.Documents[0].Spans)
	}
}

func TestFromJSONL_DerivesEntities(t *testing.T) {
	path := writeFile(t, "docs.jsonl", `{"text":"Rust is made by Mozilla","label":[[0,4,"LANG"],[16,23,"ORG"]]}`)

	imp, err := FromJSONL(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(imp.Entities) != 2 {
		t.Fatalf("expected 2 derived entities, got %v", imp.Entities)
	}
	if imp.Entities[0].Name != "rust" || imp.Entities[0].Label != "LANG" {
		t.Errorf("unexpected entity %v", imp.Entities[0])
	}
	if imp.Entities[1].Name != "mozilla" || imp.Entities[1].Label != "ORG" {
		t.Errorf("unexpected entity %v", imp.Entities[1])
	}
}

func TestFromJSONL_BadLineReportsNumber(t *testing.T) {
	path := writeFile(t, "docs.jsonl", `{"text":"fine","label":[]}
not json`)

	if _, err := FromJSONL(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFromSpacy(t *testing.T) {
	path := writeFile(t, "docs.json", `[
  ["rust is made by mozilla", {"entity": [[0,4,"LANG"],[16,23,"ORG"]]}],
  ["nothing here", {"entity": []}]
]`)

	imp, err := FromSpacy(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(imp.Documents) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(imp.Documents))
	}
	doc := imp.Documents[0]
	if doc.Text != "rust is made by mozilla" {
		t.Errorf("unexpected text %q", doc.Text)
	}
	if doc.ID != corpus.HashText(doc.Text) {
		t.Error("spacy import must derive the id from the text")
	}
	if len(doc.Spans) != 2 || doc.Spans[0] != (corpus.Span{Start: 0, End: 4, Label: "LANG"}) {
		t.Errorf("spans lost: %v", doc.Spans)
	}
	if len(imp.Entities) != 2 {
		t.Errorf("expected 2 derived entities, got %v", imp.Entities)
	}
}

func TestFromSpacy_RejectsMalformedPair(t *testing.T) {
	path := writeFile(t, "docs.json", `[["only text"]]`)

	if _, err := FromSpacy(path); err == nil {
		t.Fatal("expected error for a non-pair entry")
	}
}
