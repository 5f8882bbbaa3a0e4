package export

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/annotext/annotext/pkg/annotext/corpus"
	"github.com/annotext/annotext/pkg/annotext/internalerr"
)

func sampleDocs() []corpus.Document {
	doc := corpus.NewDocument("rust is made by mozilla")
	doc.Spans = []corpus.Span{
		{Start: 0, End: 4, Label: "LANG"},
		{Start: 16, End: 23, Label: "ORG"},
	}
	plain := corpus.NewDocument("nothing here")
	return []corpus.Document{doc, plain}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"csv", "jsonl", "spacy", "brat", "conll", "JSONL"} {
		if _, err := ParseFormat(name); err != nil {
			t.Errorf("ParseFormat(%q) failed: %v", name, err)
		}
	}
	if _, err := ParseFormat("parquet"); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestSave_JSONL(t *testing.T) {
	docs := sampleDocs()
	path := filepath.Join(t.TempDir(), "out.data")

	files, err := JSONL.Save(docs, path)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || filepath.Ext(files[0]) != ".jsonl" {
		t.Fatalf("unexpected files %v", files)
	}

	want := `{"id":"` + docs[0].ID + `","text":"rust is made by mozilla","label":[[0,4,"LANG"],[16,23,"ORG"]]}` + "\n" +
		`{"id":"` + docs[1].ID + `","text":"nothing here","label":[]}` + "\n"
	if got := readFile(t, files[0]); got != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, got)
	}
}

func TestSave_CSVSharesRowShape(t *testing.T) {
	docs := sampleDocs()
	dir := t.TempDir()

	csvFiles, err := CSV.Save(docs, filepath.Join(dir, "a"))
	if err != nil {
		t.Fatal(err)
	}
	jsonlFiles, err := JSONL.Save(docs, filepath.Join(dir, "b"))
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Ext(csvFiles[0]) != ".csv" {
		t.Errorf("unexpected extension on %s", csvFiles[0])
	}
	if readFile(t, csvFiles[0]) != readFile(t, jsonlFiles[0]) {
		t.Error("csv and jsonl rows must carry the same shape")
	}
}

func TestSave_Spacy(t *testing.T) {
	files, err := Spacy.Save(sampleDocs(), filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Ext(files[0]) != ".json" {
		t.Fatalf("unexpected files %v", files)
	}

	want := `[["rust is made by mozilla",{"entity":[[0,4,"LANG"],[16,23,"ORG"]]}],["nothing here",{"entity":[]}]]`
	if got := readFile(t, files[0]); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestSave_Brat(t *testing.T) {
	files, err := Brat.Save(sampleDocs(), filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("expected paired txt/ann files, got %v", files)
	}

	wantTxt := "rust is made by mozilla\nnothing here\n"
	if got := readFile(t, files[0]); got != wantTxt {
		t.Errorf("txt: expected %q, got %q", wantTxt, got)
	}
	wantAnn := "T0\tLANG\t0\t4\trust\nT1\tORG\t16\t23\tmozilla\n"
	if got := readFile(t, files[1]); got != wantAnn {
		t.Errorf("ann: expected %q, got %q", wantAnn, got)
	}
}

func TestSave_CoNLL(t *testing.T) {
	files, err := CoNLL.Save(sampleDocs(), filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatal(err)
	}

	want := "rust\tLANG\n" +
		"is\tO\n" +
		"made\tO\n" +
		"by\tO\n" +
		"mozilla\tORG\n" +
		"\n" +
		"nothing\tO\n" +
		"here\tO\n" +
		"\n"
	if got := readFile(t, files[0]); got != want {
		t.Errorf("expected:\n%q\ngot:\n%q", want, got)
	}
}

func TestSave_ReplacesExtension(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]string{
		"out.csv":    "out.jsonl",
		"out.v2.txt": "out.v2.jsonl",
		"bare":       "bare.jsonl",
	}
	for in, want := range cases {
		files, err := JSONL.Save(nil, filepath.Join(dir, in))
		if err != nil {
			t.Fatal(err)
		}
		if filepath.Base(files[0]) != want {
			t.Errorf("%s: expected %s, got %v", in, want, files)
		}
	}
}
