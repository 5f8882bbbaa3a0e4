// Package export writes annotated corpora in the five training formats.
// All offsets written are character offsets as the engine produced them;
// converting to byte offsets for substring extraction happens here.
package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/annotext/annotext/pkg/annotext/corpus"
	"github.com/annotext/annotext/pkg/annotext/internalerr"
)

// Format is the closed set of output formats.
type Format string

const (
	CSV   Format = "csv"
	JSONL Format = "jsonl"
	Spacy Format = "spacy"
	Brat  Format = "brat"
	CoNLL Format = "conll"
)

// ParseFormat validates a format name from configuration or a flag.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(name)) {
	case CSV:
		return CSV, nil
	case JSONL:
		return JSONL, nil
	case Spacy:
		return Spacy, nil
	case Brat:
		return Brat, nil
	case CoNLL:
		return CoNLL, nil
	}
	return "", fmt.Errorf("unknown format %q: %w", name, internalerr.ErrInvalidConfig)
}

// Save writes the documents to path (any extension is replaced by the
// format's own) and returns the files written.
func (f Format) Save(docs []corpus.Document, path string) ([]string, error) {
	base := trimExtension(path)
	switch f {
	case CSV:
		return writeLines(docs, base+".csv")
	case JSONL:
		return writeLines(docs, base+".jsonl")
	case Spacy:
		return writeSpacy(docs, base+".json")
	case Brat:
		return writeBrat(docs, base)
	case CoNLL:
		return writeCoNLL(docs, base+".txt")
	}
	return nil, fmt.Errorf("unknown format %q: %w", string(f), internalerr.ErrInvalidConfig)
}

func trimExtension(path string) string {
	if i := strings.LastIndex(path, "."); i > strings.LastIndex(path, "/") {
		return path[:i]
	}
	return path
}

// writeLines emits one JSON-encoded document per line; csv and jsonl share
// this row shape.
func writeLines(docs []corpus.Document, path string) ([]string, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, doc := range docs {
		if doc.Spans == nil {
			doc.Spans = []corpus.Span{}
		}
		row, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encode document %s: %w", doc.ID, err)
		}
		w.Write(row)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return []string{path}, nil
}

// spacyPair marshals as [text, {"entity": [[start, end, label]...]}].
type spacyPair struct {
	text  string
	spans []corpus.Span
}

func (p spacyPair) MarshalJSON() ([]byte, error) {
	spans := p.spans
	if spans == nil {
		spans = []corpus.Span{}
	}
	return json.Marshal([2]any{p.text, map[string][]corpus.Span{"entity": spans}})
}

func writeSpacy(docs []corpus.Document, path string) ([]string, error) {
	pairs := make([]spacyPair, len(docs))
	for i, doc := range docs {
		pairs[i] = spacyPair{text: doc.Text, spans: doc.Spans}
	}
	data, err := json.Marshal(pairs)
	if err != nil {
		return nil, fmt.Errorf("encode spacy: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return []string{path}, nil
}

// writeBrat emits paired .txt/.ann files. Annotation ids restart at T0 for
// each document, matching the one-document-per-file brat convention.
func writeBrat(docs []corpus.Document, base string) ([]string, error) {
	txtPath, annPath := base+".txt", base+".ann"
	txt, err := os.Create(txtPath)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", txtPath, err)
	}
	defer txt.Close()
	ann, err := os.Create(annPath)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", annPath, err)
	}
	defer ann.Close()

	tw, aw := bufio.NewWriter(txt), bufio.NewWriter(ann)
	for _, doc := range docs {
		fmt.Fprintln(tw, doc.Text)
		for i, span := range doc.Spans {
			entity := corpus.Substring(doc.Text, span)
			fmt.Fprintf(aw, "T%d\t%s\t%d\t%d\t%s\n", i, span.Label, span.Start, span.End, entity)
		}
	}
	if err := tw.Flush(); err != nil {
		return nil, fmt.Errorf("write %s: %w", txtPath, err)
	}
	if err := aw.Flush(); err != nil {
		return nil, fmt.Errorf("write %s: %w", annPath, err)
	}
	return []string{txtPath, annPath}, nil
}

// writeCoNLL whitespace-tokenizes each text and emits word\tlabel lines,
// "O" for unlabeled words, with a blank line between documents. The label
// lands on the first word containing the annotated substring.
func writeCoNLL(docs []corpus.Document, path string) ([]string, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, doc := range docs {
		words := strings.Fields(doc.Text)
		labels := make([]string, len(words))
		for i := range labels {
			labels[i] = "O"
		}
		for _, span := range doc.Spans {
			entity := corpus.Substring(doc.Text, span)
			for i, word := range words {
				if strings.Contains(word, entity) {
					labels[i] = span.Label
					break
				}
			}
		}
		for i, word := range words {
			fmt.Fprintf(w, "%s\t%s\n", word, labels[i])
		}
		fmt.Fprintln(w)
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return []string{path}, nil
}
