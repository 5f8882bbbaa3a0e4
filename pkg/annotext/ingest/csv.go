// Package ingest reads the tabular inputs: a texts CSV, an entities CSV,
// and the exclusion CSV, applying the configured record screens. It also
// re-imports previously exported jsonl and spacy files.
package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/annotext/annotext/pkg/annotext/catalog"
	"github.com/annotext/annotext/pkg/annotext/config"
)

// Texts reads the text corpus CSV. The file carries a header row; the text
// column is located by name, falling back to the first column. Duplicate
// texts keep only the first occurrence. When filter is true, each record
// must pass the screens.
func Texts(path string, filters config.Filters, filter bool) ([]string, error) {
	rows, header, err := readCSV(path)
	if err != nil {
		return nil, fmt.Errorf("read texts %s: %w", path, err)
	}
	col := columnIndex(header, "text")
	seen := make(map[string]struct{}, len(rows))
	var texts []string
	for _, row := range rows {
		if col >= len(row) {
			continue
		}
		text := row[col]
		if filter && !filters.Accept(text) {
			continue
		}
		if _, ok := seen[text]; ok {
			continue
		}
		seen[text] = struct{}{}
		texts = append(texts, text)
	}
	return texts, nil
}

// Entities reads the entity dictionary CSV with name and label columns.
// When filter is true, names must pass the screens and are folded to
// lowercase unless the screen is case-sensitive.
func Entities(path string, filters config.Filters, filter bool) ([]catalog.Entity, error) {
	rows, header, err := readCSV(path)
	if err != nil {
		return nil, fmt.Errorf("read entities %s: %w", path, err)
	}
	nameCol := columnIndex(header, "name")
	labelCol := columnIndex(header, "label")
	if labelCol == nameCol {
		labelCol = nameCol + 1
	}
	var entities []catalog.Entity
	for _, row := range rows {
		if nameCol >= len(row) || labelCol >= len(row) {
			continue
		}
		e := catalog.Entity{Name: row[nameCol], Label: row[labelCol]}
		if filter {
			if !filters.Accept(e.Name) {
				continue
			}
			if !filters.CaseSensitive {
				e.Name = strings.ToLower(e.Name)
			}
		}
		entities = append(entities, e)
	}
	return entities, nil
}

// Excludes reads the exclusion CSV: one entity name per row, first column.
func Excludes(path string) ([]string, error) {
	rows, _, err := readCSV(path)
	if err != nil {
		return nil, fmt.Errorf("read excludes %s: %w", path, err)
	}
	var names []string
	for _, row := range rows {
		if len(row) > 0 && row[0] != "" {
			names = append(names, row[0])
		}
	}
	return names, nil
}

// readCSV returns the data rows and the header row.
func readCSV(path string) ([][]string, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	return records[1:], records[0], nil
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return 0
}
