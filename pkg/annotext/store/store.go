// Package store defines durable persistence for annotated corpora: the
// documents with their spans, both reverse indices as queryable tables, and
// the history of annotation runs.
package store

import (
	"context"
	"time"

	"github.com/annotext/annotext/pkg/annotext/corpus"
)

// Run is one recorded annotation run.
type Run struct {
	ID        string
	StartedAt time.Time
	Documents int
	Skipped   int
	Spans     int
	Patterns  int
}

// Store persists annotated corpora.
type Store interface {
	Close() error

	// Documents
	SaveDocument(ctx context.Context, d corpus.Document) error
	SaveCorpus(ctx context.Context, docs []corpus.Document) error
	GetDocument(ctx context.Context, id string) (corpus.Document, bool, error)
	LoadCorpus(ctx context.Context) ([]corpus.Document, error)

	// Index lookups
	DocsByLabel(ctx context.Context, label string) ([]string, error)
	DocsByEntity(ctx context.Context, entity string) ([]string, error)

	// Run history
	RecordRun(ctx context.Context, r Run) error
	Runs(ctx context.Context) ([]Run, error)
}
