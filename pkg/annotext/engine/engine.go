// Package engine drives the matcher over a corpus. Per-document matching is
// a pure function of (text, compiled matcher), so documents fan out to a
// bounded worker pool; results are applied and indices rebuilt on a single
// goroutine after all workers finish.
package engine

import (
	"context"
	"crypto/rand"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/annotext/annotext/pkg/annotext/catalog"
	"github.com/annotext/annotext/pkg/annotext/corpus"
	"github.com/annotext/annotext/pkg/annotext/internalerr"
	"github.com/annotext/annotext/pkg/annotext/matcher"
)

// Options configures an Engine.
type Options struct {
	// Workers bounds the annotation pool. Defaults to GOMAXPROCS.
	Workers int
	// Logger receives per-document warnings (skipped texts, duplicates).
	// Defaults to slog.Default().
	Logger *slog.Logger
	// Progress, if set, is called after each completed document with
	// (done, total). Counts are observational only.
	Progress func(done, total int)
}

// Engine annotates corpora. Safe to reuse across runs; a single corpus
// store must not be annotated concurrently with other writers.
type Engine struct {
	workers  int
	logger   *slog.Logger
	progress func(done, total int)
	entropy  *ulid.MonotonicEntropy
}

// New creates an Engine.
func New(opts Options) *Engine {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		workers:  workers,
		logger:   logger,
		progress: opts.Progress,
		entropy:  ulid.Monotonic(rand.Reader, 0),
	}
}

// Report summarizes one annotation run.
type Report struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Documents int
	Skipped   int
	Spans     int
	Patterns  int
}

// Checks returns the number of pattern×document comparisons the run covered.
func (r Report) Checks() int {
	return r.Documents * r.Patterns
}

type docResult struct {
	text    string
	spans   []corpus.Span
	skipped bool
}

// annotateDoc matches one document. Encoding is checked on the original
// text, before folding: ToLower rewrites invalid bytes as U+FFFD, and a
// skipped document's stored text must stay untouched. Any matching error
// skips the document rather than leaving a half-filled result.
func (e *Engine) annotateDoc(m *matcher.Matcher, doc corpus.Document, fold bool) docResult {
	text := doc.Text
	if !utf8.ValidString(text) {
		e.logger.Warn("skipping document", "id", doc.ID, "reason", internalerr.ErrBadEncoding)
		return docResult{skipped: true}
	}
	if fold {
		text = strings.ToLower(text)
	}
	spans, err := m.FindSpans(text)
	if err != nil {
		e.logger.Warn("skipping document", "id", doc.ID, "reason", err)
		return docResult{skipped: true}
	}
	return docResult{text: text, spans: spans}
}

// Annotate compiles the catalog once, matches every document against it,
// and extends each document's span list with the accepted matches. Existing
// spans are kept: re-running adds to them, with exact duplicates removed.
// Both reverse indices are rebuilt from the full document set afterwards.
//
// Documents whose text is not valid UTF-8 are skipped with a warning; the
// run still succeeds. Cancellation via ctx aborts between documents and
// leaves the store unmodified.
func (e *Engine) Annotate(ctx context.Context, store *corpus.Store, cat *catalog.Catalog) (Report, error) {
	started := time.Now()
	m := matcher.Compile(cat.Entities())
	docs := store.Documents()
	fold := !cat.CaseSensitive()

	results := make([]docResult, len(docs))
	jobs := make(chan int)
	var done atomic.Int64
	var wg sync.WaitGroup

	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					continue
				}
				results[idx] = e.annotateDoc(m, docs[idx], fold)
				n := int(done.Add(1))
				if e.progress != nil {
					e.progress(n, len(docs))
				}
			}
		}()
	}
	for idx := range docs {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	report := Report{
		RunID:     ulid.MustNew(ulid.Now(), e.entropy).String(),
		StartedAt: started,
		Documents: len(docs),
		Patterns:  m.PatternCount(),
	}
	for idx, res := range results {
		if res.skipped {
			report.Skipped++
			continue
		}
		if fold {
			store.ReplaceText(docs[idx].ID, res.text)
		}
		store.ExtendSpans(docs[idx].ID, res.spans)
		report.Spans += len(res.spans)
	}
	store.BuildLabelIndex()
	store.BuildEntityIndex()
	report.Duration = time.Since(started)
	return report, nil
}
