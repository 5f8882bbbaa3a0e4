// Package annotext turns raw text corpora and an entity dictionary into
// span-annotated documents for NER training.
package annotext

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/annotext/annotext/pkg/annotext/catalog"
	"github.com/annotext/annotext/pkg/annotext/config"
	"github.com/annotext/annotext/pkg/annotext/corpus"
	"github.com/annotext/annotext/pkg/annotext/engine"
	"github.com/annotext/annotext/pkg/annotext/export"
	"github.com/annotext/annotext/pkg/annotext/ingest"
	"github.com/annotext/annotext/pkg/annotext/internalerr"
)

// Project is the main annotation facade: configuration, the entity catalog,
// and the corpus, wired to the annotation engine and the exporters.
type Project struct {
	cfg     *config.Config
	corpus  *corpus.Store
	catalog *catalog.Catalog
	engine  *engine.Engine
	logger  *slog.Logger
}

// Options configures a Project.
type Options struct {
	// Config drives input paths, filters, and the output format. Defaults
	// to config.Default().
	Config *config.Config
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Workers bounds the annotation pool; zero means GOMAXPROCS.
	Workers int
	// Progress is forwarded to the engine.
	Progress func(done, total int)
}

// New creates a Project with an empty corpus and catalog.
func New(opts Options) (*Project, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cat, err := catalog.Normalize(nil, cfg.Texts.Filters.CaseSensitive)
	if err != nil {
		return nil, err
	}
	return &Project{
		cfg:     cfg,
		corpus:  corpus.NewStore(),
		catalog: cat,
		engine: engine.New(engine.Options{
			Workers:  opts.Workers,
			Logger:   logger,
			Progress: opts.Progress,
		}),
		logger: logger,
	}, nil
}

// Corpus exposes the document store.
func (p *Project) Corpus() *corpus.Store {
	return p.corpus
}

// Catalog exposes the entity catalog.
func (p *Project) Catalog() *catalog.Catalog {
	return p.catalog
}

// AddEntity inserts a single entity, warning on duplicates.
func (p *Project) AddEntity(e catalog.Entity) error {
	err := p.catalog.Add(e)
	if errors.Is(err, internalerr.ErrDuplicate) {
		p.logger.Warn("entity already exists", "name", e.Name, "label", e.Label)
		return nil
	}
	return err
}

// AddText inserts a single document, warning when the same text is already
// present.
func (p *Project) AddText(text string) corpus.Document {
	doc, added := p.corpus.AddText(text)
	if !added {
		p.logger.Warn("document already exists", "id", doc.ID)
	}
	return doc
}

// LoadInputs reads the texts, entities, and excludes files named in the
// configuration, screens them, and fills the corpus and catalog.
func (p *Project) LoadInputs() error {
	cfg := p.cfg

	p.logger.Info("reading entities", "path", cfg.Entities.Input.Path)
	raw, err := ingest.Entities(cfg.Entities.Input.Path, cfg.Entities.Filters, cfg.Entities.Input.Filter)
	if err != nil {
		return err
	}
	cat, err := catalog.Normalize(raw, cfg.Texts.Filters.CaseSensitive)
	if err != nil {
		return err
	}

	if cfg.Entities.Excludes.Path != "" {
		p.logger.Info("reading excludes", "path", cfg.Entities.Excludes.Path)
		names, err := ingest.Excludes(cfg.Entities.Excludes.Path)
		if err != nil {
			return err
		}
		removed := cat.Exclude(names)
		p.logger.Info("excluded entities", "count", removed)
	} else {
		p.logger.Info("no excludes file provided")
	}
	p.catalog = cat
	p.logger.Info("entities loaded", "count", cat.Len())

	p.logger.Info("reading texts", "path", cfg.Texts.Input.Path)
	texts, err := ingest.Texts(cfg.Texts.Input.Path, cfg.Texts.Filters, cfg.Texts.Input.Filter)
	if err != nil {
		return err
	}
	for _, text := range texts {
		p.AddText(text)
	}
	p.logger.Info("texts loaded", "count", p.corpus.Len())
	return nil
}

// Annotate runs the engine over the corpus.
func (p *Project) Annotate(ctx context.Context) (engine.Report, error) {
	return p.engine.Annotate(ctx, p.corpus, p.catalog)
}

// Save writes the annotated corpus in the configured format and returns the
// files written.
func (p *Project) Save() ([]string, error) {
	format, err := export.ParseFormat(p.cfg.Annotations.Format)
	if err != nil {
		return nil, err
	}
	return format.Save(p.corpus.Documents(), p.cfg.Annotations.Output.Path)
}

// Process is the whole batch flow: load inputs, annotate, optionally save.
func (p *Project) Process(ctx context.Context, save bool) (engine.Report, error) {
	if err := p.LoadInputs(); err != nil {
		return engine.Report{}, err
	}
	report, err := p.Annotate(ctx)
	if err != nil {
		return engine.Report{}, err
	}
	p.logger.Info("annotation finished",
		"run", report.RunID,
		"documents", report.Documents,
		"skipped", report.Skipped,
		"spans", report.Spans,
		"labels", len(p.corpus.Labels()),
		"checks", humanCount(report.Checks()))
	if save {
		files, err := p.Save()
		if err != nil {
			return report, fmt.Errorf("save annotations: %w", err)
		}
		p.logger.Info("annotations saved", "format", p.cfg.Annotations.Format, "files", files)
	}
	return report, nil
}

// FromJSONL builds a project from a previous jsonl export, deriving the
// catalog from the annotated substrings.
func FromJSONL(path string, opts Options) (*Project, error) {
	imp, err := ingest.FromJSONL(path)
	if err != nil {
		return nil, err
	}
	return fromImport(imp, opts)
}

// FromSpacy builds a project from a previous spacy export.
func FromSpacy(path string, opts Options) (*Project, error) {
	imp, err := ingest.FromSpacy(path)
	if err != nil {
		return nil, err
	}
	return fromImport(imp, opts)
}

func fromImport(imp *ingest.Imported, opts Options) (*Project, error) {
	p, err := New(opts)
	if err != nil {
		return nil, err
	}
	for _, doc := range imp.Documents {
		if !p.corpus.AddDocument(doc) {
			p.logger.Warn("document already exists", "id", doc.ID)
		}
	}
	cat, err := catalog.Normalize(imp.Entities, false)
	if err != nil {
		return nil, err
	}
	p.catalog = cat
	return p, nil
}

// humanCount renders large counts the way the run summary prints them.
func humanCount(n int) string {
	switch {
	case n <= 1000:
		return fmt.Sprintf("%d", n)
	case n <= 1_000_000:
		return fmt.Sprintf("%.2fK", float64(n)/1000)
	case n <= 1_000_000_000:
		return fmt.Sprintf("%.2fM", float64(n)/1_000_000)
	default:
		return fmt.Sprintf("%.2fB", float64(n)/1_000_000_000)
	}
}
