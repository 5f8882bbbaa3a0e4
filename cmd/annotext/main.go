// annotext is the batch annotation CLI: it reads texts and entities from
// CSV, locates entity occurrences, and writes span-annotated documents in
// one of five training formats.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/annotext/annotext/pkg/annotext"
	"github.com/annotext/annotext/pkg/annotext/config"
	"github.com/annotext/annotext/pkg/annotext/engine"
	"github.com/annotext/annotext/pkg/annotext/export"
	"github.com/annotext/annotext/pkg/annotext/store"
	"github.com/annotext/annotext/pkg/annotext/store/sqlite"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "annotext",
		Short: "Span annotation for NER corpora",
		Long: `Annotext turns a corpus of raw texts and a dictionary of named
entities into span-annotated documents for NER model training.

It reads texts and entities from CSV, finds every standalone occurrence
of each entity, and writes the annotated corpus as jsonl, spacy JSON,
csv, brat, or conll.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(annotateCmd())
	rootCmd.AddCommand(lookupCmd())
	rootCmd.AddCommand(importCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Logging.SlogLevel(),
	}))
}

// progressFunc returns an engine progress callback driving a terminal bar.
// The bar is created on the first call, when the total is known.
func progressFunc() func(done, total int) {
	var mu sync.Mutex
	var bar *progressbar.ProgressBar
	return func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("annotating"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
			)
		}
		bar.Set(done)
	}
}

func annotateCmd() *cobra.Command {
	var (
		configPath string
		dbPath     string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Annotate the configured corpus and save the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			proj, err := annotext.New(annotext.Options{
				Config:   cfg,
				Logger:   logger,
				Progress: progressFunc(),
			})
			if err != nil {
				return err
			}

			report, err := proj.Process(context.Background(), !dryRun)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr)

			if dbPath != "" {
				db, err := sqlite.Open(context.Background(), dbPath)
				if err != nil {
					return fmt.Errorf("open database: %w", err)
				}
				defer db.Close()
				if err := db.SaveCorpus(context.Background(), proj.Corpus().Documents()); err != nil {
					return fmt.Errorf("persist corpus: %w", err)
				}
				if err := db.RecordRun(context.Background(), store.Run{
					ID:        report.RunID,
					StartedAt: report.StartedAt,
					Documents: report.Documents,
					Skipped:   report.Skipped,
					Spans:     report.Spans,
					Patterns:  report.Patterns,
				}); err != nil {
					return fmt.Errorf("record run: %w", err)
				}
			}

			printSummary(report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "annotext.yaml", "Project configuration file")
	cmd.Flags().StringVar(&dbPath, "db", "", "Also persist corpus and run history to this SQLite file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Annotate without writing the output file")
	return cmd
}

func printSummary(report engine.Report) {
	green := color.New(color.FgGreen, color.Bold)
	green.Fprintf(os.Stderr, "run %s done in %s\n", report.RunID, report.Duration.Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  documents: %d (skipped %d)\n", report.Documents, report.Skipped)
	fmt.Fprintf(os.Stderr, "  patterns:  %d\n", report.Patterns)
	fmt.Fprintf(os.Stderr, "  spans:     %d\n", report.Spans)
}

func lookupCmd() *cobra.Command {
	var (
		dbPath string
		label  string
		entity string
		runs   bool
	)

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Query a persisted corpus by label or entity text",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := sqlite.Open(context.Background(), dbPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			switch {
			case runs:
				history, err := db.Runs(context.Background())
				if err != nil {
					return err
				}
				for _, r := range history {
					fmt.Printf("%s\t%s\tdocs=%d skipped=%d spans=%d patterns=%d\n",
						r.ID, r.StartedAt.Format("2006-01-02 15:04:05"),
						r.Documents, r.Skipped, r.Spans, r.Patterns)
				}
			case label != "":
				ids, err := db.DocsByLabel(context.Background(), label)
				if err != nil {
					return err
				}
				printDocs(db, ids)
			case entity != "":
				ids, err := db.DocsByEntity(context.Background(), entity)
				if err != nil {
					return err
				}
				printDocs(db, ids)
			default:
				return fmt.Errorf("one of --label, --entity, or --runs is required")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "annotext.db", "SQLite file written by annotate --db")
	cmd.Flags().StringVar(&label, "label", "", "Find documents containing a span with this label")
	cmd.Flags().StringVar(&entity, "entity", "", "Find documents containing this annotated text")
	cmd.Flags().BoolVar(&runs, "runs", false, "List the run history")
	return cmd
}

func printDocs(db store.Store, ids []string) {
	bold := color.New(color.Bold)
	for _, id := range ids {
		doc, ok, err := db.GetDocument(context.Background(), id)
		if err != nil || !ok {
			fmt.Println(id)
			continue
		}
		bold.Print(id)
		fmt.Printf("\t%s\n", doc.Text)
	}
	fmt.Fprintf(os.Stderr, "%d documents\n", len(ids))
}

func importCmd() *cobra.Command {
	var (
		from      string
		dbPath    string
		outPath   string
		outFormat string
	)

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Rebuild a project from a previous jsonl or spacy export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := annotext.Options{Logger: newLogger(config.Default())}

			var proj *annotext.Project
			var err error
			switch from {
			case "jsonl":
				proj, err = annotext.FromJSONL(args[0], opts)
			case "spacy":
				proj, err = annotext.FromSpacy(args[0], opts)
			default:
				return fmt.Errorf("unknown import format %q (jsonl or spacy)", from)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "imported %d documents, %d entities\n",
				proj.Corpus().Len(), proj.Catalog().Len())

			if dbPath != "" {
				db, err := sqlite.Open(context.Background(), dbPath)
				if err != nil {
					return fmt.Errorf("open database: %w", err)
				}
				defer db.Close()
				if err := db.SaveCorpus(context.Background(), proj.Corpus().Documents()); err != nil {
					return fmt.Errorf("persist corpus: %w", err)
				}
			}

			if outPath != "" {
				format, err := export.ParseFormat(outFormat)
				if err != nil {
					return err
				}
				files, err := format.Save(proj.Corpus().Documents(), outPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "wrote %v\n", files)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "jsonl", "Input format: jsonl or spacy")
	cmd.Flags().StringVar(&dbPath, "db", "", "Persist the imported corpus to this SQLite file")
	cmd.Flags().StringVar(&outPath, "output", "", "Re-export the corpus to this path")
	cmd.Flags().StringVar(&outFormat, "format", "jsonl", "Re-export format")
	return cmd
}
