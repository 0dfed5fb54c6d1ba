// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export runs the search-download-serialize pipeline: it pools
// submissions from the requested venues, ranks them with the match engine,
// optionally downloads and text-extracts each selected paper's PDF with
// bounded concurrency, and writes one JSON document plus a YAML summary
// sidecar. A single paper's download failure is recorded on that paper's
// record and never aborts the batch.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/openreview-mcp/internal/extract"
	"github.com/pdiddy/openreview-mcp/internal/filestore"
	"github.com/pdiddy/openreview-mcp/internal/match"
	"github.com/pdiddy/openreview-mcp/pkg/types"
)

// ErrNoData reports that every requested venue failed or returned nothing;
// no export file is written in that case.
var ErrNoData = errors.New("no submissions from any requested venue")

const (
	defaultMaxPapers       = 10
	defaultDownloadWorkers = 3

	// defaultDownloadTimeout bounds a single PDF download so one stuck
	// upstream transfer cannot hang the whole export.
	defaultDownloadTimeout = 60 * time.Second

	// summaryTopN is how many top papers the YAML sidecar lists.
	summaryTopN = 10
)

// now is the clock for generated filenames and export timestamps. Tests
// override it for deterministic output paths.
var now = time.Now

// extractText converts PDF bytes to plain text. Declared as a var so tests
// can substitute a stub instead of crafting real PDF fixtures.
var extractText = extract.Text

// Client is the slice of the OpenReview client the pipeline depends on.
type Client interface {
	Submissions(ctx context.Context, spec types.VenueSpec) ([]types.Submission, error)
	FetchPDF(ctx context.Context, ref string) ([]byte, error)
	PDFURL(ref string) string
}

// Options holds the parameters of one export run.
type Options struct {
	// Query is the keyword query papers are ranked against.
	Query string

	// Venues lists the venue/year pairs to pool submissions from.
	Venues []types.VenueSpec

	// Fields, Mode, MinScore and Limit are handed to the match engine.
	Fields   []types.Field
	Mode     types.MatchMode
	MinScore float64
	Limit    int

	// MaxPapers caps how many ranked papers are exported (default 10).
	// It is applied after Limit: Limit bounds the search, MaxPapers
	// bounds the expensive download stage.
	MaxPapers int

	// DownloadPDFs fetches each selected paper's PDF and extracts its
	// text into the export record.
	DownloadPDFs bool

	// IncludeAbstracts copies each paper's abstract into the export.
	IncludeAbstracts bool

	// ExportDir is the directory the export files are written to.
	ExportDir string

	// Filename is the file stem (without extension). Generated from the
	// query and timestamp when empty.
	Filename string

	// DownloadWorkers bounds concurrent PDF downloads (default 3).
	DownloadWorkers int

	// DownloadTimeout bounds each PDF download (default 60s).
	DownloadTimeout time.Duration
}

// Run executes the export pipeline and returns a summary of what was
// written. Per-venue fetch failures are reported on w and skipped; the run
// fails with ErrNoData only when no venue contributed any submission.
// Papers whose PDF download or extraction fails stay in the export with an
// error note.
func Run(ctx context.Context, client Client, opts Options, w io.Writer) (types.ExportSummary, error) {
	if opts.Query == "" {
		return types.ExportSummary{}, fmt.Errorf("query is empty: provide keywords to search for")
	}
	if len(opts.Venues) == 0 {
		return types.ExportSummary{}, fmt.Errorf("no venues specified: provide at least one venue/year pair")
	}

	// Pool candidates from every venue, in request order.
	pool, err := fetchPool(ctx, client, opts.Venues, w)
	if err != nil {
		return types.ExportSummary{}, err
	}

	ranked := match.Match(opts.Query, pool, match.Options{
		Fields:   opts.Fields,
		Mode:     opts.Mode,
		MinScore: opts.MinScore,
		Limit:    opts.Limit,
	})

	maxPapers := opts.MaxPapers
	if maxPapers <= 0 {
		maxPapers = defaultMaxPapers
	}
	if len(ranked) > maxPapers {
		ranked = ranked[:maxPapers]
	}

	summary := types.ExportSummary{
		Query:      opts.Query,
		Venues:     opts.Venues,
		Candidates: len(pool),
	}

	if len(ranked) == 0 {
		// Nothing matched: report counts, write no file.
		fmt.Fprintf(w, "no papers matched %q above score %.2f\n", opts.Query, opts.MinScore)
		return summary, nil
	}

	records := buildRecords(client, ranked, opts.IncludeAbstracts)

	if opts.DownloadPDFs {
		if err := downloadAll(ctx, client, ranked, records, opts, w); err != nil {
			return types.ExportSummary{}, err
		}
	}

	failures := 0
	for _, r := range records {
		if r.DownloadError != "" {
			failures++
		}
	}

	exportedAt := now()
	doc := types.ExportDocument{
		Query:      opts.Query,
		Venues:     opts.Venues,
		ExportedAt: exportedAt,
		MinScore:   opts.MinScore,
		Candidates: len(pool),
		Exported:   len(records),
		Failures:   failures,
		Papers:     records,
	}

	stem := opts.Filename
	if stem == "" {
		stem = autoFilename(opts.Query, exportedAt)
	} else {
		stem = sanitizeFilename(stem)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return types.ExportSummary{}, fmt.Errorf("marshaling export document: %w", err)
	}
	exportPath := filepath.Join(opts.ExportDir, stem+".json")
	if err := filestore.WriteAtomic(exportPath, data); err != nil {
		return types.ExportSummary{}, fmt.Errorf("writing export: %w", err)
	}

	summaryPath, err := writeSummary(filepath.Join(opts.ExportDir, stem+"_summary.yaml"), doc)
	if err != nil {
		return types.ExportSummary{}, err
	}

	summary.Exported = len(records)
	summary.Failures = failures
	summary.Path = exportPath
	summary.SummaryPath = summaryPath

	fmt.Fprintf(w, "exported %d paper(s) to %s (%d download failure(s))\n",
		summary.Exported, summary.Path, summary.Failures)
	return summary, nil
}

// fetchPool concatenates every venue's submissions. A failing venue is
// logged and contributes nothing; only a fully empty pool is fatal.
func fetchPool(ctx context.Context, client Client, venues []types.VenueSpec, w io.Writer) ([]types.Submission, error) {
	var pool []types.Submission
	failed := 0
	for _, spec := range venues {
		subs, err := client.Submissions(ctx, spec)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failed++
			fmt.Fprintf(w, "warning: fetching %s failed: %v\n", spec, err)
			continue
		}
		pool = append(pool, subs...)
	}

	if failed == len(venues) {
		return nil, fmt.Errorf("all %d venue(s) failed: %w", failed, ErrNoData)
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("requested venues returned no submissions: %w", ErrNoData)
	}
	return pool, nil
}

// buildRecords converts ranked match results into export records, metadata
// only. PDF text is filled in by downloadAll.
func buildRecords(client Client, ranked []types.MatchResult, includeAbstracts bool) []types.ExportRecord {
	records := make([]types.ExportRecord, len(ranked))
	for i, r := range ranked {
		sub := r.Submission
		venue := sub.Venue
		if sub.Year != "" {
			venue = sub.Venue + " " + sub.Year
		}
		rec := types.ExportRecord{
			ID:            sub.ID,
			Title:         sub.Title,
			Authors:       sub.Authors,
			Venue:         venue,
			URL:           sub.ForumURL,
			MatchScore:    r.Score,
			MatchedTerms:  r.MatchedTerms,
			MatchedFields: r.MatchedFields,
		}
		if sub.PDFRef != "" {
			rec.PDFURL = client.PDFURL(sub.PDFRef)
		}
		if includeAbstracts {
			rec.Abstract = sub.Abstract
		}
		records[i] = rec
	}
	return records
}

// downloadAll fetches and text-extracts the selected papers' PDFs over a
// bounded worker pool. Workers write into records by rank index, so the
// output order matches the ranking no matter which download finishes
// first. Per-paper failures land in that record's DownloadError; only
// cancellation aborts the run.
func downloadAll(ctx context.Context, client Client, ranked []types.MatchResult, records []types.ExportRecord, opts Options, w io.Writer) error {
	workers := opts.DownloadWorkers
	if workers <= 0 {
		workers = defaultDownloadWorkers
	}
	timeout := opts.DownloadTimeout
	if timeout <= 0 {
		timeout = defaultDownloadTimeout
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return fmt.Errorf("creating download pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := range ranked {
		if ctx.Err() != nil {
			break
		}
		i := i
		ref := ranked[i].Submission.PDFRef
		wg.Add(1)
		task := func() {
			defer wg.Done()
			records[i].FullText, records[i].DownloadError = fetchText(ctx, client, ref, timeout)
			if records[i].DownloadError != "" {
				fmt.Fprintf(w, "warning: %s: %s\n", records[i].ID, records[i].DownloadError)
			}
		}
		if submitErr := pool.Submit(task); submitErr != nil {
			// Pool rejected the task (released or overloaded); run inline
			// rather than losing the slot.
			task()
		}
	}
	wg.Wait()

	// Discard everything on cancellation so no partial file gets written.
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

// fetchText downloads one PDF and extracts its text, returning either the
// text or an error note for the export record.
func fetchText(ctx context.Context, client Client, ref string, timeout time.Duration) (text, errNote string) {
	if ref == "" {
		return "", "no PDF available for this submission"
	}

	dlCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	data, err := client.FetchPDF(dlCtx, ref)
	if err != nil {
		return "", fmt.Sprintf("PDF download failed: %v", err)
	}

	out, err := extractText(data)
	if err != nil {
		return "", fmt.Sprintf("text extraction failed: %v", err)
	}
	return out, ""
}

// summaryEntry is one line of the YAML sidecar.
type summaryEntry struct {
	Title      string  `yaml:"title"`
	Venue      string  `yaml:"venue"`
	MatchScore float64 `yaml:"match_score"`
	URL        string  `yaml:"url,omitempty"`
}

// summaryDoc is the YAML sidecar written next to the JSON export for quick
// human inspection.
type summaryDoc struct {
	Query       string            `yaml:"query"`
	ExportedAt  time.Time         `yaml:"exported_at"`
	Venues      []types.VenueSpec `yaml:"venues"`
	TotalPapers int               `yaml:"total_papers"`
	Failures    int               `yaml:"download_failures"`
	TopPapers   []summaryEntry    `yaml:"top_papers"`
}

func writeSummary(path string, doc types.ExportDocument) (string, error) {
	top := doc.Papers
	if len(top) > summaryTopN {
		top = top[:summaryTopN]
	}

	sd := summaryDoc{
		Query:       doc.Query,
		ExportedAt:  doc.ExportedAt,
		Venues:      doc.Venues,
		TotalPapers: doc.Exported,
		Failures:    doc.Failures,
	}
	for _, p := range top {
		sd.TopPapers = append(sd.TopPapers, summaryEntry{
			Title:      p.Title,
			Venue:      p.Venue,
			MatchScore: p.MatchScore,
			URL:        p.URL,
		})
	}

	data, err := yaml.Marshal(sd)
	if err != nil {
		return "", fmt.Errorf("marshaling summary: %w", err)
	}
	if err := filestore.WriteAtomic(path, data); err != nil {
		return "", fmt.Errorf("writing summary: %w", err)
	}
	return path, nil
}
