// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/openreview-mcp/pkg/types"
)

// --- mock client ---

type mockClient struct {
	// venues maps "Venue Year" to its submissions or an error.
	venues map[string][]types.Submission
	errs   map[string]error

	// pdfs maps PDFRef to bytes; missing refs fail the download.
	pdfs map[string][]byte

	// pdfDelay lets tests skew download completion order.
	pdfDelay map[string]time.Duration
}

func (m *mockClient) Submissions(_ context.Context, spec types.VenueSpec) ([]types.Submission, error) {
	key := spec.String()
	if err, ok := m.errs[key]; ok {
		return nil, err
	}
	return m.venues[key], nil
}

func (m *mockClient) FetchPDF(ctx context.Context, ref string) ([]byte, error) {
	if d, ok := m.pdfDelay[ref]; ok {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	data, ok := m.pdfs[ref]
	if !ok {
		return nil, fmt.Errorf("download refused for %s", ref)
	}
	return data, nil
}

func (m *mockClient) PDFURL(ref string) string {
	return "https://openreview.net/pdf?id=" + ref
}

func sub(id, title string, pdfRef string) types.Submission {
	return types.Submission{
		ID:       id,
		Title:    title,
		Authors:  []string{"Author " + id},
		Venue:    "ICLR.cc/2024/Conference",
		Year:     "2024",
		ForumURL: "https://openreview.net/forum?id=" + id,
		PDFRef:   pdfRef,
	}
}

func stubExtract(t *testing.T) {
	t.Helper()
	old := extractText
	extractText = func(data []byte) (string, error) {
		return "text of " + string(data), nil
	}
	t.Cleanup(func() { extractText = old })
}

func fixedClock(t *testing.T) {
	t.Helper()
	old := now
	now = func() time.Time { return time.Date(2025, 1, 31, 15, 42, 2, 0, time.UTC) }
	t.Cleanup(func() { now = old })
}

func baseOptions(dir string) Options {
	return Options{
		Query:            "token merging",
		Venues:           []types.VenueSpec{{Venue: "ICLR.cc", Year: "2024"}},
		Mode:             types.MatchAny,
		ExportDir:        dir,
		IncludeAbstracts: true,
	}
}

func readDoc(t *testing.T, path string) types.ExportDocument {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	var doc types.ExportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("export file is not valid JSON: %v", err)
	}
	return doc
}

// --- venue pooling ---

func TestRunAllVenuesFailed(t *testing.T) {
	client := &mockClient{errs: map[string]error{
		"ICLR.cc 2024": errors.New("connection refused"),
	}}
	dir := t.TempDir()

	_, err := Run(context.Background(), client, baseOptions(dir), io.Discard)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("export dir not empty after failed run: %v", entries)
	}
}

func TestRunEmptyVenuesIsNoData(t *testing.T) {
	client := &mockClient{venues: map[string][]types.Submission{
		"ICLR.cc 2024": {},
	}}
	_, err := Run(context.Background(), client, baseOptions(t.TempDir()), io.Discard)
	if !errors.Is(err, ErrNoData) {
		t.Errorf("err = %v, want ErrNoData for an empty pool", err)
	}
}

func TestRunPartialVenueFailure(t *testing.T) {
	fixedClock(t)
	client := &mockClient{
		venues: map[string][]types.Submission{
			"ICLR.cc 2024": {sub("a", "Token Merging Advances", "")},
		},
		errs: map[string]error{
			"NeurIPS.cc 2024": errors.New("venue fetch exploded"),
		},
	}
	dir := t.TempDir()
	opts := baseOptions(dir)
	opts.Venues = []types.VenueSpec{
		{Venue: "ICLR.cc", Year: "2024"},
		{Venue: "NeurIPS.cc", Year: "2024"},
	}

	var log bytes.Buffer
	summary, err := Run(context.Background(), client, opts, &log)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if summary.Exported != 1 {
		t.Errorf("exported = %d, want 1 (healthy venue still exports)", summary.Exported)
	}
	if !strings.Contains(log.String(), "NeurIPS.cc 2024") {
		t.Errorf("log does not mention failed venue: %q", log.String())
	}
}

// --- selection ---

func TestRunMaxPapersCapsExport(t *testing.T) {
	fixedClock(t)
	client := &mockClient{venues: map[string][]types.Submission{
		"ICLR.cc 2024": {
			sub("low", "Merging Strategies", ""),
			sub("high", "Token Merging Methods", ""),
		},
	}}
	opts := baseOptions(t.TempDir())
	opts.MaxPapers = 1

	summary, err := Run(context.Background(), client, opts, io.Discard)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if summary.Exported != 1 {
		t.Fatalf("exported = %d, want 1", summary.Exported)
	}

	doc := readDoc(t, summary.Path)
	if len(doc.Papers) != 1 || doc.Papers[0].ID != "high" {
		t.Errorf("papers = %+v, want only the top-scored record", doc.Papers)
	}
	if doc.Candidates != 2 {
		t.Errorf("candidates = %d, want 2", doc.Candidates)
	}
}

func TestRunNoMatchesWritesNothing(t *testing.T) {
	client := &mockClient{venues: map[string][]types.Submission{
		"ICLR.cc 2024": {sub("a", "Protein Folding", "")},
	}}
	dir := t.TempDir()

	summary, err := Run(context.Background(), client, baseOptions(dir), io.Discard)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if summary.Path != "" || summary.Exported != 0 {
		t.Errorf("summary = %+v, want no file and zero exported", summary)
	}
	if summary.Candidates != 1 {
		t.Errorf("candidates = %d, want 1", summary.Candidates)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("export dir not empty: %v", entries)
	}
}

// --- downloads ---

func TestRunDownloadFailureKeepsPaper(t *testing.T) {
	fixedClock(t)
	stubExtract(t)
	client := &mockClient{
		venues: map[string][]types.Submission{
			"ICLR.cc 2024": {
				sub("good", "Token Merging Methods", "good-pdf"),
				sub("bad", "Token Merging Tricks", "bad-pdf"),
			},
		},
		pdfs: map[string][]byte{"good-pdf": []byte("GOODPDF")},
	}
	opts := baseOptions(t.TempDir())
	opts.DownloadPDFs = true

	summary, err := Run(context.Background(), client, opts, io.Discard)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if summary.Exported != 2 {
		t.Fatalf("exported = %d, want 2: failed download must not drop the paper", summary.Exported)
	}
	if summary.Failures != 1 {
		t.Errorf("failures = %d, want 1", summary.Failures)
	}

	doc := readDoc(t, summary.Path)
	byID := map[string]types.ExportRecord{}
	for _, p := range doc.Papers {
		byID[p.ID] = p
	}
	if byID["good"].FullText != "text of GOODPDF" {
		t.Errorf("good.FullText = %q", byID["good"].FullText)
	}
	if byID["good"].DownloadError != "" {
		t.Errorf("good.DownloadError = %q, want empty", byID["good"].DownloadError)
	}
	if byID["bad"].DownloadError == "" {
		t.Error("bad.DownloadError empty, want recorded failure")
	}
	if byID["bad"].Title != "Token Merging Tricks" {
		t.Errorf("bad record lost metadata: %+v", byID["bad"])
	}
}

func TestRunDownloadOrderDeterministic(t *testing.T) {
	fixedClock(t)
	stubExtract(t)

	subs := []types.Submission{
		sub("r1", "Token Merging Token Merging", "p1"),
		sub("r2", "Token Merging Extras", "p2"),
		sub("r3", "Token Things", "p3"),
		sub("r4", "Merging Things", "p4"),
	}
	client := &mockClient{
		venues: map[string][]types.Submission{"ICLR.cc 2024": subs},
		pdfs: map[string][]byte{
			"p1": []byte("one"), "p2": []byte("two"),
			"p3": []byte("three"), "p4": []byte("four"),
		},
		// Earlier ranks finish last.
		pdfDelay: map[string]time.Duration{
			"p1": 80 * time.Millisecond,
			"p2": 40 * time.Millisecond,
			"p3": 10 * time.Millisecond,
			"p4": 0,
		},
	}
	opts := baseOptions(t.TempDir())
	opts.DownloadPDFs = true
	opts.DownloadWorkers = 4

	summary, err := Run(context.Background(), client, opts, io.Discard)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	doc := readDoc(t, summary.Path)
	var ids []string
	for _, p := range doc.Papers {
		ids = append(ids, p.ID)
	}
	// Ranked order: r1 and r2 score 1.0 (fetch order), then the two
	// half-score records in fetch order. Completion order must not leak in.
	want := []string{"r1", "r2", "r3", "r4"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("paper order = %v, want %v", ids, want)
		}
	}
}

func TestRunNoPDFRefRecordedAsError(t *testing.T) {
	fixedClock(t)
	client := &mockClient{venues: map[string][]types.Submission{
		"ICLR.cc 2024": {sub("a", "Token Merging", "")},
	}}
	opts := baseOptions(t.TempDir())
	opts.DownloadPDFs = true

	summary, err := Run(context.Background(), client, opts, io.Discard)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	doc := readDoc(t, summary.Path)
	if doc.Papers[0].DownloadError == "" {
		t.Error("record without a PDF ref should carry an error note when downloads were requested")
	}
}

func TestRunCancelledBeforeDownloadsWritesNothing(t *testing.T) {
	client := &mockClient{venues: map[string][]types.Submission{
		"ICLR.cc 2024": {sub("a", "Token Merging", "p1")},
	}}
	dir := t.TempDir()
	opts := baseOptions(dir)
	opts.DownloadPDFs = true

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, client, opts, io.Discard)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("export dir not empty after cancelled run: %v", entries)
	}
}

// --- output files ---

func TestRunWritesSummarySidecar(t *testing.T) {
	fixedClock(t)
	client := &mockClient{venues: map[string][]types.Submission{
		"ICLR.cc 2024": {sub("a", "Token Merging", "")},
	}}
	opts := baseOptions(t.TempDir())
	opts.Filename = "mystudy"

	summary, err := Run(context.Background(), client, opts, io.Discard)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if filepath.Base(summary.Path) != "mystudy.json" {
		t.Errorf("path = %s, want mystudy.json", summary.Path)
	}
	if filepath.Base(summary.SummaryPath) != "mystudy_summary.yaml" {
		t.Errorf("summary path = %s", summary.SummaryPath)
	}
	if _, err := os.Stat(summary.SummaryPath); err != nil {
		t.Errorf("summary sidecar missing: %v", err)
	}
}

func TestRunAutoFilename(t *testing.T) {
	fixedClock(t)
	client := &mockClient{venues: map[string][]types.Submission{
		"ICLR.cc 2024": {sub("a", "Token Merging", "")},
	}}

	summary, err := Run(context.Background(), client, baseOptions(t.TempDir()), io.Discard)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if got := filepath.Base(summary.Path); got != "openreview_token_merging_20250131_154202.json" {
		t.Errorf("auto filename = %q", got)
	}
}

func TestRunAbstractsToggle(t *testing.T) {
	fixedClock(t)
	withAbstract := sub("a", "Token Merging", "")
	withAbstract.Abstract = "An abstract about merging."
	client := &mockClient{venues: map[string][]types.Submission{
		"ICLR.cc 2024": {withAbstract},
	}}

	opts := baseOptions(t.TempDir())
	opts.IncludeAbstracts = false
	summary, err := Run(context.Background(), client, opts, io.Discard)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	doc := readDoc(t, summary.Path)
	if doc.Papers[0].Abstract != "" {
		t.Errorf("abstract included despite IncludeAbstracts=false: %q", doc.Papers[0].Abstract)
	}
}

// --- filenames ---

func TestAutoFilename(t *testing.T) {
	ts := time.Date(2025, 1, 31, 15, 42, 2, 0, time.UTC)
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"spaces to underscores", "token merging", "openreview_token_merging_20250131_154202"},
		{"path-unsafe stripped", "../etc/passwd?", "openreview_etcpasswd_20250131_154202"},
		{"empty query falls back", "!!!", "openreview_export_20250131_154202"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := autoFilename(tt.query, ts); got != tt.want {
				t.Errorf("autoFilename(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestAutoFilenameTruncatesLongQueries(t *testing.T) {
	ts := time.Date(2025, 1, 31, 15, 42, 2, 0, time.UTC)
	got := autoFilename(strings.Repeat("verylong ", 20), ts)
	if max := len("openreview_") + maxQuerySlug + len("_20060102_150405"); len(got) > max {
		t.Errorf("filename length %d exceeds %d: %q", len(got), max, got)
	}
}
