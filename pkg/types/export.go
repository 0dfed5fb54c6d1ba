// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ExportRecord is the persisted unit for one exported paper: metadata plus
// the optional abstract, extracted PDF text, and any per-paper error note.
type ExportRecord struct {
	// ID is the OpenReview note ID.
	ID string `json:"id" yaml:"id"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Venue is the "venue year" the paper was exported from.
	Venue string `json:"venue" yaml:"venue"`

	// URL is the public forum page for the paper.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// PDFURL is the public PDF location, when known.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// MatchScore is the relevance score from the match engine.
	MatchScore float64 `json:"match_score" yaml:"match_score"`

	// MatchedTerms lists the query tokens found in this paper.
	MatchedTerms []string `json:"matched_terms,omitempty" yaml:"matched_terms,omitempty"`

	// MatchedFields lists the fields the query matched in.
	MatchedFields []Field `json:"matched_fields,omitempty" yaml:"matched_fields,omitempty"`

	// Abstract is included only when the export requested abstracts.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// FullText is the plain text extracted from the downloaded PDF.
	// Empty when PDF download was not requested or failed.
	FullText string `json:"full_text,omitempty" yaml:"full_text,omitempty"`

	// DownloadError records a failed PDF download or text extraction for
	// this paper. The paper still appears in the export with its metadata.
	DownloadError string `json:"download_error,omitempty" yaml:"download_error,omitempty"`
}

// ExportDocument is the JSON document written by the export pipeline:
// a summary header followed by the ranked export records.
type ExportDocument struct {
	Query      string         `json:"query" yaml:"query"`
	Venues     []VenueSpec    `json:"venues" yaml:"venues"`
	ExportedAt time.Time      `json:"exported_at" yaml:"exported_at"`
	MinScore   float64        `json:"min_score" yaml:"min_score"`
	Candidates int            `json:"candidates_considered" yaml:"candidates_considered"`
	Exported   int            `json:"papers_exported" yaml:"papers_exported"`
	Failures   int            `json:"download_failures" yaml:"download_failures"`
	Papers     []ExportRecord `json:"papers" yaml:"papers"`
}

// ExportSummary is returned to the caller after an export completes.
type ExportSummary struct {
	// Query is the search query the export ran.
	Query string `json:"query" yaml:"query"`

	// Venues lists the venues searched.
	Venues []VenueSpec `json:"venues" yaml:"venues"`

	// Candidates is the number of candidate submissions considered.
	Candidates int `json:"candidates_considered" yaml:"candidates_considered"`

	// Exported is the number of papers written to the export file.
	Exported int `json:"papers_exported" yaml:"papers_exported"`

	// Failures is the number of papers whose PDF download or text
	// extraction failed. Failed papers are still exported.
	Failures int `json:"download_failures" yaml:"download_failures"`

	// Path is the export file written.
	Path string `json:"path" yaml:"path"`

	// SummaryPath is the YAML sidecar with the top results.
	SummaryPath string `json:"summary_path,omitempty" yaml:"summary_path,omitempty"`
}
