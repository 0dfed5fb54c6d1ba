// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pdiddy/openreview-mcp/internal/export"
	"github.com/pdiddy/openreview-mcp/internal/match"
	"github.com/pdiddy/openreview-mcp/pkg/types"
)

// VenueInput names one conference venue and year.
type VenueInput struct {
	Venue string `json:"venue" jsonschema:"venue group, e.g. ICLR.cc, NeurIPS.cc, ICML.cc"`
	Year  string `json:"year" jsonschema:"four-digit conference year, e.g. 2024"`
}

func parseVenues(in []VenueInput) ([]types.VenueSpec, error) {
	if len(in) == 0 {
		return nil, invalidf("at least one venue is required")
	}
	specs := make([]types.VenueSpec, len(in))
	for i, v := range in {
		spec := types.VenueSpec{Venue: v.Venue, Year: v.Year}
		if err := spec.Validate(); err != nil {
			return nil, invalidf("%v", err)
		}
		specs[i] = spec
	}
	return specs, nil
}

func validateEmail(email string) error {
	if email == "" || !strings.Contains(email, "@") {
		return invalidf("email %q is not a valid address", email)
	}
	return nil
}

// pool fetches and concatenates the listings of all venues. A venue that
// fails to fetch contributes nothing and is logged; the pool fails only
// when every venue failed.
func (s *Server) pool(ctx context.Context, venues []types.VenueSpec) ([]types.Submission, error) {
	var pool []types.Submission
	var firstErr error
	failed := 0
	for _, spec := range venues {
		subs, err := s.Submissions(ctx, spec)
		if err != nil {
			s.log.Warn("fetching venue", "venue", spec.String(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
			failed++
			continue
		}
		pool = append(pool, subs...)
	}
	if failed == len(venues) {
		return nil, firstErr
	}
	return pool, nil
}

type SearchUserInput struct {
	Email               string `json:"email" jsonschema:"email address of the user to look up"`
	IncludePublications bool   `json:"include_publications,omitempty" jsonschema:"also return the user's papers"`
}

type SearchUserOutput struct {
	Profile types.Profile `json:"profile"`
}

func (s *Server) searchUser(ctx context.Context, _ *mcp.CallToolRequest, in SearchUserInput) (*mcp.CallToolResult, SearchUserOutput, error) {
	if err := validateEmail(in.Email); err != nil {
		return errorResult(err), SearchUserOutput{}, nil
	}
	profile, err := s.client.Profile(ctx, in.Email, in.IncludePublications)
	if err != nil {
		return errorResult(err), SearchUserOutput{}, nil
	}
	return nil, SearchUserOutput{Profile: profile}, nil
}

type UserPapersInput struct {
	Email  string `json:"email" jsonschema:"email address of the user"`
	Format string `json:"format,omitempty" jsonschema:"summary or detailed (default summary)"`
}

type UserPapersOutput struct {
	Email  string      `json:"email"`
	Count  int         `json:"count"`
	Papers []PaperView `json:"papers"`
}

func (s *Server) getUserPapers(ctx context.Context, _ *mcp.CallToolRequest, in UserPapersInput) (*mcp.CallToolResult, UserPapersOutput, error) {
	if err := validateEmail(in.Email); err != nil {
		return errorResult(err), UserPapersOutput{}, nil
	}
	format, err := parseFormat(in.Format)
	if err != nil {
		return errorResult(err), UserPapersOutput{}, nil
	}
	papers, err := s.client.AuthorPapers(ctx, in.Email)
	if err != nil {
		return errorResult(err), UserPapersOutput{}, nil
	}
	return nil, UserPapersOutput{
		Email:  in.Email,
		Count:  len(papers),
		Papers: s.paperViews(papers, format),
	}, nil
}

type ConferencePapersInput struct {
	Venue  string `json:"venue" jsonschema:"venue group, e.g. ICLR.cc, NeurIPS.cc, ICML.cc"`
	Year   string `json:"year" jsonschema:"four-digit conference year, e.g. 2024"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of papers to return"`
	Format string `json:"format,omitempty" jsonschema:"summary or detailed (default summary)"`
}

type ConferencePapersOutput struct {
	Venue  string      `json:"venue"`
	Year   string      `json:"year"`
	Count  int         `json:"count"`
	Papers []PaperView `json:"papers"`
}

func (s *Server) getConferencePapers(ctx context.Context, _ *mcp.CallToolRequest, in ConferencePapersInput) (*mcp.CallToolResult, ConferencePapersOutput, error) {
	spec := types.VenueSpec{Venue: in.Venue, Year: in.Year}
	if err := spec.Validate(); err != nil {
		return errorResult(invalidf("%v", err)), ConferencePapersOutput{}, nil
	}
	if in.Limit < 0 {
		return errorResult(invalidf("limit must not be negative, got %d", in.Limit)), ConferencePapersOutput{}, nil
	}
	format, err := parseFormat(in.Format)
	if err != nil {
		return errorResult(err), ConferencePapersOutput{}, nil
	}
	subs, err := s.Submissions(ctx, spec)
	if err != nil {
		return errorResult(err), ConferencePapersOutput{}, nil
	}
	if in.Limit > 0 && len(subs) > in.Limit {
		subs = subs[:in.Limit]
	}
	return nil, ConferencePapersOutput{
		Venue:  in.Venue,
		Year:   in.Year,
		Count:  len(subs),
		Papers: s.paperViews(subs, format),
	}, nil
}

type SearchPapersInput struct {
	Query        string       `json:"query" jsonschema:"keywords to search for"`
	Venues       []VenueInput `json:"venues" jsonschema:"conference venues and years to search in"`
	SearchFields []string     `json:"search_fields,omitempty" jsonschema:"fields to search: title, abstract, authors (default title and abstract)"`
	MatchMode    string       `json:"match_mode,omitempty" jsonschema:"any, all or exact (default any)"`
	Limit        int          `json:"limit,omitempty" jsonschema:"maximum number of results"`
	MinScore     float64      `json:"min_score,omitempty" jsonschema:"minimum match score between 0 and 1"`
}

// SearchHit is one ranked result of search_papers.
type SearchHit struct {
	PaperView
	Score         float64       `json:"score"`
	MatchedFields []types.Field `json:"matched_fields"`
	MatchedTerms  []string      `json:"matched_terms"`
}

type SearchPapersOutput struct {
	Query      string      `json:"query"`
	Candidates int         `json:"candidates_considered"`
	Count      int         `json:"count"`
	Results    []SearchHit `json:"results"`
}

func (s *Server) searchPapers(ctx context.Context, _ *mcp.CallToolRequest, in SearchPapersInput) (*mcp.CallToolResult, SearchPapersOutput, error) {
	opts, venues, err := s.searchOptions(in)
	if err != nil {
		return errorResult(err), SearchPapersOutput{}, nil
	}
	pool, err := s.pool(ctx, venues)
	if err != nil {
		return errorResult(err), SearchPapersOutput{}, nil
	}
	results := match.Match(in.Query, pool, opts)
	hits := make([]SearchHit, len(results))
	for i, r := range results {
		hits[i] = SearchHit{
			PaperView:     s.paperView(r.Submission, FormatDetailed),
			Score:         r.Score,
			MatchedFields: r.MatchedFields,
			MatchedTerms:  r.MatchedTerms,
		}
	}
	return nil, SearchPapersOutput{
		Query:      in.Query,
		Candidates: len(pool),
		Count:      len(hits),
		Results:    hits,
	}, nil
}

// searchOptions validates a search request and resolves defaults from the
// server configuration.
func (s *Server) searchOptions(in SearchPapersInput) (match.Options, []types.VenueSpec, error) {
	if strings.TrimSpace(in.Query) == "" {
		return match.Options{}, nil, invalidf("query must not be empty")
	}
	venues, err := parseVenues(in.Venues)
	if err != nil {
		return match.Options{}, nil, err
	}
	fields, err := types.ParseFields(in.SearchFields)
	if err != nil {
		return match.Options{}, nil, invalidf("%v", err)
	}
	mode, err := types.ParseMatchMode(in.MatchMode)
	if err != nil {
		return match.Options{}, nil, invalidf("%v", err)
	}
	if in.MinScore < 0 || in.MinScore > 1 {
		return match.Options{}, nil, invalidf("min_score must be between 0 and 1, got %g", in.MinScore)
	}
	if in.Limit < 0 {
		return match.Options{}, nil, invalidf("limit must not be negative, got %d", in.Limit)
	}
	limit := in.Limit
	if limit == 0 {
		limit = s.cfg.Search.MaxResults
	}
	minScore := in.MinScore
	if minScore == 0 {
		minScore = s.cfg.Search.MinScore
	}
	return match.Options{
		Fields:   fields,
		Mode:     mode,
		MinScore: minScore,
		Limit:    limit,
	}, venues, nil
}

type ExportPapersInput struct {
	Query            string       `json:"query" jsonschema:"keywords to search for"`
	Venues           []VenueInput `json:"venues" jsonschema:"conference venues and years to export from"`
	SearchFields     []string     `json:"search_fields,omitempty" jsonschema:"fields to search: title, abstract, authors (default title and abstract)"`
	MatchMode        string       `json:"match_mode,omitempty" jsonschema:"any, all or exact (default any)"`
	ExportDir        string       `json:"export_dir,omitempty" jsonschema:"directory to write the export to (default from server config)"`
	Filename         string       `json:"filename,omitempty" jsonschema:"export file stem; generated from the query when omitted"`
	IncludeAbstracts bool         `json:"include_abstracts,omitempty" jsonschema:"copy each paper's abstract into the export"`
	MinScore         float64      `json:"min_score,omitempty" jsonschema:"minimum match score between 0 and 1"`
	MaxPapers        int          `json:"max_papers,omitempty" jsonschema:"maximum number of papers to export (default 10)"`
	DownloadPDFs     bool         `json:"download_pdfs,omitempty" jsonschema:"download each paper's PDF and extract its text"`
}

type ExportPapersOutput struct {
	Summary types.ExportSummary `json:"summary"`
}

func (s *Server) exportPapers(ctx context.Context, _ *mcp.CallToolRequest, in ExportPapersInput) (*mcp.CallToolResult, ExportPapersOutput, error) {
	opts, err := s.exportOptions(in)
	if err != nil {
		return errorResult(err), ExportPapersOutput{}, nil
	}
	summary, err := export.Run(ctx, s, opts, logWriter{s.log})
	if err != nil {
		return errorResult(err), ExportPapersOutput{}, nil
	}
	return nil, ExportPapersOutput{Summary: summary}, nil
}

func (s *Server) exportOptions(in ExportPapersInput) (export.Options, error) {
	if strings.TrimSpace(in.Query) == "" {
		return export.Options{}, invalidf("query must not be empty")
	}
	venues, err := parseVenues(in.Venues)
	if err != nil {
		return export.Options{}, err
	}
	fields, err := types.ParseFields(in.SearchFields)
	if err != nil {
		return export.Options{}, invalidf("%v", err)
	}
	mode, err := types.ParseMatchMode(in.MatchMode)
	if err != nil {
		return export.Options{}, invalidf("%v", err)
	}
	if in.MinScore < 0 || in.MinScore > 1 {
		return export.Options{}, invalidf("min_score must be between 0 and 1, got %g", in.MinScore)
	}
	if in.MaxPapers < 0 {
		return export.Options{}, invalidf("max_papers must not be negative, got %d", in.MaxPapers)
	}
	exportDir := in.ExportDir
	if exportDir == "" {
		exportDir = s.cfg.Export.ExportDir
	}
	maxPapers := in.MaxPapers
	if maxPapers == 0 {
		maxPapers = s.cfg.Export.MaxPapers
	}
	minScore := in.MinScore
	if minScore == 0 {
		minScore = s.cfg.Search.MinScore
	}
	return export.Options{
		Query:            in.Query,
		Venues:           venues,
		Fields:           fields,
		Mode:             mode,
		MinScore:         minScore,
		Limit:            s.cfg.Search.MaxResults,
		MaxPapers:        maxPapers,
		DownloadPDFs:     in.DownloadPDFs,
		IncludeAbstracts: in.IncludeAbstracts,
		ExportDir:        exportDir,
		Filename:         in.Filename,
		DownloadWorkers:  s.cfg.Export.DownloadWorkers,
		DownloadTimeout:  s.cfg.Export.DownloadTimeout,
	}, nil
}
