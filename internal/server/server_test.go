// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/openreview-mcp/internal/cache"
	"github.com/pdiddy/openreview-mcp/internal/openreview"
	"github.com/pdiddy/openreview-mcp/pkg/types"
)

type mockClient struct {
	venues     map[string][]types.Submission
	venueErrs  map[string]error
	profiles   map[string]types.Profile
	userPapers map[string][]types.Submission
	pdfs       map[string][]byte
	venueCalls int
}

func (m *mockClient) Submissions(_ context.Context, spec types.VenueSpec) ([]types.Submission, error) {
	m.venueCalls++
	if err, ok := m.venueErrs[spec.String()]; ok {
		return nil, err
	}
	subs, ok := m.venues[spec.String()]
	if !ok {
		return nil, fmt.Errorf("venue %s: %w", spec, openreview.ErrNotFound)
	}
	return subs, nil
}

func (m *mockClient) Profile(_ context.Context, email string, withPublications bool) (types.Profile, error) {
	p, ok := m.profiles[email]
	if !ok {
		return types.Profile{}, fmt.Errorf("profile for %s: %w", email, openreview.ErrNotFound)
	}
	if !withPublications {
		p.Publications = nil
	}
	return p, nil
}

func (m *mockClient) AuthorPapers(_ context.Context, email string) ([]types.Submission, error) {
	papers, ok := m.userPapers[email]
	if !ok {
		return nil, fmt.Errorf("profile for %s: %w", email, openreview.ErrNotFound)
	}
	return papers, nil
}

func (m *mockClient) FetchPDF(_ context.Context, ref string) ([]byte, error) {
	data, ok := m.pdfs[ref]
	if !ok {
		return nil, fmt.Errorf("pdf %s: %w", ref, openreview.ErrNotFound)
	}
	return data, nil
}

func (m *mockClient) PDFURL(ref string) string {
	return "https://openreview.net/pdf?id=" + ref
}

func testSubmissions() []types.Submission {
	return []types.Submission{
		{
			ID:       "n1",
			Title:    "Token Merging for Fast Transformers",
			Abstract: "We merge tokens to speed up inference.",
			Authors:  []string{"Ada One"},
			Venue:    "ICLR.cc",
			Year:     "2024",
			ForumURL: "https://openreview.net/forum?id=n1",
			PDFRef:   "n1",
		},
		{
			ID:      "n2",
			Title:   "Graph Neural Networks Revisited",
			Authors: []string{"Bo Two", "Cy Three"},
			Venue:   "ICLR.cc",
			Year:    "2024",
		},
	}
}

func newTestServer(client Client) *Server {
	cfg := types.ServerConfig{
		Search: types.SearchConfig{MaxResults: 20},
		Export: types.ExportConfig{MaxPapers: 10, DownloadWorkers: 2, DownloadTimeout: time.Second},
	}
	return New(client, nil, cfg, nil, "test")
}

// errorKind unpacks the structured error payload of a failed tool call.
func errorKind(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.True(t, res.IsError)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	var payload struct {
		Error struct {
			Kind    string `json:"kind"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &payload))
	assert.NotEmpty(t, payload.Error.Message)
	return payload.Error.Kind
}

func TestSearchUser(t *testing.T) {
	client := &mockClient{
		profiles: map[string]types.Profile{
			"ada@example.com": {
				ID:           "~Ada_One1",
				Name:         "Ada One",
				Emails:       []string{"ada@example.com"},
				Publications: testSubmissions()[:1],
			},
		},
	}
	s := newTestServer(client)

	res, out, err := s.searchUser(t.Context(), nil, SearchUserInput{Email: "ada@example.com", IncludePublications: true})
	require.NoError(t, err)
	require.Nil(t, res)
	assert.Equal(t, "~Ada_One1", out.Profile.ID)
	assert.Len(t, out.Profile.Publications, 1)

	res, out, err = s.searchUser(t.Context(), nil, SearchUserInput{Email: "ada@example.com"})
	require.NoError(t, err)
	require.Nil(t, res)
	assert.Empty(t, out.Profile.Publications)
}

func TestSearchUserErrors(t *testing.T) {
	s := newTestServer(&mockClient{})

	res, _, err := s.searchUser(t.Context(), nil, SearchUserInput{Email: "not-an-address"})
	require.NoError(t, err)
	assert.Equal(t, KindInvalidInput, errorKind(t, res))

	res, _, err = s.searchUser(t.Context(), nil, SearchUserInput{Email: "ghost@example.com"})
	require.NoError(t, err)
	assert.Equal(t, KindNoData, errorKind(t, res))
}

func TestGetUserPapersFormats(t *testing.T) {
	client := &mockClient{
		userPapers: map[string][]types.Submission{"ada@example.com": testSubmissions()},
	}
	s := newTestServer(client)

	res, out, err := s.getUserPapers(t.Context(), nil, UserPapersInput{Email: "ada@example.com"})
	require.NoError(t, err)
	require.Nil(t, res)
	assert.Equal(t, 2, out.Count)
	assert.Empty(t, out.Papers[0].Abstract, "summary format omits abstracts")
	assert.Empty(t, out.Papers[0].PDFURL)

	res, out, err = s.getUserPapers(t.Context(), nil, UserPapersInput{Email: "ada@example.com", Format: "detailed"})
	require.NoError(t, err)
	require.Nil(t, res)
	assert.Equal(t, "We merge tokens to speed up inference.", out.Papers[0].Abstract)
	assert.Equal(t, "https://openreview.net/pdf?id=n1", out.Papers[0].PDFURL)
	assert.Empty(t, out.Papers[1].PDFURL, "no pdf ref, no pdf url")

	res, _, err = s.getUserPapers(t.Context(), nil, UserPapersInput{Email: "ada@example.com", Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, KindInvalidInput, errorKind(t, res))
}

func TestGetConferencePapers(t *testing.T) {
	client := &mockClient{
		venues: map[string][]types.Submission{"ICLR.cc 2024": testSubmissions()},
	}
	s := newTestServer(client)

	res, out, err := s.getConferencePapers(t.Context(), nil, ConferencePapersInput{Venue: "ICLR.cc", Year: "2024"})
	require.NoError(t, err)
	require.Nil(t, res)
	assert.Equal(t, 2, out.Count)

	res, out, err = s.getConferencePapers(t.Context(), nil, ConferencePapersInput{Venue: "ICLR.cc", Year: "2024", Limit: 1})
	require.NoError(t, err)
	require.Nil(t, res)
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, "n1", out.Papers[0].ID)
}

func TestGetConferencePapersValidation(t *testing.T) {
	s := newTestServer(&mockClient{})

	tests := []struct {
		name string
		in   ConferencePapersInput
	}{
		{"missing venue", ConferencePapersInput{Year: "2024"}},
		{"bad year", ConferencePapersInput{Venue: "ICLR.cc", Year: "24"}},
		{"negative limit", ConferencePapersInput{Venue: "ICLR.cc", Year: "2024", Limit: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _, err := s.getConferencePapers(t.Context(), nil, tt.in)
			require.NoError(t, err)
			assert.Equal(t, KindInvalidInput, errorKind(t, res))
		})
	}
}

func TestSearchPapersRanksAcrossVenues(t *testing.T) {
	client := &mockClient{
		venues: map[string][]types.Submission{
			"ICLR.cc 2024":    testSubmissions(),
			"NeurIPS.cc 2024": {{ID: "n3", Title: "Token Routing in Mixture Models", Venue: "NeurIPS.cc", Year: "2024"}},
		},
	}
	s := newTestServer(client)

	res, out, err := s.searchPapers(t.Context(), nil, SearchPapersInput{
		Query:  "token merging",
		Venues: []VenueInput{{Venue: "ICLR.cc", Year: "2024"}, {Venue: "NeurIPS.cc", Year: "2024"}},
	})
	require.NoError(t, err)
	require.Nil(t, res)
	assert.Equal(t, 3, out.Candidates)
	require.Equal(t, 2, out.Count)
	assert.Equal(t, "n1", out.Results[0].ID, "full match ranks first")
	assert.Equal(t, 1.0, out.Results[0].Score)
	assert.Equal(t, "n3", out.Results[1].ID)
	assert.Equal(t, 0.5, out.Results[1].Score)
}

func TestSearchPapersPartialVenueFailure(t *testing.T) {
	client := &mockClient{
		venues:    map[string][]types.Submission{"ICLR.cc 2024": testSubmissions()},
		venueErrs: map[string]error{"NeurIPS.cc 2024": fmt.Errorf("listing: %w", openreview.ErrUnavailable)},
	}
	s := newTestServer(client)

	res, out, err := s.searchPapers(t.Context(), nil, SearchPapersInput{
		Query:  "token merging",
		Venues: []VenueInput{{Venue: "ICLR.cc", Year: "2024"}, {Venue: "NeurIPS.cc", Year: "2024"}},
	})
	require.NoError(t, err)
	require.Nil(t, res, "one healthy venue is enough")
	assert.Equal(t, 2, out.Candidates)
}

func TestSearchPapersAllVenuesFail(t *testing.T) {
	client := &mockClient{
		venueErrs: map[string]error{"ICLR.cc 2024": fmt.Errorf("listing: %w", openreview.ErrUnavailable)},
	}
	s := newTestServer(client)

	res, _, err := s.searchPapers(t.Context(), nil, SearchPapersInput{
		Query:  "token merging",
		Venues: []VenueInput{{Venue: "ICLR.cc", Year: "2024"}},
	})
	require.NoError(t, err)
	assert.Equal(t, KindUpstreamUnavailable, errorKind(t, res))
}

func TestSearchPapersValidation(t *testing.T) {
	s := newTestServer(&mockClient{})
	venues := []VenueInput{{Venue: "ICLR.cc", Year: "2024"}}

	tests := []struct {
		name string
		in   SearchPapersInput
	}{
		{"empty query", SearchPapersInput{Query: "  ", Venues: venues}},
		{"no venues", SearchPapersInput{Query: "tokens"}},
		{"bad venue year", SearchPapersInput{Query: "tokens", Venues: []VenueInput{{Venue: "ICLR.cc", Year: "twenty"}}}},
		{"bad mode", SearchPapersInput{Query: "tokens", Venues: venues, MatchMode: "fuzzy"}},
		{"bad field", SearchPapersInput{Query: "tokens", Venues: venues, SearchFields: []string{"keywords"}}},
		{"min_score too high", SearchPapersInput{Query: "tokens", Venues: venues, MinScore: 1.5}},
		{"negative limit", SearchPapersInput{Query: "tokens", Venues: venues, Limit: -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _, err := s.searchPapers(t.Context(), nil, tt.in)
			require.NoError(t, err)
			assert.Equal(t, KindInvalidInput, errorKind(t, res))
		})
	}
}

func TestExportPapersWritesFile(t *testing.T) {
	dir := t.TempDir()
	client := &mockClient{
		venues: map[string][]types.Submission{"ICLR.cc 2024": testSubmissions()},
	}
	s := newTestServer(client)

	res, out, err := s.exportPapers(t.Context(), nil, ExportPapersInput{
		Query:            "token merging",
		Venues:           []VenueInput{{Venue: "ICLR.cc", Year: "2024"}},
		ExportDir:        dir,
		Filename:         "run1",
		IncludeAbstracts: true,
	})
	require.NoError(t, err)
	require.Nil(t, res)
	assert.Equal(t, 1, out.Summary.Exported)
	assert.Equal(t, filepath.Join(dir, "run1.json"), out.Summary.Path)

	data, err := os.ReadFile(out.Summary.Path)
	require.NoError(t, err)
	var doc types.ExportDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Papers, 1)
	assert.Equal(t, "n1", doc.Papers[0].ID)
	assert.Equal(t, "We merge tokens to speed up inference.", doc.Papers[0].Abstract)
}

func TestExportPapersNoData(t *testing.T) {
	client := &mockClient{
		venueErrs: map[string]error{"ICLR.cc 2024": fmt.Errorf("listing: %w", openreview.ErrUnavailable)},
	}
	s := newTestServer(client)

	res, _, err := s.exportPapers(t.Context(), nil, ExportPapersInput{
		Query:     "tokens",
		Venues:    []VenueInput{{Venue: "ICLR.cc", Year: "2024"}},
		ExportDir: t.TempDir(),
	})
	require.NoError(t, err)
	assert.Equal(t, KindNoData, errorKind(t, res))
}

func TestSubmissionsUsesCache(t *testing.T) {
	store, err := cache.Open(types.CacheConfig{Enabled: true, Dir: t.TempDir(), TTL: time.Hour})
	require.NoError(t, err)
	defer store.Close()

	client := &mockClient{
		venues: map[string][]types.Submission{"ICLR.cc 2024": testSubmissions()},
	}
	cfg := types.ServerConfig{Search: types.SearchConfig{MaxResults: 20}}
	s := New(client, store, cfg, nil, "test")
	spec := types.VenueSpec{Venue: "ICLR.cc", Year: "2024"}

	subs, err := s.Submissions(t.Context(), spec)
	require.NoError(t, err)
	assert.Len(t, subs, 2)
	assert.Equal(t, 1, client.venueCalls)

	subs, err = s.Submissions(t.Context(), spec)
	require.NoError(t, err)
	assert.Len(t, subs, 2)
	assert.Equal(t, 1, client.venueCalls, "second fetch served from cache")
}

func TestToolRegistration(t *testing.T) {
	s := newTestServer(&mockClient{})
	srv := s.MCP()
	require.NotNil(t, srv)
}
