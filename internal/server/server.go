// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server assembles the MCP tool surface over the OpenReview client,
// match engine and export pipeline. It owns input validation, the venue
// listing cache, and the mapping of internal errors to the structured error
// payloads returned to the MCP client.
package server

import (
	"context"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pdiddy/openreview-mcp/internal/cache"
	"github.com/pdiddy/openreview-mcp/pkg/types"
)

const serverName = "openreview-mcp"

// Client is the slice of the OpenReview client the tool surface needs.
// *openreview.Client satisfies it; tests substitute a mock.
type Client interface {
	Submissions(ctx context.Context, spec types.VenueSpec) ([]types.Submission, error)
	Profile(ctx context.Context, email string, withPublications bool) (types.Profile, error)
	AuthorPapers(ctx context.Context, email string) ([]types.Submission, error)
	FetchPDF(ctx context.Context, ref string) ([]byte, error)
	PDFURL(ref string) string
}

// Server exposes the five OpenReview tools over MCP.
type Server struct {
	client  Client
	store   *cache.Store
	cfg     types.ServerConfig
	log     *slog.Logger
	version string
}

// New builds a Server. store may be nil to disable venue caching; log may
// be nil for a no-op logger.
func New(client Client, store *cache.Store, cfg types.ServerConfig, log *slog.Logger, version string) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Server{client: client, store: store, cfg: cfg, log: log, version: version}
}

// MCP builds the MCP server with all tools registered.
func (s *Server) MCP() *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: s.version}, nil)
	mcp.AddTool(srv, &mcp.Tool{
		Name: "search_user",
		Description: "Look up an OpenReview user profile by email address. " +
			"Returns the profile ID, names, emails and relations; set include_publications for the user's papers.",
	}, s.searchUser)
	mcp.AddTool(srv, &mcp.Tool{
		Name: "get_user_papers",
		Description: "List all papers published by an OpenReview user, found by email address. " +
			"Format summary returns titles and links; detailed adds abstracts and PDF links.",
	}, s.getUserPapers)
	mcp.AddTool(srv, &mcp.Tool{
		Name: "get_conference_papers",
		Description: "List submissions for a conference venue and year (e.g. ICLR.cc 2024). " +
			"Format summary returns titles and links; detailed adds abstracts and PDF links.",
	}, s.getConferencePapers)
	mcp.AddTool(srv, &mcp.Tool{
		Name: "search_papers",
		Description: "Search papers by keywords across one or more conference venues. " +
			"Match modes: any (ranked by fraction of keywords found), all (every keyword required), " +
			"exact (verbatim phrase). Searchable fields: title, abstract, authors.",
	}, s.searchPapers)
	mcp.AddTool(srv, &mcp.Tool{
		Name: "export_papers",
		Description: "Search papers across venues and export the top matches to a JSON file, " +
			"optionally downloading each paper's PDF and extracting its text. " +
			"Writes a YAML summary sidecar next to the export.",
	}, s.exportPapers)
	return srv
}

// Run serves MCP over stdio until ctx is cancelled or the client disconnects.
// Logging goes to stderr; stdout carries the protocol.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("starting MCP server", "name", serverName, "version", s.version)
	return s.MCP().Run(ctx, &mcp.StdioTransport{})
}

// Submissions returns the venue listing, from cache when fresh. Cache write
// failures are logged and ignored; the listing is still returned.
func (s *Server) Submissions(ctx context.Context, spec types.VenueSpec) ([]types.Submission, error) {
	if s.store != nil {
		if subs, ok := s.store.Get(ctx, spec); ok {
			s.log.Debug("venue listing from cache", "venue", spec.String(), "count", len(subs))
			return subs, nil
		}
	}
	subs, err := s.client.Submissions(ctx, spec)
	if err != nil {
		return nil, err
	}
	if s.store != nil {
		if err := s.store.Put(ctx, spec, subs); err != nil {
			s.log.Warn("caching venue listing", "venue", spec.String(), "error", err)
		}
	}
	return subs, nil
}

// FetchPDF and PDFURL delegate to the client so the Server satisfies the
// export pipeline's client interface with cached venue fetches.

func (s *Server) FetchPDF(ctx context.Context, ref string) ([]byte, error) {
	return s.client.FetchPDF(ctx, ref)
}

func (s *Server) PDFURL(ref string) string {
	return s.client.PDFURL(ref)
}

// logWriter adapts the pipeline's progress writer to slog.
type logWriter struct {
	log *slog.Logger
}

func (w logWriter) Write(p []byte) (int, error) {
	if msg := strings.TrimSpace(string(p)); msg != "" {
		w.log.Info(msg)
	}
	return len(p), nil
}
