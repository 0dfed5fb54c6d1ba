// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"github.com/pdiddy/openreview-mcp/pkg/types"
)

// Format selects how much of each paper is returned by the listing tools.
type Format string

const (
	// FormatSummary returns id, title, authors and forum link.
	FormatSummary Format = "summary"

	// FormatDetailed adds the abstract and PDF link.
	FormatDetailed Format = "detailed"
)

func parseFormat(s string) (Format, error) {
	switch Format(s) {
	case "":
		return FormatSummary, nil
	case FormatSummary, FormatDetailed:
		return Format(s), nil
	default:
		return "", invalidf("unknown format %q: must be summary or detailed", s)
	}
}

// PaperView is the per-paper projection returned by the listing tools.
// Detailed fields are empty in summary format and omitted from the JSON.
type PaperView struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Authors  []string `json:"authors"`
	Venue    string   `json:"venue,omitempty"`
	Year     string   `json:"year,omitempty"`
	ForumURL string   `json:"forum_url,omitempty"`
	Abstract string   `json:"abstract,omitempty"`
	PDFURL   string   `json:"pdf_url,omitempty"`
}

func (s *Server) paperView(sub types.Submission, format Format) PaperView {
	view := PaperView{
		ID:       sub.ID,
		Title:    sub.Title,
		Authors:  sub.Authors,
		Venue:    sub.Venue,
		Year:     sub.Year,
		ForumURL: sub.ForumURL,
	}
	if format == FormatDetailed {
		view.Abstract = sub.Abstract
		if sub.PDFRef != "" {
			view.PDFURL = s.client.PDFURL(sub.PDFRef)
		}
	}
	return view
}

func (s *Server) paperViews(subs []types.Submission, format Format) []PaperView {
	views := make([]PaperView, len(subs))
	for i, sub := range subs {
		views[i] = s.paperView(sub, format)
	}
	return views
}
