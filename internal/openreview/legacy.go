// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package openreview

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/pdiddy/openreview-mcp/pkg/types"
)

// API v1 JSON structures. Legacy notes carry plain content values instead
// of the v2 {"value": ...} wrapping; contentString accepts both. Acceptance
// lives in Decision reply notes, not in a venueid field.

type legacyNotesResponse struct {
	Notes []legacyNote `json:"notes"`
}

type legacyNote struct {
	ID      string                     `json:"id"`
	Content map[string]json.RawMessage `json:"content"`
	Details *legacyDetails             `json:"details,omitempty"`
}

type legacyDetails struct {
	DirectReplies []legacyReply `json:"directReplies"`

	// Original is the unblinded submission behind a Blind_Submission note.
	Original *legacyNote `json:"original"`
}

type legacyReply struct {
	Invitation string                     `json:"invitation"`
	Forum      string                     `json:"forum"`
	Content    map[string]json.RawMessage `json:"content"`
}

// legacySubmissions fetches accepted submissions through the API v1
// endpoint. Double-blind venues file under a Blind_Submission invitation
// with the real submission attached as details.original; single-blind
// venues file under plain Submission. Both record acceptance as a Decision
// reply whose decision text contains "Accept".
func (c *Client) legacySubmissions(ctx context.Context, spec types.VenueSpec) ([]types.Submission, error) {
	venueID := VenueID(spec)

	subs, err := c.legacyAccepted(ctx, venueID, venueID+"/-/Blind_Submission", "directReplies,original", spec.Year)
	if err != nil {
		return nil, err
	}
	if len(subs) > 0 {
		return subs, nil
	}
	return c.legacyAccepted(ctx, venueID, venueID+"/-/Submission", "directReplies", spec.Year)
}

// legacyAccepted pages through one v1 invitation and keeps the notes whose
// Decision reply accepts them.
func (c *Client) legacyAccepted(ctx context.Context, venueID, invitation, details, year string) ([]types.Submission, error) {
	var subs []types.Submission
	for offset := 0; ; offset += c.pageSize {
		params := url.Values{
			"invitation": {invitation},
			"details":    {details},
			"limit":      {fmt.Sprintf("%d", c.pageSize)},
			"offset":     {fmt.Sprintf("%d", offset)},
		}
		notesURL := c.legacyURL + "/notes?" + params.Encode()

		resp, err := c.get(ctx, notesURL)
		if err != nil {
			return nil, fmt.Errorf("fetching %s notes: %w", invitation, err)
		}

		var nr legacyNotesResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&nr)
		resp.Body.Close()
		if decodeErr != nil {
			return nil, fmt.Errorf("parsing %s notes: %w", invitation, decodeErr)
		}

		for _, n := range nr.Notes {
			if !legacyDecisionAccepted(n) {
				continue
			}
			src := n
			if n.Details != nil && n.Details.Original != nil {
				src = *n.Details.Original
				if src.ID == "" {
					src.ID = n.ID
				}
			}
			if sub, ok := c.submissionFromNote(note{ID: src.ID, Content: src.Content}, venueID, year); ok {
				subs = append(subs, sub)
			}
		}

		if len(nr.Notes) < c.pageSize {
			return subs, nil
		}
	}
}

// legacyDecisionAccepted reports whether any Decision reply on the note
// accepts the submission.
func legacyDecisionAccepted(n legacyNote) bool {
	if n.Details == nil {
		return false
	}
	for _, reply := range n.Details.DirectReplies {
		if !strings.HasSuffix(reply.Invitation, "Decision") {
			continue
		}
		if strings.Contains(contentString(reply.Content, "decision"), "Accept") {
			return true
		}
	}
	return false
}
