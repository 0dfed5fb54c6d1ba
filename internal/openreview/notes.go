// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package openreview

import (
	"encoding/json"
	"strings"

	"github.com/pdiddy/openreview-mcp/pkg/types"
)

// OpenReview API v2 JSON structures. Content fields arrive wrapped as
// {"value": ...}; contentValue unwraps strings and string lists.

type notesResponse struct {
	Notes []note `json:"notes"`
	Count int    `json:"count"`
}

type note struct {
	ID      string                     `json:"id"`
	Forum   string                     `json:"forum"`
	Content map[string]json.RawMessage `json:"content"`
}

type profilesResponse struct {
	Profiles []apiProfile `json:"profiles"`
}

type apiProfile struct {
	ID      string         `json:"id"`
	Content profileContent `json:"content"`
}

type profileContent struct {
	Names []struct {
		FullName  string `json:"fullname"`
		Preferred bool   `json:"preferred"`
	} `json:"names"`
	Emails    []string `json:"emails"`
	Relations []struct {
		Name     string `json:"name"`
		Relation string `json:"relation"`
	} `json:"relations"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// contentString unwraps a {"value": "..."} content field. A bare string is
// accepted too; some older notes carry unwrapped values.
func contentString(content map[string]json.RawMessage, key string) string {
	raw, ok := content[key]
	if !ok {
		return ""
	}
	var wrapped struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Value != "" {
		return wrapped.Value
	}
	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}
	return ""
}

// contentStrings unwraps a {"value": [...]} content field holding a string
// list. A single string is promoted to a one-element list.
func contentStrings(content map[string]json.RawMessage, key string) []string {
	raw, ok := content[key]
	if !ok {
		return nil
	}
	var wrapped struct {
		Value json.RawMessage `json:"value"`
	}
	target := raw
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Value) > 0 {
		target = wrapped.Value
	}
	var list []string
	if err := json.Unmarshal(target, &list); err == nil {
		return list
	}
	var single string
	if err := json.Unmarshal(target, &single); err == nil && single != "" {
		return []string{single}
	}
	return nil
}

// submissionFromNote converts an API note into a Submission. Notes without
// a title are skipped by returning ok=false; venue and year label the
// record with the fetch scope.
func (c *Client) submissionFromNote(n note, venueID, year string) (types.Submission, bool) {
	title := strings.TrimSpace(contentString(n.Content, "title"))
	if title == "" || n.ID == "" {
		return types.Submission{}, false
	}

	sub := types.Submission{
		ID:       n.ID,
		Title:    title,
		Abstract: strings.TrimSpace(contentString(n.Content, "abstract")),
		Authors:  contentStrings(n.Content, "authors"),
		Venue:    venueID,
		Year:     year,
		ForumURL: c.siteURL + "/forum?id=" + n.ID,
	}

	// A note with a pdf content field has a downloadable binary; the note
	// ID is the opaque reference FetchPDF resolves.
	if pdf := contentString(n.Content, "pdf"); pdf != "" {
		sub.PDFRef = n.ID
	}
	return sub, true
}
