// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package openreview is a minimal client for the OpenReview API v2. It
// fetches venue submissions, user profiles and publications, and PDF
// binaries. Lookup misses are reported as ErrNotFound and upstream outages
// as ErrUnavailable so callers can tell the two apart.
package openreview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pdiddy/openreview-mcp/internal/httputil"
	"github.com/pdiddy/openreview-mcp/pkg/types"
)

const (
	defaultBaseURL   = "https://api2.openreview.net"
	defaultLegacyURL = "https://api.openreview.net"
	defaultSiteURL   = "https://openreview.net"
	defaultPageSize  = 1000
	defaultTimeout   = 60 * time.Second
)

// Client talks to the OpenReview API. Construct with New; the zero value is
// not usable.
type Client struct {
	http      *http.Client
	baseURL   string
	legacyURL string
	siteURL   string
	pageSize  int
	retries   int
	agent     string

	username string
	password string
	token    string
}

// New builds a Client from cfg, filling unset fields with defaults. No
// network traffic happens until the first call; login is lazy.
func New(cfg types.ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	legacyURL := cfg.LegacyBaseURL
	if legacyURL == "" {
		legacyURL = defaultLegacyURL
	}
	siteURL := cfg.SiteURL
	if siteURL == "" {
		siteURL = defaultSiteURL
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	agent := cfg.UserAgent
	if agent == "" {
		agent = "openreview-mcp/0.1"
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		baseURL:   baseURL,
		legacyURL: legacyURL,
		siteURL:   siteURL,
		pageSize:  pageSize,
		retries:   cfg.MaxRetries,
		agent:     agent,
		username:  cfg.Username,
		password:  cfg.Password,
	}
}

// login exchanges the configured credentials for a bearer token. Called
// once before the first authenticated request; anonymous clients skip it.
func (c *Client) login(ctx context.Context) error {
	if c.username == "" || c.token != "" {
		return nil
	}

	body, err := json.Marshal(map[string]string{"id": c.username, "password": c.password})
	if err != nil {
		return fmt.Errorf("encoding login request: %w", err)
	}

	loginURL := c.baseURL + "/login"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.agent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: login request: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode, loginURL)
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("parsing login response: %w", err)
	}
	if lr.Token == "" {
		return fmt.Errorf("%w: login returned no token", ErrUnavailable)
	}
	c.token = lr.Token
	return nil
}

// get issues an authenticated GET and returns the response on HTTP 200.
// Rate-limited requests are retried with backoff.
func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	if err := c.login(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.agent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.retries)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, statusError(resp.StatusCode, rawURL)
	}
	return resp, nil
}

// VenueID builds the full venue group ID for a spec
// (e.g. "ICLR.cc" + "2024" -> "ICLR.cc/2024/Conference").
func VenueID(spec types.VenueSpec) string {
	return fmt.Sprintf("%s/%s/Conference", spec.Venue, spec.Year)
}

// Submissions fetches all accepted submissions for a venue and year, in the
// order the API returns them. It pages through the v2 notes endpoint until
// a short page; venues that predate the v2 migration answer the venueid
// query with nothing, so an empty v2 listing falls back to the legacy API
// (see legacySubmissions). An existing venue with no submissions on either
// API yields an empty slice, not an error.
func (c *Client) Submissions(ctx context.Context, spec types.VenueSpec) ([]types.Submission, error) {
	venueID := VenueID(spec)

	var subs []types.Submission
	seen := 0
	for offset := 0; ; offset += c.pageSize {
		params := url.Values{
			"content.venueid": {venueID},
			"limit":           {fmt.Sprintf("%d", c.pageSize)},
			"offset":          {fmt.Sprintf("%d", offset)},
		}
		notesURL := c.baseURL + "/notes?" + params.Encode()

		resp, err := c.get(ctx, notesURL)
		if err != nil {
			return nil, fmt.Errorf("fetching %s submissions: %w", venueID, err)
		}

		var nr notesResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&nr)
		resp.Body.Close()
		if decodeErr != nil {
			return nil, fmt.Errorf("parsing %s submissions: %w", venueID, decodeErr)
		}

		seen += len(nr.Notes)
		for _, n := range nr.Notes {
			if sub, ok := c.submissionFromNote(n, venueID, spec.Year); ok {
				subs = append(subs, sub)
			}
		}

		if len(nr.Notes) < c.pageSize {
			break
		}
	}

	if seen == 0 {
		return c.legacySubmissions(ctx, spec)
	}
	return subs, nil
}

// Profile looks up a user profile by email. withPublications controls
// whether the user's papers are fetched too. A missing profile is
// ErrNotFound.
func (c *Client) Profile(ctx context.Context, email string, withPublications bool) (types.Profile, error) {
	params := url.Values{"email": {email}}
	searchURL := c.baseURL + "/profiles/search?" + params.Encode()

	resp, err := c.get(ctx, searchURL)
	if err != nil {
		return types.Profile{}, fmt.Errorf("searching profile for %s: %w", email, err)
	}
	defer resp.Body.Close()

	var pr profilesResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return types.Profile{}, fmt.Errorf("parsing profile response: %w", err)
	}
	if len(pr.Profiles) == 0 {
		return types.Profile{}, fmt.Errorf("no profile for %s: %w", email, ErrNotFound)
	}

	ap := pr.Profiles[0]
	profile := types.Profile{
		ID:     ap.ID,
		Emails: ap.Content.Emails,
	}
	if len(profile.Emails) == 0 {
		profile.Emails = []string{email}
	}
	for _, n := range ap.Content.Names {
		if profile.Name == "" || n.Preferred {
			profile.Name = n.FullName
		}
	}
	for _, rel := range ap.Content.Relations {
		profile.Relations = append(profile.Relations, types.Relation{
			Name:     rel.Name,
			Relation: rel.Relation,
		})
	}

	if withPublications {
		pubs, err := c.publications(ctx, ap.ID)
		if err != nil {
			return types.Profile{}, err
		}
		profile.Publications = pubs
	}
	return profile, nil
}

// AuthorPapers returns all papers published by the user behind email.
func (c *Client) AuthorPapers(ctx context.Context, email string) ([]types.Submission, error) {
	profile, err := c.Profile(ctx, email, true)
	if err != nil {
		return nil, err
	}
	return profile.Publications, nil
}

// publications pages through the notes authored by a profile ID.
func (c *Client) publications(ctx context.Context, profileID string) ([]types.Submission, error) {
	var pubs []types.Submission
	for offset := 0; ; offset += c.pageSize {
		params := url.Values{
			"content.authorids": {profileID},
			"limit":             {fmt.Sprintf("%d", c.pageSize)},
			"offset":            {fmt.Sprintf("%d", offset)},
		}
		notesURL := c.baseURL + "/notes?" + params.Encode()

		resp, err := c.get(ctx, notesURL)
		if err != nil {
			return nil, fmt.Errorf("fetching publications for %s: %w", profileID, err)
		}

		var nr notesResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&nr)
		resp.Body.Close()
		if decodeErr != nil {
			return nil, fmt.Errorf("parsing publications for %s: %w", profileID, decodeErr)
		}

		for _, n := range nr.Notes {
			venue := contentString(n.Content, "venueid")
			if venue == "" {
				venue = contentString(n.Content, "venue")
			}
			if sub, ok := c.submissionFromNote(n, venue, ""); ok {
				pubs = append(pubs, sub)
			}
		}

		if len(nr.Notes) < c.pageSize {
			return pubs, nil
		}
	}
}

// PDFURL returns the public PDF location for a PDF reference.
func (c *Client) PDFURL(ref string) string {
	return c.siteURL + "/pdf?id=" + url.QueryEscape(ref)
}

// FetchPDF downloads the PDF binary for a submission's PDFRef. A missing
// PDF is ErrNotFound; transport failures are ErrUnavailable.
func (c *Client) FetchPDF(ctx context.Context, ref string) ([]byte, error) {
	if ref == "" {
		return nil, fmt.Errorf("submission has no PDF: %w", ErrNotFound)
	}

	if err := c.login(ctx); err != nil {
		return nil, err
	}

	pdfURL := c.PDFURL(ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating PDF request: %w", err)
	}
	req.Header.Set("User-Agent", c.agent)
	req.Header.Set("Accept", "application/pdf")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.retries)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: downloading %s: %v", ErrUnavailable, pdfURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, pdfURL)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrUnavailable, pdfURL, err)
	}
	return data, nil
}
