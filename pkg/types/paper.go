// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// Submission holds the metadata of one paper record as returned by the
// OpenReview API. The matching and export stages only read it; Authors
// keeps the author order from the source.
type Submission struct {
	// ID is the OpenReview note ID (e.g. "aBcD3FgHiJ").
	ID string `json:"id" yaml:"id"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Abstract is the paper abstract. May be empty for some venues.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Venue is the venue identifier the submission was fetched from
	// (e.g. "ICLR.cc/2024/Conference").
	Venue string `json:"venue" yaml:"venue"`

	// Year is the conference year (e.g. "2024").
	Year string `json:"year,omitempty" yaml:"year,omitempty"`

	// ForumURL is the public discussion page for the paper.
	ForumURL string `json:"forum_url,omitempty" yaml:"forum_url,omitempty"`

	// PDFRef is an opaque reference the client can resolve to the PDF
	// binary. Empty when the venue exposes no PDF.
	PDFRef string `json:"pdf_ref,omitempty" yaml:"pdf_ref,omitempty"`
}

// VenueSpec scopes a search or export to one conference venue and year.
type VenueSpec struct {
	// Venue is the venue group (e.g. "ICLR.cc", "NeurIPS.cc", "ICML.cc").
	Venue string `json:"venue" yaml:"venue"`

	// Year is the conference year (e.g. "2024").
	Year string `json:"year" yaml:"year"`
}

// String returns the human-readable "venue year" form.
func (v VenueSpec) String() string {
	return fmt.Sprintf("%s %s", v.Venue, v.Year)
}

// Validate rejects specs with a missing venue or a year that is not a
// four-digit number.
func (v VenueSpec) Validate() error {
	if v.Venue == "" {
		return fmt.Errorf("venue spec is missing a venue identifier")
	}
	if len(v.Year) != 4 {
		return fmt.Errorf("venue spec %q: year must be four digits (e.g. \"2024\"), got %q", v.Venue, v.Year)
	}
	for _, r := range v.Year {
		if r < '0' || r > '9' {
			return fmt.Errorf("venue spec %q: year must be four digits (e.g. \"2024\"), got %q", v.Venue, v.Year)
		}
	}
	return nil
}

// Profile holds an OpenReview user profile.
type Profile struct {
	// ID is the profile ID (e.g. "~Jane_Doe1").
	ID string `json:"id" yaml:"id"`

	// Name is the preferred display name, when the profile exposes one.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Emails lists the confirmed email addresses.
	Emails []string `json:"emails" yaml:"emails"`

	// Relations lists advisor/coauthor style relations from the profile.
	Relations []Relation `json:"relations,omitempty" yaml:"relations,omitempty"`

	// Publications lists the user's papers in the order returned by the
	// API. Populated only when requested.
	Publications []Submission `json:"publications,omitempty" yaml:"publications,omitempty"`
}

// Relation is one entry of a profile's relations list.
type Relation struct {
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Relation string `json:"relation,omitempty" yaml:"relation,omitempty"`
}
