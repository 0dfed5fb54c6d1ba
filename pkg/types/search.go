// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the openreview-mcp bridge:
// submissions and profiles fetched from the upstream API, match results
// produced by the keyword engine, export records written to disk, and the
// configuration structs passed into each stage.
package types

import "fmt"

// MatchMode selects how strictly query keywords must match a record.
type MatchMode string

const (
	// MatchAny includes a record when at least one query token is present;
	// the score is the fraction of query tokens found.
	MatchAny MatchMode = "any"

	// MatchAll includes a record only when every query token is present.
	MatchAll MatchMode = "all"

	// MatchExact includes a record only when the query, as a single
	// lowercase phrase, appears verbatim inside a selected field.
	MatchExact MatchMode = "exact"
)

// ParseMatchMode validates a mode string. An empty string maps to MatchAny.
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(s) {
	case "":
		return MatchAny, nil
	case MatchAny, MatchAll, MatchExact:
		return MatchMode(s), nil
	default:
		return "", fmt.Errorf("unknown match mode %q: must be one of any, all, exact", s)
	}
}

// Field names a searchable submission field.
type Field string

const (
	FieldTitle    Field = "title"
	FieldAbstract Field = "abstract"
	FieldAuthors  Field = "authors"
)

// ParseFields validates a list of field names. An empty list maps to the
// default of title and abstract.
func ParseFields(names []string) ([]Field, error) {
	if len(names) == 0 {
		return []Field{FieldTitle, FieldAbstract}, nil
	}
	fields := make([]Field, 0, len(names))
	for _, n := range names {
		switch Field(n) {
		case FieldTitle, FieldAbstract, FieldAuthors:
			fields = append(fields, Field(n))
		default:
			return nil, fmt.Errorf("unknown search field %q: must be one of title, abstract, authors", n)
		}
	}
	return fields, nil
}

// MatchResult is one scored candidate produced by the match engine. It is
// ephemeral: created per search invocation and discarded after the response
// is returned or consumed by the export pipeline.
type MatchResult struct {
	// Submission is the matched record.
	Submission Submission `json:"submission" yaml:"submission"`

	// Score is the relevance score in [0, 1].
	Score float64 `json:"score" yaml:"score"`

	// MatchedFields lists the fields in which at least one query token
	// (or the exact phrase) was found.
	MatchedFields []Field `json:"matched_fields" yaml:"matched_fields"`

	// MatchedTerms lists the query tokens that were found, in query order.
	MatchedTerms []string `json:"matched_terms" yaml:"matched_terms"`
}
