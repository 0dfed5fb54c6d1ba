// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match scores submissions against a keyword query. It is a pure
// function over already-fetched records: fetching is the API client's job,
// and nothing here performs I/O.
package match

import (
	"sort"
	"strings"
	"unicode"

	"github.com/pdiddy/openreview-mcp/pkg/types"
)

// Options selects the fields, mode, score floor, and result cap for a match run.
type Options struct {
	// Fields are the submission fields searched. Empty means title+abstract.
	Fields []types.Field

	// Mode is the match strictness: any, all, or exact.
	Mode types.MatchMode

	// MinScore excludes results scoring strictly below it.
	MinScore float64

	// Limit truncates the ranked output. Zero or negative means no cap.
	Limit int
}

// Match scores every submission against the query and returns the survivors
// ranked by descending score. Ties keep the input order of subs, which is
// the order the upstream API returned them in; that order is arbitrary but
// stable for a given fetch.
//
// Scoring per mode:
//   - any: fraction of distinct query tokens present in the union of the
//     selected fields. Records with no matching token are dropped, as are
//     records scoring below MinScore.
//   - all: a record is included only when every query token is present;
//     the score of an included record is always 1.0.
//   - exact: the query tokens, joined by single spaces, must appear as a
//     contiguous token run inside one of the selected fields; score 1.0.
//
// A token found in several selected fields counts once toward the tally.
func Match(query string, subs []types.Submission, opts Options) []types.MatchResult {
	// The exact phrase keeps the query's token sequence as written;
	// any/all scoring works over the distinct tokens.
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil
	}
	terms := dedupe(tokens)

	fields := opts.Fields
	if len(fields) == 0 {
		fields = []types.Field{types.FieldTitle, types.FieldAbstract}
	}

	var results []types.MatchResult
	for _, sub := range subs {
		var r types.MatchResult
		var ok bool
		if opts.Mode == types.MatchExact {
			r, ok = matchExact(tokens, terms, sub, fields)
		} else {
			r, ok = matchTokens(terms, sub, fields, opts.Mode)
		}
		if !ok || r.Score < opts.MinScore {
			continue
		}
		r.Submission = sub
		results = append(results, r)
	}

	// Descending score; SliceStable preserves fetch order on ties.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results
}

// matchTokens implements the any and all modes over per-field token sets.
func matchTokens(terms []string, sub types.Submission, fields []types.Field, mode types.MatchMode) (types.MatchResult, bool) {
	found := make(map[string]bool, len(terms))
	var matchedFields []types.Field

	for _, f := range fields {
		tokens := fieldTokens(sub, f)
		if len(tokens) == 0 {
			continue
		}
		set := make(map[string]bool, len(tokens))
		for _, t := range tokens {
			set[t] = true
		}
		hit := false
		for _, term := range terms {
			if set[term] {
				found[term] = true
				hit = true
			}
		}
		if hit {
			matchedFields = append(matchedFields, f)
		}
	}

	if len(found) == 0 {
		return types.MatchResult{}, false
	}
	if mode == types.MatchAll && len(found) != len(terms) {
		return types.MatchResult{}, false
	}

	var matched []string
	for _, term := range terms {
		if found[term] {
			matched = append(matched, term)
		}
	}

	score := float64(len(found)) / float64(len(terms))
	if mode == types.MatchAll {
		score = 1.0
	}
	return types.MatchResult{
		Score:         score,
		MatchedFields: matchedFields,
		MatchedTerms:  matched,
	}, true
}

// matchExact reports whether the query phrase appears as a contiguous token
// run in any selected field. The phrase is the query's tokens in their
// original order, repeats included, so "very very deep" does not match a
// field containing only "very deep". Matching runs over the tokenized field
// text, so "neural networks" matches "Deep Neural Networks for Vision" but
// not "Networks, Neural and Otherwise", and never mid-word. terms carries
// the distinct tokens for the result's MatchedTerms.
func matchExact(tokens, terms []string, sub types.Submission, fields []types.Field) (types.MatchResult, bool) {
	phrase := " " + strings.Join(tokens, " ") + " "
	var matchedFields []types.Field
	for _, f := range fields {
		tokens := fieldTokens(sub, f)
		if len(tokens) == 0 {
			continue
		}
		text := " " + strings.Join(tokens, " ") + " "
		if strings.Contains(text, phrase) {
			matchedFields = append(matchedFields, f)
		}
	}
	if len(matchedFields) == 0 {
		return types.MatchResult{}, false
	}
	return types.MatchResult{
		Score:         1.0,
		MatchedFields: matchedFields,
		MatchedTerms:  terms,
	}, true
}

// fieldTokens returns the token sequence of one submission field. The
// authors field is the concatenation of all author names.
func fieldTokens(sub types.Submission, f types.Field) []string {
	switch f {
	case types.FieldTitle:
		return Tokenize(sub.Title)
	case types.FieldAbstract:
		return Tokenize(sub.Abstract)
	case types.FieldAuthors:
		return Tokenize(strings.Join(sub.Authors, " "))
	default:
		return nil
	}
}

// Tokenize lowercases s, replaces every rune that is not a letter or digit
// with a space, and splits on whitespace. The same tokenizer is applied to
// queries and to field text, so punctuation handling stays consistent
// between the two sides.
func Tokenize(s string) []string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	fields := strings.Fields(mapped)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// dedupe removes repeated tokens, keeping first-occurrence order. Repeated
// query tokens would otherwise inflate both sides of the score fraction.
func dedupe(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	var out []string
	for _, t := range tokens {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
