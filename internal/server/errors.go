// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pdiddy/openreview-mcp/internal/export"
	"github.com/pdiddy/openreview-mcp/internal/openreview"
)

// ErrInvalidInput marks request validation failures. Inputs are checked
// before any network or file I/O happens.
var ErrInvalidInput = errors.New("invalid input")

// Error kinds reported to the MCP client. Per-paper download failures are
// not listed here: they are recorded inline on the affected export record.
const (
	KindInvalidInput        = "invalid_input"
	KindNoData              = "no_data"
	KindUpstreamUnavailable = "upstream_unavailable"
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// classify maps an error to the kind reported to the client. Anything not
// recognized is treated as an upstream failure; tool handlers never surface
// an unclassified error.
func classify(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, export.ErrNoData), errors.Is(err, openreview.ErrNotFound):
		return KindNoData
	default:
		return KindUpstreamUnavailable
	}
}

type errorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// errorResult wraps err in a structured error payload for the MCP client.
func errorResult(err error) *mcp.CallToolResult {
	data, mErr := json.Marshal(struct {
		Error errorPayload `json:"error"`
	}{errorPayload{Kind: classify(err), Message: err.Error()}})
	if mErr != nil {
		data = []byte(`{"error":{"kind":"upstream_unavailable","message":"internal error"}}`)
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}
