// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package openreview

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound marks a lookup whose subject does not exist upstream: an
// unknown profile, note, or venue. Callers treat it as zero results.
var ErrNotFound = errors.New("not found")

// ErrUnavailable marks a transient or fatal upstream condition: transport
// failures, auth rejection, or 5xx responses. Callers surface it instead of
// retrying inline.
var ErrUnavailable = errors.New("openreview unavailable")

// statusError classifies an unexpected HTTP status into one of the two
// sentinel kinds so callers can branch with errors.Is.
func statusError(status int, url string) error {
	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: HTTP 404 from %s", ErrNotFound, url)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d from %s (check credentials)", ErrUnavailable, status, url)
	default:
		return fmt.Errorf("%w: HTTP %d from %s", ErrUnavailable, status, url)
	}
}
