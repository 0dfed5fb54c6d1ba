// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"
	"testing"
)

func TestTextRejectsEmptyInput(t *testing.T) {
	if _, err := Text(nil); err == nil {
		t.Error("Text(nil) returned no error")
	}
	if _, err := Text([]byte{}); err == nil {
		t.Error("Text(empty) returned no error")
	}
}

func TestTextRejectsGarbage(t *testing.T) {
	inputs := []string{
		"not a pdf at all",
		"%PDF-1.5 but truncated",
		strings.Repeat("\x00", 128),
	}
	for _, in := range inputs {
		if _, err := Text([]byte(in)); err == nil {
			t.Errorf("Text(%.20q) returned no error", in)
		}
	}
}
