// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filestore persists byte buffers on the local filesystem with an
// atomic-write discipline: data lands in a temp file first and is renamed
// into place, so a crash never leaves a half-written document behind.
package filestore

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteAtomic writes data to path, creating parent directories as needed.
// The write goes through a temp file in the target directory followed by a
// rename; readers either see the old file or the complete new one.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".export-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
