// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert runs the external office-suite converter that turns
// editable documents into PDF. The conversion itself is delegated entirely
// to the converter process; this package only builds the command line,
// captures its output and reports failure.
package convert

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Converter turns one document into a PDF written to outDir. On success the
// PDF is named after the input stem with a .pdf extension.
type Converter interface {
	// Convert converts inputPath, writing the PDF into outDir.
	Convert(inputPath, outDir string) error
}

// OutputName returns the file name a converter produces for inputPath.
func OutputName(inputPath string) string {
	base := filepath.Base(inputPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".pdf"
}

// ProcessError reports a converter process that exited unsuccessfully. Output
// holds the combined stdout and stderr for logging.
type ProcessError struct {
	Binary string
	Input  string
	Output string
	Err    error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("%s failed converting %s: %v", e.Binary, filepath.Base(e.Input), e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }
