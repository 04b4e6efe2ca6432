// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"errors"
	"fmt"

	"github.com/pdiddy/docbundle/pkg/types"
)

var (
	// ErrEmptyCatalog is returned before any work starts when there is
	// nothing to export.
	ErrEmptyCatalog = errors.New("nothing to export: no documents imported")

	// ErrExportInProgress is returned when Export is called while another
	// export on the same pipeline is still running.
	ErrExportInProgress = errors.New("an export is already running")
)

// ConversionError reports that the external converter failed on one entry.
// It aborts the whole export.
type ConversionError struct {
	Entry types.Entry
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("PDF conversion failed for %s: %v", e.Entry.FullName(), e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// IsConversionFailure reports whether err was caused by the converter, as
// opposed to any other staging or packaging failure.
func IsConversionFailure(err error) bool {
	var cerr *ConversionError
	return errors.As(err, &cerr)
}
