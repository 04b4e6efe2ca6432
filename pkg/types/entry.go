// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// Entry is one imported document as tracked by the catalog. Entries are
// values: the catalog hands out copies and a rename produces a new value
// through WithStem.
type Entry struct {
	// ID is assigned by the catalog on import, starting at 1. It is never
	// reused while the catalog lives; Reset starts the sequence over.
	ID int `json:"id" yaml:"id"`

	// SourcePath is the absolute path of the original document.
	SourcePath string `json:"source_path" yaml:"source_path"`

	// Stem is the user-facing name without extension (e.g. "report").
	Stem string `json:"stem" yaml:"stem"`

	// Ext is the extension captured at import, including the dot (e.g. ".docx").
	Ext string `json:"ext" yaml:"ext"`
}

// FullName returns the display name, stem plus extension.
func (e Entry) FullName() string {
	return e.Stem + e.Ext
}

// WithStem returns a copy of e carrying a new display stem.
func (e Entry) WithStem(stem string) Entry {
	e.Stem = stem
	return e
}

// String renders the entry as "#id name".
func (e Entry) String() string {
	return fmt.Sprintf("#%d %s", e.ID, e.FullName())
}
