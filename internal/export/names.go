// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// resolveName returns a path in dir for stem+".pdf" that no file occupies
// yet, appending _1, _2, ... to the stem until one is free.
func resolveName(dir, stem string) (string, error) {
	candidate := filepath.Join(dir, stem+".pdf")
	for n := 1; ; n++ {
		_, err := os.Lstat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("checking %s: %w", candidate, err)
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d.pdf", stem, n))
	}
}

// stagedName is the collision-free name a source document is copied to:
// the entry id joined to the original base name.
func stagedName(id int, sourcePath string) string {
	return fmt.Sprintf("%d_%s", id, filepath.Base(sourcePath))
}

// DefaultArchiveBase returns the archive base name used when the caller does
// not supply one: prefix joined to the destination directory name.
func DefaultArchiveBase(prefix, destDir string) string {
	name := filepath.Base(filepath.Clean(destDir))
	if abs, err := filepath.Abs(destDir); err == nil {
		name = filepath.Base(abs)
	}
	if name == string(filepath.Separator) || name == "." {
		name = ""
	}
	switch {
	case prefix == "":
		return name
	case name == "":
		return prefix
	}
	return prefix + "_" + name
}
