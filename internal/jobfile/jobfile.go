// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package jobfile reads export jobs described in YAML:
//
//	archive: quarterly
//	destination: ./out
//	allow_duplicates: false
//	documents:
//	  - path: drafts/report.docx
//	    name: Q1 report
//	  - path: minutes.odt
package jobfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Document is one input of a job.
type Document struct {
	// Path of the source document. Relative paths are resolved against the
	// directory holding the job file.
	Path string `yaml:"path"`

	// Name is the display stem to give the document. Empty keeps the file's
	// own stem.
	Name string `yaml:"name,omitempty"`
}

// JobFile is the on-disk representation of an export job.
type JobFile struct {
	// Archive is the archive base name; empty uses the default.
	Archive string `yaml:"archive,omitempty"`

	// Destination is the directory receiving the archive, resolved like
	// document paths.
	Destination string `yaml:"destination,omitempty"`

	// AllowDuplicates admits documents whose display name is already taken.
	AllowDuplicates bool `yaml:"allow_duplicates,omitempty"`

	Documents []Document `yaml:"documents"`
}

// Read loads and validates a job file.
func Read(path string) (*JobFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading job file: %w", err)
	}
	var jf JobFile
	if err := yaml.Unmarshal(data, &jf); err != nil {
		return nil, fmt.Errorf("parsing job file %s: %w", path, err)
	}
	if err := jf.Validate(); err != nil {
		return nil, fmt.Errorf("job file %s: %w", path, err)
	}
	jf.resolve(filepath.Dir(path))
	return &jf, nil
}

// Validate checks that the job lists at least one document and that every
// document has a path.
func (j *JobFile) Validate() error {
	if len(j.Documents) == 0 {
		return errors.New("no documents listed")
	}
	for i, d := range j.Documents {
		if strings.TrimSpace(d.Path) == "" {
			return fmt.Errorf("document %d has no path", i+1)
		}
	}
	return nil
}

// Paths returns the document paths in job order.
func (j *JobFile) Paths() []string {
	out := make([]string, len(j.Documents))
	for i, d := range j.Documents {
		out[i] = d.Path
	}
	return out
}

func (j *JobFile) resolve(dir string) {
	for i := range j.Documents {
		j.Documents[i].Path = resolvePath(dir, j.Documents[i].Path)
	}
	if j.Destination != "" {
		j.Destination = resolvePath(dir, j.Destination)
	}
}

func resolvePath(dir, p string) string {
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
