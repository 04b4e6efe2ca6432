// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"fmt"
	"os/exec"
)

const (
	binSoffice     = "soffice"
	binLibreOffice = "libreoffice"
)

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	// Run executes the command and returns its combined output.
	Run(name string, args ...string) ([]byte, error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(name string, args ...string) ([]byte, error) {
	var out bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

var defaultExec executor = &osExecutor{}

// OfficeConverter converts documents with a headless LibreOffice (or
// compatible) binary. Invocations are not bounded by a timeout: a hung
// converter blocks the caller.
type OfficeConverter struct {
	bin  string
	exec executor
}

// NewOfficeConverter returns a converter running bin. An empty bin detects
// the binary on PATH, trying soffice then libreoffice.
func NewOfficeConverter(bin string) (*OfficeConverter, error) {
	return newOfficeConverter(bin, defaultExec)
}

func newOfficeConverter(bin string, exec executor) (*OfficeConverter, error) {
	if bin == "" {
		found, err := detect(exec)
		if err != nil {
			return nil, err
		}
		bin = found
	} else if _, err := exec.LookPath(bin); err != nil {
		return nil, fmt.Errorf("converter %s not found: %w", bin, err)
	}
	return &OfficeConverter{bin: bin, exec: exec}, nil
}

// Binary returns the executable the converter runs.
func (c *OfficeConverter) Binary() string { return c.bin }

// Args returns the command-line arguments used to convert inputPath into outDir.
func Args(inputPath, outDir string) []string {
	return []string{
		"--headless",
		"--convert-to", "pdf",
		"--outdir", outDir,
		inputPath,
	}
}

// Convert runs the converter against inputPath. A non-zero exit status is
// returned as a *ProcessError carrying the captured output.
func (c *OfficeConverter) Convert(inputPath, outDir string) error {
	out, err := c.exec.Run(c.bin, Args(inputPath, outDir)...)
	if err != nil {
		return &ProcessError{
			Binary: c.bin,
			Input:  inputPath,
			Output: string(out),
			Err:    err,
		}
	}
	return nil
}

// Detect finds an office converter binary on PATH.
func Detect() (string, error) {
	return detect(defaultExec)
}

func detect(exec executor) (string, error) {
	for _, bin := range []string{binSoffice, binLibreOffice} {
		if _, err := exec.LookPath(bin); err == nil {
			return bin, nil
		}
	}
	return "", fmt.Errorf(
		"no office converter available: neither %s nor %s found on PATH",
		binSoffice, binLibreOffice,
	)
}
