// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/pdiddy/docbundle/internal/catalog"
)

// lineReader reads user input one line at a time. The shell and the
// duplicate-name prompt share one reader so neither loses buffered input.
type lineReader struct {
	sc *bufio.Scanner
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{sc: bufio.NewScanner(r)}
}

// ReadLine returns the next line without its newline, or false at EOF.
func (r *lineReader) ReadLine() (string, bool) {
	if !r.sc.Scan() {
		return "", false
	}
	return r.sc.Text(), true
}

// askYesNo prints question and reads an answer. Anything but y/yes is no.
func askYesNo(r *lineReader, w io.Writer, question string) bool {
	fmt.Fprint(w, question)
	line, ok := r.ReadLine()
	if !ok {
		fmt.Fprintln(w)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// conflictPrompt returns the catalog's duplicate-name decision. With allow
// set every duplicate is admitted; otherwise an interactive reader asks the
// user and a non-interactive one declines.
func conflictPrompt(r *lineReader, w io.Writer, interactive, allow bool) catalog.ConflictFunc {
	return func(fullName string) bool {
		if allow {
			return true
		}
		if !interactive {
			fmt.Fprintf(w, "skipping duplicate %q (use --allow-duplicates to keep it)\n", fullName)
			return false
		}
		return askYesNo(r, w, fmt.Sprintf("A document named %q is already in the list. Add it anyway? [y/N] ", fullName))
	}
}

// stdinInteractive reports whether in is a terminal the user can answer on.
func stdinInteractive(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
