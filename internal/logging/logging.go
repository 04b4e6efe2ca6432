// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the structured zerolog logger shared by the CLI
// commands, the export pipeline and the session.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/pdiddy/docbundle/pkg/types"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"

	timeFormat = "15:04:05"
)

// New returns a logger writing to w according to cfg. An empty level means
// info. An empty format picks console output when w is a terminal and JSON
// otherwise.
func New(cfg types.LogConfig, w io.Writer) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = l
	}

	format := cfg.Format
	if format == "" {
		format = FormatJSON
		if isTerminal(w) {
			format = FormatConsole
		}
	}

	var out io.Writer
	switch format {
	case FormatConsole:
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: timeFormat}
	case FormatJSON:
		out = w
	default:
		return zerolog.Nop(), fmt.Errorf("unsupported log format %q: use console or json", cfg.Format)
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
