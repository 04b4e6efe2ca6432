// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session drives the catalog and the export pipeline on behalf of
// an interactive shell. It validates user input before it reaches the
// catalog, runs exports on a background goroutine and reports progress on
// an events.Bus. While an export runs the shell's controls are disabled:
// Import, Rename, Reset and StartExport return ErrBusy.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/pdiddy/docbundle/internal/catalog"
	"github.com/pdiddy/docbundle/internal/convert"
	"github.com/pdiddy/docbundle/internal/events"
	"github.com/pdiddy/docbundle/internal/export"
	"github.com/pdiddy/docbundle/pkg/types"
)

var (
	// ErrBusy is returned while an export owns the catalog.
	ErrBusy = errors.New("an export is running; controls are disabled")

	// ErrEmptyName rejects a rename to a blank name.
	ErrEmptyName = errors.New("the name cannot be empty")

	// ErrInvalidName rejects names that would escape the output directory.
	ErrInvalidName = errors.New("the name cannot contain path separators")

	// ErrNameConflict rejects a rename to a display name already in use.
	ErrNameConflict = errors.New("name already in use")

	// ErrUnknownEntry is returned for an id not in the catalog.
	ErrUnknownEntry = errors.New("no such entry")

	// ErrUnsupportedType rejects files outside the import allow-list.
	ErrUnsupportedType = errors.New("unsupported document type")
)

// Options configures a Session.
type Options struct {
	Converter convert.Converter

	// WorkRoot is the parent directory for export working directories.
	WorkRoot string

	// Extensions is the import allow-list (default types.DefaultExtensions).
	Extensions []string

	// ArchivePrefix forms the default archive base name.
	ArchivePrefix string

	// Logger defaults to discarding everything.
	Logger *zerolog.Logger

	// Bus receives status, controls, progress and result events. A nil
	// Bus gets a private one.
	Bus *events.Bus
}

// Result is the outcome of a background export.
type Result struct {
	ArchivePath string
	Err         error
}

// ImportResult reports what an Import call did.
type ImportResult struct {
	Added []types.Entry
	// Skipped lists paths already in the catalog or whose duplicate name
	// was declined.
	Skipped []string
}

// Session is the controller between a shell and the catalog.
type Session struct {
	cat      *catalog.Catalog
	pipeline *export.Pipeline
	bus      *events.Bus
	log      zerolog.Logger
	exts     map[string]struct{}
	prefix   string

	mu   sync.Mutex
	busy atomic.Bool
}

// New returns a session with an empty catalog.
func New(opts Options) *Session {
	bus := opts.Bus
	if bus == nil {
		bus = events.NewBus(0)
	}
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = types.DefaultExtensions
	}
	prefix := opts.ArchivePrefix
	if prefix == "" {
		prefix = types.DefaultArchivePrefix
	}

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	s := &Session{
		cat:    catalog.New(),
		bus:    bus,
		log:    log,
		exts:   make(map[string]struct{}, len(exts)),
		prefix: prefix,
	}
	for _, e := range exts {
		s.exts[normalizeExt(e)] = struct{}{}
	}
	s.pipeline = export.New(export.Options{
		Converter:  opts.Converter,
		WorkRoot:   opts.WorkRoot,
		Logger:     &log,
		OnStatus:   bus.PublishStatus,
		OnProgress: bus.PublishProgress,
	})
	return s
}

// Bus returns the bus the session publishes on.
func (s *Session) Bus() *events.Bus { return s.bus }

// Busy reports whether an export is running.
func (s *Session) Busy() bool { return s.busy.Load() }

// Phase returns the export pipeline phase.
func (s *Session) Phase() types.Phase { return s.pipeline.Phase() }

// Count returns the number of imported documents.
func (s *Session) Count() int { return s.cat.Count() }

// Entries returns the imported documents ordered by id.
func (s *Session) Entries() []types.Entry { return s.cat.Entries() }

// Import adds the documents at paths. Every path must name an existing file
// with an allowed extension; otherwise nothing is imported. Paths already in
// the catalog are skipped silently. confirm is asked whether to keep a
// document whose display name is already taken.
func (s *Session) Import(paths []string, confirm catalog.ConflictFunc) (ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res ImportResult
	if s.busy.Load() {
		return res, ErrBusy
	}

	abs := make([]string, len(paths))
	for i, p := range paths {
		a, err := s.checkImportable(p)
		if err != nil {
			return res, err
		}
		abs[i] = a
	}

	for _, p := range abs {
		base := filepath.Base(p)
		ext := filepath.Ext(base)
		stem := strings.TrimSuffix(base, ext)

		e, ok := s.cat.Add(p, stem, ext, confirm)
		if !ok {
			s.log.Debug().Str("path", p).Msg("document skipped")
			res.Skipped = append(res.Skipped, p)
			continue
		}
		s.log.Debug().Int("id", e.ID).Str("path", p).Msg("document imported")
		res.Added = append(res.Added, e)
	}

	s.publishReady()
	return res, nil
}

func (s *Session) checkImportable(path string) (string, error) {
	if _, ok := s.exts[normalizeExt(filepath.Ext(path))]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("importing %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("importing %s: not a regular file", path)
	}
	return abs, nil
}

// Rename gives entry id a new display stem.
func (s *Session) Rename(id int, stem string) (types.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy.Load() {
		return types.Entry{}, ErrBusy
	}
	if err := ValidateName(stem); err != nil {
		return types.Entry{}, err
	}
	old, ok := s.cat.Get(id)
	if !ok {
		return types.Entry{}, fmt.Errorf("%w: %d", ErrUnknownEntry, id)
	}
	e, ok := s.cat.Rename(id, stem)
	if !ok {
		return types.Entry{}, fmt.Errorf("%w: %q", ErrNameConflict, stem+old.Ext)
	}
	s.log.Debug().Int("id", id).Str("from", old.FullName()).Str("to", e.FullName()).Msg("entry renamed")
	return e, nil
}

// ValidateName checks a display stem before it is handed to the catalog.
func ValidateName(stem string) error {
	if strings.TrimSpace(stem) == "" {
		return ErrEmptyName
	}
	if strings.ContainsAny(stem, `/\`) || stem == "." || stem == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, stem)
	}
	return nil
}

// Reset empties the catalog.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy.Load() {
		return ErrBusy
	}
	s.cat.Reset()
	s.publishReady()
	return nil
}

// StartExport launches an export of every imported document into destDir.
// An empty archiveBase uses the configured prefix and the destination
// directory name. The returned channel delivers exactly one Result. On
// success the catalog is reset; on failure it is left as it was.
func (s *Session) StartExport(destDir, archiveBase string) (<-chan Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy.Load() {
		return nil, ErrBusy
	}
	if s.cat.Count() == 0 {
		return nil, export.ErrEmptyCatalog
	}
	if err := export.CheckDestination(destDir); err != nil {
		return nil, err
	}
	if archiveBase == "" {
		archiveBase = export.DefaultArchiveBase(s.prefix, destDir)
	}

	s.busy.Store(true)
	s.bus.PublishControls(false)

	done := make(chan Result, 1)
	go s.runExport(export.Request{DestDir: destDir, ArchiveBase: archiveBase}, done)
	return done, nil
}

func (s *Session) runExport(req export.Request, done chan<- Result) {
	var res Result
	defer func() {
		s.busy.Store(false)
		s.bus.PublishControls(true)
		s.bus.PublishResult(res.ArchivePath, res.Err)
		done <- res
		close(done)
	}()

	res.ArchivePath, res.Err = s.pipeline.Export(s.cat, req)
	if res.Err != nil {
		s.log.Error().Err(res.Err).Msg(FailureMessage(res.Err))
		return
	}

	s.cat.Reset()
	s.publishReady()
}

func (s *Session) publishReady() {
	s.bus.PublishStatus(s.cat.Count(), types.PhaseIdle)
}

// FailureMessage returns the user-facing summary of an export error,
// separating converter failures from any other failure.
func FailureMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case export.IsConversionFailure(err):
		return "PDF conversion failed"
	case errors.Is(err, export.ErrEmptyCatalog):
		return "import documents before exporting"
	default:
		return "unexpected export failure"
	}
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
