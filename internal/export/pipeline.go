// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export converts every catalog entry to PDF and bundles the results
// into a single zip archive. A run stages each document into a private
// working directory, runs the external converter on it, renames the output
// to the entry's display name and finally zips the directory. The working
// directory is always removed, whether the run succeeds or not.
package export

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/docbundle/internal/archive"
	"github.com/pdiddy/docbundle/internal/convert"
	"github.com/pdiddy/docbundle/pkg/types"
)

const (
	workDirPrefix = "docbundle-export-"
	stagingDir    = ".staging"

	// archiveAttempts bounds how many suffixes are tried when the generated
	// archive name is already taken in the destination.
	archiveAttempts = 5
)

// Source is the read side of the catalog the pipeline exports.
type Source interface {
	Count() int
	Entries() []types.Entry
}

// StatusFunc receives the number of documents in the run and the phase the
// pipeline just entered.
type StatusFunc func(count int, phase types.Phase)

// ProgressFunc is called after each document has been converted.
type ProgressFunc func(done, total int, e types.Entry)

// Options configures a Pipeline.
type Options struct {
	// Converter runs the external PDF conversion. Required.
	Converter convert.Converter

	// WorkRoot is where working directories are created
	// (default: os.TempDir()).
	WorkRoot string

	// Logger receives progress and failure records (default: discard).
	Logger     *zerolog.Logger
	OnStatus   StatusFunc
	OnProgress ProgressFunc
}

// Request describes one export run.
type Request struct {
	// DestDir is the existing directory receiving the archive.
	DestDir string

	// ArchiveBase is the archive file name without suffix or extension.
	// When empty DefaultArchiveBase(types.DefaultArchivePrefix, DestDir) is used.
	ArchiveBase string
}

// Pipeline runs exports one at a time.
type Pipeline struct {
	conv       convert.Converter
	workRoot   string
	log        zerolog.Logger
	onStatus   StatusFunc
	onProgress ProgressFunc
	newToken   func() string

	mu    sync.Mutex
	phase types.Phase
}

// New returns an idle pipeline.
func New(opts Options) *Pipeline {
	root := opts.WorkRoot
	if root == "" {
		root = os.TempDir()
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &Pipeline{
		conv:       opts.Converter,
		workRoot:   root,
		log:        log,
		onStatus:   opts.OnStatus,
		onProgress: opts.OnProgress,
		newToken:   uuid.NewString,
		phase:      types.PhaseIdle,
	}
}

// Phase returns the phase of the current or most recent run.
func (p *Pipeline) Phase() types.Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase
}

// Export converts every entry of src and writes the archive into
// req.DestDir, returning the archive path. Entries are processed one at a
// time; the first conversion failure aborts the run with a
// *ConversionError and no archive is written. No working directory is
// created when src is empty or the destination is unusable.
func (p *Pipeline) Export(src Source, req Request) (archivePath string, err error) {
	if src.Count() == 0 {
		return "", ErrEmptyCatalog
	}
	if err := CheckDestination(req.DestDir); err != nil {
		return "", err
	}
	if !p.begin() {
		return "", ErrExportInProgress
	}

	entries := src.Entries()
	count := len(entries)
	p.emit(count, types.PhaseStaging)

	defer func() {
		if err != nil {
			p.log.Error().Err(err).Int("documents", count).Msg("export failed")
			p.transition(count, types.PhaseFailed)
			return
		}
		p.log.Info().Str("archive", archivePath).Int("documents", count).Msg("export finished")
		p.transition(count, types.PhaseDone)
	}()

	workDir, err := p.makeWorkDir()
	if err != nil {
		return "", err
	}
	defer func() {
		if rerr := os.RemoveAll(workDir); rerr != nil {
			p.log.Warn().Err(rerr).Str("dir", workDir).Msg("removing working directory")
		}
	}()
	p.log.Debug().Str("dir", workDir).Msg("working directory created")

	staging := filepath.Join(workDir, stagingDir)
	if err := os.Mkdir(staging, 0o700); err != nil {
		return "", fmt.Errorf("creating staging directory: %w", err)
	}

	p.transition(count, types.PhaseConverting)
	for i, e := range entries {
		if err := p.convertEntry(e, workDir, staging); err != nil {
			return "", err
		}
		if p.onProgress != nil {
			p.onProgress(i+1, count, e)
		}
	}
	if err := os.RemoveAll(staging); err != nil {
		return "", fmt.Errorf("removing staging directory: %w", err)
	}

	p.transition(count, types.PhasePackaging)
	base := req.ArchiveBase
	if base == "" {
		base = DefaultArchiveBase(types.DefaultArchivePrefix, req.DestDir)
	}
	return p.pack(workDir, req.DestDir, base)
}

// convertEntry stages, converts and renames one document. The staged copy
// is removed before returning, whatever the outcome.
func (p *Pipeline) convertEntry(e types.Entry, workDir, staging string) error {
	staged := filepath.Join(staging, stagedName(e.ID, e.SourcePath))
	defer func() {
		if err := os.Remove(staged); err != nil && !errors.Is(err, fs.ErrNotExist) {
			p.log.Warn().Err(err).Str("file", staged).Msg("removing staged copy")
		}
	}()

	if err := copyFile(e.SourcePath, staged); err != nil {
		return fmt.Errorf("staging %s: %w", e.SourcePath, err)
	}

	if err := p.conv.Convert(staged, staging); err != nil {
		var perr *convert.ProcessError
		if errors.As(err, &perr) {
			p.log.Debug().Str("output", perr.Output).Msg("converter output")
		}
		return &ConversionError{Entry: e, Err: err}
	}

	produced := filepath.Join(staging, convert.OutputName(staged))
	if _, err := os.Stat(produced); err != nil {
		return &ConversionError{Entry: e, Err: fmt.Errorf("converter produced no %s: %w", filepath.Base(produced), err)}
	}

	final, err := resolveName(workDir, e.Stem)
	if err != nil {
		return err
	}
	if err := os.Rename(produced, final); err != nil {
		return fmt.Errorf("renaming %s: %w", filepath.Base(produced), err)
	}

	p.log.Info().Int("id", e.ID).Str("source", e.SourcePath).Str("pdf", filepath.Base(final)).Msg("converted")
	return nil
}

// pack zips workDir into destDir under base plus a generated suffix.
func (p *Pipeline) pack(workDir, destDir, base string) (string, error) {
	for attempt := 0; attempt < archiveAttempts; attempt++ {
		path := filepath.Join(destDir, p.archiveName(base))
		names, err := archive.ZipDir(workDir, path)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		p.log.Debug().Strs("files", names).Msg("archive written")
		return path, nil
	}
	return "", fmt.Errorf("no free archive name for %s in %s", base, destDir)
}

func (p *Pipeline) archiveName(base string) string {
	token := p.newToken()
	if len(token) > 4 {
		token = token[:4]
	}
	return base + "_" + token + ".zip"
}

func (p *Pipeline) makeWorkDir() (string, error) {
	if err := os.MkdirAll(p.workRoot, 0o755); err != nil {
		return "", fmt.Errorf("creating work root %s: %w", p.workRoot, err)
	}
	dir := filepath.Join(p.workRoot, workDirPrefix+p.newToken())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating working directory: %w", err)
	}
	return dir, nil
}

// begin claims the pipeline for a new run.
func (p *Pipeline) begin() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.phase.CanTransition(types.PhaseStaging) {
		return false
	}
	p.phase = types.PhaseStaging
	return true
}

func (p *Pipeline) transition(count int, next types.Phase) {
	p.mu.Lock()
	ok := p.phase.CanTransition(next)
	if ok {
		p.phase = next
	}
	p.mu.Unlock()

	if !ok {
		p.log.Warn().Str("phase", string(next)).Msg("ignoring invalid phase transition")
		return
	}
	p.emit(count, next)
}

func (p *Pipeline) emit(count int, phase types.Phase) {
	if p.onStatus != nil {
		p.onStatus(count, phase)
	}
}

// CheckDestination verifies that dir names an existing directory.
func CheckDestination(dir string) error {
	if dir == "" {
		return errors.New("no destination directory given")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("destination %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("destination %s is not a directory", dir)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
