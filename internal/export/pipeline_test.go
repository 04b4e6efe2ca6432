// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docbundle/internal/catalog"
	"github.com/pdiddy/docbundle/pkg/types"
)

// fakeConverter writes "<stem>.pdf" next to the input, embedding the input
// contents. Inputs whose base name contains a key of failOn fail.
type fakeConverter struct {
	mu     sync.Mutex
	failOn map[string]error
	calls  []string
}

func (f *fakeConverter) Convert(inputPath, outDir string) error {
	f.mu.Lock()
	f.calls = append(f.calls, filepath.Base(inputPath))
	f.mu.Unlock()

	for key, err := range f.failOn {
		if strings.Contains(filepath.Base(inputPath), key) {
			return err
		}
	}
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}
	base := filepath.Base(inputPath)
	out := filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base))+".pdf")
	return os.WriteFile(out, append([]byte("%PDF "), data...), 0o644)
}

// silentConverter exits successfully without producing anything.
type silentConverter struct{}

func (silentConverter) Convert(string, string) error { return nil }

type statusLog struct {
	mu     sync.Mutex
	phases []types.Phase
	counts []int
}

func (s *statusLog) record(count int, phase types.Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phases = append(s.phases, phase)
	s.counts = append(s.counts, count)
}

// writeDoc creates a source document and returns its absolute path.
func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readZip(t *testing.T, path string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	out := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		out[f.Name] = string(data)
	}
	return out
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

type fixture struct {
	cat      *catalog.Catalog
	conv     *fakeConverter
	status   *statusLog
	pipeline *Pipeline
	workRoot string
	dest     string
	src      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		cat:      catalog.New(),
		conv:     &fakeConverter{},
		status:   &statusLog{},
		workRoot: t.TempDir(),
		dest:     t.TempDir(),
		src:      t.TempDir(),
	}
	f.pipeline = New(Options{
		Converter: f.conv,
		WorkRoot:  f.workRoot,
		OnStatus:  f.status.record,
	})
	return f
}

func TestExport_DuplicateDisplayNames(t *testing.T) {
	f := newFixture(t)
	first := writeDoc(t, filepath.Join(f.src, "a"), "report.docx", "from a")
	second := writeDoc(t, filepath.Join(f.src, "b"), "report.docx", "from b")

	e1, ok := f.cat.Add(first, "report", ".docx", nil)
	require.True(t, ok)
	e2, ok := f.cat.Add(second, "report", ".docx", func(string) bool { return true })
	require.True(t, ok)
	assert.Equal(t, 1, e1.ID)
	assert.Equal(t, 2, e2.ID)

	path, err := f.pipeline.Export(f.cat, Request{DestDir: f.dest, ArchiveBase: "bundle"})
	require.NoError(t, err)

	assert.Equal(t, f.dest, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "bundle_"))
	assert.Equal(t, ".zip", filepath.Ext(path))

	got := readZip(t, path)
	assert.Equal(t, map[string]string{
		"report.pdf":   "%PDF from a",
		"report_1.pdf": "%PDF from b",
	}, got)

	assert.Equal(t, []string{"1_report.docx", "2_report.docx"}, f.conv.calls)
	assert.Empty(t, dirNames(t, f.workRoot), "working directory must be removed")
	assert.Equal(t, []types.Phase{
		types.PhaseStaging, types.PhaseConverting, types.PhasePackaging, types.PhaseDone,
	}, f.status.phases)
	assert.Equal(t, []int{2, 2, 2, 2}, f.status.counts)
	assert.Equal(t, types.PhaseDone, f.pipeline.Phase())
}

func TestExport_RenamedEntries(t *testing.T) {
	f := newFixture(t)
	a := writeDoc(t, f.src, "draft.odt", "A")
	b := writeDoc(t, f.src, "final.doc", "B")

	e, _ := f.cat.Add(a, "draft", ".odt", nil)
	f.cat.Add(b, "final", ".doc", nil)
	_, ok := f.cat.Rename(e.ID, "minutes 2026")
	require.True(t, ok)

	path, err := f.pipeline.Export(f.cat, Request{DestDir: f.dest, ArchiveBase: "out"})
	require.NoError(t, err)

	got := readZip(t, path)
	assert.Equal(t, map[string]string{
		"minutes 2026.pdf": "%PDF A",
		"final.pdf":        "%PDF B",
	}, got)
}

func TestExport_SameBaseNameDifferentDirectories(t *testing.T) {
	f := newFixture(t)
	a := writeDoc(t, filepath.Join(f.src, "x"), "notes.docx", "x")
	b := writeDoc(t, filepath.Join(f.src, "y"), "notes.docx", "y")

	f.cat.Add(a, "notes", ".docx", nil)
	e, ok := f.cat.Add(b, "notes-y", ".docx", nil)
	require.True(t, ok)
	assert.Equal(t, 2, e.ID)

	path, err := f.pipeline.Export(f.cat, Request{DestDir: f.dest, ArchiveBase: "out"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"notes.pdf": "%PDF x", "notes-y.pdf": "%PDF y"}, readZip(t, path))
}

func TestExport_EmptyCatalog(t *testing.T) {
	f := newFixture(t)

	_, err := f.pipeline.Export(f.cat, Request{DestDir: f.dest})
	require.ErrorIs(t, err, ErrEmptyCatalog)

	assert.Empty(t, dirNames(t, f.workRoot), "no working directory may be created")
	assert.Empty(t, f.status.phases)
	assert.Equal(t, types.PhaseIdle, f.pipeline.Phase())
}

func TestExport_InvalidDestination(t *testing.T) {
	f := newFixture(t)
	f.cat.Add(writeDoc(t, f.src, "a.docx", "a"), "a", ".docx", nil)
	notDir := writeDoc(t, f.src, "file.txt", "x")

	for _, dest := range []string{"", filepath.Join(f.src, "missing"), notDir} {
		_, err := f.pipeline.Export(f.cat, Request{DestDir: dest})
		assert.Error(t, err, "dest %q", dest)
	}
	assert.Empty(t, dirNames(t, f.workRoot))
	assert.Empty(t, f.conv.calls)
}

func TestExport_ConversionFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.conv.failOn = map[string]error{"second": errors.New("exit status 1")}
	for _, name := range []string{"first", "second", "third"} {
		f.cat.Add(writeDoc(t, f.src, name+".docx", name), name, ".docx", nil)
	}
	before := f.cat.Entries()

	_, err := f.pipeline.Export(f.cat, Request{DestDir: f.dest, ArchiveBase: "out"})
	require.Error(t, err)
	assert.True(t, IsConversionFailure(err))

	var cerr *ConversionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 2, cerr.Entry.ID)

	assert.Equal(t, []string{"1_first.docx", "2_second.docx"}, f.conv.calls, "third document is never attempted")
	assert.Empty(t, dirNames(t, f.dest), "no archive is produced")
	assert.Empty(t, dirNames(t, f.workRoot), "working directory is removed")
	assert.Equal(t, before, f.cat.Entries(), "catalog is untouched")
	assert.Equal(t, types.PhaseFailed, f.status.phases[len(f.status.phases)-1])
	assert.NotContains(t, f.status.phases, types.PhasePackaging)
}

func TestExport_MissingOutputIsConversionFailure(t *testing.T) {
	f := newFixture(t)
	f.pipeline = New(Options{Converter: silentConverter{}, WorkRoot: f.workRoot})
	f.cat.Add(writeDoc(t, f.src, "a.docx", "a"), "a", ".docx", nil)

	_, err := f.pipeline.Export(f.cat, Request{DestDir: f.dest})
	require.Error(t, err)
	assert.True(t, IsConversionFailure(err))
	assert.Empty(t, dirNames(t, f.workRoot))
}

func TestExport_StagingFailureIsUnexpected(t *testing.T) {
	f := newFixture(t)
	path := writeDoc(t, f.src, "gone.docx", "x")
	f.cat.Add(path, "gone", ".docx", nil)
	require.NoError(t, os.Remove(path))

	_, err := f.pipeline.Export(f.cat, Request{DestDir: f.dest})
	require.Error(t, err)
	assert.False(t, IsConversionFailure(err))
	assert.Empty(t, f.conv.calls)
	assert.Empty(t, dirNames(t, f.workRoot))
	assert.Equal(t, types.PhaseFailed, f.pipeline.Phase())
}

func TestExport_RunsAgainAfterFailure(t *testing.T) {
	f := newFixture(t)
	f.conv.failOn = map[string]error{"a": errors.New("boom")}
	f.cat.Add(writeDoc(t, f.src, "a.docx", "a"), "a", ".docx", nil)

	_, err := f.pipeline.Export(f.cat, Request{DestDir: f.dest})
	require.Error(t, err)

	f.conv.failOn = nil
	path, err := f.pipeline.Export(f.cat, Request{DestDir: f.dest})
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestExport_Progress(t *testing.T) {
	f := newFixture(t)
	var done []int
	f.pipeline = New(Options{
		Converter:  f.conv,
		WorkRoot:   f.workRoot,
		OnProgress: func(n, total int, _ types.Entry) { done = append(done, n*10+total) },
	})
	f.cat.Add(writeDoc(t, f.src, "a.docx", "a"), "a", ".docx", nil)
	f.cat.Add(writeDoc(t, f.src, "b.docx", "b"), "b", ".docx", nil)

	_, err := f.pipeline.Export(f.cat, Request{DestDir: f.dest})
	require.NoError(t, err)
	assert.Equal(t, []int{12, 22}, done)
}

func TestExport_ArchiveNameCollision(t *testing.T) {
	f := newFixture(t)
	tokens := []string{"workdir-token", "aaaa0000", "bbbb1111"}
	f.pipeline.newToken = func() string {
		tok := tokens[0]
		tokens = tokens[1:]
		return tok
	}
	require.NoError(t, os.WriteFile(filepath.Join(f.dest, "out_aaaa.zip"), []byte("old"), 0o644))
	f.cat.Add(writeDoc(t, f.src, "a.docx", "a"), "a", ".docx", nil)

	path, err := f.pipeline.Export(f.cat, Request{DestDir: f.dest, ArchiveBase: "out"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.dest, "out_bbbb.zip"), path)

	old, err := os.ReadFile(filepath.Join(f.dest, "out_aaaa.zip"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(old))
}

func TestExport_DefaultArchiveBase(t *testing.T) {
	f := newFixture(t)
	f.cat.Add(writeDoc(t, f.src, "a.docx", "a"), "a", ".docx", nil)

	path, err := f.pipeline.Export(f.cat, Request{DestDir: f.dest})
	require.NoError(t, err)
	want := types.DefaultArchivePrefix + "_" + filepath.Base(f.dest) + "_"
	assert.True(t, strings.HasPrefix(filepath.Base(path), want), "got %s", filepath.Base(path))
}
