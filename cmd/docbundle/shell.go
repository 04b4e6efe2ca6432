// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/pdiddy/docbundle/internal/events"
	"github.com/pdiddy/docbundle/internal/export"
	"github.com/pdiddy/docbundle/internal/session"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Build a document list interactively and export it",
	Long: `Shell starts an interactive session. Import documents with "add", rename
them with "rename", then "export" to a directory. The export runs in the
background; status lines are printed as it progresses and the commands that
change the list are disabled until it finishes. Type "help" for commands.`,
	RunE: runShell,
}

func init() {
	shellCmd.Flags().Bool("allow-duplicates", false, "keep documents whose display name is already taken without asking")
	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, args []string) error {
	allow, _ := cmd.Flags().GetBool("allow-duplicates")

	bus := events.NewBus(256)
	sess, err := newSession(bus)
	if err != nil {
		return err
	}
	in := cmd.InOrStdin()
	sh := newShell(sess, in, cmd.OutOrStdout(), stdinInteractive(in), allow)
	return sh.run()
}

const shellHelp = `commands:
  add <file>...            import documents (quote paths with spaces)
  list                     show imported documents
  rename <id> <new name>   change a document's display name
  reset                    clear the list
  export <dir> [name]      convert and bundle into <dir> in the background
  status                   show the current state
  wait                     block until a running export finishes
  help                     show this text
  quit                     leave (waits for a running export)
`

// shell is the interactive front end of a session. Rendering happens here;
// the session only publishes events.
type shell struct {
	sess    *session.Session
	in      *lineReader
	out     *syncWriter
	confirm func(string) bool

	mu      sync.Mutex
	pending <-chan session.Result
	status  string
	enabled bool
	printed sync.WaitGroup
}

func newShell(sess *session.Session, in io.Reader, out io.Writer, interactive, allow bool) *shell {
	w := &syncWriter{w: out}
	r := newLineReader(in)
	return &shell{
		sess:    sess,
		in:      r,
		out:     w,
		confirm: conflictPrompt(r, w, interactive, allow),
		status:  "ready",
		enabled: true,
	}
}

func (s *shell) run() error {
	sub := s.sess.Bus().Subscribe()
	s.printed.Add(1)
	go s.watch(sub)
	defer func() {
		s.sess.Bus().Close()
		s.printed.Wait()
	}()

	s.out.Printf("docbundle %s - type \"help\" for commands\n", version)
	for {
		s.out.Printf("> ")
		line, ok := s.in.ReadLine()
		if !ok {
			s.out.Printf("\n")
			s.waitExport()
			return nil
		}
		quit, err := s.exec(line)
		if err != nil {
			s.out.Printf("error: %v\n", err)
		}
		if quit {
			s.waitExport()
			return nil
		}
	}
}

// exec runs one command line. It reports whether the shell should exit.
func (s *shell) exec(line string) (bool, error) {
	args, err := splitArgs(line)
	if err != nil {
		return false, err
	}
	if len(args) == 0 {
		return false, nil
	}

	switch args[0] {
	case "add":
		return false, s.add(args[1:])
	case "list", "ls":
		s.list()
	case "rename":
		return false, s.rename(args[1:])
	case "reset":
		if err := s.sess.Reset(); err != nil {
			return false, err
		}
		s.out.Printf("list cleared\n")
	case "export":
		return false, s.export(args[1:])
	case "status":
		s.printStatus()
	case "wait":
		s.waitExport()
	case "help", "?":
		s.out.Printf("%s", shellHelp)
	case "quit", "exit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q (try \"help\")", args[0])
	}
	return false, nil
}

func (s *shell) add(paths []string) error {
	if len(paths) == 0 {
		return errors.New("usage: add <file>...")
	}
	res, err := s.sess.Import(paths, s.confirm)
	if err != nil {
		return err
	}
	for _, e := range res.Added {
		s.out.Printf("added %s\n", e)
	}
	if len(res.Added) == 0 {
		s.out.Printf("no new documents added; the selected files were already in the list\n")
	}
	return nil
}

func (s *shell) list() {
	entries := s.sess.Entries()
	if len(entries) == 0 {
		s.out.Printf("no documents\n")
		return
	}
	for _, e := range entries {
		s.out.Printf("%4d  %-40s  %s\n", e.ID, e.FullName(), e.SourcePath)
	}
}

func (s *shell) rename(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: rename <id> <new name>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid id %q", args[0])
	}
	e, err := s.sess.Rename(id, strings.Join(args[1:], " "))
	switch {
	case errors.Is(err, session.ErrNameConflict):
		return fmt.Errorf("%w; rename cancelled", err)
	case err != nil:
		return err
	}
	s.out.Printf("renamed to %s\n", e)
	return nil
}

func (s *shell) export(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: export <dir> [name]")
	}
	base := ""
	if len(args) == 2 {
		base = args[1]
	}
	done, err := s.sess.StartExport(args[0], base)
	if errors.Is(err, export.ErrEmptyCatalog) {
		return errors.New("import documents before exporting")
	}
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.pending = done
	s.mu.Unlock()
	s.out.Printf("export started\n")
	return nil
}

// waitExport blocks until a running export delivers its result.
func (s *shell) waitExport() {
	s.mu.Lock()
	done := s.pending
	s.pending = nil
	s.mu.Unlock()
	if done == nil {
		return
	}
	if s.sess.Busy() {
		s.out.Printf("waiting for the export to finish...\n")
	}
	<-done
}

func (s *shell) printStatus() {
	s.mu.Lock()
	status, enabled := s.status, s.enabled
	s.mu.Unlock()

	controls := "enabled"
	if !enabled {
		controls = "disabled"
	}
	s.out.Printf("%d document(s) - %s (controls %s)\n", s.sess.Count(), status, controls)
}

// watch prints session events until the bus is closed.
func (s *shell) watch(sub <-chan events.Event) {
	defer s.printed.Done()
	for ev := range sub {
		switch e := ev.(type) {
		case *events.StatusEvent:
			s.mu.Lock()
			s.status = e.Text()
			s.mu.Unlock()
			if e.Phase.Active() {
				s.out.Printf("[%d] %s\n", e.Count, e.Text())
			}
		case *events.ControlsEvent:
			s.mu.Lock()
			s.enabled = e.Enabled
			s.mu.Unlock()
		case *events.ProgressEvent:
			s.out.Printf("[%d/%d] %s converted\n", e.Done, e.Total, e.Entry.FullName())
		case *events.ResultEvent:
			if e.Err != nil {
				s.out.Printf("%s: %v\n", session.FailureMessage(e.Err), e.Err)
				continue
			}
			s.out.Printf("export finished: %s\n", e.ArchivePath)
		}
	}
}

// syncWriter serializes writes from the command loop and the event watcher.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}

func (w *syncWriter) Printf(format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}

// splitArgs splits a command line on whitespace, keeping double-quoted
// sections together.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inQuote bool
		hasTok  bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			hasTok = true
		case (r == ' ' || r == '\t') && !inQuote:
			if hasTok {
				args = append(args, cur.String())
				cur.Reset()
				hasTok = false
			}
		default:
			cur.WriteRune(r)
			hasTok = true
		}
	}
	if inQuote {
		return nil, errors.New("unterminated quote")
	}
	if hasTok {
		args = append(args, cur.String())
	}
	return args, nil
}
