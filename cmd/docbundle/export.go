// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pdiddy/docbundle/internal/events"
	"github.com/pdiddy/docbundle/internal/jobfile"
	"github.com/pdiddy/docbundle/internal/session"
	"github.com/pdiddy/docbundle/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export [documents...]",
	Short: "Convert documents to PDF and bundle them into one zip archive",
	Long: `Export imports the given documents (and those listed in --job), converts
each one to PDF and writes a single zip archive into the destination
directory. A document whose display name is already taken is skipped unless
you confirm it at the prompt or pass --allow-duplicates. If any conversion
fails, no archive is written.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringP("dest", "d", "", "directory receiving the archive (default: current directory)")
	exportCmd.Flags().StringP("name", "n", "", "archive base name (default: <prefix>_<dest dir name>)")
	exportCmd.Flags().String("job", "", "YAML job file listing documents and display names")
	exportCmd.Flags().Bool("allow-duplicates", false, "keep documents whose display name is already taken")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	dest, _ := cmd.Flags().GetString("dest")
	name, _ := cmd.Flags().GetString("name")
	jobPath, _ := cmd.Flags().GetString("job")
	allow, _ := cmd.Flags().GetBool("allow-duplicates")

	var docs []jobfile.Document
	if jobPath != "" {
		jf, err := jobfile.Read(jobPath)
		if err != nil {
			return err
		}
		docs = append(docs, jf.Documents...)
		if dest == "" {
			dest = jf.Destination
		}
		if name == "" {
			name = jf.Archive
		}
		allow = allow || jf.AllowDuplicates
	}
	for _, a := range args {
		docs = append(docs, jobfile.Document{Path: a})
	}
	if len(docs) == 0 {
		return fmt.Errorf("provide documents to export as arguments or with --job")
	}
	if dest == "" {
		dest = "."
	}

	bus := events.NewBus(256)
	sub := bus.Subscribe()
	sess, err := newSession(bus)
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	confirm := conflictPrompt(newLineReader(in), cmd.ErrOrStderr(), stdinInteractive(in), allow)
	if err := importDocuments(sess, docs, confirm); err != nil {
		return err
	}
	if sess.Count() == 0 {
		return fmt.Errorf("no documents left to export")
	}

	done, err := sess.StartExport(dest, name)
	if err != nil {
		return err
	}

	rendered := make(chan struct{})
	go func() {
		defer close(rendered)
		renderExport(cmd.ErrOrStderr(), sub, sess.Count())
	}()

	res := <-done
	bus.Close()
	<-rendered

	if res.Err != nil {
		return fmt.Errorf("%s: %w", session.FailureMessage(res.Err), res.Err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Archive created: %s\n", res.ArchivePath)
	return nil
}

// importDocuments adds docs one at a time, applying each document's display
// name right after it is imported.
func importDocuments(sess *session.Session, docs []jobfile.Document, confirm func(string) bool) error {
	for _, d := range docs {
		res, err := sess.Import([]string{d.Path}, confirm)
		if err != nil {
			return err
		}
		if d.Name == "" || len(res.Added) == 0 {
			continue
		}
		if _, err := sess.Rename(res.Added[0].ID, d.Name); err != nil {
			if errors.Is(err, session.ErrNameConflict) {
				return fmt.Errorf("renaming %s: %w; choose another name", d.Path, err)
			}
			return fmt.Errorf("renaming %s: %w", d.Path, err)
		}
	}
	return nil
}

// renderExport shows export progress on w until sub is closed: a progress
// bar on a terminal, one log line per event otherwise.
func renderExport(w io.Writer, sub <-chan events.Event, total int) {
	var bar *progressbar.ProgressBar
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("preparing"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
		)
	}

	for ev := range sub {
		switch e := ev.(type) {
		case *events.StatusEvent:
			if e.Phase == types.PhaseIdle {
				continue
			}
			if bar != nil {
				bar.Describe(e.Text())
				continue
			}
			logger.Info().Int("documents", e.Count).Str("phase", string(e.Phase)).Msg(e.Text())
		case *events.ProgressEvent:
			if bar != nil {
				_ = bar.Set(e.Done)
				continue
			}
			logger.Info().Int("done", e.Done).Int("total", e.Total).Str("document", e.Entry.FullName()).Msg("converted")
		case *events.ResultEvent:
			if bar != nil && e.Err == nil {
				_ = bar.Finish()
			}
		}
	}
}
