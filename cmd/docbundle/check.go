package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/docbundle/internal/convert"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that an office converter is available",
	Long: `Check looks for the configured converter binary, or for soffice and
libreoffice on PATH, and prints the command line an export would run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		conv, err := convert.NewOfficeConverter(cfg.Converter.Binary)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "converter: %s\n", conv.Binary())
		fmt.Fprintf(cmd.OutOrStdout(), "command:   %s %s\n", conv.Binary(), strings.Join(convert.Args("<document>", "<outdir>"), " "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
