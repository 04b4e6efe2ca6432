// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the docbundle CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docbundle/internal/convert"
	"github.com/pdiddy/docbundle/internal/events"
	"github.com/pdiddy/docbundle/internal/logging"
	"github.com/pdiddy/docbundle/internal/session"
	"github.com/pdiddy/docbundle/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg holds the configuration resolved before any subcommand runs.
	cfg types.Config

	// logger is the structured logger built from cfg.Log.
	logger = zerolog.Nop()
)

// rootCmd is the base command for the docbundle CLI.
var rootCmd = &cobra.Command{
	Use:   "docbundle",
	Short: "Convert office documents to PDF and bundle them into a zip archive",
	Long: `docbundle imports editable documents (.doc, .docx, .odt), lets you rename
them, converts each one to PDF with a headless LibreOffice and packages the
PDFs into a single zip archive.

Use "export" for one-shot batch runs (optionally driven by a YAML job file)
and "shell" for an interactive session.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = c

		l, err := logging.New(cfg.Log, os.Stderr)
		if err != nil {
			return err
		}
		logger = l
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug().Str("file", f).Msg("using config file")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./docbundle.yaml or ~/.config/docbundle/config.yaml)")
	rootCmd.PersistentFlags().String("converter", "", "office converter binary (default: soffice or libreoffice on PATH)")
	rootCmd.PersistentFlags().String("work-dir", "", "parent directory for temporary export directories")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: console or json")

	viper.BindPFlag("converter.binary", rootCmd.PersistentFlags().Lookup("converter"))
	viper.BindPFlag("export.work_dir", rootCmd.PersistentFlags().Lookup("work-dir"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("docbundle")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "docbundle"))
		}
	}

	defaults := types.DefaultConfig()
	viper.SetDefault("export.archive_prefix", defaults.Export.ArchivePrefix)
	viper.SetDefault("import.extensions", defaults.Import.Extensions)
	viper.SetDefault("log.level", defaults.Log.Level)

	viper.SetEnvPrefix("DOCBUNDLE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && cfgFile != "" {
			fmt.Fprintln(os.Stderr, "warning: reading config:", err)
		}
	}
}

// loadConfig resolves the configuration from defaults, config file,
// environment and flags.
func loadConfig() (types.Config, error) {
	c := types.DefaultConfig()
	if err := viper.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decoding configuration: %w", err)
	}
	return c, nil
}

// newSession builds a session backed by the configured office converter.
func newSession(bus *events.Bus) (*session.Session, error) {
	conv, err := convert.NewOfficeConverter(cfg.Converter.Binary)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("converter", conv.Binary()).Msg("converter ready")

	return session.New(session.Options{
		Converter:     conv,
		WorkRoot:      cfg.Export.WorkDir,
		Extensions:    cfg.Import.Extensions,
		ArchivePrefix: cfg.Export.ArchivePrefix,
		Logger:        &logger,
		Bus:           bus,
	}), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
