package types

// ConverterConfig holds settings for the external PDF converter.
type ConverterConfig struct {
	// Binary is the office-suite executable (e.g. "soffice"). When empty
	// the converter is detected on PATH.
	Binary string `json:"binary" yaml:"binary" mapstructure:"binary"`
}

// ExportConfig holds settings for the export pipeline.
type ExportConfig struct {
	// WorkDir is the parent of the per-run working directories
	// (default: the system temp directory).
	WorkDir string `json:"work_dir" yaml:"work_dir" mapstructure:"work_dir"`

	// ArchivePrefix is prepended to the destination directory name to form
	// the default archive base name (default "Export_PDFs").
	ArchivePrefix string `json:"archive_prefix" yaml:"archive_prefix" mapstructure:"archive_prefix"`
}

// ImportConfig holds settings for document import.
type ImportConfig struct {
	// Extensions is the allow-list of importable extensions, dot included.
	Extensions []string `json:"extensions" yaml:"extensions" mapstructure:"extensions"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is a zerolog level name: debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format selects "console" or "json" output. Empty picks console on a
	// terminal and json otherwise.
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all settings for docbundle.
type Config struct {
	Converter ConverterConfig `json:"converter" yaml:"converter" mapstructure:"converter"`
	Export    ExportConfig    `json:"export" yaml:"export" mapstructure:"export"`
	Import    ImportConfig    `json:"import" yaml:"import" mapstructure:"import"`
	Log       LogConfig       `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultExtensions lists the editable document formats accepted on import.
var DefaultExtensions = []string{".doc", ".docx", ".odt"}

// DefaultArchivePrefix is the archive base prefix used when none is configured.
const DefaultArchivePrefix = "Export_PDFs"

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() Config {
	return Config{
		Export: ExportConfig{ArchivePrefix: DefaultArchivePrefix},
		Import: ImportConfig{Extensions: append([]string(nil), DefaultExtensions...)},
		Log:    LogConfig{Level: "info"},
	}
}
