package doctor

import (
	"fmt"
	"strings"

	"runedoc/internal/manifest"
)

// OutputFormat selects how results are rendered.
type OutputFormat string

const (
	FormatTerminal OutputFormat = "terminal"
	FormatJSON     OutputFormat = "json"
	FormatQuickfix OutputFormat = "quickfix"
)

// Config is the resolved doctor invocation.
type Config struct {
	ManifestPath string
	RunbookName  string
	Environment  string
	CLIInputs    []manifest.CLIInput
	Format       OutputFormat
}

// NewConfig fills defaults and validates the output format.
func NewConfig(manifestPath, runbookName, environment string, rawInputs []string, format string) (Config, error) {
	cfg := Config{
		ManifestPath: manifestPath,
		RunbookName:  runbookName,
		Environment:  environment,
		Format:       OutputFormat(format),
	}
	if cfg.ManifestPath == "" {
		cfg.ManifestPath = manifest.DefaultFilenames[0]
	}
	if cfg.Format == "" {
		cfg.Format = FormatTerminal
	}
	switch cfg.Format {
	case FormatTerminal, FormatJSON, FormatQuickfix:
	default:
		return Config{}, fmt.Errorf("unknown output format %q", format)
	}

	inputs, err := ParseCLIInputs(rawInputs)
	if err != nil {
		return Config{}, err
	}
	cfg.CLIInputs = inputs
	return cfg, nil
}

// ParseCLIInputs parses repeated --input key=value flags.
func ParseCLIInputs(raw []string) ([]manifest.CLIInput, error) {
	var inputs []manifest.CLIInput
	for _, entry := range raw {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid input %q, expected key=value", entry)
		}
		inputs = append(inputs, manifest.CLIInput{Key: key, Value: value})
	}
	return inputs, nil
}

// Verbose reports whether progress text may be printed alongside results.
// Structured formats must stay machine-readable.
func (c Config) Verbose() bool {
	return c.Format == FormatTerminal
}
