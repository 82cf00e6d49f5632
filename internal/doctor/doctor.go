// Package doctor implements the one-shot diagnostic command: it validates
// one runbook or every runbook of a workspace and renders the result.
package doctor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"runedoc/internal/manifest"
	"runedoc/internal/validation"
	"runedoc/internal/workspace"
)

var log = commonlog.GetLogger("doctor")

// ErrIssuesFound is returned when at least one error-level issue exists.
// Warnings and suggestions alone do not fail the run.
var ErrIssuesFound = fmt.Errorf("doctor found errors")

// Run executes the doctor command and renders results to out. It returns
// ErrIssuesFound when any runbook has errors.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if cfg.RunbookName != "" {
		return runOne(ctx, cfg, out)
	}
	return runAll(ctx, cfg, out)
}

func runOne(ctx context.Context, cfg Config, out io.Writer) error {
	// A direct .tx path works without any manifest: single-file mode.
	if strings.HasSuffix(cfg.RunbookName, ".tx") {
		if _, err := os.Stat(cfg.RunbookName); err == nil {
			m, env := loadManifestContext(cfg, cfg.RunbookName)
			result, err := checkRunbook(ctx, cfg, cfg.RunbookName, m, env)
			if err != nil {
				return err
			}
			Render(out, result, cfg.Format)
			if result.HasErrors() {
				return ErrIssuesFound
			}
			return nil
		}
	}

	m, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		return fmt.Errorf("failed to load manifest %s: %w", cfg.ManifestPath, err)
	}
	meta, ok := m.FindRunbook(cfg.RunbookName)
	if !ok {
		return fmt.Errorf("runbook %q not found in manifest", cfg.RunbookName)
	}

	result, err := checkRunbook(ctx, cfg, m.RunbookPath(meta), m, cfg.Environment)
	if err != nil {
		return err
	}
	Render(out, result, cfg.Format)
	if result.HasErrors() {
		return ErrIssuesFound
	}
	return nil
}

func runAll(ctx context.Context, cfg Config, out io.Writer) error {
	m, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		return fmt.Errorf("failed to load manifest %s: %w", cfg.ManifestPath, err)
	}
	if cfg.Verbose() {
		for _, warning := range m.Warnings {
			fmt.Fprintf(out, "manifest: %s\n", warning)
		}
	}
	if len(m.Runbooks) == 0 {
		if cfg.Verbose() {
			fmt.Fprintln(out, "No runbooks found in manifest.")
		}
		return nil
	}

	// Each goroutine writes its own slot; rendering happens after Wait.
	results := make([]*validation.Result, len(m.Runbooks))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.NumCPU())
	for i, meta := range m.Runbooks {
		path := m.RunbookPath(meta)
		group.Go(func() error {
			result, err := checkRunbook(groupCtx, cfg, path, m, cfg.Environment)
			if err != nil {
				// A runbook that cannot be read fails alone; the rest of
				// the workspace is still checked and rendered.
				result = validation.NewResult()
				result.Errors = append(result.Errors, validation.Issue{
					File:    path,
					Level:   "error",
					Message: err.Error(),
				})
			}
			results[i] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	// Render in manifest order regardless of completion order.
	anyErrors := false
	for i, meta := range m.Runbooks {
		if cfg.Verbose() {
			fmt.Fprintf(out, "Checking runbook '%s'...\n", meta.Name)
		}
		Render(out, results[i], cfg.Format)
		if cfg.Verbose() {
			fmt.Fprintln(out)
		}
		if results[i].HasErrors() {
			anyErrors = true
		}
	}
	if anyErrors {
		return ErrIssuesFound
	}
	return nil
}

// loadManifestContext resolves the manifest and environment for a direct
// file path. Missing manifests are fine: validation degrades to
// single-file mode.
func loadManifestContext(cfg Config, runbookPath string) (*manifest.WorkspaceManifest, string) {
	manifestPath := cfg.ManifestPath
	if _, err := os.Stat(manifestPath); err != nil {
		abs, absErr := filepath.Abs(runbookPath)
		if absErr != nil {
			abs = runbookPath
		}
		manifestPath = manifest.FindManifest(filepath.Dir(abs))
	}
	if manifestPath == "" {
		return nil, cfg.Environment
	}

	m, err := manifest.Load(manifestPath)
	if err != nil {
		log.Errorf("manifest %s failed to load, validating without it: %s", manifestPath, err)
		return nil, cfg.Environment
	}

	env := cfg.Environment
	if env == "" {
		env = workspace.EnvironmentFromFilename(filepath.Base(runbookPath))
	}
	return m, env
}

func checkRunbook(ctx context.Context, cfg Config, path string, m *manifest.WorkspaceManifest, env string) (*validation.Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read runbook %s: %w", path, err)
	}

	if env == "" {
		env = workspace.EnvironmentFromFilename(filepath.Base(path))
	}

	validator := validation.ForEnvironment(env)
	return validator.ValidateDocument(ctx, string(content), path, m, env, cfg.CLIInputs), nil
}

// Environments lists the environment names visible from the manifest at
// manifestPath, for shell completion and usage text.
func Environments(manifestPath string) []string {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return nil
	}
	names := m.EnvironmentNames()
	sort.Strings(names)
	return names
}
