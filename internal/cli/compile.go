package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/pansql/internal/compiler"
)

// Files written for each compiled script.
const (
	MainFile       = "main.go"
	ProjectFile    = "go.mod"
	ConnectorsFile = "connectors.yaml"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output  string // overrides the project's output directory
	NoCache bool
	Keep    int // cache entries kept per script
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [script-pattern...]",
		Short: "Compile PanSQL scripts to Go programs",
		Long: `Compile PanSQL scripts to Go programs.

Patterns are globs relative to the project directory. Without patterns the
project file's scripts setting is used. Each script is written to
<output>/<script>/ as main.go, go.mod and connectors.yaml. Scripts that
compile are written even when others fail.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output directory (default from pansql.cue)")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "ignore the build cache")
	cmd.Flags().IntVar(&opts.Keep, "keep", 3, "build cache entries kept per script")

	return cmd
}

func runCompile(ctx context.Context, opts *CompileOptions, patterns []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	p, err := openProject(opts.RootOptions, formatter, !opts.NoCache)
	if err != nil {
		return err
	}
	defer p.Close()

	results, err := p.compile(ctx, formatter, patterns)
	if err != nil {
		return err
	}

	outDir := p.cfg.Path(p.cfg.Output)
	if opts.Output != "" {
		outDir = opts.Output
	}

	reports, failed := p.report(results)
	for i, r := range results {
		if r.Err != nil {
			continue
		}
		dir, err := writeScript(outDir, r.Script)
		if err != nil {
			return outputError(formatter, ErrCodeWriteFailed, err.Error())
		}
		reports[i].Output = dir
		formatter.VerboseLog("Wrote %s", dir)

		if p.cache != nil {
			n, err := p.cache.Prune(ctx, r.Script.Name, opts.Keep)
			if err != nil {
				return outputError(formatter, ErrCodeCache, err.Error())
			}
			if n > 0 {
				formatter.VerboseLog("Pruned %d cache entries of %s", n, r.Script.Name)
			}
		}
	}

	if failed.count > 0 {
		return outputFailures(formatter, reports, failed)
	}
	return outputCompileSuccess(formatter, reports)
}

// writeScript writes a compiled script into its own directory under dir.
func writeScript(dir string, script *compiler.Script) (string, error) {
	target := filepath.Join(dir, script.Name)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", target, err)
	}
	files := []struct {
		name, content string
	}{
		{MainFile, script.Code},
		{ProjectFile, script.ProjectFile},
		{ConnectorsFile, script.Connectors},
	}
	for _, f := range files {
		path := filepath.Join(target, f.name)
		if err := os.WriteFile(path, []byte(f.content), 0o644); err != nil {
			return "", fmt.Errorf("write %s: %w", path, err)
		}
	}
	return target, nil
}

func outputCompileSuccess(f *OutputFormatter, reports []Report) error {
	if f.Format == "json" {
		return f.Success(reports)
	}

	fmt.Fprintf(f.Writer, "✓ Compiled %d script(s)\n\n", len(reports))
	for _, r := range reports {
		suffix := ""
		if r.Cached {
			suffix = " (cached)"
		}
		fmt.Fprintf(f.Writer, "  %s → %s%s\n", r.File, r.Output, suffix)
	}
	return nil
}
