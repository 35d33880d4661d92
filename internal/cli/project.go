package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/roach88/pansql/internal/compiler"
	"github.com/roach88/pansql/internal/config"
	"github.com/roach88/pansql/internal/diag"
	"github.com/roach88/pansql/internal/dictionary"
	"github.com/roach88/pansql/internal/store"
)

// Error codes for failures outside a script. Script diagnostics keep the
// compiler's own codes.
const (
	ErrCodeGeneric     = "C001" // unexpected error
	ErrCodeConfig      = "C002" // project file invalid
	ErrCodeNoScripts   = "C003" // patterns matched nothing
	ErrCodeCache       = "C004" // build cache unusable
	ErrCodeWriteFailed = "C005" // output could not be written
)

// Report is the outcome for one script.
type Report struct {
	File   string      `json:"file"`
	Script string      `json:"script,omitempty"`
	Output string      `json:"output,omitempty"`
	Cached bool        `json:"cached,omitempty"`
	Error  *Diagnostic `json:"error,omitempty"`
}

// Diagnostic is a compile error in a script. Internal marks a fault in
// the compiler rather than in the script.
type Diagnostic struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Line     int    `json:"line,omitempty"`
	Col      int    `json:"col,omitempty"`
	Internal bool   `json:"internal,omitempty"`
}

func diagnose(err error) *Diagnostic {
	code := string(diag.CodeOf(err))
	if code == "" {
		code = ErrCodeGeneric
	}
	pos := diag.Location(err)
	return &Diagnostic{
		Code:     code,
		Message:  diag.Message(err),
		Line:     pos.Line,
		Col:      pos.Col,
		Internal: diag.IsFatal(err),
	}
}

// project is a loaded project file with the compiler it configures.
type project struct {
	cfg      *config.Config
	compiler *compiler.Compiler
	cache    *store.Store
}

func openProject(opts *RootOptions, f *OutputFormatter, useCache bool) (*project, error) {
	cfg, err := config.Load(opts.Dir)
	if err != nil {
		return nil, outputError(f, ErrCodeConfig, err.Error())
	}
	reg, err := cfg.Registry()
	if err != nil {
		return nil, outputError(f, ErrCodeConfig, err.Error())
	}

	copts := compiler.Options{
		Loader:     dictionary.FileLoader{BasePath: cfg.Path(cfg.Dictionaries)},
		Connectors: reg,
	}
	if f.Verbose {
		copts.Trace = &lockedWriter{w: f.GetErrWriter()}
	}

	p := &project{cfg: cfg}
	if useCache && cfg.Cache != "" {
		path := cfg.Path(cfg.Cache)
		st, err := store.Open(path)
		if err != nil {
			return nil, outputError(f, ErrCodeCache, err.Error())
		}
		f.VerboseLog("Using build cache %s", path)
		p.cache = st
		copts.Cache = st
	}
	p.compiler = compiler.New(copts)
	return p, nil
}

func (p *project) Close() error {
	if p.cache == nil {
		return nil
	}
	return p.cache.Close()
}

// compile compiles the scripts matching patterns, or the project's script
// patterns when none are given.
func (p *project) compile(ctx context.Context, f *OutputFormatter, patterns []string) ([]compiler.FileResult, error) {
	if len(patterns) == 0 {
		patterns = p.cfg.Scripts
	}
	results, err := p.compiler.CompileFiles(ctx, p.cfg.Dir, patterns...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, outputError(f, ErrCodeNoScripts, err.Error())
	}
	for _, r := range results {
		f.VerboseLog("Compiled %s", r.Filename)
	}
	return results, nil
}

// report converts results, relative to the project directory.
func (p *project) report(results []compiler.FileResult) ([]Report, failures) {
	reports := make([]Report, len(results))
	var f failures
	for i, r := range results {
		rep := Report{File: p.rel(r.Filename), Cached: r.Cached}
		if r.Err != nil {
			rep.Error = diagnose(r.Err)
			f.count++
			if !diag.IsUserError(r.Err) {
				f.unexpected = true
			}
		} else {
			rep.Script = r.Script.Name
		}
		reports[i] = rep
	}
	return reports, f
}

// failures counts scripts that did not compile. unexpected is set when a
// failure is not a diagnostic about the script itself.
type failures struct {
	count      int
	unexpected bool
}

// exitCode is ExitCommandError when every failure is the script's fault.
func (f failures) exitCode() int {
	if f.unexpected {
		return ExitFailure
	}
	return ExitCommandError
}

func (p *project) rel(path string) string {
	if rel, err := filepath.Rel(p.cfg.Dir, path); err == nil {
		return rel
	}
	return path
}

// outputError reports a failure that stops the command.
func outputError(f *OutputFormatter, code, message string) error {
	_ = f.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputFailures reports the scripts that did not compile.
func outputFailures(f *OutputFormatter, reports []Report, failed failures) error {
	summary := fmt.Sprintf("%d of %d script(s) failed to compile", failed.count, len(reports))
	if f.Format == "json" {
		var first *Diagnostic
		for _, r := range reports {
			if r.Error != nil {
				first = r.Error
				break
			}
		}
		if err := f.encode(CLIResponse{
			Status: "error",
			Data:   reports,
			Error:  &CLIError{Code: first.Code, Message: summary},
		}); err != nil {
			return err
		}
		return NewExitError(failed.exitCode(), summary)
	}

	fmt.Fprintln(f.Writer, "✗ Compilation failed")
	fmt.Fprintln(f.Writer)
	for _, r := range reports {
		if r.Error == nil {
			continue
		}
		if r.Error.Line > 0 {
			fmt.Fprintf(f.Writer, "%s:%d:%d\n", r.File, r.Error.Line, r.Error.Col)
		} else {
			fmt.Fprintln(f.Writer, r.File)
		}
		if r.Error.Internal {
			fmt.Fprintf(f.Writer, "  internal compiler error %s: %s\n\n", r.Error.Code, r.Error.Message)
		} else {
			fmt.Fprintf(f.Writer, "  %s: %s\n\n", r.Error.Code, r.Error.Message)
		}
	}
	return NewExitError(failed.exitCode(), summary)
}
