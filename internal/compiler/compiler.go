// Package compiler is the entry point of the PanSQL compiler: it parses a
// script, runs the compile steps over it and returns the generated Go
// program.
//
// Diagnostics about the script come back as *diag.CompilerError or
// *diag.SyntaxError; faults in the compiler itself as *diag.BuildError.
package compiler

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/pansql/internal/codegen"
	"github.com/roach88/pansql/internal/connectors"
	"github.com/roach88/pansql/internal/dictionary"
	"github.com/roach88/pansql/internal/parser"
	"github.com/roach88/pansql/internal/pipeline"
	"github.com/roach88/pansql/internal/steps"
)

// Script is a compiled script: the Go program, its go.mod and the
// manifest of connections it opens.
type Script = codegen.Script

// Options customises a Compiler. Zero fields take the defaults: files
// relative to the script's base path, the built-in connector catalogue
// and UUIDv7 build IDs.
type Options struct {
	Loader     dictionary.Loader
	Connectors *connectors.Registry
	BuildIDs   codegen.BuildIDGenerator
	// Cache, when set, is consulted by CompileFiles.
	Cache Cache
	// Trace receives one line per compile step.
	Trace io.Writer
}

// Compiler compiles scripts with fixed options. It is safe for concurrent
// use as long as the configured loader and trace writer are.
type Compiler struct {
	opts Options
}

// New returns a compiler using opts.
func New(opts Options) *Compiler {
	return &Compiler{opts: opts}
}

// Compile compiles script text with default options.
func Compile(name, text, basePath string) (*Script, error) {
	return New(Options{}).Compile(name, text, basePath)
}

// CompileFile compiles one script file with default options.
func CompileFile(filename, basePath string) (*Script, error) {
	return New(Options{}).CompileFile(filename, basePath)
}

// CompileFiles compiles every script matching patterns with default
// options.
func CompileFiles(ctx context.Context, basePath string, patterns ...string) ([]FileResult, error) {
	return New(Options{}).CompileFiles(ctx, basePath, patterns...)
}

// Compile parses text and runs the compile steps. name becomes the
// program's script name; basePath anchors dictionary files.
func (c *Compiler) Compile(name, text, basePath string) (*Script, error) {
	file, err := parser.Parse(text)
	if err != nil {
		return nil, err
	}

	pctx, err := pipeline.NewContext(name, basePath)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	if c.opts.Loader != nil {
		pctx.Dictionaries = c.opts.Loader
	}
	if c.opts.Connectors != nil {
		pctx.Connectors = c.opts.Connectors
	}
	if c.opts.BuildIDs != nil {
		pctx.BuildIDs = c.opts.BuildIDs
	}
	if c.opts.Trace != nil {
		pctx.Trace = c.opts.Trace
	}

	plan, err := pipeline.Build(steps.Terminal())
	if err != nil {
		return nil, err
	}
	return plan.Process(pctx, file)
}

// CompileFile reads and compiles a script file. A relative filename is
// taken from basePath. The script is named after the file.
func (c *Compiler) CompileFile(filename, basePath string) (*Script, error) {
	text, err := readScript(filename, basePath)
	if err != nil {
		return nil, err
	}
	return c.Compile(ScriptName(filename), text, basePath)
}

func readScript(filename, basePath string) (string, error) {
	path := filename
	if !filepath.IsAbs(path) {
		path = filepath.Join(basePath, filename)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	return string(data), nil
}

// ScriptName is the name a script file compiles under: its base name
// without extension.
func ScriptName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FileResult is the outcome for one file of CompileFiles. Exactly one of
// Script and Err is set. Cached reports a script taken from the cache.
type FileResult struct {
	Filename string
	Script   *Script
	Cached   bool
	Err      error
}

// CompileFiles expands glob patterns in basePath and compiles each
// matching file independently. A file that fails to compile does not stop
// the others; its error is in its result. Results follow pattern order,
// then file name order within a pattern, without duplicates.
func (c *Compiler) CompileFiles(ctx context.Context, basePath string, patterns ...string) ([]FileResult, error) {
	files, err := expand(basePath, patterns)
	if err != nil {
		return nil, err
	}

	results := make([]FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			script, cached, err := c.compileCached(gctx, f, basePath)
			results[i] = FileResult{Filename: f, Script: script, Cached: cached, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func expand(basePath string, patterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	for _, p := range patterns {
		full := p
		if !filepath.IsAbs(full) {
			full = filepath.Join(basePath, p)
		}
		matches, err := filepath.Glob(full)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("pattern %q matches no files", p)
		}
		sort.Strings(matches)
		for _, m := range matches {
			if seen[m] {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}
	return files, nil
}
