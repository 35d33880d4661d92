// Package config loads pansql.cue, the optional project file of a
// directory of PanSQL scripts.
//
// The file is CUE, unified with an embedded schema that supplies the
// defaults. PANSQL_OUTPUT and PANSQL_CACHE override the output directory
// and the build cache.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/pansql/internal/connectors"
)

//go:embed schema.cue
var schemaSource string

// FileName is the project file looked for in a script directory.
const FileName = "pansql.cue"

// Environment variables that override the project file.
const (
	EnvOutput = "PANSQL_OUTPUT"
	EnvCache  = "PANSQL_CACHE"
)

// Config is a decoded project file. Relative paths are relative to Dir.
type Config struct {
	Dir          string                  `json:"-"`
	Output       string                  `json:"output"`
	Cache        string                  `json:"cache"`
	Dictionaries string                  `json:"dictionaries"`
	Scripts      []string                `json:"scripts"`
	Connectors   []*connectors.Connector `json:"connectors"`
}

// Error is a problem in a project file, with the CUE position when one
// is known.
type Error struct {
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// Load reads dir/pansql.cue. A missing file yields the defaults. The
// environment is applied last.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		data, path = nil, FileName
	} else if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	cfg, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	cfg.Dir = dir
	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// Parse decodes project file source against the schema.
func Parse(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("config schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, cueError(err)
	}
	v = schema.LookupPath(cue.ParsePath("#Config")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(err)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return nil, cueError(err)
	}
	return &cfg, nil
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvOutput); v != "" {
		c.Output = v
	}
	if v := getenv(EnvCache); v != "" {
		c.Cache = v
	}
}

// Path resolves p against the project directory.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// Registry returns the built-in connector catalogue extended with the
// project's connectors.
func (c *Config) Registry() (*connectors.Registry, error) {
	reg, err := connectors.Default()
	if err != nil {
		return nil, err
	}
	for _, conn := range c.Connectors {
		if err := reg.Register(conn); err != nil {
			return nil, &Error{Message: err.Error()}
		}
	}
	return reg, nil
}

func cueError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Message: err.Error()}
	}
	first := errs[0]
	out := &Error{Message: first.Error()}
	if pos := cueerrors.Positions(first); len(pos) > 0 {
		out.Pos = pos[0]
	}
	return out
}
