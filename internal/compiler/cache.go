package compiler

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pansql/internal/ast"
	"github.com/roach88/pansql/internal/codegen"
	"github.com/roach88/pansql/internal/connectors"
	"github.com/roach88/pansql/internal/dictionary"
	"github.com/roach88/pansql/internal/parser"
	"github.com/roach88/pansql/internal/store"
)

// Cache holds compiled scripts between runs. *store.Store implements it.
type Cache interface {
	Get(ctx context.Context, key string) (*Script, bool, error)
	Put(ctx context.Context, key string, script *Script) error
}

var _ Cache = (*store.Store)(nil)

// Key derives the cache key of a script: the compiler version, the script
// and the content of every dictionary it loads and of the connector
// catalogue it compiles against. Scripts that do not parse or load have no
// key.
func (c *Compiler) Key(name, text, basePath string) (string, error) {
	file, err := parser.Parse(text)
	if err != nil {
		return "", err
	}

	loader := c.opts.Loader
	if loader == nil {
		loader = dictionary.FileLoader{BasePath: basePath}
	}
	var inputs [][]byte
	for _, st := range file.Statements {
		load, ok := st.(*ast.LoadStatement)
		if !ok {
			continue
		}
		dict, err := loader.Load(load.Filename.Value)
		if err != nil {
			return "", err
		}
		data, err := dictionary.MarshalYAML(dict)
		if err != nil {
			return "", err
		}
		inputs = append(inputs, data)
	}

	reg := c.opts.Connectors
	if reg == nil {
		if reg, err = connectors.Default(); err != nil {
			return "", err
		}
	}
	catalogue, err := yaml.Marshal(reg.All())
	if err != nil {
		return "", fmt.Errorf("connector catalogue: %w", err)
	}
	inputs = append(inputs, catalogue)

	return store.Key(codegen.RuntimeVersion, name, text, inputs...), nil
}

// compileCached compiles a script file through the configured cache.
// Scripts without a key are compiled directly, so that their diagnostics
// come from the compiler.
func (c *Compiler) compileCached(ctx context.Context, filename, basePath string) (*Script, bool, error) {
	if c.opts.Cache == nil {
		script, err := c.CompileFile(filename, basePath)
		return script, false, err
	}

	text, err := readScript(filename, basePath)
	if err != nil {
		return nil, false, err
	}
	name := ScriptName(filename)
	key, err := c.Key(name, text, basePath)
	if err != nil {
		script, err := c.Compile(name, text, basePath)
		return script, false, err
	}

	script, ok, err := c.opts.Cache.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if ok {
		return script, true, nil
	}
	if script, err = c.Compile(name, text, basePath); err != nil {
		return nil, false, err
	}
	if err := c.opts.Cache.Put(ctx, key, script); err != nil {
		return nil, false, err
	}
	return script, false, nil
}
