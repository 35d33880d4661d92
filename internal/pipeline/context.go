package pipeline

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/roach88/pansql/internal/ast"
	"github.com/roach88/pansql/internal/codegen"
	"github.com/roach88/pansql/internal/connectors"
	"github.com/roach88/pansql/internal/dictionary"
	"github.com/roach88/pansql/internal/types"
)

// Context is shared by every step of one pipeline run.
type Context struct {
	ScriptName string
	BasePath   string

	Names   *NameGenerator
	Idents  *Idents
	Symbols *Symbols
	Model   *codegen.Model
	Maps    *Maps
	// Classes caches record classes by dictionary and stream.
	Classes map[string]*codegen.Class

	// Fragments holds the run statements generated for each script
	// statement. The terminal step assembles them in script order.
	Fragments map[ast.Statement][]string

	Dictionaries dictionary.Loader
	Connectors   *connectors.Registry
	BuildIDs     codegen.BuildIDGenerator

	// Trace receives one line per executed step; io.Discard when unset.
	Trace io.Writer
}

// NewContext returns a context with the default loader, connector
// catalogue and build-ID generator.
func NewContext(name, basePath string) (*Context, error) {
	reg, err := connectors.Default()
	if err != nil {
		return nil, err
	}
	model := codegen.NewModel()
	model.ScriptName = name
	return &Context{
		ScriptName:   name,
		BasePath:     basePath,
		Names:        NewNameGenerator(),
		Idents:       NewIdents(),
		Symbols:      NewSymbols(),
		Model:        model,
		Maps:         &Maps{},
		Classes:      make(map[string]*codegen.Class),
		Fragments:    make(map[ast.Statement][]string),
		Dictionaries: dictionary.FileLoader{BasePath: basePath},
		Connectors:   reg,
		BuildIDs:     codegen.UUIDv7Generator{},
		Trace:        io.Discard,
	}, nil
}

// Tracef writes a trace line.
func (c *Context) Tracef(format string, args ...any) {
	if c.Trace == nil {
		return
	}
	fmt.Fprintf(c.Trace, format+"\n", args...)
}

// EmitFor appends generated run statements for stmt.
func (c *Context) EmitFor(stmt ast.Statement, format string, args ...any) {
	c.Fragments[stmt] = append(c.Fragments[stmt], fmt.Sprintf(format, args...))
}

// Idents hands out Go identifiers unique across the generated program.
type Idents struct {
	used map[string]bool
}

// NewIdents returns an empty scope.
func NewIdents() *Idents {
	return &Idents{used: make(map[string]bool)}
}

// Reserve returns name, or name with the smallest numeric suffix that is
// still free, and marks it used.
func (s *Idents) Reserve(name string) string {
	candidate := name
	for i := 2; s.used[candidate]; i++ {
		candidate = fmt.Sprintf("%s%d", name, i)
	}
	s.used[candidate] = true
	return candidate
}

// Fresh returns name, or name with a numeric suffix, such that it is not
// reserved. It reserves nothing; use it for names local to one function.
func (s *Idents) Fresh(name string) string {
	candidate := name
	for i := 2; s.used[candidate]; i++ {
		candidate = fmt.Sprintf("%s%d", name, i)
	}
	return candidate
}

// Mapping is a generated conversion between two dictionary streams.
type Mapping struct {
	SourceDictionary string
	Source           *dictionary.Stream
	TargetDictionary string
	Target           *dictionary.Stream
	// Func is the generated conversion function.
	Func string
	// Explicit is set for mappings declared by a map statement.
	Explicit bool
}

// Maps is the set of stream mappings known to the program.
type Maps struct {
	list []*Mapping
}

// Add registers m.
func (ms *Maps) Add(m *Mapping) {
	ms.list = append(ms.list, m)
}

// Find returns the mapping between the two streams.
func (ms *Maps) Find(sourceDict, source, targetDict, target string) (*Mapping, bool) {
	for _, m := range ms.list {
		if strings.EqualFold(m.SourceDictionary, sourceDict) && strings.EqualFold(m.Source.FullName(), source) &&
			strings.EqualFold(m.TargetDictionary, targetDict) && strings.EqualFold(m.Target.FullName(), target) {
			return m, true
		}
	}
	return nil, false
}

// From returns the explicit mappings of a source stream into a target
// dictionary, in declaration order.
func (ms *Maps) From(sourceDict, source, targetDict string) []*Mapping {
	var out []*Mapping
	for _, m := range ms.list {
		if m.Explicit && strings.EqualFold(m.SourceDictionary, sourceDict) &&
			strings.EqualFold(m.Source.FullName(), source) && strings.EqualFold(m.TargetDictionary, targetDict) {
			out = append(out, m)
		}
	}
	return out
}

// NameGenerator hands out names unique within one pipeline run:
// Transform1, Transform2, ...
type NameGenerator struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewNameGenerator returns a generator with all counters at zero.
func NewNameGenerator() *NameGenerator {
	return &NameGenerator{counts: make(map[string]int)}
}

// Next returns prefix followed by the next counter value for that prefix.
func (g *NameGenerator) Next(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counts[prefix]++
	return fmt.Sprintf("%s%d", prefix, g.counts[prefix])
}

// Symbol is a declared name and what compile steps learn about it.
type Symbol struct {
	Name string
	Kind ast.SymbolKind
	// Node is the declaring statement; Index is its position in the
	// script.
	Node  ast.Node
	Index int

	// Dictionary is set for loaded dictionaries. Analyzed dictionaries are
	// only known when the program runs and leave it nil.
	Dictionary *dictionary.Dictionary

	// Connection symbols.
	Connector      *connectors.Connector
	Purpose        ast.OpenPurpose
	DictionaryName string

	// Stream and table variables. DictionaryName names the owning
	// dictionary.
	Stream *dictionary.Stream
	Class  *codegen.Class

	// Script variables.
	Type types.FieldType

	// GoName is the identifier the generated program uses.
	GoName string
}

// Symbols is the script's symbol table. Names are case-insensitive;
// script variables live in their own namespace.
type Symbols struct {
	byKey map[string]*Symbol
	order []*Symbol
}

// NewSymbols returns an empty table.
func NewSymbols() *Symbols {
	return &Symbols{byKey: make(map[string]*Symbol)}
}

func symbolKey(name string, kind ast.SymbolKind) string {
	key := strings.ToLower(name)
	if kind == ast.SymbolScriptVar {
		return "$" + key
	}
	return key
}

// Declare adds sym. When the name is taken it returns the existing
// symbol and false.
func (s *Symbols) Declare(sym *Symbol) (*Symbol, bool) {
	key := symbolKey(sym.Name, sym.Kind)
	if prev, ok := s.byKey[key]; ok {
		return prev, false
	}
	s.byKey[key] = sym
	s.order = append(s.order, sym)
	return sym, true
}

// Lookup finds a non-script-variable symbol.
func (s *Symbols) Lookup(name string) (*Symbol, bool) {
	sym, ok := s.byKey[symbolKey(name, ast.SymbolNone)]
	return sym, ok
}

// LookupVar finds a script variable by name without the $.
func (s *Symbols) LookupVar(name string) (*Symbol, bool) {
	sym, ok := s.byKey[symbolKey(name, ast.SymbolScriptVar)]
	return sym, ok
}

// All returns symbols in declaration order.
func (s *Symbols) All() []*Symbol {
	return s.order
}

// OfKind returns symbols of one kind in declaration order.
func (s *Symbols) OfKind(kind ast.SymbolKind) []*Symbol {
	var out []*Symbol
	for _, sym := range s.order {
		if sym.Kind == kind {
			out = append(out, sym)
		}
	}
	return out
}

// Connections returns the connections opened with the named dictionary
// for purpose p, in declaration order.
func (s *Symbols) Connections(dictionaryName string, p ast.OpenPurpose) []*Symbol {
	var out []*Symbol
	for _, sym := range s.OfKind(ast.SymbolConnection) {
		if sym.Purpose == p && strings.EqualFold(sym.DictionaryName, dictionaryName) {
			out = append(out, sym)
		}
	}
	return out
}
