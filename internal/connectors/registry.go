// Package connectors is the catalogue of data connectors a PanSQL script
// can open, with what each can be opened for and where its runtime
// package lives.
package connectors

import (
	"bytes"
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pansql/internal/ast"
)

//go:embed connectors.yaml
var catalogue []byte

// Kind groups connectors by the storage they talk to.
type Kind string

const (
	KindRelational  Kind = "relational"
	KindFile        Kind = "file"
	KindObjectStore Kind = "objectstore"
)

// Connector describes one connector plugin.
type Connector struct {
	Name        string   `yaml:"name" json:"name"`
	Kind        Kind     `yaml:"kind" json:"kind"`
	Dialect     string   `yaml:"dialect,omitempty" json:"dialect,omitempty"`
	Purposes    []string `yaml:"purposes" json:"purposes"`
	Package     string   `yaml:"package" json:"package"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
}

// Supports reports whether the connector can be opened for p.
func (c *Connector) Supports(p ast.OpenPurpose) bool {
	want := purposeName(p)
	for _, have := range c.Purposes {
		if strings.EqualFold(have, want) {
			return true
		}
	}
	return false
}

// Relational reports whether the connector accepts pushed-down SQL.
func (c *Connector) Relational() bool { return c.Kind == KindRelational }

// Alias is the package name generated code refers to the connector by.
func (c *Connector) Alias() string {
	return strings.ToLower(c.Name) + "conn"
}

func purposeName(p ast.OpenPurpose) string {
	switch p {
	case ast.PurposeWrite:
		return "write"
	case ast.PurposeAnalyze:
		return "analyze"
	}
	return "read"
}

func (c *Connector) validate() error {
	if c.Name == "" {
		return fmt.Errorf("connector has no name")
	}
	switch c.Kind {
	case KindRelational, KindFile, KindObjectStore:
	default:
		return fmt.Errorf("connector %s: unknown kind %q", c.Name, c.Kind)
	}
	if c.Package == "" {
		return fmt.Errorf("connector %s: package is required", c.Name)
	}
	if len(c.Purposes) == 0 {
		return fmt.Errorf("connector %s: at least one purpose is required", c.Name)
	}
	for _, p := range c.Purposes {
		switch strings.ToLower(p) {
		case "read", "write", "analyze":
		default:
			return fmt.Errorf("connector %s: unknown purpose %q", c.Name, p)
		}
	}
	return nil
}

// Registry is a set of connectors indexed by case-insensitive name.
type Registry struct {
	byName map[string]*Connector
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Connector)}
}

// Parse reads a catalogue document into a new registry.
func Parse(data []byte) (*Registry, error) {
	var doc struct {
		Connectors []*Connector `yaml:"connectors"`
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse connector catalogue: %w", err)
	}
	r := NewRegistry()
	for _, c := range doc.Connectors {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
	defaultErr  error
)

// Default returns a copy of the built-in catalogue. Callers may Register
// more connectors on the copy.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultReg, defaultErr = Parse(catalogue)
	})
	if defaultErr != nil {
		return nil, defaultErr
	}
	return defaultReg.Clone(), nil
}

// Clone returns an independent copy of the registry.
func (r *Registry) Clone() *Registry {
	out := NewRegistry()
	for k, v := range r.byName {
		c := *v
		out.byName[k] = &c
	}
	return out
}

// Register adds c, rejecting duplicates.
func (r *Registry) Register(c *Connector) error {
	if err := c.validate(); err != nil {
		return err
	}
	key := strings.ToLower(c.Name)
	if _, dup := r.byName[key]; dup {
		return fmt.Errorf("connector %s is already registered", c.Name)
	}
	r.byName[key] = c
	return nil
}

// Lookup finds a connector by case-insensitive name.
func (r *Registry) Lookup(name string) (*Connector, bool) {
	c, ok := r.byName[strings.ToLower(name)]
	return c, ok
}

// All lists the connectors sorted by name.
func (r *Registry) All() []*Connector {
	out := make([]*Connector, 0, len(r.byName))
	for _, c := range r.byName {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Usage records how a script uses one connection.
type Usage struct {
	Connection string `yaml:"connection"`
	Connector  string `yaml:"connector"`
	Purpose    string `yaml:"purpose"`
	Package    string `yaml:"package"`
	Dictionary string `yaml:"dictionary,omitempty"`
}

// NewUsage describes a connection opened with c for p.
func NewUsage(connection string, c *Connector, p ast.OpenPurpose, dictionary string) Usage {
	return Usage{
		Connection: connection,
		Connector:  c.Name,
		Purpose:    purposeName(p),
		Package:    c.Package,
		Dictionary: dictionary,
	}
}

// Manifest renders the connections a compiled script opens, in order.
func Manifest(usages []Usage) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	doc := struct {
		Connections []Usage `yaml:"connections"`
	}{Connections: usages}
	if usages == nil {
		doc.Connections = []Usage{}
	}
	if err := enc.Encode(doc); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
