// Package dictionary models data dictionaries: the named sets of streams
// (tables, files, topics) a PanSQL script reads and writes, with the
// typed fields of each.
//
// Dictionaries are loaded from files by a Loader. The compiler itself
// never touches the filesystem; it asks the Loader it was given.
package dictionary

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/pansql/internal/types"
)

// Field is one typed column of a stream.
type Field struct {
	Name       string          `yaml:"name" json:"name"`
	Type       types.FieldType `yaml:"type" json:"type"`
	PrimaryKey bool            `yaml:"primaryKey,omitempty" json:"primaryKey,omitempty"`
}

// Stream is a named sequence of records.
type Stream struct {
	Namespace string   `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	Name      string   `yaml:"name" json:"name"`
	Fields    []*Field `yaml:"fields" json:"fields"`
}

// FullName is namespace.name, or name when there is no namespace.
func (s *Stream) FullName() string {
	if s.Namespace == "" {
		return s.Name
	}
	return s.Namespace + "." + s.Name
}

// Field finds a field by case-insensitive name.
func (s *Stream) Field(name string) (*Field, bool) {
	for _, f := range s.Fields {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return nil, false
}

// Dictionary is a named collection of streams.
type Dictionary struct {
	Name    string    `yaml:"name" json:"name"`
	Streams []*Stream `yaml:"streams" json:"streams"`
}

// Stream finds a stream by name, either bare or namespace-qualified.
// Lookups are case-insensitive.
func (d *Dictionary) Stream(name string) (*Stream, bool) {
	for _, s := range d.Streams {
		if strings.EqualFold(s.FullName(), name) || strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return nil, false
}

// Validate checks names are present and unique.
func (d *Dictionary) Validate() error {
	seen := make(map[string]bool)
	for i, s := range d.Streams {
		if s.Name == "" {
			return fmt.Errorf("stream %d has no name", i+1)
		}
		key := strings.ToLower(s.FullName())
		if seen[key] {
			return fmt.Errorf("stream %s is defined twice", s.FullName())
		}
		seen[key] = true

		fields := make(map[string]bool)
		for j, f := range s.Fields {
			if f.Name == "" {
				return fmt.Errorf("stream %s: field %d has no name", s.FullName(), j+1)
			}
			if fields[strings.ToLower(f.Name)] {
				return fmt.Errorf("stream %s: field %s is defined twice", s.FullName(), f.Name)
			}
			fields[strings.ToLower(f.Name)] = true
		}
	}
	return nil
}

// Loader reads a dictionary given the filename written in a script.
type Loader interface {
	Load(filename string) (*Dictionary, error)
}

// FileLoader reads dictionaries from disk, relative to BasePath. The
// format is chosen by extension:
//
//	.pansync .yaml .yml   native YAML dictionary
//	.avsc                 Avro record schema (one stream per record)
//	.avro                 schema of an Avro object container file
//	.parquet              Parquet file schema (one stream)
type FileLoader struct {
	BasePath string
}

// Load implements Loader.
func (l FileLoader) Load(filename string) (*Dictionary, error) {
	path := filename
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.BasePath, filename)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var (
		dict *Dictionary
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pansync", ".yaml", ".yml":
		dict, err = loadYAMLFile(path)
	case ".avsc":
		dict, err = loadAvroFile(path, name)
	case ".avro":
		dict, err = loadAvroContainer(path, name)
	case ".parquet":
		dict, err = loadParquetFile(path, name)
	default:
		return nil, fmt.Errorf("unsupported dictionary format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if dict.Name == "" {
		dict.Name = name
	}
	if err := dict.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return dict, nil
}

func loadYAMLFile(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseYAML(data)
}

// MapLoader serves dictionaries from memory, keyed by filename.
type MapLoader map[string]*Dictionary

// Load implements Loader.
func (m MapLoader) Load(filename string) (*Dictionary, error) {
	d, ok := m[filename]
	if !ok {
		return nil, fmt.Errorf("dictionary file %q not found", filename)
	}
	return d, nil
}
