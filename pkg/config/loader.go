package config

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formcollection/pkg/collection"
)

//go:embed defaults/*.yaml
var embeddedDefaults embed.FS

// ErrUnknownCollection is returned when a lookup names a collection that no
// loaded file defines.
var ErrUnknownCollection = errors.New("config: unknown collection")

// DefaultsFS returns the bundled collection definitions.
func DefaultsFS() fs.FS {
	sub, err := fs.Sub(embeddedDefaults, "defaults")
	if err != nil {
		panic(err)
	}
	return sub
}

// Store holds validated collection schemas keyed by name.
type Store struct {
	collections map[string]collection.Schema
	sources     map[string]string
}

// Default loads the bundled definitions. The embedded files are part of the
// build, so a failure here is a programming error.
func Default() *Store {
	store, err := LoadFS(DefaultsFS())
	if err != nil {
		panic(err)
	}
	return store
}

// LoadFS walks fsys and parses every JSON/YAML file as a collections document.
// A nil fsys yields an empty store.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{
		collections: make(map[string]collection.Schema),
		sources:     make(map[string]string),
	}
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("config: read %s: %w", path, err)
		}
		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}
		return store.merge(doc, path)
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Merge layers other's definitions over s. Later definitions replace earlier
// ones with the same name.
func (s *Store) Merge(other *Store) {
	if s == nil || other == nil {
		return
	}
	for name, schema := range other.collections {
		s.collections[name] = schema
		s.sources[name] = other.sources[name]
	}
}

// Collection returns the schema registered under name.
func (s *Store) Collection(name string) (collection.Schema, error) {
	if s != nil {
		if schema, ok := s.collections[strings.TrimSpace(name)]; ok {
			return cloneSchema(schema), nil
		}
	}
	return collection.Schema{}, fmt.Errorf("%w %q", ErrUnknownCollection, name)
}

// Names lists the registered collections, sorted.
func (s *Store) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Source reports which file defined name.
func (s *Store) Source(name string) string {
	if s == nil {
		return ""
	}
	return s.sources[name]
}

type documentFile struct {
	Collections map[string]collection.Schema `json:"collections" yaml:"collections"`
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("config: file %s is empty", source)
	}
	if strings.EqualFold(filepath.Ext(source), ".json") {
		if err := json.Unmarshal(data, &doc); err != nil {
			return documentFile{}, fmt.Errorf("config: parse %s: %w", source, err)
		}
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return documentFile{}, fmt.Errorf("config: parse %s: %w", source, err)
	}
	return doc, nil
}

func (s *Store) merge(doc documentFile, source string) error {
	for rawName, schema := range doc.Collections {
		name := strings.TrimSpace(rawName)
		if name == "" {
			return fmt.Errorf("config: file %s defines an empty collection name", source)
		}
		if prev, exists := s.sources[name]; exists {
			return fmt.Errorf("config: duplicate collection %q (files %s and %s)", name, prev, source)
		}
		if schema.Name == "" {
			schema.Name = name
		}
		if schema.Name != name {
			return fmt.Errorf("config: file %s: collection %q declares mismatched name %q", source, name, schema.Name)
		}
		if err := schema.Validate(); err != nil {
			return fmt.Errorf("config: file %s: %w", source, err)
		}
		s.collections[name] = schema
		s.sources[name] = source
	}
	return nil
}

func cloneSchema(schema collection.Schema) collection.Schema {
	schema.Fields = slices.Clone(schema.Fields)
	schema.Inputs = maps.Clone(schema.Inputs)
	return schema
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}
