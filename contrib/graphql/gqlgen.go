package graphql

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// GQLGenConfig is a gqlgen.yml file. Only the schema list and the model
// bindings are edited; every other key is written back as read.
type GQLGenConfig struct {
	root    *yaml.Node
	changed bool
}

// StringList is a YAML value that is either a string or a list of strings.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler for StringList.
func (s *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*s = []string{node.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*s = list
		return nil
	default:
		return fmt.Errorf("expected string or list, got %v", node.Kind)
	}
}

// MarshalYAML implements yaml.Marshaler for StringList.
func (s StringList) MarshalYAML() (any, error) {
	if len(s) == 1 {
		return s[0], nil
	}
	return []string(s), nil
}

// LoadGQLGenConfig loads a gqlgen.yml file. A missing file yields an
// empty config.
func LoadGQLGenConfig(path string) (*GQLGenConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &GQLGenConfig{root: &yaml.Node{Kind: yaml.MappingNode}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read gqlgen config: %w", err)
	}
	return ParseGQLGenConfig(data)
}

// ParseGQLGenConfig parses the content of a gqlgen.yml file.
func ParseGQLGenConfig(data []byte) (*GQLGenConfig, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse gqlgen config: %w", err)
	}
	if len(doc.Content) == 0 {
		return &GQLGenConfig{root: &yaml.Node{Kind: yaml.MappingNode}}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse gqlgen config: expected a mapping, got %v", root.Kind)
	}
	return &GQLGenConfig{root: root}, nil
}

// SchemaPaths returns the schema files and globs of the config.
func (c *GQLGenConfig) SchemaPaths() ([]string, error) {
	v := lookup(c.root, "schema")
	if v == nil {
		return nil, nil
	}
	var list StringList
	if err := v.Decode(&list); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	return list, nil
}

// AddSchemaPath adds a schema path to the configuration if not already present.
func (c *GQLGenConfig) AddSchemaPath(path string) error {
	paths, err := c.SchemaPaths()
	if err != nil {
		return err
	}
	if slices.Contains(paths, path) {
		return nil
	}
	var v yaml.Node
	if err := v.Encode(StringList(append(paths, path))); err != nil {
		return err
	}
	set(c.root, "schema", &v)
	c.changed = true
	return nil
}

// Model returns the Go types bound to a GraphQL type.
func (c *GQLGenConfig) Model(typeName string) ([]string, error) {
	entry := lookup(lookup(c.root, "models"), typeName)
	if entry == nil {
		return nil, nil
	}
	var list StringList
	if v := lookup(entry, "model"); v != nil {
		if err := v.Decode(&list); err != nil {
			return nil, fmt.Errorf("decode model of %s: %w", typeName, err)
		}
	}
	return list, nil
}

// SetModel binds a GraphQL type to a Go type unless the type is already
// bound.
func (c *GQLGenConfig) SetModel(typeName, model string) {
	models := lookup(c.root, "models")
	if models == nil {
		models = &yaml.Node{Kind: yaml.MappingNode}
		set(c.root, "models", models)
	}
	if lookup(models, typeName) != nil {
		return
	}
	set(models, typeName, &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		scalar("model"), scalar(model),
	}})
	c.changed = true
}

// Changed reports whether the config was modified since it was loaded.
func (c *GQLGenConfig) Changed() bool { return c.changed }

// Bytes returns the YAML encoding of the config.
func (c *GQLGenConfig) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c.root); err != nil {
		return nil, fmt.Errorf("marshal gqlgen config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveGQLGenConfig saves a gqlgen.yml configuration file.
func SaveGQLGenConfig(path string, cfg *GQLGenConfig) error {
	data, err := cfg.Bytes()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// SyncGQLGenConfig makes the gqlgen config at path load the schema files
// generated into dir, and binds the JSON scalar to gqlgen's Map type when
// the config has no binding for it. The file is only written when it
// changes. It reports whether the file was written.
func SyncGQLGenConfig(path, dir string) (bool, error) {
	cfg, err := LoadGQLGenConfig(path)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(filepath.Dir(path), dir)
	if err != nil {
		return false, fmt.Errorf("resolve schema path: %w", err)
	}
	if err := cfg.AddSchemaPath(filepath.ToSlash(rel) + "/**/*.graphql"); err != nil {
		return false, err
	}
	cfg.SetModel(JSONScalar, "github.com/99designs/gqlgen/graphql.Map")
	if !cfg.Changed() {
		return false, nil
	}
	return true, SaveGQLGenConfig(path, cfg)
}

// lookup returns the value of key in a mapping node.
func lookup(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// set replaces or appends the value of key in a mapping node.
func set(m *yaml.Node, key string, v *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = v
			return
		}
	}
	m.Content = append(m.Content, scalar(key), v)
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}
