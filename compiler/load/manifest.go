package load

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the YAML form of a set of declared types and the static
// storage models backing them.
//
//	models:
//	  - name: users
//	    columns:
//	      - {name: id, type: integer}
//	      - {name: name, type: string, null: true}
//	types:
//	  - name: UserSerializer
//	    model: users
//	    fields:
//	      - {name: id}
//	      - {name: name}
//	      - {name: posts, ref: PostSerializer, many: true}
//	    typelize:
//	      name: {type: "string", comment: "Display name"}
type Manifest struct {
	Models []*Model `yaml:"models,omitempty"`
	Types  []*Type  `yaml:"types,omitempty"`
}

// Model is a storage model described statically.
type Model struct {
	Name    string    `yaml:"name"`
	Comment string    `yaml:"comment,omitempty"`
	Columns []*Column `yaml:"columns,omitempty"`
}

// Column of a static model. Type is a key of the type mapping,
// e.g. "integer" or "datetime".
type Column struct {
	Name    string   `yaml:"name"`
	Type    string   `yaml:"type"`
	Null    bool     `yaml:"null,omitempty"`
	Comment string   `yaml:"comment,omitempty"`
	Enum    []string `yaml:"enum,omitempty"`
	Array   bool     `yaml:"array,omitempty"`
}

// ParseManifest decodes a manifest. Unknown keys are rejected.
func ParseManifest(data []byte) (*Manifest, error) {
	m := &Manifest{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	for i, md := range m.Models {
		if md.Name == "" {
			return nil, fmt.Errorf("parse manifest: model #%d has no name", i)
		}
	}
	return m, nil
}

// LoadManifest reads and decodes the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Merge appends the models and types of other manifests.
func (m *Manifest) Merge(others ...*Manifest) {
	for _, o := range others {
		m.Models = append(m.Models, o.Models...)
		m.Types = append(m.Types, o.Types...)
	}
}

// Registry builds the registry of the manifest types.
func (m *Manifest) Registry() (*Registry, error) {
	return NewRegistry(m.Types...)
}
