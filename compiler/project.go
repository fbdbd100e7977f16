package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/syssam/shapegen/compiler/gen"
	"github.com/syssam/shapegen/compiler/load"
	"github.com/syssam/shapegen/dialect"
	dsql "github.com/syssam/shapegen/dialect/sql"
	"github.com/syssam/shapegen/privacy"
)

// DefaultProjectFile is the project file name looked up by the CLI.
const DefaultProjectFile = "shapegen.yml"

// Project is the content of a shapegen.yml file:
//
//	manifests:
//	  - types/*.yml
//	exclude:
//	  - Internal::*
//	settings:
//	  output_dir: app/javascript/types
//	  null_strategy: nullable
//	writers:
//	  admin:
//	    from: default
//	    output_dir: app/javascript/admin/types
//	    verbatim_module_syntax: true
//	database:
//	  dialect: postgres
//	  dsn: ${DATABASE_URL}
//
// Relative paths are resolved against the directory of the project file.
type Project struct {
	// Manifests are paths or filepath.Match patterns of type manifests.
	Manifests []string `yaml:"manifests"`
	// Exclude are patterns of declared type names that are not generated,
	// e.g. "Internal::*".
	Exclude []string `yaml:"exclude,omitempty"`
	// Settings are global settings inherited by every writer.
	Settings map[string]any `yaml:"settings,omitempty"`
	// Writers are named writers. Without writers, the default writer runs
	// with the global settings.
	Writers map[string]*WriterSpec `yaml:"writers,omitempty"`
	// Database is inspected into the catalog of the database model plugin.
	Database *Database `yaml:"database,omitempty"`

	path string
}

// WriterSpec is the settings of one writer.
type WriterSpec struct {
	// From names the writer the settings are based on.
	From     string         `yaml:"from,omitempty"`
	Settings map[string]any `yaml:",inline"`
}

// Database describes the database to inspect.
type Database struct {
	Dialect string   `yaml:"dialect"`
	DSN     string   `yaml:"dsn"`
	Schema  string   `yaml:"schema,omitempty"`
	Tables  []string `yaml:"tables,omitempty"`
}

// LoadProject reads the project file at path.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project: %w", err)
	}
	p, err := ParseProject(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	p.path = abs
	return p, nil
}

// ParseProject decodes a project file. Unknown top level keys are
// rejected. Relative paths of a parsed project resolve against the
// working directory.
func ParseProject(data []byte) (*Project, error) {
	p := &Project{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse project: %w", err)
	}
	if _, err := p.policy(); err != nil {
		return nil, fmt.Errorf("parse project: exclude: %w", err)
	}
	if d := p.Database; d != nil {
		if _, err := dialect.Normalize(d.Dialect); err != nil {
			return nil, fmt.Errorf("parse project: database: %w", err)
		}
		if strings.TrimSpace(d.DSN) == "" {
			return nil, errors.New("parse project: database: missing dsn")
		}
	}
	return p, nil
}

// Dir returns the directory relative paths resolve against.
func (p *Project) Dir() string {
	if p.path == "" {
		return "."
	}
	return filepath.Dir(p.path)
}

// Path returns the absolute path of the project file, if it was loaded
// from one.
func (p *Project) Path() string { return p.path }

func (p *Project) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.Dir(), path)
}

// ManifestFiles returns the sorted manifest files matched by the
// manifest patterns.
func (p *Project) ManifestFiles() ([]string, error) {
	seen := make(map[string]bool)
	for _, pattern := range p.Manifests {
		matches, err := filepath.Glob(p.resolve(pattern))
		if err != nil {
			return nil, fmt.Errorf("manifest pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 && !strings.ContainsAny(pattern, "*?[") {
			return nil, fmt.Errorf("manifest %s: %w", pattern, os.ErrNotExist)
		}
		for _, m := range matches {
			seen[m] = true
		}
	}
	return slices.Sorted(maps.Keys(seen)), nil
}

// Manifest loads and merges every manifest of the project.
func (p *Project) Manifest() (*load.Manifest, error) {
	files, err := p.ManifestFiles()
	if err != nil {
		return nil, err
	}
	merged := &load.Manifest{}
	for _, f := range files {
		m, err := load.LoadManifest(f)
		if err != nil {
			return nil, err
		}
		merged.Merge(m)
	}
	return merged, nil
}

// WriterNames returns the writers a pass runs.
func (p *Project) WriterNames() []string {
	if len(p.Writers) == 0 {
		return []string{gen.DefaultWriter}
	}
	return slices.Sorted(maps.Keys(p.Writers))
}

// Configuration builds the config store of the project. Writers are
// defined after the writer they are based on.
func (p *Project) Configuration() (*gen.Configuration, error) {
	conf := gen.NewConfiguration()
	for _, key := range slices.Sorted(maps.Keys(p.Settings)) {
		if err := conf.Set(key, p.resolveSetting(key, p.Settings[key])); err != nil {
			return nil, fmt.Errorf("settings: %w", err)
		}
	}
	pending := p.WriterNames()
	if len(p.Writers) == 0 {
		return conf, nil
	}
	for len(pending) > 0 {
		var next []string
		for _, name := range pending {
			spec := p.Writers[name]
			if spec == nil {
				spec = &WriterSpec{}
			}
			if spec.From != "" && spec.From != name && slices.Contains(pending, spec.From) {
				next = append(next, name)
				continue
			}
			if spec.From != "" && spec.From != gen.DefaultWriter && p.Writers[spec.From] == nil {
				return nil, gen.NewConfigError("from", spec.From, fmt.Sprintf("writer %s is based on an unknown writer", name))
			}
			settings := make(map[string]any, len(spec.Settings))
			for k, v := range spec.Settings {
				settings[k] = p.resolveSetting(k, v)
			}
			if _, err := conf.DefineWriter(name, spec.From, gen.WithSettings(settings)); err != nil {
				return nil, fmt.Errorf("writer %s: %w", name, err)
			}
		}
		if len(next) == len(pending) {
			return nil, gen.NewConfigError("from", strings.Join(next, ","), "writers are based on each other")
		}
		pending = next
	}
	return conf, nil
}

// policy returns the rules of the exclude patterns.
func (p *Project) policy() (privacy.Policy, error) {
	if len(p.Exclude) == 0 {
		return nil, nil
	}
	rule, err := privacy.DenyNamesRule(p.Exclude...)
	if err != nil {
		return nil, err
	}
	return privacy.Policy{rule}, nil
}

// resolveSetting resolves relative paths in path valued settings.
func (p *Project) resolveSetting(key string, v any) any {
	if s, ok := v.(string); ok && key == "output_dir" {
		return p.resolve(s)
	}
	return v
}

// inspect returns the catalog of the project database, or nil without
// a database.
func (p *Project) inspect(ctx context.Context, opts ...dsql.InspectOption) (*dsql.Catalog, error) {
	d := p.Database
	if d == nil {
		return nil, nil
	}
	name, err := dialect.Normalize(d.Dialect)
	if err != nil {
		return nil, err
	}
	dsn := os.ExpandEnv(d.DSN)
	if name == dialect.SQLite && !strings.HasPrefix(dsn, "file:") && !strings.HasPrefix(dsn, ":memory:") {
		dsn = p.resolve(dsn)
	}
	opts = append(opts, dsql.WithSchema(d.Schema), dsql.WithTables(d.Tables...))
	return dsql.Inspect(ctx, name, dsn, opts...)
}
