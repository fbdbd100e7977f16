package gen

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/go-openapi/inflect"

	"github.com/syssam/shapegen/compiler/load"
)

// Catalog resolves backing storage models by name.
type Catalog interface {
	Model(name string) (*load.Model, bool)
}

// ModelPlugin enriches raw properties with metadata of a backing model.
type ModelPlugin interface {
	// InferTypes returns p with type, nullability, optionality,
	// multiplicity, comment and enum values filled from the model.
	InferTypes(p *Property) (*Property, error)
	// CommentFor returns the model comment of the column backing p.
	CommentFor(p *Property) string
	// EnumFor returns the enum values of the column backing p.
	EnumFor(p *Property) []string
}

// ModelPluginFactory creates the model plugin of one declared type.
// The catalog may be nil.
type ModelPluginFactory func(model string, c *Config, catalog Catalog) ModelPlugin

// SerializerPlugin maps declared fields to raw properties.
type SerializerPlugin interface {
	// Properties returns the raw properties of fields declared on t.
	// References to other types are resolved by the caller.
	Properties(t *load.Type, fields []*load.Field, c *Config) []*Property
	// RootKey returns the key the rendered type is wrapped in, if any.
	RootKey(t *load.Type, c *Config) string
	// Triggers returns the declaration methods the plugin understands.
	Triggers() []string
	// TransformDeclaration turns a captured declaration into an override
	// keyed by column name.
	TransformDeclaration(d *load.Declaration, c *Config) (string, *load.Override, error)
}

var (
	pluginsMu         sync.RWMutex
	modelPlugins      = map[string]ModelPluginFactory{}
	serializerPlugins = map[string]SerializerPlugin{}
)

// RegisterModelPlugin makes a model plugin available by name.
// It panics if called twice with the same name or with a nil factory.
func RegisterModelPlugin(name string, f ModelPluginFactory) {
	pluginsMu.Lock()
	defer pluginsMu.Unlock()
	if f == nil {
		panic("shapegen: RegisterModelPlugin factory is nil")
	}
	if _, dup := modelPlugins[name]; dup {
		panic("shapegen: RegisterModelPlugin called twice for " + name)
	}
	modelPlugins[name] = f
}

// RegisterSerializerPlugin makes a serializer plugin available by name.
// It panics if called twice with the same name or with a nil plugin.
func RegisterSerializerPlugin(name string, p SerializerPlugin) {
	pluginsMu.Lock()
	defer pluginsMu.Unlock()
	if p == nil {
		panic("shapegen: RegisterSerializerPlugin plugin is nil")
	}
	if _, dup := serializerPlugins[name]; dup {
		panic("shapegen: RegisterSerializerPlugin called twice for " + name)
	}
	serializerPlugins[name] = p
}

func lookupModelPlugin(name string) (ModelPluginFactory, bool) {
	pluginsMu.RLock()
	defer pluginsMu.RUnlock()
	f, ok := modelPlugins[name]
	return f, ok
}

func lookupSerializerPlugin(name string) (SerializerPlugin, bool) {
	pluginsMu.RLock()
	defer pluginsMu.RUnlock()
	p, ok := serializerPlugins[name]
	return p, ok
}

func init() {
	RegisterModelPlugin("poro", func(string, *Config, Catalog) ModelPlugin { return poroModel{} })
	RegisterModelPlugin("database", newDatabaseModel)
	RegisterModelPlugin("auto", newDatabaseModel)
	RegisterSerializerPlugin("plain", plainSerializer{})
	RegisterSerializerPlugin("keyed", keyedSerializer{})
	RegisterSerializerPlugin("auto", autoSerializer{})
}

// poroModel is the model plugin of types without a storage model.
type poroModel struct{}

func (poroModel) InferTypes(p *Property) (*Property, error) { return p, nil }
func (poroModel) CommentFor(*Property) string               { return "" }
func (poroModel) EnumFor(*Property) []string                { return nil }

// databaseModel infers properties from catalog columns. It degrades to
// poroModel when the model is unknown.
type databaseModel struct {
	config  *Config
	columns map[string]*load.Column
}

func newDatabaseModel(model string, c *Config, catalog Catalog) ModelPlugin {
	if catalog == nil || model == "" {
		return poroModel{}
	}
	m, ok := catalog.Model(model)
	if !ok || m == nil {
		return poroModel{}
	}
	d := &databaseModel{config: c, columns: make(map[string]*load.Column, len(m.Columns))}
	for _, col := range m.Columns {
		d.columns[col.Name] = col
	}
	return d
}

func (d *databaseModel) InferTypes(p *Property) (*Property, error) {
	p = p.Clone()
	if p.Field != nil && p.Field.Association() {
		return d.inferAssociation(p)
	}
	col, ok := d.columns[p.Column]
	if !ok {
		return p, nil
	}
	p.Multi = col.Array
	if err := d.applyNull(p, col.Null); err != nil {
		return nil, err
	}
	p.Type, p.Ref = d.config.TypeMapping[col.Type], nil
	if d.config.Comments && p.Comment == "" {
		p.Comment = col.Comment
	}
	if len(p.Enum) == 0 {
		p.Enum = slices.Clone(col.Enum)
	}
	return p, nil
}

func (d *databaseModel) inferAssociation(p *Property) (*Property, error) {
	if p.Field.Many {
		return p, nil
	}
	switch d.config.AssociationsStrategy {
	case AssociationsDatabase:
		col, ok := d.columns[p.Field.ForeignKeyColumn()]
		if !ok {
			return p, nil
		}
		return p, d.applyNull(p, col.Null)
	case AssociationsFramework:
		return p, d.applyNull(p, p.Field.Optional)
	default:
		return nil, NewConfigError("associations_strategy", string(d.config.AssociationsStrategy), "unknown associations strategy")
	}
}

func (d *databaseModel) applyNull(p *Property, null bool) error {
	switch d.config.NullStrategy {
	case NullNullable:
		p.Nullable = null
	case NullOptional:
		p.Optional = p.Optional || null
	case NullNullableAndOptional:
		p.Nullable = null
		p.Optional = p.Optional || null
	default:
		return NewConfigError("null_strategy", string(d.config.NullStrategy), "unknown null strategy")
	}
	return nil
}

func (d *databaseModel) CommentFor(p *Property) string {
	if col, ok := d.columns[p.Column]; ok {
		return col.Comment
	}
	return ""
}

func (d *databaseModel) EnumFor(p *Property) []string {
	if col, ok := d.columns[p.Column]; ok {
		return slices.Clone(col.Enum)
	}
	return nil
}

// plainSerializer renders fields under their declared names.
type plainSerializer struct{}

func (plainSerializer) Properties(_ *load.Type, fields []*load.Field, c *Config) []*Property {
	props := make([]*Property, 0, len(fields))
	for _, f := range fields {
		props = append(props, rawProperty(f, f.Name, typedName(c, nil, f.Typed)))
	}
	return props
}

func (plainSerializer) RootKey(t *load.Type, _ *Config) string { return t.RootKey }

func (plainSerializer) Triggers() []string { return []string{"attribute", "method", "typelize"} }

func (plainSerializer) TransformDeclaration(d *load.Declaration, _ *Config) (string, *load.Override, error) {
	return declarationOverride(d)
}

// keyedSerializer transforms keys and maps serializer-level types through
// the "keyed" plugin config:
//
//	plugin_configs:
//	  keyed:
//	    transform_keys: lower_camel   # camel, lower_camel, dash, snake
//	    typed_mapping: {Money: "string"}
type keyedSerializer struct{}

var defaultTypedMapping = map[string]string{
	"String":   "string",
	"Integer":  "number",
	"Float":    "number",
	"Decimal":  "number",
	"Boolean":  "boolean",
	"Date":     "string",
	"DateTime": "string",
	"Time":     "string",
}

func (k keyedSerializer) Properties(_ *load.Type, fields []*load.Field, c *Config) []*Property {
	cfg := c.PluginConfig("keyed")
	mapping := maps.Clone(defaultTypedMapping)
	if m, ok := toMap(cfg["typed_mapping"]); ok {
		for name, v := range m {
			if s, ok := v.(string); ok {
				mapping[name] = s
			}
		}
	}
	props := make([]*Property, 0, len(fields))
	for _, f := range fields {
		props = append(props, rawProperty(f, transformKey(cfg, f.Name), typedName(c, mapping, f.Typed)))
	}
	return props
}

func (keyedSerializer) RootKey(t *load.Type, c *Config) string {
	if t.RootKey == "" {
		return ""
	}
	return transformKey(c.PluginConfig("keyed"), t.RootKey)
}

func (keyedSerializer) Triggers() []string {
	return []string{"attribute", "attributes", "method", "nested", "typelize"}
}

func (keyedSerializer) TransformDeclaration(d *load.Declaration, _ *Config) (string, *load.Override, error) {
	return declarationOverride(d)
}

func transformKey(cfg map[string]any, key string) string {
	switch cfg["transform_keys"] {
	case "camel":
		return inflect.Camelize(key)
	case "lower_camel":
		return inflect.CamelizeDownFirst(key)
	case "dash":
		return inflect.Dasherize(key)
	case "snake":
		return inflect.Underscore(key)
	}
	return key
}

// autoSerializer delegates to the plugin named by the declared type,
// falling back to plainSerializer.
type autoSerializer struct{}

func (autoSerializer) pick(t *load.Type) SerializerPlugin {
	if t != nil && t.Serializer != "" && t.Serializer != "auto" {
		if p, ok := lookupSerializerPlugin(t.Serializer); ok {
			return p
		}
	}
	return plainSerializer{}
}

func (a autoSerializer) Properties(t *load.Type, fields []*load.Field, c *Config) []*Property {
	return a.pick(t).Properties(t, fields, c)
}

func (a autoSerializer) RootKey(t *load.Type, c *Config) string {
	return a.pick(t).RootKey(t, c)
}

func (autoSerializer) Triggers() []string {
	var triggers []string
	for _, p := range []SerializerPlugin{plainSerializer{}, keyedSerializer{}} {
		triggers = append(triggers, p.Triggers()...)
	}
	slices.Sort(triggers)
	return slices.Compact(triggers)
}

func (autoSerializer) TransformDeclaration(d *load.Declaration, c *Config) (string, *load.Override, error) {
	return plainSerializer{}.TransformDeclaration(d, c)
}

func rawProperty(f *load.Field, key, typ string) *Property {
	p := &Property{
		Name:       key,
		Type:       typ,
		Column:     f.ColumnName(),
		Optional:   f.Conditional,
		WithTraits: slices.Clone(f.WithTraits),
		Field:      f,
	}
	if f.Association() {
		p.Multi = f.Many
	}
	return p
}

// typedName maps a serializer-level type through mapping, then through
// the lower-cased type mapping of the config.
func typedName(c *Config, mapping map[string]string, typed string) string {
	if typed == "" {
		return ""
	}
	if t, ok := mapping[typed]; ok {
		return t
	}
	if t, ok := c.TypeMapping[strings.ToLower(typed)]; ok {
		return t
	}
	return typed
}

// declarationOverride converts a captured declaration into an override.
// Supported attrs are optional, nullable, multi, comment and enum; comment
// and enum accept false to suppress model values.
func declarationOverride(d *load.Declaration) (string, *load.Override, error) {
	if d.Name == "" {
		return "", nil, fmt.Errorf("declaration %q: missing name", d.Method)
	}
	o := &load.Override{}
	if d.Type != "" {
		o.SetType(d.Type)
	}
	for _, key := range slices.Sorted(maps.Keys(d.Attrs)) {
		v := d.Attrs[key]
		switch key {
		case "optional", "nullable", "multi":
			b, ok := v.(bool)
			if !ok {
				return "", nil, fmt.Errorf("declaration %q: %s must be a boolean", d.Name, key)
			}
			switch key {
			case "optional":
				o.Optional = &b
			case "nullable":
				o.Nullable = &b
			default:
				o.Multi = &b
			}
		case "comment":
			switch v := v.(type) {
			case bool:
				o.SkipComment = !v
			case string:
				o.Comment = v
			default:
				return "", nil, fmt.Errorf("declaration %q: comment must be a string or false", d.Name)
			}
		case "enum":
			switch v := v.(type) {
			case bool:
				o.SkipEnum = !v
			default:
				values, err := asStrings("enum", v)
				if err != nil {
					return "", nil, fmt.Errorf("declaration %q: %w", d.Name, err)
				}
				o.Enum = values
			}
		default:
			return "", nil, fmt.Errorf("declaration %q: unknown attribute %q", d.Name, key)
		}
	}
	return d.Name, o, nil
}
