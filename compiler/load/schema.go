package load

import (
	"fmt"
	"maps"
	"reflect"

	"github.com/syssam/shapegen"
	"github.com/syssam/shapegen/schema/edge"
	"github.com/syssam/shapegen/schema/field"
)

// Type is a declared serializable type in plain data form.
type Type struct {
	Name         string               `yaml:"name,omitempty"`
	Parent       string               `yaml:"parent,omitempty"`
	Model        string               `yaml:"model,omitempty"`
	Serializer   string               `yaml:"serializer,omitempty"`
	RootKey      string               `yaml:"root_key,omitempty"`
	Fields       []*Field             `yaml:"fields,omitempty"`
	Meta         []*Field             `yaml:"meta,omitempty"`
	Traits       []*Trait             `yaml:"traits,omitempty"`
	Typelize     map[string]*Override `yaml:"typelize,omitempty"`
	TypelizeMeta map[string]*Override `yaml:"typelize_meta,omitempty"`
	Declarations []*Declaration       `yaml:"declarations,omitempty"`
	Config       map[string]any       `yaml:"config,omitempty"`

	// ID is the arena slot assigned by the Registry.
	ID ID `yaml:"-"`
}

// Inline reports whether the type has no user-facing name.
func (t *Type) Inline() bool { return t.Name == "" }

// FieldKind describes where the value of a field comes from.
type FieldKind string

// Field kinds.
const (
	KindAttribute   FieldKind = "attribute"
	KindMethod      FieldKind = "method"
	KindAssociation FieldKind = "association"
)

// Field is a raw field declaration of a declared type.
type Field struct {
	Name        string    `yaml:"name"`
	Column      string    `yaml:"column,omitempty"`
	Kind        FieldKind `yaml:"kind,omitempty"`
	Typed       string    `yaml:"typed,omitempty"`
	Ref         string    `yaml:"ref,omitempty"`
	Inline      *Type     `yaml:"inline,omitempty"`
	Many        bool      `yaml:"many,omitempty"`
	Optional    bool      `yaml:"optional,omitempty"`
	ForeignKey  string    `yaml:"foreign_key,omitempty"`
	Conditional bool      `yaml:"if,omitempty"`
	WithTraits  []string  `yaml:"with_traits,omitempty"`
}

// ColumnName returns the source attribute name of the field.
func (f *Field) ColumnName() string {
	if f.Column != "" {
		return f.Column
	}
	return f.Name
}

// Association reports whether the field references another type.
func (f *Field) Association() bool {
	return f.Kind == KindAssociation || f.Ref != "" || f.Inline != nil
}

// ForeignKeyColumn returns the column backing a single value association.
func (f *Field) ForeignKeyColumn() string {
	if f.ForeignKey != "" {
		return f.ForeignKey
	}
	return f.ColumnName() + "_id"
}

// Trait is a named group of fields.
type Trait struct {
	Name     string               `yaml:"name"`
	Fields   []*Field             `yaml:"fields,omitempty"`
	Typelize map[string]*Override `yaml:"typelize,omitempty"`
}

// Declaration is a field declaration captured upstream, before it is turned
// into an override by the serializer plugin.
type Declaration struct {
	Method string         `yaml:"method"`
	Name   string         `yaml:"name,omitempty"`
	Type   string         `yaml:"type,omitempty"`
	Attrs  map[string]any `yaml:"attrs,omitempty"`
}

// NewField creates a loaded field from a field descriptor.
func NewField(fd *field.Descriptor) (*Field, error) {
	if fd.Err != nil {
		return nil, fmt.Errorf("field %q: %w", fd.Name, fd.Err)
	}
	kind := KindAttribute
	if fd.Kind == field.KindMethod {
		kind = KindMethod
	}
	return &Field{
		Name:        fd.Name,
		Column:      columnOrEmpty(fd.Name, fd.Column),
		Kind:        kind,
		Typed:       fd.Typed,
		Conditional: fd.Conditional,
	}, nil
}

// NewEdge creates a loaded association field from an edge descriptor.
// The returned Ref holds the Go type name of the referenced type.
func NewEdge(ed *edge.Descriptor) (*Field, error) {
	if ed.Err != nil {
		return nil, fmt.Errorf("edge %q: %w", ed.Name, ed.Err)
	}
	f := &Field{
		Name:       ed.Name,
		Column:     columnOrEmpty(ed.Name, ed.Column),
		Kind:       KindAssociation,
		Ref:        ed.Type,
		Many:       ed.Many,
		Optional:   ed.Optional,
		ForeignKey: ed.ForeignKey,
		WithTraits: ed.Traits,
	}
	if ed.Inline != nil {
		f.Ref = ""
		f.Inline = &Type{}
		for _, fd := range ed.Inline {
			nf, err := NewField(fd)
			if err != nil {
				return nil, fmt.Errorf("edge %q: %w", ed.Name, err)
			}
			f.Inline.Fields = append(f.Inline.Fields, nf)
			f.Inline.addOverride(nf.ColumnName(), fd.Override)
		}
	}
	return f, nil
}

// NewOverride creates a loaded override from a field override.
func NewOverride(o *field.Override) *Override {
	if o == nil {
		return nil
	}
	return &Override{
		Type:        o.Type,
		Optional:    o.Optional,
		Nullable:    o.Nullable,
		Multi:       o.Multi,
		Comment:     o.Comment,
		SkipComment: o.SkipComment,
		Enum:        o.Enum,
		SkipEnum:    o.SkipEnum,
	}
}

// MarshalSchema converts a declared Go type into its plain data form.
// Field references hold Go type names; FromSchemas maps them to declared names.
func MarshalSchema(schema shapegen.Interface) (*Type, error) {
	conf, err := safeConfig(schema)
	if err != nil {
		return nil, err
	}
	t := &Type{
		Name:       declaredName(schema),
		Model:      conf.Model,
		Serializer: conf.Serializer,
		RootKey:    conf.RootKey,
		Config:     maps.Clone(conf.Settings),
	}
	if parent, ok := parentOf(schema); ok {
		t.Parent = declaredName(parent)
	}
	if t.Fields, err = t.loadFields(schema, t.addOverride); err != nil {
		return nil, fmt.Errorf("type %q: %w", t.Name, err)
	}
	meta, err := safeMeta(schema)
	if err != nil {
		return nil, fmt.Errorf("type %q: %w", t.Name, err)
	}
	for _, m := range meta {
		fd := m.Descriptor()
		f, err := NewField(fd)
		if err != nil {
			return nil, fmt.Errorf("type %q: meta %w", t.Name, err)
		}
		t.Meta = append(t.Meta, f)
		if fd.Override != nil {
			if t.TypelizeMeta == nil {
				t.TypelizeMeta = make(map[string]*Override)
			}
			t.TypelizeMeta[f.ColumnName()] = NewOverride(fd.Override)
		}
	}
	traits, err := safeTraits(schema)
	if err != nil {
		return nil, fmt.Errorf("type %q: %w", t.Name, err)
	}
	for _, tr := range traits {
		nt := &Trait{Name: tr.Name()}
		add := func(column string, o *field.Override) {
			if o == nil {
				return
			}
			if nt.Typelize == nil {
				nt.Typelize = make(map[string]*Override)
			}
			nt.Typelize[column] = NewOverride(o)
		}
		if nt.Fields, err = t.loadFields(tr, add); err != nil {
			return nil, fmt.Errorf("type %q: trait %q: %w", t.Name, nt.Name, err)
		}
		t.Traits = append(t.Traits, nt)
	}
	return t, nil
}

// FromSchemas marshals the declared Go types and builds their registry.
func FromSchemas(schemas ...shapegen.Interface) (*Registry, error) {
	names := make(map[string]string, len(schemas))
	types := make([]*Type, 0, len(schemas))
	for _, s := range schemas {
		t, err := MarshalSchema(s)
		if err != nil {
			return nil, err
		}
		names[indirect(reflect.TypeOf(s)).Name()] = t.Name
		types = append(types, t)
	}
	var remap func(fields []*Field)
	remap = func(fields []*Field) {
		for _, f := range fields {
			if name, ok := names[f.Ref]; ok {
				f.Ref = name
			}
			if f.Inline != nil {
				remap(f.Inline.Fields)
			}
		}
	}
	for _, t := range types {
		remap(t.Fields)
		for _, tr := range t.Traits {
			remap(tr.Fields)
		}
	}
	return NewRegistry(types...)
}

type fieldSource interface {
	Fields() []shapegen.Field
	Edges() []shapegen.Edge
}

// loadFields loads fields followed by edges, reporting explicit
// overrides to add.
func (t *Type) loadFields(src fieldSource, add func(string, *field.Override)) ([]*Field, error) {
	fields, err := safeFields(src)
	if err != nil {
		return nil, err
	}
	var loaded []*Field
	for _, f := range fields {
		fd := f.Descriptor()
		nf, err := NewField(fd)
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, nf)
		add(nf.ColumnName(), fd.Override)
	}
	edges, err := safeEdges(src)
	if err != nil {
		return nil, err
	}
	for _, e := range edges {
		ed := e.Descriptor()
		nf, err := NewEdge(ed)
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, nf)
		add(nf.ColumnName(), ed.Override)
	}
	return loaded, nil
}

func (t *Type) addOverride(column string, o *field.Override) {
	if o == nil {
		return
	}
	if t.Typelize == nil {
		t.Typelize = make(map[string]*Override)
	}
	t.Typelize[column] = NewOverride(o)
}

var schemaType = reflect.TypeOf(shapegen.Schema{})

// parentOf returns the declared type embedded in schema, if any.
func parentOf(schema shapegen.Interface) (shapegen.Interface, bool) {
	v := reflect.ValueOf(schema)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, false
	}
	for i := range v.NumField() {
		sf := v.Type().Field(i)
		if !sf.Anonymous || sf.Type == schemaType {
			continue
		}
		fv := v.Field(i)
		if !fv.CanInterface() {
			continue
		}
		if p, ok := fv.Interface().(shapegen.Interface); ok {
			return p, true
		}
	}
	return nil, false
}

// declaredName returns the configured name of the schema, or its Go type
// name. A name promoted unchanged from the parent is not inherited.
func declaredName(schema shapegen.Interface) string {
	goName := indirect(reflect.TypeOf(schema)).Name()
	conf, err := safeConfig(schema)
	if err != nil || conf.Name == "" {
		return goName
	}
	if parent, ok := parentOf(schema); ok {
		if pc, err := safeConfig(parent); err == nil && pc.Name == conf.Name {
			return goName
		}
	}
	return conf.Name
}

func columnOrEmpty(name, column string) string {
	if column == name {
		return ""
	}
	return column
}

// safeFields wraps the Fields method with recover to ensure no panics in marshaling.
func safeFields(fd interface{ Fields() []shapegen.Field }) (fields []shapegen.Field, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("%T.Fields panics: %v", fd, v)
			fields = nil
		}
	}()
	return fd.Fields(), nil
}

// safeEdges wraps the Edges method with recover to ensure no panics in marshaling.
func safeEdges(schema interface{ Edges() []shapegen.Edge }) (edges []shapegen.Edge, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("%T.Edges panics: %v", schema, v)
			edges = nil
		}
	}()
	return schema.Edges(), nil
}

// safeMeta wraps the schema.Meta method with recover to ensure no panics in marshaling.
func safeMeta(schema shapegen.Interface) (meta []shapegen.Field, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("schema.Meta panics: %v", v)
			meta = nil
		}
	}()
	return schema.Meta(), nil
}

// safeTraits wraps the schema.Traits method with recover to ensure no panics in marshaling.
func safeTraits(schema shapegen.Interface) (traits []shapegen.Trait, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("schema.Traits panics: %v", v)
			traits = nil
		}
	}()
	return schema.Traits(), nil
}

// safeConfig wraps the schema.Config method with recover to ensure no panics in marshaling.
func safeConfig(schema shapegen.Interface) (conf shapegen.Config, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("schema.Config panics: %v", v)
		}
	}()
	return schema.Config(), nil
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
