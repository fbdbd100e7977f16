package graphql

import (
	"bytes"
	"maps"
	"regexp"
	"slices"

	"github.com/go-openapi/inflect"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"

	"github.com/syssam/shapegen/compiler/gen"
)

func init() {
	gen.RegisterFlavor(Flavor{})
}

// JSONScalar is the scalar that unknown and union types map to.
const JSONScalar = "JSON"

// builtin holds the scalars every GraphQL schema defines.
var builtin = map[string]bool{"String": true, "Float": true, "Int": true, "Boolean": true, "ID": true}

var (
	nameRe    = regexp.MustCompile(`^[_A-Za-z][_0-9A-Za-z]*$`)
	invalidRe = regexp.MustCompile(`[^_0-9A-Za-z]`)
)

// Flavor renders nodes as GraphQL SDL.
type Flavor struct{}

// Name implements gen.Flavor.
func (Flavor) Name() string { return "graphql" }

// Ext implements gen.Flavor.
func (Flavor) Ext() string { return ".graphql" }

// Header implements gen.Flavor.
func (Flavor) Header(digest string) string {
	return "# shapegen digest " + digest + "\n#\n# DO NOT MODIFY: This file was automatically generated by shapegen.\n\n"
}

// Filename implements gen.Flavor.
func (Flavor) Filename(n *gen.Interface) string { return n.Filename() + ".graphql" }

// IndexFilename implements gen.Flavor.
func (Flavor) IndexFilename() string { return "schema.graphql" }

// RenderInterface implements gen.Flavor.
func (Flavor) RenderInterface(n *gen.Interface) ([]byte, error) {
	b := newBuilder(n)
	return format(b.document()), nil
}

// RenderIndex implements gen.Flavor. The index declares the scalars the
// nodes refer to but no node defines.
func (Flavor) RenderIndex(nodes []*gen.Interface) ([]byte, error) {
	defined := make(map[string]bool)
	used := make(map[string]bool)
	for _, n := range nodes {
		b := newBuilder(n)
		for _, d := range b.document().Definitions {
			defined[d.Name] = true
		}
		maps.Copy(used, b.named)
	}
	doc := &ast.SchemaDocument{}
	for _, name := range slices.Sorted(maps.Keys(used)) {
		if !defined[name] && !builtin[name] {
			doc.Definitions = append(doc.Definitions, &ast.Definition{Kind: ast.Scalar, Name: name})
		}
	}
	return format(doc), nil
}

// builder collects the definitions of one node file.
type builder struct {
	n     *gen.Interface
	c     *gen.Config
	doc   *ast.SchemaDocument
	named map[string]bool
}

func newBuilder(n *gen.Interface) *builder {
	return &builder{n: n, c: n.Config(), named: make(map[string]bool)}
}

func (b *builder) document() *ast.SchemaDocument {
	if b.doc != nil {
		return b.doc
	}
	b.doc = &ast.SchemaDocument{}
	name := b.n.Name()
	if key := b.n.RootKey(); key != "" {
		b.object(name+"Data", b.n.Properties())
		wrapper := append([]*gen.Property{{Name: key, Type: name + "Data"}}, b.n.MetaFields()...)
		b.object(name, wrapper)
	} else {
		b.object(name, b.n.Properties())
	}
	for _, t := range b.n.Traits() {
		b.object(t.Name, t.Properties)
	}
	return b.doc
}

// object defines an object type. Types without fields are not valid
// GraphQL and are skipped.
func (b *builder) object(name string, props []*gen.Property) bool {
	if len(props) == 0 {
		return false
	}
	def := &ast.Definition{Kind: ast.Object, Name: name}
	for _, p := range props {
		f := &ast.FieldDefinition{Name: FieldName(p.Name), Type: b.fieldType(name, p)}
		if b.c.Comments {
			f.Description = p.Comment
		}
		def.Fields = append(def.Fields, f)
	}
	b.doc.Definitions = append(b.doc.Definitions, def)
	return true
}

func (b *builder) fieldType(owner string, p *gen.Property) *ast.Type {
	named := b.namedType(owner, p)
	b.named[named] = true
	nonNull := !p.Nullable && !p.Optional
	if p.Multi {
		return &ast.Type{Elem: ast.NonNullNamedType(named, nil), NonNull: nonNull}
	}
	return &ast.Type{NamedType: named, NonNull: nonNull}
}

func (b *builder) namedType(owner string, p *gen.Property) string {
	switch {
	case len(p.Enum) > 0:
		return b.enum(owner+inflect.Camelize(p.Name), p.Enum)
	case p.Ref != nil && p.Ref.Inline():
		name := owner + inflect.Camelize(p.Name)
		if !b.object(name, p.Ref.Properties()) {
			return JSONScalar
		}
		return name
	case p.Ref != nil:
		return p.Ref.Name()
	}
	switch t := p.TypeName(); t {
	case "string":
		return "String"
	case "number":
		if p.Name == "id" {
			return "ID"
		}
		return "Float"
	case "boolean":
		return "Boolean"
	case "unknown", "any", "object", "null":
		return JSONScalar
	default:
		if nameRe.MatchString(t) {
			return t
		}
		return JSONScalar
	}
}

// enum defines an enum type, or returns String when a value is not a
// valid enum value name.
func (b *builder) enum(name string, values []string) string {
	def := &ast.Definition{Kind: ast.Enum, Name: name}
	for _, v := range values {
		if !nameRe.MatchString(v) || v == "true" || v == "false" || v == "null" {
			return "String"
		}
		def.EnumValues = append(def.EnumValues, &ast.EnumValueDefinition{Name: v})
	}
	b.doc.Definitions = append(b.doc.Definitions, def)
	return name
}

// FieldName returns a valid GraphQL field name for a property name.
func FieldName(name string) string {
	name = invalidRe.ReplaceAllString(name, "_")
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "_" + name
	}
	return name
}

func format(doc *ast.SchemaDocument) []byte {
	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatSchemaDocument(doc)
	return buf.Bytes()
}
