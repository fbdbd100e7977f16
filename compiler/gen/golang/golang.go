// Package golang implements the "go" flavor: every node is rendered as a
// Go struct with JSON tags, one file per node, in a single package.
//
// Import the package for its side effect to make the flavor available:
//
//	import _ "github.com/syssam/shapegen/compiler/gen/golang"
//
// The package name defaults to the base name of the output directory and
// can be set through the plugin configs:
//
//	plugin_configs:
//	  go:
//	    package: apitypes
package golang

import (
	"bytes"
	"fmt"
	"go/token"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"
	"golang.org/x/tools/imports"

	"github.com/syssam/shapegen/compiler/gen"
)

func init() {
	gen.RegisterFlavor(Flavor{})
}

// DefaultPackage is the package name used when none can be derived.
const DefaultPackage = "types"

// Flavor renders nodes as Go structs.
type Flavor struct{}

// Name implements gen.Flavor.
func (Flavor) Name() string { return "go" }

// Ext implements gen.Flavor.
func (Flavor) Ext() string { return ".go" }

// Header implements gen.Flavor.
func (Flavor) Header(digest string) string {
	return "// Code generated by shapegen. DO NOT EDIT.\n// shapegen digest " + digest + "\n\n"
}

// Filename implements gen.Flavor. Namespaces are folded into the file
// name since all nodes share one package.
func (Flavor) Filename(n *gen.Interface) string {
	return inflect.Underscore(n.Name()) + ".go"
}

// IndexFilename implements gen.Flavor.
func (Flavor) IndexFilename() string { return "doc.go" }

// RenderInterface implements gen.Flavor.
func (Flavor) RenderInterface(n *gen.Interface) ([]byte, error) {
	c := n.Config()
	f := jen.NewFile(Package(c))
	body := n.PropertiesToPrint()
	name := n.Name()
	if key := n.RootKey(); key != "" {
		name = n.Name() + "Data"
	}
	f.Commentf("%s is generated from %s.", name, n.Type().Name)
	f.Type().Id(name).StructFunc(func(g *jen.Group) {
		if parent := n.ParentType(); parent != "" {
			g.Id(parent)
		}
		fields(g, body, c)
	})
	if key := n.RootKey(); key != "" {
		wrapper := append([]*gen.Property{{Name: key, Type: name}}, n.MetaFields()...)
		f.Commentf("%s wraps %s under the %q key.", n.Name(), name, key)
		f.Type().Id(n.Name()).StructFunc(func(g *jen.Group) {
			fields(g, wrapper, c)
		})
	}
	for _, t := range n.Traits() {
		f.Commentf("%s holds the fields of the %s trait.", t.Name, t.Trait)
		f.Type().Id(t.Name).StructFunc(func(g *jen.Group) {
			fields(g, t.Properties, c)
		})
	}
	return render(f, n.Name())
}

// RenderIndex implements gen.Flavor. The index is the package doc file.
func (Flavor) RenderIndex(nodes []*gen.Interface) ([]byte, error) {
	pkg := DefaultPackage
	if len(nodes) > 0 {
		pkg = Package(nodes[0].Config())
	}
	f := jen.NewFile(pkg)
	f.PackageComment(fmt.Sprintf("Package %s holds the types generated by shapegen.", pkg))
	return render(f, "doc")
}

// Package returns the package name of the generated files of c.
func Package(c *gen.Config) string {
	if v, ok := c.PluginConfig("go")["package"].(string); ok && token.IsIdentifier(v) {
		return v
	}
	base := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, filepath.Base(c.OutputDir))
	if !token.IsIdentifier(base) || token.IsKeyword(base) {
		return DefaultPackage
	}
	return base
}

func fields(g *jen.Group, props []*gen.Property, c *gen.Config) {
	for _, p := range props {
		if c.Comments && p.Comment != "" {
			g.Comment(strings.TrimSpace(p.Comment))
		}
		tag := p.Name
		if p.Optional {
			tag += ",omitempty"
		}
		g.Id(FieldName(p.Name)).Add(goType(p, c)).Tag(map[string]string{"json": tag})
	}
}

func goType(p *gen.Property, c *gen.Config) *jen.Statement {
	var t *jen.Statement
	pointer := p.Nullable || p.Optional
	switch {
	case len(p.Enum) > 0:
		t = jen.String()
	case p.Ref != nil && p.Ref.Inline():
		t = jen.StructFunc(func(g *jen.Group) {
			fields(g, p.Ref.Properties(), c)
		})
	case p.Ref != nil:
		t, pointer = jen.Id(p.Ref.Name()), true
	default:
		t = scalar(p.TypeName())
		if _, ok := anyTypes[p.TypeName()]; ok || !token.IsIdentifier(p.TypeName()) {
			pointer = false
		}
	}
	switch {
	case p.Multi:
		return jen.Index().Add(t)
	case pointer:
		return jen.Op("*").Add(t)
	default:
		return t
	}
}

var anyTypes = map[string]struct{}{"unknown": {}, "any": {}, "object": {}, "null": {}}

// scalar maps a rendered type name to a Go type. Names that are not
// plain identifiers, like unions, map to any.
func scalar(name string) *jen.Statement {
	switch name {
	case "string":
		return jen.String()
	case "number":
		return jen.Float64()
	case "boolean":
		return jen.Bool()
	}
	if _, ok := anyTypes[name]; ok || !token.IsIdentifier(name) {
		return jen.Any()
	}
	return jen.Id(name)
}

var initialisms = map[string]bool{
	"API": true, "HTML": true, "HTTP": true, "ID": true, "IP": true,
	"JSON": true, "SQL": true, "URL": true, "UUID": true, "XML": true,
}

// FieldName returns the exported Go name of a property name, e.g.
// "user_id" and "userId" both become "UserID".
func FieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, part := range parts {
		for _, word := range splitCamel(part) {
			if up := strings.ToUpper(word); initialisms[up] {
				b.WriteString(up)
				continue
			}
			r := []rune(word)
			r[0] = unicode.ToUpper(r[0])
			b.WriteString(string(r))
		}
	}
	s := b.String()
	if s == "" || !unicode.IsLetter([]rune(s)[0]) {
		s = "X" + s
	}
	return s
}

// splitCamel splits "userId" into "user" and "Id".
func splitCamel(s string) []string {
	var words []string
	start := 0
	r := []rune(s)
	for i := 1; i < len(r); i++ {
		if unicode.IsUpper(r[i]) && unicode.IsLower(r[i-1]) {
			words = append(words, string(r[start:i]))
			start = i
		}
	}
	return append(words, string(r[start:]))
}

// render formats the file the way goimports does, so generated files
// group and order their imports like hand-written code.
func render(f *jen.File, name string) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, gen.NewGenerationError("render", name, "format go source", err)
	}
	out, err := imports.Process(name+".go", buf.Bytes(), nil)
	if err != nil {
		return nil, gen.NewGenerationError("render", name, "process imports", err)
	}
	return out, nil
}
