package gen

import (
	"bytes"
	"embed"
	"fmt"
	"slices"
	"strings"
	"text/template"
)

var (
	//go:embed template/*.tmpl
	templateFS embed.FS

	templates = template.Must(template.New("typescript").
			Funcs(template.FuncMap{"join": strings.Join}).
			ParseFS(templateFS, "template/*.tmpl"))
)

func init() {
	RegisterFlavor(TypeScript{})
}

// TypeScript renders nodes as TypeScript type aliases.
type TypeScript struct{}

// Name implements Flavor.
func (TypeScript) Name() string { return "typescript" }

// Ext implements Flavor.
func (TypeScript) Ext() string { return ".ts" }

// Header implements Flavor.
func (TypeScript) Header(digest string) string {
	return "// shapegen digest " + digest + "\n//\n// DO NOT MODIFY: This file was automatically generated by shapegen.\n"
}

// Filename implements Flavor.
func (TypeScript) Filename(n *Interface) string { return n.Filename() + ".ts" }

// IndexFilename implements Flavor.
func (TypeScript) IndexFilename() string { return "index.ts" }

type tsFile struct {
	Imports []string
	From    string
	Decls   []string
	Default string
}

// RenderInterface implements Flavor.
func (TypeScript) RenderInterface(n *Interface) ([]byte, error) {
	c := n.Config()
	f := tsFile{
		Imports: n.Imports(),
		From:    n.Quote(c.TypesImportPath),
	}
	body := objectType(n.PropertiesToPrint(), c)
	if parent := n.ParentType(); parent != "" {
		if over := n.OverwrittenProperties(); len(over) > 0 {
			keys := make([]string, len(over))
			for i, p := range over {
				keys[i] = n.Quote(p.Name)
			}
			body = fmt.Sprintf("Omit<%s, %s> & %s", parent, strings.Join(keys, " | "), body)
		} else {
			body = parent + " & " + body
		}
	}
	if key := n.RootKey(); key != "" {
		f.Decls = append(f.Decls, "export type "+n.Name()+"Data = "+body+";")
		wrapper := append([]*Property{{Name: key, Type: n.Name() + "Data"}}, n.MetaFields()...)
		body = objectType(wrapper, c)
	}
	if c.VerbatimModuleSyntax {
		f.Decls = append(f.Decls, "export type "+n.Name()+" = "+body+";")
	} else {
		f.Decls = append(f.Decls, "type "+n.Name()+" = "+body+";")
		f.Default = n.Name()
	}
	for _, t := range n.Traits() {
		f.Decls = append(f.Decls, "export type "+t.Name+" = "+objectType(t.Properties, c)+";")
	}
	return execute("interface.tmpl", f)
}

// RenderIndex implements Flavor.
func (TypeScript) RenderIndex(nodes []*Interface) ([]byte, error) {
	nodes = slices.Clone(nodes)
	slices.SortFunc(nodes, func(a, b *Interface) int { return strings.Compare(a.Filename(), b.Filename()) })
	var lines []string
	for _, n := range nodes {
		c := n.Config()
		from := n.Quote("./" + n.Filename())
		if c.VerbatimModuleSyntax {
			lines = append(lines, "export type * from "+from+";")
			continue
		}
		lines = append(lines, "export type { default as "+n.Name()+" } from "+from+";")
		if exports := n.Exports(); len(exports) > 0 {
			lines = append(lines, "export type { "+strings.Join(exports, ", ")+" } from "+from+";")
		}
	}
	return execute("index.tmpl", struct{ Lines []string }{lines})
}

func execute(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, NewGenerationError("render", name, "execute template", err)
	}
	return buf.Bytes(), nil
}

// objectType renders props as an object type literal.
func objectType(props []*Property, c *Config) string {
	if len(props) == 0 {
		return "{}"
	}
	var b strings.Builder
	b.WriteString("{\n")
	for _, p := range props {
		if c.Comments && p.Comment != "" {
			writeComment(&b, p.Comment)
		}
		b.WriteString("  ")
		b.WriteString(Indent(p.String(), 2))
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}

func writeComment(b *strings.Builder, comment string) {
	lines := strings.Split(strings.TrimSpace(comment), "\n")
	if len(lines) == 1 {
		b.WriteString("  /** " + lines[0] + " */\n")
		return
	}
	b.WriteString("  /**\n")
	for _, l := range lines {
		b.WriteString(strings.TrimRight("   * "+l, " ") + "\n")
	}
	b.WriteString("   */\n")
}
