package gen

import (
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-openapi/inflect"

	"github.com/syssam/shapegen/compiler/load"
)

// Interface is the resolved, writer-scoped node of one declared type.
// Nodes are created by WriterContext.InterfaceFor, which guarantees a
// single node per declared type and context.
type Interface struct {
	ctx *WriterContext
	id  load.ID
	typ *load.Type
	err error

	config     *Config
	name       string
	rootKey    string
	properties []*Property
	meta       []*Property
	traits     []*TraitInterface

	imports     []string
	importsDone bool
}

// TraitInterface is the rendered type of one trait of a node.
type TraitInterface struct {
	// Name is the rendered type name, e.g. "UserProfileTrait".
	Name string
	// Trait is the declared trait name, e.g. "profile".
	Trait      string
	Properties []*Property
}

// Fingerprint renders the trait canonically.
func (t *TraitInterface) Fingerprint() string {
	return t.Name + "=[" + joinFingerprints(t.Properties) + "]"
}

func (n *Interface) resolve() error {
	ctx := n.ctx
	c, err := ctx.ConfigFor(n.id)
	if err != nil {
		return err
	}
	n.config = c
	if !n.typ.Inline() {
		n.name = strings.ReplaceAll(c.MapName(n.typ.Name), ":", "")
	}
	serializer, err := serializerFor(c)
	if err != nil {
		return err
	}
	factory, err := modelPluginFor(c)
	if err != nil {
		return err
	}
	decl := ctx.declaring(n.id)
	view := *n.typ
	view.Serializer = ctx.inherited(decl, func(t *load.Type) string { return t.Serializer })
	var model string
	if !n.typ.Inline() {
		view.RootKey = ctx.inherited(n.id, func(t *load.Type) string { return t.RootKey })
		model = ctx.model(n.id, c)
	}
	if model != "" && c.ModelPlugin != "poro" {
		if ctx.catalog == nil {
			ctx.logger.Debug("no catalog, skipping model inference", "type", n.typ.Name, "model", model)
		} else if _, ok := ctx.catalog.Model(model); !ok {
			ctx.logger.Debug("backing model not found, skipping model inference", "type", n.typ.Name, "model", model)
		}
	}
	mp := factory(model, c, ctx.catalog)

	overrides, err := ctx.FieldOverrides(n.id, false)
	if err != nil {
		return err
	}
	if n.properties, err = n.infer(serializer.Properties(&view, n.typ.Fields, c), overrides, mp); err != nil {
		return err
	}
	if n.properties, err = n.finish(n.properties); err != nil {
		return err
	}
	if n.typ.Inline() {
		n.name = inlineName(n.properties)
	}
	metaOverrides, err := ctx.FieldOverrides(n.id, true)
	if err != nil {
		return err
	}
	if n.meta, err = n.infer(serializer.Properties(&view, n.typ.Meta, c), metaOverrides, mp); err != nil {
		return err
	}
	if len(n.meta) > 0 {
		if n.meta, err = n.finish(n.meta); err != nil {
			return err
		}
	}
	n.rootKey = serializer.RootKey(&view, c)
	for _, tr := range n.typ.Traits {
		props, err := n.infer(serializer.Properties(&view, tr.Fields, c), tr.Typelize, mp)
		if err != nil {
			return err
		}
		slices.SortStableFunc(props, func(a, b *Property) int { return strings.Compare(a.Name, b.Name) })
		n.traits = append(n.traits, &TraitInterface{
			Name:       traitName(n.name, tr.Name),
			Trait:      tr.Name,
			Properties: props,
		})
	}
	// The parent may still be resolving when it refers to this node, so
	// it is only looked up here for its errors. Parent attaches it.
	if c.InheritanceStrategy != InheritanceNone {
		if pid, ok := ctx.registry.Parent(n.id); ok {
			if _, err := ctx.InterfaceFor(pid); err != nil {
				return err
			}
		}
	}
	return nil
}

// infer resolves references, applies explicit overrides and falls back to
// model inference for properties without one.
func (n *Interface) infer(raw []*Property, overrides map[string]*load.Override, mp ModelPlugin) ([]*Property, error) {
	props := make([]*Property, 0, len(raw))
	for _, p := range raw {
		if f := p.Field; f != nil && f.Association() && p.Ref == nil && p.Type == "" {
			ref, err := n.reference(f)
			if err != nil {
				return nil, err
			}
			p.Ref = ref
		}
		if o := overrides[p.Column]; !o.Empty() {
			p = p.Clone()
			p.apply(o)
			if n.config.Comments && !o.SkipComment && p.Comment == "" {
				p.Comment = mp.CommentFor(p)
			}
			if !o.SkipEnum && len(p.Enum) == 0 {
				p.Enum = mp.EnumFor(p)
			}
			props = append(props, p)
			continue
		}
		inferred, err := mp.InferTypes(p)
		if err != nil {
			return nil, NewSchemaError(n.typ.Name, p.Name, "type inference failed", err)
		}
		props = append(props, inferred)
	}
	return props, nil
}

func (n *Interface) reference(f *load.Field) (*Interface, error) {
	if f.Inline != nil {
		return n.ctx.InterfaceFor(f.Inline.ID)
	}
	if f.Ref == "" {
		return nil, nil
	}
	id, ok := n.ctx.registry.Lookup(f.Ref)
	if !ok {
		return nil, NewSchemaError(n.typ.Name, f.Name, fmt.Sprintf("unknown type %q", f.Ref), nil)
	}
	return n.ctx.InterfaceFor(id)
}

// finish applies the configured transformer and sort order to the
// properties or meta fields of the node.
func (n *Interface) finish(props []*Property) (_ []*Property, err error) {
	if fn := n.config.PropertiesTransformer; fn != nil {
		func() {
			defer func() {
				if v := recover(); v != nil {
					err = NewSchemaError(n.typ.Name, "", "properties transformer panics", fmt.Errorf("%v", v))
				}
			}()
			props = fn(props)
		}()
		if err != nil {
			return nil, err
		}
	}
	return SortProperties(props, n.config.SortOrder, n.logger()), nil
}

func (n *Interface) logger() *slog.Logger {
	return n.ctx.logger.With("type", n.typ.Name)
}

// ID returns the declared type id.
func (n *Interface) ID() load.ID { return n.id }

// Type returns the declared type.
func (n *Interface) Type() *load.Type { return n.typ }

// Config returns the effective config of the node.
func (n *Interface) Config() *Config { return n.config }

// Name returns the rendered type name. Inline nodes are named by their
// rendered property block.
func (n *Interface) Name() string { return n.name }

// Inline reports whether the node has no user-facing name.
func (n *Interface) Inline() bool { return n.typ.Inline() }

// Filename returns the output path of the node without extension, with
// namespaces as directories.
func (n *Interface) Filename() string {
	if n.Inline() {
		return ""
	}
	return strings.ReplaceAll(strings.ReplaceAll(n.config.MapName(n.typ.Name), "::", "/"), ":", "")
}

// RootKey returns the key the type is wrapped in, if any.
func (n *Interface) RootKey() string { return n.rootKey }

// Properties returns all properties in their final order.
func (n *Interface) Properties() []*Property { return n.properties }

// MetaFields returns the meta fields rendered next to the root key.
func (n *Interface) MetaFields() []*Property { return n.meta }

// Traits returns the trait types of the node.
func (n *Interface) Traits() []*TraitInterface { return n.traits }

// Parent returns the parent node when inheritance is enabled and the
// parent is not empty. It is looked up on every call, so the answer does
// not depend on the order nodes were resolved in.
func (n *Interface) Parent() *Interface {
	if n.config == nil || n.config.InheritanceStrategy == InheritanceNone || n.typ.Inline() {
		return nil
	}
	pid, ok := n.ctx.registry.Parent(n.id)
	if !ok {
		return nil
	}
	parent := n.ctx.nodes[pid]
	if parent == nil || parent.err != nil || parent.Empty() {
		return nil
	}
	return parent
}

// ParentType returns the type name the node extends, or "" without a
// parent. Parents with a root key are extended through their data type.
func (n *Interface) ParentType() string {
	parent := n.Parent()
	switch {
	case parent == nil:
		return ""
	case parent.rootKey != "":
		return parent.name + "Data"
	default:
		return parent.name
	}
}

// Exports returns the names the node file exports besides the node type.
func (n *Interface) Exports() []string {
	var names []string
	if n.rootKey != "" {
		names = append(names, n.name+"Data")
	}
	for _, t := range n.traits {
		names = append(names, t.Name)
	}
	return names
}

// Empty reports whether the node has neither properties nor meta fields.
func (n *Interface) Empty() bool { return len(n.properties) == 0 && len(n.meta) == 0 }

// OwnProperties returns the properties not present on the parent.
func (n *Interface) OwnProperties() []*Property {
	parent := n.Parent()
	if parent == nil {
		return n.properties
	}
	inherited := fingerprints(parent.properties)
	var own []*Property
	for _, p := range n.properties {
		if !inherited[p.Fingerprint()] {
			own = append(own, p)
		}
	}
	return own
}

// OverwrittenProperties returns the parent properties that this node
// does not share unchanged.
func (n *Interface) OverwrittenProperties() []*Property {
	parent := n.Parent()
	if parent == nil {
		return nil
	}
	mine := fingerprints(n.properties)
	var out []*Property
	for _, p := range parent.properties {
		if !mine[p.Fingerprint()] {
			out = append(out, p)
		}
	}
	return out
}

// PropertiesToPrint returns the properties rendered in the node body.
func (n *Interface) PropertiesToPrint() []*Property {
	if n.Parent() != nil {
		return n.OwnProperties()
	}
	return n.properties
}

var typeDelimiters = regexp.MustCompile(`[<>\[\],\s|&]+`)

// Imports returns the sorted type names the node refers to: custom type
// tokens, referenced named nodes, referenced trait types and the parent.
// The node's own name is never included.
func (n *Interface) Imports() []string {
	if n.importsDone {
		return n.imports
	}
	n.importsDone = true
	seen := map[string]bool{n.name: true}
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			n.imports = append(n.imports, name)
		}
	}
	all := slices.Concat(n.PropertiesToPrint(), n.meta)
	for _, t := range n.traits {
		all = append(all, t.Properties...)
	}
	for _, p := range all {
		switch {
		case p.Ref != nil && p.Ref.Inline():
			for _, name := range p.Ref.Imports() {
				add(name)
			}
		case p.Ref != nil:
			if p.Ref.Name() == n.name {
				continue
			}
			add(p.Ref.Name())
			for _, t := range p.WithTraits {
				add(traitName(p.Ref.Name(), t))
			}
		case len(p.Enum) == 0 && p.Type != "":
			for _, token := range typeDelimiters.Split(p.Type, -1) {
				if token != "" && !n.globalType(token) {
					add(token)
				}
			}
		}
	}
	add(n.ParentType())
	slices.Sort(n.imports)
	return n.imports
}

// InterfaceImports returns the imported names that are generated nodes
// or their trait types.
func (n *Interface) InterfaceImports() []string {
	var out []string
	for _, name := range n.Imports() {
		if n.generated(name) {
			out = append(out, name)
		}
	}
	return out
}

// CustomImports returns the imported names that are not generated.
func (n *Interface) CustomImports() []string {
	var out []string
	for _, name := range n.Imports() {
		if !n.generated(name) {
			out = append(out, name)
		}
	}
	return out
}

func (n *Interface) generated(name string) bool {
	for _, other := range n.ctx.nodes {
		if other.Inline() {
			continue
		}
		if other.name == name || slices.Contains(other.Exports(), name) {
			return true
		}
	}
	return false
}

func (n *Interface) globalType(token string) bool {
	first, _ := utf8.DecodeRuneInString(token)
	return !unicode.IsUpper(first) || slices.Contains(n.config.TypesGlobal, token)
}

// Fingerprint renders the node canonically for change detection.
func (n *Interface) Fingerprint() string {
	var b strings.Builder
	b.WriteString("<Interface ")
	b.WriteString(n.name)
	b.WriteString(" properties=[")
	b.WriteString(joinFingerprints(n.PropertiesToPrint()))
	b.WriteString("]")
	if len(n.traits) > 0 {
		parts := make([]string, len(n.traits))
		for i, t := range n.traits {
			parts[i] = t.Fingerprint()
		}
		b.WriteString(" traits=[")
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString("]")
	}
	if len(n.meta) > 0 {
		b.WriteString(" meta=[")
		b.WriteString(joinFingerprints(n.meta))
		b.WriteString("]")
	}
	if n.rootKey != "" {
		b.WriteString(" root_key=")
		b.WriteString(strconv.Quote(n.rootKey))
	}
	if parent := n.Parent(); parent != nil {
		b.WriteString(" parent=")
		b.WriteString(parent.Name())
	}
	b.WriteString(">")
	return b.String()
}

// Quote quotes s with the configured quote style.
func (n *Interface) Quote(s string) string { return n.config.Quote(s) }

func (n *Interface) String() string {
	return fmt.Sprintf("<Interface %s properties=%d>", n.name, len(n.properties))
}

func joinFingerprints(props []*Property) string {
	parts := make([]string, len(props))
	for i, p := range props {
		parts[i] = p.Fingerprint()
	}
	return strings.Join(parts, ", ")
}

func traitName(base, trait string) string {
	return base + inflect.Camelize(trait) + "Trait"
}

// inlineName renders properties as an anonymous object type.
func inlineName(props []*Property) string {
	var b strings.Builder
	b.WriteString("{\n")
	for _, p := range props {
		b.WriteString("  ")
		b.WriteString(Indent(p.String(), 2))
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}

// Indent indents every line of s but the first by n spaces.
func Indent(s string, n int) string {
	pad := strings.Repeat(" ", n)
	return strings.ReplaceAll(s, "\n", "\n"+pad)
}
