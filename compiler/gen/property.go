package gen

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/syssam/shapegen/compiler/load"
)

// Property describes one field of a rendered type.
type Property struct {
	Name string
	// Type is a type name token, e.g. "string" or "Record<string, number>".
	Type string
	// Ref is set instead of Type when the value is another rendered type.
	Ref        *Interface
	Optional   bool
	Nullable   bool
	Multi      bool
	Column     string
	Comment    string
	Enum       []string
	WithTraits []string
	// Field is the declaration the property was built from. It is nil for
	// properties created by transformers.
	Field *load.Field
}

// Clone returns a copy of p.
func (p *Property) Clone() *Property {
	c := *p
	c.Enum = slices.Clone(p.Enum)
	c.WithTraits = slices.Clone(p.WithTraits)
	return &c
}

// TypeName renders the value type without modifiers. Enum values take
// precedence over the type, then the referenced type name, then the
// type token; "unknown" is used when nothing is known.
func (p *Property) TypeName() string {
	if len(p.Enum) > 0 {
		values := make([]string, len(p.Enum))
		for i, v := range p.Enum {
			values[i] = strconv.Quote(v)
		}
		return strings.Join(values, " | ")
	}
	if p.Ref != nil {
		name := p.Ref.Name()
		if len(p.WithTraits) > 0 && !p.Ref.Inline() {
			parts := []string{name}
			for _, t := range p.WithTraits {
				parts = append(parts, traitName(name, t))
			}
			name = strings.Join(parts, " & ")
		}
		return name
	}
	if p.Type != "" {
		return p.Type
	}
	return "unknown"
}

// String renders the property as an object type member, e.g.
// "tags?: Array<string> | null".
func (p *Property) String() string {
	typ := p.TypeName()
	if p.Multi {
		typ = "Array<" + typ + ">"
	}
	if p.Nullable {
		typ += " | null"
	}
	name := p.Name
	if !identPattern.MatchString(name) {
		name = strconv.Quote(name)
	}
	if p.Optional {
		name += "?"
	}
	return name + ": " + typ
}

var identPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Fingerprint renders every set field of the property canonically.
func (p *Property) Fingerprint() string {
	var b strings.Builder
	b.WriteString("<Property name=")
	b.WriteString(strconv.Quote(p.Name))
	b.WriteString(" type=")
	b.WriteString(strconv.Quote(p.TypeName()))
	b.WriteString(" optional=")
	b.WriteString(strconv.FormatBool(p.Optional))
	b.WriteString(" nullable=")
	b.WriteString(strconv.FormatBool(p.Nullable))
	b.WriteString(" multi=")
	b.WriteString(strconv.FormatBool(p.Multi))
	if p.Column != "" {
		b.WriteString(" column=")
		b.WriteString(strconv.Quote(p.Column))
	}
	if p.Comment != "" {
		b.WriteString(" comment=")
		b.WriteString(strconv.Quote(p.Comment))
	}
	if len(p.Enum) > 0 {
		b.WriteString(" enum=")
		b.WriteString(quoteList(p.Enum))
	}
	if len(p.WithTraits) > 0 {
		b.WriteString(" with_traits=")
		b.WriteString(quoteList(p.WithTraits))
	}
	b.WriteString(">")
	return b.String()
}

// apply overwrites the fields declared by o.
func (p *Property) apply(o *load.Override) {
	if o.Type != "" {
		p.Type = o.Type
		p.Ref = nil
	}
	if o.Optional != nil {
		p.Optional = *o.Optional
	}
	if o.Nullable != nil {
		p.Nullable = *o.Nullable
	}
	if o.Multi != nil {
		p.Multi = *o.Multi
	}
	if o.Comment != "" {
		p.Comment = o.Comment
	}
	if len(o.Enum) > 0 {
		p.Enum = slices.Clone(o.Enum)
	}
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// fingerprints returns the set of property fingerprints.
func fingerprints(props []*Property) map[string]bool {
	set := make(map[string]bool, len(props))
	for _, p := range props {
		set[p.Fingerprint()] = true
	}
	return set
}
