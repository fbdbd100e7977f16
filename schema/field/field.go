package field

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Kind describes how a field obtains its value.
type Kind string

// Field kinds.
const (
	KindAttribute Kind = "attribute" // Read from a model attribute or column.
	KindMethod    Kind = "method"    // Computed by the serializer.
)

// Descriptor for field configuration.
type Descriptor struct {
	Name        string    // rendered key
	Column      string    // source attribute name, defaults to Name
	Kind        Kind      // attribute or method
	Typed       string    // type already known to the serializer, e.g. "Integer"
	Conditional bool      // rendered only under a condition
	Override    *Override // explicit typing, nil when none was declared
	Err         error
}

// Override holds explicitly declared typing for one field.
// Pointer fields are unset when nil.
type Override struct {
	Type        string
	Optional    *bool
	Nullable    *bool
	Multi       *bool
	Comment     string
	SkipComment bool
	Enum        []string
	SkipEnum    bool
}

// Attr returns a new field backed by the model attribute of the same name.
func Attr(name string) *Builder {
	return &Builder{desc: &Descriptor{Name: name, Column: name, Kind: KindAttribute}}
}

// Method returns a new field computed by the serializer.
func Method(name string) *Builder {
	return &Builder{desc: &Descriptor{Name: name, Column: name, Kind: KindMethod}}
}

// Typed returns a new attribute field with a serializer-level type,
// e.g. field.Typed("age", "Integer").
func Typed(name, typ string) *Builder {
	b := Attr(name)
	b.desc.Typed = typ
	return b
}

// Builder for fields.
type Builder struct {
	desc *Descriptor
}

// Column sets the source attribute name of the field.
func (b *Builder) Column(name string) *Builder {
	if name == "" {
		b.desc.Err = errors.Join(b.desc.Err, fmt.Errorf("field %q: empty column name", b.desc.Name))
		return b
	}
	b.desc.Column = name
	return b
}

// If marks the field as conditionally rendered.
func (b *Builder) If() *Builder {
	b.desc.Conditional = true
	return b
}

// Type declares the rendered type of the field. Shortcuts are
// accepted: "string?" is optional, "string[]" is multi and
// "string[]?" is both.
func (b *Builder) Type(t string) *Builder {
	o := b.override()
	name, optional, multi := ParseType(t)
	if name == "" {
		b.desc.Err = errors.Join(b.desc.Err, fmt.Errorf("field %q: invalid type %q", b.desc.Name, t))
		return b
	}
	o.Type = name
	if optional {
		o.Optional = ptr(true)
	}
	if multi {
		o.Multi = ptr(true)
	}
	return b
}

// Optional marks the key as optional.
func (b *Builder) Optional() *Builder {
	b.override().Optional = ptr(true)
	return b
}

// Nullable marks the value as nullable.
func (b *Builder) Nullable() *Builder {
	b.override().Nullable = ptr(true)
	return b
}

// NotNull marks the value as never null, regardless of the backing column.
func (b *Builder) NotNull() *Builder {
	b.override().Nullable = ptr(false)
	return b
}

// Multi marks the value as a list.
func (b *Builder) Multi() *Builder {
	b.override().Multi = ptr(true)
	return b
}

// Comment sets the comment rendered above the field.
func (b *Builder) Comment(c string) *Builder {
	b.override().Comment = c
	return b
}

// NoComment suppresses the comment provided by the backing model.
func (b *Builder) NoComment() *Builder {
	b.override().SkipComment = true
	return b
}

// Enum sets the allowed values of the field.
func (b *Builder) Enum(values ...string) *Builder {
	b.override().Enum = append([]string(nil), values...)
	return b
}

// NoEnum suppresses the enum values provided by the backing model.
func (b *Builder) NoEnum() *Builder {
	b.override().SkipEnum = true
	return b
}

// Descriptor implements the shapegen.Field interface by returning its descriptor.
func (b *Builder) Descriptor() *Descriptor {
	if b.desc.Name == "" {
		b.desc.Err = errors.Join(b.desc.Err, errors.New("field name cannot be empty"))
	}
	return b.desc
}

func (b *Builder) override() *Override {
	if b.desc.Override == nil {
		b.desc.Override = &Override{}
	}
	return b.desc.Override
}

var typePattern = regexp.MustCompile(`\A(.+?)(\?)?(\[\])?(\?)?\z`)

// ParseType splits a type shortcut into its base name and modifiers.
// A "?" before or after "[]" marks the type optional, "[]" marks it multi.
func ParseType(s string) (name string, optional, multi bool) {
	s = strings.TrimSpace(s)
	m := typePattern.FindStringSubmatch(s)
	if m == nil {
		return s, false, false
	}
	return m[1], m[2] == "?" || m[4] == "?", m[3] == "[]"
}

func ptr[T any](v T) *T { return &v }
