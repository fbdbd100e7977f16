package edge

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/syssam/shapegen/schema/field"
)

// A Descriptor for edge configuration.
type Descriptor struct {
	Name       string              // rendered key
	Column     string              // source association name, defaults to Name
	Type       string              // Go type name of the referenced declared type
	Many       bool                // list of referenced values
	Optional   bool                // the association is declared optional
	ForeignKey string              // backing foreign key column
	Traits     []string            // traits of the referenced type to include
	Inline     []*field.Descriptor // fields of an anonymous nested type
	Override   *field.Override
	Err        error
}

// One returns a new edge rendering a single value of the referenced type.
//
//	edge.One("author", UserSerializer.Type)
func One(name string, t any) *Builder {
	return newBuilder(name, t, false)
}

// Many returns a new edge rendering a list of the referenced type.
//
//	edge.Many("comments", CommentSerializer.Type)
func Many(name string, t any) *Builder {
	return newBuilder(name, t, true)
}

// Inline returns a new edge rendering an anonymous nested type
// built from the given fields.
//
//	edge.Inline("stats", field.Attr("views"), field.Attr("likes"))
func Inline(name string, fields ...interface{ Descriptor() *field.Descriptor }) *Builder {
	b := &Builder{desc: &Descriptor{Name: name, Column: name}}
	for _, f := range fields {
		fd := f.Descriptor()
		if fd.Err != nil {
			b.desc.Err = errors.Join(b.desc.Err, fmt.Errorf("edge %q: %w", name, fd.Err))
		}
		b.desc.Inline = append(b.desc.Inline, fd)
	}
	return b
}

func newBuilder(name string, t any, many bool) *Builder {
	b := &Builder{desc: &Descriptor{Name: name, Column: name, Many: many}}
	b.desc.Type, b.desc.Err = typ(t)
	return b
}

// Builder for edges.
type Builder struct {
	desc *Descriptor
}

// Column sets the source association name.
func (b *Builder) Column(name string) *Builder {
	b.desc.Column = name
	return b
}

// Optional marks the association as optional.
// It is used when the framework associations strategy is configured.
func (b *Builder) Optional() *Builder {
	b.desc.Optional = true
	return b
}

// ForeignKey sets the column whose nullability decides whether a single
// value association is nullable. Defaults to "<column>_id".
func (b *Builder) ForeignKey(column string) *Builder {
	b.desc.ForeignKey = column
	return b
}

// WithTraits includes the named traits of the referenced type.
func (b *Builder) WithTraits(traits ...string) *Builder {
	b.desc.Traits = append(b.desc.Traits, traits...)
	return b
}

// Nullable declares the value as nullable.
func (b *Builder) Nullable() *Builder {
	b.override().Nullable = ptr(true)
	return b
}

// Comment sets the comment rendered above the edge.
func (b *Builder) Comment(c string) *Builder {
	b.override().Comment = c
	return b
}

// Descriptor implements the shapegen.Edge interface by returning its descriptor.
func (b *Builder) Descriptor() *Descriptor {
	if b.desc.Name == "" {
		b.desc.Err = errors.Join(b.desc.Err, errors.New("edge name cannot be empty"))
	}
	if b.desc.ForeignKey == "" && !b.desc.Many {
		b.desc.ForeignKey = b.desc.Column + "_id"
	}
	return b.desc
}

func (b *Builder) override() *field.Override {
	if b.desc.Override == nil {
		b.desc.Override = &field.Override{}
	}
	return b.desc.Override
}

// typ returns the type name of the receiver of a method expression
// such as UserSerializer.Type.
func typ(t any) (string, error) {
	rt := reflect.TypeOf(t)
	if rt == nil || rt.Kind() != reflect.Func || rt.NumIn() == 0 {
		return "", fmt.Errorf("edge: expected a method expression like T.Type, got %T", t)
	}
	in := rt.In(0)
	for in.Kind() == reflect.Pointer {
		in = in.Elem()
	}
	return in.Name(), nil
}

func ptr[T any](v T) *T { return &v }
