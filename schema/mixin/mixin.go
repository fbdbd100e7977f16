package mixin

import (
	"github.com/syssam/shapegen"
	"github.com/syssam/shapegen/schema/field"
)

// Schema is the default implementation for the shapegen.Trait interface.
// It should be embedded in all custom trait definitions, which then
// override Name and the methods they need.
//
// Example:
//
//	type Profile struct {
//	    mixin.Schema
//	}
//
//	func (Profile) Name() string { return "profile" }
//
//	func (Profile) Fields() []shapegen.Field {
//	    return []shapegen.Field{
//	        field.Attr("bio"),
//	    }
//	}
type Schema struct{}

// Name returns the trait name.
func (Schema) Name() string { return "" }

// Fields returns the fields of the trait.
func (Schema) Fields() []shapegen.Field { return nil }

// Edges returns the edges of the trait.
func (Schema) Edges() []shapegen.Edge { return nil }

var _ shapegen.Trait = (*Schema)(nil)

// New returns a trait with the given name and fields.
//
//	mixin.New("contact", field.Attr("email"), field.Attr("phone"))
func New(name string, fields ...shapegen.Field) shapegen.Trait {
	return trait{name: name, fields: fields}
}

// WithEdges returns a copy of the trait with the given edges appended.
func WithEdges(t shapegen.Trait, edges ...shapegen.Edge) shapegen.Trait {
	return trait{
		name:   t.Name(),
		fields: t.Fields(),
		edges:  append(append([]shapegen.Edge(nil), t.Edges()...), edges...),
	}
}

type trait struct {
	name   string
	fields []shapegen.Field
	edges  []shapegen.Edge
}

func (t trait) Name() string             { return t.name }
func (t trait) Fields() []shapegen.Field { return t.fields }
func (t trait) Edges() []shapegen.Edge   { return t.edges }

// =============================================================================
// Built-in Traits
// =============================================================================

// Timestamps is the "timestamps" trait holding created_at and updated_at.
//
// Example:
//
//	func (PostSerializer) Traits() []shapegen.Trait {
//	    return []shapegen.Trait{
//	        mixin.Timestamps{},
//	    }
//	}
type Timestamps struct {
	Schema
}

// Name returns "timestamps".
func (Timestamps) Name() string { return "timestamps" }

// Fields returns the timestamp fields.
func (Timestamps) Fields() []shapegen.Field {
	return []shapegen.Field{
		field.Attr("created_at").Comment("Timestamp when the record was created"),
		field.Attr("updated_at").Comment("Timestamp when the record was last updated"),
	}
}

// SoftDelete is the "soft_delete" trait holding a nullable deleted_at.
type SoftDelete struct {
	Schema
}

// Name returns "soft_delete".
func (SoftDelete) Name() string { return "soft_delete" }

// Fields returns the soft delete field.
func (SoftDelete) Fields() []shapegen.Field {
	return []shapegen.Field{
		field.Attr("deleted_at").Type("string").Nullable(),
	}
}
