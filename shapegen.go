// Package shapegen holds the contracts for declaring serializable types in Go.
//
// A declared type embeds Schema and overrides the methods it needs:
//
//	type UserSerializer struct{ shapegen.Schema }
//
//	func (UserSerializer) Fields() []shapegen.Field {
//	    return []shapegen.Field{
//	        field.Attr("id"),
//	        field.Attr("email").Type("string").Nullable(),
//	    }
//	}
//
//	func (UserSerializer) Edges() []shapegen.Edge {
//	    return []shapegen.Edge{
//	        edge.Many("posts", PostSerializer.Type),
//	    }
//	}
//
// Embedding another declared type makes it the parent, so its fields, edges
// and per-type configuration are inherited:
//
//	type AdminSerializer struct{ UserSerializer }
package shapegen

import (
	"github.com/syssam/shapegen/schema/edge"
	"github.com/syssam/shapegen/schema/field"
)

type (
	// Interface is implemented by all declared types.
	Interface interface {
		// Type is a marker method used by edge builders to
		// resolve the referenced declared type.
		Type()
		// Fields returns the attributes of the type in declaration order.
		Fields() []Field
		// Edges returns the associations of the type.
		Edges() []Edge
		// Meta returns the meta fields rendered next to the root key.
		Meta() []Field
		// Traits returns the named field groups of the type.
		Traits() []Trait
		// Config returns the per-type configuration.
		Config() Config
	}

	// A Field is an attribute builder.
	Field interface {
		Descriptor() *field.Descriptor
	}

	// An Edge is an association builder.
	Edge interface {
		Descriptor() *edge.Descriptor
	}

	// A Trait is a named group of fields and edges that can be
	// requested by associations pointing at the owning type.
	Trait interface {
		Name() string
		Fields() []Field
		Edges() []Edge
	}

	// Config holds the per-type configuration.
	Config struct {
		// Name overrides the declared name, which defaults to the Go type name.
		// Namespaces are separated by "::".
		Name string
		// Model is the backing storage model. When empty, the model mapper
		// of the effective configuration is used.
		Model string
		// Serializer selects the serializer plugin when the "auto"
		// plugin is configured.
		Serializer string
		// RootKey wraps the rendered type in an object keyed by RootKey.
		RootKey string
		// Settings are configuration overrides, keyed by option name.
		Settings map[string]any
	}
)

// Schema is the default implementation for the Interface.
// It should be embedded in all declared types.
type Schema struct{}

// Type implements the Interface marker method.
func (Schema) Type() {}

// Fields of the declared type.
func (Schema) Fields() []Field { return nil }

// Edges of the declared type.
func (Schema) Edges() []Edge { return nil }

// Meta fields of the declared type.
func (Schema) Meta() []Field { return nil }

// Traits of the declared type.
func (Schema) Traits() []Trait { return nil }

// Config of the declared type.
func (Schema) Config() Config { return Config{} }

var _ Interface = (*Schema)(nil)
