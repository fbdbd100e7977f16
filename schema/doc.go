// Package schema groups the builders used to declare serializable types:
//
//   - [field]: attributes
//   - [edge]: associations and inline nested types
//   - [mixin]: traits
//
// # Quick Start
//
//	type PostSerializer struct{ shapegen.Schema }
//
//	func (PostSerializer) Config() shapegen.Config {
//	    return shapegen.Config{Model: "posts"}
//	}
//
//	func (PostSerializer) Fields() []shapegen.Field {
//	    return []shapegen.Field{
//	        field.Attr("id"),
//	        field.Attr("title"),
//	        field.Attr("category").Enum("news", "blog"),
//	    }
//	}
//
//	func (PostSerializer) Edges() []shapegen.Edge {
//	    return []shapegen.Edge{
//	        edge.One("author", UserSerializer.Type),
//	    }
//	}
//
//	func (PostSerializer) Traits() []shapegen.Trait {
//	    return []shapegen.Trait{mixin.Timestamps{}}
//	}
//
// Declared types are turned into plain data with load.FromSchemas.
package schema
