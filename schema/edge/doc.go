// Package edge provides fluent builders for declaring associations between
// serializable types.
//
// # Cardinality
//
//	edge.One("author", UserSerializer.Type)      // author: User
//	edge.Many("comments", CommentSerializer.Type) // comments: Array<Comment>
//
// The referenced type is given as a method expression on the declared type,
// which lets associations refer to the declaring type itself:
//
//	func (TreeNodeSerializer) Edges() []shapegen.Edge {
//	    return []shapegen.Edge{
//	        edge.Many("children", TreeNodeSerializer.Type),
//	    }
//	}
//
// # Nullability
//
// A single value association is nullable when its foreign key column is
// nullable (database strategy) or when it is declared Optional (framework
// strategy):
//
//	edge.One("manager", UserSerializer.Type).ForeignKey("manager_id")
//	edge.One("manager", UserSerializer.Type).Optional()
//
// # Inline types
//
// Inline renders an anonymous nested type in place:
//
//	edge.Inline("stats", field.Attr("views"), field.Attr("likes"))
//
// # Traits
//
// WithTraits intersects the referenced type with some of its traits:
//
//	edge.One("author", UserSerializer.Type).WithTraits("profile")
package edge
