// Package mixin provides traits: named groups of fields that a declared
// type exposes in addition to its own fields.
//
// Traits are rendered as separate types next to the owning type, named
// after the owner and the camelized trait name:
//
//	UserSerializer + trait "profile" -> UserProfileTrait
//
// Associations select traits with edge.WithTraits, which renders the
// referenced type intersected with the trait types.
//
// # Built-in Traits
//
//	mixin.Timestamps{} // "timestamps": created_at, updated_at
//	mixin.SoftDelete{} // "soft_delete": deleted_at
//
// # Custom Traits
//
// Either embed Schema:
//
//	type Profile struct{ mixin.Schema }
//
//	func (Profile) Name() string { return "profile" }
//
//	func (Profile) Fields() []shapegen.Field {
//	    return []shapegen.Field{field.Attr("bio")}
//	}
//
// or build one inline:
//
//	mixin.New("contact", field.Attr("email"), field.Attr("phone"))
package mixin
