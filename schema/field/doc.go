// Package field provides fluent builders for declaring the attributes of
// serializable types.
//
// Field names are the rendered keys; the source attribute defaults to the
// same name and can be changed with Column:
//
//	field.Attr("id")                         // key id, attribute id
//	field.Attr("full_name").Column("name")   // key full_name, attribute name
//	field.Method("display_label")            // computed by the serializer
//	field.Typed("age", "Integer")            // type known to the serializer
//
// # Explicit typing
//
// Fields without explicit typing are inferred from the backing model.
// Any of the following builders declares an override instead, which takes
// precedence over inference:
//
//	field.Attr("email").Type("string").Nullable()
//	field.Attr("tags").Type("string[]")      // multi
//	field.Attr("nickname").Type("string?")   // optional
//	field.Attr("status").Enum("draft", "published")
//	field.Attr("notes").Comment("Free-form notes")
//
// NoComment and NoEnum suppress comments and enum values that the backing
// model would otherwise contribute.
package field
