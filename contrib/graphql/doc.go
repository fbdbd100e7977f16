// Package graphql implements the "graphql" flavor, which renders nodes
// as GraphQL SDL object types, and keeps a gqlgen configuration in sync
// with the generated schema files.
//
// Import the package for its side effect to make the flavor available:
//
//	import _ "github.com/syssam/shapegen/contrib/graphql"
//
// and select it on a writer:
//
//	writers:
//	  api:
//	    output_dir: graph/types
//	    flavor: graphql
//	    plugin_configs:
//	      graphql:
//	        gqlgen_config: gqlgen.yml
//
// # Mapping
//
//   - string, number and boolean map to String, Float and Boolean; a
//     number property named "id" maps to ID
//   - properties are non-null unless nullable or optional
//   - multi properties map to lists of non-null items
//   - enums with valid GraphQL names map to enum types named after the
//     node and property, other enums map to String
//   - inline types map to object types named after the node and property
//   - parents are flattened, root keys produce a <Name>Data type
//   - unknown and union types map to the JSON scalar
//
// Custom type names that are not generated are declared as scalars in
// the index file, schema.graphql, so the output directory loads as a
// complete schema.
package graphql
