// Package gen resolves declared types into writer-scoped type nodes and
// writes them as structural type declarations.
//
// # Architecture
//
// A generation pass flows through these steps:
//
//	load.Registry (declared types)
//	        ↓
//	   Configuration (one Config per writer + global settings)
//	        ↓
//	   WriterContext (effective config and node per declared type)
//	        ↓
//	   Interface (properties, parent, traits, imports, fingerprint)
//	        ↓
//	   Writer + Flavor (files, index, stale cleanup, rollback)
//
// # Key Types
//
//   - Config: the options of one writer or declared type
//   - Configuration: writer configs, global settings, output ownership
//   - WriterContext: per writer, per pass caches
//   - Interface: one resolved node
//   - Property: one field of a node
//   - SerializerPlugin, ModelPlugin: adapters producing and enriching properties
//   - Flavor: renderer of a target type system
//   - Writer: idempotent, fingerprinted file output
//   - Generator: runs passes over all writers
//
// # Configuration layers
//
// The effective config of a declared type merges, in increasing priority,
// the global settings written through Configuration.Set, the settings of
// the writer, and the settings declared along the type's parent chain.
// Map-valued options are merged key by key; scalar options are replaced.
//
// # Error Handling
//
// Errors are typed and can be matched with errors.Is:
//
//	if errors.Is(err, gen.ErrMissingConfig) { ... }
//	if errors.Is(err, gen.ErrWriteFailed) { ... }
//
// Sort failures of custom sort functions are logged and never fail a pass.
package gen
