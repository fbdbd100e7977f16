package gen

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/syssam/shapegen/compiler/load"
)

// WriterContext resolves configuration and nodes of one writer for one
// generation pass. Its caches are never shared across passes or writers.
type WriterContext struct {
	writer   string
	global   map[string]any
	settings map[string]any
	registry *load.Registry
	catalog  Catalog
	logger   *slog.Logger

	configs   map[load.ID]*Config
	chains    map[load.ID]map[string]any
	overrides map[overrideKey]map[string]*load.Override
	nodes     map[load.ID]*Interface
}

type overrideKey struct {
	id   load.ID
	meta bool
}

// NewWriterContext returns the context of the named writer.
func NewWriterContext(conf *Configuration, writer string, registry *load.Registry, catalog Catalog, logger *slog.Logger) (*WriterContext, error) {
	wc, ok := conf.Writer(writer)
	if !ok {
		return nil, NewConfigError("writer", writer, "writer is not defined")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WriterContext{
		writer:    writer,
		global:    conf.GlobalSettings(),
		settings:  wc.Settings(),
		registry:  registry,
		catalog:   catalog,
		logger:    logger.With("writer", writer),
		configs:   make(map[load.ID]*Config),
		chains:    make(map[load.ID]map[string]any),
		overrides: make(map[overrideKey]map[string]*load.Override),
		nodes:     make(map[load.ID]*Interface),
	}, nil
}

// Writer returns the writer name.
func (ctx *WriterContext) Writer() string { return ctx.writer }

// Registry returns the declared types of the pass.
func (ctx *WriterContext) Registry() *load.Registry { return ctx.registry }

// ConfigFor returns the effective config of a declared type: global
// settings, overlaid with the writer settings, overlaid with the settings
// declared along the type's parent chain. Inline types use the config of
// their declaring type.
func (ctx *WriterContext) ConfigFor(id load.ID) (*Config, error) {
	id = ctx.declaring(id)
	if c, ok := ctx.configs[id]; ok {
		return c, nil
	}
	merged := deepMerge(deepMerge(ctx.global, ctx.settings), ctx.settingsChain(id))
	c, err := BuildConfig(merged)
	if err != nil {
		return nil, NewSchemaError(ctx.registry.Type(id).Name, "", "invalid configuration", err)
	}
	ctx.configs[id] = c
	return c, nil
}

// settingsChain deep-merges the settings declared by the ancestors of id,
// root first.
func (ctx *WriterContext) settingsChain(id load.ID) map[string]any {
	if s, ok := ctx.chains[id]; ok {
		return s
	}
	var merged map[string]any
	for _, aid := range ctx.registry.Chain(id) {
		if s := ctx.registry.Type(aid).Config; len(s) > 0 {
			merged = deepMerge(merged, s)
		}
	}
	ctx.chains[id] = merged
	return merged
}

// InterfaceFor returns the node of a declared type, building it on first
// access. The node is cached before it is resolved, so references back
// to a type under construction return the same node.
func (ctx *WriterContext) InterfaceFor(id load.ID) (*Interface, error) {
	if n, ok := ctx.nodes[id]; ok {
		return n, n.err
	}
	n := &Interface{ctx: ctx, id: id, typ: ctx.registry.Type(id)}
	ctx.nodes[id] = n
	if err := n.resolve(); err != nil {
		n.err = err
		return n, err
	}
	return n, nil
}

// FieldOverrides returns the explicit overrides of a declared type keyed
// by column name. Overrides are inherited down the parent chain; a child
// override replaces the fields it declares. Captured declarations are
// transformed by the serializer plugin and applied before explicit ones.
func (ctx *WriterContext) FieldOverrides(id load.ID, meta bool) (map[string]*load.Override, error) {
	key := overrideKey{id: id, meta: meta}
	if o, ok := ctx.overrides[key]; ok {
		return o, nil
	}
	c, err := ctx.ConfigFor(id)
	if err != nil {
		return nil, err
	}
	plugin, err := serializerFor(c)
	if err != nil {
		return nil, err
	}
	merged := make(map[string]*load.Override)
	chain := []load.ID{id}
	if !ctx.registry.Type(id).Inline() {
		chain = ctx.registry.Chain(id)
	}
	for _, aid := range chain {
		t := ctx.registry.Type(aid)
		if !meta {
			triggers := plugin.Triggers()
			for _, d := range t.Declarations {
				if !slices.Contains(triggers, d.Method) {
					ctx.logger.Debug("ignoring declaration", "type", t.Name, "method", d.Method, "name", d.Name)
					continue
				}
				column, o, err := plugin.TransformDeclaration(d, c)
				if err != nil {
					return nil, NewSchemaError(t.Name, d.Name, "invalid declaration", err)
				}
				merged[column] = merged[column].Merge(o)
			}
		}
		own := t.Typelize
		if meta {
			own = t.TypelizeMeta
		}
		for _, column := range slices.Sorted(maps.Keys(own)) {
			merged[column] = merged[column].Merge(own[column])
		}
	}
	ctx.overrides[key] = merged
	return merged, nil
}

// declaring returns the named type an inline type was declared in.
func (ctx *WriterContext) declaring(id load.ID) load.ID {
	for {
		owner, ok := ctx.registry.Owner(id)
		if !ok {
			return id
		}
		id = owner
	}
}

// model returns the backing model name of a named type: the first model
// declared along the parent chain, leaf first, or the mapped name.
func (ctx *WriterContext) model(id load.ID, c *Config) string {
	if m := ctx.inherited(id, func(t *load.Type) string { return t.Model }); m != "" {
		return m
	}
	return c.MapModel(ctx.registry.Type(id).Name)
}

// inherited returns the first non-empty value of get along the parent
// chain of id, leaf first.
func (ctx *WriterContext) inherited(id load.ID, get func(*load.Type) string) string {
	chain := ctx.registry.Chain(id)
	for i := len(chain) - 1; i >= 0; i-- {
		if v := get(ctx.registry.Type(chain[i])); v != "" {
			return v
		}
	}
	return ""
}

func serializerFor(c *Config) (SerializerPlugin, error) {
	p, ok := lookupSerializerPlugin(c.SerializerPlugin)
	if !ok {
		return nil, NewConfigError("serializer_plugin", c.SerializerPlugin, "unknown serializer plugin")
	}
	return p, nil
}

func modelPluginFor(c *Config) (ModelPluginFactory, error) {
	f, ok := lookupModelPlugin(c.ModelPlugin)
	if !ok {
		return nil, NewConfigError("model_plugin", c.ModelPlugin, "unknown model plugin")
	}
	return f, nil
}

func (ctx *WriterContext) String() string {
	return fmt.Sprintf("WriterContext(%s)", ctx.writer)
}
