package gen

import (
	"context"
	"log/slog"
	"sync"

	"github.com/syssam/shapegen/compiler/load"
)

// RejectFunc reports whether a declared type is excluded from generation.
type RejectFunc func(t *load.Type) bool

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithCatalog sets the catalog used by the database model plugin.
func WithCatalog(c Catalog) GeneratorOption {
	return func(g *Generator) {
		g.catalog = c
	}
}

// WithLogger sets the logger of the generator.
func WithLogger(l *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithReject excludes the declared types matching fn.
func WithReject(fn RejectFunc) GeneratorOption {
	return func(g *Generator) {
		g.reject = fn
	}
}

// Generator runs generation passes over a Configuration.
// Passes are serialized: a pass started while another one is running
// waits for it to finish.
type Generator struct {
	mu      sync.Mutex
	conf    *Configuration
	catalog Catalog
	logger  *slog.Logger
	reject  RejectFunc
}

// NewGenerator creates a generator for the given configuration.
//
// Example:
//
//	conf := gen.NewConfiguration()
//	if _, err := conf.DefineWriter("admin", "", gen.WithOutputDir("app/types/admin")); err != nil {
//		return err
//	}
//	g := gen.NewGenerator(conf, gen.WithCatalog(catalog))
//	results, err := g.Run(ctx, registry, gen.RunOptions{})
func NewGenerator(conf *Configuration, opts ...GeneratorOption) *Generator {
	g := &Generator{conf: conf, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// RunOptions configures one pass.
type RunOptions struct {
	// Force removes every output directory before writing.
	Force bool
	// Writers limits the pass to the named writers. All writers run when
	// empty.
	Writers []string
}

// Run resolves the declared types of registry for every writer and
// writes the non-empty nodes. Each writer gets its own WriterContext.
func (g *Generator) Run(ctx context.Context, registry *load.Registry, opts RunOptions) ([]*Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	writers := opts.Writers
	if len(writers) == 0 {
		writers = g.conf.Writers()
	}
	results := make([]*Result, 0, len(writers))
	for _, name := range writers {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := g.runWriter(name, registry, opts.Force)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (g *Generator) runWriter(name string, registry *load.Registry, force bool) (*Result, error) {
	wctx, err := NewWriterContext(g.conf, name, registry, g.catalog, g.logger)
	if err != nil {
		return nil, err
	}
	c, _ := g.conf.Writer(name)
	w, err := NewWriter(name, c, g.logger)
	if err != nil {
		return nil, err
	}
	nodes, err := g.Interfaces(wctx)
	if err != nil {
		return nil, err
	}
	return w.Run(nodes, force)
}

// Interfaces returns the nodes of every named declared type of the
// context, sorted by declared name.
func (g *Generator) Interfaces(wctx *WriterContext) ([]*Interface, error) {
	registry := wctx.Registry()
	var nodes []*Interface
	for _, id := range registry.Named() {
		if g.reject != nil && g.reject(registry.Type(id)) {
			wctx.logger.Debug("rejected type", "type", registry.Type(id).Name)
			continue
		}
		n, err := wctx.InterfaceFor(id)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}
