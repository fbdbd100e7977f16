// Package compiler runs shapegen generation passes: from a project file
// (shapegen.yml) naming YAML manifests, writers and an optional database
// to inspect, or from Go DSL schemas.
//
// Every flavor shipped with the module is registered by this package.
package compiler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/syssam/shapegen"
	"github.com/syssam/shapegen/compiler/gen"
	_ "github.com/syssam/shapegen/compiler/gen/golang"
	"github.com/syssam/shapegen/compiler/load"
	"github.com/syssam/shapegen/contrib/graphql"
	dsql "github.com/syssam/shapegen/dialect/sql"
	"github.com/syssam/shapegen/privacy"
)

// Runner runs passes of the project file at a path. The project file and
// its manifests are read again on every pass. Passes are serialized.
type Runner struct {
	path     string
	logger   *slog.Logger
	rules    []privacy.Rule
	debounce time.Duration

	mu      sync.Mutex
	catalog *dsql.Catalog
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger of the runner.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithReject excludes the declared types matching fn.
func WithReject(fn gen.RejectFunc) RunnerOption {
	return WithRules(privacy.RejectRule(fn))
}

// WithRules adds rules deciding which declared types are generated. They
// are evaluated after the exclude patterns of the project file.
func WithRules(rules ...privacy.Rule) RunnerOption {
	return func(r *Runner) {
		r.rules = append(r.rules, rules...)
	}
}

// WithDebounce sets how long the watch mode waits for a burst of file
// events to settle before running a pass.
func WithDebounce(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.debounce = d
		}
	}
}

// NewRunner returns a runner of the project file at path.
func NewRunner(path string, opts ...RunnerOption) *Runner {
	r := &Runner{
		path:     path,
		logger:   slog.Default(),
		debounce: 100 * time.Millisecond,
		catalog:  dsql.NewCatalog(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Catalog returns the catalog of the last pass.
func (r *Runner) Catalog() *dsql.Catalog { return r.catalog }

// Run runs one pass. With force, the output directories are removed
// before writing.
func (r *Runner) Run(ctx context.Context, force bool) ([]*gen.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	start := time.Now()
	p, err := LoadProject(r.path)
	if err != nil {
		return nil, err
	}
	conf, err := p.Configuration()
	if err != nil {
		return nil, err
	}
	m, err := p.Manifest()
	if err != nil {
		return nil, err
	}
	registry, err := m.Registry()
	if err != nil {
		return nil, err
	}
	inspected, err := p.inspect(ctx, dsql.WithLogger(r.logger))
	if err != nil {
		return nil, err
	}
	// Manifest models win over inspected tables of the same name.
	r.catalog.Replace()
	r.catalog.Merge(inspected)
	r.catalog.Add(m.Models...)

	policy, err := p.policy()
	if err != nil {
		return nil, err
	}
	policy = append(policy, r.rules...)

	g := gen.NewGenerator(conf, gen.WithCatalog(r.catalog), gen.WithLogger(r.logger), gen.WithReject(privacy.Reject(ctx, policy)))
	results, err := g.Run(ctx, registry, gen.RunOptions{Force: force, Writers: p.WriterNames()})
	if err != nil {
		return results, err
	}
	if err := r.syncGQLGen(p, conf); err != nil {
		return results, err
	}
	r.logger.Info("generation finished", "types", len(registry.Named()), "writers", len(results), "duration", time.Since(start))
	return results, nil
}

// syncGQLGen updates the gqlgen configs named by graphql writers.
func (r *Runner) syncGQLGen(p *Project, conf *gen.Configuration) error {
	for _, name := range p.WriterNames() {
		c, ok := conf.Writer(name)
		if !ok || c.Flavor != "graphql" {
			continue
		}
		path, _ := c.PluginConfig("graphql")["gqlgen_config"].(string)
		if path == "" {
			continue
		}
		written, err := graphql.SyncGQLGenConfig(p.resolve(path), c.OutputDir)
		if err != nil {
			return fmt.Errorf("writer %s: %w", name, err)
		}
		if written {
			r.logger.Info("updated gqlgen config", "writer", name, "file", path)
		}
	}
	return nil
}

// GenerateSchemas runs one pass over Go DSL schemas with every writer of
// conf.
//
//	conf := gen.NewConfiguration()
//	if err := conf.Set("output_dir", "web/src/types"); err != nil {
//		log.Fatal(err)
//	}
//	if _, err := compiler.GenerateSchemas(ctx, conf, []shapegen.Interface{schema.User{}, schema.Post{}}); err != nil {
//		log.Fatal(err)
//	}
func GenerateSchemas(ctx context.Context, conf *gen.Configuration, schemas []shapegen.Interface, opts ...gen.GeneratorOption) ([]*gen.Result, error) {
	registry, err := load.FromSchemas(schemas...)
	if err != nil {
		return nil, err
	}
	return gen.NewGenerator(conf, opts...).Run(ctx, registry, gen.RunOptions{})
}
