// Package sql provides catalogs of storage models for the database model
// plugin. A catalog is either built statically from manifest models or
// inspected from a live SQLite, MySQL or PostgreSQL database.
package sql

import (
	"maps"
	"slices"
	"sync"

	"github.com/syssam/shapegen/compiler/load"
)

// Catalog holds storage models keyed by table name. It is safe for
// concurrent use.
type Catalog struct {
	mu     sync.RWMutex
	models map[string]*load.Model
}

// NewCatalog returns a catalog of the given models.
func NewCatalog(models ...*load.Model) *Catalog {
	c := &Catalog{models: make(map[string]*load.Model, len(models))}
	c.Add(models...)
	return c
}

// Add adds models to the catalog. A model replaces the existing model
// with the same name.
func (c *Catalog) Add(models ...*load.Model) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range models {
		if m != nil && m.Name != "" {
			c.models[m.Name] = m
		}
	}
}

// Replace drops every model and adds models.
func (c *Catalog) Replace(models ...*load.Model) {
	next := NewCatalog(models...)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models = next.models
}

// Merge adds the models of other to c.
func (c *Catalog) Merge(other *Catalog) {
	if other == nil || other == c {
		return
	}
	other.mu.RLock()
	models := slices.Collect(maps.Values(other.models))
	other.mu.RUnlock()
	c.Add(models...)
}

// Model returns the model of a table.
func (c *Catalog) Model(name string) (*load.Model, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.models[name]
	return m, ok
}

// Names returns the sorted table names of the catalog.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.models))
}

// Len returns the number of models.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.models)
}
