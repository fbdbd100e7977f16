package gen

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// DefaultWriter is the name of the writer every Configuration holds.
const DefaultWriter = "default"

// Configuration holds one config snapshot per writer and the global
// settings written through the flat accessors. Writers defined later are
// built from the global settings. Stored configs are never mutated.
type Configuration struct {
	mu      sync.RWMutex
	writers map[string]*Config
	global  map[string]any
	outputs map[string]string
}

// NewConfiguration returns a store holding the default writer.
func NewConfiguration() *Configuration {
	conf := &Configuration{
		writers: map[string]*Config{DefaultWriter: DefaultConfig()},
		global:  map[string]any{},
	}
	conf.rebuildOutputs()
	return conf
}

// DefineWriter creates or updates a writer. The base config is the
// existing config of name, else the config of from, else the global
// settings applied to the defaults. The base is copied before opts are
// applied, so other writers never observe the change.
func (conf *Configuration) DefineWriter(name, from string, opts ...Option) (*Config, error) {
	if strings.TrimSpace(name) == "" {
		return nil, NewConfigError("writer", name, "Writer name cannot be empty")
	}
	conf.mu.Lock()
	defer conf.mu.Unlock()
	var base *Config
	switch {
	case conf.writers[name] != nil:
		base = conf.writers[name]
	case from != "" && conf.writers[from] != nil:
		base = conf.writers[from]
	default:
		c, err := BuildConfig(conf.global)
		if err != nil {
			return nil, err
		}
		base = c
	}
	c := base.Clone()
	if err := c.ApplyAll(opts...); err != nil {
		return nil, err
	}
	dir, err := conf.checkOutput(name, c.OutputDir)
	if err != nil {
		return nil, err
	}
	conf.writers[name] = c
	conf.outputs[name] = dir
	return c.Clone(), nil
}

// Writer returns a copy of the named writer config.
func (conf *Configuration) Writer(name string) (*Config, bool) {
	conf.mu.RLock()
	defer conf.mu.RUnlock()
	c, ok := conf.writers[name]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

// Writers returns the sorted writer names.
func (conf *Configuration) Writers() []string {
	conf.mu.RLock()
	defer conf.mu.RUnlock()
	return slices.Sorted(maps.Keys(conf.writers))
}

// Set writes an option of the default writer and mirrors it into the
// global settings.
func (conf *Configuration) Set(key string, v any) error {
	conf.mu.Lock()
	defer conf.mu.Unlock()
	c := conf.writers[DefaultWriter].Clone()
	if err := c.set(key, v); err != nil {
		return err
	}
	dir, err := conf.checkOutput(DefaultWriter, c.OutputDir)
	if err != nil {
		return err
	}
	conf.writers[DefaultWriter] = c
	conf.outputs[DefaultWriter] = dir
	conf.global[key] = v
	return nil
}

// Get reads an option of the default writer.
func (conf *Configuration) Get(key string) (any, error) {
	conf.mu.RLock()
	defer conf.mu.RUnlock()
	return conf.writers[DefaultWriter].Get(key)
}

// GlobalSettings returns a copy of the settings written through Set.
func (conf *Configuration) GlobalSettings() map[string]any {
	conf.mu.RLock()
	defer conf.mu.RUnlock()
	return deepCopy(conf.global)
}

// ResetWriters drops every writer but the default one.
func (conf *Configuration) ResetWriters() {
	conf.mu.Lock()
	defer conf.mu.Unlock()
	maps.DeleteFunc(conf.writers, func(name string, _ *Config) bool { return name != DefaultWriter })
	conf.rebuildOutputs()
}

// OutputDir returns the normalized output directory of a writer.
func (conf *Configuration) OutputDir(name string) (string, bool) {
	conf.mu.RLock()
	defer conf.mu.RUnlock()
	dir, ok := conf.outputs[name]
	return dir, ok
}

// checkOutput validates the output directory of writer name and returns
// its normalized form. The caller holds the lock.
func (conf *Configuration) checkOutput(name, dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", NewConfigError("output_dir", dir, fmt.Sprintf("output_dir must be configured for writer %s", name))
	}
	norm, err := normalizeDir(dir)
	if err != nil {
		return "", NewConfigError("output_dir", dir, err.Error())
	}
	for _, holder := range slices.Sorted(maps.Keys(conf.outputs)) {
		if holder != name && conf.outputs[holder] == norm {
			return "", NewConfigError("output_dir", dir, fmt.Sprintf("output_dir %s is already in use by writer %s", norm, holder))
		}
	}
	return norm, nil
}

func (conf *Configuration) rebuildOutputs() {
	conf.outputs = make(map[string]string, len(conf.writers))
	for name, c := range conf.writers {
		if dir, err := normalizeDir(c.OutputDir); err == nil {
			conf.outputs[name] = dir
		}
	}
}

func normalizeDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}
