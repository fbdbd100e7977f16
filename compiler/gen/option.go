package gen

import (
	"errors"
	"maps"
)

// Option configures a Config.
type Option func(*Config) error

// WithSetting sets the option named key, validating value the same way
// settings maps are validated.
func WithSetting(key string, value any) Option {
	return func(c *Config) error {
		return c.set(key, value)
	}
}

// WithSettings applies a settings map.
func WithSettings(settings map[string]any) Option {
	return func(c *Config) error {
		return c.ApplySettings(settings)
	}
}

// WithOutputDir sets the directory the writer owns.
func WithOutputDir(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("output_dir", nil, "output directory cannot be empty")
		}
		c.OutputDir = dir
		return nil
	}
}

// WithNameMapper sets the function mapping declared names to type names.
func WithNameMapper(fn func(string) string) Option {
	return func(c *Config) error {
		c.NameMapper = fn
		return nil
	}
}

// WithModelMapper sets the function mapping declared names to backing models.
func WithModelMapper(fn func(string) string) Option {
	return func(c *Config) error {
		c.ModelMapper = fn
		return nil
	}
}

// WithPropertiesTransformer sets the function rewriting property lists.
func WithPropertiesTransformer(fn func([]*Property) []*Property) Option {
	return func(c *Config) error {
		c.PropertiesTransformer = fn
		return nil
	}
}

// WithSortPolicy sets a named property sort policy.
// Supported policies: "none", "alphabetical", "id_first_alphabetical".
func WithSortPolicy(policy string) Option {
	return func(c *Config) error {
		return setSortPolicy(c, policy)
	}
}

// WithSortFunc sets a custom property sort function.
func WithSortFunc(fn SortFunc) Option {
	return func(c *Config) error {
		if fn == nil {
			return NewConfigError("properties_sort_order", nil, "sort function cannot be nil")
		}
		c.SortOrder = SortOrder{Func: fn}
		return nil
	}
}

// WithModelPlugin selects a registered model plugin.
func WithModelPlugin(name string) Option {
	return WithSetting("model_plugin", name)
}

// WithSerializerPlugin selects a registered serializer plugin.
func WithSerializerPlugin(name string) Option {
	return WithSetting("serializer_plugin", name)
}

// WithPluginConfig sets the options of one plugin, merged over the existing ones.
func WithPluginConfig(plugin string, cfg map[string]any) Option {
	return func(c *Config) error {
		if c.PluginConfigs == nil {
			c.PluginConfigs = make(map[string]any)
		}
		c.PluginConfigs = deepMerge(c.PluginConfigs, map[string]any{plugin: cfg})
		return nil
	}
}

// WithTypeMapping adds or replaces column type mappings.
func WithTypeMapping(mapping map[string]string) Option {
	return func(c *Config) error {
		if c.TypeMapping == nil {
			c.TypeMapping = make(map[string]string, len(mapping))
		}
		maps.Copy(c.TypeMapping, mapping)
		return nil
	}
}

// WithNullStrategy sets how nullable columns are rendered.
func WithNullStrategy(s NullStrategy) Option {
	return WithSetting("null_strategy", string(s))
}

// WithInheritanceStrategy sets whether parents are rendered as parents.
func WithInheritanceStrategy(s InheritanceStrategy) Option {
	return WithSetting("inheritance_strategy", string(s))
}

// WithAssociationsStrategy sets where association nullability comes from.
func WithAssociationsStrategy(s AssociationsStrategy) Option {
	return WithSetting("associations_strategy", string(s))
}

// WithTypesImportPath sets the module referenced types are imported from.
func WithTypesImportPath(path string) Option {
	return func(c *Config) error {
		c.TypesImportPath = path
		return nil
	}
}

// WithTypesGlobal sets the type names available without an import.
func WithTypesGlobal(names ...string) Option {
	return func(c *Config) error {
		c.TypesGlobal = append([]string(nil), names...)
		return nil
	}
}

// WithComments toggles property comments.
func WithComments(enabled bool) Option {
	return func(c *Config) error {
		c.Comments = enabled
		return nil
	}
}

// WithPreferDoubleQuotes toggles double-quoted import paths.
func WithPreferDoubleQuotes(enabled bool) Option {
	return func(c *Config) error {
		c.PreferDoubleQuotes = enabled
		return nil
	}
}

// WithVerbatimModuleSyntax toggles named type exports.
func WithVerbatimModuleSyntax(enabled bool) Option {
	return func(c *Config) error {
		c.VerbatimModuleSyntax = enabled
		return nil
	}
}

// WithFlavor selects the output type system.
func WithFlavor(name string) Option {
	return WithSetting("flavor", name)
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config holding the defaults and the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := DefaultConfig()
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
