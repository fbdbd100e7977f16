package gen

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/go-openapi/inflect"
)

// NullStrategy decides how nullable columns are rendered.
type NullStrategy string

// Null strategies.
const (
	NullNullable            NullStrategy = "nullable"              // value: T | null
	NullOptional            NullStrategy = "optional"              // value?: T
	NullNullableAndOptional NullStrategy = "nullable_and_optional" // value?: T | null
)

// InheritanceStrategy decides whether parent types are rendered as parents.
type InheritanceStrategy string

// Inheritance strategies.
const (
	InheritanceNone        InheritanceStrategy = "none"
	InheritanceInheritance InheritanceStrategy = "inheritance"
)

// AssociationsStrategy decides where association nullability comes from.
type AssociationsStrategy string

// Associations strategies.
const (
	// AssociationsDatabase reads the nullability of the foreign key column.
	AssociationsDatabase AssociationsStrategy = "database"
	// AssociationsFramework uses the optional flag of the declared association.
	AssociationsFramework AssociationsStrategy = "framework"
)

// Property sort policies.
const (
	SortNone                = "none"
	SortAlphabetical        = "alphabetical"
	SortIDFirstAlphabetical = "id_first_alphabetical"
)

// SortFunc is a custom property sort policy.
type SortFunc func([]*Property) ([]*Property, error)

// SortOrder is either a named policy or a custom function.
type SortOrder struct {
	Policy string
	Func   SortFunc
}

// String returns the policy name, or "custom".
func (o SortOrder) String() string {
	if o.Func != nil {
		return "custom"
	}
	if o.Policy == "" {
		return SortNone
	}
	return o.Policy
}

// Config holds the generation options of one writer or declared type.
// Stored configs are never modified; use Clone before mutating.
type Config struct {
	// NameMapper maps a declared name to the rendered type name.
	// When nil, the suffixes in NameSuffixes are stripped.
	NameMapper func(string) string
	// ModelMapper maps a declared name to its backing model.
	// When nil, the pluralized snake case of the mapped name is used.
	ModelMapper func(string) string
	// NameSuffixes are stripped from declared names by the default mapper.
	NameSuffixes []string
	// PropertiesTransformer rewrites the property list before sorting.
	PropertiesTransformer func([]*Property) []*Property
	// SortOrder is the property sort policy.
	SortOrder SortOrder
	// ModelPlugin selects the model plugin.
	ModelPlugin string
	// SerializerPlugin selects the serializer plugin.
	SerializerPlugin string
	// PluginConfigs holds per-plugin options, keyed by plugin name.
	PluginConfigs map[string]any
	// TypeMapping maps column types to rendered type names.
	TypeMapping map[string]string
	// NullStrategy decides how nullable columns are rendered.
	NullStrategy NullStrategy
	// OutputDir is the directory the writer owns.
	OutputDir string
	// TypesImportPath is the module referenced types are imported from.
	TypesImportPath string
	// TypesGlobal are type names available without an import.
	TypesGlobal []string
	// VerbatimModuleSyntax renders named type exports.
	VerbatimModuleSyntax bool
	// InheritanceStrategy decides whether parent types are rendered.
	InheritanceStrategy InheritanceStrategy
	// AssociationsStrategy decides where association nullability comes from.
	AssociationsStrategy AssociationsStrategy
	// Comments renders property comments.
	Comments bool
	// PreferDoubleQuotes quotes import paths with double quotes.
	PreferDoubleQuotes bool
	// Flavor selects the output type system.
	Flavor string
}

// DefaultTypeMapping returns the default column type mapping.
func DefaultTypeMapping() map[string]string {
	return map[string]string{
		"boolean":  "boolean",
		"date":     "string",
		"datetime": "string",
		"time":     "string",
		"decimal":  "number",
		"float":    "number",
		"integer":  "number",
		"string":   "string",
		"text":     "string",
		"citext":   "string",
		"uuid":     "string",
	}
}

// DefaultConfig returns a config holding the library defaults.
func DefaultConfig() *Config {
	return &Config{
		NameSuffixes:         []string{"Serializer", "Resource"},
		SortOrder:            SortOrder{Policy: SortNone},
		ModelPlugin:          "auto",
		SerializerPlugin:     "auto",
		PluginConfigs:        map[string]any{},
		TypeMapping:          DefaultTypeMapping(),
		NullStrategy:         NullNullable,
		OutputDir:            "app/javascript/types/serializers",
		TypesImportPath:      "@/types",
		TypesGlobal:          []string{"Array", "Date", "Record", "File", "FileList"},
		InheritanceStrategy:  InheritanceNone,
		AssociationsStrategy: AssociationsDatabase,
		Flavor:               "typescript",
	}
}

// BuildConfig returns the defaults with the given settings applied.
func BuildConfig(settings map[string]any) (*Config, error) {
	c := DefaultConfig()
	if err := c.ApplySettings(settings); err != nil {
		return nil, err
	}
	return c, nil
}

// Clone returns a copy of c that shares no maps or slices with it.
func (c *Config) Clone() *Config {
	n := *c
	n.NameSuffixes = slices.Clone(c.NameSuffixes)
	n.PluginConfigs = deepCopy(c.PluginConfigs)
	n.TypeMapping = maps.Clone(c.TypeMapping)
	n.TypesGlobal = slices.Clone(c.TypesGlobal)
	return &n
}

// MapName returns the rendered type name for a declared name, before
// namespace separators are removed.
func (c *Config) MapName(declared string) string {
	if c.NameMapper != nil {
		return c.NameMapper(declared)
	}
	name := declared
	for _, suffix := range c.NameSuffixes {
		if trimmed, ok := strings.CutSuffix(name, suffix); ok && trimmed != "" {
			return trimmed
		}
	}
	return name
}

// MapModel returns the backing model name for a declared name.
func (c *Config) MapModel(declared string) string {
	if c.ModelMapper != nil {
		return c.ModelMapper(declared)
	}
	name := c.MapName(declared)
	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+2:]
	}
	return inflect.Pluralize(inflect.Underscore(name))
}

// PluginConfig returns the options of the named plugin.
func (c *Config) PluginConfig(plugin string) map[string]any {
	m, _ := toMap(c.PluginConfigs[plugin])
	return m
}

// Quote quotes s with the configured quote style.
func (c *Config) Quote(s string) string {
	if c.PreferDoubleQuotes {
		return `"` + s + `"`
	}
	return "'" + s + "'"
}

// ApplySettings applies a settings map keyed by option name. Unknown keys
// and values of the wrong type are rejected with a *ConfigError.
func (c *Config) ApplySettings(settings map[string]any) error {
	for _, key := range slices.Sorted(maps.Keys(settings)) {
		if err := c.set(key, settings[key]); err != nil {
			return err
		}
	}
	return nil
}

// Settings returns the config as a settings map keyed by option name.
// Map-valued options are returned as map[string]any.
func (c *Config) Settings() map[string]any {
	s := make(map[string]any, len(options))
	for key, opt := range options {
		s[key] = opt.get(c)
	}
	return s
}

// Get returns the value of the named option.
func (c *Config) Get(key string) (any, error) {
	opt, ok := options[key]
	if !ok {
		return nil, NewConfigError(key, nil, "unknown option")
	}
	return opt.get(c), nil
}

func (c *Config) set(key string, v any) error {
	opt, ok := options[key]
	if !ok {
		return NewConfigError(key, nil, "unknown option")
	}
	return opt.set(c, v)
}

// OptionKeys returns the names of all options, sorted.
func OptionKeys() []string {
	return slices.Sorted(maps.Keys(options))
}

type option struct {
	get func(*Config) any
	set func(*Config, any) error
}

var options = map[string]option{
	"name_mapper": {
		get: func(c *Config) any { return c.NameMapper },
		set: func(c *Config, v any) (err error) {
			c.NameMapper, err = asFunc[func(string) string]("name_mapper", v)
			return err
		},
	},
	"model_mapper": {
		get: func(c *Config) any { return c.ModelMapper },
		set: func(c *Config, v any) (err error) {
			c.ModelMapper, err = asFunc[func(string) string]("model_mapper", v)
			return err
		},
	},
	"name_suffixes": {
		get: func(c *Config) any { return slices.Clone(c.NameSuffixes) },
		set: func(c *Config, v any) (err error) {
			c.NameSuffixes, err = asStrings("name_suffixes", v)
			return err
		},
	},
	"properties_transformer": {
		get: func(c *Config) any { return c.PropertiesTransformer },
		set: func(c *Config, v any) (err error) {
			c.PropertiesTransformer, err = asFunc[func([]*Property) []*Property]("properties_transformer", v)
			return err
		},
	},
	"properties_sort_order": {
		get: func(c *Config) any { return c.SortOrder },
		set: func(c *Config, v any) error {
			switch v := v.(type) {
			case nil:
				c.SortOrder = SortOrder{Policy: SortNone}
			case SortOrder:
				if v.Func == nil {
					return setSortPolicy(c, v.Policy)
				}
				c.SortOrder = v
			case SortFunc:
				c.SortOrder = SortOrder{Func: v}
			case func([]*Property) ([]*Property, error):
				c.SortOrder = SortOrder{Func: v}
			case string:
				return setSortPolicy(c, v)
			default:
				return NewConfigError("properties_sort_order", v, "expected a policy name or a sort function")
			}
			return nil
		},
	},
	"model_plugin": {
		get: func(c *Config) any { return c.ModelPlugin },
		set: func(c *Config, v any) error {
			s, err := asString("model_plugin", v)
			if err != nil {
				return err
			}
			if _, ok := lookupModelPlugin(s); !ok {
				return NewConfigError("model_plugin", s, "unknown model plugin")
			}
			c.ModelPlugin = s
			return nil
		},
	},
	"serializer_plugin": {
		get: func(c *Config) any { return c.SerializerPlugin },
		set: func(c *Config, v any) error {
			s, err := asString("serializer_plugin", v)
			if err != nil {
				return err
			}
			if _, ok := lookupSerializerPlugin(s); !ok {
				return NewConfigError("serializer_plugin", s, "unknown serializer plugin")
			}
			c.SerializerPlugin = s
			return nil
		},
	},
	"plugin_configs": {
		get: func(c *Config) any { return deepCopy(c.PluginConfigs) },
		set: func(c *Config, v any) error {
			m, ok := toMap(v)
			if !ok && v != nil {
				return NewConfigError("plugin_configs", v, "expected a map")
			}
			c.PluginConfigs = deepCopy(m)
			return nil
		},
	},
	"type_mapping": {
		get: func(c *Config) any {
			m := make(map[string]any, len(c.TypeMapping))
			for k, v := range c.TypeMapping {
				m[k] = v
			}
			return m
		},
		set: func(c *Config, v any) (err error) {
			c.TypeMapping, err = asStringMap("type_mapping", v)
			return err
		},
	},
	"null_strategy": {
		get: func(c *Config) any { return string(c.NullStrategy) },
		set: func(c *Config, v any) error {
			s, err := asString("null_strategy", v)
			if err != nil {
				return err
			}
			switch NullStrategy(s) {
			case NullNullable, NullOptional, NullNullableAndOptional:
				c.NullStrategy = NullStrategy(s)
			case "both":
				c.NullStrategy = NullNullableAndOptional
			default:
				return NewConfigError("null_strategy", s, "unknown null strategy; use nullable, optional or nullable_and_optional")
			}
			return nil
		},
	},
	"output_dir": {
		get: func(c *Config) any { return c.OutputDir },
		set: func(c *Config, v any) (err error) {
			c.OutputDir, err = asString("output_dir", v)
			return err
		},
	},
	"types_import_path": {
		get: func(c *Config) any { return c.TypesImportPath },
		set: func(c *Config, v any) (err error) {
			c.TypesImportPath, err = asString("types_import_path", v)
			return err
		},
	},
	"types_global": {
		get: func(c *Config) any { return slices.Clone(c.TypesGlobal) },
		set: func(c *Config, v any) (err error) {
			c.TypesGlobal, err = asStrings("types_global", v)
			return err
		},
	},
	"verbatim_module_syntax": {
		get: func(c *Config) any { return c.VerbatimModuleSyntax },
		set: func(c *Config, v any) (err error) {
			c.VerbatimModuleSyntax, err = asBool("verbatim_module_syntax", v)
			return err
		},
	},
	"inheritance_strategy": {
		get: func(c *Config) any { return string(c.InheritanceStrategy) },
		set: func(c *Config, v any) error {
			s, err := asString("inheritance_strategy", v)
			if err != nil {
				return err
			}
			switch InheritanceStrategy(s) {
			case InheritanceNone, InheritanceInheritance:
				c.InheritanceStrategy = InheritanceStrategy(s)
			default:
				return NewConfigError("inheritance_strategy", s, "unknown inheritance strategy; use none or inheritance")
			}
			return nil
		},
	},
	"associations_strategy": {
		get: func(c *Config) any { return string(c.AssociationsStrategy) },
		set: func(c *Config, v any) error {
			s, err := asString("associations_strategy", v)
			if err != nil {
				return err
			}
			switch AssociationsStrategy(s) {
			case AssociationsDatabase, AssociationsFramework:
				c.AssociationsStrategy = AssociationsStrategy(s)
			default:
				return NewConfigError("associations_strategy", s, "unknown associations strategy; use database or framework")
			}
			return nil
		},
	},
	"comments": {
		get: func(c *Config) any { return c.Comments },
		set: func(c *Config, v any) (err error) {
			c.Comments, err = asBool("comments", v)
			return err
		},
	},
	"prefer_double_quotes": {
		get: func(c *Config) any { return c.PreferDoubleQuotes },
		set: func(c *Config, v any) (err error) {
			c.PreferDoubleQuotes, err = asBool("prefer_double_quotes", v)
			return err
		},
	},
	"flavor": {
		get: func(c *Config) any { return c.Flavor },
		set: func(c *Config, v any) error {
			s, err := asString("flavor", v)
			if err != nil {
				return err
			}
			if s == "" {
				return NewConfigError("flavor", nil, "flavor cannot be empty")
			}
			c.Flavor = s
			return nil
		},
	},
}

func setSortPolicy(c *Config, policy string) error {
	switch policy {
	case "", SortNone:
		c.SortOrder = SortOrder{Policy: SortNone}
	case SortAlphabetical, SortIDFirstAlphabetical:
		c.SortOrder = SortOrder{Policy: policy}
	default:
		return NewConfigError("properties_sort_order", policy, "unknown sort policy; use none, alphabetical or id_first_alphabetical")
	}
	return nil
}

// asString accepts strings and string-based named types.
func asString(key string, v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	case nil:
		return "", nil
	}
	if s, ok := stringKind(v); ok {
		return s, nil
	}
	return "", NewConfigError(key, v, "expected a string")
}

func stringKind(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.String {
		return "", false
	}
	return rv.String(), true
}

func asBool(key string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, NewConfigError(key, v, "expected a boolean")
	}
	return b, nil
}

func asStrings(key string, v any) ([]string, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return slices.Clone(v), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, NewConfigError(key, v, "expected a list of strings")
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, NewConfigError(key, v, "expected a list of strings")
}

func asStringMap(key string, v any) (map[string]string, error) {
	switch v := v.(type) {
	case nil:
		return map[string]string{}, nil
	case map[string]string:
		return maps.Clone(v), nil
	case map[string]any:
		out := make(map[string]string, len(v))
		for k, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, NewConfigError(key, v, fmt.Sprintf("expected a string value for %q", k))
			}
			out[k] = s
		}
		return out, nil
	}
	return nil, NewConfigError(key, v, "expected a map of strings")
}

func asFunc[F any](key string, v any) (F, error) {
	var zero F
	if v == nil {
		return zero, nil
	}
	f, ok := v.(F)
	if !ok {
		return zero, NewConfigError(key, fmt.Sprintf("%T", v), fmt.Sprintf("expected %T", zero))
	}
	return f, nil
}
