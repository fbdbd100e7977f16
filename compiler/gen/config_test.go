package gen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()

	assert.Equal(t, []string{"Serializer", "Resource"}, c.NameSuffixes)
	assert.Equal(t, "auto", c.ModelPlugin)
	assert.Equal(t, "auto", c.SerializerPlugin)
	assert.Equal(t, NullNullable, c.NullStrategy)
	assert.Equal(t, InheritanceNone, c.InheritanceStrategy)
	assert.Equal(t, AssociationsDatabase, c.AssociationsStrategy)
	assert.Equal(t, "@/types", c.TypesImportPath)
	assert.Equal(t, "typescript", c.Flavor)
	assert.Equal(t, "number", c.TypeMapping["integer"])
	assert.Equal(t, "string", c.TypeMapping["uuid"])
	assert.False(t, c.Comments)

	t.Run("returns fresh maps", func(t *testing.T) {
		a, b := DefaultConfig(), DefaultConfig()
		a.TypeMapping["money"] = "string"
		assert.NotContains(t, b.TypeMapping, "money")
	})
}

func TestConfigApplySettings(t *testing.T) {
	t.Run("applies yaml shaped values", func(t *testing.T) {
		c := DefaultConfig()
		err := c.ApplySettings(map[string]any{
			"comments":              true,
			"null_strategy":         "both",
			"name_suffixes":         []any{"Resource"},
			"type_mapping":          map[string]any{"money": "string"},
			"plugin_configs":        map[string]any{"keyed": map[string]any{"transform_keys": "lower_camel"}},
			"properties_sort_order": "id_first_alphabetical",
		})

		require.NoError(t, err)
		assert.True(t, c.Comments)
		assert.Equal(t, NullNullableAndOptional, c.NullStrategy)
		assert.Equal(t, []string{"Resource"}, c.NameSuffixes)
		assert.Equal(t, map[string]string{"money": "string"}, c.TypeMapping)
		assert.Equal(t, "lower_camel", c.PluginConfig("keyed")["transform_keys"])
		assert.Equal(t, SortIDFirstAlphabetical, c.SortOrder.Policy)
	})

	t.Run("accepts typed strategies", func(t *testing.T) {
		c := DefaultConfig()
		require.NoError(t, c.ApplySettings(map[string]any{"inheritance_strategy": InheritanceInheritance}))
		assert.Equal(t, InheritanceInheritance, c.InheritanceStrategy)
	})

	t.Run("accepts functions", func(t *testing.T) {
		c := DefaultConfig()
		mapper := func(s string) string { return "X" + s }
		require.NoError(t, c.ApplySettings(map[string]any{"name_mapper": mapper}))
		assert.Equal(t, "XUser", c.MapName("User"))
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		c := DefaultConfig()
		err := c.ApplySettings(map[string]any{"colour": "red"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingConfig))
		assert.Contains(t, err.Error(), "unknown option")
	})

	t.Run("rejects ill typed values", func(t *testing.T) {
		for key, v := range map[string]any{
			"comments":      "yes",
			"name_suffixes": 1,
			"type_mapping":  map[string]any{"money": 1},
			"name_mapper":   "upcase",
		} {
			err := DefaultConfig().ApplySettings(map[string]any{key: v})
			assert.True(t, IsConfigError(err), key)
		}
	})

	t.Run("rejects unknown strategies", func(t *testing.T) {
		for key, v := range map[string]any{
			"null_strategy":         "sometimes",
			"inheritance_strategy":  "mixins",
			"associations_strategy": "guess",
			"properties_sort_order": "random",
			"model_plugin":          "orm",
			"serializer_plugin":     "jbuilder",
		} {
			err := DefaultConfig().ApplySettings(map[string]any{key: v})
			assert.True(t, IsConfigError(err), key)
		}
	})
}

func TestConfigSettings(t *testing.T) {
	c := DefaultConfig()
	c.Comments = true
	settings := c.Settings()

	assert.ElementsMatch(t, OptionKeys(), keysOf(settings))
	assert.Equal(t, true, settings["comments"])

	rebuilt, err := BuildConfig(settings)
	require.NoError(t, err)
	assert.Equal(t, c.Comments, rebuilt.Comments)
	assert.Equal(t, c.TypeMapping, rebuilt.TypeMapping)
	assert.Equal(t, c.OutputDir, rebuilt.OutputDir)

	v, err := c.Get("types_import_path")
	require.NoError(t, err)
	assert.Equal(t, "@/types", v)

	_, err = c.Get("colour")
	assert.True(t, IsConfigError(err))
}

func TestConfigClone(t *testing.T) {
	c := DefaultConfig()
	c.PluginConfigs["keyed"] = map[string]any{"transform_keys": "camel"}
	clone := c.Clone()

	clone.TypeMapping["integer"] = "bigint"
	clone.NameSuffixes[0] = "Presenter"
	clone.PluginConfig("keyed")["transform_keys"] = "dash"

	assert.Equal(t, "number", c.TypeMapping["integer"])
	assert.Equal(t, "Serializer", c.NameSuffixes[0])
	assert.Equal(t, "camel", c.PluginConfig("keyed")["transform_keys"])
}

func TestConfigMapName(t *testing.T) {
	c := DefaultConfig()

	assert.Equal(t, "User", c.MapName("UserSerializer"))
	assert.Equal(t, "Admin::User", c.MapName("Admin::UserResource"))
	assert.Equal(t, "Serializer", c.MapName("Serializer"))
	assert.Equal(t, "Account", c.MapName("Account"))
}

func TestConfigMapModel(t *testing.T) {
	c := DefaultConfig()

	assert.Equal(t, "users", c.MapModel("UserSerializer"))
	assert.Equal(t, "blog_posts", c.MapModel("BlogPostSerializer"))
	assert.Equal(t, "tree_nodes", c.MapModel("Inventory::TreeNodeSerializer"))

	c.ModelMapper = func(string) string { return "accounts" }
	assert.Equal(t, "accounts", c.MapModel("UserSerializer"))
}

func TestConfigQuote(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, "'@/types'", c.Quote("@/types"))
	c.PreferDoubleQuotes = true
	assert.Equal(t, `"@/types"`, c.Quote("@/types"))
}

func keysOf(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
