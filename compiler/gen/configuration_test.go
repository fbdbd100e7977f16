package gen

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurationDefineWriter(t *testing.T) {
	dir := t.TempDir()

	t.Run("holds the default writer", func(t *testing.T) {
		conf := NewConfiguration()
		assert.Equal(t, []string{DefaultWriter}, conf.Writers())
		c, ok := conf.Writer(DefaultWriter)
		require.True(t, ok)
		assert.Equal(t, DefaultConfig().OutputDir, c.OutputDir)
	})

	t.Run("defines a writer from global settings", func(t *testing.T) {
		conf := NewConfiguration()
		require.NoError(t, conf.Set("comments", true))
		c, err := conf.DefineWriter("admin", "", WithOutputDir(filepath.Join(dir, "admin")))
		require.NoError(t, err)
		assert.True(t, c.Comments)
		assert.ElementsMatch(t, []string{DefaultWriter, "admin"}, conf.Writers())
	})

	t.Run("inherits from another writer", func(t *testing.T) {
		conf := NewConfiguration()
		_, err := conf.DefineWriter("base", "", WithOutputDir(filepath.Join(dir, "base")), WithSortPolicy(SortAlphabetical))
		require.NoError(t, err)
		c, err := conf.DefineWriter("child", "base", WithOutputDir(filepath.Join(dir, "child")))
		require.NoError(t, err)
		assert.Equal(t, SortAlphabetical, c.SortOrder.Policy)
	})

	t.Run("updates an existing writer", func(t *testing.T) {
		conf := NewConfiguration()
		_, err := conf.DefineWriter("admin", "", WithOutputDir(filepath.Join(dir, "admin")), WithComments(true))
		require.NoError(t, err)
		c, err := conf.DefineWriter("admin", "", WithPreferDoubleQuotes(true))
		require.NoError(t, err)
		assert.True(t, c.Comments)
		assert.True(t, c.PreferDoubleQuotes)
	})

	t.Run("rejects a blank name", func(t *testing.T) {
		conf := NewConfiguration()
		_, err := conf.DefineWriter(" ", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Writer name cannot be empty")
	})

	t.Run("rejects a duplicate output directory", func(t *testing.T) {
		conf := NewConfiguration()
		_, err := conf.DefineWriter("first", "", WithOutputDir(filepath.Join(dir, "shared")))
		require.NoError(t, err)
		_, err = conf.DefineWriter("second", "", WithOutputDir(filepath.Join(dir, "other", "..", "shared")))
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
		assert.Contains(t, err.Error(), "already in use by writer first")
		assert.NotContains(t, conf.Writers(), "second")
	})

	t.Run("rejects the default output directory", func(t *testing.T) {
		conf := NewConfiguration()
		_, err := conf.DefineWriter("other", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already in use by writer default")
	})

	t.Run("failed options leave the writer unchanged", func(t *testing.T) {
		conf := NewConfiguration()
		_, err := conf.DefineWriter("admin", "", WithOutputDir(filepath.Join(dir, "admin")))
		require.NoError(t, err)
		_, err = conf.DefineWriter("admin", "", WithComments(true), WithSortPolicy("random"))
		require.Error(t, err)
		c, _ := conf.Writer("admin")
		assert.False(t, c.Comments)
	})
}

func TestConfigurationCopyOnWrite(t *testing.T) {
	dir := t.TempDir()
	conf := NewConfiguration()
	_, err := conf.DefineWriter("base", "", WithOutputDir(filepath.Join(dir, "base")))
	require.NoError(t, err)
	_, err = conf.DefineWriter("child", "base", WithOutputDir(filepath.Join(dir, "child")))
	require.NoError(t, err)

	_, err = conf.DefineWriter("base", "", WithTypeMapping(map[string]string{"money": "string"}), WithComments(true))
	require.NoError(t, err)

	child, _ := conf.Writer("child")
	assert.False(t, child.Comments)
	assert.NotContains(t, child.TypeMapping, "money")

	t.Run("returned configs are copies", func(t *testing.T) {
		c, _ := conf.Writer("child")
		c.TypeMapping["integer"] = "bigint"
		again, _ := conf.Writer("child")
		assert.Equal(t, "number", again.TypeMapping["integer"])
	})
}

func TestConfigurationFlatAccessors(t *testing.T) {
	dir := t.TempDir()

	t.Run("set writes default and mirrors global", func(t *testing.T) {
		conf := NewConfiguration()
		require.NoError(t, conf.Set("comments", true))

		v, err := conf.Get("comments")
		require.NoError(t, err)
		assert.Equal(t, true, v)
		assert.Equal(t, map[string]any{"comments": true}, conf.GlobalSettings())
	})

	t.Run("writer scoped default never mirrors", func(t *testing.T) {
		conf := NewConfiguration()
		_, err := conf.DefineWriter(DefaultWriter, "", WithComments(true))
		require.NoError(t, err)

		assert.Empty(t, conf.GlobalSettings())
		c, err := conf.DefineWriter("admin", "", WithOutputDir(filepath.Join(dir, "admin")))
		require.NoError(t, err)
		assert.False(t, c.Comments)
	})

	t.Run("set does not change defined writers", func(t *testing.T) {
		conf := NewConfiguration()
		_, err := conf.DefineWriter("admin", "", WithOutputDir(filepath.Join(dir, "admin")))
		require.NoError(t, err)
		require.NoError(t, conf.Set("comments", true))

		c, _ := conf.Writer("admin")
		assert.False(t, c.Comments)
	})

	t.Run("set rejects invalid values", func(t *testing.T) {
		conf := NewConfiguration()
		err := conf.Set("null_strategy", "sometimes")
		require.Error(t, err)
		assert.Empty(t, conf.GlobalSettings())
	})

	t.Run("set rejects a taken output directory", func(t *testing.T) {
		conf := NewConfiguration()
		_, err := conf.DefineWriter("admin", "", WithOutputDir(filepath.Join(dir, "taken")))
		require.NoError(t, err)
		err = conf.Set("output_dir", filepath.Join(dir, "taken"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already in use by writer admin")
	})

	t.Run("global settings are copies", func(t *testing.T) {
		conf := NewConfiguration()
		require.NoError(t, conf.Set("plugin_configs", map[string]any{"keyed": map[string]any{"transform_keys": "camel"}}))
		g := conf.GlobalSettings()
		g["comments"] = true
		assert.NotContains(t, conf.GlobalSettings(), "comments")
	})
}

func TestConfigurationResetWriters(t *testing.T) {
	dir := t.TempDir()
	conf := NewConfiguration()
	_, err := conf.DefineWriter("admin", "", WithOutputDir(filepath.Join(dir, "admin")))
	require.NoError(t, err)

	conf.ResetWriters()

	assert.Equal(t, []string{DefaultWriter}, conf.Writers())
	_, ok := conf.OutputDir("admin")
	assert.False(t, ok)

	_, err = conf.DefineWriter("again", "", WithOutputDir(filepath.Join(dir, "admin")))
	assert.NoError(t, err)
}
