package load

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadManifest(t *testing.T) {
	m, err := LoadManifest(filepath.Join("testdata", "valid.yml"))
	require.NoError(t, err)
	require.Len(t, m.Models, 1)
	require.Len(t, m.Types, 2)

	users := m.Models[0]
	assert.Equal(t, "users", users.Name)
	assert.Equal(t, "Registered users", users.Comment)
	require.Len(t, users.Columns, 5)
	assert.True(t, users.Columns[1].Null)
	assert.Equal(t, []string{"admin", "member"}, users.Columns[2].Enum)
	assert.True(t, users.Columns[3].Array)

	user := m.Types[0]
	assert.Equal(t, "UserSerializer", user.Name)
	assert.Equal(t, "users", user.Model)
	require.Len(t, user.Fields, 5)
	assert.Equal(t, "name", user.Fields[1].ColumnName())
	assert.True(t, user.Fields[3].Association())
	assert.Equal(t, "manager_id", user.Fields[3].ForeignKeyColumn())
	require.NotNil(t, user.Fields[4].Inline)
	assert.True(t, user.Fields[4].Inline.Inline())

	t.Run("override shortcuts", func(t *testing.T) {
		o := user.Typelize["name"]
		require.NotNil(t, o)
		assert.Equal(t, "string", o.Type)
		require.NotNil(t, o.Optional)
		assert.True(t, *o.Optional)
		assert.True(t, o.SkipComment)
		assert.Empty(t, o.Comment)
	})

	t.Run("enum false", func(t *testing.T) {
		o := user.Typelize["role"]
		require.NotNil(t, o)
		assert.True(t, o.SkipEnum)
		assert.Nil(t, o.Enum)
	})

	t.Run("config settings", func(t *testing.T) {
		assert.Equal(t, map[string]any{"comments": true}, m.Types[1].Config)
	})
}

func TestParseManifest(t *testing.T) {
	t.Run("empty document", func(t *testing.T) {
		m, err := ParseManifest(nil)
		require.NoError(t, err)
		assert.Empty(t, m.Types)
	})

	t.Run("unknown keys are rejected", func(t *testing.T) {
		_, err := LoadManifest(filepath.Join("testdata", "unknown_key.yml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "colour")
	})

	t.Run("model without name", func(t *testing.T) {
		_, err := ParseManifest([]byte("models:\n  - columns: []\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "model #0 has no name")
	})

	t.Run("override comment and enum values", func(t *testing.T) {
		m, err := ParseManifest([]byte(`
types:
  - name: A
    fields: [{name: status}]
    typelize:
      status: {type: "string[]?", comment: "Current status", enum: [on, off], nullable: true}
`))
		require.NoError(t, err)
		o := m.Types[0].Typelize["status"]
		require.NotNil(t, o)
		assert.Equal(t, "string", o.Type)
		assert.True(t, *o.Multi)
		assert.True(t, *o.Optional)
		assert.True(t, *o.Nullable)
		assert.Equal(t, "Current status", o.Comment)
		assert.Equal(t, []string{"on", "off"}, o.Enum)
	})
}

func TestManifestMerge(t *testing.T) {
	a := &Manifest{Types: []*Type{{Name: "A"}}}
	b := &Manifest{Types: []*Type{{Name: "B"}}, Models: []*Model{{Name: "bs"}}}
	a.Merge(b)

	r, err := a.Registry()
	require.NoError(t, err)
	_, ok := r.Lookup("B")
	assert.True(t, ok)
	assert.Len(t, a.Models, 1)
}

func TestOverrideMerge(t *testing.T) {
	yes, no := true, false
	parent := &Override{Type: "string", Nullable: &yes, Comment: "parent"}
	child := &Override{Nullable: &no, SkipEnum: true}

	m := parent.Merge(child)
	assert.Equal(t, "string", m.Type)
	assert.False(t, *m.Nullable)
	assert.Equal(t, "parent", m.Comment)
	assert.True(t, m.SkipEnum)
	assert.True(t, *parent.Nullable, "merge must not modify the receiver")

	var none *Override
	assert.Equal(t, child, none.Merge(child))
	assert.True(t, none.Empty())
	assert.False(t, child.Empty())
}
