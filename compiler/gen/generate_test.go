package gen

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/shapegen/compiler/load"
)

func TestGeneratorRun(t *testing.T) {
	registry := func(t *testing.T) *load.Registry {
		reg, err := load.NewRegistry(
			&load.Type{Name: "UserSerializer", Fields: []*load.Field{{Name: "id", Typed: "Integer"}, {Name: "name", Typed: "String"}}},
			&load.Type{Name: "Admin::AuditSerializer", Fields: []*load.Field{{Name: "by", Ref: "UserSerializer"}}},
		)
		require.NoError(t, err)
		return reg
	}

	t.Run("runs every writer with its own settings", func(t *testing.T) {
		dir := t.TempDir()
		conf := NewConfiguration()
		_, err := conf.DefineWriter(DefaultWriter, "", WithOutputDir(filepath.Join(dir, "app")))
		require.NoError(t, err)
		_, err = conf.DefineWriter("admin", DefaultWriter, WithOutputDir(filepath.Join(dir, "admin")), WithVerbatimModuleSyntax(true))
		require.NoError(t, err)

		results, err := NewGenerator(conf, WithLogger(discard())).Run(context.Background(), registry(t), RunOptions{})
		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, res := range results {
			assert.Len(t, res.Written, 3, res.Writer)
		}

		app, err := os.ReadFile(filepath.Join(dir, "app", "User.ts"))
		require.NoError(t, err)
		assert.Contains(t, string(app), "export default User;")
		admin, err := os.ReadFile(filepath.Join(dir, "admin", "User.ts"))
		require.NoError(t, err)
		assert.Contains(t, string(admin), "export type User = {")
		assert.NotContains(t, string(admin), "export default")
	})

	t.Run("limits the pass to the named writers", func(t *testing.T) {
		dir := t.TempDir()
		conf := NewConfiguration()
		_, err := conf.DefineWriter(DefaultWriter, "", WithOutputDir(filepath.Join(dir, "app")))
		require.NoError(t, err)
		_, err = conf.DefineWriter("admin", "", WithOutputDir(filepath.Join(dir, "admin")))
		require.NoError(t, err)

		results, err := NewGenerator(conf, WithLogger(discard())).Run(context.Background(), registry(t), RunOptions{Writers: []string{"admin"}})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "admin", results[0].Writer)
		_, err = os.Stat(filepath.Join(dir, "app"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("unknown writer", func(t *testing.T) {
		conf := testConfiguration(t)
		_, err := NewGenerator(conf, WithLogger(discard())).Run(context.Background(), registry(t), RunOptions{Writers: []string{"missing"}})
		assert.True(t, IsConfigError(err))
	})

	t.Run("rejected types are not generated", func(t *testing.T) {
		conf := testConfiguration(t)
		g := NewGenerator(conf, WithLogger(discard()), WithReject(func(t *load.Type) bool {
			return strings.HasPrefix(t.Name, "Admin::")
		}))
		results, err := g.Run(context.Background(), registry(t), RunOptions{})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"User.ts", "index.ts"}, results[0].Written)
	})

	t.Run("cancelled context", func(t *testing.T) {
		conf := testConfiguration(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		results, err := NewGenerator(conf, WithLogger(discard())).Run(ctx, registry(t), RunOptions{})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, results)
	})

	t.Run("schema errors stop the pass", func(t *testing.T) {
		conf := testConfiguration(t)
		reg, err := load.NewRegistry(&load.Type{Name: "T", Config: map[string]any{"null_strategy": "sometimes"}, Fields: []*load.Field{{Name: "id"}}})
		require.NoError(t, err)
		_, err = NewGenerator(conf, WithLogger(discard())).Run(context.Background(), reg, RunOptions{})
		assert.True(t, IsSchemaError(err))
	})

	t.Run("concurrent passes are serialized", func(t *testing.T) {
		conf := testConfiguration(t)
		g := NewGenerator(conf, WithLogger(discard()))
		reg := registry(t)

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			written int
		)
		for range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results, err := g.Run(context.Background(), reg, RunOptions{})
				assert.NoError(t, err)
				mu.Lock()
				defer mu.Unlock()
				for _, res := range results {
					written += len(res.Written)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 3, written)
	})
}

func TestGeneratorInterfaces(t *testing.T) {
	wctx := testContext(t, nil, nil,
		&load.Type{Name: "ZetaSerializer", Fields: []*load.Field{{Name: "z"}}},
		&load.Type{Name: "AlphaSerializer", Fields: []*load.Field{{Name: "a", Inline: &load.Type{Fields: []*load.Field{{Name: "n"}}}}}},
	)
	nodes, err := NewGenerator(NewConfiguration()).Interfaces(wctx)
	require.NoError(t, err)
	got := make([]string, len(nodes))
	for i, n := range nodes {
		got[i] = n.Name()
	}
	assert.Equal(t, []string{"Alpha", "Zeta"}, got)
}
