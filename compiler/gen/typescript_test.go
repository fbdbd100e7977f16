package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/shapegen/compiler/load"
)

func render(t *testing.T, n *Interface) string {
	t.Helper()
	out, err := TypeScript{}.RenderInterface(n)
	require.NoError(t, err)
	return string(out)
}

func TestTypeScriptRenderInterface(t *testing.T) {
	user := func() *load.Type {
		return &load.Type{Name: "UserSerializer", Fields: []*load.Field{
			{Name: "id", Typed: "Integer"},
			{Name: "name", Typed: "String"},
		}}
	}

	t.Run("default export", func(t *testing.T) {
		wctx := testContext(t, nil, nil, user())
		assert.Equal(t, "type User = {\n  id: number;\n  name: string;\n};\n\nexport default User;\n", render(t, nodeFor(t, wctx, "UserSerializer")))
	})

	t.Run("verbatim module syntax", func(t *testing.T) {
		wctx := testContext(t, testConfiguration(t, WithVerbatimModuleSyntax(true)), nil, user())
		assert.Equal(t, "export type User = {\n  id: number;\n  name: string;\n};\n", render(t, nodeFor(t, wctx, "UserSerializer")))
	})

	t.Run("imports", func(t *testing.T) {
		wctx := testContext(t, nil, nil,
			user(),
			&load.Type{Name: "PostSerializer", Fields: []*load.Field{{Name: "author", Ref: "UserSerializer"}}},
		)
		out := render(t, nodeFor(t, wctx, "PostSerializer"))
		assert.Equal(t, "import type { User } from '@/types';\n\ntype Post = {\n  author: User;\n};\n\nexport default Post;\n", out)
	})

	t.Run("double quotes", func(t *testing.T) {
		wctx := testContext(t, testConfiguration(t, WithPreferDoubleQuotes(true), WithTypesImportPath("~/types")), nil,
			user(),
			&load.Type{Name: "PostSerializer", Fields: []*load.Field{{Name: "author", Ref: "UserSerializer"}}},
		)
		assert.Contains(t, render(t, nodeFor(t, wctx, "PostSerializer")), `import type { User } from "~/types";`)
	})

	t.Run("comments", func(t *testing.T) {
		typ := user()
		typ.Typelize = map[string]*load.Override{
			"id":   {Comment: "Primary key"},
			"name": {Comment: "First line\nSecond line"},
		}
		wctx := testContext(t, testConfiguration(t, WithComments(true)), nil, typ)
		out := render(t, nodeFor(t, wctx, "UserSerializer"))
		assert.Contains(t, out, "  /** Primary key */\n  id: number;\n")
		assert.Contains(t, out, "  /**\n   * First line\n   * Second line\n   */\n  name: string;\n")
	})

	t.Run("parent with overwritten properties", func(t *testing.T) {
		conf := testConfiguration(t, WithInheritanceStrategy(InheritanceInheritance))
		wctx := testContext(t, conf, nil,
			user(),
			&load.Type{
				Name:     "AdminSerializer",
				Parent:   "UserSerializer",
				Fields:   []*load.Field{{Name: "id", Typed: "Integer"}, {Name: "name", Typed: "String"}, {Name: "level", Typed: "Integer"}},
				Typelize: map[string]*load.Override{"name": {Nullable: ptr(true)}},
			},
		)
		out := render(t, nodeFor(t, wctx, "AdminSerializer"))
		assert.Contains(t, out, "import type { User } from '@/types';")
		assert.Contains(t, out, "type Admin = Omit<User, 'name'> & {\n  name: string | null;\n  level: number;\n};")
	})

	t.Run("parent without overwritten properties", func(t *testing.T) {
		conf := testConfiguration(t, WithInheritanceStrategy(InheritanceInheritance))
		wctx := testContext(t, conf, nil,
			user(),
			&load.Type{Name: "AdminSerializer", Parent: "UserSerializer", Fields: []*load.Field{
				{Name: "id", Typed: "Integer"}, {Name: "name", Typed: "String"}, {Name: "level", Typed: "Integer"},
			}},
		)
		assert.Contains(t, render(t, nodeFor(t, wctx, "AdminSerializer")), "type Admin = User & {\n  level: number;\n};")
	})

	t.Run("root key and meta", func(t *testing.T) {
		wctx := testContext(t, nil, nil, &load.Type{
			Name:         "PostSerializer",
			RootKey:      "post",
			Fields:       []*load.Field{{Name: "title", Typed: "String"}},
			Meta:         []*load.Field{{Name: "total", Typed: "Integer"}},
			TypelizeMeta: map[string]*load.Override{"total": {Optional: ptr(true)}},
		})
		out := render(t, nodeFor(t, wctx, "PostSerializer"))
		assert.Equal(t, "export type PostData = {\n  title: string;\n};\n\ntype Post = {\n  post: PostData;\n  total?: number;\n};\n\nexport default Post;\n", out)
	})

	t.Run("traits", func(t *testing.T) {
		wctx := testContext(t, nil, nil, &load.Type{
			Name:   "UserSerializer",
			Fields: []*load.Field{{Name: "id", Typed: "Integer"}},
			Traits: []*load.Trait{{Name: "profile", Fields: []*load.Field{{Name: "bio", Typed: "String"}}}},
		})
		assert.Contains(t, render(t, nodeFor(t, wctx, "UserSerializer")), "type User = {\n  id: number;\n};\n\nexport type UserProfileTrait = {\n  bio: string;\n};\n\nexport default User;\n")
	})

	t.Run("nested inline types are indented", func(t *testing.T) {
		wctx := testContext(t, nil, nil, &load.Type{Name: "UserSerializer", Fields: []*load.Field{
			{Name: "stats", Inline: &load.Type{Fields: []*load.Field{{Name: "count", Typed: "Integer"}}}},
		}})
		assert.Contains(t, render(t, nodeFor(t, wctx, "UserSerializer")), "type User = {\n  stats: {\n    count: number;\n  };\n};")
	})
}

func TestTypeScriptRenderIndex(t *testing.T) {
	types := []*load.Type{
		{Name: "UserSerializer", Fields: []*load.Field{{Name: "id"}}},
		{Name: "Admin::UserSerializer", Fields: []*load.Field{{Name: "id"}}, Traits: []*load.Trait{{Name: "audit", Fields: []*load.Field{{Name: "by"}}}}},
	}

	t.Run("default exports", func(t *testing.T) {
		wctx := testContext(t, nil, nil, types...)
		nodes := []*Interface{nodeFor(t, wctx, "UserSerializer"), nodeFor(t, wctx, "Admin::UserSerializer")}
		out, err := TypeScript{}.RenderIndex(nodes)
		require.NoError(t, err)
		assert.Equal(t, "export type { default as AdminUser } from './Admin/User';\n"+
			"export type { AdminUserAuditTrait } from './Admin/User';\n"+
			"export type { default as User } from './User';\n", string(out))
	})

	t.Run("verbatim module syntax", func(t *testing.T) {
		wctx := testContext(t, testConfiguration(t, WithVerbatimModuleSyntax(true)), nil, types...)
		nodes := []*Interface{nodeFor(t, wctx, "UserSerializer"), nodeFor(t, wctx, "Admin::UserSerializer")}
		out, err := TypeScript{}.RenderIndex(nodes)
		require.NoError(t, err)
		assert.Equal(t, "export type * from './Admin/User';\nexport type * from './User';\n", string(out))
	})
}

func TestTypeScriptHeader(t *testing.T) {
	ts := TypeScript{}
	h := ts.Header(Digest("x"))
	assert.Equal(t, "// shapegen digest "+Digest("x")+"\n//\n// DO NOT MODIFY: This file was automatically generated by shapegen.\n", h)
	assert.Len(t, Digest("x"), 64)
	assert.NotEqual(t, Digest("x"), Digest("y"))

	f, ok := LookupFlavor("typescript")
	require.True(t, ok)
	assert.Equal(t, ".ts", f.Ext())
	assert.Equal(t, "index.ts", f.IndexFilename())
}
