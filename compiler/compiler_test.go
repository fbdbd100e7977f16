package compiler

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/shapegen"
	"github.com/syssam/shapegen/compiler/gen"
	"github.com/syssam/shapegen/compiler/load"
	"github.com/syssam/shapegen/contrib/graphql"
	"github.com/syssam/shapegen/dialect"
	"github.com/syssam/shapegen/schema/edge"
	"github.com/syssam/shapegen/schema/field"
)

func createDB(t *testing.T, path string, stmts ...string) {
	t.Helper()
	db, err := sql.Open(dialect.SQLite, path)
	require.NoError(t, err)
	defer db.Close()
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
}

func TestRunnerRun(t *testing.T) {
	dir := writeFiles(t, t.TempDir(), map[string]string{
		"types/users.yml": usersManifest,
		"types/posts.yml": `
types:
  - name: PostSerializer
    model: posts
    fields:
      - {name: title}
      - {name: author, ref: UserSerializer}
models:
  - name: posts
    columns:
      - {name: title, type: string}
      - {name: author_id, type: integer}
`,
		"shapegen.yml": `
manifests: [types/*.yml]
settings:
  output_dir: web/types
database:
  dialect: sqlite3
  dsn: app.db
writers:
  default: {}
  graph:
    flavor: graphql
    output_dir: graph/types
    plugin_configs:
      graphql:
        gqlgen_config: gqlgen.yml
  api:
    flavor: go
    output_dir: api/types
`,
	})
	createDB(t, filepath.Join(dir, "app.db"),
		"CREATE TABLE `users` (`id` integer NOT NULL PRIMARY KEY, `name` text NULL)",
		"CREATE TABLE `posts` (`id` integer NOT NULL PRIMARY KEY, `title` text NULL)",
	)

	r := NewRunner(filepath.Join(dir, "shapegen.yml"), WithLogger(discard()))
	results, err := r.Run(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, results, 3)
	byWriter := make(map[string]*gen.Result, len(results))
	for _, res := range results {
		byWriter[res.Writer] = res
	}

	t.Run("typescript", func(t *testing.T) {
		require.Contains(t, byWriter, gen.DefaultWriter)
		assert.ElementsMatch(t, []string{"User.ts", "Post.ts", "index.ts"}, byWriter[gen.DefaultWriter].Written)
		user := readFile(t, filepath.Join(dir, "web", "types", "User.ts"))
		assert.Contains(t, user, "  id: number;\n")
		assert.Contains(t, user, "  name: string | null;\n")
		post := readFile(t, filepath.Join(dir, "web", "types", "Post.ts"))
		assert.Contains(t, post, "  title: string;\n", "manifest models win over inspected tables")
		assert.Contains(t, post, "  author: User;\n")
	})

	t.Run("graphql", func(t *testing.T) {
		require.Contains(t, byWriter, "graph")
		user := readFile(t, filepath.Join(dir, "graph", "types", "User.graphql"))
		assert.Contains(t, user, "type User {")
		assert.Contains(t, user, "id: ID!")
		assert.Contains(t, user, "name: String\n")

		cfg, err := graphql.LoadGQLGenConfig(filepath.Join(dir, "gqlgen.yml"))
		require.NoError(t, err)
		paths, err := cfg.SchemaPaths()
		require.NoError(t, err)
		assert.Equal(t, []string{"graph/types/**/*.graphql"}, paths)
		models, err := cfg.Model(graphql.JSONScalar)
		require.NoError(t, err)
		assert.Equal(t, []string{"github.com/99designs/gqlgen/graphql.Map"}, models)
	})

	t.Run("go", func(t *testing.T) {
		require.Contains(t, byWriter, "api")
		assert.ElementsMatch(t, []string{"user.go", "post.go", "doc.go"}, byWriter["api"].Written)
		user := readFile(t, filepath.Join(dir, "api", "types", "user.go"))
		assert.Contains(t, user, "package types")
		assert.Regexp(t, `Name\s+\*string\s+`+"`"+`json:"name"`+"`", user)
	})

	t.Run("catalog", func(t *testing.T) {
		assert.Equal(t, []string{"posts", "users"}, r.Catalog().Names())
		posts, ok := r.Catalog().Model("posts")
		require.True(t, ok)
		assert.Len(t, posts.Columns, 2)
		assert.Equal(t, "author_id", posts.Columns[1].Name)
	})

	t.Run("second pass skips unchanged files", func(t *testing.T) {
		results, err := r.Run(context.Background(), false)
		require.NoError(t, err)
		for _, res := range results {
			assert.Empty(t, res.Written, res.Writer)
			assert.NotEmpty(t, res.Skipped, res.Writer)
		}
	})
}

func TestRunnerRunErrors(t *testing.T) {
	for name, files := range map[string]map[string]string{
		"missing manifest": {
			"shapegen.yml": "manifests: [types/users.yml]\n",
		},
		"invalid manifest": {
			"shapegen.yml":    "manifests: [types/users.yml]\n",
			"types/users.yml": "types:\n  - fields: [{name: id}]\n",
		},
		"invalid writer": {
			"shapegen.yml":    "manifests: [types/users.yml]\nwriters:\n  a: {from: b}\n",
			"types/users.yml": usersManifest,
		},
		"unreachable database": {
			"shapegen.yml":    "manifests: [types/users.yml]\ndatabase: {dialect: mysql, dsn: 'root@tcp(127.0.0.1:1)/app'}\n",
			"types/users.yml": usersManifest,
		},
	} {
		t.Run(name, func(t *testing.T) {
			dir := writeFiles(t, t.TempDir(), files)
			_, err := NewRunner(filepath.Join(dir, "shapegen.yml"), WithLogger(discard())).Run(context.Background(), false)
			assert.Error(t, err)
		})
	}

	t.Run("excluded types", func(t *testing.T) {
		dir := writeFiles(t, t.TempDir(), map[string]string{
			"shapegen.yml":    "manifests: [types/users.yml]\nexclude: ['Admin::*']\nsettings: {output_dir: out}\n",
			"types/users.yml": usersManifest + "  - name: Admin::RoleSerializer\n    fields: [{name: id}]\n",
		})
		results, err := NewRunner(filepath.Join(dir, "shapegen.yml"), WithLogger(discard())).Run(context.Background(), false)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.ElementsMatch(t, []string{"User.ts", "index.ts"}, results[0].Written)
	})

	t.Run("rejected types", func(t *testing.T) {
		dir := writeFiles(t, t.TempDir(), map[string]string{
			"shapegen.yml":    "manifests: [types/users.yml]\nsettings: {output_dir: out}\n",
			"types/users.yml": usersManifest + "  - name: Admin::RoleSerializer\n    fields: [{name: id}]\n",
		})
		r := NewRunner(filepath.Join(dir, "shapegen.yml"), WithLogger(discard()), WithReject(func(t *load.Type) bool {
			return t.Name == "Admin::RoleSerializer"
		}))
		results, err := r.Run(context.Background(), false)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.ElementsMatch(t, []string{"User.ts", "index.ts"}, results[0].Written)
	})
}

type ArticleSerializer struct{ shapegen.Schema }

func (ArticleSerializer) Fields() []shapegen.Field {
	return []shapegen.Field{
		field.Typed("id", "Integer"),
		field.Attr("title").Type("string"),
	}
}

func (ArticleSerializer) Edges() []shapegen.Edge {
	return []shapegen.Edge{edge.Many("writers", WriterSerializer.Type)}
}

type WriterSerializer struct{ shapegen.Schema }

func (WriterSerializer) Fields() []shapegen.Field {
	return []shapegen.Field{field.Attr("name").Type("string")}
}

func TestGenerateSchemas(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "types")
	conf := gen.NewConfiguration()
	require.NoError(t, conf.Set("output_dir", dir))

	results, err := GenerateSchemas(context.Background(), conf, []shapegen.Interface{ArticleSerializer{}, WriterSerializer{}}, gen.WithLogger(discard()))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.ElementsMatch(t, []string{"Article.ts", "Writer.ts", "index.ts"}, results[0].Written)

	article := readFile(t, filepath.Join(dir, "Article.ts"))
	assert.Contains(t, article, "import type { Writer } from '@/types';")
	assert.Contains(t, article, "  id: number;\n  title: string;\n  writers: Array<Writer>;\n")
}
