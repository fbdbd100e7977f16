// Package dialect names the database dialects shapegen can inspect.
//
// Each dialect is identified by a constant string:
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// The names double as database/sql driver names. The dialect/sql
// package inspects a live database of one of these dialects into a
// catalog of storage models:
//
//	catalog, err := sql.Inspect(ctx, dialect.Postgres, "postgres://...")
//	if err != nil {
//	    return err
//	}
//	g := gen.NewGenerator(conf, gen.WithCatalog(catalog))
package dialect
