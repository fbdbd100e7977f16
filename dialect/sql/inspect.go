package sql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"

	"github.com/syssam/shapegen/compiler/load"
	"github.com/syssam/shapegen/dialect"
)

// InspectOption configures an inspection.
type InspectOption func(*inspectOptions)

type inspectOptions struct {
	schema string
	tables []string
	logger *slog.Logger
}

// WithSchema inspects the named schema instead of the current one.
func WithSchema(name string) InspectOption {
	return func(o *inspectOptions) {
		o.schema = name
	}
}

// WithTables limits the inspection to the given tables.
func WithTables(tables ...string) InspectOption {
	return func(o *inspectOptions) {
		o.tables = append(o.tables, tables...)
	}
}

// WithLogger sets the logger of the inspection.
func WithLogger(l *slog.Logger) InspectOption {
	return func(o *inspectOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Inspect opens the database at source with the driver registered for
// the dialect, inspects it and closes it. The caller registers the
// database/sql driver, e.g. by importing modernc.org/sqlite.
func Inspect(ctx context.Context, name, source string, opts ...InspectOption) (*Catalog, error) {
	d, err := dialect.Normalize(name)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(d, source)
	if err != nil {
		return nil, fmt.Errorf("sql: open %s database: %w", d, err)
	}
	defer db.Close()
	return InspectDB(ctx, d, db, opts...)
}

// InspectDB returns the catalog of the tables of an open database.
func InspectDB(ctx context.Context, name string, db schema.ExecQuerier, opts ...InspectOption) (*Catalog, error) {
	o := &inspectOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	d, err := dialect.Normalize(name)
	if err != nil {
		return nil, err
	}
	drv, err := atlasDriver(d, db)
	if err != nil {
		return nil, fmt.Errorf("sql: open %s driver: %w", d, err)
	}
	s, err := drv.InspectSchema(ctx, o.schema, &schema.InspectOptions{Tables: o.tables})
	if err != nil {
		return nil, fmt.Errorf("sql: inspect %s schema: %w", d, err)
	}
	c := NewCatalog()
	for _, t := range s.Tables {
		if d == dialect.SQLite && strings.HasPrefix(t.Name, "sqlite_") {
			continue
		}
		c.Add(TableModel(t))
	}
	o.logger.Debug("inspected database", "dialect", d, "schema", s.Name, "tables", c.Len())
	return c, nil
}

func atlasDriver(d string, db schema.ExecQuerier) (migrate.Driver, error) {
	switch d {
	case dialect.SQLite:
		return sqlite.Open(db)
	case dialect.MySQL:
		return mysql.Open(db)
	case dialect.Postgres:
		return postgres.Open(db)
	default:
		return nil, fmt.Errorf("unsupported dialect %q", d)
	}
}

// TableModel converts an inspected table into a storage model. Column
// types are reduced to the keys of the default type mapping.
func TableModel(t *schema.Table) *load.Model {
	m := &load.Model{Name: t.Name, Comment: comment(t.Attrs)}
	for _, c := range t.Columns {
		m.Columns = append(m.Columns, columnModel(c))
	}
	return m
}

func columnModel(c *schema.Column) *load.Column {
	col := &load.Column{Name: c.Name, Comment: comment(c.Attrs)}
	if c.Type == nil {
		return col
	}
	col.Null = c.Type.Null
	t := c.Type.Type
	if arr, ok := t.(*postgres.ArrayType); ok {
		col.Array = true
		t = arr.Type
	}
	col.Type, col.Enum = typeName(t, c.Type.Raw)
	return col
}

func typeName(t schema.Type, raw string) (string, []string) {
	switch t := t.(type) {
	case *schema.BoolType:
		return "boolean", nil
	case *schema.IntegerType:
		return "integer", nil
	case *schema.DecimalType:
		return "decimal", nil
	case *schema.FloatType:
		return "float", nil
	case *schema.StringType:
		if strings.EqualFold(t.T, "text") {
			return "text", nil
		}
		return "string", nil
	case *schema.TimeType:
		switch tt := strings.ToLower(t.T); {
		case tt == "date":
			return "date", nil
		case strings.HasPrefix(tt, "time") && !strings.HasPrefix(tt, "timestamp"):
			return "time", nil
		default:
			return "datetime", nil
		}
	case *schema.UUIDType:
		return "uuid", nil
	case *schema.JSONType:
		return "json", nil
	case *schema.EnumType:
		return "string", t.Values
	case *schema.BinaryType:
		return "binary", nil
	}
	raw = strings.ToLower(raw)
	if strings.Contains(raw, "uuid") {
		return "uuid", nil
	}
	return raw, nil
}

func comment(attrs []schema.Attr) string {
	for _, a := range attrs {
		if c, ok := a.(*schema.Comment); ok {
			return c.Text
		}
	}
	return ""
}
