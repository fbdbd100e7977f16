package dialect

import (
	"fmt"
	"strings"
)

// Dialect names for external usage.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// Dialects returns the supported dialect names.
func Dialects() []string {
	return []string{MySQL, Postgres, SQLite}
}

// Normalize returns the dialect of name. Driver aliases like "sqlite3"
// or "postgresql" map to their dialect.
func Normalize(name string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch {
	case strings.HasPrefix(n, MySQL):
		return MySQL, nil
	case strings.HasPrefix(n, SQLite):
		return SQLite, nil
	case strings.HasPrefix(n, Postgres), n == "pgx":
		return Postgres, nil
	}
	return "", fmt.Errorf("dialect: unsupported dialect %q", name)
}
