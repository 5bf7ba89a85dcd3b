package auth

import (
	"embed"
	"io/fs"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// DialectMigrationsFS returns the goose migrations for dialect, either
// "sqlite" or "postgres".
func DialectMigrationsFS(dialect string) (fs.FS, error) {
	return fs.Sub(migrationsFS, "data/sql/migrations/"+dialect)
}
