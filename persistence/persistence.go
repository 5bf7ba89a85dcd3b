// Package persistence opens the bun database backing the account store
// and applies its migrations.
package persistence

import (
	"context"
	"database/sql"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"

	auth "github.com/goliatone/go-tours-auth"
)

type Options struct {
	DSN string
	// Debug logs every query
	Debug bool
}

// IsPostgres reports whether dsn targets postgres, everything else is sqlite
func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Open returns a bun DB for a postgres URL or a sqlite DSN
func Open(opts Options) (*bun.DB, error) {
	if opts.DSN == "" {
		return nil, goerrors.New("database DSN is required", goerrors.CategoryValidation)
	}

	var db *bun.DB

	if IsPostgres(opts.DSN) {
		sqldb, err := sql.Open("pgx", opts.DSN)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open postgres")
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	} else {
		sqldb, err := sql.Open(sqliteshim.ShimName, opts.DSN)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open sqlite")
		}
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	}

	if opts.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	return db, nil
}

// Migrate applies the embedded goose migrations for the DB dialect
func Migrate(ctx context.Context, db *bun.DB) error {
	name := "sqlite"
	gooseDialect := goose.DialectSQLite3
	if db.Dialect().Name() == dialect.PG {
		name = "postgres"
		gooseDialect = goose.DialectPostgres
	}

	fsys, err := auth.DialectMigrationsFS(name)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load migrations")
	}

	provider, err := goose.NewProvider(gooseDialect, db.DB, fsys)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create migration provider")
	}

	if _, err := provider.Up(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to apply migrations")
	}

	return nil
}
