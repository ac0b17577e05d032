// Package store is the persistent store of contacts, their connections and every record that
// depends on a contact. Every query filters by the owning user id in addition to the entity id.
package store

import (
	"bufio"
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

//go:embed schema/*.sql
var schemaFS embed.FS

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know yet.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Queries runs statements against either the database or an open transaction.
type Queries struct {
	q sqlx.ExtContext
}

// Store is a handle to the database. It embeds Queries for statements that do not need a
// transaction.
type Store struct {
	*Queries
	db *sqlx.DB
}

// Open connects to the database with the given driver ("mysql" or "sqlite") and data source
// name.
func Open(driver string, dsn string) (*Store, error) {
	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == "sqlite" {
		// SQLite serializes writers anyway; a single connection keeps transactions and
		// pragmas on the same handle.
		sqlDB.SetMaxOpenConns(1)
		if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}
	return New(sqlx.NewDb(sqlDB, driver)), nil
}

// New wraps an existing sqlx database. The database argument can be a real database for
// production use or a mock database within unit tests.
func New(db *sqlx.DB) *Store {
	return &Store{Queries: &Queries{q: db}, db: db}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// InTx runs fn inside a transaction. The transaction is committed if fn returns nil and rolled
// back otherwise, so either all of fn's writes are applied or none.
func (s *Store) InTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Queries{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Migrate creates all tables that do not exist yet, using the schema of the database's driver.
func (s *Store) Migrate(ctx context.Context) error {
	f, err := schemaFS.Open("schema/" + s.db.DriverName() + ".sql")
	if err != nil {
		return fmt.Errorf("no schema for driver %s: %w", s.db.DriverName(), err)
	}
	defer f.Close()
	return s.ExecScript(ctx, f)
}

// ExecScript executes the SQL statements read from r. A statement ends on the line that
// contains its semicolon.
func (s *Store) ExecScript(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanLines)
	builder := strings.Builder{}
	for scanner.Scan() {
		line := scanner.Text()
		builder.WriteString(line)
		builder.WriteString(" ")
		if strings.Contains(line, ";") {
			if _, err := s.db.ExecContext(ctx, builder.String()); err != nil {
				return fmt.Errorf("failed to execute %q: %w", strings.TrimSpace(builder.String()), err)
			}
			builder = strings.Builder{}
		}
	}
	return scanner.Err()
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
