package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

type Driver string

const (
	DriverPostgres Driver = "postgres" // lib/pq
	DriverPgx      Driver = "pgx"      // jackc/pgx stdlib
	DriverSQLite   Driver = "sqlite"   // modernc.org/sqlite
)

type Config struct {
	Driver   Driver
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// ConnString returns cfg.DSN when set, otherwise a DSN composed from the
// individual fields.
func (cfg Config) ConnString() string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	if cfg.Driver == DriverSQLite {
		return fmt.Sprintf("file:%s.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", cfg.DBName)
	}
	return fmt.Sprintf("postgresql://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)
}

func (d Driver) dialect() Driver {
	if d == DriverPgx {
		return DriverPostgres
	}
	return d
}

// Open connects with the configured driver, pings the server and makes
// sure the schema exists.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	switch cfg.Driver {
	case DriverPostgres, DriverPgx, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	conn, err := sql.Open(string(cfg.Driver), cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}
	if cfg.Driver == DriverSQLite {
		// One writer at a time; also keeps in-memory databases on a single connection.
		conn.SetMaxOpenConns(1)
	}

	if err = conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	if err = InitSchema(ctx, conn, cfg.Driver); err != nil {
		conn.Close()
		return nil, err
	}

	log.Printf("Connected to %s database", cfg.Driver)
	return conn, nil
}
