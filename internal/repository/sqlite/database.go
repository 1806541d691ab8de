// Package sqlite implements the market store on SQLite.
//
// Consistency rests on the engine: the (gig_id, freelancer_id) unique index rejects duplicate
// bids, bid inserts are conditioned on the gig still being open, and the hire transition runs in
// one write transaction whose compare-and-set on gigs.status decides the winner of a race.
package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// driverName is go-sqlite3 with a fold() SQL function that lowercases the way Go does,
// so search matches non-ASCII text the same as the memory store.
const driverName = "sqlite3_market"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("fold", strings.ToLower, true)
		},
	})
}

//go:embed migrations/*.sql
var migrationsFS embed.FS

// connection defaults: writers take the lock at BEGIN and wait for each other instead of failing
const defaultParams = "_txlock=immediate&_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"

// DB bundles the connection pool with a statement builder
type DB struct {
	Database   *sql.DB
	SqlBuilder squirrel.StatementBuilderType
}

// Open opens the SQLite database at dsn. A bare path gets the default connection parameters;
// a dsn that already carries a query string is used as given.
func Open(dsn string) (*DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("sqlite: empty dsn")
	}

	full := dsn
	if !strings.Contains(dsn, "?") {
		full = dsn + "?" + defaultParams
	}

	db, err := sql.Open(driverName, full)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", dsn, err)
	}

	// every connection to :memory: is a separate database
	if strings.HasPrefix(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping %s: %w", dsn, err)
	}

	return &DB{
		Database:   db,
		SqlBuilder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Migrate applies every pending schema migration. It is safe to call on an up-to-date database.
func (d *DB) Migrate() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("sqlite: load migrations: %w", err)
	}

	driver, err := sqlitemigrate.WithInstance(d.Database, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("sqlite: migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("sqlite: migrator: %w", err)
	}

	// m.Close would close d.Database through the driver, so only the source is released.
	defer src.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("sqlite: migrate up: %w", err)
	}
	return nil
}

// SchemaVersion reports the applied migration version
func (d *DB) SchemaVersion() (uint, bool, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return 0, false, fmt.Errorf("sqlite: load migrations: %w", err)
	}
	defer src.Close()

	driver, err := sqlitemigrate.WithInstance(d.Database, &sqlitemigrate.Config{})
	if err != nil {
		return 0, false, fmt.Errorf("sqlite: migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return 0, false, fmt.Errorf("sqlite: migrator: %w", err)
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("sqlite: schema version: %w", err)
	}
	return version, dirty, nil
}

// Close releases the connection pool
func (d *DB) Close() error {
	if d.Database != nil {
		return d.Database.Close()
	}
	return nil
}
