package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver
)

// DBStore keeps every collection as a single row in the collections table,
// keyed by collection name. It speaks postgres for postgres:// URLs and
// sqlite for everything else, through the same sqlx interface.
type DBStore struct {
	db *sqlx.DB
}

// NewDBStore opens the database for url and bootstraps the schema. The
// initial ping is retried with backoff before giving up, to ride out slow
// database startup on redeploys.
func NewDBStore(url string) (*DBStore, error) {
	driver := "sqlite"
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		driver = "pgx"
	}

	db, err := sqlx.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rptr := repeater.New(&strategy.Backoff{Repeats: 3, Duration: 500 * time.Millisecond, Factor: 2})
	if err := rptr.Do(ctx, db.Ping); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %w (also failed to close db: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if driver == "sqlite" {
		// enable WAL mode for better concurrency
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			if closeErr := db.Close(); closeErr != nil {
				return nil, fmt.Errorf("failed to set WAL mode: %w (also failed to close db: %v)", err, closeErr)
			}
			return nil, fmt.Errorf("failed to set WAL mode: %w", err)
		}
	}

	res := &DBStore{db: db}
	if err := res.initialize(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("%w (also failed to close db: %v)", err, closeErr)
		}
		return nil, err
	}
	return res, nil
}

// initialize creates the collections table. The DDL is the dialect-neutral
// subset accepted by both postgres and sqlite.
func (s *DBStore) initialize() error {
	query := `CREATE TABLE IF NOT EXISTS collections (
		name TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create collections table: %w", err)
	}
	return nil
}

// Load selects the record for name. No row means the collection has never
// been saved and returns nil data without an error.
func (s *DBStore) Load(name string) ([]byte, error) {
	var data []byte
	query := s.db.Rebind("SELECT data FROM collections WHERE name = ?")
	if err := s.db.Get(&data, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load collection %q: %w", name, err)
	}
	return data, nil
}

// Save upserts the record for name, replacing the previous contents.
func (s *DBStore) Save(name string, data []byte) error {
	query := s.db.Rebind(`INSERT INTO collections (name, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`)
	if _, err := s.db.Exec(query, name, string(data), time.Now()); err != nil {
		return fmt.Errorf("failed to save collection %q: %w", name, err)
	}
	return nil
}

// Close closes the database connection.
func (s *DBStore) Close() error {
	return s.db.Close()
}

func (s *DBStore) String() string {
	return fmt.Sprintf("database:%s", s.db.DriverName())
}
