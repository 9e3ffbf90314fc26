package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// migration is one forward-only schema step.
type migration struct {
	version int
	name    string
	stmts   []string
}

// migrations is the ordered schema history. Append only; never edit a shipped step.
var migrations = []migration{
	{
		version: 1,
		name:    "baseline",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS contact (
				id TEXT PRIMARY KEY,
				position INTEGER NOT NULL,
				name TEXT NOT NULL,
				phone TEXT NOT NULL,
				email TEXT NOT NULL,
				address TEXT NOT NULL DEFAULT '',
				class TEXT NOT NULL DEFAULT '',
				birthday TEXT NOT NULL DEFAULT '',
				note TEXT NOT NULL DEFAULT '',
				tags TEXT NOT NULL DEFAULT '',
				favourite INTEGER NOT NULL DEFAULT 0
			)`,
			`CREATE INDEX IF NOT EXISTS idx_contact_position ON contact(position)`,
			`CREATE TABLE IF NOT EXISTS view_state (
				key TEXT PRIMARY KEY,
				mode TEXT NOT NULL,
				keywords TEXT NOT NULL DEFAULT ''
			)`,
		},
	},
	{
		version: 2,
		name:    "deletion_log",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS deletion_log (
				id TEXT PRIMARY KEY,
				contact_id TEXT NOT NULL,
				contact_name TEXT NOT NULL,
				request_kind TEXT NOT NULL,
				query TEXT NOT NULL,
				deleted_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_deletion_log_deleted_at ON deletion_log(deleted_at)`,
		},
	},
	{
		version: 3,
		name:    "receipt_outbox",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS receipt_outbox (
				id TEXT PRIMARY KEY,
				contact_id TEXT NOT NULL,
				payload TEXT NOT NULL,
				status TEXT NOT NULL,
				attempts INTEGER NOT NULL DEFAULT 0,
				max_attempts INTEGER NOT NULL,
				last_attempted_at TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				message_id TEXT NOT NULL DEFAULT '',
				error_message TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE INDEX IF NOT EXISTS idx_receipt_outbox_status ON receipt_outbox(status, created_at)`,
		},
	},
}

// LatestSchemaVersion returns the version the newest migration produces.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the version recorded in schema_version (0 for a fresh database).
// PRE: db is a valid database connection
// POST: Returns the current version or an error
func SchemaVersion(db *sql.DB) (int, error) {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return 0, fmt.Errorf("failed to create schema_version: %w", err)
	}
	var version sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(version.Int64), nil
}

// MigrateDB brings the schema up to LatestSchemaVersion.
// PRE: db is a valid database connection
// POST: All pending migrations applied, each in its own transaction
// INVARIANT: Running it twice is a no-op
func MigrateDB(db *sql.DB) error {
	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, m.version); err != nil {
		return err
	}
	return tx.Commit()
}

// Open opens the SQLite database at path with the pragmas the stores rely on.
// PRE: path is a file path or ":memory:"
// POST: Returns a pinged connection; caller must Close it
func Open(path string) (*sql.DB, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	if path == ":memory:" {
		dsn = path
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would get its own empty in-memory database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	return db, nil
}
