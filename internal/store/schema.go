package store

import "fmt"

const schema = `
-- Users table
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL UNIQUE,
    full_name TEXT DEFAULT '',
    role TEXT NOT NULL DEFAULT 'student',
    is_active INTEGER NOT NULL DEFAULT 1,
    password_hash TEXT DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);

-- Schema metadata
CREATE TABLE IF NOT EXISTS schema_meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

const schemaVersion = "1"

// migrate applies the schema and records the schema version. Statements are
// idempotent so re-running on an existing database is safe.
func (s *Store) migrate() error {
	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	_, err := s.conn.Exec(`
		INSERT INTO schema_meta (key, value) VALUES ('version', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		schemaVersion,
	)
	if err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return nil
}
