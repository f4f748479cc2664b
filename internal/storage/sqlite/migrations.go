package sqlite

import "database/sql"

// schema sets up the cookie table. It runs on startup to ensure tables exist.
const schema = `
CREATE TABLE IF NOT EXISTS cookies (
    id TEXT PRIMARY KEY,
    origin TEXT NOT NULL,
    name TEXT NOT NULL,
    value TEXT NOT NULL,
    domain TEXT NOT NULL DEFAULT '',
    path TEXT NOT NULL DEFAULT '',
    expires_at INTEGER NOT NULL DEFAULT 0,
    secure INTEGER NOT NULL DEFAULT 0,
    http_only INTEGER NOT NULL DEFAULT 0,
    saved_at INTEGER NOT NULL,
    UNIQUE (origin, name)
);

CREATE INDEX IF NOT EXISTS idx_cookies_origin ON cookies(origin);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
