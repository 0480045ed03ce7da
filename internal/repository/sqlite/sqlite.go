// Package sqlite implements the repository interfaces on SQLite.
//
// We use modernc.org/sqlite (the pure-Go translation of SQLite) rather
// than mattn/go-sqlite3 so no C toolchain is needed and cross-compilation
// stays trivial. The driver registers itself with database/sql under the
// name "sqlite" via the blank import below.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the sql.DB pool. The per-entity repositories (Users, Channels)
// share this pool; they are cheap views, safe to create on every call.
type DB struct {
	conn *sql.DB
}

// Users returns the user repository backed by this database.
func (db *DB) Users() *UserDB {
	return &UserDB{conn: db.conn}
}

// Channels returns the channel repository backed by this database.
func (db *DB) Channels() *ChannelDB {
	return &ChannelDB{conn: db.conn}
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets concurrent request goroutines read while one writes.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Member and sender rows must reference existing users; channels must
	// exist for their messages. SQLite ships with this off.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool, flushing the WAL.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	// email is UNIQUE and compared byte-for-byte (no COLLATE NOCASE):
	// the email is a case-sensitive key.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			first_name    TEXT NOT NULL DEFAULT '',
			last_name     TEXT NOT NULL DEFAULT '',
			image         TEXT NOT NULL DEFAULT '',
			color         INTEGER NOT NULL DEFAULT 0,
			profile_setup BOOLEAN NOT NULL DEFAULT 0,
			created_at    DATETIME NOT NULL,
			updated_at    DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS channels (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			admin_id   TEXT NOT NULL REFERENCES users(id),
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_channels_admin ON channels(admin_id);
		CREATE INDEX IF NOT EXISTS idx_channels_updated_at ON channels(updated_at);
	`)
	if err != nil {
		return fmt.Errorf("creating channels table: %w", err)
	}

	// Membership is fixed at creation; rows are only ever inserted
	// alongside their channel.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS channel_members (
			channel_id TEXT NOT NULL REFERENCES channels(id),
			user_id    TEXT NOT NULL REFERENCES users(id),
			PRIMARY KEY (channel_id, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_channel_members_user ON channel_members(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating channel_members table: %w", err)
	}

	// Append order is rowid order; seq makes that explicit and queryable.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			id         TEXT NOT NULL UNIQUE,
			channel_id TEXT NOT NULL REFERENCES channels(id),
			sender_id  TEXT NOT NULL REFERENCES users(id),
			content    TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_messages_channel ON messages(channel_id);
	`)
	if err != nil {
		return fmt.Errorf("creating messages table: %w", err)
	}

	return nil
}
