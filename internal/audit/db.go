// Package audit is an optional host-side diagnostic add-on: a SQLite-backed
// trail of dispatched commands, for post-mortem debugging of a live show.
// It never gates or replays graph execution and the runtime itself never
// imports it (§1 Non-goals: "the runtime does not persist graph state" —
// this is a dispatcher-side record of what was *sent*, not graph state).
package audit

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/signalstage/core/errors"
)

// sqliteBusyTimeoutMS bounds how long a writer waits for a lock before
// returning SQLITE_BUSY, matching the teacher's db.Open pragma set.
const sqliteBusyTimeoutMS = 5000

// Open opens (creating if absent) a SQLite database at path with WAL
// journaling and a busy timeout, grounded on the teacher's db.Open
// (db/connection.go) pragma sequence.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "failed to create audit database directory %s", dir)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open audit database at %s", path)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed to enable WAL journal mode for %s", path)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed to set busy timeout for %s", path)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to run audit database migrations")
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS command_audit (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			client_id        TEXT NOT NULL,
			action           TEXT NOT NULL,
			payload          TEXT,
			server_timestamp INTEGER NOT NULL,
			execute_at       INTEGER NOT NULL
		)
	`)
	return err
}
