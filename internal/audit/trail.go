package audit

import (
	"database/sql"

	"github.com/signalstage/core/dispatch"
	"github.com/signalstage/core/errors"
)

// Trail records dispatched command frames (dispatch.Frame) for later
// inspection, the way the teacher's TaskLogStore (ats/storage/task_log_store.go)
// records one append-only row per event.
type Trail struct {
	db *sql.DB
}

// New wraps an already-opened *sql.DB (see Open) as a Trail.
func New(db *sql.DB) *Trail {
	return &Trail{db: db}
}

// commandEnvelope mirrors the {action, payload} shape nodes.commandValue
// builds, letting the trail decode the action without the audit package
// needing to import node kind internals.
type commandEnvelope struct {
	Action  string                 `json:"action"`
	Payload map[string]interface{} `json:"payload"`
}

// Record persists one dispatched frame. The command's structured payload is
// stored as its canonical JSON so `sqlite3 audit.db` can be grepped directly
// during a post-mortem.
func (t *Trail) Record(frame dispatch.Frame) error {
	var env commandEnvelope
	_ = frame.Command.As(&env) // best-effort: malformed commands still get a row with an empty action

	_, err := t.db.Exec(`
		INSERT INTO command_audit (client_id, action, payload, server_timestamp, execute_at)
		VALUES (?, ?, ?, ?, ?)
	`, frame.ClientID, env.Action, frame.Command.CanonicalJSON(), frame.ServerTimestamp, frame.ExecuteAt)
	if err != nil {
		return errors.Wrap(err, "failed to record command audit entry")
	}
	return nil
}

// Entry is one row read back from the audit trail.
type Entry struct {
	ID              int64
	ClientID        string
	Action          string
	Payload         string
	ServerTimestamp int64
	ExecuteAt       int64
}

// Recent returns the most recently recorded entries, newest first, bounded
// to limit rows.
func (t *Trail) Recent(limit int) ([]Entry, error) {
	rows, err := t.db.Query(`
		SELECT id, client_id, action, payload, server_timestamp, execute_at
		FROM command_audit
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query audit trail")
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ClientID, &e.Action, &e.Payload, &e.ServerTimestamp, &e.ExecuteAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan audit entry")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ForClient returns the most recent entries addressed to a specific client.
func (t *Trail) ForClient(clientID string, limit int) ([]Entry, error) {
	rows, err := t.db.Query(`
		SELECT id, client_id, action, payload, server_timestamp, execute_at
		FROM command_audit
		WHERE client_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, clientID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query audit trail for client")
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ClientID, &e.Action, &e.Payload, &e.ServerTimestamp, &e.ExecuteAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan audit entry")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
