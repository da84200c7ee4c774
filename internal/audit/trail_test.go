package audit

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalstage/core/dispatch"
	"github.com/signalstage/core/node"
)

func TestRecordInsertsOneRowPerFrame(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	trail := New(db)
	frame := dispatch.Frame{
		ClientID:        "c1",
		Command:         node.Command(map[string]interface{}{"action": "flashlight", "payload": map[string]interface{}{"mode": "on"}}),
		ServerTimestamp: 1000,
		ExecuteAt:       1000,
	}

	mock.ExpectExec("INSERT INTO command_audit").
		WithArgs("c1", "flashlight", sqlmock.AnyArg(), int64(1000), int64(1000)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, trail.Record(frame))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentReturnsScannedEntries(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	trail := New(db)
	rows := sqlmock.NewRows([]string{"id", "client_id", "action", "payload", "server_timestamp", "execute_at"}).
		AddRow(2, "c2", "hideImage", `{"action":"hideImage"}`, 2000, 2000).
		AddRow(1, "c1", "flashlight", `{"action":"flashlight"}`, 1000, 1000)

	mock.ExpectQuery("SELECT id, client_id, action, payload, server_timestamp, execute_at").
		WithArgs(10).
		WillReturnRows(rows)

	entries, err := trail.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "hideImage", entries[0].Action)
	assert.Equal(t, "flashlight", entries[1].Action)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestForClientFiltersByClientID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	trail := New(db)
	rows := sqlmock.NewRows([]string{"id", "client_id", "action", "payload", "server_timestamp", "execute_at"}).
		AddRow(1, "c1", "flashlight", `{"action":"flashlight"}`, 1000, 1000)

	mock.ExpectQuery("SELECT id, client_id, action, payload, server_timestamp, execute_at").
		WithArgs("c1", 5).
		WillReturnRows(rows)

	entries, err := trail.ForClient("c1", 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "c1", entries[0].ClientID)
	require.NoError(t, mock.ExpectationsWereMet())
}
