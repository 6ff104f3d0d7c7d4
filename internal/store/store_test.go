package store

import (
	"path/filepath"
	"testing"

	"github.com/buildmart/haggle/internal/domain"
	"github.com/buildmart/haggle/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	log := logging.New(nil, "silent")
	db, err := Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// --- DB/Migration tests ---

func TestOpen_InMemory(t *testing.T) {
	db := testDB(t)
	assert.NotNil(t, db)
	assert.NotNil(t, db.SQL())
}

func TestMigrations_Applied(t *testing.T) {
	db := testDB(t)

	var count int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

func TestMigrations_Idempotent(t *testing.T) {
	db := testDB(t)

	// Running migrate again should be a no-op
	err := db.migrate()
	require.NoError(t, err)

	var count int
	err = db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

func TestSchema_TablesExist(t *testing.T) {
	db := testDB(t)

	var name string
	err := db.sql.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?", "active_session",
	).Scan(&name)
	require.NoError(t, err, "table active_session should exist")
	assert.Equal(t, "active_session", name)
}

// --- Session Store tests ---

func TestSessionStore_SaveAndLoad(t *testing.T) {
	db := testDB(t)
	ss := NewSQLiteSessionStore(db)

	err := ss.Save(domain.Session{Token: "tok-abc", BuilderName: "Acme Builders"})
	require.NoError(t, err)

	got, err := ss.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "tok-abc", got.Token)
	assert.Equal(t, "Acme Builders", got.BuilderName)
}

func TestSessionStore_Load_Empty(t *testing.T) {
	db := testDB(t)
	ss := NewSQLiteSessionStore(db)

	got, err := ss.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStore_Save_ReplacesSlot(t *testing.T) {
	db := testDB(t)
	ss := NewSQLiteSessionStore(db)

	require.NoError(t, ss.Save(domain.Session{Token: "tok-1", BuilderName: "First Builder"}))
	require.NoError(t, ss.Save(domain.Session{Token: "tok-2", BuilderName: "Second Builder"}))

	got, err := ss.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "tok-2", got.Token)
	assert.Equal(t, "Second Builder", got.BuilderName)

	// Exactly one row regardless of how many saves happened
	var count int
	require.NoError(t, db.sql.QueryRow("SELECT COUNT(*) FROM active_session").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSessionStore_Clear(t *testing.T) {
	db := testDB(t)
	ss := NewSQLiteSessionStore(db)

	require.NoError(t, ss.Save(domain.Session{Token: "tok-1", BuilderName: "Acme"}))
	require.NoError(t, ss.Clear())

	got, err := ss.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStore_Clear_Idempotent(t *testing.T) {
	db := testDB(t)
	ss := NewSQLiteSessionStore(db)

	require.NoError(t, ss.Clear())
	require.NoError(t, ss.Clear())

	got, err := ss.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStore_PersistsAcrossReopen(t *testing.T) {
	log := logging.New(nil, "silent")
	path := filepath.Join(t.TempDir(), "session.db")

	db, err := Open(path, log)
	require.NoError(t, err)
	require.NoError(t, NewSQLiteSessionStore(db).Save(domain.Session{Token: "tok-persist", BuilderName: "Acme"}))
	require.NoError(t, db.Close())

	db, err = Open(path, log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	got, err := NewSQLiteSessionStore(db).Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "tok-persist", got.Token)
}

// --- Memory Store tests ---

func TestMemoryStore_SaveAndLoad(t *testing.T) {
	ss := NewMemorySessionStore()

	require.NoError(t, ss.Save(domain.Session{Token: "tok-mem", BuilderName: "Acme"}))

	got, err := ss.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "tok-mem", got.Token)
}

func TestMemoryStore_Load_Empty(t *testing.T) {
	ss := NewMemorySessionStore()

	got, err := ss.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_Clear(t *testing.T) {
	ss := NewMemorySessionStore()

	require.NoError(t, ss.Save(domain.Session{Token: "tok-mem", BuilderName: "Acme"}))
	require.NoError(t, ss.Clear())
	require.NoError(t, ss.Clear())

	got, err := ss.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_LoadReturnsCopy(t *testing.T) {
	ss := NewMemorySessionStore()
	require.NoError(t, ss.Save(domain.Session{Token: "tok-1", BuilderName: "Acme"}))

	got, err := ss.Load()
	require.NoError(t, err)
	got.Token = "mutated"

	again, err := ss.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", again.Token)
}
