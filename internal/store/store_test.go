package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pansql/internal/codegen"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testScript(name, code string) *codegen.Script {
	return &codegen.Script{
		Name:        name,
		Code:        code,
		ProjectFile: "module pansql/" + name + "\n",
		Connectors:  "connections: []\n",
	}
}

func TestOpen_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "cache.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpen_Pragmas(t *testing.T) {
	s := openTestStore(t)

	var mode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var version int
	require.NoError(t, s.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "open %d", i)
		require.NoError(t, s.Close())
	}
}

func TestOpen_RefusesNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = Open(path)
	assert.ErrorContains(t, err, "newer than supported")
}

func TestKey(t *testing.T) {
	base := Key("v1", "sales", "SELECT 1", []byte("dict"))

	assert.Len(t, base, 64)
	assert.Equal(t, base, Key("v1", "sales", "SELECT 1", []byte("dict")))
	assert.NotEqual(t, base, Key("v2", "sales", "SELECT 1", []byte("dict")))
	assert.NotEqual(t, base, Key("v1", "orders", "SELECT 1", []byte("dict")))
	assert.NotEqual(t, base, Key("v1", "sales", "SELECT 2", []byte("dict")))
	assert.NotEqual(t, base, Key("v1", "sales", "SELECT 1", []byte("dict2")))
	assert.NotEqual(t, base, Key("v1", "sales", "SELECT 1"))

	assert.NotEqual(t, Key("v1", "ab", "c"), Key("v1", "a", "bc"), "parts must not run together")
}

func TestKey_NormalizesSource(t *testing.T) {
	composed := "SELECT 'caf\u00e9'"
	decomposed := "SELECT 'cafe\u0301'"
	assert.Equal(t, Key("v1", "s", composed), Key("v1", "s", decomposed))
}

func TestGetPut(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	want := testScript("sales", "package main\n")
	require.NoError(t, s.Put(ctx, "k1", want))

	got, ok, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	replaced := testScript("sales", "package main\n\nfunc main() {}\n")
	require.NoError(t, s.Put(ctx, "k1", replaced))
	got, ok, err = s.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, replaced.Code, got.Code)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Entries: 1, Hits: 2}, st)
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Put(ctx, k, testScript("sales", k)))
	}
	require.NoError(t, s.Put(ctx, "other", testScript("orders", "x")))
	// Re-putting an old key makes it the most recent.
	require.NoError(t, s.Put(ctx, "a", testScript("sales", "a")))

	n, err := s.Prune(ctx, "sales", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for key, kept := range map[string]bool{"a": true, "d": true, "b": false, "c": false, "other": true} {
		_, ok, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, kept, ok, key)
	}
}

func TestPrune_KeepNone(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.Put(ctx, "a", testScript("sales", "a")))

	n, err := s.Prune(ctx, "sales", -1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
