package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Options{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func insertLicense(ctx context.Context, ex Executor, id, key, ref string) error {
	_, err := ex.ExecContext(ctx, `INSERT INTO licenses (id, license_key, buyer_email, max_devices, status, ext_ref)
		VALUES (?, ?, ?, ?, ?, ?)`, id, key, "buyer@example.com", 1, "active", ref)
	return err
}

func countLicenses(t *testing.T, db *DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM licenses").Scan(&n))
	return n
}

func TestParseDialect(t *testing.T) {
	tests := []struct {
		name     string
		driver   string
		dsn      string
		expected Dialect
		wantErr  bool
	}{
		{name: "explicit sqlite", driver: "sqlite", expected: DialectSQLite},
		{name: "explicit mysql", driver: "MySQL", expected: DialectMySQL},
		{name: "pgx alias", driver: "pgx", expected: DialectPostgres},
		{name: "infer postgres from url", dsn: "postgres://u:p@localhost/db", expected: DialectPostgres},
		{name: "infer postgresql from url", dsn: "postgresql://localhost/db", expected: DialectPostgres},
		{name: "default sqlite", dsn: "./license.db", expected: DialectSQLite},
		{name: "unknown driver", driver: "oracle", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDialect(tt.driver, tt.dsn)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d)
		})
	}
}

func TestRebind(t *testing.T) {
	q := "SELECT id FROM licenses WHERE license_key = ? AND status = ?"
	assert.Equal(t, q, Rebind(DialectSQLite, q))
	assert.Equal(t, q, Rebind(DialectMySQL, q))
	assert.Equal(t, "SELECT id FROM licenses WHERE license_key = $1 AND status = $2", Rebind(DialectPostgres, q))
}

func TestLockClause(t *testing.T) {
	assert.Equal(t, " FOR UPDATE", LockClause(DialectPostgres))
	assert.Equal(t, " FOR UPDATE", LockClause(DialectMySQL))
	assert.Equal(t, "", LockClause(DialectSQLite))
}

func TestWithTxCommits(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx *Tx) error {
		return insertLicense(ctx, tx, "lic-1", "KEY-1", "ref-1")
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countLicenses(t, db))
}

func TestWithTxRollsBackPartialWrite(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.WithTx(ctx, func(tx *Tx) error {
		if err := insertLicense(ctx, tx, "lic-1", "KEY-1", "ref-1"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, countLicenses(t, db))
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = db.WithTx(ctx, func(tx *Tx) error {
			require.NoError(t, insertLicense(ctx, tx, "lic-1", "KEY-1", "ref-1"))
			panic("mid-transaction failure")
		})
	})
	assert.Equal(t, 0, countLicenses(t, db))
}

func TestUniqueViolationOnExternalRef(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, insertLicense(ctx, db, "lic-1", "KEY-1", "ref-123"))
	err := insertLicense(ctx, db, "lic-2", "KEY-2", "ref-123")
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsUniqueViolation(errors.New("connection refused")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestActivationPairIsUnique(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, insertLicense(ctx, db, "lic-1", "KEY-1", "ref-1"))
	_, err := db.ExecContext(ctx, "INSERT INTO activations (license_id, hwid) VALUES (?, ?)", "lic-1", "hw-a")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "INSERT INTO activations (license_id, hwid) VALUES (?, ?)", "lic-1", "hw-a")
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}

func TestSeatLimitMustBePositive(t *testing.T) {
	db := openTestDB(t)
	_, err := db.ExecContext(context.Background(), `INSERT INTO licenses (id, license_key, buyer_email, max_devices, status)
		VALUES (?, ?, ?, ?, ?)`, "lic-0", "KEY-0", "a@b.c", 0, "active")
	assert.Error(t, err)
}
