package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenGormSQLite(t *testing.T) {
	db, err := OpenGorm("sqlite", filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

func TestOpenGormInvalidDriver(t *testing.T) {
	_, err := OpenGorm("oracle", "x")
	assert.Error(t, err)

	_, err = OpenGorm("postgres", "")
	assert.Error(t, err)
}

func TestOpenGormSQLiteCreatesParentDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "path", "ledger.db")

	db, err := OpenGorm("sqlite", dbPath)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	_, err = os.Stat(filepath.Dir(dbPath))
	assert.NoError(t, err)
}
