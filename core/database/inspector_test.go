package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTableColumns(t *testing.T) {
	db, err := Connect(Config{Driver: DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)

	err = db.Exec(`CREATE TABLE stock_entries (
		variant_id INTEGER NOT NULL,
		warehouse_id INTEGER NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 0,
		note TEXT,
		PRIMARY KEY (variant_id, warehouse_id)
	)`).Error
	require.NoError(t, err)

	columns, err := GetTableColumns(db, "stock_entries")
	require.NoError(t, err)
	require.Len(t, columns, 4)

	byName := make(map[string]ColumnInfo)
	for _, col := range columns {
		byName[col.Field] = col
	}

	assert.Equal(t, "integer", byName["quantity"].Type)
	assert.Equal(t, "NO", byName["quantity"].Null)
	require.NotNil(t, byName["quantity"].Default)
	assert.Equal(t, "0", *byName["quantity"].Default)
	assert.Equal(t, "text", byName["note"].Type)
	assert.Equal(t, "YES", byName["note"].Null)

	t.Run("Missing Table", func(t *testing.T) {
		cols, err := GetTableColumns(db, "non_existent")
		assert.NoError(t, err)
		assert.Empty(t, cols)
	})
}
