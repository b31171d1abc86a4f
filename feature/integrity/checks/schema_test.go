package checks

import (
	"errors"
	"testing"

	"sapataria/core/database"
	"sapataria/feature/stock"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestCheckSchema_NilDB(t *testing.T) {
	report, err := CheckSchema(nil, stock.Entry{})
	assert.Error(t, err)
	assert.Nil(t, report)
}

func TestCheckSchema_Migrated(t *testing.T) {
	db := setupTestDB(t)

	report, err := CheckSchema(db, allModels()...)
	require.NoError(t, err)
	assert.True(t, report.Matched)
	assert.Empty(t, report.Errors)
	assert.Equal(t, "ok", report.Tables["stock_entries"].Status)
	assert.Equal(t, "ok", report.Tables["product_variants"].Status)
}

func TestCheckSchema_MissingTable(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)

	report, err := CheckSchema(db, stock.Entry{})
	require.NoError(t, err)
	assert.False(t, report.Matched)

	tbl := report.Tables["stock_entries"]
	assert.Equal(t, "missing", tbl.Status)
	assert.ElementsMatch(t, []string{"variant_id", "warehouse_id", "quantity"}, tbl.MissingColumns)
}

func TestCheckSchema_MissingColumn(t *testing.T) {
	db, mock := setupMockDB(t)

	rows := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"})
	rows.AddRow("variant_id", "bigint", "NO", "PRI", nil, "")
	rows.AddRow("warehouse_id", "bigint", "NO", "PRI", nil, "")
	mock.ExpectQuery("SHOW COLUMNS FROM `stock_entries`").WillReturnRows(rows)

	report, err := CheckSchema(db, stock.Entry{})
	require.NoError(t, err)
	assert.False(t, report.Matched)

	tbl, ok := report.Tables["stock_entries"]
	require.True(t, ok)
	assert.Equal(t, "error", tbl.Status)
	assert.Equal(t, []string{"quantity"}, tbl.MissingColumns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckSchema_InspectFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery("SHOW COLUMNS FROM `stock_entries`").WillReturnError(errors.New("access denied"))

	report, err := CheckSchema(db, stock.Entry{})
	require.NoError(t, err)
	assert.False(t, report.Matched)
	assert.Equal(t, "error", report.Tables["stock_entries"].Status)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "access denied")
}
