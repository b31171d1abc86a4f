// Package database handles database connections, schema migration and schema inspection.
//
// It wraps GORM and selects the dialect from configuration: postgres in production,
// mysql as an alternative backend and sqlite for local runs and tests.
//
// # Connect
//
// Connect opens the connection, sizes the pool and pings the server within the
// configured timeout. GORM error translation is enabled so unique key violations
// surface as gorm.ErrDuplicatedKey on every dialect.
//
// # Schema
//
// Migrate runs AutoMigrate over the models exported by each feature package.
// GetTableColumns reads the live column list, which the integrity feature compares
// against the models.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	columns, err := database.GetTableColumns(db, "stock_entries")
package database
