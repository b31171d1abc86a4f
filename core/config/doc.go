// Package config provides configuration management for the inventory service.
//
// It loads an optional .env file with godotenv, then resolves every key through
// Viper from environment variables, falling back to the `default` struct tags.
//
// # Configuration Structure
//
//   - Server: HTTP port, API key, webhook warehouse
//   - Database: driver (postgres, mysql, sqlite) and connection details
//   - Storage: S3/MinIO credentials and bucket for workbooks and reports
//   - Cache: dimension id cache backend (memory, redis)
//   - Audit: audit sink (log, db, none)
//   - Import: default supplier, initial quantity and sheet for imports
//   - Log: logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Database.Driver)
package config
