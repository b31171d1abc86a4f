package config

import (
	"reflect"
	"strings"

	"sapataria/core/audit"
	"sapataria/core/cache"
	"sapataria/core/database"
	"sapataria/core/logger"
	"sapataria/core/server"
	"sapataria/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object storage.
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the database connection.
	Database database.Config `mapstructure:"database"`
	// Cache holds configuration for the dimension id cache.
	Cache cache.Config `mapstructure:"cache"`
	// Audit selects the audit sink.
	Audit audit.Config `mapstructure:"audit"`
	// Import holds defaults for spreadsheet imports.
	Import ImportConfig `mapstructure:"import"`
}

// ImportConfig holds defaults applied by bulk imports.
type ImportConfig struct {
	// DefaultSupplier is used for rows without a supplier column.
	DefaultSupplier string `mapstructure:"default_supplier" default:"KeyInvoice Import"`
	// InitialQuantity is the stock set in every warehouse by an initial import.
	InitialQuantity int `mapstructure:"initial_quantity" default:"1"`
	// Sheet is the workbook sheet to read; empty means the first sheet.
	Sheet string `mapstructure:"sheet" default:""`
	// ReportsPrefix is the storage prefix rejects and exports are uploaded under.
	ReportsPrefix string `mapstructure:"reports_prefix" default:"reports"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// A missing .env is normal in production
	_ = godotenv.Overload(envPath)

	v := viper.New()

	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. DATABASE_HOST -> database.host)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues walks the struct and registers every mapstructure key with its
// 'default' tag so AutomaticEnv can resolve it.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		v.SetDefault(key, field.Tag.Get("default"))
	}
}
