package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"shipquote/internal/rate"
	"shipquote/internal/shippo"
)

// Catalog sources.
const (
	CatalogFile     = "file"
	CatalogPostgres = "postgres"
)

type Config struct {
	Port           string
	LogLevel       string
	ShippoToken    string
	ShippoBaseURL  string
	CatalogSource  string
	WarehousesFile string
	DatabaseURL    string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present, and CONFIG_FILE may name a YAML
// file whose keys (port, log_level, ...) sit below environment variables.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return load(viper.New())
}

func load(v *viper.Viper) (Config, error) {
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("shippo_base_url", shippo.DefaultBaseURL)
	v.SetDefault("catalog_source", CatalogFile)
	v.SetDefault("warehouses_file", "data/warehouses.json")
	v.AutomaticEnv()

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config failed: %w", err)
		}
	}

	return Config{
		Port:           v.GetString("port"),
		LogLevel:       v.GetString("log_level"),
		ShippoToken:    strings.TrimSpace(v.GetString("shippo_api_token")),
		ShippoBaseURL:  v.GetString("shippo_base_url"),
		CatalogSource:  strings.ToLower(strings.TrimSpace(v.GetString("catalog_source"))),
		WarehousesFile: v.GetString("warehouses_file"),
		DatabaseURL:    v.GetString("database_url"),
	}, nil
}

// Mode is live exactly when a provider token is configured.
func (c Config) Mode() rate.Mode {
	return rate.ModeFor(c.ShippoToken)
}

func (c Config) Validate() error {
	switch c.CatalogSource {
	case CatalogFile:
		if strings.TrimSpace(c.WarehousesFile) == "" {
			return errors.New("WAREHOUSES_FILE is required for the file catalog")
		}
	case CatalogPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return errors.New("DATABASE_URL is required for the postgres catalog")
		}
	default:
		return fmt.Errorf("unknown CATALOG_SOURCE %q", c.CatalogSource)
	}
	return nil
}
