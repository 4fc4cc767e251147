package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds application configuration values.
type Config struct {
	Env            string
	Secret         string
	DatabaseDSN    string
	HTTPPort       string
	MetricsEnabled bool
	SeedCompanyID  int64
	SeedCatalogCSV string
}

// Load reads configuration from environment variables with reasonable defaults.
func Load() Config {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	secret := os.Getenv("SECRET")
	if secret == "" {
		secret = "dev_secret"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = "optipos.db"
	}

	metricsEnabled := true
	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("invalid METRICS_ENABLED value %q, defaulting to true", v)
		} else {
			metricsEnabled = parsed
		}
	}

	var seedCompanyID int64
	if v := os.Getenv("SEED_COMPANY_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			log.Printf("invalid SEED_COMPANY_ID value %q, skipping catalog seed", v)
		} else {
			seedCompanyID = id
		}
	}

	// Validate that port is numeric.
	if _, err := strconv.Atoi(port); err != nil {
		log.Printf("invalid HTTP_PORT value %q, defaulting to 8080", port)
		port = "8080"
	}

	return Config{
		Env:            env,
		Secret:         secret,
		DatabaseDSN:    dsn,
		HTTPPort:       port,
		MetricsEnabled: metricsEnabled,
		SeedCompanyID:  seedCompanyID,
		SeedCatalogCSV: os.Getenv("SEED_CATALOG_CSV"),
	}
}
