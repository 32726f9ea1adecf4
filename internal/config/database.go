// internal/config/database.go
package config

import (
	"fmt"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	StorageLocal = "local"
	StorageS3    = "s3"
)

func (d *DatabaseConfig) DSN() string {
	if d.Driver == DriverSQLite {
		return d.Path
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

func (d *DatabaseConfig) Validate() error {
	switch d.Driver {
	case DriverSQLite:
		if d.Path == "" {
			return fmt.Errorf("sqlite database path is required")
		}
	case DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver: %s", d.Driver)
	}
	return nil
}
