// Package postgres opens the GORM connection backing the PostgreSQL Order Store
// and migrates its schema. Repositories live in sub-packages.
package postgres

import (
	"fmt"

	"fulfillment/internal/adapters/out/postgres/orderrepo"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options describe the PostgreSQL server to connect to.
type Options struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the options as a libpq keyword/value connection string.
func (o Options) DSN() string {
	sslMode := o.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		o.Host, o.Port, o.User, o.Password, o.DBName, sslMode,
	)
}

// Open connects to PostgreSQL and migrates the orders table.
//
// Driver errors are translated, so a duplicate primary key surfaces as gorm.ErrDuplicatedKey.
//
// Example:
//
//	db, err := postgres.Open(postgres.Options{Host: "localhost", Port: "5432", ...}.DSN())
//	if err != nil {
//	    return err
//	}
//	repo := orderrepo.NewGormOrderRepository(db)
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates the schema used by the repositories.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&orderrepo.OrderDTO{}); err != nil {
		return fmt.Errorf("migrate orders table: %w", err)
	}
	return nil
}
