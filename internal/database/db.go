// Package database opens and verifies the MySQL connection pool shared by
// all repositories.  Every row in the schema carries a CHAR(36) UUID id and
// tenant-scoped tables carry a tenant_id column; the pool itself is
// tenant-agnostic and scoping is enforced by the repository queries.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/salesync/field-api/internal/config"
)

// Open connects to MySQL using the values in cfg and verifies the
// connection with a bounded ping.  parseTime=true maps DATETIME columns to
// time.Time and loc=UTC keeps every timestamp in UTC end to end.
func Open(cfg config.Config) (*sql.DB, error) {
	auth := cfg.DBUser
	if cfg.DBPass != "" {
		auth = fmt.Sprintf("%s:%s", cfg.DBUser, cfg.DBPass)
	}
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}
