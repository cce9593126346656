package db

import (
	"fmt"
	"net/url"

	"github.com/pgEdge/pgedge-tickpipe/internal/config"
)

// BuildConnString assembles a PostgreSQL connection URI from discrete
// parameters. The password is URL-escaped; sslmode defaults to "prefer".
func BuildConnString(cfg config.DatabaseConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	auth := cfg.User
	if cfg.Password != "" {
		auth += ":" + url.QueryEscape(cfg.Password)
	}

	return fmt.Sprintf("postgres://%s@%s:%d/%s?sslmode=%s",
		auth, cfg.Host, cfg.Port, cfg.DBName, sslMode)
}

// ConnString resolves the effective connection string: an explicit
// top-level connection wins over the discrete database parameters.
func ConnString(cfg *config.Config) string {
	if cfg.Connection != "" {
		return cfg.Connection
	}
	return BuildConnString(cfg.Database)
}
