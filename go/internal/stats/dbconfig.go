package stats

import (
	"net/url"
	"os"
)

// DBConfig holds Postgres connection settings for the stats sink. The
// stats database is scoped with its own STATS_DB_* variables so a
// colocated application database keeps its plain DB_* names.
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
}

// DBConfigFromEnv reads STATS_DB_* environment variables, falling back
// to local-development defaults.
func DBConfigFromEnv() DBConfig {
	return DBConfig{
		Host:     envOr("STATS_DB_HOST", "localhost"),
		Port:     envOr("STATS_DB_PORT", "5432"),
		User:     envOr("STATS_DB_USER", "postgres"),
		Password: envOr("STATS_DB_PASSWORD", "postgres"),
		Database: envOr("STATS_DB_NAME", "panosync"),
		SSLMode:  envOr("STATS_DB_SSLMODE", "disable"),
	}
}

// DSN builds the Postgres connection URL. Credentials go through
// url.UserPassword so passwords with reserved characters survive.
func (c DBConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
