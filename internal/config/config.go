package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration. Each field maps to one
// environment variable; required values are enforced by must() and abort
// startup when missing.
type Config struct {
	Env  string // application environment ("dev", "prod")
	Port string // HTTP port to listen on

	DBUser string
	DBPass string // optional
	DBHost string
	DBPort string
	DBName string

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	JWTSecret string // HS256 secret shared with the identity issuer

	ConfirmationTTL time.Duration // shared participant confirmation deadline
	SweepInterval   time.Duration // deadline sweep cadence
	LockTTL         time.Duration // per-reservation Redis lock TTL
}

// Load reads configuration from the environment.
func Load() Config {
	return Config{
		Env:               must("APP_ENV"),
		Port:              must("APP_PORT"),
		DBUser:            must("DB_USER"),
		DBPass:            os.Getenv("DB_PASS"),
		DBHost:            must("DB_HOST"),
		DBPort:            must("DB_PORT"),
		DBName:            must("DB_NAME"),
		DBMaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetime: envDur("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		JWTSecret:         must("JWT_SECRET"),
		ConfirmationTTL:   envDur("CONFIRMATION_TTL", 24*time.Hour),
		SweepInterval:     envDur("SWEEP_INTERVAL", time.Minute),
		LockTTL:           envDur("LOCK_TTL", 10*time.Second),
	}
}

// DSN builds the MySQL connection string. parseTime maps DATE and DATETIME
// columns to time.Time; loc=UTC keeps stored and derived times aligned with
// the UTC day truncation used throughout the reservation flow.
func (c Config) DSN() string {
	auth := c.DBUser
	if c.DBPass != "" {
		auth = fmt.Sprintf("%s:%s", c.DBUser, c.DBPass)
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, c.DBHost, c.DBPort, c.DBName)
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
