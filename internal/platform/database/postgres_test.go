package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostgresConfig_URLs(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "db",
		Port:     "5432",
		User:     "tours",
		Password: "p@ss word",
		DBName:   "tours",
	}

	assert.Equal(t, "host=db port=5432 user=tours password='p@ss word' dbname=tours sslmode=disable", cfg.DSN())
	assert.Equal(t, "postgres://tours:p%40ss%20word@db:5432/tours?sslmode=disable", cfg.DatabaseURL())
}
