package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/timetable-engine/pkg/config"
)

func TestDSN(t *testing.T) {
	cfg := config.DatabaseConfig{Host: "db", Port: 5432, User: "app", Name: "timetable", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=app dbname=timetable sslmode=disable", DSN(cfg))

	cfg.Password = "secret"
	assert.Equal(t, "host=db port=5432 user=app dbname=timetable sslmode=disable password=secret", DSN(cfg))
}
