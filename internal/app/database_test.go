package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"commute/internal/config"
)

func TestDSN_PinsSessionToUTC(t *testing.T) {
	cfg := config.Default().Database

	assert.Contains(t, dsn(cfg), "timezone=UTC")
	assert.Contains(t, dsn(cfg), "dbname="+cfg.DBName)
}
