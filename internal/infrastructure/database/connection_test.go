package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedConfig "cdrcgi/internal/shared/config"
	"cdrcgi/internal/shared/errors"
)

func testConfig() *sharedConfig.DatabaseConfig {
	return &sharedConfig.DatabaseConfig{
		Host:           "db.example.org",
		Port:           3306,
		Database:       "cdr",
		CDR:            sharedConfig.DatabaseAccount{Username: "cdr", Password: "secret"},
		Guest:          sharedConfig.DatabaseAccount{Username: "guest", Password: "readonly"},
		TimeoutSeconds: 3,
	}
}

func TestDSNCarriesCallerTimeout(t *testing.T) {
	c := testConfig()

	assert.Contains(t, dsnFor(c, c.CDR, 600), "timeout=600s")
	assert.Contains(t, dsnFor(c, c.Guest, 90), "timeout=90s")
}

func TestDSNZeroTimeoutTakesDefault(t *testing.T) {
	c := testConfig()

	assert.Contains(t, dsnFor(c, c.CDR, 0), "timeout=3s")
}

func TestConnectRequiresInit(t *testing.T) {
	mu.Lock()
	saved := cfg
	cfg = nil
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		cfg = saved
		mu.Unlock()
	})

	_, err := Connect(RoleCDR, 0)
	require.Error(t, err)
	assert.True(t, errors.IsMisuseError(err))
}

func TestConnectRejectsUnknownRole(t *testing.T) {
	mu.Lock()
	saved := cfg
	cfg = testConfig()
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		cfg = saved
		mu.Unlock()
	})

	_, err := Connect(Role("reporting"), 0)
	require.Error(t, err)
	assert.True(t, errors.IsMisuseError(err))
}
