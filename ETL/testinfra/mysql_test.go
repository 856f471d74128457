package testinfra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromDSN(t *testing.T) {
	cfg, err := configFromDSN("root:etl_test@tcp(localhost:32771)/nz_rent")
	require.NoError(t, err)

	assert.Equal(t, "root", cfg.User)
	assert.Equal(t, "etl_test", cfg.Password)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, "32771", cfg.Port)
	assert.Equal(t, "nz_rent", cfg.DBName)
}

func TestConfigFromDSN_Invalid(t *testing.T) {
	_, err := configFromDSN("not a dsn")
	assert.Error(t, err)
}
