package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogniq/billing/pkg/config"
)

type billingEnv struct {
	CreditsPro        int    `env:"TEST_CREDITS_PRO" envDefault:"100"`
	CreditsEnterprise int    `env:"TEST_CREDITS_ENTERPRISE" envDefault:"500"`
	Currency          string `env:"TEST_CURRENCY" envDefault:"USD"`
}

func TestLoadDefaults(t *testing.T) {
	var cfg billingEnv
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, 100, cfg.CreditsPro)
	assert.Equal(t, 500, cfg.CreditsEnterprise)
	assert.Equal(t, "USD", cfg.Currency)
}

func TestLoadUsesEnvironment(t *testing.T) {
	t.Setenv("TEST_PORT", "9090")

	type serverEnv struct {
		Port int `env:"TEST_PORT" envDefault:"8080"`
	}

	var cfg serverEnv
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, 9090, cfg.Port)
}

func TestLoadNilPointer(t *testing.T) {
	var cfg *billingEnv
	err := config.Load(cfg)
	assert.ErrorIs(t, err, config.ErrNilPointer)
}

func TestLoadCachesPerType(t *testing.T) {
	var first billingEnv
	require.NoError(t, config.Load(&first))

	// A changed environment must not affect the cached copy.
	t.Setenv("TEST_CREDITS_PRO", "999")

	var second billingEnv
	require.NoError(t, config.Load(&second))
	assert.Equal(t, first, second)
}
