package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MARKET_SERVICE_FEE", "")
	t.Setenv("MARKET_TAX", "")
	t.Setenv("MARKET_INITIAL_BALANCE", "")
	t.Setenv("AMQP_URL", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("REDIS_KEY_PREFIX", "")
	t.Setenv("POSTGRES_APPLICATION_NAME", "")
	t.Setenv("APP_NAME", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(5000), cfg.Marketplace.InitialBalance)
	assert.Equal(t, "1.35", cfg.Marketplace.ServiceFee.String())
	assert.Equal(t, "1.05", cfg.Marketplace.Tax.String())
	assert.Empty(t, cfg.Broker.URL)
	assert.Equal(t, "marketplace.events", cfg.Broker.Exchange)
	assert.Equal(t, "marketplace:", cfg.Redis.KeyPrefix)
	assert.Equal(t, "ticket-marketplace", cfg.Postgres.ApplicationName)
	assert.Equal(t, 5*time.Second, cfg.Postgres.ConnectTimeout())
}

func TestLoadMarketplaceOverrides(t *testing.T) {
	t.Setenv("MARKET_SERVICE_FEE", "1.5")
	t.Setenv("MARKET_TAX", "1")
	t.Setenv("MARKET_INITIAL_BALANCE", "100")
	t.Setenv("APP_HOST", "127.0.0.1")
	t.Setenv("APP_PORT", "9000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(100), cfg.Marketplace.InitialBalance)
	assert.Equal(t, "1.5", cfg.Marketplace.ServiceFee.String())
	assert.Equal(t, "127.0.0.1:9000", cfg.App.Addr())
}

func TestLoadRejectsBadRules(t *testing.T) {
	t.Setenv("MARKET_SERVICE_FEE", "abc")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("MARKET_SERVICE_FEE", "0.9")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("MARKET_SERVICE_FEE", "1.35")
	t.Setenv("MARKET_INITIAL_BALANCE", "-1")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("MARKET_INITIAL_BALANCE", "0")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("AUTH_JWT_SECRET", "a-real-secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "a-real-secret", cfg.Auth.JWTSecret)
}
