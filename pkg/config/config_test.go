package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, "cosmos:", cfg.Store.Namespace)
	assert.Equal(t, 2*time.Second, cfg.Checkout.PaymentDelay)
	assert.InDelta(t, 0.10, cfg.Checkout.TaxRate, 0.0001)
	assert.Equal(t, 30*24*time.Hour, cfg.Checkout.SubscriptionPeriod)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.SessionTTL)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("STORE_DRIVER", "Postgres")
	v.Set("PAYMENT_TIMEOUT", "not-a-duration")
	v.Set("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")
	v.Set("CHECKOUT_TAX_RATE", -1)

	cfg := fromViper(v)
	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, 10*time.Second, cfg.Checkout.PaymentTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Zero(t, cfg.Checkout.TaxRate)
}
