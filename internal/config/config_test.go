// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("ORDER_NUMBER_MAX_ATTEMPTS", "25")
	t.Setenv("ORDER_NUMBER_RESERVATION_TTL", "90s")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "ORD", cfg.Checkout.OrderNumberPrefix)
	assert.Equal(t, 25, cfg.Checkout.OrderNumberMaxAttempts)
	assert.Equal(t, 90*time.Second, cfg.Checkout.ReservationTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Kafka.Enabled)
}

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{Driver: "postgres", Host: "db", Name: "checkout", User: "app"},
		JWT:      JWTConfig{Secret: "0123456789abcdef0123456789abcdef"},
		Checkout: CheckoutConfig{OrderNumberPrefix: "ORD", OrderNumberMaxAttempts: 100},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"short secret", func(c *Config) { c.JWT.Secret = "short" }, "JWT_SECRET"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "DB_DRIVER"},
		{"memory needs no host", func(c *Config) { c.Database = DatabaseConfig{Driver: "memory"} }, ""},
		{"missing host", func(c *Config) { c.Database.Host = "" }, "DB_HOST"},
		{"redis without host", func(c *Config) { c.Redis.Enabled = true }, "REDIS_HOST"},
		{"empty prefix", func(c *Config) { c.Checkout.OrderNumberPrefix = "" }, "ORDER_NUMBER_PREFIX"},
		{"zero attempts", func(c *Config) { c.Checkout.OrderNumberMaxAttempts = 0 }, "ORDER_NUMBER_MAX_ATTEMPTS"},
		{"kafka without brokers", func(c *Config) { c.Kafka.Enabled = true }, "KAFKA_BROKERS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDSNs(t *testing.T) {
	cfg := validConfig()
	cfg.Database = DatabaseConfig{Host: "h", Port: "5432", User: "u", Password: "p", Name: "db", SSLMode: "disable"}
	cfg.Redis = RedisConfig{Host: "cache", Port: "6379"}

	assert.Equal(t, "postgres://u:p@h:5432/db?sslmode=disable", cfg.GetMigrationDSN())
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=db sslmode=disable", cfg.GetDatabaseDSN())
	assert.Equal(t, "cache:6379", cfg.GetRedisAddr())
}
