package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testManager = "cccccccccccccccccccccccccccccccc"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MANAGER_ACCOUNT_ID", testManager)

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":8080", cfg.HTTPAddr())
	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Equal(t, 300*time.Second, cfg.IdempotencyTTL())
	assert.True(t, cfg.Loan.AdvanceRate.Equal(decimal.RequireFromString("0.15")))
	assert.True(t, cfg.Loan.MinAmount.Equal(decimal.NewFromInt(5_000_000)))
	assert.Equal(t, 84, cfg.Loan.DefaultRepaymentMonths)
	assert.True(t, cfg.Loan.RequireValidatedProfile)
	assert.False(t, cfg.SMTP.Enabled())
	assert.False(t, cfg.MinIO.Enabled())
	assert.Equal(t, 4, cfg.Notify.Workers)
	assert.Equal(t, 500*time.Millisecond, cfg.Notify.RetryBase)
}

func TestLoad_NestedPrefixes(t *testing.T) {
	t.Setenv("MANAGER_ACCOUNT_ID", testManager)
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("LOAN_ADVANCE_RATE", "0.10")
	t.Setenv("NOTIFY_QUEUE_SIZE", "8")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("MINIO_ENDPOINT", "minio:9000")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "host=db user=ecobank password=ecobank dbname=ecobank port=5432 sslmode=disable TimeZone=UTC", cfg.DB.DSN())
	assert.True(t, cfg.Loan.AdvanceRate.Equal(decimal.RequireFromString("0.10")))
	assert.Equal(t, 8, cfg.Notify.QueueSize)
	assert.True(t, cfg.SMTP.Enabled())
	assert.True(t, cfg.MinIO.Enabled())
}

func TestDSN(t *testing.T) {
	mysql := DBConfig{Driver: "mysql", Host: "mysql", Port: "3306", Name: "eco", User: "u", Pass: "p"}
	assert.Equal(t, "u:p@tcp(mysql:3306)/eco?parseTime=true&loc=UTC&charset=utf8mb4,utf8", mysql.DSN())

	sqlite := DBConfig{Driver: "sqlite", Path: "/tmp/eco.db"}
	assert.Equal(t, "/tmp/eco.db?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate", sqlite.DSN())
}

func TestValidate(t *testing.T) {
	valid := func(t *testing.T) *Config {
		t.Setenv("MANAGER_ACCOUNT_ID", testManager)
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing manager", func(c *Config) { c.ManagerID = "" }},
		{"manager not hex", func(c *Config) { c.ManagerID = "ZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZ" }},
		{"unknown driver", func(c *Config) { c.DB.Driver = "oracle" }},
		{"bad port", func(c *Config) { c.DB.Port = "not-a-port" }},
		{"missing host", func(c *Config) { c.DB.Host = "" }},
		{"max below min", func(c *Config) { c.Loan.MaxAmount = decimal.NewFromInt(1) }},
		{"rate of one", func(c *Config) { c.Loan.AdvanceRate = decimal.NewFromInt(1) }},
		{"default months out of range", func(c *Config) { c.Loan.DefaultRepaymentMonths = 400 }},
		{"no workers", func(c *Config) { c.Notify.Workers = 0 }},
		{"bad smtp tls", func(c *Config) { c.SMTP.Host = "smtp"; c.SMTP.TLS = "sometimes" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid(t)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	t.Run("sqlite needs no host", func(t *testing.T) {
		cfg := valid(t)
		cfg.DB.Driver = "sqlite"
		cfg.DB.Host = ""
		assert.NoError(t, cfg.Validate())
	})
}

func TestDevelopment(t *testing.T) {
	c := &Config{AppEnv: "local"}
	assert.True(t, c.Development())
	c.AppEnv = "production"
	assert.False(t, c.Development())
}
