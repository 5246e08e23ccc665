package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"regexp"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	AppPort   string `env:"APP_PORT" envDefault:"8080"`
	AppEnv    string `env:"APP_ENV" envDefault:"production"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Account id holding the manager role.
	ManagerID string `env:"MANAGER_ACCOUNT_ID"`

	DB    DBConfig    `envPrefix:"DB_"`
	Redis RedisConfig `envPrefix:"REDIS_"`

	IdempTTLSecs int `env:"IDEMPOTENCY_TTL_SECONDS" envDefault:"300"`

	Loan   LoanConfig   `envPrefix:"LOAN_"`
	Notify NotifyConfig `envPrefix:"NOTIFY_"`
	SMTP   SMTPConfig   `envPrefix:"SMTP_"`
	MinIO  MinIOConfig  `envPrefix:"MINIO_"`
}

type DBConfig struct {
	Driver  string `env:"DRIVER" envDefault:"mysql"`
	Host    string `env:"HOST" envDefault:"mysql"`
	Port    string `env:"PORT" envDefault:"3306"`
	Name    string `env:"NAME" envDefault:"ecobank"`
	User    string `env:"USER" envDefault:"ecobank"`
	Pass    string `env:"PASS" envDefault:"ecobank"`
	SSLMode string `env:"SSLMODE" envDefault:"disable"`
	// sqlite only
	Path string `env:"SQLITE_PATH" envDefault:"ecobank.db"`

	AutoMigrate     bool          `env:"AUTO_MIGRATE" envDefault:"false"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"10"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"1h"`
}

type RedisConfig struct {
	Addr     string `env:"ADDR" envDefault:"redis:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
	PoolSize int    `env:"POOL_SIZE" envDefault:"0"`
}

type LoanConfig struct {
	MinAmount   decimal.Decimal `env:"MIN_AMOUNT" envDefault:"5000000"`
	MaxAmount   decimal.Decimal `env:"MAX_AMOUNT" envDefault:"50000000"`
	AdvanceRate decimal.Decimal `env:"ADVANCE_RATE" envDefault:"0.15"`

	MinRepaymentMonths     int `env:"MIN_REPAYMENT_MONTHS" envDefault:"12"`
	MaxRepaymentMonths     int `env:"MAX_REPAYMENT_MONTHS" envDefault:"300"`
	DefaultRepaymentMonths int `env:"DEFAULT_REPAYMENT_MONTHS" envDefault:"84"`

	RequireValidatedProfile bool `env:"REQUIRE_VALIDATED_PROFILE" envDefault:"true"`

	BankName    string `env:"BANK_NAME" envDefault:"ECOBANK"`
	ManagerName string `env:"MANAGER_NAME"`
}

type NotifyConfig struct {
	Workers        int           `env:"WORKERS" envDefault:"4"`
	QueueSize      int           `env:"QUEUE_SIZE" envDefault:"256"`
	MaxRetries     uint64        `env:"MAX_RETRIES" envDefault:"3"`
	RetryBase      time.Duration `env:"RETRY_BASE" envDefault:"500ms"`
	SendTimeout    time.Duration `env:"SEND_TIMEOUT" envDefault:"10s"`
	DeadLetterPath string        `env:"DEAD_LETTER_PATH"`
}

// SMTPConfig: an empty Host disables email; messages go to the log instead.
type SMTPConfig struct {
	Host string `env:"HOST"`
	Port int    `env:"PORT" envDefault:"587"`
	User string `env:"USER"`
	Pass string `env:"PASS"`
	From string `env:"FROM" envDefault:"ECOBANK <no-reply@ecobank.local>"`
	// mandatory | opportunistic | none
	TLS string `env:"TLS" envDefault:"opportunistic"`
}

func (s SMTPConfig) Enabled() bool { return s.Host != "" }

// MinIOConfig: an empty Endpoint disables document uploads.
type MinIOConfig struct {
	Endpoint       string `env:"ENDPOINT"`
	AccessKey      string `env:"ACCESS_KEY"`
	SecretKey      string `env:"SECRET_KEY"`
	Bucket         string `env:"BUCKET" envDefault:"kyc-documents"`
	UseSSL         bool   `env:"USE_SSL" envDefault:"false"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"5242880"`
}

func (m MinIOConfig) Enabled() bool { return m.Endpoint != "" }

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	c := &Config{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return c, nil
}

var hex32 = regexp.MustCompile(`^[0-9a-f]{32}$`)

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if !hex32.MatchString(c.ManagerID) {
		return fmt.Errorf("MANAGER_ACCOUNT_ID must be a 32-char lowercase hex id, got %q", c.ManagerID)
	}
	if err := c.DB.validate(); err != nil {
		return err
	}
	if err := c.Loan.validate(); err != nil {
		return err
	}
	if c.Notify.Workers < 1 || c.Notify.QueueSize < 1 {
		return errors.New("NOTIFY_WORKERS and NOTIFY_QUEUE_SIZE must be positive")
	}
	if c.SMTP.Enabled() {
		switch c.SMTP.TLS {
		case "mandatory", "opportunistic", "none":
		default:
			return fmt.Errorf("invalid SMTP_TLS %q", c.SMTP.TLS)
		}
		if c.SMTP.From == "" {
			return errors.New("missing SMTP_FROM")
		}
	}
	if c.MinIO.Enabled() && c.MinIO.Bucket == "" {
		return errors.New("missing MINIO_BUCKET")
	}
	return nil
}

func (d DBConfig) validate() error {
	switch d.Driver {
	case "sqlite":
		if d.Path == "" {
			return errors.New("missing DB_SQLITE_PATH")
		}
		return nil
	case "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", d.Driver)
	}
	if d.Host == "" || d.Port == "" || d.Name == "" || d.User == "" {
		return errors.New("missing database config (DB_HOST/PORT/NAME/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", d.Port); err != nil {
		return fmt.Errorf("invalid DB_PORT %q: %w", d.Port, err)
	}
	return nil
}

func (l LoanConfig) validate() error {
	if !l.MinAmount.IsPositive() || l.MaxAmount.LessThan(l.MinAmount) {
		return fmt.Errorf("invalid loan amount bounds [%s, %s]", l.MinAmount, l.MaxAmount)
	}
	if !l.AdvanceRate.IsPositive() || l.AdvanceRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("LOAN_ADVANCE_RATE must be in (0, 1), got %s", l.AdvanceRate)
	}
	if l.MinRepaymentMonths < 1 || l.MaxRepaymentMonths < l.MinRepaymentMonths ||
		l.DefaultRepaymentMonths < l.MinRepaymentMonths || l.DefaultRepaymentMonths > l.MaxRepaymentMonths {
		return fmt.Errorf("invalid repayment months: min=%d default=%d max=%d",
			l.MinRepaymentMonths, l.DefaultRepaymentMonths, l.MaxRepaymentMonths)
	}
	return nil
}

func (d DBConfig) addr() string { return net.JoinHostPort(d.Host, d.Port) }

// DSN builds the driver-specific connection string.
func (d DBConfig) DSN() string {
	switch d.Driver {
	case "postgres":
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			d.Host, d.User, d.Pass, d.Name, d.Port, d.SSLMode)
	case "sqlite":
		// immediate: writers queue on busy_timeout at BEGIN instead of failing on lock upgrade
		return d.Path + "?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
	default:
		// parseTime needed for DATETIME
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4,utf8",
			d.User, d.Pass, d.addr(), d.Name)
	}
}

func (c *Config) HTTPAddr() string { return ":" + c.AppPort }

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempTTLSecs) * time.Second
}

// Development reports whether APP_ENV asks for developer-friendly defaults.
func (c *Config) Development() bool {
	switch c.AppEnv {
	case "dev", "development", "local":
		return true
	}
	return false
}
