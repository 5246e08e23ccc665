package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type options struct {
	maxOpen     int
	maxIdle     int
	maxLifetime time.Duration
	maxIdleTime time.Duration
	log         *zap.Logger
	logLevel    logger.LogLevel
}

type Option func(*options)

func WithPool(maxOpen, maxIdle int, lifetime time.Duration) Option {
	return func(o *options) {
		o.maxOpen, o.maxIdle, o.maxLifetime = maxOpen, maxIdle, lifetime
	}
}

// WithLogger routes gorm's SQL logging through zap at the given gorm level.
func WithLogger(l *zap.Logger, level logger.LogLevel) Option {
	return func(o *options) { o.log, o.logLevel = l, level }
}

// Dialector picks the gorm driver for mysql, postgres or sqlite.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

func OpenGorm(driver, dsn string, opts ...Option) (*gorm.DB, error) {
	dial, err := Dialector(driver, dsn)
	if err != nil {
		return nil, err
	}
	return OpenGormWithDialector(dial, opts...)
}

// OpenGormWithDialector opens, sizes the pool and pings exactly once.
func OpenGormWithDialector(dial gorm.Dialector, opts ...Option) (*gorm.DB, error) {
	o := options{
		maxOpen:     30,
		maxIdle:     10,
		maxLifetime: 30 * time.Minute,
		maxIdleTime: 10 * time.Minute,
		log:         zap.NewNop(),
		logLevel:    logger.Warn,
	}
	for _, fn := range opts {
		fn(&o)
	}

	cfg := &gorm.Config{
		Logger: logger.New(zap.NewStdLog(o.log.Named("gorm")), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  o.logLevel,
			IgnoreRecordNotFoundError: true,
		}),
		DisableAutomaticPing: true,
		NowFunc:              func() time.Time { return time.Now().UTC() },
	}
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(o.maxOpen)
	sqlDB.SetMaxIdleConns(o.maxIdle)
	sqlDB.SetConnMaxLifetime(o.maxLifetime)
	sqlDB.SetConnMaxIdleTime(o.maxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	o.log.Info("gorm: connected", zap.String("dialect", dial.Name()))
	return db, nil
}
