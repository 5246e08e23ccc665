package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadp "ecobank-loans/internal/adapter/http"
	"ecobank-loans/internal/adapter/repository/gormstore"
	"ecobank-loans/internal/adapter/storage"
	"ecobank-loans/internal/config"
	"ecobank-loans/internal/domain/account"
	"ecobank-loans/internal/domain/notification"
	"ecobank-loans/internal/infrastructure/cache"
	"ecobank-loans/internal/infrastructure/db"
	"ecobank-loans/internal/infrastructure/logging"
	"ecobank-loans/internal/notify"
	accountuc "ecobank-loans/internal/usecase/account"
	"ecobank-loans/internal/usecase/inbox"
	"ecobank-loans/internal/usecase/loan"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	zl, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormLevel := logger.Warn
	if cfg.Development() {
		gormLevel = logger.Info
	}
	gdb, err := db.OpenGorm(cfg.DB.Driver, cfg.DB.DSN(),
		db.WithPool(cfg.DB.MaxOpenConns, cfg.DB.MaxIdleConns, cfg.DB.ConnMaxLifetime),
		db.WithLogger(zl, gormLevel),
	)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if cfg.DB.AutoMigrate {
		if err := gormstore.Migrate(gdb); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		zl.Info("schema migrated")
	}

	rdb, err := cache.OpenRedis(ctx, cache.Settings{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		return fmt.Errorf("open redis: %w", err)
	}
	defer rdb.Close()

	accounts := gormstore.NewAccountRepository(gdb)
	notifications := gormstore.NewNotificationRepository(gdb)
	tx := gormstore.NewGormUoW(gdb)
	auth := account.StaticManager(cfg.ManagerID)

	dispatcher, err := newDispatcher(cfg, notifications, zl)
	if err != nil {
		return err
	}

	accountOpts := []accountuc.Option{
		accountuc.WithNotifier(dispatcher),
		accountuc.WithLogger(zl.Named("account")),
		accountuc.WithMaxUpload(cfg.MinIO.MaxUploadBytes),
	}
	if cfg.MinIO.Enabled() {
		store, err := storage.OpenMinIO(ctx, storage.MinIOSettings{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			UseSSL:    cfg.MinIO.UseSSL,
		}, zl.Named("storage"))
		if err != nil {
			return fmt.Errorf("open minio: %w", err)
		}
		accountOpts = append(accountOpts, accountuc.WithDocumentStore(store))
	} else {
		zl.Warn("MINIO_ENDPOINT not set, document uploads disabled")
	}

	policy := loan.Policy{
		MinAmount:               cfg.Loan.MinAmount,
		MaxAmount:               cfg.Loan.MaxAmount,
		AdvanceRate:             cfg.Loan.AdvanceRate,
		MinRepaymentMonths:      cfg.Loan.MinRepaymentMonths,
		MaxRepaymentMonths:      cfg.Loan.MaxRepaymentMonths,
		DefaultRepaymentMonths:  cfg.Loan.DefaultRepaymentMonths,
		RequireValidatedProfile: cfg.Loan.RequireValidatedProfile,
		BankName:                cfg.Loan.BankName,
		ManagerName:             cfg.Loan.ManagerName,
	}
	loanUC := loan.NewUsecase(gormstore.NewLoanRepository(gdb), gormstore.NewPaymentRepository(gdb), accounts, tx, auth, policy,
		loan.WithNotifier(dispatcher),
		loan.WithLogger(zl.Named("loan")),
	)
	accountUC := accountuc.NewUsecase(accounts, tx, auth, accountOpts...)
	inboxUC := inbox.NewUsecase(gormstore.NewMessageRepository(gdb), notifications, accounts, cfg.ManagerID,
		inbox.WithNotifier(dispatcher),
		inbox.WithLogger(zl.Named("inbox")),
	)

	e := httpadp.NewRouter(httpadp.RouterDeps{
		Health: httpadp.NewHandler(
			httpadp.Check{Name: "database", Ping: func(ctx context.Context) error {
				sqlDB, err := gdb.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			}},
			httpadp.Check{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		),
		Accounts: httpadp.NewAccountHandler(accountUC, zl),
		Loans:    httpadp.NewLoanHandler(loanUC, auth, zl),
		Inbox:    httpadp.NewInboxHandler(inboxUC, zl),
		Auth:     auth,
		Redis:    rdb,
		IdempTTL: cfg.IdempotencyTTL(),
		Log:      zl,
		// multipart overhead on top of the largest accepted document
		BodyLimit: fmt.Sprintf("%dK", cfg.MinIO.MaxUploadBytes/1024+64),
	})
	server := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// the dispatcher outlives the server so in-flight requests can still notify
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	defer stopDispatch()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dispatcher.Run(dispatchCtx)
	})
	g.Go(func() error {
		zl.Info("listening",
			zap.String("addr", server.Addr),
			zap.String("max_upload", humanize.IBytes(uint64(cfg.MinIO.MaxUploadBytes))))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zl.Info("shutting down")
		defer stopDispatch()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()
	zl.Info("stopped")
	return err
}

// newDispatcher builds the delivery pipeline: email when SMTP is configured,
// the log otherwise, plus the in-app inbox.
func newDispatcher(cfg *config.Config, notifications notification.Repository, zl *zap.Logger) (*notify.Dispatcher, error) {
	renderer, err := notify.NewRenderer(notification.Templates)
	if err != nil {
		return nil, fmt.Errorf("notification templates: %w", err)
	}

	var primary notify.Channel
	if cfg.SMTP.Enabled() {
		email, err := notify.NewEmailChannel(notify.SMTPSettings{
			Host: cfg.SMTP.Host,
			Port: cfg.SMTP.Port,
			User: cfg.SMTP.User,
			Pass: cfg.SMTP.Pass,
			From: cfg.SMTP.From,
			TLS:  cfg.SMTP.TLS,
		})
		if err != nil {
			return nil, fmt.Errorf("smtp: %w", err)
		}
		primary = email
	} else {
		zl.Warn("SMTP_HOST not set, notifications are logged instead of emailed")
		primary = notify.NewLogChannel(zl.Named("mail"))
	}
	channels := []notify.Channel{primary, notify.NewInboxChannel(notifications)}

	opts := []notify.Option{notify.WithLogger(zl.Named("notify"))}
	if cfg.Notify.DeadLetterPath != "" {
		dead, err := notify.OpenDeadLetters(cfg.Notify.DeadLetterPath)
		if err != nil {
			return nil, fmt.Errorf("dead letters: %w", err)
		}
		opts = append(opts, notify.WithDeadLetters(dead))
	}

	d := notify.NewDispatcher(renderer, channels, notify.Config{
		Workers:     cfg.Notify.Workers,
		QueueSize:   cfg.Notify.QueueSize,
		MaxRetries:  cfg.Notify.MaxRetries,
		RetryBase:   cfg.Notify.RetryBase,
		SendTimeout: cfg.Notify.SendTimeout,
	}, opts...)
	return d, nil
}
