package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"ecobank-loans/internal/adapter/repository/gormstore"
	"ecobank-loans/internal/config"
	"ecobank-loans/internal/infrastructure/db"
	"ecobank-loans/internal/infrastructure/logging"
	"ecobank-loans/internal/notify"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gorm.io/gorm/logger"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "deadletters",
		Short: "Inspect and replay notifications that exhausted their retries",
		Long:  `Inspect and replay notifications that exhausted their retries.

The file is locked per operation, so these commands work while the API
server is running; each one waits up to 5s for the server's current write.`,
	}
	rootCmd.PersistentFlags().StringP("file", "f", "", "dead letter file (defaults to NOTIFY_DEAD_LETTER_PATH)")

	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(replayCmd())
	rootCmd.AddCommand(dropCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List dead letters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, store, err := open(cmd)
			if err != nil {
				return err
			}

			letters, err := store.List()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MESSAGE\tCHANNEL\tTEMPLATE\tRECIPIENT\tFAILED\tERROR")
			for _, l := range letters {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					l.MessageID, l.Channel, l.TemplateKey, l.RecipientID, humanize.Time(l.FailedAt), l.Error)
			}
			return w.Flush()
		},
	}
}

func replayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay",
		Short: "Redeliver dead letters through the configured channels",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, store, err := open(cmd)
			if err != nil {
				return err
			}

			channels, err := replayChannels(cfg)
			if err != nil {
				return err
			}
			n, err := notify.Replay(cmd.Context(), store, channels)
			fmt.Fprintf(cmd.OutOrStdout(), "replayed %d letter(s)\n", n)
			return err
		},
	}
}

func dropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop <message_id> <channel>",
		Short: "Delete one dead letter without delivering it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := open(cmd)
			if err != nil {
				return err
			}
			return store.Delete(args[0], args[1])
		},
	}
}

func open(cmd *cobra.Command) (*config.Config, *notify.DeadLetters, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	path, _ := cmd.Flags().GetString("file")
	if path == "" {
		path = cfg.Notify.DeadLetterPath
	}
	if path == "" {
		return nil, nil, errors.New("no dead letter file: pass --file or set NOTIFY_DEAD_LETTER_PATH")
	}
	store, err := notify.OpenDeadLetters(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	return cfg, store, nil
}

// replayChannels mirrors the server pipeline: email or log, then the inbox.
func replayChannels(cfg *config.Config) ([]notify.Channel, error) {
	zl, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	var primary notify.Channel = notify.NewLogChannel(zl.Named("mail"))
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
			return nil, err
		}
		primary = email
	}

	gdb, err := db.OpenGorm(cfg.DB.Driver, cfg.DB.DSN(), db.WithLogger(zl, logger.Silent))
	if err != nil {
		zl.Sugar().Warnw("database unavailable, inbox letters are skipped", "error", err)
		return []notify.Channel{primary}, nil
	}
	return []notify.Channel{primary, notify.NewInboxChannel(gormstore.NewNotificationRepository(gdb))}, nil
}
