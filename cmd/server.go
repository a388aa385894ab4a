package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/example/bookingwatch/internal/auth"
	"github.com/example/bookingwatch/internal/bookings"
	"github.com/example/bookingwatch/internal/calendar"
	"github.com/example/bookingwatch/internal/config"
	"github.com/example/bookingwatch/internal/db"
	"github.com/example/bookingwatch/internal/log"
	"github.com/example/bookingwatch/internal/migrate"
	"github.com/example/bookingwatch/internal/notify"
	"github.com/example/bookingwatch/internal/premierinn"
	"github.com/example/bookingwatch/internal/refresh"
	"github.com/example/bookingwatch/internal/web"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the web UI + booking watcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log.SetLevel(cfg.LogLevel)

			if err := cfg.RequireCookieKeys(); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.Ping(ctx); err != nil {
				return errors.Wrap(err, "db ping")
			}

			if migrateUp {
				if err := migrate.Up(ctx, d); err != nil {
					return err
				}
			}

			authStore := auth.NewStore(d, cfg.CookieHashKey, cfg.CookieBlockKey)
			repo := bookings.NewRepo(d)
			client := premierinn.New(cfg.APIHost)
			cal := calendar.NewFileCalendar(cfg.CalendarDir)

			var notifier notify.Notifier = notify.Nop{}
			if cfg.TelegramToken != "" {
				tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
				if err != nil {
					return errors.Wrap(err, "telegram")
				}
				notifier = tg
			}

			sched := &refresh.Scheduler{
				Store:        repo,
				Fetcher:      client,
				Calendar:     cal,
				Notifier:     notifier,
				Loc:          cfg.Location,
				Interval:     cfg.PollInterval(),
				RefreshEvery: cfg.RefreshInterval(),
			}
			go func() { _ = sched.Run(ctx) }()

			svc := &bookings.Service{Store: repo, Fetcher: client, Loc: cfg.Location}
			ws := &web.Server{
				Auth:     authStore,
				Bookings: svc,
				Sched:    sched,
				BaseURL:  cfg.BaseURL,
				Loc:      cfg.Location,
			}
			return web.Start(ctx, cfg.ListenAddr, ws.Routes())
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")

	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}
