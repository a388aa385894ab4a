package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/bookingwatch/internal/bookings"
	"github.com/example/bookingwatch/internal/config"
	"github.com/example/bookingwatch/internal/db"
	"github.com/example/bookingwatch/internal/migrate"
	"github.com/example/bookingwatch/internal/premierinn"
)

func newBookingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "booking",
		Short: "Manage watched bookings",
	}
	cmd.AddCommand(newBookingAddCmd())
	cmd.AddCommand(newBookingListCmd())
	cmd.AddCommand(newBookingRemoveCmd())
	return cmd
}

func openService(ctx context.Context) (*bookings.Service, *db.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	d, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := migrate.Up(ctx, d); err != nil {
		d.Close()
		return nil, nil, err
	}

	svc := &bookings.Service{
		Store:   bookings.NewRepo(d),
		Fetcher: premierinn.New(cfg.APIHost),
		Loc:     cfg.Location,
	}
	return svc, d, nil
}

func newBookingAddCmd() *cobra.Command {
	var resNo, arrivalDate, lastName, country, calendars string
	var createCalendar bool

	c := &cobra.Command{
		Use:   "add",
		Short: "Start watching a booking (verifies it upstream first)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, d, err := openService(ctx)
			if err != nil {
				return err
			}
			defer d.Close()

			b, err := svc.AddBooking(ctx, bookings.AddParams{
				ResNo:          resNo,
				ArrivalDate:    arrivalDate,
				LastName:       lastName,
				Country:        country,
				CreateCalendar: createCalendar,
				Calendars:      splitCSV(calendars),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "watching booking %s (arrival %s)\n", b.ResNo, b.ArrivalDate.Format("2006-01-02"))
			return nil
		},
	}

	c.Flags().StringVar(&resNo, "res-no", "", "reservation number")
	c.Flags().StringVar(&arrivalDate, "arrival-date", "", "arrival date (YYYY-MM-DD)")
	c.Flags().StringVar(&lastName, "last-name", "", "last name on the booking")
	c.Flags().StringVar(&country, "country", "gb", "country the booking was made in (gb or de)")
	c.Flags().StringVar(&calendars, "calendars", "", "comma separated calendar targets")
	c.Flags().BoolVar(&createCalendar, "create-calendar", false, "create a calendar for this booking")
	_ = c.MarkFlagRequired("res-no")
	_ = c.MarkFlagRequired("arrival-date")
	_ = c.MarkFlagRequired("last-name")
	return c
}

func newBookingListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List watched bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, d, err := openService(ctx)
			if err != nil {
				return err
			}
			defer d.Close()

			bs, err := svc.Store.List(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RES NO\tARRIVAL\tLAST NAME\tCOUNTRY\tCALENDARS")
			for _, b := range bs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					b.ResNo, b.ArrivalDate.Format("2006-01-02"), b.LastName, b.Country,
					strings.Join(b.Calendars, ","))
			}
			return w.Flush()
		},
	}
}

func newBookingRemoveCmd() *cobra.Command {
	var resNo string

	c := &cobra.Command{
		Use:   "remove",
		Short: "Stop watching a booking",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, d, err := openService(ctx)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := svc.RemoveBooking(ctx, resNo); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "stopped watching %s\n", strings.ToUpper(resNo))
			return nil
		},
	}

	c.Flags().StringVar(&resNo, "res-no", "", "reservation number")
	_ = c.MarkFlagRequired("res-no")
	return c
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
