package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vigility/dashboard/internal/api/handlers"
	"github.com/vigility/dashboard/internal/api/routes"
	"github.com/vigility/dashboard/internal/application/services"
	"github.com/vigility/dashboard/internal/domain/entities"
)

var errNotSignedIn = errors.New("not signed in, run `dashboard login` first")

// analyticsFlags are the filter overrides accepted by the analytics command.
// A flag that is not given keeps the restored value.
type analyticsFlags struct {
	start   string
	end     string
	age     string
	gender  string
	feature string
	asJSON  bool
}

func buildAnalyticsCmd(opts *rootOptions) *cobra.Command {
	var flags analyticsFlags

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show feature usage for the current filters",
		Long: `Show feature usage for your saved filters, optionally changing them first.

Dates are YYYY-MM-DD in FILTER_TIMEZONE. Both --start and --end must be set
for the date range to apply. Pass an empty value to clear a filter.`,
		Example: `  dashboard analytics
  dashboard analytics --start 2024-01-01 --end 2024-01-31 --gender female
  dashboard analytics --feature chart_bar --json
  dashboard analytics --age ""`,
		RunE: func(cmd *cobra.Command, args []string) error {
			update, err := flags.update(cmd)
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if !a.session.IsAuthenticated() {
					return errNotSignedIn
				}

				if update != nil {
					a.controller.Update(ctx, update)
				}
				a.controller.Wait()

				state := a.controller.State()
				if state.Result == nil && state.Error == "" {
					// the gate held the query back, e.g. a half-set range
					a.controller.Refresh(ctx)
					a.controller.Wait()
					state = a.controller.State()
				}

				if flags.asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					if err := enc.Encode(state); err != nil {
						return err
					}
				} else {
					printState(cmd.OutOrStdout(), state)
				}
				if state.Error != "" {
					return errors.New(state.Error)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&flags.start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flags.end, "end", "", "End date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flags.age, "age", "", "Age group: <18, 18-40 or >40")
	cmd.Flags().StringVar(&flags.gender, "gender", "", "Gender: Male, Female or Other")
	cmd.Flags().StringVar(&flags.feature, "feature", "", "Drill into one feature's daily trend")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "Print the dashboard state as JSON")
	return cmd
}

// update turns the changed flags into one batch filter update, or nil when
// no filter flag was given
func (f analyticsFlags) update(cmd *cobra.Command) (func(*entities.FilterState), error) {
	changed := cmd.Flags().Changed
	var steps []func(*entities.FilterState)

	if changed("start") {
		start := f.start
		steps = append(steps, func(s *entities.FilterState) { s.DateRange.Start = start })
	}
	if changed("end") {
		end := f.end
		steps = append(steps, func(s *entities.FilterState) { s.DateRange.End = end })
	}
	if changed("age") {
		group, err := entities.ParseAgeGroup(f.age)
		if err != nil {
			return nil, err
		}
		steps = append(steps, func(s *entities.FilterState) { s.AgeGroup = group })
	}
	if changed("gender") {
		gender, err := entities.ParseGender(f.gender)
		if err != nil {
			return nil, err
		}
		steps = append(steps, func(s *entities.FilterState) { s.Gender = gender })
	}
	if changed("feature") {
		feature := f.feature
		steps = append(steps, func(s *entities.FilterState) { s.SelectedFeature = feature })
	}

	if len(steps) == 0 {
		return nil, nil
	}
	return func(s *entities.FilterState) {
		for _, step := range steps {
			step(s)
		}
	}, nil
}

func buildFiltersCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filters",
		Short: "Inspect or reset your saved filters",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the saved filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if !a.session.IsAuthenticated() {
					return errNotSignedIn
				}
				printFilters(cmd.OutOrStdout(), a.controller.State().Filters)
				return nil
			})
		},
	}

	var forget bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Reset every filter",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if !a.session.IsAuthenticated() {
					return errNotSignedIn
				}
				a.controller.ClearAll(ctx)
				if forget {
					if err := a.snapshots.Clear(ctx, a.session.UserID()); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "Filters cleared and saved snapshot removed")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Filters cleared")
				return nil
			})
		},
	}
	clearCmd.Flags().BoolVar(&forget, "forget", false, "Also delete the stored snapshot")

	cmd.AddCommand(showCmd, clearCmd)
	return cmd
}

func buildServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local dashboard API for the browser front end",
		Long: `Run the local dashboard API.

The server exposes the dashboard state, the filter operations and the account
flows under /api, a Server-Sent Events stream of state changes at
/api/dashboard/stream, plus /health and Prometheus /metrics. Graceful shutdown is
handled on SIGINT/SIGTERM signals.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if addr == "" {
					addr = a.cfg.Server.Addr()
				}
				return runServe(ctx, a, addr)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to SERVER_HOST:SERVER_PORT)")
	return cmd
}

func runServe(ctx context.Context, a *app, addr string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	router := routes.NewRouter(
		handlers.NewDashboardHandler(a.controller),
		handlers.NewAuthHandler(a.auth, a.session),
		handlers.NewHealthHandler(a.checks),
		handlers.NewSSEHandler(a.controller, 30*time.Second),
		a.cfg.Server.AllowedOrigins,
		a.metrics,
	)

	// no write timeout: the dashboard stream stays open
	server := &http.Server{
		Addr:        addr,
		Handler:     router.Handler(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Dashboard API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

var _ handlers.DashboardController = (*services.FilterController)(nil)
