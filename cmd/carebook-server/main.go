package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/carebook/carebook/internal/config"
	"github.com/carebook/carebook/internal/domain/booking"
	"github.com/carebook/carebook/internal/domain/patient"
	"github.com/carebook/carebook/internal/domain/reminder"
	"github.com/carebook/carebook/internal/domain/workflow"
	"github.com/carebook/carebook/internal/platform/db"
	"github.com/carebook/carebook/internal/platform/eventbus"
	"github.com/carebook/carebook/internal/platform/middleware"
	"github.com/carebook/carebook/internal/platform/notification"
)

func main() {
	root := &cobra.Command{
		Use:   "carebook-server",
		Short: "Patient scheduling workflow service",
	}
	root.AddCommand(serveCmd(), patientIDCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

// patientIDCmd prints the deterministic patient id for a name and date
// of birth, handy when inspecting the stores by hand.
func patientIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "patient-id <full-name> <date-of-birth>",
		Short: "Compute the patient id for a name and YYYY-MM-DD date of birth",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dob, err := time.Parse(patient.DateLayout, args[1])
			if err != nil {
				return fmt.Errorf("date of birth must be YYYY-MM-DD: %w", err)
			}
			fmt.Println(patient.IdentityKey(args[0], dob))
			return nil
		},
	}
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	logger := newLogger(cfg)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: flat files by default, Postgres when DATABASE_URL is set.
	// The reminder job log is always file-backed.
	var (
		patientRepo patient.Repository
		ledger      booking.Ledger
	)
	if cfg.UsePostgres() {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()

		patientRepo, err = patient.NewPgRepository(ctx, pool)
		if err != nil {
			return err
		}
		ledger, err = booking.NewPgLedger(ctx, pool)
		if err != nil {
			return err
		}
		logger.Info().Msg("using postgres stores")
	} else {
		patientRepo, err = patient.NewFileRepository(filepath.Join(cfg.DataDir, "patients.csv"))
		if err != nil {
			return err
		}
		ledger, err = booking.NewFileLedger(filepath.Join(cfg.DataDir, "bookings.csv"))
		if err != nil {
			return err
		}
		logger.Info().Str("data_dir", cfg.DataDir).Msg("using flat-file stores")
	}

	jobStore, err := reminder.NewFileJobStore(filepath.Join(cfg.DataDir, "reminders.jsonl"))
	if err != nil {
		return err
	}

	// Notifications go to the console; swap the senders for real
	// transports when one exists.
	notifier := notification.NewManager(
		&notification.ConsoleEmailSender{Logger: logger},
		&notification.ConsoleSMSSender{Logger: logger},
		notification.NewTemplateEngine(),
	)

	bus := eventbus.New()
	bus.Subscribe(eventbus.Wildcard, eventbus.LogListener(logger))

	patientSvc := patient.NewService(patientRepo, logger)
	bookingSvc := booking.NewService(ledger, cfg.SlotStepMinutes, cfg.MaxSlotResults, logger)

	dispatcher := reminder.NewNotificationDispatcher(patientRepo, notifier, logger)
	scheduler := reminder.NewScheduler(jobStore, dispatcher, nil, logger)
	if _, err := scheduler.Rehydrate(ctx); err != nil {
		return err
	}
	go scheduler.Run(ctx)

	workflowSvc := workflow.NewService(patientSvc, bookingSvc, scheduler, notifier, bus, workflow.Options{
		DefaultDoctor:   cfg.DefaultDoctor,
		DefaultLocation: cfg.DefaultLocation,
		WindowDays:      cfg.WindowDays,
	}, logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.CORSOrigins}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("")
	workflow.NewHandler(workflowSvc).RegisterRoutes(api)
	notification.NewHandler(notifier).RegisterRoutes(api)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
