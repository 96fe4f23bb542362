package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wardbook/wardbook/internal/config"
	"github.com/wardbook/wardbook/internal/domain/census"
	"github.com/wardbook/wardbook/internal/domain/consult"
	"github.com/wardbook/wardbook/internal/domain/patient"
	"github.com/wardbook/wardbook/internal/domain/workitem"
	"github.com/wardbook/wardbook/internal/platform/auth"
	"github.com/wardbook/wardbook/internal/platform/db"
	"github.com/wardbook/wardbook/internal/platform/middleware"
	"github.com/wardbook/wardbook/internal/platform/report"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wardbook-server",
		Short: "Ward patient and work tracking server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the wardbook API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run store migrations",
	}

	open := func(ctx context.Context) (*db.Migrator, func(), error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, err
		}
		sqldb, err := db.Open(ctx, cfg.DatabasePath)
		if err != nil {
			return nil, nil, err
		}
		return db.NewMigrator(sqldb, cfg.MigrationsDir), func() { sqldb.Close() }, nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			migrator, closeDB, err := open(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			migrator, closeDB, err := open(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})

	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for API access",
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, _ := cmd.Flags().GetString("subject")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.AuthEnabled() {
				return fmt.Errorf("AUTH_TOKEN_SECRET is not set; the server runs open")
			}

			token, err := auth.IssueToken([]byte(cfg.AuthTokenSecret), subject, ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().String("subject", "ward", "Token subject")
	cmd.Flags().Duration("ttl", 30*24*time.Hour, "Token lifetime")
	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Store
	ctx := context.Background()
	sqldb, err := db.Open(ctx, cfg.DatabasePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer sqldb.Close()
	logger.Info().Str("path", cfg.DatabasePath).Msg("store opened")

	// Migrations run at startup so a fresh device is usable immediately.
	migrator := db.NewMigrator(sqldb, cfg.MigrationsDir)
	applied, err := migrator.Up(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("migrations failed")
	}
	if applied > 0 {
		logger.Info().Int("applied", applied).Msg("migrations applied")
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.AuthEnabled() {
		e.Use(auth.Middleware([]byte(cfg.AuthTokenSecret)))
	} else {
		e.Use(auth.OpenMiddleware())
	}

	// Repositories
	patientRepo := patient.NewRepoSQLite(sqldb)
	tasksRepo := workitem.NewTasksRepo(sqldb)
	oldLabsRepo := workitem.NewOldLabsRepo(sqldb)
	consultsRepo := consult.NewConsultationsRepo(sqldb)
	oldConsultsRepo := consult.NewOldConsultationsRepo(sqldb)
	censusRepo := census.NewRepoSQLite(sqldb)

	// Services. Renaming a patient rewrites the registration number in every
	// dependent ledger inside one transaction.
	inTx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.WithTx(ctx, sqldb, fn)
	}
	patientSvc := patient.NewService(patientRepo, inTx,
		tasksRepo, oldLabsRepo, consultsRepo, oldConsultsRepo)
	workitemSvc := workitem.NewService(tasksRepo, oldLabsRepo, patientSvc)
	consultSvc := consult.NewService(consultsRepo, oldConsultsRepo, patientSvc)
	censusSvc := census.NewService(censusRepo)
	reportBuilder := report.NewBuilder(censusSvc)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(sqldb))

	// Routes
	apiV1 := e.Group("/api/v1")
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)
	workitem.NewHandler(workitemSvc).RegisterRoutes(apiV1)
	consult.NewHandler(consultSvc).RegisterRoutes(apiV1)
	census.NewHandler(censusSvc).RegisterRoutes(apiV1)
	report.NewHandler(reportBuilder).RegisterRoutes(apiV1)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
