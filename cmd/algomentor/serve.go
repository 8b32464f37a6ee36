package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/algomentor/internal/config"
	"github.com/jonathan/algomentor/internal/db"
	"github.com/jonathan/algomentor/internal/feedback"
	"github.com/jonathan/algomentor/internal/server"
	"github.com/jonathan/algomentor/internal/server/ratelimit"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	servePort           int
	serveAllowedOrigins []string
	serveSkipMigrations bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server exposing signup, login, dashboard, recommendation, feedback and mentor chat endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	serveCmd.Flags().StringSliceVar(&serveAllowedOrigins, "allowed-origin", nil, "CORS origin to allow (repeatable, default *)")
	serveCmd.Flags().BoolVar(&serveSkipMigrations, "skip-migrations", false, "Do not apply pending database migrations on startup")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return err
	}
	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if !serveSkipMigrations {
		applied, err := database.RunMigrations(ctx)
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		if len(applied) > 0 {
			log.Info().Strs("versions", applied).Msg("applied migrations")
		}
	}

	a, err := newApp(ctx, cfg, appOptions{withLLM: true, store: database})
	if err != nil {
		return err
	}
	defer a.Close()

	limiter := ratelimit.NewLimiter(ratelimit.LoadConfig())

	srv := server.New(server.Config{
		Addr:           cfg.Addr(),
		AllowedOrigins: serveAllowedOrigins,
	}, server.Deps{
		Users:     server.NewUserService(database, passwordConfig),
		JWT:       server.NewJWTService(jwtConfig),
		Dashboard: a.dashboard,
		Mentor:    feedback.NewMentor(a.llm),
		Sessions:  server.NewSessions(feedback.DefaultHistorySize, server.DefaultSessionIdle),
		Limiter:   limiter,
		Health:    database,
	})

	return srv.Run(ctx)
}
