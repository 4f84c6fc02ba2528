package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"notepomo/internal/clock"
	"notepomo/internal/config"
	"notepomo/internal/db"
	"notepomo/internal/handler"
	"notepomo/internal/repository"
	"notepomo/internal/router"
	"notepomo/internal/service"
	"notepomo/migrations"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not found, using process environment")
	}

	rootCmd := &cobra.Command{
		Use:          "notepomo-server",
		Short:        "Notes and pomodoro session API",
		SilenceUsage: true,
		RunE:         runServer,
	}
	config.RegisterFlags(rootCmd.Flags())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	database, dialect, err := db.Connect(cfg.DBDriver, cfg.DBPath, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.RunMigrations(database, dialect, migrations.Source(cfg.MigrationsDir)); err != nil {
		return err
	}

	clk := clock.SystemClock{}
	userRepo := repository.NewUserRepository(database, dialect)
	noteRepo := repository.NewNoteRepository(database, dialect)
	pomodoroRepo := repository.NewPomodoroRepository(database, dialect)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	noteService := service.NewNoteService(noteRepo, clk)
	pomodoroService := service.NewPomodoroService(pomodoroRepo, clk)

	engine := router.New(
		authService,
		handler.NewAuthHandler(authService),
		handler.NewNoteHandler(noteService),
		handler.NewPomodoroHandler(pomodoroService),
		cfg.CORSOrigins,
	)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("backend listening on :%s (%s)", cfg.Port, dialect)
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

	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
