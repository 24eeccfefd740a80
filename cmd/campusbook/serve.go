package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/campusbook/campusbook/internal/auth"
	"github.com/campusbook/campusbook/internal/config"
	httpapp "github.com/campusbook/campusbook/internal/http"
	"github.com/campusbook/campusbook/internal/http/handlers"
	"github.com/campusbook/campusbook/internal/logging"
	"github.com/campusbook/campusbook/internal/metrics"
	"github.com/campusbook/campusbook/internal/session"
	"github.com/campusbook/campusbook/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	if _, err := logging.BootstrapFromEnv("campusbook serve"); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	h := &handlers.Handlers{
		Sessions:    session.NewManager(),
		Resolver:    auth.NewResolver(store.NewUserRepo(pool)),
		Students:    store.NewStudentRepo(pool),
		Teachers:    store.NewTeacherRepo(pool),
		Courses:     store.NewCourseRepo(pool),
		Departments: store.NewDepartmentRepo(pool),
	}

	srv, err := httpapp.NewEchoServer(cfg, h)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	_, metricsErrCh := metrics.StartServer(ctx, cfg.MetricsAddr)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("listening", "addr", cfg.HTTPAddr)
		if err := srv.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		var cause error
		select {
		case <-gctx.Done():
		case cause = <-orNever(metricsErrCh):
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return cause
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return nil
}

// orNever makes a nil channel safe to select on (nil blocks forever).
func orNever(ch <-chan error) <-chan error {
	if ch == nil {
		return make(chan error)
	}
	return ch
}
