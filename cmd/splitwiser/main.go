package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/vishal1807gupta/go-splitwise/internal/app"
	"github.com/vishal1807gupta/go-splitwise/internal/apperrors"
	"github.com/vishal1807gupta/go-splitwise/internal/config"
	"github.com/vishal1807gupta/go-splitwise/internal/middleware"
	"github.com/vishal1807gupta/go-splitwise/internal/models"
	"github.com/vishal1807gupta/go-splitwise/internal/money"
	"github.com/vishal1807gupta/go-splitwise/pkg/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("splitwiser failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := app.New(ctx, cfg, app.WithLogger(logger), app.WithMetrics(reg))
	if err != nil {
		return err
	}
	defer a.Close()
	logger.Info("Client initialized", "backend", cfg.BackendURL, "session_db", cfg.SessionDBPath)

	user, ok := a.Session.CheckSession(ctx)
	if !ok {
		email, password := os.Getenv("SPLITWISER_EMAIL"), os.Getenv("SPLITWISER_PASSWORD")
		if email == "" {
			logger.Info("Not signed in; set SPLITWISER_EMAIL and SPLITWISER_PASSWORD to log in")
			return nil
		}
		user, err = a.Session.Login(ctx, email, password, true)
		if err != nil {
			return errors.New(apperrors.Message(err))
		}
	}

	if err := printOverview(ctx, a, user); err != nil {
		return err
	}

	if cfg.MetricsAddr == "" {
		return nil
	}
	return serveMetrics(ctx, cfg.MetricsAddr, reg, logger)
}

func printOverview(ctx context.Context, a *app.App, user *models.User) error {
	groups, err := a.Roster.Groups(ctx, user.ID)
	if err != nil {
		return errors.New(apperrors.Message(err))
	}
	fmt.Printf("Signed in as %s (%s)\n", user.Name, user.Email)
	if len(groups) == 0 {
		fmt.Println("No groups yet.")
		return nil
	}

	for _, g := range groups {
		page, err := a.OpenGroup(ctx, g.GroupID)
		if err != nil {
			fmt.Printf("\n%s: %s\n", g.GroupName, apperrors.Message(err))
			continue
		}
		fmt.Printf("\n%s (%d members)\n  %s\n", g.GroupName, len(page.Members()), page.Settlements.Summary())
		for _, e := range page.Settlements.Visible() {
			fmt.Printf("  - %s %s\n", e.Label(), money.Format(e.Amount))
		}
		if lines := page.History.Lines(); len(lines) > 0 {
			fmt.Printf("  Last payment: %s (%s)\n", lines[0].Text, lines[0].Date)
		}
		page.Close()
	}
	return nil
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           h2c.NewHandler(middleware.Logging(logger)(mux), &http2.Server{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Metrics server starting", "address", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}
